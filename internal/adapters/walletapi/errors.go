package walletapi

import (
	"errors"
	"fmt"
)

// ErrUnsuccessful is returned when the backend answers 2xx with success=false
var ErrUnsuccessful = errors.New("wallet backend reported failure")

// ErrorResponse represents a wallet backend error response
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Error implements the error interface
func (e *ErrorResponse) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("wallet API error [%d]: %s (code: %s)", e.StatusCode, e.Message, e.Code)
	}
	return fmt.Sprintf("wallet API error [%d]: %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error is a 404 not found error
func (e *ErrorResponse) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized returns true if the error is a 401 unauthorized error
func (e *ErrorResponse) IsUnauthorized() bool {
	return e.StatusCode == 401
}

// IsRateLimited returns true if the error is a 429 rate limit error
func (e *ErrorResponse) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsServerError returns true for 5xx responses
func (e *ErrorResponse) IsServerError() bool {
	return e.StatusCode >= 500
}
