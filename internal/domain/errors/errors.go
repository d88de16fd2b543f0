// Package errors is the ledger's failure taxonomy.
//
// Each failure is a *DomainError carrying an API code and a user-facing
// message. Its Err chain matches a specific sentinel (ErrWalletNotFound,
// ErrInvalidAmount, ...) and, through it, one of the categories below, which
// is what the HTTP layer maps to a status code.
package errors

import "errors"

// Categories
var (
	// ErrNotFound: no wallet, transaction or session under the given key
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput: the request can never succeed as sent
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized: no usable session or token
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInternal: a bug, e.g. a panic recovered by the command queue
	ErrInternal = errors.New("internal error")

	// ErrConflict: the request clashes with ledger state (duplicate address, settled transaction)
	ErrConflict = errors.New("conflict")

	// ErrServiceUnavailable: a collaborator (price feed, wallet backend) failed
	ErrServiceUnavailable = errors.New("service unavailable")
)

// sentinel is a specific error that also matches its category
type sentinel struct {
	msg      string
	category error
}

func (s *sentinel) Error() string { return s.msg }
func (s *sentinel) Unwrap() error { return s.category }

func newSentinel(msg string, category error) error {
	return &sentinel{msg: msg, category: category}
}

// DomainError is a ledger failure as reported to the client
type DomainError struct {
	Err       error
	Code      string
	Message   string
	Details   map[string]interface{}
	Retryable bool
}

func (e *DomainError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Code
	}
}

func (e *DomainError) Unwrap() error { return e.Err }

// IsRetryable reports whether the same request may succeed later
func (e *DomainError) IsRetryable() bool { return e.Retryable }

// ValidationError reports a malformed request field
func ValidationError(field, message string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidInput,
		Code:    "VALIDATION_ERROR",
		Message: message,
		Details: map[string]interface{}{"field": field},
	}
}

func UnauthorizedError(message string) *DomainError {
	return &DomainError{Err: ErrUnauthorized, Code: "UNAUTHORIZED", Message: message}
}

// InternalError keeps the cause in Details; it is never shown as the message
func InternalError(message string, cause error) *DomainError {
	de := &DomainError{Err: ErrInternal, Code: "INTERNAL_ERROR", Message: message}
	if cause != nil {
		de.Details = map[string]interface{}{"cause": cause.Error()}
	}
	return de
}

func IsNotFound(err error) bool           { return errors.Is(err, ErrNotFound) }
func IsInvalidInput(err error) bool       { return errors.Is(err, ErrInvalidInput) }
func IsUnauthorized(err error) bool       { return errors.Is(err, ErrUnauthorized) }
func IsConflict(err error) bool           { return errors.Is(err, ErrConflict) }
func IsServiceUnavailable(err error) bool { return errors.Is(err, ErrServiceUnavailable) }

// GetErrorCode returns the API code of err, or UNKNOWN_ERROR for plain errors
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "UNKNOWN_ERROR"
}

// GetErrorDetails returns the details of err, or nil for plain errors
func GetErrorDetails(err error) map[string]interface{} {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Details
	}
	return nil
}
