package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	domainerrors "github.com/highgoal215/cryptowallet_service/internal/domain/errors"
)

// Error codes as constants for consistent error responses across handlers
const (
	// Session errors
	ErrCodeSessionRequired = "SESSION_REQUIRED"
	ErrCodeSessionClosed   = "SESSION_CLOSED"

	// Validation errors
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeValidationError = "VALIDATION_ERROR"
	ErrCodeInvalidID       = "INVALID_ID"
	ErrCodeInvalidAsset    = "UNSUPPORTED_ASSET"

	// Operation errors
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeTimeout       = "OPERATION_TIMEOUT"
	ErrCodeCancelled     = "OPERATION_CANCELLED"
)

// Error messages as constants for consistency
const (
	MsgInvalidRequest = "Invalid request payload"
	MsgInternalError  = "Internal server error"
	MsgSessionClosed  = "Your session has ended. Please log in again."
	MsgTimeout        = "The operation timed out. Please try again."
)

// SendBadRequest sends a 400 Bad Request error
func SendBadRequest(c *gin.Context, code, message string, details ...map[string]interface{}) {
	var det map[string]interface{}
	if len(details) > 0 {
		det = details[0]
	}
	c.JSON(http.StatusBadRequest, entities.ErrorResponse{
		Code:    code,
		Message: message,
		Details: det,
	})
}

// SendInternalError sends a 500 Internal Server Error
func SendInternalError(c *gin.Context, code, message string) {
	c.JSON(http.StatusInternalServerError, entities.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// SendSuccess sends a 200 OK response with data
func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// SendCreated sends a 201 Created response with data
func SendCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// SendAccepted sends a 202 Accepted response with data
func SendAccepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, data)
}

// SendNoContent sends a 204 No Content response
func SendNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// SendValidationError sends a validation error with field details
func SendValidationError(c *gin.Context, message string, fieldErrors map[string]string) {
	c.JSON(http.StatusBadRequest, entities.ErrorResponse{
		Code:    ErrCodeValidationError,
		Message: message,
		Details: map[string]interface{}{
			"validation_errors": fieldErrors,
		},
	})
}

// SendInvalidField sends an error for a specific invalid field
func SendInvalidField(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, entities.ErrorResponse{
		Code:    ErrCodeValidationError,
		Message: message,
		Details: map[string]interface{}{
			"field": field,
		},
	})
}

// StatusForError maps a ledger or session error to its HTTP status
func StatusForError(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, domainerrors.ErrSessionClosed):
		return http.StatusUnauthorized
	case domainerrors.IsInvalidInput(err):
		return http.StatusBadRequest
	case domainerrors.IsNotFound(err):
		return http.StatusNotFound
	case domainerrors.IsInsufficientBalance(err):
		return http.StatusUnprocessableEntity
	case domainerrors.IsUnauthorized(err):
		return http.StatusUnauthorized
	case domainerrors.IsConflict(err):
		return http.StatusConflict
	case domainerrors.IsRemoteCall(err):
		return http.StatusBadGateway
	case domainerrors.IsServiceUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// SendDomainError renders err with the status, code and message it carries
func SendDomainError(c *gin.Context, err error) {
	status := StatusForError(err)

	var de *domainerrors.DomainError
	switch {
	case errors.As(err, &de):
		resp := entities.ErrorResponse{Code: de.Code, Message: de.Message, Details: de.Details}
		// causes of internal failures stay in the logs
		if status == http.StatusInternalServerError {
			resp = entities.ErrorResponse{Code: ErrCodeInternalError, Message: MsgInternalError}
		}
		c.JSON(status, resp)
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(status, entities.ErrorResponse{Code: ErrCodeTimeout, Message: MsgTimeout})
	case errors.Is(err, context.Canceled):
		c.JSON(status, entities.ErrorResponse{Code: ErrCodeCancelled, Message: "The operation was cancelled"})
	case errors.Is(err, domainerrors.ErrSessionClosed):
		c.JSON(status, entities.ErrorResponse{Code: ErrCodeSessionClosed, Message: MsgSessionClosed})
	default:
		SendInternalError(c, ErrCodeInternalError, MsgInternalError)
	}
}
