package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	"github.com/highgoal215/cryptowallet_service/internal/domain/services/ledger"
	"github.com/highgoal215/cryptowallet_service/pkg/logger"
)

// Context keys set by the session middleware
const (
	ContextKeySession   = "session"
	ContextKeySessionID = "session_id"
	ContextKeyUserID    = "user_id"
	ContextKeyRequestID = "request_id"
)

// getSession returns the ledger session resolved by the auth middleware
func getSession(c *gin.Context) (*ledger.Session, error) {
	val, exists := c.Get(ContextKeySession)
	if !exists {
		return nil, fmt.Errorf("session not found in context")
	}
	sess, ok := val.(*ledger.Session)
	if !ok || sess == nil {
		return nil, fmt.Errorf("invalid session type in context")
	}
	return sess, nil
}

// requireSession aborts with 401 when no session is attached
func requireSession(c *gin.Context, log *logger.Logger) (*ledger.Session, bool) {
	sess, err := getSession(c)
	if err != nil {
		log.Warn("Request without session", zap.Error(err), zap.String("request_id", getRequestID(c)))
		c.AbortWithStatusJSON(http.StatusUnauthorized, entities.ErrorResponse{
			Code:    ErrCodeSessionRequired,
			Message: "Please log in to continue",
		})
		return nil, false
	}
	return sess, true
}

// getRequestID extracts request ID from context
func getRequestID(c *gin.Context) string {
	if reqID, exists := c.Get(ContextKeyRequestID); exists {
		if id, ok := reqID.(string); ok {
			return id
		}
	}
	return ""
}

// bindJSON decodes and validates the request body, answering 400 on failure
func bindJSON(c *gin.Context, v *validator.Validate, log *logger.Logger, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		log.Warn("Invalid request payload", zap.Error(err))
		SendBadRequest(c, ErrCodeInvalidRequest, MsgInvalidRequest, map[string]interface{}{"error": err.Error()})
		return false
	}
	if err := v.Struct(req); err != nil {
		log.Warn("Request validation failed", zap.Error(err))
		SendValidationError(c, "Request validation failed", validationErrors(err))
		return false
	}
	return true
}

func validationErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["request"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = fmt.Sprintf("failed on '%s'", fe.Tag())
	}
	return out
}

// parseAsset reads an asset ticker in any case, answering 400 when unsupported
func parseAsset(c *gin.Context, field, raw string) (entities.AssetType, bool) {
	asset, err := entities.ParseAssetType(raw)
	if err != nil {
		SendBadRequest(c, ErrCodeInvalidAsset, err.Error(), map[string]interface{}{
			"field":     field,
			"supported": entities.SupportedAssets(),
		})
		return "", false
	}
	return asset, true
}

// parseUUID parses a string to uuid.UUID
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, fmt.Errorf("empty UUID string")
	}
	return uuid.Parse(s)
}

// parseIntParam parses a query parameter to int with default value
func parseIntParam(c *gin.Context, param string, defaultVal int) int {
	if val := c.Query(param); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
