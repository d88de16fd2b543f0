// Package idempotency replays the stored response of a retried mutating request.
package idempotency

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
)

const (
	// HeaderIdempotencyKey is the HTTP header for idempotency key
	HeaderIdempotencyKey = "Idempotency-Key"

	// HeaderReplayed marks a response served from the store
	HeaderReplayed = "Idempotent-Replayed"

	// MaxBodySize bounds the request body hashed for a key (1MB)
	MaxBodySize = 1 << 20
)

// responseWriter wraps gin.ResponseWriter to capture response
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, entities.ErrorResponse{
		Code:    code,
		Message: message,
		Details: map[string]interface{}{"request_id": c.GetString("request_id")},
	})
}

// Middleware replays responses for repeated Idempotency-Key headers.
// Keys are scoped to the authenticated user, so it must run after session auth.
// A key is reserved while its request runs, so a concurrent duplicate gets 409.
// Server errors release the key so the client can retry them.
func Middleware(store Store, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(HeaderIdempotencyKey)
		if idempotencyKey == "" {
			c.Next()
			return
		}

		if err := ValidateKey(idempotencyKey); err != nil {
			abort(c, http.StatusBadRequest, "INVALID_IDEMPOTENCY_KEY", err.Error())
			return
		}

		bodyBytes, err := ReadBody(c.Request.Body, MaxBodySize)
		if err != nil {
			abort(c, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		storeKey := c.GetString("user_id") + ":" + idempotencyKey
		requestHash := HashRequest(c.Request.Method, c.Request.URL.Path, bodyBytes)

		ctx := c.Request.Context()
		existing, err := store.Get(ctx, storeKey)
		if err != nil {
			logger.Error("Failed to check idempotency key",
				zap.String("idempotency_key", idempotencyKey),
				zap.Error(err))
			c.Next()
			return
		}
		if existing != nil {
			respondExisting(c, existing, idempotencyKey, requestHash, logger)
			return
		}

		reservation := &Record{
			RequestMethod: c.Request.Method,
			RequestPath:   c.Request.URL.Path,
			RequestHash:   requestHash,
			CreatedAt:     time.Now().UTC(),
		}
		reserved, err := store.Reserve(ctx, storeKey, reservation, ReservationTTL)
		if err != nil {
			logger.Error("Failed to reserve idempotency key",
				zap.String("idempotency_key", idempotencyKey),
				zap.Error(err))
			c.Next()
			return
		}
		if !reserved {
			// another request took the key between Get and Reserve
			existing, err = store.Get(ctx, storeKey)
			if err != nil || existing == nil {
				existing = reservation
			}
			respondExisting(c, existing, idempotencyKey, requestHash, logger)
			return
		}

		writer := &responseWriter{ResponseWriter: c.Writer, body: bytes.NewBuffer(nil)}
		c.Writer = writer

		c.Next()

		// the request context may be done once the handler returns
		storeCtx := context.WithoutCancel(ctx)

		status := writer.Status()
		if status >= http.StatusInternalServerError {
			if err := store.Release(storeCtx, storeKey); err != nil {
				logger.Error("Failed to release idempotency key",
					zap.String("idempotency_key", idempotencyKey),
					zap.Error(err))
			}
			return
		}

		record := &Record{
			RequestMethod:  c.Request.Method,
			RequestPath:    c.Request.URL.Path,
			RequestHash:    requestHash,
			ResponseStatus: status,
			ResponseBody:   writer.body.Bytes(),
			CreatedAt:      time.Now().UTC(),
		}
		if err := store.Put(storeCtx, storeKey, record, ttl); err != nil {
			logger.Error("Failed to store idempotency key",
				zap.String("idempotency_key", idempotencyKey),
				zap.Error(err))
		}
	}
}

// respondExisting answers a request whose key is already held, either by a
// finished request (replay) or by one still in flight (409)
func respondExisting(c *gin.Context, existing *Record, key, requestHash string, logger *zap.Logger) {
	if existing.RequestHash != requestHash {
		logger.Warn("Idempotency key reused with a different request",
			zap.String("idempotency_key", key),
			zap.String("path", c.Request.URL.Path))
		abort(c, http.StatusConflict, "IDEMPOTENCY_KEY_CONFLICT",
			"Idempotency key was already used for a different request")
		return
	}

	if existing.Pending() {
		logger.Debug("Idempotency key is still in flight", zap.String("idempotency_key", key))
		abort(c, http.StatusConflict, "IDEMPOTENCY_KEY_IN_PROGRESS",
			"A request with this idempotency key is still being processed")
		return
	}

	logger.Debug("Replaying stored response",
		zap.String("idempotency_key", key),
		zap.Int("status", existing.ResponseStatus))
	c.Header(HeaderReplayed, "true")
	c.Data(existing.ResponseStatus, "application/json; charset=utf-8", existing.ResponseBody)
	c.Abort()
}
