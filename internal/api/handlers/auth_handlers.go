package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	"github.com/highgoal215/cryptowallet_service/internal/domain/services/session"
	"github.com/highgoal215/cryptowallet_service/pkg/logger"
	"github.com/highgoal215/cryptowallet_service/pkg/security"
)

// SessionManager starts and ends ledger sessions
type SessionManager interface {
	Login(ctx context.Context, identity entities.Identity) (*session.LoginResult, error)
	Register(ctx context.Context, email, username string) (*session.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlers handles login, registration and logout
type AuthHandlers struct {
	sessions  SessionManager
	validator *validator.Validate
	logger    *logger.Logger
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(sessions SessionManager, logger *logger.Logger) *AuthHandlers {
	return &AuthHandlers{
		sessions:  sessions,
		validator: validator.New(),
		logger:    logger,
	}
}

// Login handles POST /api/v1/auth/login
// The identity is authenticated upstream; this starts its ledger session.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req entities.LoginRequest
	if !bindJSON(c, h.validator, h.logger, &req) {
		return
	}

	res, err := h.sessions.Login(c.Request.Context(), entities.Identity{
		ID:       req.ID,
		Email:    req.Email,
		Username: req.Username,
	})
	if err != nil {
		h.logger.Error("Login failed", zap.Error(err), zap.String("user_id", req.ID))
		SendDomainError(c, err)
		return
	}

	h.logger.Info("User logged in",
		zap.String("user_id", req.ID),
		zap.String("session_id", res.Session.ID()),
		zap.String("request_id", getRequestID(c)))

	SendSuccess(c, sessionResponse(res))
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandlers) Register(c *gin.Context) {
	var req entities.RegisterRequest
	if !bindJSON(c, h.validator, h.logger, &req) {
		return
	}

	res, err := h.sessions.Register(c.Request.Context(), req.Email, req.Username)
	if err != nil {
		h.logger.Error("Registration failed", zap.Error(err), zap.String("email", security.MaskEmail(req.Email)))
		SendDomainError(c, err)
		return
	}

	h.logger.Info("User registered",
		zap.String("user_id", res.Session.User().ID),
		zap.String("session_id", res.Session.ID()))

	SendCreated(c, sessionResponse(res))
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandlers) Logout(c *gin.Context) {
	sess, ok := requireSession(c, h.logger)
	if !ok {
		return
	}

	if err := h.sessions.Logout(c.Request.Context(), sess.ID()); err != nil {
		h.logger.Warn("Logout failed", zap.Error(err), zap.String("session_id", sess.ID()))
		SendDomainError(c, err)
		return
	}

	SendNoContent(c)
}

func sessionResponse(res *session.LoginResult) entities.SessionResponse {
	return entities.SessionResponse{
		Token:       res.Token.Token,
		ExpiresAt:   res.Token.ExpiresAt,
		SessionID:   res.Session.ID(),
		User:        res.Session.User(),
		BankDetails: res.Session.BankDetails(),
	}
}
