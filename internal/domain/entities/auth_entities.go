package entities

import "time"

// Identity is the authenticated user as supplied by the identity provider
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// LoginRequest carries an identity that has already been authenticated upstream
type LoginRequest struct {
	ID       string `json:"id" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=1,max=64"`
}

// RegisterRequest creates a new identity and logs it in
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=1,max=64"`
}

// SessionResponse is returned on login and registration
type SessionResponse struct {
	Token       string      `json:"token"`
	ExpiresAt   time.Time   `json:"expiresAt"`
	SessionID   string      `json:"sessionId"`
	User        Identity    `json:"user"`
	BankDetails BankDetails `json:"bankDetails"`
}

// ErrorResponse is the JSON envelope for every failed request
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
