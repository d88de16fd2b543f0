package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	"github.com/highgoal215/cryptowallet_service/internal/domain/services/ledger"
	"github.com/highgoal215/cryptowallet_service/pkg/auth"
	"github.com/highgoal215/cryptowallet_service/pkg/logger"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(token string) (*ledger.Session, *auth.Claims, error) {
	args := m.Called(token)
	var sess *ledger.Session
	if s := args.Get(0); s != nil {
		sess = s.(*ledger.Session)
	}
	var claims *auth.Claims
	if c := args.Get(1); c != nil {
		claims = c.(*auth.Claims)
	}
	return sess, claims, args.Error(2)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) entities.ErrorResponse {
	t.Helper()
	var resp entities.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	t.Run("generates", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())
	})

	t.Run("propagates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
		assert.Equal(t, "req-123", w.Body.String())
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Recovery(logger.NewNop()))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, w).Code)
}

func TestRateLimit_BlocksExcessRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(2))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should be allowed", i+1)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS([]string{"http://localhost:3000"}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSessionAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	authenticator := new(MockAuthenticator)
	authenticator.On("Authenticate", "good").Return(nil, &auth.Claims{
		UserID:    "user-1",
		SessionID: "sess-1",
		Email:     "a@example.com",
	}, nil)
	authenticator.On("Authenticate", "bad").Return(nil, nil, errors.New("expired"))

	router := gin.New()
	router.Use(SessionAuth(authenticator, logger.NewNop()))
	router.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":    c.GetString("user_id"),
			"session_id": c.GetString("session_id"),
		})
	})

	tests := []struct {
		name         string
		header       string
		expectedCode int
		errorCode    string
	}{
		{"missing header", "", http.StatusUnauthorized, "SESSION_REQUIRED"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"rejected token", "Bearer bad", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"valid token", "Bearer good", http.StatusOK, ""},
		{"lowercase scheme", "bearer good", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.errorCode != "" {
				assert.Equal(t, tt.errorCode, decodeError(t, w).Code)
				return
			}
			assert.Contains(t, w.Body.String(), `"user_id":"user-1"`)
			assert.Contains(t, w.Body.String(), `"session_id":"sess-1"`)
		})
	}
}

func TestLoginLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewLoginLimiter(3, 0)
	defer limiter.Shutdown(context.Background())

	router := gin.New()
	router.Use(limiter.Limit())
	router.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	post := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, post("192.168.1.1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, post("192.168.1.1"))
	assert.Equal(t, http.StatusOK, post("192.168.1.2"))
	assert.Equal(t, 2, limiter.Size())
}

func TestLoginLimiter_SweepsIdleClients(t *testing.T) {
	limiter := NewLoginLimiter(10, time.Minute)
	defer limiter.Shutdown(context.Background())

	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	limiter.limiterFor("ip1")
	current = current.Add(30 * time.Second)
	limiter.limiterFor("ip2")
	assert.Equal(t, 2, limiter.Size())

	current = current.Add(45 * time.Second)
	limiter.sweep()
	assert.Equal(t, 1, limiter.Size())

	assert.NoError(t, limiter.Shutdown(context.Background()))
}
