package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthStatus is the overall or per-component state
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// CheckFunc probes one dependency
type CheckFunc func(ctx context.Context) error

// ComponentHealth is the result of one check
type ComponentHealth struct {
	Status  HealthStatus `json:"status"`
	Error   string       `json:"error,omitempty"`
	Latency string       `json:"latency"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status         HealthStatus               `json:"status"`
	Timestamp      time.Time                  `json:"timestamp"`
	Version        string                     `json:"version"`
	UptimeSeconds  int                        `json:"uptime_seconds"`
	ActiveSessions int                        `json:"active_sessions"`
	Checks         map[string]ComponentHealth `json:"checks,omitempty"`
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checks    map[string]CheckFunc
	sessions  func() int
	logger    *zap.Logger
	version   string
	startTime time.Time
	timeout   time.Duration
}

// NewHealthHandler creates a new health handler. sessions reports the live session count.
func NewHealthHandler(checks map[string]CheckFunc, sessions func() int, logger *zap.Logger, version string) *HealthHandler {
	if checks == nil {
		checks = map[string]CheckFunc{}
	}
	return &HealthHandler{
		checks:    checks,
		sessions:  sessions,
		logger:    logger,
		version:   version,
		startTime: time.Now(),
		timeout:   3 * time.Second,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	response := HealthResponse{
		Status:        StatusHealthy,
		Timestamp:     time.Now(),
		Version:       h.version,
		UptimeSeconds: int(time.Since(h.startTime).Seconds()),
		Checks:        make(map[string]ComponentHealth, len(names)),
	}
	if h.sessions != nil {
		response.ActiveSessions = h.sessions()
	}

	for _, name := range names {
		start := time.Now()
		err := h.checks[name](ctx)
		ch := ComponentHealth{Status: StatusHealthy, Latency: time.Since(start).String()}
		if err != nil {
			ch.Status = StatusUnhealthy
			ch.Error = err.Error()
			response.Status = StatusUnhealthy
		}
		response.Checks[name] = ch
	}

	statusCode := http.StatusOK
	if response.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
		h.logger.Warn("Health check failed", zap.Any("checks", response.Checks))
	}

	c.JSON(statusCode, response)
}

// Ping handles GET /ping
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"time":    time.Now().Unix(),
		"version": h.version,
	})
}
