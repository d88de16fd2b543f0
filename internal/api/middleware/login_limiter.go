package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
)

const (
	loginLimiterSweepInterval = 5 * time.Minute
	defaultLoginLimiterTTL    = 10 * time.Minute
)

type loginLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginLimiter throttles session creation per client IP. Idle entries are swept after ttl.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*loginLimiterEntry
	rate     rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewLoginLimiter allows requestsPerMinute logins per IP. Non-positive values clamp to 1.
func NewLoginLimiter(requestsPerMinute int, ttl time.Duration) *LoginLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	if ttl <= 0 {
		ttl = defaultLoginLimiterTTL
	}

	l := &LoginLimiter{
		limiters: make(map[string]*loginLimiterEntry),
		rate:     rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:    requestsPerMinute,
		ttl:      ttl,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	go l.sweepLoop(loginLimiterSweepInterval)
	return l
}

func (l *LoginLimiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stopCh:
			return
		}
	}
}

func (l *LoginLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.ttl {
			delete(l.limiters, key)
		}
	}
}

func (l *LoginLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[key]
	if !ok {
		entry = &loginLimiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = l.now()
	return entry.limiter
}

// Limit returns the middleware. c.ClientIP() is only trustworthy with engine.SetTrustedProxies configured.
func (l *LoginLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.limiterFor(c.ClientIP()).Allow() {
			c.Header("Retry-After", strconv.Itoa(60))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, entities.ErrorResponse{
				Code:    "TOO_MANY_REQUESTS",
				Message: "Too many login attempts. Please try again later.",
				Details: map[string]interface{}{"request_id": c.GetString("request_id")},
			})
			return
		}
		c.Next()
	}
}

// Size returns the number of tracked clients
func (l *LoginLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Shutdown stops the sweeper
func (l *LoginLimiter) Shutdown(context.Context) error {
	l.stopOnce.Do(func() { close(l.stopCh) })
	return nil
}
