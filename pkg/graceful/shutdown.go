package graceful

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/highgoal215/cryptowallet_service/pkg/logger"
)

// Shutdowner is a component that drains within the given context
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// ShutdownFunc adapts a function to Shutdowner
type ShutdownFunc func(ctx context.Context) error

// Shutdown implements Shutdowner
func (f ShutdownFunc) Shutdown(ctx context.Context) error { return f(ctx) }

type namedShutdowner struct {
	name string
	s    Shutdowner
}

type namedCloser struct {
	name string
	c    io.Closer
}

// ShutdownManager stops the HTTP server, then registered components, then closes resources
type ShutdownManager struct {
	server      *http.Server
	timeout     time.Duration
	shutdowners []namedShutdowner
	closers     []namedCloser
	logger      *logger.Logger
}

func NewShutdownManager(server *http.Server, timeout time.Duration, logger *logger.Logger) *ShutdownManager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownManager{
		server:  server,
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a component stopped after the server, in registration order
func (sm *ShutdownManager) Register(name string, s Shutdowner) {
	sm.shutdowners = append(sm.shutdowners, namedShutdowner{name: name, s: s})
}

// RegisterCloser adds a resource closed last, in registration order
func (sm *ShutdownManager) RegisterCloser(name string, c io.Closer) {
	sm.closers = append(sm.closers, namedCloser{name: name, c: c})
}

// WaitForShutdown blocks until SIGINT or SIGTERM, then shuts everything down
func (sm *ShutdownManager) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	signal.Stop(quit)

	sm.logger.Info("Shutting down gracefully...", "signal", sig.String())
	sm.Shutdown(context.Background())
}

// Shutdown runs the shutdown sequence bounded by the manager timeout
func (sm *ShutdownManager) Shutdown(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, sm.timeout)
	defer cancel()

	if sm.server != nil {
		if err := sm.server.Shutdown(ctx); err != nil {
			sm.logger.Error("Server forced shutdown", "error", err)
		}
	}

	for _, s := range sm.shutdowners {
		if err := s.s.Shutdown(ctx); err != nil {
			sm.logger.Warn("Component shutdown error", "component", s.name, "error", err)
		}
	}

	for _, c := range sm.closers {
		if err := c.c.Close(); err != nil {
			sm.logger.Warn("Resource close error", "resource", c.name, "error", err)
		}
	}

	sm.logger.Info("Shutdown complete")
}
