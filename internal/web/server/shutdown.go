package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownHook is a function called during graceful shutdown
type ShutdownHook func(ctx context.Context) error

// ShutdownConfig holds graceful shutdown configuration
type ShutdownConfig struct {
	// Timeout bounds the whole shutdown, hooks included
	Timeout time.Duration
	// Signals to listen for (default: SIGINT, SIGTERM)
	Signals []os.Signal
	Logger  *zap.Logger
}

// GracefulShutdown runs a server until a signal arrives or its context is
// canceled, then drains connections and runs hooks
type GracefulShutdown struct {
	server  *Server
	timeout time.Duration
	signals []os.Signal
	logger  *zap.Logger

	mu    sync.Mutex
	hooks []ShutdownHook

	once sync.Once
	done chan struct{}
	err  error
}

// NewGracefulShutdown creates a new graceful shutdown handler
func NewGracefulShutdown(server *Server, config ShutdownConfig) *GracefulShutdown {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if len(config.Signals) == 0 {
		config.Signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &GracefulShutdown{
		server:  server,
		timeout: config.Timeout,
		signals: config.Signals,
		logger:  config.Logger,
		done:    make(chan struct{}),
	}
}

// RegisterHook registers a hook that runs after the server stops accepting
// requests. Hooks run in registration order.
func (gs *GracefulShutdown) RegisterHook(hook ShutdownHook) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, hook)
}

// Run starts the server and blocks until it has shut down
func (gs *GracefulShutdown) Run(ctx context.Context) error {
	if err := gs.server.Listen(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		gs.logger.Info("server listening", zap.String("addr", gs.server.Addr()))
		if err := gs.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, gs.signals...)
	defer stop()

	select {
	case <-ctx.Done():
		gs.logger.Info("shutdown requested")
		return gs.Shutdown()
	case err := <-errCh:
		return err
	}
}

// Shutdown stops the server and runs the hooks once; later calls wait for
// the first to finish and return its result
func (gs *GracefulShutdown) Shutdown() error {
	gs.once.Do(func() {
		defer close(gs.done)

		ctx, cancel := context.WithTimeout(context.Background(), gs.timeout)
		defer cancel()

		if err := gs.server.Shutdown(ctx); err != nil {
			gs.err = fmt.Errorf("server shutdown error: %w", err)
			gs.logger.Error("server shutdown failed", zap.Error(err))
		}

		gs.mu.Lock()
		hooks := make([]ShutdownHook, len(gs.hooks))
		copy(hooks, gs.hooks)
		gs.mu.Unlock()

		for i, hook := range hooks {
			if err := hook(ctx); err != nil {
				gs.logger.Warn("shutdown hook failed", zap.Int("hook", i), zap.Error(err))
			}
		}

		gs.logger.Info("server stopped")
	})

	<-gs.done
	return gs.err
}
