// Package websocket serves live filter translation: clients send filter
// query strings over one connection and receive a tree or an error for each.
package websocket

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/conduit-lang/drest/internal/web/cache"
	"github.com/conduit-lang/drest/internal/web/middleware"
	"github.com/conduit-lang/drest/internal/web/response"
)

var errShutdown = errors.New("server shutting down")

// Config holds live connection configuration
type Config struct {
	// AllowedOrigins lists accepted Origin headers. Empty accepts same-origin
	// requests only; "*" accepts any origin.
	AllowedOrigins []string
	MaxMessageSize int64
	// PingInterval must be shorter than the client's idle timeout
	PingInterval time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns the default live connection configuration
func DefaultConfig() Config {
	return Config{
		MaxMessageSize: 64 * 1024,
		PingInterval:   54 * time.Second,
		WriteTimeout:   10 * time.Second,
	}
}

// Handler upgrades requests and tracks the open sessions
type Handler struct {
	trees    *cache.TreeCache
	config   Config
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[*session]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// NewHandler creates a live translation handler
func NewHandler(trees *cache.TreeCache, config Config, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfig()
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = defaults.MaxMessageSize
	}
	if config.PingInterval <= 0 {
		config.PingInterval = defaults.PingInterval
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}

	return &Handler{
		trees:  trees,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(config.AllowedOrigins),
		},
		logger:   logger,
		sessions: make(map[*session]struct{}),
	}
}

// checkOrigin returns nil for the upgrader's same-origin default
func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// Serve upgrades the request and translates filters against resource until
// either side closes the connection
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, resource string) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		response.RenderError(w, http.StatusServiceUnavailable, "unavailable", errShutdown.Error())
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	id := middleware.GetRequestID(r.Context())
	if id == "" {
		id = uuid.NewString()
	}
	s := newSession(id, conn, resource, h)

	if !h.add(s) {
		s.cancel(errShutdown)
	}
	defer h.remove(s)

	h.logger.Debug("live session opened", zap.String("session_id", id), zap.String("resource", resource))
	s.run()
	h.logger.Debug("live session closed", zap.String("session_id", id))
}

func (h *Handler) add(s *session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions[s] = struct{}{}
	return true
}

func (h *Handler) remove(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s)
}

// Len returns the number of open sessions
func (h *Handler) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Shutdown refuses new sessions, closes the open ones with a going away
// frame and waits for them to finish or ctx to expire
func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	for s := range h.sessions {
		s.cancel(errShutdown)
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
