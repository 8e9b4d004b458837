package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/conduit-lang/drest/internal/schema"
	"github.com/conduit-lang/drest/internal/web/auth"
	"github.com/conduit-lang/drest/internal/web/cache"
	"github.com/conduit-lang/drest/internal/web/middleware"
	"github.com/conduit-lang/drest/internal/web/query"
	"github.com/conduit-lang/drest/internal/web/response"
	"github.com/conduit-lang/drest/internal/web/websocket"
)

// Handlers serves the filter translation endpoints
type Handlers struct {
	registry *schema.Registry
	trees    *cache.TreeCache
	logger   *zap.Logger
	extra    []middleware.Middleware
	live     *websocket.Handler
}

// NewHandlers creates the endpoint handlers
func NewHandlers(registry *schema.Registry, trees *cache.TreeCache, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{registry: registry, trees: trees, logger: logger}
}

// Use adds middleware that runs after request id, logging and recovery
func (h *Handlers) Use(mw ...middleware.Middleware) {
	h.extra = append(h.extra, mw...)
}

// SetLive enables live translation at /{resource}/filters/live
func (h *Handlers) SetLive(live *websocket.Handler) {
	h.live = live
}

// Router builds the chi router with request id, logging and recovery
// middleware
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()

	chain := middleware.NewChain(
		middleware.RequestID(),
		middleware.LoggingWithConfig(middleware.LoggingConfig{
			Logger:    h.logger,
			SkipPaths: []string{"/health"},
		}),
		middleware.Recovery(h.logger),
	)
	for _, mw := range h.extra {
		chain.Use(mw)
	}
	r.Use(chain.Middlewares()...)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.RenderNotFound(w, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.RenderError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	r.Get("/health", h.Health)
	r.Get("/schemas", h.Schemas)
	r.Get("/{resource}/filters", h.Filters)
	if h.live != nil {
		r.Get("/{resource}/filters/live", h.LiveFilters)
	}

	return r
}

// Health reports liveness
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	response.RenderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Schemas lists the registered schemas the caller may access
func (h *Handlers) Schemas(w http.ResponseWriter, r *http.Request) {
	infos := h.registry.Describe()
	if claims := auth.ClaimsFrom(r.Context()); claims != nil {
		visible := infos[:0]
		for _, info := range infos {
			if claims.CanAccess(info.Name) {
				visible = append(visible, info)
			}
		}
		infos = visible
	}
	response.RenderJSON(w, http.StatusOK, map[string]interface{}{
		"schemas": infos,
	})
}

// Filters translates the request's filter{...} parameters against the
// resource named in the path and returns the resulting tree
func (h *Handlers) Filters(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	if !authorized(w, r, resource) {
		return
	}

	params, err := query.ParseFilterRequest(r)
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}

	data, hit, err := h.trees.Encode(r.Context(), resource, params)
	if err != nil {
		h.logger.Debug("filter translation failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("resource", resource),
			zap.Error(err))
		response.RenderFilterError(w, err)
		return
	}

	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	if cache.NotModified(w, r, cache.GenerateETag(data)) {
		return
	}
	response.RenderRaw(w, http.StatusOK, data)
}

// LiveFilters upgrades to a websocket session translating filters against
// the resource named in the path
func (h *Handlers) LiveFilters(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	if !authorized(w, r, resource) {
		return
	}
	if _, err := h.registry.Schema(resource); err != nil {
		response.RenderFilterError(w, err)
		return
	}
	h.live.Serve(w, r, resource)
}

// authorized rejects tokens that do not grant resource
func authorized(w http.ResponseWriter, r *http.Request, resource string) bool {
	if claims := auth.ClaimsFrom(r.Context()); claims != nil && !claims.CanAccess(resource) {
		response.RenderError(w, http.StatusForbidden, "forbidden", "Token does not grant access to "+resource)
		return false
	}
	return true
}
