package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/drest/internal/web/ratelimit"
	"github.com/conduit-lang/drest/internal/web/response"
)

// KeyFunc extracts the rate limit key from a request
type KeyFunc func(*http.Request) string

// RateLimitConfig configures the rate limiting middleware
type RateLimitConfig struct {
	Limiter ratelimit.Limiter
	// KeyFunc defaults to IPKeyFunc
	KeyFunc   KeyFunc
	SkipPaths []string
	Logger    *zap.Logger
}

// RateLimit creates a middleware limiting each client IP
func RateLimit(limiter ratelimit.Limiter, logger *zap.Logger) Middleware {
	return RateLimitWithConfig(RateLimitConfig{Limiter: limiter, Logger: logger})
}

// RateLimitWithConfig creates a rate limiting middleware. Requests pass
// through when the limiter fails or no key can be extracted.
func RateLimitWithConfig(config RateLimitConfig) Middleware {
	if config.KeyFunc == nil {
		config.KeyFunc = IPKeyFunc
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skip[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := config.KeyFunc(r)
			if skip[r.URL.Path] || key == "" {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := config.Limiter.Allow(r.Context(), key)
			if err != nil {
				config.Logger.Warn("rate limiter unavailable",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				retry := int64(math.Ceil(decision.RetryAfter.Seconds()))
				h.Set("Retry-After", strconv.FormatInt(retry, 10))
				config.Logger.Debug("rate limited",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("key", key))
				response.RenderError(w, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IPKeyFunc keys on the connection's remote IP
func IPKeyFunc(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ForwardedIPKeyFunc keys on the first X-Forwarded-For address, then
// X-Real-IP, then the remote IP. Only use it behind a trusted proxy.
func ForwardedIPKeyFunc(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return IPKeyFunc(r)
}
