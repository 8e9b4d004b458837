package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/drest/internal/web/auth"
	"github.com/conduit-lang/drest/internal/web/response"
)

// AuthConfig configures bearer token authentication
type AuthConfig struct {
	Signer    *auth.Signer
	SkipPaths []string
	Logger    *zap.Logger
}

// Auth creates a middleware that requires a valid bearer token and stores
// its claims in the request context
func Auth(config AuthConfig) Middleware {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skip[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="drest"`)
				response.RenderError(w, http.StatusUnauthorized, "unauthorized", "Authorization required")
				return
			}

			claims, err := config.Signer.Verify(token)
			if err != nil {
				config.Logger.Debug("rejected token",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err))
				w.Header().Set("WWW-Authenticate", `Bearer realm="drest", error="invalid_token"`)
				response.RenderError(w, http.StatusUnauthorized, "unauthorized", "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
