package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/drest/internal/web/auth"
)

func TestAuth(t *testing.T) {
	signer, err := auth.NewSigner("secret", "")
	require.NoError(t, err)
	token, err := signer.Issue("svc", time.Hour, "user")
	require.NoError(t, err)

	var seen *auth.Claims
	handler := Auth(AuthConfig{Signer: signer, SkipPaths: []string{"/health"}})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = auth.ClaimsFrom(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

	send := func(path, authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := send("/user/filters", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "svc", seen.Subject)

	rec = send("/user/filters", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized","message":"Authorization required"}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")

	rec = send("/user/filters", "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = send("/user/filters", "Bearer tampered."+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid token")

	seen = nil
	rec = send("/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, seen)
}
