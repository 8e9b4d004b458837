package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/drest/internal/filter"
	"github.com/conduit-lang/drest/internal/schema"
	"github.com/conduit-lang/drest/internal/web/auth"
	"github.com/conduit-lang/drest/internal/web/cache"
	"github.com/conduit-lang/drest/internal/web/middleware"
	"github.com/conduit-lang/drest/internal/web/ratelimit"
	"github.com/conduit-lang/drest/internal/web/websocket"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestHandlers(t).Router()
}

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	r := schema.NewRegistry()
	require.NoError(t, r.RegisterModel(schema.NewModel("User").
		AddColumn("name").
		AddManyToMany("groups", "Group", "users")))
	require.NoError(t, r.RegisterModel(schema.NewModel("Group").AddColumn("name")))
	require.NoError(t, r.Register(schema.NewSchema("user", "User").
		AddField(schema.NewScalar("displayName", "name")).
		AddField(schema.NewRelation("groups", "", "group", schema.Many))))
	require.NoError(t, r.Register(schema.NewSchema("group", "Group").
		AddField(schema.NewScalar("name", "")).
		AddField(schema.NewRelation("members", "users", "user", schema.Many))))
	require.NoError(t, r.Seal())

	store := cache.NewMemoryStore(cache.DefaultConfig())
	t.Cleanup(func() { store.Close() })
	trees := cache.NewTreeCache(store, filter.NewBuilder(r, filter.DefaultConfig(), nil), cache.TreeCacheConfig{}, nil)
	return NewHandlers(r, trees, nil)
}

func get(t *testing.T, h http.Handler, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestRouter(t), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSchemas(t *testing.T) {
	rec := get(t, newTestRouter(t), "/schemas")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Schemas []schema.Info `json:"schemas"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Schemas, 2)
	assert.Equal(t, "group", body.Schemas[0].Name)
	assert.Equal(t, "user", body.Schemas[1].Name)
	assert.Equal(t, "name", body.Schemas[1].Fields[0].Source)
}

func TestFilters(t *testing.T) {
	h := newTestRouter(t)

	rec := get(t, h, "/group/filters?filter{members.displayName.icontains}=ann&filter{-name}=staff")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{
		"_include": {
			"users__name__icontains": {"path": ["users", "name"], "operator": "icontains", "value": "ann"}
		},
		"_exclude": {
			"name": {"path": ["name"], "value": "staff"}
		}
	}`, rec.Body.String())

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	again := get(t, h, "/group/filters?filter{members.displayName.icontains}=ann&filter{-name}=staff")
	assert.Equal(t, "HIT", again.Header().Get("X-Cache"))
	assert.Equal(t, rec.Body.String(), again.Body.String())

	notModified := get(t, h, "/group/filters?filter{members.displayName.icontains}=ann&filter{-name}=staff",
		"If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, notModified.Code)
	assert.Empty(t, notModified.Body.String())
}

func TestFiltersRelationPrefix(t *testing.T) {
	rec := get(t, newTestRouter(t), "/user/filters?filter{groups|name.in}=a&filter{groups|name.in}=b")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"groups": {
			"_include": {
				"name__in": {"path": ["name"], "operator": "in", "value": ["a", "b"]}
			}
		}
	}`, rec.Body.String())
}

func TestFiltersErrors(t *testing.T) {
	h := newTestRouter(t)

	t.Run("invalid keys", func(t *testing.T) {
		rec := get(t, h, "/user/filters?filter{nope}=1&filter{displayName.sub}=2&filter{displayName}=ok")
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body struct {
			Error   string   `json:"error"`
			Message string   `json:"message"`
			Keys    []string `json:"keys"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "invalid_filter", body.Error)
		assert.Equal(t, []string{"nope", "displayName.sub"}, body.Keys)
	})

	t.Run("unknown resource", func(t *testing.T) {
		rec := get(t, h, "/nope/filters?filter{name}=1")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad escape", func(t *testing.T) {
		rec := get(t, h, "/user/filters?filter{displayName}=%zz")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := get(t, h, "/user")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "not_found")
	})
}

func TestFiltersRateLimited(t *testing.T) {
	limiter, err := ratelimit.NewMemory(ratelimit.Config{Requests: 1, Window: time.Minute}, 0)
	require.NoError(t, err)
	defer limiter.Close()

	h := newTestHandlers(t)
	h.Use(middleware.RateLimitWithConfig(middleware.RateLimitConfig{
		Limiter:   limiter,
		SkipPaths: []string{"/health"},
	}))
	router := h.Router()

	assert.Equal(t, http.StatusOK, get(t, router, "/user/filters?filter{displayName}=ann").Code)

	rec := get(t, router, "/user/filters?filter{displayName}=ann")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusOK, get(t, router, "/health").Code)
}

func TestTokenScopesResources(t *testing.T) {
	signer, err := auth.NewSigner("secret", "")
	require.NoError(t, err)
	token, err := signer.Issue("svc", time.Hour, "group")
	require.NoError(t, err)

	h := newTestHandlers(t)
	h.Use(middleware.Auth(middleware.AuthConfig{Signer: signer, SkipPaths: []string{"/health"}}))
	router := h.Router()
	bearer := "Bearer " + token

	rec := get(t, router, "/user/filters?filter{displayName}=ann", "Authorization", bearer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"forbidden"`)

	rec = get(t, router, "/group/filters?filter{name}=admins", "Authorization", bearer)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, router, "/schemas", "Authorization", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Schemas []struct {
			Name string `json:"name"`
		} `json:"schemas"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Schemas, 1)
	assert.Equal(t, "group", body.Schemas[0].Name)

	assert.Equal(t, http.StatusUnauthorized, get(t, router, "/schemas").Code)
	assert.Equal(t, http.StatusOK, get(t, router, "/health").Code)
}

func TestLiveFilters(t *testing.T) {
	h := newTestHandlers(t)
	assert.Equal(t, http.StatusNotFound, get(t, h.Router(), "/user/filters/live").Code)

	live := websocket.NewHandler(h.trees, websocket.Config{}, nil)
	h.SetLive(live)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := gorilla.DefaultDialer.Dial(base+"/user/filters/live", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(websocket.Request{ID: "1", Query: "filter{groups|name}=admins"}))
	var reply websocket.Reply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, websocket.ReplyTree, reply.Type)
	assert.Contains(t, string(reply.Tree), `"groups"`)

	_, resp, err := gorilla.DefaultDialer.Dial(base+"/nope/filters/live", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, live.Shutdown(ctx))
}
