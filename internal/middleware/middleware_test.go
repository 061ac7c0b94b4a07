package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/private-chef-marketplace/internal/config"
	"github.com/iliyamo/private-chef-marketplace/internal/model"
	"github.com/iliyamo/private-chef-marketplace/internal/service"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func do(e *echo.Echo, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRedisCacheHitAndPurge(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled: true, Methods: map[string]bool{"GET": true},
		TTL: time.Minute, KeyStrategy: "route_query", Prefix: "test-cache", MaxBodyBytes: 1 << 10,
	}
	calls := 0
	e := echo.New()
	e.Use(echomw.RequestID())
	e.Use(CORS(config.CORSConfig{AllowedOrigins: []string{"https://a.example", "https://b.example"}}))
	e.GET("/chefs/:id", func(c echo.Context) error {
		calls++
		c.Response().Header().Set("X-Total-Count", "1")
		return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id")})
	}, NewRedisCache(cfg, rdb))

	first := do(e, http.MethodGet, "/chefs/1", map[string]string{"Origin": "https://a.example"})
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "https://a.example", first.Header().Get("Access-Control-Allow-Origin"))

	second := do(e, http.MethodGet, "/chefs/1", map[string]string{"Origin": "https://b.example"})
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, []string{"1"}, second.Header().Values("X-Total-Count"))
	assert.Equal(t, first.Header().Values(echo.HeaderContentType), second.Header().Values(echo.HeaderContentType))
	assert.Equal(t, []string{"https://b.example"}, second.Header().Values("Access-Control-Allow-Origin"))
	assert.Equal(t, first.Header().Values("Vary"), second.Header().Values("Vary"))
	require.Len(t, second.Header().Values(echo.HeaderXRequestID), 1)
	assert.NotEqual(t, first.Header().Get(echo.HeaderXRequestID), second.Header().Get(echo.HeaderXRequestID))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	other := do(e, http.MethodGet, "/chefs/2", nil)
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"id":"2"}`, other.Body.String())

	require.NoError(t, PurgeCache(context.Background(), rdb, "test-cache"))
	again := do(e, http.MethodGet, "/chefs/1", nil)
	assert.Equal(t, "MISS", again.Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)
}

func TestStoredHeaderKeepsOnlyBodyHeaders(t *testing.T) {
	h := http.Header{}
	h.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	h.Set("X-Total-Count", "4")
	h.Set("Access-Control-Allow-Origin", "https://a.example")
	h.Add("Vary", "Origin")
	h.Set(echo.HeaderXRequestID, "abc")

	assert.Equal(t, http.Header{
		"Content-Type":  {echo.MIMEApplicationJSON},
		"X-Total-Count": {"4"},
	}, storedHeader(h))
}

func TestRedisCacheSkipsErrors(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, Prefix: "c"}
	e := echo.New()
	e.GET("/chefs/:id", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "chef not found"})
	}, NewRedisCache(cfg, rdb))

	do(e, http.MethodGet, "/chefs/9", nil)
	rec := do(e, http.MethodGet, "/chefs/9", nil)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: 2 * time.Hour, KeyStrategy: "ip", Prefix: "rl",
	}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/ping", nil).Code)
	rec := do(e, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	blocked := do(e, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/ping", nil).Code)
	}
}

func TestTokenBucketKeysOnResolvedUser(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: 2 * time.Hour, KeyStrategy: "user", Prefix: "rl",
	}
	users := map[string]service.Caller{
		"tok-5": {ID: 5, Role: model.RoleCustomer},
		"tok-6": {ID: 6, Role: model.RoleCustomer},
	}
	e := echo.New()
	e.Use(OptionalAuth(mapGate(users)))
	e.Use(NewTokenBucket(cfg, rdb))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	bearerOf := func(tok string) map[string]string {
		return map[string]string{echo.HeaderAuthorization: "Bearer " + tok}
	}
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/ping", bearerOf("tok-5")).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodGet, "/ping", bearerOf("tok-5")).Code)
	// same IP, different user, separate bucket
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/ping", bearerOf("tok-6")).Code)
	// a bad token counts as a guest
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/ping", bearerOf("nope")).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodGet, "/ping", nil).Code)
}

type mapGate map[string]service.Caller

func (g mapGate) Authenticate(_ context.Context, raw string) (service.Caller, error) {
	if c, ok := g[raw]; ok {
		return c, nil
	}
	return service.Caller{}, service.ErrUnauthorized
}

func TestOptionalAuthThenJWTAuth(t *testing.T) {
	gate := mapGate{"tok-5": {ID: 5, Role: model.RoleChef}}
	e := echo.New()
	e.Use(OptionalAuth(gate))
	e.GET("/public", func(c echo.Context) error {
		_, ok := CallerFrom(c)
		return c.JSON(http.StatusOK, echo.Map{"authenticated": ok})
	})
	e.GET("/me", func(c echo.Context) error {
		caller, _ := CallerFrom(c)
		return c.JSON(http.StatusOK, echo.Map{"id": caller.ID})
	}, JWTAuth(gate))

	rec := do(e, http.MethodGet, "/public", map[string]string{echo.HeaderAuthorization: "Bearer bad"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/me", map[string]string{echo.HeaderAuthorization: "Bearer bad"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodGet, "/me", map[string]string{echo.HeaderAuthorization: "Bearer tok-5"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":5}`, rec.Body.String())
}

type stubGate struct {
	caller service.Caller
	err    error
}

func (g stubGate) Authenticate(context.Context, string) (service.Caller, error) {
	return g.caller, g.err
}

func TestJWTAuth(t *testing.T) {
	handler := func(c echo.Context) error {
		caller, ok := CallerFrom(c)
		require.True(t, ok)
		return c.JSON(http.StatusOK, echo.Map{"id": caller.ID})
	}
	cases := []struct {
		name   string
		gate   stubGate
		header string
		want   int
	}{
		{"no header", stubGate{}, "", http.StatusUnauthorized},
		{"rejected", stubGate{err: service.ErrUnauthorized}, "Bearer x", http.StatusUnauthorized},
		{"store down", stubGate{err: errors.New("db down")}, "Bearer x", http.StatusInternalServerError},
		{"ok", stubGate{caller: service.Caller{ID: 5, Role: model.RoleChef}}, "Bearer x", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/me", handler, JWTAuth(tc.gate))
			rec := do(e, http.MethodGet, "/me", map[string]string{echo.HeaderAuthorization: tc.header})
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	gate := stubGate{caller: service.Caller{ID: 5, Role: model.RoleChef}}
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.POST("/bookings", ok, JWTAuth(gate), RequireRole(model.RoleCustomer))
	e.POST("/menu", ok, JWTAuth(gate), RequireRole(model.RoleChef, model.RoleAdmin))

	auth := map[string]string{echo.HeaderAuthorization: "Bearer x"}
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodPost, "/bookings", auth).Code)
	assert.Equal(t, http.StatusNoContent, do(e, http.MethodPost, "/menu", auth).Code)
}

func TestCORSPreflight(t *testing.T) {
	e := echo.New()
	e.Use(CORS(config.CORSConfig{AllowedOrigins: []string{"http://app.example"}}))
	e.GET("/chefs", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := do(e, http.MethodOptions, "/chefs", map[string]string{
		"Origin":                        "http://app.example",
		"Access-Control-Request-Method": http.MethodGet,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(e, http.MethodGet, "/chefs", map[string]string{"Origin": "http://evil.example"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
