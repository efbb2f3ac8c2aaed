package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/model"
)

type stubVerifier map[string]model.Identity

func (s stubVerifier) Verify(raw string) (model.Identity, error) {
	if id, ok := s[raw]; ok {
		return id, nil
	}
	return model.Identity{}, apperr.New(apperr.KindInvalidToken, "Invalid token")
}

var verifier = stubVerifier{
	"user-token":  {ID: 1, Email: "alice@example.com", Role: model.RoleUser},
	"admin-token": {ID: 3, Email: "admin@example.com", Role: model.RoleAdmin},
}

func newCtx(method, target, auth string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestJWTAuth(t *testing.T) {
	mw := middleware.JWTAuth(verifier)

	c, _ := newCtx(http.MethodGet, "/", "")
	err := mw(okHandler)(c)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	c, _ = newCtx(http.MethodGet, "/", "Basic abc")
	err = mw(okHandler)(c)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	c, _ = newCtx(http.MethodGet, "/", "Bearer nope")
	err = mw(okHandler)(c)
	assert.True(t, apperr.Is(err, apperr.KindInvalidToken))

	c, rec := newCtx(http.MethodGet, "/", "bearer user-token")
	require.NoError(t, mw(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	id, ok := middleware.CurrentIdentity(c)
	require.True(t, ok)
	assert.Equal(t, uint64(1), id.ID)
	assert.Equal(t, "1", c.Get("user_id"))
}

func TestOptionalJWT(t *testing.T) {
	mw := middleware.OptionalJWT(verifier)

	c, rec := newCtx(http.MethodPost, "/", "")
	require.NoError(t, mw(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	_, ok := middleware.CurrentIdentity(c)
	assert.False(t, ok)

	c, _ = newCtx(http.MethodPost, "/", "Bearer nope")
	assert.True(t, apperr.Is(mw(okHandler)(c), apperr.KindInvalidToken))

	c, _ = newCtx(http.MethodPost, "/", "Bearer admin-token")
	require.NoError(t, mw(okHandler)(c))
	id, ok := middleware.CurrentIdentity(c)
	require.True(t, ok)
	assert.True(t, id.IsAdmin())
}

func TestIdentifyCallerNeverRejects(t *testing.T) {
	mw := middleware.IdentifyCaller(verifier)

	for _, h := range []string{"", "Basic abc", "Bearer nope"} {
		c, rec := newCtx(http.MethodGet, "/", h)
		require.NoError(t, mw(okHandler)(c), h)
		assert.Equal(t, http.StatusOK, rec.Code)
		_, ok := middleware.CurrentIdentity(c)
		assert.False(t, ok, h)
	}

	c, _ := newCtx(http.MethodGet, "/", "Bearer user-token")
	require.NoError(t, mw(okHandler)(c))
	assert.Equal(t, "1", c.Get("user_id"))
}

func TestRequireRole(t *testing.T) {
	chain := middleware.JWTAuth(verifier)(middleware.RequireRole(model.RoleAdmin)(okHandler))

	c, _ := newCtx(http.MethodGet, "/", "Bearer user-token")
	err := chain(c)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Equal(t, "Admin access required", apperr.Message(err))

	c, rec := newCtx(http.MethodGet, "/", "Bearer admin-token")
	require.NoError(t, chain(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, _ = newCtx(http.MethodGet, "/", "")
	assert.True(t, apperr.Is(middleware.RequireRole(model.RoleAdmin)(okHandler)(c), apperr.KindForbidden))
}

func rateCfg() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
}

func runLimited(t *testing.T, mw echo.MiddlewareFunc, n int) []*httptest.ResponseRecorder {
	t.Helper()
	out := make([]*httptest.ResponseRecorder, 0, n)
	for i := 0; i < n; i++ {
		c, rec := newCtx(http.MethodGet, "/restaurants", "")
		c.SetPath("/restaurants")
		require.NoError(t, mw(okHandler)(c))
		out = append(out, rec)
	}
	return out
}

func TestTokenBucketRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	recs := runLimited(t, middleware.NewTokenBucket(rateCfg(), rdb, zerolog.Nop()), 3)
	assert.Equal(t, http.StatusOK, recs[0].Code)
	assert.Equal(t, "1", recs[0].Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, recs[1].Code)
	assert.Equal(t, http.StatusTooManyRequests, recs[2].Code)
	assert.NotEmpty(t, recs[2].Header().Get("Retry-After"))
	assert.Contains(t, recs[2].Body.String(), `"message":"Too many requests"`)
}

func TestTokenBucketLocalFallback(t *testing.T) {
	recs := runLimited(t, middleware.NewTokenBucket(rateCfg(), nil, zerolog.Nop()), 3)
	assert.Equal(t, http.StatusOK, recs[0].Code)
	assert.Equal(t, http.StatusOK, recs[1].Code)
	assert.Equal(t, http.StatusTooManyRequests, recs[2].Code)
	assert.Equal(t, "2", recs[2].Header().Get("X-RateLimit-Limit"))
}

func TestTokenBucketRedisDownFallsBack(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	recs := runLimited(t, middleware.NewTokenBucket(rateCfg(), rdb, zerolog.Nop()), 3)
	assert.Equal(t, http.StatusTooManyRequests, recs[2].Code)
}

func TestTokenBucketDisabled(t *testing.T) {
	cfg := rateCfg()
	cfg.Enabled = false
	recs := runLimited(t, middleware.NewTokenBucket(cfg, nil, zerolog.Nop()), 5)
	for _, rec := range recs {
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1 << 10}
	calls := 0
	h := middleware.NewRedisCache(cfg, rdb)(func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, map[string]string{"path": c.Request().URL.Path})
	})

	get := func(target string) *httptest.ResponseRecorder {
		c, rec := newCtx(http.MethodGet, target, "")
		c.SetPath("/restaurants/:id")
		require.NoError(t, h(c))
		return rec
	}

	first := get("/restaurants/1")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := get("/restaurants/1")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)

	other := get("/restaurants/2")
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestRedisCacheSkipsErrorsAndLargeBodies(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 8}
	h := middleware.NewRedisCache(cfg, rdb)(func(c echo.Context) error {
		if c.QueryParam("fail") != "" {
			return c.JSON(http.StatusNotFound, map[string]string{"message": "Restaurant not found"})
		}
		return c.String(http.StatusOK, "a body longer than eight bytes")
	})

	for _, target := range []string{"/restaurants/9?fail=1", "/restaurants"} {
		c, _ := newCtx(http.MethodGet, target, "")
		require.NoError(t, h(c))
	}
	assert.Empty(t, mr.Keys())
}

func TestRequestIDAndRecover(t *testing.T) {
	chain := middleware.RequestID()(middleware.Recover(zerolog.Nop())(func(echo.Context) error {
		panic("boom")
	}))

	c, rec := newCtx(http.MethodGet, "/", "")
	err := chain(c)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), middleware.GetRequestID(c))

	c, rec = newCtx(http.MethodGet, "/", "")
	c.Request().Header.Set(echo.HeaderXRequestID, "abc-123")
	require.NoError(t, middleware.RequestID()(okHandler)(c))
	assert.Equal(t, "abc-123", rec.Header().Get(echo.HeaderXRequestID))
}

func TestSecurityHeaders(t *testing.T) {
	c, rec := newCtx(http.MethodGet, "/", "")
	require.NoError(t, middleware.SecurityHeaders(true)(okHandler)(c))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "https://js.stripe.com")
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestCORSPreflight(t *testing.T) {
	e := echo.New()
	e.Use(middleware.CORS([]string{"http://localhost:5173"}))
	e.GET("/restaurants", okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/restaurants", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
