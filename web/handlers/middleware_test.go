package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidescan/tidescan/internal/config"
	"github.com/tidescan/tidescan/web/handlers"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = addr
	return req
}

func TestRequireAuth_DevelopmentModeAllowsAll(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	cfg.Security.SecurityMode = "development"

	handler := handlers.RequireAuth(okHandler(), cfg)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_ProductionRequiresToken(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	cfg.Security.SecurityMode = "production"
	cfg.Security.APIToken = "secret-token"

	handler := handlers.RequireAuth(okHandler(), cfg)

	// No token
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong token
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct token
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_ProductionWithoutConfiguredToken(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	cfg.Security.SecurityMode = "production"
	cfg.Security.APIToken = ""

	handler := handlers.RequireAuth(okHandler(), cfg)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Authorization", "Bearer anything")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_ErrorBodyIsJSON(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	cfg.Security.SecurityMode = "production"
	cfg.Security.APIToken = "secret-token"

	handler := handlers.RequireAuth(okHandler(), cfg)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var errResp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "unauthorized", errResp.Error)
	assert.Equal(t, http.StatusText(http.StatusUnauthorized), errResp.Code)
}

func TestRateLimitMiddleware_ExhaustsBurst(t *testing.T) {
	rl := handlers.NewRateLimiter(1, 2)
	handler := handlers.RateLimitMiddleware(okHandler(), rl)

	// Burst of 2 passes, the third is rejected.
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestFrom("198.51.100.7:4242"))
		assert.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFrom("198.51.100.7:4242"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var errResp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "rate limit exceeded", errResp.Error)
}

func TestRateLimitMiddleware_PerClientBuckets(t *testing.T) {
	rl := handlers.NewRateLimiter(1, 1)
	handler := handlers.RateLimitMiddleware(okHandler(), rl)

	// First client spends its bucket.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFrom("198.51.100.7:4242"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFrom("198.51.100.7:4242"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different client is unaffected; a new port on the same host is not.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFrom("203.0.113.9:4242"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFrom("198.51.100.7:9999"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiter_AddrWithoutPort(t *testing.T) {
	rl := handlers.NewRateLimiter(1, 1)

	assert.True(t, rl.Allow("198.51.100.7"))
	assert.False(t, rl.Allow("198.51.100.7"))
}
