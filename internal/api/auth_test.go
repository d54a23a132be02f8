package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"rentease/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthHandler(cfg config.APIConfig) http.Handler {
	auth := NewHTTPAuth(cfg)
	return auth.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func doRequest(t *testing.T, handler http.Handler, method, path, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthDisabledPassesThrough(t *testing.T) {
	handler := newAuthHandler(config.APIConfig{})
	rec := doRequest(t, handler, http.MethodGet, "/api/v1/bookings", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequiresKey(t *testing.T) {
	cfg := config.APIConfig{
		Auth: config.APIAuthConfig{
			Enabled: true,
			APIKeys: []config.APIClientKey{{Key: "secret", Name: "admin"}},
		},
	}
	handler := newAuthHandler(cfg)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/bookings", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/bookings", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/bookings", "secret")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health never requires a key.
	rec = doRequest(t, handler, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthPermissions(t *testing.T) {
	cfg := config.APIConfig{
		Auth: config.APIAuthConfig{
			Enabled: true,
			APIKeys: []config.APIClientKey{{
				Key:         "reader",
				Name:        "reporting",
				Permissions: []string{"read:bookings", "read:availability"},
			}},
		},
	}
	handler := newAuthHandler(cfg)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/bookings?tenant_id=1", "reader")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/availability", "reader")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/api/v1/bookings", "reader")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/export/bookings", "reader")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthRateLimit(t *testing.T) {
	cfg := config.APIConfig{
		RateLimit: config.APIRateLimitConfig{RPS: 0.001, Burst: 2},
	}
	handler := newAuthHandler(cfg)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/bookings", "k1")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, handler, http.MethodGet, "/api/v1/bookings", "k1")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/bookings", "k1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Separate keys get separate buckets.
	rec = doRequest(t, handler, http.MethodGet, "/api/v1/bookings", "k2")
	assert.Equal(t, http.StatusOK, rec.Code)
}
