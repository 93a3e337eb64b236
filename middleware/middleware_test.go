package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-phonestore/config"
	"go-phonestore/identity"
	"go-phonestore/services"
	"go-phonestore/store"
)

type fakeVerifier map[string]*identity.Principal

func (f fakeVerifier) Verify(_ context.Context, token string) (*identity.Principal, error) {
	if token == "down" {
		return nil, errors.New("jwks fetch failed")
	}
	p, ok := f[token]
	if !ok {
		return nil, &identity.AuthError{Code: identity.CodeInvalidToken}
	}
	return p, nil
}

var verifier = fakeVerifier{
	"ann":  {UID: "u1", Email: "ann@example.com"},
	"boss": {UID: "u2", Email: "boss@example.com", Admin: true},
}

func whoami(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentUser(r)
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_, _ = w.Write([]byte(p.UID))
}

func serve(h http.Handler, method, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/x", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	h := AuthMiddleware(verifier)(http.HandlerFunc(whoami))

	tests := []struct {
		name   string
		auth   string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, "Authorization header missing"},
		{"wrong scheme", "Basic ann", http.StatusUnauthorized, "Invalid Authorization header format"},
		{"empty token", "Bearer  ", http.StatusUnauthorized, "Invalid Authorization header format"},
		{"bad token", "Bearer nope", http.StatusUnauthorized, identity.Message(identity.CodeInvalidToken)},
		{"provider down", "Bearer down", http.StatusServiceUnavailable, "authentication unavailable"},
		{"ok", "Bearer ann", http.StatusOK, "u1"},
		{"scheme is case insensitive", "bearer ann", http.StatusOK, "u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, http.MethodGet, tt.auth)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestAdminMiddleware(t *testing.T) {
	h := AuthMiddleware(verifier)(AdminMiddleware(http.HandlerFunc(whoami)))

	assert.Equal(t, http.StatusForbidden, serve(h, http.MethodGet, "Bearer ann").Code)
	rec := serve(h, http.MethodGet, "Bearer boss")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u2", rec.Body.String())

	assert.Equal(t, http.StatusForbidden, serve(AdminMiddleware(http.HandlerFunc(whoami)), http.MethodGet, "").Code)
}

func TestMaintenance(t *testing.T) {
	ctx := context.Background()
	settings := services.NewSettingsProvider(store.NewMemory())
	h := AuthMiddleware(verifier)(Maintenance(settings)(http.HandlerFunc(whoami)))

	assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "Bearer ann").Code)

	s := services.DefaultStoreSettings()
	s.MaintenanceMode = true
	_, err := settings.UpdateStore(ctx, s)
	require.NoError(t, err)

	assert.Equal(t, http.StatusServiceUnavailable, serve(h, http.MethodPost, "Bearer ann").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "Bearer ann").Code, "reads stay open")
	assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "Bearer boss").Code, "admins can still write")
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}, "X-Request-Id": {"abc"}}
	payload, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, gotHdr)
	assert.Equal(t, `{"ok":true}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	assert.False(t, ok, "header length beyond the payload")
}

func TestCacheKey(t *testing.T) {
	a := httptest.NewRequest(http.MethodGet, "/products?brands=apple", nil)
	b := httptest.NewRequest(http.MethodGet, "/products?brands=samsung", nil)
	c := httptest.NewRequest(http.MethodGet, "/products?brands=apple", nil)

	assert.NotEqual(t, cacheKey("ps", a), cacheKey("ps", b))
	assert.Equal(t, cacheKey("ps", a), cacheKey("ps", c))
	assert.Regexp(t, `^ps:[0-9a-f]{40}$`, cacheKey("ps", a))
}

func TestCacheWithoutRedisIsPassThrough(t *testing.T) {
	c := NewCache(config.CacheConfig{Enabled: true}, nil)
	calls := 0
	h := c.Middleware(c.PurgeOnWrite(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	})))
	serve(h, http.MethodGet, "")
	rec := serve(h, http.MethodGet, "")
	assert.Equal(t, 2, calls)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	c.Purge(context.Background())

	rl := RateLimit(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil)
	h = rl(http.HandlerFunc(whoami))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusTeapot, serve(h, http.MethodPost, "").Code)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(r))
	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", clientIP(r))
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.3")
	assert.Equal(t, "203.0.113.9", clientIP(r))
}

func TestCORS(t *testing.T) {
	h := CORS("https://shop.example.com")(http.HandlerFunc(whoami))

	req := httptest.NewRequest(http.MethodOptions, "/products", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := serve(h, http.MethodGet, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(whoami))
	rec := serve(h, http.MethodGet, "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "fixed")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "fixed", rec.Header().Get("X-Request-ID"))
}
