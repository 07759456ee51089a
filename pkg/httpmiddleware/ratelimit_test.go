package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func limitedRequest(owner, remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	if owner != "" {
		req.Header.Set("X-Owner-ID", owner)
	}
	return req
}

func TestRateLimit_UnderLimit(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 5, Window: time.Minute})(okHandler())

	for i := range 5 {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, limitedRequest("alice", "192.168.1.1:12345"))

		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute})(okHandler())

	// Exhaust the limit.
	for range 2 {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, limitedRequest("alice", "10.0.0.1:9999"))
		require.Equal(t, http.StatusOK, w.Code)
	}

	// Next request should be rate limited.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("alice", "10.0.0.1:9999"))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]any
	err := json.NewDecoder(w.Body).Decode(&body)
	require.NoError(t, err)
	assert.Equal(t, float64(429), body["code"])
	assert.Equal(t, "rate limit exceeded", body["message"])
}

func TestRateLimit_KeyedByOwner(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	// An owner's budget follows the identity, not the connection.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("alice", "10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("alice", "10.0.0.99:5678"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "same owner from another address")

	// A different owner behind the same address has its own budget.
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("bob", "10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_AnonymousKeyedByIP(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("", "10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, w.Code)

	// Different source port, same IP: same bucket.
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("", "10.0.0.1:5678"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Another IP is independent.
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("", "10.0.0.2:1234"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_AnonymousDoesNotShareOwnerBucket(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("alice", "10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, w.Code)

	// An anonymous request from the owner's address gets the IP budget.
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("", "10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_XForwardedFor(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	req := limitedRequest("", "192.168.1.1:4444")
	req.Header.Set("X-Forwarded-For", "203.0.113.50, 70.41.3.18")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Same X-Forwarded-For first hop should be limited.
	req2 := limitedRequest("", "192.168.1.2:5555") // different RemoteAddr
	req2.Header.Set("X-Forwarded-For", "203.0.113.50, 70.41.3.18")
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	cfg := RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		KeyFunc: func(r *http.Request) string {
			return r.Header.Get("X-API-Key")
		},
	}
	handler := RateLimit(cfg)(okHandler())

	req1 := httptest.NewRequest(http.MethodGet, "/", nil)
	req1.Header.Set("X-API-Key", "key-a")
	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusOK, w1.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.Header.Set("X-API-Key", "key-a")
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)

	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	req3.Header.Set("X-API-Key", "key-b")
	w3 := httptest.NewRecorder()
	handler.ServeHTTP(w3, req3)
	assert.Equal(t, http.StatusOK, w3.Code)
}
