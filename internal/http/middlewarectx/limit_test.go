package middlewarectx

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoopLoggerLimit() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	})
}

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate-word", nil)
	req.RemoteAddr = addr
	return req
}

func TestRateLimitMiddleware_BlocksExcess(t *testing.T) {
	handler := RateLimitMiddleware(newNoopLoggerLimit(), NewIPRateLimiter(1, 2, time.Minute), nil)(okHandler(t))

	for range 2 {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("10.0.0.1:5000"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "success", w.Body.String())
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, `{"status":"Error","error":"too many requests"}`+"\n", w.Body.String())
}

func TestRateLimitMiddleware_PerClient(t *testing.T) {
	handler := RateLimitMiddleware(newNoopLoggerLimit(), NewIPRateLimiter(1, 1, time.Minute), nil)(okHandler(t))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:5000"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.2:5000"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMiddleware_Refills(t *testing.T) {
	handler := RateLimitMiddleware(newNoopLoggerLimit(), NewIPRateLimiter(20, 1, time.Minute), nil)(okHandler(t))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:5000"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	time.Sleep(100 * time.Millisecond)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMiddleware_IgnoresForwardedFromUntrusted(t *testing.T) {
	limiter := NewIPRateLimiter(1, 3, time.Minute)
	handler := RateLimitMiddleware(newNoopLoggerLimit(), limiter, nil)(okHandler(t))

	allowed := 0
	for i := range 100 {
		req := requestFrom("203.0.113.9:5000")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code == http.StatusOK {
			allowed++
		}
	}

	assert.Equal(t, 3, allowed)
	assert.Equal(t, 1, limiter.Len())
}

func TestRateLimitMiddleware_TrustedProxy(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	limiter := NewIPRateLimiter(1, 1, time.Minute)
	handler := RateLimitMiddleware(newNoopLoggerLimit(), limiter, trusted)(okHandler(t))

	send := func(xff string) int {
		req := requestFrom("10.0.0.1:5000")
		req.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.1"))
	assert.Equal(t, http.StatusOK, send("198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.2"))
	// подделанный левый адрес не меняет клиента, которого видел прокси
	assert.Equal(t, http.StatusTooManyRequests, send("1.2.3.4, 198.51.100.2"))
	assert.Equal(t, 2, limiter.Len())
}

func TestIPRateLimiter_EvictsIdle(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(1, 1, time.Minute)
	limiter.now = func() time.Time { return now }

	for i := range 50 {
		limiter.Allow(fmt.Sprintf("198.51.100.%d", i))
	}
	assert.Equal(t, 50, limiter.Len())

	now = now.Add(2 * time.Minute)
	assert.True(t, limiter.Allow("203.0.113.1"))
	assert.Equal(t, 1, limiter.Len())
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.168.1.5 ", "", "::1"})
	require.NoError(t, err)
	require.Len(t, prefixes, 3)
	assert.Equal(t, "192.168.1.5/32", prefixes[1].String())
	assert.Equal(t, "::1/128", prefixes[2].String())

	_, err = ParseTrustedProxies([]string{"proxy.local"})
	assert.Error(t, err)
}

func TestClientIP(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	withXFF := func(addr, xff string) *http.Request {
		req := requestFrom(addr)
		req.Header.Set("X-Forwarded-For", xff)
		return req
	}

	assert.Equal(t, "192.168.1.7", clientIP(requestFrom("192.168.1.7:4242"), trusted))
	assert.Equal(t, "192.168.1.7", clientIP(requestFrom("192.168.1.7"), trusted))
	assert.Equal(t, "192.168.1.7", clientIP(withXFF("192.168.1.7:4242", "198.51.100.1"), trusted))
	assert.Equal(t, "198.51.100.1", clientIP(withXFF("10.0.0.1:4242", "198.51.100.1"), trusted))
	assert.Equal(t, "198.51.100.1", clientIP(withXFF("10.0.0.1:4242", "1.2.3.4, 198.51.100.1, 10.0.0.2"), trusted))
	assert.Equal(t, "10.0.0.1", clientIP(withXFF("10.0.0.1:4242", "garbage"), trusted))
	assert.Equal(t, "10.0.0.1", clientIP(requestFrom("10.0.0.1:4242"), trusted))
}
