package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stepClock struct{ t time.Time }

func (c *stepClock) now() time.Time { return c.t }

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *stepClock) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	clock := &stepClock{t: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
	rl.now = clock.now
	return rl, clock
}

func TestLimiter_Allow(t *testing.T) {
	rl, clock := newTestLimiter(t, 2)

	require.True(t, rl.Allow("a"))
	require.True(t, rl.Allow("a"))
	require.False(t, rl.Allow("a"))
	require.True(t, rl.Allow("b"), "clients are counted separately")

	clock.t = clock.t.Add(Window)
	require.True(t, rl.Allow("a"), "a new window resets the count")
}

func TestLimiter_RetryAfter(t *testing.T) {
	rl, clock := newTestLimiter(t, 1)

	require.Equal(t, 0, rl.RetryAfter("unknown"))
	rl.Allow("a")
	clock.t = clock.t.Add(45*time.Second + 500*time.Millisecond)
	require.Equal(t, 15, rl.RetryAfter("a"))
}

func TestLimiter_Cleanup(t *testing.T) {
	rl, clock := newTestLimiter(t, 5)

	rl.Allow("old")
	clock.t = clock.t.Add(11 * time.Minute)
	rl.Allow("fresh")

	require.Equal(t, 1, rl.cleanupStaleEntries())
	require.Equal(t, 1, rl.ActiveClients())
}

func TestLimiter_StopTwice(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	require.NotPanics(t, rl.Stop)
}

func TestMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	key := func(*http.Request) string { return "client" }
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	t.Run("default rejection", func(t *testing.T) {
		h := rl.Middleware(key, nil)(ok)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, "60", rec.Header().Get("Retry-After"))
	})

	t.Run("custom rejection", func(t *testing.T) {
		called := false
		h := rl.Middleware(key, func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusServiceUnavailable)
		})(ok)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.True(t, called)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
