package middleware

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*IdempotencyStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewIdempotencyStore(IdempotencyConfig{TTL: time.Hour})
	store.now = clock.Now
	t.Cleanup(store.Stop)
	return store, clock
}

// countingHandler answers 201 with a fresh payment id on every call.
type countingHandler struct {
	calls  atomic.Int32
	status int
	gate   chan struct{}
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := h.calls.Add(1)
	if h.gate != nil {
		<-h.gate
	}
	_, _ = io.ReadAll(r.Body)
	status := h.status
	if status == 0 {
		status = http.StatusCreated
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"payment":"payment:` + string(rune('0'+n)) + `"}`))
}

func keyedRequest(method, path, key, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.10:4000"
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

// ============================================================================
// Passthrough Tests
// ============================================================================

func TestIdempotency_IgnoresOtherMethods(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	next := &countingHandler{status: http.StatusOK}
	h := Idempotency(store)(next)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		for i := 0; i < 2; i++ {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, keyedRequest(method, "/v1/tickets/t", "k1", ""))
			assert.Empty(t, rr.Header().Get("X-Idempotency-Replayed"))
		}
	}
	assert.EqualValues(t, 6, next.calls.Load())
}

func TestIdempotency_NoKey_RunsEveryTime(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	next := &countingHandler{}
	h := Idempotency(store)(next)

	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "/v1/events/e/tickets", "", `{"quantity":1}`))
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "/v1/events/e/tickets", "", `{"quantity":1}`))

	assert.EqualValues(t, 2, next.calls.Load())
}

func TestIdempotency_KeyTooLong_ReturnsBadRequest(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	next := &countingHandler{}
	rr := httptest.NewRecorder()
	Idempotency(store)(next).ServeHTTP(rr, keyedRequest(http.MethodPost, "/", strings.Repeat("k", 256), "{}"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, next.calls.Load())
}

// ============================================================================
// Replay Tests
// ============================================================================

func TestIdempotency_Replay_ReturnsStoredResponse(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	next := &countingHandler{}
	h := Idempotency(store)(next)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, keyedRequest(http.MethodPost, "/v1/events/e/tickets", "checkout-1", `{"quantity":2}`))
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get("X-Idempotency-Replayed"))

	second := httptest.NewRecorder()
	h.ServeHTTP(second, keyedRequest(http.MethodPost, "/v1/events/e/tickets", "checkout-1", `{"quantity":2}`))

	assert.EqualValues(t, 1, next.calls.Load())
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestIdempotency_ReplayBehindCompress_FollowsReplayRequest(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	next := &countingHandler{}
	h := Compress(Idempotency(store)(next))

	gzipped := keyedRequest(http.MethodPost, "/v1/events/e/tickets", "checkout-gz", `{"quantity":1}`)
	gzipped.Header.Set("Accept-Encoding", "gzip")
	first := httptest.NewRecorder()
	h.ServeHTTP(first, gzipped)
	require.Equal(t, "gzip", first.Header().Get("Content-Encoding"))

	t.Run("plain client gets plain body", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, keyedRequest(http.MethodPost, "/v1/events/e/tickets", "checkout-gz", `{"quantity":1}`))

		assert.Equal(t, "true", rr.Header().Get("X-Idempotency-Replayed"))
		assert.Empty(t, rr.Header().Get("Content-Encoding"))
		assert.JSONEq(t, `{"payment":"payment:1"}`, rr.Body.String())
	})

	t.Run("gzip client gets one gzip layer", func(t *testing.T) {
		req := keyedRequest(http.MethodPost, "/v1/events/e/tickets", "checkout-gz", `{"quantity":1}`)
		req.Header.Set("Accept-Encoding", "gzip")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
		assert.Equal(t, []string{"Accept-Encoding"}, rr.Header().Values("Vary"))
		zr, err := gzip.NewReader(rr.Body)
		require.NoError(t, err)
		plain, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.JSONEq(t, `{"payment":"payment:1"}`, string(plain))
	})

	assert.EqualValues(t, 1, next.calls.Load())
}

func TestIdempotency_OversizedBody_Rejected(t *testing.T) {
	t.Parallel()

	store := NewIdempotencyStore(IdempotencyConfig{TTL: time.Hour, MaxBody: 16})
	t.Cleanup(store.Stop)
	next := &countingHandler{}

	rr := httptest.NewRecorder()
	Idempotency(store)(next).ServeHTTP(rr, keyedRequest(http.MethodPost, "/v1/memberships", "big", strings.Repeat("x", 17)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Zero(t, next.calls.Load())

	rr = httptest.NewRecorder()
	Idempotency(store)(next).ServeHTTP(rr, keyedRequest(http.MethodPost, "/v1/memberships", "small", strings.Repeat("x", 16)))
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestIdempotency_DifferentBody_ReturnsConflict(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	next := &countingHandler{}
	h := Idempotency(store)(next)

	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "/v1/events/e/tickets", "k", `{"quantity":1}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, keyedRequest(http.MethodPost, "/v1/events/e/tickets", "k", `{"quantity":5}`))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.EqualValues(t, 1, next.calls.Load())
}

func TestIdempotency_ScopedByCaller(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	next := &countingHandler{}
	h := Idempotency(store)(next)

	for _, user := range []string{"user:1", "user:2"} {
		req := keyedRequest(http.MethodPost, "/v1/memberships", "same", `{}`)
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, user))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Empty(t, rr.Header().Get("X-Idempotency-Replayed"))
	}
	assert.EqualValues(t, 2, next.calls.Load())
}

func TestIdempotency_ScopedByPath(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	next := &countingHandler{}
	h := Idempotency(store)(next)

	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "/v1/events/a/tickets", "k", `{}`))
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "/v1/events/b/tickets", "k", `{}`))

	assert.EqualValues(t, 2, next.calls.Load())
}

func TestIdempotency_ServerError_NotStored(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	next := &countingHandler{status: http.StatusBadGateway}
	h := Idempotency(store)(next)

	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "/v1/signups", "k", `{}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, keyedRequest(http.MethodPost, "/v1/signups", "k", `{}`))

	assert.EqualValues(t, 2, next.calls.Load())
	assert.Empty(t, rr.Header().Get("X-Idempotency-Replayed"))
}

func TestIdempotency_Panic_NotStored(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") })

	assert.Panics(t, func() {
		Idempotency(store)(panicking).ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "/", "k", `{}`))
	})

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.entries)
}

func TestIdempotency_Expired_RunsAgain(t *testing.T) {
	t.Parallel()

	store, clock := newTestStore(t)
	next := &countingHandler{}
	h := Idempotency(store)(next)

	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "/v1/memberships", "k", `{}`))
	clock.Advance(2 * time.Hour)
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "/v1/memberships", "k", `{}`))

	assert.EqualValues(t, 2, next.calls.Load())
}

func TestIdempotency_RestoresBodyForHandler(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
	})

	Idempotency(store)(next).ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPatch, "/v1/flags/x", "k", `{"enabled":true}`))
	assert.Equal(t, `{"enabled":true}`, got)
}

func TestIdempotency_ConcurrentDuplicate_Waits(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	next := &countingHandler{gate: make(chan struct{})}
	h := Idempotency(store)(next)

	var wg sync.WaitGroup
	results := make([]*httptest.ResponseRecorder, 2)
	for i := range results {
		results[i] = httptest.NewRecorder()
		wg.Add(1)
		go func(rr *httptest.ResponseRecorder) {
			defer wg.Done()
			h.ServeHTTP(rr, keyedRequest(http.MethodPost, "/v1/events/e/tickets", "dup", `{}`))
		}(results[i])
	}

	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	close(next.gate)
	wg.Wait()

	assert.EqualValues(t, 1, next.calls.Load())
	assert.Equal(t, results[0].Body.String(), results[1].Body.String())
	replayed := results[0].Header().Get("X-Idempotency-Replayed") + results[1].Header().Get("X-Idempotency-Replayed")
	assert.Equal(t, "true", replayed)
}

func TestIdempotencyStore_CleanupDropsExpired(t *testing.T) {
	t.Parallel()

	store, clock := newTestStore(t)
	store.entries["old"] = &idempotencyEntry{expiresAt: clock.Now().Add(-time.Minute)}
	store.entries["live"] = &idempotencyEntry{expiresAt: clock.Now().Add(time.Minute)}
	store.entries["running"] = &idempotencyEntry{inFlight: true}

	store.cleanup()

	assert.NotContains(t, store.entries, "old")
	assert.Contains(t, store.entries, "live")
	assert.Contains(t, store.entries, "running")
}

func TestScopeKey_Separated(t *testing.T) {
	t.Parallel()

	assert.Equal(t, scopeKey("u", "k", "POST", "/a"), scopeKey("u", "k", "POST", "/a"))
	assert.NotEqual(t, scopeKey("ab", "c", "POST", "/"), scopeKey("a", "bc", "POST", "/"))
}
