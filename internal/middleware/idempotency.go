package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/eatmeetclub/api/internal/model"
)

const (
	maxIdempotencyKeyLen = 255
	defaultMaxBody       = 1 << 20
)

// Set by the outer Compress layer for the live response only. The stored
// body is uncompressed, so a replay lets Compress decide again.
var unreplayedHeaders = []string{"Content-Encoding", "Content-Length", "Vary"}

// IdempotencyStore remembers responses to keyed POST/PATCH requests so a
// client retrying a checkout does not create a second charge.
type IdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	maxBody  int64
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

type idempotencyEntry struct {
	fingerprint string
	status      int
	headers     http.Header
	body        []byte
	expiresAt   time.Time
	inFlight    bool
	done        chan struct{}
}

// IdempotencyConfig holds configuration for idempotency middleware
type IdempotencyConfig struct {
	TTL     time.Duration // how long a response is replayable (default 24h)
	Cleanup time.Duration // sweep interval (default 1h)
	MaxBody int64         // largest keyed request body read (default 1 MiB)
}

// NewIdempotencyStore creates a store and starts its sweep goroutine.
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = time.Hour
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = defaultMaxBody
	}

	store := &IdempotencyStore{
		entries:  make(map[string]*idempotencyEntry),
		ttl:      cfg.TTL,
		maxBody:  cfg.MaxBody,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	go store.cleanupLoop(cfg.Cleanup)

	return store
}

// Stop ends the sweep goroutine. Safe to call more than once.
func (s *IdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *IdempotencyStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

func (s *IdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, entry := range s.entries {
		if !entry.inFlight && entry.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// scopeKey identifies a key per caller and route. The body is compared
// separately so reuse with a different payload can be rejected.
func scopeKey(caller, idempotencyKey, method, path string) string {
	h := sha256.New()
	for _, part := range []string{caller, idempotencyKey, method, path} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// idempotencyResponseWriter tees the response into a buffer.
type idempotencyResponseWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *idempotencyResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func replay(w http.ResponseWriter, entry *idempotencyEntry) {
	for k, v := range entry.headers {
		w.Header()[k] = append([]string(nil), v...)
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(entry.status)
	_, _ = w.Write(entry.body)
}

// Idempotency replays the stored response for a repeated Idempotency-Key on
// POST and PATCH. A concurrent duplicate waits for the first to finish.
// Server errors are not stored, so the client may retry them.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			idempotencyKey := r.Header.Get("Idempotency-Key")
			if idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(idempotencyKey) > maxIdempotencyKeyLen {
				model.NewBadRequestError("Idempotency-Key must be at most 255 characters").WriteJSON(w)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, store.maxBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					model.NewPayloadTooLargeError(tooLarge.Limit).WriteJSON(w)
					return
				}
				model.NewBadRequestError("unable to read request body").WriteJSON(w)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			caller := GetUserID(r.Context())
			if caller == "" {
				caller = "ip:" + clientIP(r)
			}
			key := scopeKey(caller, idempotencyKey, r.Method, r.URL.Path)
			fp := fingerprint(body)

			for {
				store.mu.Lock()
				entry, exists := store.entries[key]
				if !exists || (!entry.inFlight && entry.expiresAt.Before(store.now())) {
					break
				}
				if entry.fingerprint != fp {
					store.mu.Unlock()
					model.NewConflictError("Idempotency-Key was already used with a different request").WriteJSON(w)
					return
				}
				if !entry.inFlight {
					store.mu.Unlock()
					replay(w, entry)
					return
				}
				store.mu.Unlock()

				select {
				case <-entry.done:
				case <-r.Context().Done():
					return
				}
			}

			// Lock still held from the loop.
			entry := &idempotencyEntry{
				fingerprint: fp,
				inFlight:    true,
				done:        make(chan struct{}),
			}
			store.entries[key] = entry
			store.mu.Unlock()

			irw := &idempotencyResponseWriter{ResponseWriter: w, status: http.StatusOK}
			completed := false
			defer func() {
				store.mu.Lock()
				if !completed || irw.status >= 500 {
					delete(store.entries, key)
				} else {
					entry.status = irw.status
					entry.headers = irw.Header().Clone()
					for _, h := range unreplayedHeaders {
						entry.headers.Del(h)
					}
					entry.body = irw.body.Bytes()
					entry.expiresAt = store.now().Add(store.ttl)
				}
				entry.inFlight = false
				close(entry.done)
				store.mu.Unlock()
			}()

			next.ServeHTTP(irw, r)
			completed = true
		})
	}
}
