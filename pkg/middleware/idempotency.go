package middleware

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"autoquote/pkg/logger"
)

const DefaultIdempotencyHeader = "Idempotency-Key"

// IdempotencyStore remembers the outcome of keyed submissions. Acquire is
// atomic: it either returns a cached response, reports the key as in
// flight, or claims it for the caller, who must then call Complete.
type IdempotencyStore interface {
	Acquire(key string) (cached *CachedResponse, acquired bool)
	Complete(key string, response *CachedResponse)
	Stop()
}

type CachedResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	CreatedAt  time.Time
}

type InMemoryIdempotencyStore struct {
	mu       sync.Mutex
	store    map[string]*CachedResponse
	inFlight map[string]struct{}
	ttl      time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		store:    make(map[string]*CachedResponse),
		inFlight: make(map[string]struct{}),
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}

	go store.cleanup()

	return store
}

func (s *InMemoryIdempotencyStore) Acquire(key string) (*CachedResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if response, ok := s.store[key]; ok {
		if time.Since(response.CreatedAt) <= s.ttl {
			return response, false
		}
		delete(s.store, key)
	}

	if _, busy := s.inFlight[key]; busy {
		return nil, false
	}
	s.inFlight[key] = struct{}{}
	return nil, true
}

// Complete releases key and caches response when it is not nil.
func (s *InMemoryIdempotencyStore) Complete(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, key)
	if response != nil {
		response.CreatedAt = time.Now()
		s.store[key] = response
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for key, response := range s.store {
				if time.Since(response.CreatedAt) > s.ttl {
					delete(s.store, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the stored response of a quote submission sent again
// with the same key, so a retried form post neither stores a second quote
// nor alerts the owner twice. Keys are scoped to method and path and only
// honoured on POST, PUT and PATCH. A duplicate that arrives while the first
// is still running gets 409.
func Idempotency(store IdempotencyStore, headerName string, log *logger.Logger) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = DefaultIdempotencyHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := idempotencyKey(r, headerName)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			cached, acquired := store.Acquire(key)
			switch {
			case cached != nil:
				log.Info("Replaying idempotent response",
					"request_id", RequestID(r.Context()),
					"path", r.URL.Path,
					"status", cached.StatusCode,
				)
				replayCachedResponse(w, cached)
				return
			case !acquired:
				rejectInFlight(w, log, r)
				return
			}

			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
			var response *CachedResponse
			defer func() { store.Complete(key, response) }()

			next.ServeHTTP(capture, r)
			if isSuccess(capture.statusCode) {
				response = &CachedResponse{
					StatusCode: capture.statusCode,
					Headers:    w.Header().Clone(),
					Body:       capture.body.Bytes(),
				}
			}
		})
	}
}

func idempotencyKey(r *http.Request, headerName string) string {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return ""
	}

	value := r.Header.Get(headerName)
	if value == "" {
		return ""
	}
	return r.Method + " " + r.URL.Path + " " + value
}

func replayCachedResponse(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		if key == http.CanonicalHeaderKey(RequestIDHeader) {
			continue
		}
		w.Header()[key] = append([]string(nil), values...)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}

func rejectInFlight(w http.ResponseWriter, log *logger.Logger, r *http.Request) {
	log.Warn("Duplicate submission while the first is in progress",
		"request_id", RequestID(r.Context()),
		"path", r.URL.Path,
	)

	w.Header().Set("Content-Type", ContentTypeJSON)
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusConflict)
	_, _ = w.Write([]byte(`{"error":"A request with this idempotency key is already in progress"}`))
}

func isSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
