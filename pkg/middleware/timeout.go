package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
)

const timeoutBody = `{"error":"Request timeout"}`

// timeoutWriter gives the handler goroutine its own header map. Headers are
// copied into the real writer under mu, and only if the handler writes
// before the deadline, so the two goroutines never share a map.
type timeoutWriter struct {
	w      http.ResponseWriter
	header http.Header

	mu         sync.Mutex
	timedOut   bool
	written    bool
	statusCode int
}

func newTimeoutWriter(w http.ResponseWriter) *timeoutWriter {
	return &timeoutWriter{w: w, header: make(http.Header)}
}

func (tw *timeoutWriter) Header() http.Header {
	return tw.header
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.writeHeaderLocked(code)
}

func (tw *timeoutWriter) writeHeaderLocked(code int) {
	if tw.timedOut || tw.written {
		return
	}
	tw.statusCode = code
	tw.written = true
	copyHeader(tw.w.Header(), tw.header)
	tw.w.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	tw.writeHeaderLocked(http.StatusOK)
	return tw.w.Write(b)
}

// finish flushes headers of a handler that returned without writing.
func (tw *timeoutWriter) finish() {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if !tw.written && !tw.timedOut {
		copyHeader(tw.w.Header(), tw.header)
	}
}

// expire marks the writer timed out and answers 503 unless the handler
// already started its response.
func (tw *timeoutWriter) expire() {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	tw.timedOut = true
	if tw.written {
		return
	}
	tw.written = true
	tw.statusCode = http.StatusServiceUnavailable
	tw.w.Header().Set("Content-Type", ContentTypeJSON)
	tw.w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = tw.w.Write([]byte(timeoutBody))
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		dst[k] = append([]string(nil), vv...)
	}
}

// RequestTimeout cancels the request context after timeout and answers 503
// if the handler has not responded by then. A panic in the handler is
// re-raised on the serving goroutine so Recovery still sees it.
func RequestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			r = r.WithContext(ctx)

			tw := newTimeoutWriter(w)
			done := make(chan struct{})
			panicked := make(chan any, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
					}
				}()
				next.ServeHTTP(tw, r)
				close(done)
			}()

			select {
			case p := <-panicked:
				panic(p)
			case <-done:
				tw.finish()
			case <-ctx.Done():
				tw.expire()
			}
		})
	}
}
