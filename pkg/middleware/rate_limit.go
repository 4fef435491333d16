package middleware

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"autoquote/pkg/logger"
	"autoquote/pkg/sanitizer"
)

type PhoneExtractor func(r *http.Request) string

type PhoneRateLimiter struct {
	mu             sync.RWMutex
	requests       map[string][]time.Time
	limit          int
	window         time.Duration
	phoneExtractor PhoneExtractor
	log            *logger.Logger
	stopCh         chan struct{}
}

func NewPhoneRateLimiter(limit int, window time.Duration, extractor PhoneExtractor, log *logger.Logger) *PhoneRateLimiter {
	limiter := &PhoneRateLimiter{
		requests:       make(map[string][]time.Time),
		limit:          limit,
		window:         window,
		phoneExtractor: extractor,
		log:            log,
		stopCh:         make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *PhoneRateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for phone, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, phone)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *PhoneRateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *PhoneRateLimiter) Allow(phone string) bool {
	if phone == "" {
		return true
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	validTimestamps := make([]time.Time, 0, rl.limit)
	for _, ts := range rl.requests[phone] {
		if now.Sub(ts) < rl.window {
			validTimestamps = append(validTimestamps, ts)
		}
	}

	if len(validTimestamps) >= rl.limit {
		rl.requests[phone] = validTimestamps
		return false
	}

	rl.requests[phone] = append(validTimestamps, now)
	return true
}

func PhoneRateLimit(limiter *PhoneRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			phone := extractPhoneNumber(r, limiter.phoneExtractor)

			if phone == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(phone) {
				rejectRateLimited(w, limiter.log, r, phone)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractPhoneNumber(r *http.Request, extractor PhoneExtractor) string {
	if extractor == nil {
		return r.Header.Get("X-Phone-Number")
	}
	return extractor(r)
}

func rejectRateLimited(w http.ResponseWriter, log *logger.Logger, r *http.Request, phone string) {
	log.Warn("Rate limit exceeded",
		"request_id", RequestID(r.Context()),
		"phone", sanitizer.MaskPhone(phone),
		"path", r.URL.Path,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"Rate limit exceeded"}`))
}

// SubmittedPhoneExtractor keys the limiter on the phone a quote request is
// submitted for: the "phone" form field or JSON member of a POST, normalized
// so spelling variants of one number share a bucket. The X-Phone-Number
// header is only consulted for requests without a body, so a submission
// cannot pick its own bucket. Bodies are restored for the next handler.
func SubmittedPhoneExtractor(regions ...string) PhoneExtractor {
	return func(r *http.Request) string {
		raw := submittedPhone(r)
		if raw == "" {
			return ""
		}
		if phone := sanitizer.NormalizePhone(raw, regions...); phone != "" {
			return phone
		}
		return raw
	}
}

func submittedPhone(r *http.Request) string {
	if r.Method != http.MethodPost {
		return r.Header.Get("X-Phone-Number")
	}

	switch extractContentType(r.Header.Get("Content-Type")) {
	case ContentTypeForm, ContentTypeMultipart:
		return r.FormValue("phone")
	case ContentTypeJSON:
		return jsonPhone(r)
	}
	return ""
}

func jsonPhone(r *http.Request) string {
	body, err := readAndRestoreBody(r)
	if err != nil {
		return ""
	}

	var payload struct {
		Phone string `json:"phone"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Phone
}
