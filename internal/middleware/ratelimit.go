package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

const msgTooManyRequests = `{"error":"Too many requests. Please slow down."}` + "\n"

type window struct {
	count int
	until time.Time
}

// windowLimiter counts requests per key in fixed windows. Expired windows are
// swept at most once per window length.
type windowLimiter struct {
	limit int
	per   time.Duration

	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time
}

func newWindowLimiter(limit int, per time.Duration, now time.Time) *windowLimiter {
	return &windowLimiter{limit: limit, per: per, windows: make(map[string]*window), lastSweep: now}
}

// allow records one request for key. When the window is full it returns false
// and the time left until the window resets.
func (l *windowLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.per {
		for k, w := range l.windows {
			if now.After(w.until) {
				delete(l.windows, k)
			}
		}
		l.lastSweep = now
	}

	w, ok := l.windows[key]
	if !ok || now.After(w.until) {
		w = &window{until: now.Add(l.per)}
		l.windows[key] = w
	}
	if w.count >= l.limit {
		return false, w.until.Sub(now)
	}
	w.count++
	return true, 0
}

func (l *windowLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// RateLimit allows limit requests per client IP in each fixed window of
// length per. A limit of zero or less disables the check.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		limiter := newWindowLimiter(limit, per, time.Now())
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := limiter.allow(ClientIP(r), time.Now())
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(msgTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
