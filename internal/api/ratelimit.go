package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter caps requests per client IP over a fixed window. Admin
// endpoints share one limiter so a runaway client cannot spin the
// simulation arbitrarily fast.
type RateLimiter struct {
	mu     sync.Mutex
	seen   map[string]*window
	limit  int
	period time.Duration
}

type window struct {
	remaining int
	openedAt  time.Time
}

// NewRateLimiter allows limit requests per period per client IP.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		seen:   make(map[string]*window),
		limit:  limit,
		period: period,
	}
	go rl.sweep()
	return rl
}

// Allow consumes one request slot for the IP, reporting whether it fit.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.seen[ip]
	if !ok || now.Sub(w.openedAt) >= rl.period {
		rl.seen[ip] = &window{remaining: rl.limit - 1, openedAt: now}
		return true
	}
	if w.remaining > 0 {
		w.remaining--
		return true
	}
	return false
}

// RetryAfter returns whole seconds until the IP's window reopens.
func (rl *RateLimiter) RetryAfter(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.seen[ip]
	if !ok {
		return 0
	}
	left := rl.period - time.Since(w.openedAt)
	if left <= 0 {
		return 0
	}
	return int(left.Seconds()) + 1
}

// sweep drops windows that have been idle long enough to be irrelevant.
func (rl *RateLimiter) sweep() {
	for {
		time.Sleep(time.Hour)
		rl.mu.Lock()
		cutoff := time.Now().Add(-2 * rl.period)
		for ip, w := range rl.seen {
			if w.openedAt.Before(cutoff) {
				delete(rl.seen, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// clientIP extracts the caller's address, honouring X-Forwarded-For when a
// proxy sits in front of the API.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware rejects over-limit requests with 429 and a Retry-After.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.Allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(ip)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
