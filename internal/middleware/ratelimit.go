package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DukeRupert/firstaid/internal/domain"
	"github.com/DukeRupert/firstaid/internal/metrics"
)

// RateLimiter counts submissions per client in fixed windows. It guards the
// routes that spend model calls or send alerts; reads are never limited.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*clientWindow
	stop    chan struct{}
	once    sync.Once
}

type clientWindow struct {
	start time.Time
	count int
}

// NewRateLimiter allows limit submissions per client per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*clientWindow),
		stop:    make(chan struct{}),
	}
	go rl.sweepEvery(window)
	return rl
}

// Allow records one submission for key. When the key is over its limit it
// returns false and how long until the window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cw, ok := rl.clients[key]
	if !ok || now.Sub(cw.start) >= rl.window {
		rl.clients[key] = &clientWindow{start: now, count: 1}
		return true, 0
	}
	if cw.count >= rl.limit {
		return false, cw.start.Add(rl.window).Sub(now)
	}
	cw.count++
	return true, 0
}

// Close stops the sweeper.
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) sweepEvery(d time.Duration) {
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, cw := range rl.clients {
		if now.Sub(cw.start) >= rl.window {
			delete(rl.clients, key)
		}
	}
}

// tooManyRequestsPage is shown to browsers. It repeats the emergency advice
// because the user may be mid-emergency.
const tooManyRequestsPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Please wait</title></head>
<body>
<h1>Please wait a moment</h1>
<p>You have sent several messages in a short time. Try again in a few seconds.</p>
<p><strong>If this is a life-threatening emergency, call your local emergency number now.</strong></p>
</body>
</html>`

// RateLimit returns middleware that rejects clients over the limiter's quota
// with 429 and a Retry-After header.
func RateLimit(limiter *RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)
			ok, wait := limiter.Allow(ip)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			metrics.RateLimitedTotal.WithLabelValues(r.URL.Path).Inc()
			logger.Warn("submission rate limited",
				"ip", ip,
				"path", r.URL.Path,
				"session_id", GetSessionID(r),
			)

			seconds := int(wait.Round(time.Second) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))

			if isAPIRequest(r) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{
						"code":    domain.ERATELIMIT,
						"message": "Too many requests. Please try again later.",
					},
				})
				return
			}

			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(tooManyRequestsPage))
		})
	}
}

// getClientIP returns the first valid address from X-Forwarded-For, then
// X-Real-IP, then the connection's remote address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
