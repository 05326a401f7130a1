package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DukeRupert/firstaid/internal/session"
)

// quietPrefixes are polled constantly and never logged.
var quietPrefixes = []string{"/health", "/metrics", "/static/"}

// redactedParams never reach the logs. Coordinates and search queries can
// say where someone is or what happened to them.
var redactedParams = map[string]bool{
	"token":      true,
	"csrf_token": true,
	"key":        true,
	"api_key":    true,
	"lat":        true,
	"lng":        true,
	"latitude":   true,
	"longitude":  true,
	"q":          true,
	"query":      true,
}

// RequestLoggingMiddleware writes one log line per request.
type RequestLoggingMiddleware struct {
	logger *slog.Logger
}

// NewRequestLoggingMiddleware creates a new request logging middleware.
func NewRequestLoggingMiddleware(logger *slog.Logger) *RequestLoggingMiddleware {
	return &RequestLoggingMiddleware{logger: logger}
}

// Handler logs one line per request with the session ID, so request lines
// can be joined with chat turn logs. It runs outside the session middleware,
// so the ID is read back from the response cookie.
func (m *RequestLoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isQuiet(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		attrs := []any{
			"method", r.Method,
			"path", redactQuery(r.URL),
			"status", rec.status,
			"bytes", rec.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", getClientIP(r),
		}
		if id := requestSessionID(r, rec.Header()); id != "" {
			attrs = append(attrs, "session_id", id)
		}

		level := slog.LevelInfo
		switch {
		case rec.status >= http.StatusInternalServerError:
			level = slog.LevelError
		case rec.status == http.StatusTooManyRequests || rec.status == http.StatusConflict:
			level = slog.LevelWarn
		}
		m.logger.Log(r.Context(), level, "request", attrs...)
	})
}

func isQuiet(path string) bool {
	for _, p := range quietPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// redactQuery returns the path with sensitive query values replaced.
// Malformed query strings are dropped rather than logged raw.
func redactQuery(u *url.URL) string {
	if u.RawQuery == "" {
		return u.Path
	}
	values, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return u.Path + "?[unparsed]"
	}
	for k := range values {
		if redactedParams[strings.ToLower(k)] {
			values[k] = []string{"redacted"}
		}
	}
	return u.Path + "?" + values.Encode()
}

// requestSessionID prefers the session cookie set on the response, which is
// the ID the handlers saw, and falls back to the request cookie.
func requestSessionID(r *http.Request, h http.Header) string {
	for _, line := range h.Values("Set-Cookie") {
		if c, err := http.ParseSetCookie(line); err == nil && c.Name == session.CookieName {
			return c.Value
		}
	}
	if c, err := r.Cookie(session.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// statusRecorder captures the status code and body size.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
