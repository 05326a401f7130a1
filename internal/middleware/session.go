package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/firstaid/internal/session"
)

// =============================================================================
// Session Middleware
// =============================================================================

// SessionMiddleware gives every browser an anonymous session ID.
//
// There are no user accounts: the session only keys the chat transcript and
// the in-flight turn flag.
type SessionMiddleware struct {
	logger   *slog.Logger
	isSecure bool
	ttl      time.Duration
}

// NewSessionMiddleware creates a new session middleware.
// Set isSecure to true in production so the cookie is HTTPS-only.
func NewSessionMiddleware(logger *slog.Logger, isSecure bool, ttl time.Duration) *SessionMiddleware {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &SessionMiddleware{
		logger:   logger,
		isSecure: isSecure,
		ttl:      ttl,
	}
}

// Handler loads the session ID from the cookie, issuing a new one when the
// cookie is missing or malformed, and stores it in the request context.
//
// Flow:
//
//	Request -> Cookie present and a valid UUID?
//	           |-> yes: refresh cookie expiry
//	           +-> no:  generate UUID, set cookie
//	        -> session.WithID(ctx) -> next
func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if cookie, err := r.Cookie(session.CookieName); err == nil {
			if parsed, err := uuid.Parse(cookie.Value); err == nil {
				id = parsed.String()
			}
		}

		if id == "" {
			id = uuid.NewString()
			m.logger.Debug("new session issued", "path", r.URL.Path)
		}
		SetSessionCookie(w, id, m.ttl, m.isSecure)

		next.ServeHTTP(w, r.WithContext(session.WithID(r.Context(), id)))
	})
}

// GetSessionID returns the session ID for the request, or "" when the
// session middleware did not run.
func GetSessionID(r *http.Request) string {
	return session.IDFromContext(r.Context())
}

// =============================================================================
// Cookie Helpers
// =============================================================================

// SetSessionCookie sets the session cookie on the response.
//
// Cookie Settings:
// - HttpOnly: true - Prevents JavaScript access (XSS protection)
// - Secure: configurable - Set true in production (HTTPS only)
// - SameSite: Lax - Prevents CSRF while allowing normal navigation
// - Path: / - Cookie sent with all requests
// - MaxAge: session TTL - Matches transcript retention
func SetSessionCookie(w http.ResponseWriter, id string, ttl time.Duration, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    id,
		Path:     session.CookiePath,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// =============================================================================
// Request Helpers
// =============================================================================

// isAPIRequest determines if the request expects a JSON response.
//
// Checks:
// 1. Accept header contains application/json
// 2. Content-Type is application/json
// 3. URL path starts with /api/
func isAPIRequest(r *http.Request) bool {
	// Check Accept header
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}

	// Check Content-Type
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		return true
	}

	// Check URL path (API routes)
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	stack := Stack(logging.Handler, sessions.Handler, limiter.Limit)
//	mux.Handle("POST /chat", stack(chatHandler))
//
// This is equivalent to:
//
//	mux.Handle("POST /chat",
//	    logging.Handler(sessions.Handler(limiter.Limit(chatHandler))))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
