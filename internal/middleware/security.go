package middleware

import (
	"net/http"
	"strings"
)

// ThumbnailHosts serve the simulated video guide thumbnails.
var ThumbnailHosts = []string{"https://picsum.photos", "https://fastly.picsum.photos"}

// SecurityConfig controls the security headers.
type SecurityConfig struct {
	// HSTS enables Strict-Transport-Security; only set it behind HTTPS.
	HSTS bool

	// ImageHosts are allowed as img-src next to 'self' and data: URIs.
	ImageHosts []string
}

// SecurityHeadersMiddleware sets the same header block on every response.
type SecurityHeadersMiddleware struct {
	headers http.Header
}

// NewSecurityHeadersMiddleware builds the header block once.
func NewSecurityHeadersMiddleware(cfg SecurityConfig) *SecurityHeadersMiddleware {
	h := http.Header{}
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Content-Security-Policy", contentSecurityPolicy(cfg.ImageHosts))
	// The notification page asks for the user's position. Nothing asks for
	// the camera or microphone.
	h.Set("Permissions-Policy", "geolocation=(self), camera=(), microphone=(), payment=()")
	if cfg.HSTS {
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}
	return &SecurityHeadersMiddleware{headers: h}
}

// Handler applies the headers before the wrapped handler runs.
func (m *SecurityHeadersMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dst := w.Header()
		for k, v := range m.headers {
			dst[k] = append([]string(nil), v...)
		}
		next.ServeHTTP(w, r)
	})
}

// contentSecurityPolicy allows scripts and styles from /static only. Inline
// style attributes are allowed; inline scripts are not.
func contentSecurityPolicy(imageHosts []string) string {
	img := append([]string{"'self'", "data:"}, imageHosts...)
	directives := [][]string{
		{"default-src", "'self'"},
		{"script-src", "'self'"},
		{"style-src", "'self'", "'unsafe-inline'"},
		append([]string{"img-src"}, img...),
		{"connect-src", "'self'"},
		{"form-action", "'self'"},
		{"frame-ancestors", "'none'"},
		{"base-uri", "'self'"},
		{"object-src", "'none'"},
	}

	parts := make([]string, len(directives))
	for i, d := range directives {
		parts[i] = strings.Join(d, " ")
	}
	return strings.Join(parts, "; ")
}
