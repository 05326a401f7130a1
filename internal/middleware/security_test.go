package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func securedResponse(t *testing.T, cfg SecurityConfig, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewSecurityHeadersMiddleware(cfg).Handler(okHandler("page"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	require.Equal(t, "page", rec.Body.String(), "request reaches the handler")
	return rec
}

// directive returns the named CSP directive's sources.
func directive(csp, name string) []string {
	for _, part := range strings.Split(csp, ";") {
		fields := strings.Fields(part)
		if len(fields) > 0 && fields[0] == name {
			return fields[1:]
		}
	}
	return nil
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := securedResponse(t, SecurityConfig{}, method, "/")

		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
		assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	rec := securedResponse(t, SecurityConfig{HSTS: true}, http.MethodGet, "/")
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}

func TestSecurityHeaders_GeolocationForNotificationPage(t *testing.T) {
	rec := securedResponse(t, SecurityConfig{}, http.MethodGet, "/emergency-notification")

	policy := rec.Header().Get("Permissions-Policy")
	assert.Contains(t, policy, "geolocation=(self)")
	assert.Contains(t, policy, "camera=()")
	assert.Contains(t, policy, "microphone=()")
}

func TestSecurityHeaders_ContentSecurityPolicy(t *testing.T) {
	rec := securedResponse(t, SecurityConfig{ImageHosts: ThumbnailHosts}, http.MethodGet, "/video-guide")
	csp := rec.Header().Get("Content-Security-Policy")

	assert.Equal(t, []string{"'self'"}, directive(csp, "script-src"), "app.js only, no inline scripts")
	assert.Equal(t, []string{"'self'", "'unsafe-inline'"}, directive(csp, "style-src"))
	assert.Equal(t, []string{"'self'", "data:", "https://picsum.photos", "https://fastly.picsum.photos"}, directive(csp, "img-src"))
	assert.Equal(t, []string{"'self'"}, directive(csp, "form-action"))
	assert.Equal(t, []string{"'none'"}, directive(csp, "frame-ancestors"))
	assert.Equal(t, []string{"'self'"}, directive(csp, "connect-src"))
}

func TestSecurityHeaders_ThumbnailHostsAreConfigurable(t *testing.T) {
	rec := securedResponse(t, SecurityConfig{}, http.MethodGet, "/video-guide")
	assert.Equal(t, []string{"'self'", "data:"}, directive(rec.Header().Get("Content-Security-Policy"), "img-src"))
}

func TestSecurityHeaders_HandlerCannotMutateSharedBlock(t *testing.T) {
	m := NewSecurityHeadersMiddleware(SecurityConfig{})
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	rec := httptest.NewRecorder()
	h2 := m.Handler(okHandler(""))
	h2.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
