package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/firstaid/internal/metrics"
)

// MetricsAuth guards the Prometheus endpoint with basic auth.
//
// With no credentials configured the endpoint is open, which is what local
// development and private scrape networks want.
type MetricsAuth struct {
	user   [sha256.Size]byte
	pass   [sha256.Size]byte
	open   bool
	logger *slog.Logger
}

// NewMetricsAuth creates the guard. Credentials are kept as digests so the
// comparison takes the same time whatever their length.
func NewMetricsAuth(username, password string, logger *slog.Logger) *MetricsAuth {
	return &MetricsAuth{
		user:   sha256.Sum256([]byte(username)),
		pass:   sha256.Sum256([]byte(password)),
		open:   username == "" && password == "",
		logger: logger,
	}
}

// Handler wraps the metrics handler.
func (m *MetricsAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.open || m.authorized(r) {
			next.ServeHTTP(w, r)
			return
		}

		metrics.MetricsAuthFailures.Inc()
		m.logger.Warn("metrics scrape rejected", "ip", getClientIP(r))

		w.Header().Set("WWW-Authenticate", `Basic realm="metrics", charset="UTF-8"`)
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	})
}

func (m *MetricsAuth) authorized(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	u := sha256.Sum256([]byte(user))
	p := sha256.Sum256([]byte(pass))

	// Both halves are always compared.
	match := subtle.ConstantTimeCompare(u[:], m.user[:])
	match &= subtle.ConstantTimeCompare(p[:], m.pass[:])
	return match == 1
}
