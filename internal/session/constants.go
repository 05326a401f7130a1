// Package session identifies anonymous browser sessions and stores their
// chat transcripts.
package session

import (
	"context"
	"time"
)

const (
	// CookieName is the name of the cookie that stores the session ID.
	CookieName = "firstaid_session"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"

	// DefaultTTL is how long an idle session (and its transcript) is kept.
	DefaultTTL = 24 * time.Hour

	// maxTranscriptMessages caps stored messages per session.
	// Older entries are dropped first.
	maxTranscriptMessages = 200
)

type contextKey struct{}

// WithID returns a copy of ctx carrying the session ID.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IDFromContext returns the session ID stored by WithID, or "".
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
