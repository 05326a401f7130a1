package session

import (
	"context"
	"errors"
	"time"

	"github.com/DukeRupert/firstaid/internal/domain"
)

// ErrLocked is returned by Lock when the session already has a turn in flight.
var ErrLocked = errors.New("session is locked")

// Store keeps per-session transcripts and the in-flight turn flag.
//
// Append is atomic: readers never observe some but not all of the messages
// from one call. Transcripts are append-only and expire after the store's TTL
// of inactivity.
type Store interface {
	// Append adds messages to the end of the session transcript.
	Append(ctx context.Context, sessionID string, msgs ...domain.ChatMessage) error

	// Transcript returns the session transcript in insertion order.
	// An unknown session returns an empty transcript.
	Transcript(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)

	// Lock marks a turn in flight for the session and returns the token that
	// owns it. It returns ErrLocked when one already is. The lock expires
	// after ttl if never released.
	Lock(ctx context.Context, sessionID string, ttl time.Duration) (string, error)

	// Unlock clears the in-flight flag if token still owns it. Releasing a
	// lock that expired and was taken by a later turn is a no-op.
	Unlock(ctx context.Context, sessionID, token string) error

	// Close releases resources held by the store.
	Close() error
}
