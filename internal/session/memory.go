package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/firstaid/internal/domain"
)

// MemoryStore is a process-local Store.
type MemoryStore struct {
	ttl    time.Duration
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*memoryEntry
	done     chan struct{}
	once     sync.Once
}

type memoryEntry struct {
	messages    []domain.ChatMessage
	lockedUntil time.Time
	lockToken   string
	lastSeen    time.Time
}

// NewMemoryStore creates a memory store whose sessions expire after ttl of
// inactivity.
func NewMemoryStore(ttl time.Duration, logger *slog.Logger) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*memoryEntry),
		done:     make(chan struct{}),
	}

	go s.cleanup()

	return s
}

// Append adds messages to the session transcript.
func (s *MemoryStore) Append(_ context.Context, sessionID string, msgs ...domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(sessionID)
	e.messages = append(e.messages, msgs...)
	if over := len(e.messages) - maxTranscriptMessages; over > 0 {
		e.messages = append([]domain.ChatMessage(nil), e.messages[over:]...)
	}
	return nil
}

// Transcript returns a copy of the session transcript.
func (s *MemoryStore) Transcript(_ context.Context, sessionID string) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[sessionID]
	if !ok || s.expired(e, time.Now()) {
		return []domain.ChatMessage{}, nil
	}
	out := make([]domain.ChatMessage, len(e.messages))
	copy(out, e.messages)
	return out, nil
}

// Lock sets the in-flight flag unless it is already held.
func (s *MemoryStore) Lock(_ context.Context, sessionID string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	e := s.entry(sessionID)
	if now.Before(e.lockedUntil) {
		return "", ErrLocked
	}
	e.lockedUntil = now.Add(ttl)
	e.lockToken = uuid.NewString()
	return e.lockToken, nil
}

// Unlock clears the in-flight flag when token owns it.
func (s *MemoryStore) Unlock(_ context.Context, sessionID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[sessionID]; ok && e.lockToken == token {
		e.lockedUntil = time.Time{}
		e.lockToken = ""
	}
	return nil
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// entry returns the live entry for sessionID, creating or resetting it.
// Caller must hold the write lock.
func (s *MemoryStore) entry(sessionID string) *memoryEntry {
	now := time.Now()
	e, ok := s.sessions[sessionID]
	if !ok || s.expired(e, now) {
		e = &memoryEntry{}
		s.sessions[sessionID] = e
	}
	e.lastSeen = now
	return e
}

func (s *MemoryStore) expired(e *memoryEntry, now time.Time) bool {
	return now.Sub(e.lastSeen) > s.ttl
}

// cleanup periodically removes expired sessions to prevent memory leaks.
func (s *MemoryStore) cleanup() {
	interval := s.ttl
	if interval > 10*time.Minute {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.sessions {
		if s.expired(e, now) && !now.Before(e.lockedUntil) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 && s.logger != nil {
		s.logger.Debug("expired sessions removed", "count", removed)
	}
}
