package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/DukeRupert/firstaid/internal/domain"
)

const redisKeyPrefix = "firstaid:session:"

// unlockScript deletes the lock only while it still holds the caller's token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore is a Store shared by every server instance.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisStore connects to the Redis server at url
// (redis://[:password@]host:port/db) and verifies the connection.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration, logger *slog.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	logger.Info("redis connected", "addr", opts.Addr, "db", opts.DB)

	return NewRedisStoreFromClient(client, ttl, logger), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl, logger: logger}
}

// Append pushes the messages in one transaction and refreshes the TTL.
func (s *RedisStore) Append(ctx context.Context, sessionID string, msgs ...domain.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([]any, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
		values = append(values, b)
	}

	key := transcriptKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		pipe.LTrim(ctx, key, -maxTranscriptMessages, -1)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		s.logger.Error("transcript append failed", "session_id", sessionID, "error", err)
		return fmt.Errorf("append transcript: %w", err)
	}
	return nil
}

// Transcript reads the full transcript list.
func (s *RedisStore) Transcript(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	raw, err := s.client.LRange(ctx, transcriptKey(sessionID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	out := make([]domain.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var m domain.ChatMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			s.logger.Warn("skipping undecodable transcript entry", "session_id", sessionID, "error", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Lock uses SET NX with an expiry so a crashed instance cannot hold it forever.
// The value is a per-turn token checked by Unlock.
func (s *RedisStore) Lock(ctx context.Context, sessionID string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, lockKey(sessionID), token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("lock session: %w", err)
	}
	if !ok {
		return "", ErrLocked
	}
	return token, nil
}

// Unlock deletes the lock key if it still holds token.
func (s *RedisStore) Unlock(ctx context.Context, sessionID, token string) error {
	n, err := unlockScript.Run(ctx, s.client, []string{lockKey(sessionID)}, token).Int()
	if err != nil {
		return fmt.Errorf("unlock session: %w", err)
	}
	if n == 0 {
		s.logger.Warn("session lock was no longer held", "session_id", sessionID)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func transcriptKey(sessionID string) string {
	return redisKeyPrefix + sessionID + ":transcript"
}

func lockKey(sessionID string) string {
	return redisKeyPrefix + sessionID + ":lock"
}
