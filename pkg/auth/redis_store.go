package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "session:"

// RedisSessionStore stores sessions in Redis with a TTL matching the
// trust window, so expired sessions disappear without a purge job.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(redisURL string) (*RedisSessionStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisSessionStore{client: client}, nil
}

// NewRedisSessionStoreWithClient wraps an existing client; used by tests.
func NewRedisSessionStoreWithClient(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// Client exposes the underlying client for health checks.
func (s *RedisSessionStore) Client() *redis.Client {
	return s.client
}

// Create implements SessionStore.Create.
func (s *RedisSessionStore) Create(ctx context.Context, session *Session) error {
	id, err := s.client.Incr(ctx, "session:next_id").Result()
	if err != nil {
		return fmt.Errorf("failed to allocate session id: %w", err)
	}
	session.ID = id

	return s.write(ctx, session)
}

// GetByTokenHash implements SessionStore.GetByTokenHash.
func (s *RedisSessionStore) GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+tokenHash).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session := &Session{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	session.TokenHash = tokenHash
	return session, nil
}

// Renew implements SessionStore.Renew.
func (s *RedisSessionStore) Renew(ctx context.Context, session *Session) error {
	return s.write(ctx, session)
}

// Delete implements SessionStore.Delete.
func (s *RedisSessionStore) Delete(ctx context.Context, tokenHash string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+tokenHash).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// PurgeExpired implements SessionStore.PurgeExpired. Redis key TTLs
// already evict expired sessions, so this is a no-op.
func (s *RedisSessionStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (s *RedisSessionStore) write(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		// Already past expiry; keep it briefly so the lazy check can
		// observe and reject it deterministically.
		ttl = time.Minute
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+session.TokenHash, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}
