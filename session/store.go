package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is an exported constant or variable used by the session engine.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Store is a Redis-backed session store that persists the server-side session
// blob, including the refresh token held for the cookie-based refresh flow.
//
//	Docs: docs/session.md
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix sets the Redis key namespace.
//
//	Docs: docs/session.md
func NewStore(redis redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  redis,
		prefix: prefix,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

// Save persists a [Session] to Redis with the given TTL.
//
//	Performance: 1 Redis SET.
//	Docs: docs/session.md
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(sess.SessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Get retrieves a session by session ID. Returns the decoded [Session],
// redis.Nil when absent, or a wrapped error when Redis is unavailable.
//
//	Performance: 1 Redis GET.
//	Docs: docs/session.md
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	key := s.key(sessionID)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.SessionID = sessionID

	if sess.ExpiresAt > 0 && sess.ExpiresAt <= time.Now().Unix() {
		if err := s.Destroy(ctx, sessionID); err != nil {
			return nil, err
		}
		return nil, redis.Nil
	}

	return sess, nil
}

// Destroy removes a session from Redis. Destroying an absent session is a
// no-op.
//
//	Performance: 1 Redis DEL.
//	Docs: docs/session.md
func (s *Store) Destroy(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}
