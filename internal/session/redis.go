package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ytget/yt-audio-bot/internal/model"
)

// Redis settings
const (
	KeyPrefix   = "yt-audio-bot:session:"
	PingTimeout = 3 * time.Second
)

// RedisStore keeps sessions in Redis so several bot processes can share them.
// Each session is a single JSON value written with one SET, so a reader sees
// either the old or the new session.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	tokens tokenSource
	now    func() time.Time
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

// DialRedis connects to redisURL and checks the server answers
func DialRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis unreachable at %s: %w", opts.Addr, err)
	}
	return client, nil
}

func sessionKey(user int64) string {
	return KeyPrefix + strconv.FormatInt(user, 10)
}

// Put replaces the user's session with a new one holding results
func (r *RedisStore) Put(ctx context.Context, user int64, query string, results []model.SearchResult) (*Session, error) {
	now := r.now()
	session := &Session{
		User:      user,
		Token:     r.tokens.next(now),
		Query:     query,
		Results:   append([]model.SearchResult(nil), results...),
		CreatedAt: now,
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(user), data, r.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return session, nil
}

// Validate returns the session if token still refers to it. A session the
// server already evicted counts as expired.
func (r *RedisStore) Validate(ctx context.Context, user int64, token string) (*Session, error) {
	session, err := r.Get(ctx, user)
	if errors.Is(err, ErrNoSession) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	if err := check(session, token, r.now(), r.ttl); err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns the user's current session
func (r *RedisStore) Get(ctx context.Context, user int64) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(user)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// Clear removes the user's session
func (r *RedisStore) Clear(ctx context.Context, user int64) error {
	if err := r.client.Del(ctx, sessionKey(user)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
