package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/token-authority/internal/domain"
)

const (
	blacklistKeyPrefix = "blacklist:"
	blacklistMarker    = "logout"
)

// sessionKey builds the namespaced key for a user's current token of the
// given kind. The layout is compatibility-bearing: other backend components
// read the same keys.
func sessionKey(kind domain.TokenKind, username string) string {
	return string(kind) + ":" + username
}

// ErrNotFound is returned when a registry entry is missing or has expired.
var ErrNotFound = errors.New("session entry not found")

// SessionRegistry stores the current access/refresh token per user and the
// blacklist of revoked tokens. Every entry carries a TTL enforced by the
// backing store.
type SessionRegistry interface {
	PutAccess(ctx context.Context, username, token string, ttl time.Duration) error
	GetAccess(ctx context.Context, username string) (string, error)
	DeleteAccess(ctx context.Context, username string) error

	PutRefresh(ctx context.Context, username, token string, ttl time.Duration) error
	GetRefresh(ctx context.Context, username string) (string, error)
	DeleteRefresh(ctx context.Context, username string) error

	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

type redisSessionRegistry struct {
	client *redis.Client
}

// NewSessionRegistry returns a Redis-backed implementation.
func NewSessionRegistry(client *redis.Client) SessionRegistry {
	return &redisSessionRegistry{client: client}
}

func (r *redisSessionRegistry) PutAccess(ctx context.Context, username, token string, ttl time.Duration) error {
	return r.set(ctx, sessionKey(domain.TokenKindAccess, username), token, ttl)
}

func (r *redisSessionRegistry) GetAccess(ctx context.Context, username string) (string, error) {
	return r.get(ctx, sessionKey(domain.TokenKindAccess, username))
}

func (r *redisSessionRegistry) DeleteAccess(ctx context.Context, username string) error {
	return r.del(ctx, sessionKey(domain.TokenKindAccess, username))
}

func (r *redisSessionRegistry) PutRefresh(ctx context.Context, username, token string, ttl time.Duration) error {
	return r.set(ctx, sessionKey(domain.TokenKindRefresh, username), token, ttl)
}

func (r *redisSessionRegistry) GetRefresh(ctx context.Context, username string) (string, error) {
	return r.get(ctx, sessionKey(domain.TokenKindRefresh, username))
}

func (r *redisSessionRegistry) DeleteRefresh(ctx context.Context, username string) error {
	return r.del(ctx, sessionKey(domain.TokenKindRefresh, username))
}

func (r *redisSessionRegistry) AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	return r.set(ctx, blacklistKeyPrefix+token, blacklistMarker, ttl)
}

func (r *redisSessionRegistry) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return r.exists(ctx, blacklistKeyPrefix+token)
}

func (r *redisSessionRegistry) set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("registry set %q: %w", key, err)
	}
	return nil
}

func (r *redisSessionRegistry) get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("registry get %q: %w", key, err)
	}
	return value, nil
}

func (r *redisSessionRegistry) del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("registry delete %q: %w", key, err)
	}
	return nil
}

func (r *redisSessionRegistry) exists(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("registry exists %q: %w", key, err)
	}
	return count > 0, nil
}
