package repository

import (
	"context"
	"time"

	"github.com/calabozos/calabozos-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// SessionRepository keeps one Redis key per live access token.
type SessionRepository struct {
	rdb *redis.Client
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{rdb: rdb}
}

// Save registers a token until ttl elapses.
func (r *SessionRepository) Save(ctx context.Context, userID int64, tokenID string, ttl time.Duration) error {
	return r.rdb.Set(ctx, config.CacheKey.TokenSessionKey(userID, tokenID), time.Now().UTC().Unix(), ttl).Err()
}

// Exists reports whether the token has not been revoked or expired.
func (r *SessionRepository) Exists(ctx context.Context, userID int64, tokenID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, config.CacheKey.TokenSessionKey(userID, tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete revokes a token.
func (r *SessionRepository) Delete(ctx context.Context, userID int64, tokenID string) error {
	return r.rdb.Del(ctx, config.CacheKey.TokenSessionKey(userID, tokenID)).Err()
}
