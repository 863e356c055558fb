package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour
	// sessionKeyPrefix is the Redis key prefix for token->user lookups
	sessionKeyPrefix = "session:"
	// userSessionKeyPrefix is the Redis key prefix for the user->token mapping
	userSessionKeyPrefix = "user_session:"
)

// SessionStore issues and resolves opaque session tokens.
type SessionStore interface {
	Create(ctx context.Context, userID string) (string, error)
	// Validate returns the user ID for a token, or ok=false when the token
	// is empty, expired or unknown.
	Validate(ctx context.Context, token string) (userID string, ok bool, err error)
	Invalidate(ctx context.Context, token string) error
}

// RedisSessions stores session tokens in Redis with a 7-day TTL. Each user
// holds at most one session: creating a new one invalidates the previous,
// so the 7-day timer resets from the latest login.
type RedisSessions struct {
	client *redis.Client
}

func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client}
}

func (s *RedisSessions) Create(ctx context.Context, userID string) (string, error) {
	s.invalidateForUser(ctx, userID)

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	if err := s.client.Set(ctx, sessionKeyPrefix+token, userID, SessionDuration).Err(); err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, userSessionKeyPrefix+userID, token, SessionDuration).Err(); err != nil {
		return "", err
	}

	return token, nil
}

func (s *RedisSessions) Validate(ctx context.Context, token string) (string, bool, error) {
	if token == "" {
		return "", false, nil
	}

	userID, err := s.client.Get(ctx, sessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		// Transport errors are not "signed out"; let the caller decide
		return "", false, err
	}

	return userID, true, nil
}

func (s *RedisSessions) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	userID, err := s.client.Get(ctx, sessionKeyPrefix+token).Result()
	if err == nil && userID != "" {
		s.client.Del(ctx, userSessionKeyPrefix+userID)
	}

	return s.client.Del(ctx, sessionKeyPrefix+token).Err()
}

// invalidateForUser drops the user's existing session, if any.
func (s *RedisSessions) invalidateForUser(ctx context.Context, userID string) {
	token, err := s.client.Get(ctx, userSessionKeyPrefix+userID).Result()
	if err == nil && token != "" {
		s.client.Del(ctx, sessionKeyPrefix+token)
	}
	s.client.Del(ctx, userSessionKeyPrefix+userID)
}
