// status/status.go
package status

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Player presence values as the platform stores them.
const (
	Online = "online"
	InGame = "in_game"
)

// Provider reads a player's presence. The matchmaker consults it before
// issuing an invite.
type Provider interface {
	GetStatus(ctx context.Context, userID int64) (string, error)
}

// Setter updates presence; the match server flips players to in_game for
// the duration of a match.
type Setter interface {
	SetStatus(ctx context.Context, userID int64, status string) error
}

// RedisStore implements Provider and Setter on the platform's shared redis.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func statusKey(userID int64) string {
	return fmt.Sprintf("status:%d", userID)
}

// GetStatus returns the stored presence, defaulting to online when the key
// is absent.
func (s *RedisStore) GetStatus(ctx context.Context, userID int64) (string, error) {
	val, err := s.client.Get(ctx, statusKey(userID)).Result()
	if err == redis.Nil {
		return Online, nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *RedisStore) SetStatus(ctx context.Context, userID int64, status string) error {
	return s.client.Set(ctx, statusKey(userID), status, 0).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
