package rediscache

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	usersKey       = "ordersync:users"
	seenKeyPrefix  = "ordersync:seen:"
)

// SyncState хранит состояние order-sync-worker'а: множество пользователей,
// за которыми надо следить, и fingerprints последних увиденных line item'ов.
type SyncState struct {
	c *redis.Client
}

func NewSyncState(addr string) *SyncState {
	return &SyncState{
		c: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (s *SyncState) Register(ctx context.Context, userID string) error {
	if err := s.c.SAdd(ctx, usersKey, userID).Err(); err != nil {
		return errors.Wrap(err, "redis sadd user")
	}
	return nil
}

func (s *SyncState) Users(ctx context.Context) ([]string, error) {
	users, err := s.c.SMembers(ctx, usersKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis smembers users")
	}
	return users, nil
}

// LastSeen возвращает map "itemKey -> fingerprint" для пользователя.
func (s *SyncState) LastSeen(ctx context.Context, userID string) (map[string]string, error) {
	m, err := s.c.HGetAll(ctx, seenKeyPrefix+userID).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis hgetall seen")
	}
	return m, nil
}

func (s *SyncState) SetLastSeen(ctx context.Context, userID string, fingerprints map[string]string) error {
	if len(fingerprints) == 0 {
		return nil
	}
	kv := make([]any, 0, len(fingerprints)*2)
	for k, v := range fingerprints {
		kv = append(kv, k, v)
	}
	if err := s.c.HSet(ctx, seenKeyPrefix+userID, kv...).Err(); err != nil {
		return errors.Wrap(err, "redis hset seen")
	}
	return nil
}
