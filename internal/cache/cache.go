package cache

import (
	"context"
	"time"
)

// BytesCache — минимальный контракт кэша "текущего состояния".
// Кэш не обязан быть всегда: ошибки чтения трактуются как промах.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
