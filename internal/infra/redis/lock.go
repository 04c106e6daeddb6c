package redis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"proxy-admin-bot/internal/domain/ports/repository"
)

var _ repository.Locker = (*RedisLocker)(nil)

// RedisLocker is a single-key lease lock. The ttl bounds how long a crashed
// holder can block others.
type RedisLocker struct {
	client RedisClient
	ttl    time.Duration
	prefix string
}

func NewLocker(client RedisClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisLocker{client: client, ttl: ttl, prefix: "lock:"}
}

// TryLock does not wait: ok is false when someone else holds key.
func (l *RedisLocker) TryLock(ctx context.Context, key string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.prefix+key, token, l.ttl)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := l.client.DelIfEquals(ctx, l.prefix+key, token)
	return err
}
