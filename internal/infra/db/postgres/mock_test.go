//go:build !integration

package postgres

import (
	"context"
	"time"

	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/repository"
	red "proxy-admin-bot/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

type mockInnerTemplateRepo struct {
	SaveFunc     func(ctx context.Context, tx repository.Tx, t *model.UserTemplate) error
	DeleteFunc   func(ctx context.Context, tx repository.Tx, id int64) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id int64) (*model.UserTemplate, error)
	ListAllFunc  func(ctx context.Context, tx repository.Tx) ([]*model.UserTemplate, error)
}

func (m *mockInnerTemplateRepo) Save(ctx context.Context, tx repository.Tx, t *model.UserTemplate) error {
	return m.SaveFunc(ctx, tx, t)
}
func (m *mockInnerTemplateRepo) Delete(ctx context.Context, tx repository.Tx, id int64) error {
	return m.DeleteFunc(ctx, tx, id)
}
func (m *mockInnerTemplateRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.UserTemplate, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerTemplateRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.UserTemplate, error) {
	return m.ListAllFunc(ctx, tx)
}

// mockRedisClient mocks our Redis client wrapper. Unset funcs behave like an
// empty cache.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc == nil {
		return "", red.Nil
	}
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }
func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return true, nil
}
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) { return 1, nil }
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}
func (m *mockRedisClient) RPush(ctx context.Context, key string, values ...interface{}) error {
	return nil
}
func (m *mockRedisClient) PopAll(ctx context.Context, key string) ([]string, error) { return nil, nil }
func (m *mockRedisClient) DelIfEquals(ctx context.Context, key, value string) (bool, error) {
	return false, nil
}
func (m *mockRedisClient) Close() error { return nil }
