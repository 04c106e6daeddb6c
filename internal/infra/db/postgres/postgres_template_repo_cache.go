package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/repository"
	"proxy-admin-bot/internal/infra/metrics"
	red "proxy-admin-bot/internal/infra/redis"
)

var _ repository.TemplateRepository = (*templateRepoCacheDecorator)(nil)

const templateListKey = "templates:all"

type templateRepoCacheDecorator struct {
	inner repository.TemplateRepository
	cache red.RedisClient
	ttl   time.Duration
}

// NewTemplateRepoCacheDecorator caches template reads in Redis. Templates are
// read on every charge and template-create, and change rarely.
func NewTemplateRepoCacheDecorator(inner repository.TemplateRepository, cache red.RedisClient) repository.TemplateRepository {
	return &templateRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   1 * time.Hour,
	}
}

func templateKey(id int64) string { return fmt.Sprintf("template:%d", id) }

func (d *templateRepoCacheDecorator) fromCache(ctx context.Context, key string, dst any) bool {
	val, err := d.cache.Get(ctx, key)
	if err != nil {
		metrics.IncCacheRequest("template", "miss")
		return false
	}
	if json.Unmarshal([]byte(val), dst) != nil {
		metrics.IncCacheRequest("template", "miss")
		return false
	}
	metrics.IncCacheRequest("template", "hit")
	return true
}

func (d *templateRepoCacheDecorator) store(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = d.cache.Set(ctx, key, b, d.ttl)
}

func (d *templateRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.UserTemplate, error) {
	// reads inside a transaction must see the transaction's view
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}
	var tpl model.UserTemplate
	if d.fromCache(ctx, templateKey(id), &tpl) {
		return &tpl, nil
	}
	t, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	d.store(ctx, templateKey(id), t)
	return t, nil
}

func (d *templateRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.UserTemplate, error) {
	if tx != nil {
		return d.inner.ListAll(ctx, tx)
	}
	var list []*model.UserTemplate
	if d.fromCache(ctx, templateListKey, &list) {
		return list, nil
	}
	list, err := d.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	d.store(ctx, templateListKey, list)
	return list, nil
}

// Writes invalidate both the item and the list.
func (d *templateRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, t *model.UserTemplate) error {
	if err := d.inner.Save(ctx, tx, t); err != nil {
		return err
	}
	d.invalidate(ctx, t.ID)
	return nil
}

func (d *templateRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id int64) error {
	if err := d.inner.Delete(ctx, tx, id); err != nil {
		return err
	}
	d.invalidate(ctx, id)
	return nil
}

func (d *templateRepoCacheDecorator) invalidate(ctx context.Context, id int64) {
	if err := d.cache.Del(ctx, templateKey(id), templateListKey); err != nil && !errors.Is(err, redis.Nil) {
		metrics.IncCacheRequest("template", "invalidate_error")
	}
}
