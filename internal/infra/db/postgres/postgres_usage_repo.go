package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/repository"
)

var _ repository.UsageRepository = (*usageRepo)(nil)

type usageRepo struct {
	pool *pgxpool.Pool
}

func NewUsageRepo(pool *pgxpool.Pool) *usageRepo {
	return &usageRepo{pool: pool}
}

func (r *usageRepo) SystemUsage(ctx context.Context, tx repository.Tx) (model.Usage, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT uplink, downlink FROM system_usage WHERE id = 1;`)
	if err != nil {
		return model.Usage{}, err
	}
	var up, down int64
	if err := row.Scan(&up, &down); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Usage{}, nil
		}
		return model.Usage{}, fmt.Errorf("system usage: %w", err)
	}
	return model.Usage{Uplink: uint64(up), Downlink: uint64(down)}, nil
}
