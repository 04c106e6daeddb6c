package repository

import (
	"context"

	"proxy-admin-bot/internal/domain/model"
)

// UsageRepository reads core-wide traffic counters.
type UsageRepository interface {
	SystemUsage(ctx context.Context, tx Tx) (model.Usage, error)
}
