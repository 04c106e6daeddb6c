package sched

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/adapter"
	"proxy-admin-bot/internal/infra/metrics"
)

// StatusCounter is the slice of the system use case the worker samples.
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[model.AccountStatus]int, error)
}

// StatsWorker refreshes the account, host and pool gauges.
type StatsWorker struct {
	interval time.Duration
	counter  StatusCounter
	host     adapter.SystemMetrics
	pool     *pgxpool.Pool
	log      *zerolog.Logger
}

// NewStatsWorker builds the worker. host and pool are optional.
func NewStatsWorker(interval time.Duration, counter StatusCounter, host adapter.SystemMetrics, pool *pgxpool.Pool, logger *zerolog.Logger) *StatsWorker {
	compLog := logger.With().Str("component", "StatsWorker").Logger()
	if interval <= 0 {
		interval = time.Minute
	}
	return &StatsWorker{
		interval: interval,
		counter:  counter,
		host:     host,
		pool:     pool,
		log:      &compLog,
	}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting stats worker")
	w.Sample(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping stats worker")
			return ctx.Err()
		case <-ticker.C:
			w.Sample(ctx)
		}
	}
}

// Sample runs one refresh. Each source fails independently.
func (w *StatsWorker) Sample(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()

	counts, err := w.counter.CountByStatus(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("count accounts failed")
	} else {
		metrics.SetAccountsTotal(counts)
	}

	if w.host != nil {
		hs, err := w.host.Snapshot(ctx)
		if err != nil {
			w.log.Warn().Err(err).Msg("host snapshot failed")
		} else {
			metrics.SetHostStats(hs)
		}
	}

	if w.pool != nil {
		metrics.ObservePool(w.pool.Stat())
	}
}
