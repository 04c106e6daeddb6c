package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"proxy-admin-bot/internal/domain"
	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/adapter"
	"proxy-admin-bot/internal/domain/ports/repository"
	"proxy-admin-bot/internal/infra/logging"
)

// Compile-time check
var _ SystemUseCase = (*systemUC)(nil)

// SystemUseCase reports host/account statistics and controls the core.
type SystemUseCase interface {
	Stats(ctx context.Context) (*model.SystemStats, error)
	CountByStatus(ctx context.Context) (map[model.AccountStatus]int, error)
	RestartCore(ctx context.Context, withNodes bool, op Operator) error
}

type systemUC struct {
	accounts repository.AccountRepository
	usage    repository.UsageRepository
	host     adapter.SystemMetrics
	core     adapter.ProxyCore
	notifier adapter.Notifier
	log      *zerolog.Logger
}

func NewSystemUseCase(
	accounts repository.AccountRepository,
	usage repository.UsageRepository,
	host adapter.SystemMetrics,
	core adapter.ProxyCore,
	notifier adapter.Notifier,
	logger *zerolog.Logger,
) *systemUC {
	if notifier == nil {
		notifier = adapter.NopNotifier{}
	}
	return &systemUC{accounts: accounts, usage: usage, host: host, core: core, notifier: notifier, log: logger}
}

func (s *systemUC) Stats(ctx context.Context) (*model.SystemStats, error) {
	defer logging.TraceDuration(s.log, "SystemUC.Stats")()

	host, err := s.host.Snapshot(ctx)
	if err != nil {
		// host metrics are informative only
		s.log.Warn().Err(err).Msg("host snapshot failed")
	}
	usage, err := s.usage.SystemUsage(ctx, repository.NoTX)
	if err != nil {
		return nil, domain.NewUpstreamError("err.store_failed", err)
	}
	byStatus, err := s.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range byStatus {
		total += n
	}
	return &model.SystemStats{
		Host:              host,
		IncomingBandwidth: usage.Uplink,
		OutgoingBandwidth: usage.Downlink,
		TotalUsers:        total,
		UsersByStatus:     byStatus,
	}, nil
}

func (s *systemUC) CountByStatus(ctx context.Context) (map[model.AccountStatus]int, error) {
	byStatus, err := s.accounts.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return nil, domain.NewUpstreamError("err.store_failed", err)
	}
	for _, st := range model.AllStatuses {
		if _, ok := byStatus[st]; !ok {
			byStatus[st] = 0
		}
	}
	return byStatus, nil
}

func (s *systemUC) RestartCore(ctx context.Context, withNodes bool, op Operator) error {
	defer logging.TraceDuration(s.log, "SystemUC.RestartCore")()
	if err := s.core.Restart(ctx); err != nil {
		return domain.NewCoreError("err.core_restart_failed", err)
	}
	if withNodes {
		if err := s.core.RestartNodes(ctx); err != nil {
			return domain.NewCoreError("err.core_restart_failed", err)
		}
	}
	s.notifier.Notify(ctx, model.AuditEvent{
		Kind:       model.EventCoreRestarted,
		OperatorID: op.ID,
		Operator:   op.Name,
		At:         time.Now(),
	})
	return nil
}
