package usecase

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"proxy-admin-bot/internal/domain"
	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/adapter"
	"proxy-admin-bot/internal/domain/ports/repository"
	"proxy-admin-bot/internal/infra/logging"
)

var txOpts = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

const bulkLockKey = "bulk_operation"

// Compile-time check
var _ BulkUseCase = (*bulkUC)(nil)

// BulkResult summarizes a bulk operation.
type BulkResult struct {
	Affected []string
	Skipped  []string
	Failed   []string // core sync failures
	Report   *model.Attachment
}

// BulkUseCase applies one change to many accounts. Only one bulk operation
// runs at a time.
type BulkUseCase interface {
	DeleteByStatus(ctx context.Context, status model.AccountStatus, op Operator) (*BulkResult, error)
	AddData(ctx context.Context, delta int64, op Operator) (*BulkResult, error)
	AddDays(ctx context.Context, days int, op Operator) (*BulkResult, error)
	AddInbound(ctx context.Context, tag string, op Operator) (*BulkResult, error)
	RemoveInbound(ctx context.Context, tag string, op Operator) (*BulkResult, error)
}

type bulkUC struct {
	accounts  repository.AccountRepository
	locker    repository.Locker
	core      adapter.ProxyCore
	notifier  adapter.Notifier
	vlessFlow string
	log       *zerolog.Logger
	now       func() time.Time

	local sync.Mutex
}

// NewBulkUseCase constructs a bulkUC. locker may be nil, in which case only
// in-process exclusion applies.
func NewBulkUseCase(
	accounts repository.AccountRepository,
	locker repository.Locker,
	core adapter.ProxyCore,
	notifier adapter.Notifier,
	vlessFlow string,
	logger *zerolog.Logger,
) *bulkUC {
	if notifier == nil {
		notifier = adapter.NopNotifier{}
	}
	return &bulkUC{
		accounts:  accounts,
		locker:    locker,
		core:      core,
		notifier:  notifier,
		vlessFlow: vlessFlow,
		log:       logger,
		now:       time.Now,
	}
}

// exclusive runs fn while holding the bulk lock.
func (b *bulkUC) exclusive(ctx context.Context, fn func() (*BulkResult, error)) (*BulkResult, error) {
	if !b.local.TryLock() {
		return nil, domain.NewConflictError("err.bulk_in_progress").WithCause(domain.ErrBulkInProgress)
	}
	defer b.local.Unlock()
	if b.locker != nil {
		token, ok, err := b.locker.TryLock(ctx, bulkLockKey)
		if err != nil {
			return nil, domain.NewUpstreamError("err.lock_failed", err)
		}
		if !ok {
			return nil, domain.NewConflictError("err.bulk_in_progress").WithCause(domain.ErrBulkInProgress)
		}
		defer func() {
			if err := b.locker.Unlock(context.WithoutCancel(ctx), bulkLockKey, token); err != nil {
				b.log.Warn().Err(err).Msg("failed to release bulk lock")
			}
		}()
	}
	return fn()
}

func (b *bulkUC) notify(ctx context.Context, kind model.EventKind, op Operator, res *BulkResult, detail string) {
	b.notifier.Notify(ctx, model.AuditEvent{
		Kind:       kind,
		OperatorID: op.ID,
		Operator:   op.Name,
		After:      detail,
		Count:      len(res.Affected),
		Attachment: res.Report,
		At:         b.now(),
	})
}

// DeleteByStatus removes every expired or limited account and returns a TSV
// report of what was deleted.
func (b *bulkUC) DeleteByStatus(ctx context.Context, status model.AccountStatus, op Operator) (*BulkResult, error) {
	defer logging.TraceDuration(b.log, "BulkUC.DeleteByStatus")()
	if status != model.StatusExpired && status != model.StatusLimited {
		return nil, domain.NewValidationError("err.bulk_status_invalid", string(status))
	}
	return b.exclusive(ctx, func() (*BulkResult, error) {
		deleted, err := b.accounts.DeleteByStatus(ctx, repository.NoTX, status)
		if err != nil {
			return nil, domain.NewUpstreamError("err.store_failed", err)
		}
		res := &BulkResult{}
		for _, a := range deleted {
			res.Affected = append(res.Affected, a.Username)
			if err := b.core.RemoveUser(ctx, a); err != nil {
				b.log.Warn().Err(err).Str("username", a.Username).Msg("bulk delete: core removal failed")
				res.Failed = append(res.Failed, a.Username)
			}
		}
		res.Report = &model.Attachment{
			Name: fmt.Sprintf("deleted_%s_%s.tsv", status, ulid.Make()),
			Data: deletionReport(deleted),
		}
		b.notify(ctx, model.EventBulkDeleted, op, res, string(status))
		return res, nil
	})
}

func deletionReport(list []*model.Account) []byte {
	var buf bytes.Buffer
	buf.WriteString("username\tstatus\tused\tdata_limit\texpire\tnote\n")
	for _, a := range list {
		fmt.Fprintf(&buf, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.Username, a.Status,
			model.ReadableSize(a.UsedTraffic),
			model.DataLimitText(a.DataLimit),
			model.ExpiryText(a.Expire),
			strings.ReplaceAll(a.Note, "\t", " "),
		)
	}
	return buf.Bytes()
}

// AddData shifts by delta bytes the data limit of every account that has one
// and is neither limited nor expired.
func (b *bulkUC) AddData(ctx context.Context, delta int64, op Operator) (*BulkResult, error) {
	defer logging.TraceDuration(b.log, "BulkUC.AddData")()
	if delta == 0 {
		return nil, domain.NewValidationError("err.bulk_value_invalid")
	}
	return b.exclusive(ctx, func() (*BulkResult, error) {
		names, err := b.accounts.AddDataLimit(ctx, repository.NoTX, delta)
		if err != nil {
			return nil, domain.NewUpstreamError("err.store_failed", err)
		}
		res := &BulkResult{Affected: names}
		sign := "+"
		if delta < 0 {
			sign, delta = "-", -delta
		}
		b.notify(ctx, model.EventBulkDataChanged, op, res, sign+model.ReadableSize(delta))
		return res, nil
	})
}

// AddDays shifts by days the expiry of every account that has one and is
// neither limited nor expired.
func (b *bulkUC) AddDays(ctx context.Context, days int, op Operator) (*BulkResult, error) {
	defer logging.TraceDuration(b.log, "BulkUC.AddDays")()
	if days == 0 {
		return nil, domain.NewValidationError("err.bulk_value_invalid")
	}
	return b.exclusive(ctx, func() (*BulkResult, error) {
		names, err := b.accounts.AddExpireTime(ctx, repository.NoTX, time.Duration(days)*day)
		if err != nil {
			return nil, domain.NewUpstreamError("err.store_failed", err)
		}
		res := &BulkResult{Affected: names}
		b.notify(ctx, model.EventBulkTimeChanged, op, res, fmt.Sprintf("%+d days", days))
		return res, nil
	})
}

func (b *bulkUC) AddInbound(ctx context.Context, tag string, op Operator) (*BulkResult, error) {
	defer logging.TraceDuration(b.log, "BulkUC.AddInbound")()
	return b.changeInbound(ctx, tag, true, op)
}

func (b *bulkUC) RemoveInbound(ctx context.Context, tag string, op Operator) (*BulkResult, error) {
	defer logging.TraceDuration(b.log, "BulkUC.RemoveInbound")()
	return b.changeInbound(ctx, tag, false, op)
}

// changeInbound adds tag to every account, creating the protocol's
// credentials where missing, or removes it from every account holding the
// tag's protocol. Accounts whose last inbound would be removed are skipped.
func (b *bulkUC) changeInbound(ctx context.Context, tag string, add bool, op Operator) (*BulkResult, error) {
	info, ok := b.core.InboundsByTag()[tag]
	if !ok {
		return nil, domain.NewValidationError("err.inbound_unknown", tag)
	}
	return b.exclusive(ctx, func() (*BulkResult, error) {
		var (
			list []*model.Account
			err  error
		)
		if add {
			list, err = b.accounts.List(ctx, repository.NoTX, model.AccountFilter{})
		} else {
			list, err = b.accounts.ListByProtocol(ctx, repository.NoTX, info.Protocol)
		}
		if err != nil {
			return nil, domain.NewUpstreamError("err.store_failed", err)
		}
		res := &BulkResult{}
		for _, a := range list {
			if a.Inbounds == nil {
				a.Inbounds = model.Inbounds{}
			}
			if a.Inbounds.Has(info.Protocol, tag) == add {
				continue
			}
			next := a.Inbounds.Clone()
			next.ToggleInbound(info.Protocol, tag)
			if next.IsEmpty() {
				res.Skipped = append(res.Skipped, a.Username)
				continue
			}
			a.Inbounds = next
			a.Proxies = reconcileProxies(a.Proxies, next, b.vlessFlow)
			if err := b.accounts.Update(ctx, repository.NoTX, a); err != nil {
				b.log.Error().Err(err).Str("username", a.Username).Msg("bulk inbound: update failed")
				res.Failed = append(res.Failed, a.Username)
				continue
			}
			res.Affected = append(res.Affected, a.Username)
			if a.Status == model.StatusActive {
				if err := b.core.UpdateUser(ctx, a); err != nil {
					b.log.Warn().Err(err).Str("username", a.Username).Msg("bulk inbound: core sync failed")
					res.Failed = append(res.Failed, a.Username)
				}
			}
		}
		action := "removed"
		if add {
			action = "added"
		}
		b.notify(ctx, model.EventBulkInboundChanged, op, res, action+" "+tag)
		return res, nil
	})
}
