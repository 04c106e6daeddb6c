package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"proxy-admin-bot/internal/domain"
	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/adapter"
	"proxy-admin-bot/internal/domain/ports/repository"
	"proxy-admin-bot/internal/infra/logging"
)

// Compile-time check
var _ AccountUseCase = (*accountUC)(nil)

// AccountUseCase exposes single-account admin actions.
type AccountUseCase interface {
	Get(ctx context.Context, username string) (*model.Account, error)
	List(ctx context.Context, page int) ([]*model.Account, int, error)
	Search(ctx context.Context, usernames []string) ([]*model.Account, []string, error)

	Delete(ctx context.Context, username string, op Operator) error
	Suspend(ctx context.Context, username string, op Operator) (*model.Account, error)
	Activate(ctx context.Context, username string, op Operator) (*model.Account, error)
	ResetUsage(ctx context.Context, username string, op Operator) (*model.Account, error)
	RevokeSubscription(ctx context.Context, username string, op Operator) (*model.Account, error)

	// NeedsChargeChoice reports whether charging can either add to or reset
	// the account; depleted or inactive accounts are always reset.
	NeedsChargeChoice(ctx context.Context, username string) (bool, error)
	Charge(ctx context.Context, username string, templateID int64, add bool, op Operator) (*model.Account, error)

	Templates(ctx context.Context) ([]*model.UserTemplate, error)
	Template(ctx context.Context, id int64) (*model.UserTemplate, error)
}

type accountUC struct {
	accounts  repository.AccountRepository
	templates repository.TemplateRepository
	tm        repository.TransactionManager
	core      adapter.ProxyCore
	notifier  adapter.Notifier
	vlessFlow string
	pageSize  int
	log       *zerolog.Logger
	now       func() time.Time
}

func NewAccountUseCase(
	accounts repository.AccountRepository,
	templates repository.TemplateRepository,
	tm repository.TransactionManager,
	core adapter.ProxyCore,
	notifier adapter.Notifier,
	vlessFlow string,
	pageSize int,
	logger *zerolog.Logger,
) *accountUC {
	if notifier == nil {
		notifier = adapter.NopNotifier{}
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	return &accountUC{
		accounts:  accounts,
		templates: templates,
		tm:        tm,
		core:      core,
		notifier:  notifier,
		vlessFlow: vlessFlow,
		pageSize:  pageSize,
		log:       logger,
		now:       time.Now,
	}
}

func (u *accountUC) Get(ctx context.Context, username string) (*model.Account, error) {
	defer logging.TraceDuration(u.log, "AccountUC.Get")()
	acc, err := u.accounts.FindByUsername(ctx, repository.NoTX, username)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && acc == nil) {
		return nil, domain.NewNotFoundError("err.user_not_found", username)
	}
	if err != nil {
		return nil, domain.NewUpstreamError("err.store_failed", err)
	}
	return acc, nil
}

// List returns page (1-based) of accounts, newest first, and the page count.
func (u *accountUC) List(ctx context.Context, page int) ([]*model.Account, int, error) {
	defer logging.TraceDuration(u.log, "AccountUC.List")()
	if page < 1 {
		page = 1
	}
	total, err := u.accounts.Count(ctx, repository.NoTX, nil)
	if err != nil {
		return nil, 0, domain.NewUpstreamError("err.store_failed", err)
	}
	pages := (total + u.pageSize - 1) / u.pageSize
	if pages == 0 {
		pages = 1
	}
	if page > pages {
		page = pages
	}
	list, err := u.accounts.List(ctx, repository.NoTX, model.AccountFilter{
		Offset: (page - 1) * u.pageSize,
		Limit:  u.pageSize,
	})
	if err != nil {
		return nil, 0, domain.NewUpstreamError("err.store_failed", err)
	}
	return list, pages, nil
}

// Search looks up accounts by exact username and reports names not found.
func (u *accountUC) Search(ctx context.Context, usernames []string) ([]*model.Account, []string, error) {
	defer logging.TraceDuration(u.log, "AccountUC.Search")()
	list, err := u.accounts.List(ctx, repository.NoTX, model.AccountFilter{Usernames: usernames})
	if err != nil {
		return nil, nil, domain.NewUpstreamError("err.store_failed", err)
	}
	found := make(map[string]struct{}, len(list))
	for _, a := range list {
		found[a.Username] = struct{}{}
	}
	var missing []string
	for _, n := range usernames {
		if _, ok := found[n]; !ok {
			missing = append(missing, n)
		}
	}
	return list, missing, nil
}

func (u *accountUC) notify(ctx context.Context, kind model.EventKind, a *model.Account, op Operator, before, after string) {
	u.notifier.Notify(ctx, model.AuditEvent{
		Kind:       kind,
		Username:   a.Username,
		OperatorID: op.ID,
		Operator:   op.Name,
		Before:     before,
		After:      after,
		At:         u.now(),
	})
}

// coreFailure wraps a core error after a successful store write.
func (u *accountUC) coreFailure(a *model.Account, err error) error {
	u.log.Error().Err(err).Str("username", a.Username).Msg("store updated but core sync failed")
	return domain.NewCoreError("err.core_sync_failed", err, a.Username)
}

func (u *accountUC) Delete(ctx context.Context, username string, op Operator) error {
	defer logging.TraceDuration(u.log, "AccountUC.Delete")()
	acc, err := u.Get(ctx, username)
	if err != nil {
		return err
	}
	if err := u.accounts.Delete(ctx, repository.NoTX, username); err != nil {
		return domain.NewUpstreamError("err.store_failed", err)
	}
	u.notify(ctx, model.EventAccountDeleted, acc, op, "", "")
	if err := u.core.RemoveUser(ctx, acc); err != nil {
		return u.coreFailure(acc, err)
	}
	return nil
}

func (u *accountUC) setStatus(ctx context.Context, username string, st model.AccountStatus) (*model.Account, model.AccountStatus, error) {
	acc, err := u.Get(ctx, username)
	if err != nil {
		return nil, "", err
	}
	prev := acc.Status
	acc.Status = st
	if err := u.accounts.Update(ctx, repository.NoTX, acc); err != nil {
		return nil, "", domain.NewUpstreamError("err.store_failed", err)
	}
	return acc, prev, nil
}

func (u *accountUC) Suspend(ctx context.Context, username string, op Operator) (*model.Account, error) {
	defer logging.TraceDuration(u.log, "AccountUC.Suspend")()
	acc, prev, err := u.setStatus(ctx, username, model.StatusDisabled)
	if err != nil {
		return nil, err
	}
	u.notify(ctx, model.EventAccountSuspended, acc, op, string(prev), string(acc.Status))
	if err := u.core.RemoveUser(ctx, acc); err != nil {
		return acc, u.coreFailure(acc, err)
	}
	return acc, nil
}

func (u *accountUC) Activate(ctx context.Context, username string, op Operator) (*model.Account, error) {
	defer logging.TraceDuration(u.log, "AccountUC.Activate")()
	acc, prev, err := u.setStatus(ctx, username, model.StatusActive)
	if err != nil {
		return nil, err
	}
	u.notify(ctx, model.EventAccountActivated, acc, op, string(prev), string(acc.Status))
	if err := u.core.AddUser(ctx, acc); err != nil {
		return acc, u.coreFailure(acc, err)
	}
	return acc, nil
}

// ResetUsage zeroes used traffic; a limited account becomes active again.
func (u *accountUC) ResetUsage(ctx context.Context, username string, op Operator) (*model.Account, error) {
	defer logging.TraceDuration(u.log, "AccountUC.ResetUsage")()
	var acc *model.Account
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		a, err := u.accounts.FindByUsername(ctx, tx, username)
		if err != nil {
			return err
		}
		if err := u.accounts.ResetUsage(ctx, tx, username); err != nil {
			return err
		}
		a.UsedTraffic = 0
		if a.Status == model.StatusLimited {
			a.Status = model.StatusActive
			if err := u.accounts.Update(ctx, tx, a); err != nil {
				return err
			}
		}
		acc = a
		return nil
	})
	if err != nil {
		return nil, storeError(err, username)
	}
	u.notify(ctx, model.EventUsageReset, acc, op, "", "")
	if acc.Status == model.StatusActive {
		if err := u.core.UpdateUser(ctx, acc); err != nil {
			return acc, u.coreFailure(acc, err)
		}
	}
	return acc, nil
}

// RevokeSubscription invalidates the subscription link and rotates every
// proxy credential.
func (u *accountUC) RevokeSubscription(ctx context.Context, username string, op Operator) (*model.Account, error) {
	defer logging.TraceDuration(u.log, "AccountUC.RevokeSubscription")()
	var acc *model.Account
	at := u.now()
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		a, err := u.accounts.FindByUsername(ctx, tx, username)
		if err != nil {
			return err
		}
		if err := u.accounts.RevokeSubscription(ctx, tx, username, at); err != nil {
			return err
		}
		a.SubRevokedAt = &at
		a.Proxies = reconcileProxies(nil, a.Inbounds, u.vlessFlow)
		if err := u.accounts.Update(ctx, tx, a); err != nil {
			return err
		}
		acc = a
		return nil
	})
	if err != nil {
		return nil, storeError(err, username)
	}
	u.notify(ctx, model.EventSubRevoked, acc, op, "", "")
	if err := syncCore(ctx, u.core, acc); err != nil {
		return acc, u.coreFailure(acc, err)
	}
	return acc, nil
}

func (u *accountUC) NeedsChargeChoice(ctx context.Context, username string) (bool, error) {
	acc, err := u.Get(ctx, username)
	if err != nil {
		return false, err
	}
	return acc.Status == model.StatusActive && !acc.Depleted(u.now()), nil
}

// Charge applies template to the account. add keeps remaining data and time
// and stacks the template on top; otherwise the account is reset to the
// template. Depleted or inactive accounts are always reset.
func (u *accountUC) Charge(ctx context.Context, username string, templateID int64, add bool, op Operator) (*model.Account, error) {
	defer logging.TraceDuration(u.log, "AccountUC.Charge")()
	tpl, err := u.Template(ctx, templateID)
	if err != nil {
		return nil, err
	}
	now := u.now()
	var acc *model.Account
	var before string
	err = u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		a, err := u.accounts.FindByUsername(ctx, tx, username)
		if err != nil {
			return err
		}
		before = summary(a)
		if add && (a.Status != model.StatusActive || a.Depleted(now)) {
			add = false
		}
		applyCharge(a, tpl, add, now, u.vlessFlow)
		if err := u.accounts.ResetUsage(ctx, tx, username); err != nil {
			return err
		}
		if err := u.accounts.Update(ctx, tx, a); err != nil {
			return err
		}
		acc = a
		return nil
	})
	if err != nil {
		return nil, storeError(err, username)
	}
	u.notify(ctx, model.EventAccountCharged, acc, op, before, tpl.Name+": "+summary(acc))
	if err := u.core.UpdateUser(ctx, acc); err != nil {
		return acc, u.coreFailure(acc, err)
	}
	return acc, nil
}

func applyCharge(a *model.Account, tpl *model.UserTemplate, add bool, now time.Time, vlessFlow string) {
	if add {
		switch {
		case a.Unlimited() || tpl.DataLimit <= 0:
			a.DataLimit = 0
		default:
			a.DataLimit = a.RemainingTraffic() + tpl.DataLimit
		}
		switch {
		case tpl.ExpireDuration <= 0:
			a.Expire = nil
		case a.Expire != nil && a.Expire.After(now):
			e := a.Expire.Add(time.Duration(tpl.ExpireDuration) * time.Second)
			a.Expire = &e
		default:
			a.Expire = tpl.ExpireFrom(now)
		}
	} else {
		a.DataLimit = tpl.DataLimit
		a.Expire = tpl.ExpireFrom(now)
	}
	a.UsedTraffic = 0
	a.Status = model.StatusActive
	a.OnHoldExpireDuration = 0
	a.OnHoldTimeout = nil
	a.Inbounds = tpl.Inbounds.Clone()
	a.Proxies = reconcileProxies(a.Proxies, a.Inbounds, vlessFlow)
}

func (u *accountUC) Templates(ctx context.Context) ([]*model.UserTemplate, error) {
	defer logging.TraceDuration(u.log, "AccountUC.Templates")()
	list, err := u.templates.ListAll(ctx, repository.NoTX)
	if err != nil {
		return nil, domain.NewUpstreamError("err.store_failed", err)
	}
	return list, nil
}

func (u *accountUC) Template(ctx context.Context, id int64) (*model.UserTemplate, error) {
	tpl, err := u.templates.FindByID(ctx, repository.NoTX, id)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && tpl.IsZero()) {
		return nil, domain.NewNotFoundError("err.template_not_found")
	}
	if err != nil {
		return nil, domain.NewUpstreamError("err.store_failed", err)
	}
	return tpl, nil
}

func storeError(err error, username string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewNotFoundError("err.user_not_found", username)
	}
	return domain.NewUpstreamError("err.store_failed", err)
}
