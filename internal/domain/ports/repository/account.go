package repository

import (
	"context"
	"time"

	"proxy-admin-bot/internal/domain/model"
)

// AccountRepository persists proxy accounts. Create returns
// domain.ErrAlreadyExists when the username is taken.
type AccountRepository interface {
	Create(ctx context.Context, tx Tx, a *model.Account) error
	FindByUsername(ctx context.Context, tx Tx, username string) (*model.Account, error)
	Update(ctx context.Context, tx Tx, a *model.Account) error
	Delete(ctx context.Context, tx Tx, username string) error
	ResetUsage(ctx context.Context, tx Tx, username string) error
	RevokeSubscription(ctx context.Context, tx Tx, username string, at time.Time) error
	List(ctx context.Context, tx Tx, f model.AccountFilter) ([]*model.Account, error)
	Count(ctx context.Context, tx Tx, status *model.AccountStatus) (int, error)
	CountByStatus(ctx context.Context, tx Tx) (map[model.AccountStatus]int, error)
	Exists(ctx context.Context, tx Tx, username string) (bool, error)

	// Bulk helpers; each returns the affected usernames.
	DeleteByStatus(ctx context.Context, tx Tx, status model.AccountStatus) ([]*model.Account, error)
	AddDataLimit(ctx context.Context, tx Tx, delta int64) ([]string, error)
	AddExpireTime(ctx context.Context, tx Tx, delta time.Duration) ([]string, error)
	ListByProtocol(ctx context.Context, tx Tx, p model.ProxyType) ([]*model.Account, error)
}
