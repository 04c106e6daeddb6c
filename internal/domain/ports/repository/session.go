package repository

import (
	"context"

	"proxy-admin-bot/internal/domain/model"
)

// SessionStore holds one wizard session per chat plus the chat's queue of
// message ids waiting to be deleted. Get returns (nil, nil) when the chat has
// no session. Implementations must be safe for concurrent use.
type SessionStore interface {
	Get(ctx context.Context, chatID int64) (*model.WizardSession, error)
	Save(ctx context.Context, s *model.WizardSession) error
	Delete(ctx context.Context, chatID int64) error

	EnqueueForDeletion(ctx context.Context, chatID int64, messageIDs ...int) error
	FlushDeletions(ctx context.Context, chatID int64) ([]int, error)
}

// Locker serializes bulk operations across processes.
type Locker interface {
	TryLock(ctx context.Context, key string) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// RateLimiter bounds operator actions per window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
