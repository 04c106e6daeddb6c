package adapter

import (
	"context"

	"proxy-admin-bot/internal/domain/model"
)

// Notifier is a best-effort side channel. Notify never blocks the caller
// on delivery and never reports failure; implementations log and count
// what they drop.
type Notifier interface {
	Notify(ctx context.Context, ev model.AuditEvent)
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, model.AuditEvent) {}
