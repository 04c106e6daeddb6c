package adapter

import (
	"context"

	"proxy-admin-bot/internal/domain/model"
)

// SystemMetrics samples host CPU, memory and network counters.
type SystemMetrics interface {
	Snapshot(ctx context.Context) (model.HostStats, error)
}

// QREncoder renders text into a PNG QR code.
type QREncoder interface {
	Encode(content string, size int) ([]byte, error)
}

// SubscriptionTokens issues subscription URLs that change when revoked.
type SubscriptionTokens interface {
	URL(a *model.Account) (string, error)
	Parse(token string) (username string, err error)
}
