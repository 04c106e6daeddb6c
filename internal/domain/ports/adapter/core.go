package adapter

import (
	"context"

	"proxy-admin-bot/internal/domain/model"
)

// ProxyCore controls the live proxy configuration.
type ProxyCore interface {
	AddUser(ctx context.Context, a *model.Account) error
	UpdateUser(ctx context.Context, a *model.Account) error
	RemoveUser(ctx context.Context, a *model.Account) error
	Restart(ctx context.Context) error
	RestartNodes(ctx context.Context) error

	// InboundsByProtocol lists enabled inbounds per protocol.
	InboundsByProtocol() map[model.ProxyType][]model.InboundInfo
	InboundsByTag() map[string]model.InboundInfo
}

// ProtocolTags returns the enabled tags of p in config order.
func ProtocolTags(c ProxyCore, p model.ProxyType) []string {
	infos := c.InboundsByProtocol()[p]
	out := make([]string, 0, len(infos))
	for _, in := range infos {
		out = append(out, in.Tag)
	}
	return out
}
