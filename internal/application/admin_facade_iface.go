package application

import (
	"proxy-admin-bot/internal/domain/model"
)

// Translator renders i18n keys.
type Translator interface {
	T(key string, args ...any) string
}

// InboundCatalog is the read side of the proxy core used to draw the
// protocol board.
type InboundCatalog interface {
	InboundsByProtocol() map[model.ProxyType][]model.InboundInfo
	InboundsByTag() map[string]model.InboundInfo
}
