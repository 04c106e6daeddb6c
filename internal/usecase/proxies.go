package usecase

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"

	"proxy-admin-bot/internal/domain/model"
)

const defaultShadowsocksMethod = "chacha20-ietf-poly1305"

// newProxySettings generates fresh credentials for protocol p.
func newProxySettings(p model.ProxyType, vlessFlow string) model.ProxySettings {
	switch p {
	case model.ProxyVMess:
		return model.ProxySettings{ID: uuid.NewString()}
	case model.ProxyVLESS:
		return model.ProxySettings{ID: uuid.NewString(), Flow: vlessFlow}
	case model.ProxyTrojan:
		return model.ProxySettings{Password: randomSecret()}
	case model.ProxyShadowsocks:
		return model.ProxySettings{Password: randomSecret(), Method: defaultShadowsocksMethod}
	}
	return model.ProxySettings{}
}

func randomSecret() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// reconcileProxies keeps credentials of protocols still selected, generates
// credentials for newly selected ones and drops the rest.
func reconcileProxies(current map[model.ProxyType]model.ProxySettings, selected model.Inbounds, vlessFlow string) map[model.ProxyType]model.ProxySettings {
	out := make(map[model.ProxyType]model.ProxySettings, len(selected))
	for p := range selected {
		if s, ok := current[p]; ok {
			out[p] = s
			continue
		}
		out[p] = newProxySettings(p, vlessFlow)
	}
	return out
}
