// Package xray talks to the proxy core: it reads the served inbounds from
// the Xray JSON config and drives user changes through the core's control
// API.
package xray

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"proxy-admin-bot/internal/domain/model"
)

// apiInboundTag is the core's own gRPC API inbound; it never carries users.
const apiInboundTag = "API_INBOUND"

// ParseInbounds extracts the user-facing inbounds from an Xray config in
// file order. Inbounds without a tag or with an unsupported protocol are
// skipped.
func ParseInbounds(raw []byte) ([]model.InboundInfo, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("xray config: invalid json")
	}
	root := gjson.ParseBytes(raw)
	list := root.Get("inbounds")
	if !list.IsArray() {
		return nil, fmt.Errorf("xray config: missing inbounds array")
	}

	var out []model.InboundInfo
	seen := make(map[string]bool)
	for _, in := range list.Array() {
		tag := in.Get("tag").String()
		proto := model.ProxyType(in.Get("protocol").String())
		if tag == "" || tag == apiInboundTag || !proto.Valid() {
			continue
		}
		if seen[tag] {
			return nil, fmt.Errorf("xray config: duplicate inbound tag %q", tag)
		}
		seen[tag] = true

		stream := in.Get("streamSettings")
		info := model.InboundInfo{
			Tag:      tag,
			Protocol: proto,
			Port:     int(in.Get("port").Int()),
			Network:  stream.Get("network").String(),
			Security: stream.Get("security").String(),
		}
		if info.Network == "" {
			info.Network = "tcp"
		}
		if info.Security == "" {
			info.Security = "none"
		}
		switch info.Network {
		case "ws":
			info.Path = stream.Get("wsSettings.path").String()
			info.Host = stream.Get("wsSettings.headers.Host").String()
		case "grpc":
			info.Path = stream.Get("grpcSettings.serviceName").String()
		case "httpupgrade":
			info.Path = stream.Get("httpupgradeSettings.path").String()
			info.Host = stream.Get("httpupgradeSettings.host").String()
		}
		switch info.Security {
		case "tls":
			info.SNI = stream.Get("tlsSettings.serverName").String()
		case "reality":
			info.SNI = stream.Get("realitySettings.serverNames.0").String()
		}
		if proto == model.ProxyShadowsocks {
			info.Method = in.Get("settings.method").String()
		}
		out = append(out, info)
	}
	return out, nil
}

// LoadInbounds reads and parses the config at path.
func LoadInbounds(path string) ([]model.InboundInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read xray config: %w", err)
	}
	return ParseInbounds(raw)
}

// inboundIndex is the read-only view the bot works against.
type inboundIndex struct {
	byProtocol map[model.ProxyType][]model.InboundInfo
	byTag      map[string]model.InboundInfo
}

func newInboundIndex(list []model.InboundInfo) inboundIndex {
	idx := inboundIndex{
		byProtocol: make(map[model.ProxyType][]model.InboundInfo),
		byTag:      make(map[string]model.InboundInfo, len(list)),
	}
	for _, in := range list {
		idx.byProtocol[in.Protocol] = append(idx.byProtocol[in.Protocol], in)
		idx.byTag[in.Tag] = in
	}
	return idx
}
