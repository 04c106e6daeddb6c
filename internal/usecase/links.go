package usecase

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"proxy-admin-bot/internal/domain/model"
)

// ShareLink is one client import link of an account.
type ShareLink struct {
	Tag      string
	Protocol model.ProxyType
	URL      string
}

func remark(username, tag string) string {
	return url.PathEscape(fmt.Sprintf("%s (%s)", username, tag))
}

func streamQuery(in model.InboundInfo) url.Values {
	q := url.Values{}
	q.Set("type", in.Network)
	q.Set("security", in.Security)
	if in.Path != "" {
		if in.Network == "grpc" {
			q.Set("serviceName", in.Path)
		} else {
			q.Set("path", in.Path)
		}
	}
	if in.Host != "" {
		q.Set("host", in.Host)
	}
	if in.SNI != "" {
		q.Set("sni", in.SNI)
	}
	return q
}

func vmessLink(host, username string, in model.InboundInfo, s model.ProxySettings) (string, error) {
	tls := ""
	if in.Security == "tls" {
		tls = "tls"
	}
	b, err := json.Marshal(map[string]string{
		"v":    "2",
		"ps":   fmt.Sprintf("%s (%s)", username, in.Tag),
		"add":  host,
		"port": strconv.Itoa(in.Port),
		"id":   s.ID,
		"aid":  "0",
		"net":  in.Network,
		"type": "none",
		"host": in.Host,
		"path": in.Path,
		"tls":  tls,
		"sni":  in.SNI,
	})
	if err != nil {
		return "", err
	}
	return "vmess://" + base64.StdEncoding.EncodeToString(b), nil
}

// buildLink renders the import link of one inbound for host.
func buildLink(host, username string, in model.InboundInfo, s model.ProxySettings) (string, error) {
	addr := fmt.Sprintf("%s:%d", host, in.Port)
	switch in.Protocol {
	case model.ProxyVMess:
		return vmessLink(host, username, in, s)
	case model.ProxyVLESS:
		q := streamQuery(in)
		q.Set("encryption", "none")
		if s.Flow != "" && in.Network == "tcp" && in.Security != "none" {
			q.Set("flow", s.Flow)
		}
		return fmt.Sprintf("vless://%s@%s?%s#%s", s.ID, addr, q.Encode(), remark(username, in.Tag)), nil
	case model.ProxyTrojan:
		q := streamQuery(in)
		return fmt.Sprintf("trojan://%s@%s?%s#%s", url.PathEscape(s.Password), addr, q.Encode(), remark(username, in.Tag)), nil
	case model.ProxyShadowsocks:
		method := in.Method
		if method == "" {
			method = s.Method
		}
		user := base64.RawURLEncoding.EncodeToString([]byte(method + ":" + s.Password))
		return fmt.Sprintf("ss://%s@%s#%s", user, addr, remark(username, in.Tag)), nil
	}
	return "", fmt.Errorf("unsupported protocol %q", in.Protocol)
}

// shareLinks lists links for every selected inbound the core still serves,
// in protocol then config order.
func shareLinks(host string, a *model.Account, byProtocol map[model.ProxyType][]model.InboundInfo) ([]ShareLink, error) {
	var out []ShareLink
	for _, p := range a.Protocols() {
		settings := a.Proxies[p]
		for _, in := range byProtocol[p] {
			if !a.Inbounds.Has(p, in.Tag) {
				continue
			}
			link, err := buildLink(host, a.Username, in, settings)
			if err != nil {
				return nil, err
			}
			out = append(out, ShareLink{Tag: in.Tag, Protocol: p, URL: link})
		}
	}
	return out, nil
}
