package model

import (
	"sort"
	"strings"
	"time"

	"proxy-admin-bot/internal/domain"
)

// AccountStatus is the lifecycle state of a proxy account.
type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusDisabled AccountStatus = "disabled"
	StatusLimited  AccountStatus = "limited"
	StatusExpired  AccountStatus = "expired"
	StatusOnHold   AccountStatus = "on_hold"
)

// AllStatuses lists statuses in display order.
var AllStatuses = []AccountStatus{StatusActive, StatusOnHold, StatusDisabled, StatusLimited, StatusExpired}

func (s AccountStatus) Valid() bool {
	switch s {
	case StatusActive, StatusDisabled, StatusLimited, StatusExpired, StatusOnHold:
		return true
	}
	return false
}

// IsLive reports whether an account in this status should be present on the core.
func (s AccountStatus) IsLive() bool { return s == StatusActive || s == StatusOnHold }

// ProxyType is a proxy protocol served by the core.
type ProxyType string

const (
	ProxyVMess       ProxyType = "vmess"
	ProxyVLESS       ProxyType = "vless"
	ProxyTrojan      ProxyType = "trojan"
	ProxyShadowsocks ProxyType = "shadowsocks"
)

var AllProxyTypes = []ProxyType{ProxyVMess, ProxyVLESS, ProxyTrojan, ProxyShadowsocks}

func (p ProxyType) Valid() bool {
	for _, v := range AllProxyTypes {
		if v == p {
			return true
		}
	}
	return false
}

// ProxySettings holds the per-protocol credentials of an account.
type ProxySettings struct {
	ID       string `json:"id,omitempty"`
	Flow     string `json:"flow,omitempty"`
	Password string `json:"password,omitempty"`
	Method   string `json:"method,omitempty"`
}

// Account is a proxy-service identity.
type Account struct {
	ID                   int64
	Username             string
	Status               AccountStatus
	DataLimit            int64 // bytes, 0 = unlimited
	UsedTraffic          int64
	LifetimeUsedTraffic  int64
	Expire               *time.Time // nil = never
	OnHoldExpireDuration int64      // seconds
	OnHoldTimeout        *time.Time
	Note                 string
	Proxies              map[ProxyType]ProxySettings
	Inbounds             Inbounds
	SubRevokedAt         *time.Time
	SubUpdatedAt         *time.Time
	OnlineAt             *time.Time
	CreatedAt            time.Time
}

// NewAccount validates and constructs an account ready for insertion.
func NewAccount(username string, status AccountStatus, proxies map[ProxyType]ProxySettings, inbounds Inbounds) (*Account, error) {
	if username == "" || !status.Valid() || len(proxies) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Account{
		Username:  username,
		Status:    status,
		Proxies:   proxies,
		Inbounds:  inbounds.Clone(),
		CreatedAt: time.Now(),
	}, nil
}

// Unlimited reports whether the account has no data cap.
func (a *Account) Unlimited() bool { return a.DataLimit <= 0 }

// RemainingTraffic returns bytes left, or -1 when unlimited.
func (a *Account) RemainingTraffic() int64 {
	if a.Unlimited() {
		return -1
	}
	if r := a.DataLimit - a.UsedTraffic; r > 0 {
		return r
	}
	return 0
}

// Depleted reports whether the account ran out of data or time at now.
func (a *Account) Depleted(now time.Time) bool {
	if !a.Unlimited() && a.UsedTraffic >= a.DataLimit {
		return true
	}
	return a.Expire != nil && !a.Expire.After(now)
}

// Protocols returns the account's protocols in a stable order.
func (a *Account) Protocols() []ProxyType {
	out := make([]ProxyType, 0, len(a.Proxies))
	for p := range a.Proxies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AccountFilter narrows ListAccounts.
type AccountFilter struct {
	Usernames []string
	Statuses  []AccountStatus
	Offset    int
	Limit     int
}

// NormalizeUsername trims surrounding whitespace. Usernames are case sensitive.
func NormalizeUsername(s string) string { return strings.TrimSpace(s) }
