package model

import (
	"sort"
)

// InboundInfo describes one inbound served by the core.
type InboundInfo struct {
	Tag      string
	Protocol ProxyType
	Port     int
	Network  string
	Security string
	Path     string
	Host     string
	SNI      string
	Method   string // shadowsocks cipher
}

// Inbounds maps a protocol to its ordered set of inbound tags. A protocol
// key is never present with an empty tag list.
type Inbounds map[ProxyType][]string

// Clone returns a deep copy.
func (in Inbounds) Clone() Inbounds {
	if in == nil {
		return Inbounds{}
	}
	out := make(Inbounds, len(in))
	for p, tags := range in {
		if len(tags) == 0 {
			continue
		}
		out[p] = append([]string(nil), tags...)
	}
	return out
}

func (in Inbounds) IsEmpty() bool { return len(in) == 0 }

func (in Inbounds) Has(p ProxyType, tag string) bool {
	for _, t := range in[p] {
		if t == tag {
			return true
		}
	}
	return false
}

// ToggleInbound adds tag to p when absent and removes it otherwise. An
// emptied protocol is removed.
func (in Inbounds) ToggleInbound(p ProxyType, tag string) {
	tags := in[p]
	for i, t := range tags {
		if t == tag {
			tags = append(tags[:i:i], tags[i+1:]...)
			if len(tags) == 0 {
				delete(in, p)
			} else {
				in[p] = tags
			}
			return
		}
	}
	in[p] = append(tags, tag)
}

// ToggleProtocol removes p when it has any tag selected, otherwise selects
// every tag in available.
func (in Inbounds) ToggleProtocol(p ProxyType, available []string) {
	if _, ok := in[p]; ok {
		delete(in, p)
		return
	}
	if len(available) == 0 {
		return
	}
	in[p] = append([]string(nil), available...)
}

// Protocols returns the selected protocols sorted.
func (in Inbounds) Protocols() []ProxyType {
	out := make([]ProxyType, 0, len(in))
	for p := range in {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Equal compares two selections as sets of (protocol, tag).
func (in Inbounds) Equal(other Inbounds) bool {
	if len(in) != len(other) {
		return false
	}
	for p, tags := range in {
		ot, ok := other[p]
		if !ok || len(ot) != len(tags) {
			return false
		}
		seen := make(map[string]struct{}, len(tags))
		for _, t := range tags {
			seen[t] = struct{}{}
		}
		for _, t := range ot {
			if _, ok := seen[t]; !ok {
				return false
			}
		}
	}
	return true
}
