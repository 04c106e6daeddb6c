package xray

import (
	"context"
	"sync"

	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/adapter"
)

var _ adapter.ProxyCore = (*StaticCore)(nil)

// StaticCore serves inbounds from the local config and keeps users in
// memory. It stands in for the control API in dev mode.
type StaticCore struct {
	mu    sync.Mutex
	idx   inboundIndex
	users map[string]model.AccountStatus
}

func NewStaticCore(inbounds []model.InboundInfo) *StaticCore {
	return &StaticCore{
		idx:   newInboundIndex(inbounds),
		users: make(map[string]model.AccountStatus),
	}
}

func (s *StaticCore) AddUser(ctx context.Context, a *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[a.Username] = a.Status
	return nil
}

func (s *StaticCore) UpdateUser(ctx context.Context, a *model.Account) error {
	return s.AddUser(ctx, a)
}

func (s *StaticCore) RemoveUser(ctx context.Context, a *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, a.Username)
	return nil
}

func (s *StaticCore) Restart(ctx context.Context) error      { return nil }
func (s *StaticCore) RestartNodes(ctx context.Context) error { return nil }

// Has reports whether username is currently served.
func (s *StaticCore) Has(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[username]
	return ok
}

func (s *StaticCore) InboundsByProtocol() map[model.ProxyType][]model.InboundInfo {
	out := make(map[model.ProxyType][]model.InboundInfo, len(s.idx.byProtocol))
	for p, list := range s.idx.byProtocol {
		out[p] = append([]model.InboundInfo(nil), list...)
	}
	return out
}

func (s *StaticCore) InboundsByTag() map[string]model.InboundInfo {
	out := make(map[string]model.InboundInfo, len(s.idx.byTag))
	for t, in := range s.idx.byTag {
		out[t] = in
	}
	return out
}
