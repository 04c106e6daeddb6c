//go:build !integration

package usecase

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"proxy-admin-bot/internal/domain"
	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/adapter"
	"proxy-admin-bot/internal/domain/ports/repository"
)

// -----------------------------
// Utilities
// -----------------------------

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

// =============================
// Session store
// =============================

type MockSessionStore struct {
	mu       sync.Mutex
	sessions map[int64]model.WizardSession
	pending  map[int64][]int
	GetErr   error
}

var _ repository.SessionStore = (*MockSessionStore)(nil)

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{sessions: map[int64]model.WizardSession{}, pending: map[int64][]int{}}
}

func (m *MockSessionStore) Get(ctx context.Context, chatID int64) (*model.WizardSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	s, ok := m.sessions[chatID]
	if !ok {
		return nil, nil
	}
	cp := s
	cp.Protocols = s.Protocols.Clone()
	return &cp, nil
}

func (m *MockSessionStore) Save(ctx context.Context, s *model.WizardSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.Protocols = s.Protocols.Clone()
	m.sessions[s.ChatID] = cp
	return nil
}

func (m *MockSessionStore) Delete(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
	return nil
}

func (m *MockSessionStore) EnqueueForDeletion(ctx context.Context, chatID int64, ids ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[chatID] = append(m.pending[chatID], ids...)
	return nil
}

func (m *MockSessionStore) FlushDeletions(ctx context.Context, chatID int64) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.pending[chatID]
	delete(m.pending, chatID)
	return ids, nil
}

// =============================
// Repositories
// =============================

type MockAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	nextID   int64
	// CreateErr forces Create to fail, e.g. with domain.ErrAlreadyExists.
	CreateErr error
}

var _ repository.AccountRepository = (*MockAccountRepo)(nil)

func NewMockAccountRepo() *MockAccountRepo {
	return &MockAccountRepo{accounts: map[string]*model.Account{}}
}

func cloneAccount(a *model.Account) *model.Account {
	cp := *a
	cp.Inbounds = a.Inbounds.Clone()
	cp.Proxies = make(map[model.ProxyType]model.ProxySettings, len(a.Proxies))
	for k, v := range a.Proxies {
		cp.Proxies[k] = v
	}
	return &cp
}

func (r *MockAccountRepo) Seed(a *model.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().Add(time.Duration(r.nextID) * time.Second)
	}
	r.accounts[a.Username] = cloneAccount(a)
}

func (r *MockAccountRepo) Create(ctx context.Context, tx repository.Tx, a *model.Account) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.Username]; ok {
		return domain.ErrAlreadyExists
	}
	r.nextID++
	a.ID = r.nextID
	r.accounts[a.Username] = cloneAccount(a)
	return nil
}

func (r *MockAccountRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneAccount(a), nil
}

func (r *MockAccountRepo) Update(ctx context.Context, tx repository.Tx, a *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.Username]; !ok {
		return domain.ErrNotFound
	}
	r.accounts[a.Username] = cloneAccount(a)
	return nil
}

func (r *MockAccountRepo) Delete(ctx context.Context, tx repository.Tx, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[username]; !ok {
		return domain.ErrNotFound
	}
	delete(r.accounts, username)
	return nil
}

func (r *MockAccountRepo) ResetUsage(ctx context.Context, tx repository.Tx, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[username]
	if !ok {
		return domain.ErrNotFound
	}
	a.UsedTraffic = 0
	return nil
}

func (r *MockAccountRepo) RevokeSubscription(ctx context.Context, tx repository.Tx, username string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[username]
	if !ok {
		return domain.ErrNotFound
	}
	a.SubRevokedAt = &at
	return nil
}

func (r *MockAccountRepo) sorted() []*model.Account {
	out := make([]*model.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, cloneAccount(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *MockAccountRepo) List(ctx context.Context, tx repository.Tx, f model.AccountFilter) ([]*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Account
	for _, a := range r.sorted() {
		if len(f.Usernames) > 0 && !contains(f.Usernames, a.Username) {
			continue
		}
		out = append(out, a)
	}
	if f.Offset > len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r *MockAccountRepo) Count(ctx context.Context, tx repository.Tx, status *model.AccountStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.accounts {
		if status == nil || a.Status == *status {
			n++
		}
	}
	return n, nil
}

func (r *MockAccountRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.AccountStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[model.AccountStatus]int{}
	for _, a := range r.accounts {
		out[a.Status]++
	}
	return out, nil
}

func (r *MockAccountRepo) Exists(ctx context.Context, tx repository.Tx, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.accounts[username]
	return ok, nil
}

func (r *MockAccountRepo) DeleteByStatus(ctx context.Context, tx repository.Tx, status model.AccountStatus) ([]*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Account
	for _, a := range r.sorted() {
		if a.Status == status {
			delete(r.accounts, a.Username)
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *MockAccountRepo) AddDataLimit(ctx context.Context, tx repository.Tx, delta int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, a := range r.accounts {
		if a.DataLimit > 0 && a.DataLimit+delta > 0 && a.Status != model.StatusLimited && a.Status != model.StatusExpired {
			a.DataLimit += delta
			names = append(names, a.Username)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *MockAccountRepo) AddExpireTime(ctx context.Context, tx repository.Tx, delta time.Duration) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, a := range r.accounts {
		if a.Expire != nil && a.Status != model.StatusLimited && a.Status != model.StatusExpired {
			e := a.Expire.Add(delta)
			a.Expire = &e
			names = append(names, a.Username)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *MockAccountRepo) ListByProtocol(ctx context.Context, tx repository.Tx, p model.ProxyType) ([]*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Account
	for _, a := range r.sorted() {
		if _, ok := a.Proxies[p]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

type MockTemplateRepo struct {
	mu        sync.Mutex
	templates map[int64]*model.UserTemplate
}

var _ repository.TemplateRepository = (*MockTemplateRepo)(nil)

func NewMockTemplateRepo() *MockTemplateRepo {
	return &MockTemplateRepo{templates: map[int64]*model.UserTemplate{}}
}

func (r *MockTemplateRepo) Save(ctx context.Context, tx repository.Tx, t *model.UserTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == 0 {
		t.ID = int64(len(r.templates) + 1)
	}
	cp := *t
	cp.Inbounds = t.Inbounds.Clone()
	r.templates[t.ID] = &cp
	return nil
}

func (r *MockTemplateRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.UserTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	cp.Inbounds = t.Inbounds.Clone()
	return &cp, nil
}

func (r *MockTemplateRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.UserTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.UserTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MockTemplateRepo) Delete(ctx context.Context, tx repository.Tx, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.templates, id)
	return nil
}

type MockUsageRepo struct{ Usage model.Usage }

func (r *MockUsageRepo) SystemUsage(ctx context.Context, tx repository.Tx) (model.Usage, error) {
	return r.Usage, nil
}

// MockTxManager runs fn without a real transaction.
type MockTxManager struct{}

func (MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

type MockLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *MockLocker) TryLock(ctx context.Context, key string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return "", false, nil
	}
	l.held[key] = true
	return "token", true, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

// =============================
// Adapters
// =============================

type MockCore struct {
	mu       sync.Mutex
	inbounds []model.InboundInfo
	Added    []string
	Updated  []string
	Removed  []string
	Restarts int
	AddErr   error
}

var _ adapter.ProxyCore = (*MockCore)(nil)

func NewMockCore(inbounds ...model.InboundInfo) *MockCore {
	return &MockCore{inbounds: inbounds}
}

func (c *MockCore) AddUser(ctx context.Context, a *model.Account) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.AddErr != nil {
		return c.AddErr
	}
	c.Added = append(c.Added, a.Username)
	return nil
}

func (c *MockCore) UpdateUser(ctx context.Context, a *model.Account) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Updated = append(c.Updated, a.Username)
	return nil
}

func (c *MockCore) RemoveUser(ctx context.Context, a *model.Account) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Removed = append(c.Removed, a.Username)
	return nil
}

func (c *MockCore) Restart(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Restarts++
	return nil
}

func (c *MockCore) RestartNodes(ctx context.Context) error { return nil }

func (c *MockCore) InboundsByProtocol() map[model.ProxyType][]model.InboundInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[model.ProxyType][]model.InboundInfo{}
	for _, in := range c.inbounds {
		out[in.Protocol] = append(out[in.Protocol], in)
	}
	return out
}

func (c *MockCore) InboundsByTag() map[string]model.InboundInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[string]model.InboundInfo{}
	for _, in := range c.inbounds {
		out[in.Tag] = in
	}
	return out
}

// Disable drops every inbound of p, as if the core config changed.
func (c *MockCore) Disable(p model.ProxyType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.inbounds[:0]
	for _, in := range c.inbounds {
		if in.Protocol != p {
			kept = append(kept, in)
		}
	}
	c.inbounds = kept
}

type MockNotifier struct {
	mu     sync.Mutex
	Events []model.AuditEvent
}

var _ adapter.Notifier = (*MockNotifier)(nil)

func (n *MockNotifier) Notify(ctx context.Context, ev model.AuditEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, ev)
}

func (n *MockNotifier) Kinds() []model.EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.EventKind, len(n.Events))
	for i, ev := range n.Events {
		out[i] = ev.Kind
	}
	return out
}

type MockHost struct{ Stats model.HostStats }

func (h *MockHost) Snapshot(ctx context.Context) (model.HostStats, error) { return h.Stats, nil }

type MockTokens struct{ Err error }

var _ adapter.SubscriptionTokens = MockTokens{}

func (m MockTokens) URL(a *model.Account) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return "https://sub.test/sub/" + a.Username + "/", nil
}

func (MockTokens) Parse(token string) (string, error) { return token, nil }

// MockQR returns the content itself as the "image".
type MockQR struct{}

func (MockQR) Encode(content string, size int) ([]byte, error) { return []byte(content), nil }

// standard fixture inbounds
var (
	vlessTCP = model.InboundInfo{Tag: "VLESS TCP", Protocol: model.ProxyVLESS, Port: 443}
	vlessWS  = model.InboundInfo{Tag: "VLESS WS", Protocol: model.ProxyVLESS, Port: 8080}
	vmessWS  = model.InboundInfo{Tag: "VMESS WS", Protocol: model.ProxyVMess, Port: 8081}
	trojan   = model.InboundInfo{Tag: "TROJAN", Protocol: model.ProxyTrojan, Port: 8443}
)
