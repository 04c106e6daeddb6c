//go:build !integration

package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/usecase"
)

// keyTranslator renders "key" or "key[arg1 arg2]" so tests can assert on
// keys without a locale file.
type keyTranslator struct{}

func (keyTranslator) T(key string, args ...any) string {
	if len(args) == 0 {
		return key
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return key + "[" + strings.Join(parts, " ") + "]"
}

// The mocks embed the usecase interfaces; calling a method a test did not
// stub panics on the nil embedded value.

type mockWizard struct {
	usecase.WizardUseCase
	SessionFunc         func(chatID int64) (*model.WizardSession, error)
	SubmitUsernameFunc  func(chatID int64, input string) (*model.WizardSession, error)
	StartEditFunc       func(chatID int64, username string) (*model.WizardSession, *model.Account, error)
	ToggleInboundFunc   func(chatID int64, tag string) (*model.WizardSession, error)
	CommitFunc          func(chatID int64, op usecase.Operator) (*model.Account, error)
	SubmitNoteFunc      func(chatID int64, input string, op usecase.Operator) (*model.Account, error)
	SubmitBulkValueFunc func(chatID int64, input string) (model.WizardFlow, int64, error)
	CancelFunc          func(chatID int64) error
}

func (m *mockWizard) Session(_ context.Context, chatID int64) (*model.WizardSession, error) {
	return m.SessionFunc(chatID)
}

func (m *mockWizard) SubmitUsername(_ context.Context, chatID int64, input string) (*model.WizardSession, error) {
	return m.SubmitUsernameFunc(chatID, input)
}

func (m *mockWizard) StartEdit(_ context.Context, chatID int64, username string) (*model.WizardSession, *model.Account, error) {
	return m.StartEditFunc(chatID, username)
}

func (m *mockWizard) ToggleInbound(_ context.Context, chatID int64, tag string) (*model.WizardSession, error) {
	return m.ToggleInboundFunc(chatID, tag)
}

func (m *mockWizard) Commit(_ context.Context, chatID int64, op usecase.Operator) (*model.Account, error) {
	return m.CommitFunc(chatID, op)
}

func (m *mockWizard) SubmitNote(_ context.Context, chatID int64, input string, op usecase.Operator) (*model.Account, error) {
	return m.SubmitNoteFunc(chatID, input, op)
}

func (m *mockWizard) SubmitBulkValue(_ context.Context, chatID int64, input string) (model.WizardFlow, int64, error) {
	return m.SubmitBulkValueFunc(chatID, input)
}

func (m *mockWizard) Cancel(_ context.Context, chatID int64) error {
	return m.CancelFunc(chatID)
}

type mockAccounts struct {
	usecase.AccountUseCase
	ListFunc              func(page int) ([]*model.Account, int, error)
	DeleteFunc            func(username string) error
	SuspendFunc           func(username string) (*model.Account, error)
	TemplateFunc          func(id int64) (*model.UserTemplate, error)
	NeedsChargeChoiceFunc func(username string) (bool, error)
}

func (m *mockAccounts) List(_ context.Context, page int) ([]*model.Account, int, error) {
	return m.ListFunc(page)
}

func (m *mockAccounts) Delete(_ context.Context, username string, _ usecase.Operator) error {
	return m.DeleteFunc(username)
}

func (m *mockAccounts) Suspend(_ context.Context, username string, _ usecase.Operator) (*model.Account, error) {
	return m.SuspendFunc(username)
}

func (m *mockAccounts) Template(_ context.Context, id int64) (*model.UserTemplate, error) {
	return m.TemplateFunc(id)
}

func (m *mockAccounts) NeedsChargeChoice(_ context.Context, username string) (bool, error) {
	return m.NeedsChargeChoiceFunc(username)
}

type mockBulk struct {
	usecase.BulkUseCase
	AddDataFunc    func(delta int64) (*usecase.BulkResult, error)
	AddInboundFunc func(tag string) (*usecase.BulkResult, error)
}

func (m *mockBulk) AddData(_ context.Context, delta int64, _ usecase.Operator) (*usecase.BulkResult, error) {
	return m.AddDataFunc(delta)
}

func (m *mockBulk) AddInbound(_ context.Context, tag string, _ usecase.Operator) (*usecase.BulkResult, error) {
	return m.AddInboundFunc(tag)
}

type staticCatalog map[model.ProxyType][]model.InboundInfo

func (c staticCatalog) InboundsByProtocol() map[model.ProxyType][]model.InboundInfo { return c }

func (c staticCatalog) InboundsByTag() map[string]model.InboundInfo {
	out := map[string]model.InboundInfo{}
	for _, infos := range c {
		for _, in := range infos {
			out[in.Tag] = in
		}
	}
	return out
}

func testCatalog() staticCatalog {
	return staticCatalog{
		model.ProxyVLESS: {
			{Tag: "VLESS TCP", Protocol: model.ProxyVLESS},
			{Tag: "VLESS WS", Protocol: model.ProxyVLESS},
		},
		model.ProxyTrojan: {{Tag: "Trojan", Protocol: model.ProxyTrojan}},
	}
}

func newTestFacade(w *mockWizard, a *mockAccounts, b *mockBulk) *AdminFacade {
	return newCatalogFacade(w, a, b, testCatalog())
}

func newCatalogFacade(w *mockWizard, a *mockAccounts, b *mockBulk, cat staticCatalog) *AdminFacade {
	log := zerolog.Nop()
	return NewAdminFacade(w, a, b, nil, nil, cat, keyTranslator{}, &log)
}
