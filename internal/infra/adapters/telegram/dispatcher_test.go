//go:build !integration

package telegram

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxy-admin-bot/internal/application"
	"proxy-admin-bot/internal/config"
	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/adapter"
	"proxy-admin-bot/internal/domain/ports/repository"
	"proxy-admin-bot/internal/infra/memory"
	"proxy-admin-bot/internal/usecase"
)

const adminID = int64(100)

type keyTranslator struct{}

func (keyTranslator) T(key string, args ...any) string {
	if len(args) == 0 {
		return key
	}
	return key + fmt.Sprint(args...)
}

type sentMessage struct {
	ID  int
	Msg adapter.OutgoingMessage
}

type recordingMessenger struct {
	mu       sync.Mutex
	nextID   int
	sent     []sentMessage
	edited   []int
	deleted  []int
	answered []string
}

func (m *recordingMessenger) Send(_ context.Context, msg adapter.OutgoingMessage) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.sent = append(m.sent, sentMessage{ID: 1000 + m.nextID, Msg: msg})
	return 1000 + m.nextID, nil
}

func (m *recordingMessenger) Edit(_ context.Context, id int, _ adapter.OutgoingMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edited = append(m.edited, id)
	return nil
}

func (m *recordingMessenger) Delete(_ context.Context, _ int64, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *recordingMessenger) AnswerCallback(_ context.Context, _ string, text string, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, text)
	return nil
}

func (m *recordingMessenger) SendPhoto(context.Context, int64, []byte, string, adapter.Keyboard) (int, error) {
	return 0, nil
}

func (m *recordingMessenger) SendDocument(context.Context, int64, string, []byte, string) (int, error) {
	return 0, nil
}

type stubWizard struct {
	usecase.WizardUseCase
	session *model.WizardSession
	next    *model.WizardSession
	inputs  []string
}

func (w *stubWizard) Session(context.Context, int64) (*model.WizardSession, error) {
	return w.session, nil
}

func (w *stubWizard) SubmitUsername(_ context.Context, _ int64, input string) (*model.WizardSession, error) {
	w.inputs = append(w.inputs, input)
	return w.next, nil
}

type stubAccounts struct {
	usecase.AccountUseCase
}

func (stubAccounts) Get(_ context.Context, username string) (*model.Account, error) {
	return &model.Account{Username: username, Status: model.StatusActive}, nil
}

type stubLimiter struct{ allow bool }

func (l stubLimiter) Allow(context.Context, string) (bool, error) { return l.allow, nil }

type fixture struct {
	d        *Dispatcher
	msg      *recordingMessenger
	sessions *memory.SessionStore
	wizard   *stubWizard
}

func newFixture(t *testing.T, limiter *stubLimiter) *fixture {
	t.Helper()
	log := zerolog.Nop()
	sessions, err := memory.NewSessionStore(64, time.Minute)
	require.NoError(t, err)
	t.Cleanup(sessions.Close)

	w := &stubWizard{}
	facade := application.NewAdminFacade(w, stubAccounts{}, nil, nil, nil, nil, keyTranslator{}, &log)
	msg := &recordingMessenger{}
	cfg := &config.BotConfig{AdminIDs: []int64{adminID}}

	var rl repository.RateLimiter
	if limiter != nil {
		rl = limiter
	}
	d, err := NewDispatcher(cfg, msg, facade, sessions, rl, &log)
	require.NoError(t, err)
	return &fixture{d: d, msg: msg, sessions: sessions, wizard: w}
}

func textUpdate(from int64, msgID int, text string) tgbotapi.Update {
	m := &tgbotapi.Message{
		MessageID: msgID,
		From:      &tgbotapi.User{ID: from, UserName: "op"},
		Chat:      &tgbotapi.Chat{ID: from},
		Text:      text,
	}
	if len(text) > 0 && text[0] == '/' {
		m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	return tgbotapi.Update{Message: m}
}

func callbackUpdate(from int64, msgID int, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: from},
		Message: &tgbotapi.Message{MessageID: msgID, Chat: &tgbotapi.Chat{ID: from}},
		Data:    data,
	}}
}

func TestDispatcher_RejectsNonAdmins(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.d.HandleUpdate(ctx, textUpdate(5, 1, "/menu")))
	require.NoError(t, f.d.HandleUpdate(ctx, textUpdate(5, 2, "hello")))
	require.Len(t, f.msg.sent, 2)
	assert.Equal(t, "err.not_admin", f.msg.sent[0].Msg.Text)
	assert.Equal(t, "err.not_admin", f.msg.sent[1].Msg.Text)

	require.NoError(t, f.d.HandleUpdate(ctx, callbackUpdate(5, 3, application.CbMenu)))
	assert.Equal(t, []string{"err.not_admin"}, f.msg.answered)
	assert.Len(t, f.msg.sent, 2)
}

func TestDispatcher_MenuFlushesPendingPrompts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.sessions.EnqueueForDeletion(ctx, adminID, 5, 6))

	require.NoError(t, f.d.HandleUpdate(ctx, textUpdate(adminID, 7, "/start")))
	require.Len(t, f.msg.sent, 1)
	assert.Equal(t, "menu.title", f.msg.sent[0].Msg.Text)
	assert.ElementsMatch(t, []int{5, 6}, f.msg.deleted)
}

func TestDispatcher_TextGoesToStepHandler(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.wizard.session = &model.WizardSession{ChatID: adminID, Flow: model.FlowCreate, Step: model.StepAwaitingUsername}
	f.wizard.next = &model.WizardSession{ChatID: adminID, Flow: model.FlowCreate, Step: model.StepAwaitingDataLimit, Username: "alice"}

	require.NoError(t, f.d.HandleUpdate(ctx, textUpdate(adminID, 9, "alice")))
	assert.Equal(t, []string{"alice"}, f.wizard.inputs)
	require.Len(t, f.msg.sent, 1)
	assert.True(t, f.msg.sent[0].Msg.ForceReply)

	// the operator's input and the new prompt are both queued for cleanup
	ids, err := f.sessions.FlushDeletions(ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, []int{9, f.msg.sent[0].ID}, ids)
}

func TestDispatcher_TextWithoutWizardShowsMenu(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.d.HandleUpdate(context.Background(), textUpdate(adminID, 9, "hi")))
	require.Len(t, f.msg.sent, 1)
	assert.Contains(t, f.msg.sent[0].Msg.Text, "menu.idle_hint")
}

func TestDispatcher_Callbacks(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.d.HandleUpdate(ctx, callbackUpdate(adminID, 50, application.CbNoop)))
	assert.Equal(t, []string{""}, f.msg.answered)
	assert.Empty(t, f.msg.sent)

	require.NoError(t, f.d.HandleUpdate(ctx, callbackUpdate(adminID, 50, "user:alice")))
	assert.Equal(t, []int{50}, f.msg.edited)
	assert.Empty(t, f.msg.sent)

	require.NoError(t, f.d.HandleUpdate(ctx, callbackUpdate(adminID, 50, "bogus")))
	assert.Equal(t, "err.unknown_action", f.msg.answered[len(f.msg.answered)-1])
}

func TestDispatcher_RateLimited(t *testing.T) {
	f := newFixture(t, &stubLimiter{allow: false})
	ctx := context.Background()

	require.NoError(t, f.d.HandleUpdate(ctx, textUpdate(adminID, 1, "/menu")))
	require.Len(t, f.msg.sent, 1)
	assert.Equal(t, "err.rate_limited", f.msg.sent[0].Msg.Text)

	require.NoError(t, f.d.HandleUpdate(ctx, callbackUpdate(adminID, 2, application.CbMenu)))
	assert.Equal(t, []string{"err.rate_limited"}, f.msg.answered)
}

func TestDispatcher_BotCommands(t *testing.T) {
	f := newFixture(t, nil)
	cmds := f.d.BotCommands()
	require.Len(t, cmds, len(menuCommands))
	assert.Equal(t, "menu", cmds[0].Command)
	assert.Equal(t, "cmd.menu", cmds[0].Description)
}

func TestTextRoutes_CoverEveryTextStep(t *testing.T) {
	f := newFixture(t, nil)
	steps := []model.WizardStep{
		model.StepAwaitingUsername, model.StepAwaitingDataLimit, model.StepAwaitingStatus,
		model.StepAwaitingExpiry, model.StepAwaitingProtocols, model.StepEditingDataLimit,
		model.StepEditingExpiry, model.StepAwaitingNote, model.StepAwaitingBulkData,
		model.StepAwaitingBulkDays,
	}
	for _, s := range steps {
		_, ok := f.d.textHandlers[s]
		assert.Equal(t, s.AwaitsText(), ok, s)
	}
}
