package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"proxy-admin-bot/internal/application"
	"proxy-admin-bot/internal/config"
	"proxy-admin-bot/internal/domain"
	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/adapter"
	"proxy-admin-bot/internal/domain/ports/repository"
	"proxy-admin-bot/internal/infra/logging"
	"proxy-admin-bot/internal/infra/metrics"
	red "proxy-admin-bot/internal/infra/redis"
	"proxy-admin-bot/internal/usecase"
)

// Dispatcher routes updates to the admin facade and delivers its replies.
type Dispatcher struct {
	msg      adapter.Messenger
	facade   *application.AdminFacade
	sessions repository.SessionStore
	limiter  repository.RateLimiter
	admins   map[int64]struct{}
	log      *zerolog.Logger

	commands     map[string]commandHandler
	callbacks    map[string]cbHandler
	prefixes     []prefixCB
	textHandlers map[model.WizardStep]textHandler
}

// NewDispatcher wires the route tables. limiter may be nil to disable rate
// limiting.
func NewDispatcher(
	cfg *config.BotConfig,
	msg adapter.Messenger,
	facade *application.AdminFacade,
	sessions repository.SessionStore,
	limiter repository.RateLimiter,
	logger *zerolog.Logger,
) (*Dispatcher, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if msg == nil || facade == nil || sessions == nil {
		return nil, errors.New("messenger, facade and session store are required")
	}
	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}
	d := &Dispatcher{
		msg:      msg,
		facade:   facade,
		sessions: sessions,
		limiter:  limiter,
		admins:   admins,
		log:      logger,
	}
	d.commands = d.commandRoutes()
	d.callbacks = d.cbRoutes()
	d.prefixes = d.cbPrefixRoutes()
	d.textHandlers = d.textRoutes()
	return d, nil
}

func (d *Dispatcher) isAdmin(userID int64) bool {
	_, ok := d.admins[userID]
	return ok
}

func operator(u *tgbotapi.User) usecase.Operator {
	name := u.UserName
	if name == "" {
		name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	return usecase.Operator{ID: u.ID, Name: name}
}

// allow applies the per-operator rate limit. Limiter failures let the
// action through.
func (d *Dispatcher) allow(ctx context.Context, userID int64) bool {
	if d.limiter == nil {
		return true
	}
	ok, err := d.limiter.Allow(ctx, red.OperatorKey(userID))
	if err != nil {
		d.log.Warn().Err(err).Int64("user_id", userID).Msg("rate limiter unavailable")
		return true
	}
	if !ok {
		metrics.IncRateLimitTriggered()
	}
	return ok
}

// HandleUpdate implements UpdateHandler.
func (d *Dispatcher) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	ctx = logging.WithTraceID(ctx, logging.NewTraceID())
	switch {
	case update.CallbackQuery != nil:
		return d.handleQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		return d.handleMessage(ctx, update.Message)
	}
	return nil
}

func (d *Dispatcher) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	if m.From == nil || m.Chat == nil {
		return nil
	}
	chatID := m.Chat.ID
	ctx = logging.WithChatID(ctx, chatID)

	if m.IsCommand() {
		cmd := m.Command()
		metrics.IncTelegramCommand(cmd)
		h, ok := d.commands[cmd]
		if !ok {
			h = d.adminOnly(d.handleHelpCommand)
		}
		return h(ctx, m)
	}

	if !d.isAdmin(m.From.ID) {
		return d.deliver(ctx, chatID, 0, "", d.facade.Unauthorized())
	}
	if !d.allow(ctx, m.From.ID) {
		return d.deliver(ctx, chatID, 0, "", d.facade.RateLimited())
	}
	return d.handleText(ctx, m)
}

// handleText feeds free text to the handler of the chat's wizard step.
func (d *Dispatcher) handleText(ctx context.Context, m *tgbotapi.Message) error {
	chatID := m.Chat.ID
	s, failed := d.facade.CurrentSession(ctx, chatID)
	if failed != nil {
		return d.deliver(ctx, chatID, 0, "", failed)
	}
	if s == nil || !s.Step.AwaitsText() {
		return d.deliver(ctx, chatID, 0, "", d.facade.Idle(ctx))
	}
	h, ok := d.textHandlers[s.Step]
	if !ok {
		return d.deliver(ctx, chatID, 0, "", d.facade.Idle(ctx))
	}
	ctx = logging.WithFlow(ctx, string(s.Flow))

	// operator input is part of the conversation and goes with the prompts
	d.enqueue(ctx, chatID, m.MessageID)

	reply := h(ctx, chatID, m.Text, operator(m.From))
	metrics.IncWizardInput(string(s.Step), outcome(reply))
	return d.deliver(ctx, chatID, 0, "", reply)
}

func (d *Dispatcher) handleQuery(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q.From == nil {
		return errors.New("invalid callback query")
	}
	var (
		chatID int64
		msgID  int
	)
	if q.Message != nil && q.Message.Chat != nil {
		chatID = q.Message.Chat.ID
		msgID = q.Message.MessageID
	} else {
		chatID = q.From.ID
	}
	ctx = logging.WithChatID(ctx, chatID)

	if !d.isAdmin(q.From.ID) {
		metrics.IncAdminCommand("callback", "unauthorized")
		r := d.facade.Unauthorized()
		return d.msg.AnswerCallback(ctx, q.ID, r.Text, true)
	}
	if !d.allow(ctx, q.From.ID) {
		r := d.facade.RateLimited()
		return d.msg.AnswerCallback(ctx, q.ID, r.Alert, true)
	}

	c := callback{ChatID: chatID, Data: strings.TrimSpace(q.Data), Op: operator(q.From)}
	route, h := d.route(c.Data)
	if h == nil {
		return d.deliver(ctx, chatID, msgID, q.ID, d.facade.UnknownAction())
	}
	metrics.IncTelegramCommand("cb:" + route)
	c.Data = strings.TrimPrefix(c.Data, route)
	return d.deliver(ctx, chatID, msgID, q.ID, h(ctx, c))
}

// route finds the handler for data: exact matches first, then prefixes.
func (d *Dispatcher) route(data string) (string, cbHandler) {
	if h, ok := d.callbacks[data]; ok {
		return data, h
	}
	for _, pr := range d.prefixes {
		if strings.HasPrefix(data, pr.Prefix) {
			return pr.Prefix, pr.Fn
		}
	}
	return "", nil
}

func outcome(r *application.Reply) string {
	if r.Err == nil {
		return "ok"
	}
	if k := domain.KindOf(r.Err); k != "" {
		return string(k)
	}
	return "error"
}

// deliver renders a reply. editID is the message a callback came from and
// callbackID its query, both empty for plain messages.
func (d *Dispatcher) deliver(ctx context.Context, chatID int64, editID int, callbackID string, r *application.Reply) error {
	log := logging.With(ctx, d.log)
	if callbackID != "" {
		if err := d.msg.AnswerCallback(ctx, callbackID, r.Alert, r.Alert != ""); err != nil {
			log.Debug().Err(err).Msg("answer callback failed")
		}
	}
	text := r.Text
	if text == "" && callbackID == "" {
		text = r.Alert
	}

	var sendErr error
	edited := 0
	if text != "" {
		out := adapter.OutgoingMessage{ChatID: chatID, Text: text, Keyboard: r.Keyboard, ForceReply: r.ForceReply}
		if r.Edit && editID != 0 {
			if err := d.msg.Edit(ctx, editID, out); err == nil {
				edited = editID
			} else {
				log.Debug().Err(err).Msg("edit failed, sending instead")
			}
		}
		if edited == 0 {
			id, err := d.msg.Send(ctx, out)
			if err != nil {
				sendErr = err
			} else if r.Prompt {
				d.enqueue(ctx, chatID, id)
			}
		}
	}
	for _, img := range r.Photos {
		if _, err := d.msg.SendPhoto(ctx, chatID, img.PNG, img.Caption, nil); err != nil {
			sendErr = errors.Join(sendErr, err)
		}
	}
	if r.Document != nil {
		if _, err := d.msg.SendDocument(ctx, chatID, r.Document.Name, r.Document.Data, ""); err != nil {
			sendErr = errors.Join(sendErr, err)
		}
	}
	if r.Checkpoint {
		d.flush(ctx, chatID, edited)
	}
	return sendErr
}

func (d *Dispatcher) enqueue(ctx context.Context, chatID int64, ids ...int) {
	if err := d.sessions.EnqueueForDeletion(ctx, chatID, ids...); err != nil {
		logging.With(ctx, d.log).Warn().Err(err).Msg("failed to queue messages for cleanup")
	}
}

// flush deletes the chat's queued wizard messages, except keep.
func (d *Dispatcher) flush(ctx context.Context, chatID int64, keep int) {
	ids, err := d.sessions.FlushDeletions(ctx, chatID)
	if err != nil {
		logging.With(ctx, d.log).Warn().Err(err).Msg("failed to read cleanup queue")
		return
	}
	for _, id := range ids {
		if id == keep {
			continue
		}
		if err := d.msg.Delete(ctx, chatID, id); err != nil {
			logging.With(ctx, d.log).Debug().Err(err).Int("message_id", id).Msg("cleanup delete failed")
		}
	}
}
