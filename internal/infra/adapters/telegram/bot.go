package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"proxy-admin-bot/internal/config"
	"proxy-admin-bot/internal/domain/ports/adapter"
)

var _ adapter.Messenger = (*Bot)(nil)

// UpdateHandler processes one Telegram update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update) error
}

// Bot owns the Bot API client. It polls updates and implements the
// Messenger port.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.BotConfig
	log *zerolog.Logger

	// updateWorkers is how many goroutines process updates. Updates of one
	// chat always land on the same worker, in order.
	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewBot(cfg *config.BotConfig, logger *zerolog.Logger) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	return NewBotWithAPI(api, cfg, logger), nil
}

// NewBotWithAPI wraps an existing client, e.g. one pointed at a test server.
func NewBotWithAPI(api *tgbotapi.BotAPI, cfg *config.BotConfig, logger *zerolog.Logger) *Bot {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Bot{
		api:           api,
		cfg:           cfg,
		log:           logger,
		updateWorkers: workers,
	}
}

func (b *Bot) Username() string { return b.api.Self.UserName }

// chatOf returns the chat an update belongs to, 0 when it has none.
func chatOf(u tgbotapi.Update) int64 {
	if c := u.FromChat(); c != nil {
		return c.ID
	}
	if u.CallbackQuery != nil && u.CallbackQuery.From != nil {
		return u.CallbackQuery.From.ID
	}
	return 0
}

func shardFor(chatID int64, n int) int {
	if chatID < 0 {
		chatID = -chatID
	}
	return int(chatID % int64(n))
}

// StartPolling long-polls Telegram until ctx is cancelled.
func (b *Bot) StartPolling(ctx context.Context, handler UpdateHandler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.PollTimeout
	if u.Timeout <= 0 {
		u.Timeout = 60
	}
	updates := b.api.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	b.cancelPolling = cancel

	var wg sync.WaitGroup
	shards := make([]chan tgbotapi.Update, b.updateWorkers)
	for i := range shards {
		shards[i] = make(chan tgbotapi.Update, 32)
		wg.Add(1)
		go func(workerID int, in <-chan tgbotapi.Update) {
			defer wg.Done()
			for update := range in {
				if err := handler.HandleUpdate(ctx, update); err != nil {
					b.log.Error().Err(err).Int("worker", workerID).Int("update_id", update.UpdateID).Msg("error handling update")
				}
			}
		}(i+1, shards[i])
	}

	b.log.Info().Str("bot", b.Username()).Int("workers", b.updateWorkers).Msg("telegram polling started")
	defer func() {
		b.api.StopReceivingUpdates()
		for _, ch := range shards {
			close(ch)
		}
		wg.Wait()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			select {
			case shards[shardFor(chatOf(update), len(shards))] <- update:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (b *Bot) StopPolling() {
	if b.cancelPolling != nil {
		b.cancelPolling()
	}
}

// SetCommands publishes the command menu to every admin chat.
func (b *Bot) SetCommands(ctx context.Context, commands []tgbotapi.BotCommand, adminIDs []int64) error {
	var errs []error
	for _, id := range adminIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		cfg := tgbotapi.NewSetMyCommandsWithScope(tgbotapi.NewBotCommandScopeChat(id), commands...)
		if _, err := b.api.Request(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// --- Messenger ---

func inlineMarkup(rows adapter.Keyboard) tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, r)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...)
}

func (b *Bot) Send(ctx context.Context, out adapter.OutgoingMessage) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(out.ChatID, out.Text)
	msg.ParseMode = out.ParseMode
	msg.DisableWebPagePreview = true
	switch {
	case len(out.Keyboard) > 0:
		msg.ReplyMarkup = inlineMarkup(out.Keyboard)
	case out.ForceReply:
		msg.ReplyMarkup = tgbotapi.ForceReply{ForceReply: true, Selective: true}
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (b *Bot) Edit(ctx context.Context, messageID int, out adapter.OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(out.ChatID, messageID, out.Text)
	edit.ParseMode = out.ParseMode
	edit.DisableWebPagePreview = true
	if len(out.Keyboard) > 0 {
		markup := inlineMarkup(out.Keyboard)
		edit.ReplyMarkup = &markup
	}
	_, err := b.api.Send(edit)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

func (b *Bot) Delete(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func (b *Bot) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = alert
	_, err := b.api.Request(cb)
	return err
}

func (b *Bot) SendPhoto(ctx context.Context, chatID int64, png []byte, caption string, kb adapter.Keyboard) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "qr.png", Bytes: png})
	photo.Caption = caption
	if len(kb) > 0 {
		photo.ReplyMarkup = inlineMarkup(kb)
	}
	sent, err := b.api.Send(photo)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (b *Bot) SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	sent, err := b.api.Send(doc)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}
