package telegram

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"proxy-admin-bot/internal/domain/ports/adapter"
)

var _ adapter.Messenger = (*NoopMessenger)(nil)

// NoopMessenger implements adapter.Messenger for local/dev runs. It logs
// messages instead of sending them.
type NoopMessenger struct {
	log    *zerolog.Logger
	nextID atomic.Int64
}

func NewNoopMessenger(logger *zerolog.Logger) *NoopMessenger {
	return &NoopMessenger{log: logger}
}

func (n *NoopMessenger) id() int { return int(n.nextID.Add(1)) }

func (n *NoopMessenger) Send(ctx context.Context, msg adapter.OutgoingMessage) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n.log.Info().Int64("chat_id", msg.ChatID).Str("text", msg.Text).Int("buttons", countButtons(msg.Keyboard)).Msg("[noop-telegram] send")
	return n.id(), nil
}

func (n *NoopMessenger) Edit(ctx context.Context, messageID int, msg adapter.OutgoingMessage) error {
	n.log.Info().Int64("chat_id", msg.ChatID).Int("message_id", messageID).Str("text", msg.Text).Msg("[noop-telegram] edit")
	return ctx.Err()
}

func (n *NoopMessenger) Delete(ctx context.Context, chatID int64, messageID int) error {
	n.log.Debug().Int64("chat_id", chatID).Int("message_id", messageID).Msg("[noop-telegram] delete")
	return ctx.Err()
}

func (n *NoopMessenger) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	return ctx.Err()
}

func (n *NoopMessenger) SendPhoto(ctx context.Context, chatID int64, png []byte, caption string, kb adapter.Keyboard) (int, error) {
	n.log.Info().Int64("chat_id", chatID).Int("bytes", len(png)).Str("caption", caption).Msg("[noop-telegram] photo")
	return n.id(), ctx.Err()
}

func (n *NoopMessenger) SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) (int, error) {
	n.log.Info().Int64("chat_id", chatID).Str("name", name).Int("bytes", len(data)).Msg("[noop-telegram] document")
	return n.id(), ctx.Err()
}

func countButtons(kb adapter.Keyboard) int {
	n := 0
	for _, row := range kb {
		n += len(row)
	}
	return n
}
