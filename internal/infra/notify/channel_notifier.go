package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/adapter"
	"proxy-admin-bot/internal/infra/logging"
	"proxy-admin-bot/internal/infra/metrics"
	"proxy-admin-bot/internal/infra/worker"
)

var _ adapter.Notifier = (*ChannelNotifier)(nil)

type Translator interface {
	T(key string, args ...any) string
}

// ChannelNotifier posts audit events to the logger channel. Delivery runs
// on a worker pool; events that do not fit in its queue are dropped.
type ChannelNotifier struct {
	msg     adapter.Messenger
	pool    *worker.Pool
	tr      Translator
	channel int64
	timeout time.Duration
	log     *zerolog.Logger
}

func NewChannelNotifier(msg adapter.Messenger, pool *worker.Pool, tr Translator, channelID int64, logger *zerolog.Logger) *ChannelNotifier {
	return &ChannelNotifier{
		msg:     msg,
		pool:    pool,
		tr:      tr,
		channel: channelID,
		timeout: 10 * time.Second,
		log:     logging.Component(logger, "ChannelNotifier"),
	}
}

// Text renders ev with the notify.<kind> message.
func (n *ChannelNotifier) Text(ev model.AuditEvent) string {
	return n.tr.T("notify."+string(ev.Kind), ev.Username, ev.Operator, ev.Before, ev.After, ev.Count)
}

func (n *ChannelNotifier) Notify(ctx context.Context, ev model.AuditEvent) {
	kind := string(ev.Kind)
	text := n.Text(ev)
	err := n.pool.Submit(func(ctx context.Context) error {
		return n.deliver(ctx, kind, text, ev.Attachment)
	})
	if err != nil {
		metrics.IncNotification(kind, "dropped")
		logging.With(ctx, n.log).Warn().Err(err).Str("event", kind).Msg("audit event dropped")
	}
}

func (n *ChannelNotifier) deliver(ctx context.Context, kind, text string, doc *model.Attachment) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if _, err := n.msg.Send(ctx, adapter.OutgoingMessage{ChatID: n.channel, Text: text}); err != nil {
		metrics.IncNotification(kind, "failed")
		return err
	}
	if doc != nil {
		if _, err := n.msg.SendDocument(ctx, n.channel, doc.Name, doc.Data, "#"+kind); err != nil {
			metrics.IncNotification(kind, "failed")
			return err
		}
	}
	metrics.IncNotification(kind, "sent")
	return nil
}
