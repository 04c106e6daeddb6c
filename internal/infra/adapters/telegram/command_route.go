package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"proxy-admin-bot/internal/infra/metrics"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// menuCommands is the order commands appear in the client menu.
var menuCommands = []string{"menu", "create", "user", "users", "system", "restart", "bulk", "cancel", "help"}

// commandRoutes defines all available bot commands. Every command is admin only.
func (d *Dispatcher) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":   d.adminOnly(d.handleMenuCommand),
		"menu":    d.adminOnly(d.handleMenuCommand),
		"help":    d.adminOnly(d.handleHelpCommand),
		"cancel":  d.adminOnly(d.handleCancelCommand),
		"create":  d.adminOnly(d.handleCreateCommand),
		"user":    d.adminOnly(d.handleUserCommand),
		"users":   d.adminOnly(d.handleUsersCommand),
		"system":  d.adminOnly(d.handleSystemCommand),
		"restart": d.adminOnly(d.handleRestartCommand),
		"bulk":    d.adminOnly(d.handleBulkCommand),
	}
}

func (d *Dispatcher) adminOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		if !d.isAdmin(message.From.ID) {
			metrics.IncAdminCommand("/"+message.Command(), "unauthorized")
			return d.deliver(ctx, message.Chat.ID, 0, "", d.facade.Unauthorized())
		}
		if !d.allow(ctx, message.From.ID) {
			metrics.IncAdminCommand("/"+message.Command(), "rate_limited")
			return d.deliver(ctx, message.Chat.ID, 0, "", d.facade.RateLimited())
		}
		metrics.IncAdminCommand("/"+message.Command(), "authorized")
		return next(ctx, message)
	}
}

// BotCommands lists the client menu entries.
func (d *Dispatcher) BotCommands() []tgbotapi.BotCommand {
	out := make([]tgbotapi.BotCommand, 0, len(menuCommands))
	for _, c := range menuCommands {
		out = append(out, tgbotapi.BotCommand{Command: c, Description: d.facade.Describe(c)})
	}
	return out
}

func (d *Dispatcher) handleMenuCommand(ctx context.Context, m *tgbotapi.Message) error {
	return d.deliver(ctx, m.Chat.ID, 0, "", d.facade.Menu(ctx))
}

func (d *Dispatcher) handleHelpCommand(ctx context.Context, m *tgbotapi.Message) error {
	return d.deliver(ctx, m.Chat.ID, 0, "", d.facade.Help(ctx))
}

func (d *Dispatcher) handleCancelCommand(ctx context.Context, m *tgbotapi.Message) error {
	d.enqueue(ctx, m.Chat.ID, m.MessageID)
	return d.deliver(ctx, m.Chat.ID, 0, "", d.facade.Cancel(ctx, m.Chat.ID))
}

func (d *Dispatcher) handleCreateCommand(ctx context.Context, m *tgbotapi.Message) error {
	return d.deliver(ctx, m.Chat.ID, 0, "", d.facade.CreateMenu(ctx))
}

// handleUserCommand shows the accounts named in "/user alice bob".
func (d *Dispatcher) handleUserCommand(ctx context.Context, m *tgbotapi.Message) error {
	names := strings.Fields(m.CommandArguments())
	var firstErr error
	for _, r := range d.facade.Search(ctx, names) {
		if err := d.deliver(ctx, m.Chat.ID, 0, "", r); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (d *Dispatcher) handleUsersCommand(ctx context.Context, m *tgbotapi.Message) error {
	return d.deliver(ctx, m.Chat.ID, 0, "", d.facade.Users(ctx, 1))
}

func (d *Dispatcher) handleSystemCommand(ctx context.Context, m *tgbotapi.Message) error {
	return d.deliver(ctx, m.Chat.ID, 0, "", d.facade.SystemInfo(ctx))
}

func (d *Dispatcher) handleRestartCommand(ctx context.Context, m *tgbotapi.Message) error {
	return d.deliver(ctx, m.Chat.ID, 0, "", d.facade.AskRestart(ctx))
}

func (d *Dispatcher) handleBulkCommand(ctx context.Context, m *tgbotapi.Message) error {
	return d.deliver(ctx, m.Chat.ID, 0, "", d.facade.BulkMenu(ctx))
}
