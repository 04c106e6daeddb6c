package telegram

import (
	"context"

	"proxy-admin-bot/internal/application"
	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/usecase"
)

type textHandler func(ctx context.Context, chatID int64, text string, op usecase.Operator) *application.Reply

// textRoutes maps each text-consuming wizard step to its input handler.
func (d *Dispatcher) textRoutes() map[model.WizardStep]textHandler {
	f := d.facade
	dataLimit := func(ctx context.Context, chatID int64, text string, _ usecase.Operator) *application.Reply {
		return f.SubmitDataLimit(ctx, chatID, text)
	}
	expiry := func(ctx context.Context, chatID int64, text string, _ usecase.Operator) *application.Reply {
		return f.SubmitExpiry(ctx, chatID, text)
	}
	bulkValue := func(ctx context.Context, chatID int64, text string, _ usecase.Operator) *application.Reply {
		return f.SubmitBulkValue(ctx, chatID, text)
	}
	return map[model.WizardStep]textHandler{
		model.StepAwaitingUsername: func(ctx context.Context, chatID int64, text string, _ usecase.Operator) *application.Reply {
			return f.SubmitUsername(ctx, chatID, text)
		},
		model.StepAwaitingDataLimit: dataLimit,
		model.StepEditingDataLimit:  dataLimit,
		model.StepAwaitingExpiry:    expiry,
		model.StepEditingExpiry:     expiry,
		model.StepAwaitingNote:      f.SubmitNote,
		model.StepAwaitingBulkData:  bulkValue,
		model.StepAwaitingBulkDays:  bulkValue,
	}
}
