package telegram

import (
	"context"
	"strconv"
	"strings"

	"proxy-admin-bot/internal/application"
	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/infra/metrics"
	"proxy-admin-bot/internal/usecase"
)

// callback is a routed button press. Data holds what follows the matched
// prefix, or the whole data for exact routes.
type callback struct {
	ChatID int64
	Data   string
	Op     usecase.Operator
}

type cbHandler func(ctx context.Context, c callback) *application.Reply

type prefixCB struct {
	Prefix string
	Fn     cbHandler
}

func (d *Dispatcher) cbRoutes() map[string]cbHandler {
	f := d.facade
	return map[string]cbHandler{
		application.CbMenu:       func(ctx context.Context, _ callback) *application.Reply { return f.Menu(ctx) },
		application.CbHelp:       func(ctx context.Context, _ callback) *application.Reply { return f.Help(ctx) },
		application.CbCancel:     func(ctx context.Context, c callback) *application.Reply { return f.Cancel(ctx, c.ChatID) },
		application.CbSystemInfo: func(ctx context.Context, _ callback) *application.Reply { return f.SystemInfo(ctx) },
		application.CbRestart:    func(ctx context.Context, _ callback) *application.Reply { return f.AskRestart(ctx) },
		application.CbCreate:     func(ctx context.Context, _ callback) *application.Reply { return f.CreateMenu(ctx) },
		application.CbBulk:       func(ctx context.Context, _ callback) *application.Reply { return f.BulkMenu(ctx) },
		application.CbNoop:       func(context.Context, callback) *application.Reply { return &application.Reply{} },

		application.CbCreateManual: func(ctx context.Context, c callback) *application.Reply {
			return f.StartCreate(ctx, c.ChatID)
		},
		application.CbWizardRandom: func(ctx context.Context, c callback) *application.Reply {
			return f.RandomUsername(ctx, c.ChatID)
		},
		application.CbWizardData: func(ctx context.Context, c callback) *application.Reply {
			return f.BeginEditDataLimit(ctx, c.ChatID)
		},
		application.CbWizardExpiry: func(ctx context.Context, c callback) *application.Reply {
			return f.BeginEditExpiry(ctx, c.ChatID)
		},
		application.CbWizardCommit: d.commitCBRoute,
	}
}

// Prefix-match callbacks
func (d *Dispatcher) cbPrefixRoutes() []prefixCB {
	f := d.facade
	return []prefixCB{
		{Prefix: application.PfxUsers, Fn: func(ctx context.Context, c callback) *application.Reply {
			return f.Users(ctx, application.ParsePage(c.Data))
		}},
		{Prefix: application.PfxUser, Fn: func(ctx context.Context, c callback) *application.Reply {
			return f.Account(ctx, c.Data)
		}},
		{Prefix: application.PfxAsk, Fn: func(ctx context.Context, c callback) *application.Reply {
			action, name := splitPayload(c.Data)
			return f.AskAction(ctx, action, name)
		}},
		{Prefix: application.PfxDo, Fn: func(ctx context.Context, c callback) *application.Reply {
			action, name := splitPayload(c.Data)
			return f.DoAction(ctx, action, name, c.Op)
		}},
		{Prefix: application.PfxLinks, Fn: func(ctx context.Context, c callback) *application.Reply {
			return f.AccountLinks(ctx, c.Data)
		}},
		{Prefix: application.PfxQR, Fn: func(ctx context.Context, c callback) *application.Reply {
			return f.AccountQR(ctx, c.Data)
		}},
		{Prefix: application.PfxNote, Fn: func(ctx context.Context, c callback) *application.Reply {
			return f.StartNote(ctx, c.ChatID, c.Data)
		}},
		{Prefix: application.PfxEdit, Fn: func(ctx context.Context, c callback) *application.Reply {
			return f.StartEdit(ctx, c.ChatID, c.Data)
		}},
		{Prefix: application.PfxCharge, Fn: func(ctx context.Context, c callback) *application.Reply {
			return f.ChargeTemplates(ctx, c.Data)
		}},
		{Prefix: application.PfxChargeTemplate, Fn: func(ctx context.Context, c callback) *application.Reply {
			id, name, ok := application.ParseChargeTemplate(c.Data)
			if !ok {
				return f.UnknownAction()
			}
			return f.ChargeChoice(ctx, id, name)
		}},
		{Prefix: application.PfxChargeApply, Fn: func(ctx context.Context, c callback) *application.Reply {
			add, id, name, ok := application.ParseChargeApply(c.Data)
			if !ok {
				return f.UnknownAction()
			}
			return f.Charge(ctx, id, name, add, c.Op)
		}},
		{Prefix: application.PfxTemplate, Fn: func(ctx context.Context, c callback) *application.Reply {
			id, err := strconv.ParseInt(c.Data, 10, 64)
			if err != nil {
				return f.UnknownAction()
			}
			return f.StartFromTemplate(ctx, c.ChatID, id)
		}},
		{Prefix: application.PfxStatus, Fn: func(ctx context.Context, c callback) *application.Reply {
			return f.ChooseStatus(ctx, c.ChatID, c.Data)
		}},
		{Prefix: application.PfxInbound, Fn: func(ctx context.Context, c callback) *application.Reply {
			return f.ToggleInbound(ctx, c.ChatID, c.Data)
		}},
		{Prefix: application.PfxProtocol, Fn: func(ctx context.Context, c callback) *application.Reply {
			return f.ToggleProtocol(ctx, c.ChatID, c.Data)
		}},
		{Prefix: application.PfxRestartOK, Fn: func(ctx context.Context, c callback) *application.Reply {
			return f.Restart(ctx, c.Data, c.Op)
		}},
		{Prefix: application.PfxBulkDelete, Fn: func(ctx context.Context, c callback) *application.Reply {
			return f.AskBulkDelete(ctx, c.Data)
		}},
		{Prefix: application.PfxBulkDeleteOK, Fn: bulkRoute("delete_by_status", func(ctx context.Context, c callback) *application.Reply {
			return f.BulkDelete(ctx, c.Data, c.Op)
		})},
		{Prefix: application.PfxBulkValue, Fn: func(ctx context.Context, c callback) *application.Reply {
			return f.StartBulkValue(ctx, c.ChatID, model.WizardFlow(c.Data))
		}},
		{Prefix: application.PfxBulkApply, Fn: bulkRoute("adjust", func(ctx context.Context, c callback) *application.Reply {
			return f.ApplyBulkValue(ctx, c.Data, c.Op)
		})},
		{Prefix: application.PfxBulkInbound, Fn: func(ctx context.Context, c callback) *application.Reply {
			return f.BulkInboundTags(ctx, c.Data)
		}},
		{Prefix: application.PfxBulkInboundAsk, Fn: func(ctx context.Context, c callback) *application.Reply {
			return f.AskBulkInbound(ctx, c.Data)
		}},
		{Prefix: application.PfxBulkInboundDo, Fn: bulkRoute("inbound", func(ctx context.Context, c callback) *application.Reply {
			return f.BulkInbound(ctx, c.Data, c.Op)
		})},
	}
}

// bulkRoute counts the outcome of a bulk operation.
func bulkRoute(kind string, next cbHandler) cbHandler {
	return func(ctx context.Context, c callback) *application.Reply {
		r := next(ctx, c)
		metrics.IncBulkOperation(kind, outcome(r))
		return r
	}
}

// commitCBRoute commits the wizard and counts the result per flow.
func (d *Dispatcher) commitCBRoute(ctx context.Context, c callback) *application.Reply {
	flow := "unknown"
	if s, _ := d.facade.CurrentSession(ctx, c.ChatID); s != nil {
		flow = string(s.Flow)
	}
	r := d.facade.Commit(ctx, c.ChatID, c.Op)
	metrics.IncWizardCommit(flow, outcome(r))
	return r
}

// splitPayload cuts "action:name".
func splitPayload(s string) (string, string) {
	action, name, _ := strings.Cut(s, ":")
	return action, name
}
