package application

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"proxy-admin-bot/internal/domain"
	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/adapter"
	"proxy-admin-bot/internal/infra/logging"
	"proxy-admin-bot/internal/usecase"
)

// Reply is a rendered screen. The transport decides how to deliver it.
type Reply struct {
	Text     string
	Keyboard adapter.Keyboard
	// Edit replaces the message the callback came from.
	Edit bool
	// Alert is shown as a callback popup; Text may be empty then.
	Alert string
	// Prompt marks a wizard question. Prompts are deleted once the flow ends.
	Prompt     bool
	ForceReply bool
	// Checkpoint flushes the chat's pending prompt messages.
	Checkpoint bool
	Photos     []usecase.QRImage
	Document   *model.Attachment
	// Err is the failure behind an error screen, kept for metrics.
	Err error
}

// AdminFacade composes the admin usecases into chat screens. Facade methods
// never fail; errors are rendered into the Reply.
type AdminFacade struct {
	Wizard   usecase.WizardUseCase
	Accounts usecase.AccountUseCase
	Bulk     usecase.BulkUseCase
	System   usecase.SystemUseCase
	Links    usecase.LinksUseCase
	Inbounds InboundCatalog

	tr  Translator
	log *zerolog.Logger
}

func NewAdminFacade(
	wizard usecase.WizardUseCase,
	accounts usecase.AccountUseCase,
	bulk usecase.BulkUseCase,
	system usecase.SystemUseCase,
	links usecase.LinksUseCase,
	inbounds InboundCatalog,
	tr Translator,
	logger *zerolog.Logger,
) *AdminFacade {
	return &AdminFacade{
		Wizard:   wizard,
		Accounts: accounts,
		Bulk:     bulk,
		System:   system,
		Links:    links,
		Inbounds: inbounds,
		tr:       tr,
		log:      logger,
	}
}

// errText renders err for the operator. Only FlowErrors carry user-facing
// text; anything else is reported generically.
func (f *AdminFacade) errText(err error) string {
	var fe *domain.FlowError
	if errors.As(err, &fe) {
		return f.tr.T(fe.Key, fe.Args...)
	}
	return f.tr.T("err.internal")
}

func (f *AdminFacade) fail(ctx context.Context, err error) *Reply {
	if domain.KindOf(err) == "" || domain.KindOf(err) == domain.KindUpstream {
		logging.With(ctx, f.log).Error().Err(err).Msg("admin action failed")
	}
	return &Reply{Text: "⚠️ " + f.errText(err), Keyboard: f.backToMenu(), Err: err}
}

// alert reports err as a popup and leaves the current screen untouched.
func (f *AdminFacade) alert(err error) *Reply {
	return &Reply{Alert: f.errText(err), Err: err}
}

func button(text, data string) adapter.InlineButton {
	return adapter.InlineButton{Text: text, Data: data}
}

func row(b ...adapter.InlineButton) []adapter.InlineButton { return b }

func (f *AdminFacade) backToMenu() adapter.Keyboard {
	return adapter.Keyboard{row(button(f.tr.T("btn.menu"), CbMenu))}
}

func (f *AdminFacade) cancelRow() []adapter.InlineButton {
	return row(button(f.tr.T("btn.cancel"), CbCancel))
}

// --- menu & system ---

// Menu is the admin home screen. Any pending wizard is left alone; starting
// another flow replaces it.
func (f *AdminFacade) Menu(ctx context.Context) *Reply {
	return &Reply{
		Text: f.tr.T("menu.title"),
		Keyboard: adapter.Keyboard{
			row(button(f.tr.T("btn.system_info"), CbSystemInfo), button(f.tr.T("btn.restart"), CbRestart)),
			row(button(f.tr.T("btn.create"), CbCreate), button(f.tr.T("btn.users"), cbUsers(1))),
			row(button(f.tr.T("btn.bulk"), CbBulk), button(f.tr.T("btn.help"), CbHelp)),
		},
		Checkpoint: true,
	}
}

func (f *AdminFacade) Help(ctx context.Context) *Reply {
	return &Reply{Text: f.tr.T("help.text"), Keyboard: f.backToMenu()}
}

func (f *AdminFacade) Unauthorized() *Reply {
	return &Reply{Text: f.tr.T("err.not_admin")}
}

func (f *AdminFacade) RateLimited() *Reply {
	return &Reply{Alert: f.tr.T("err.rate_limited"), Text: f.tr.T("err.rate_limited"), Err: domain.ErrRateLimited}
}

// Cancel abandons the chat's wizard and returns home.
func (f *AdminFacade) Cancel(ctx context.Context, chatID int64) *Reply {
	if err := f.Wizard.Cancel(ctx, chatID); err != nil {
		return f.fail(ctx, err)
	}
	r := f.Menu(ctx)
	r.Text = f.tr.T("wizard.cancelled") + "\n\n" + r.Text
	return r
}

func (f *AdminFacade) SystemInfo(ctx context.Context) *Reply {
	st, err := f.System.Stats(ctx)
	if err != nil {
		return f.fail(ctx, err)
	}
	by := st.UsersByStatus
	text := f.tr.T("sys.info",
		st.Host.CPUCores,
		st.Host.CPUUsage,
		model.ReadableSize(int64(st.Host.MemUsed)),
		model.ReadableSize(int64(st.Host.MemTotal)),
		model.ReadableSize(int64(st.IncomingBandwidth+st.OutgoingBandwidth)),
		model.ReadableSize(int64(st.IncomingBandwidth)),
		model.ReadableSize(int64(st.OutgoingBandwidth)),
		model.ReadableSize(int64(st.Host.IncomingBytesPerSec)),
		model.ReadableSize(int64(st.Host.OutgoingBytesPerSec)),
		st.TotalUsers,
		by[model.StatusActive],
		by[model.StatusOnHold],
		by[model.StatusDisabled],
		by[model.StatusLimited],
		by[model.StatusExpired],
	)
	return &Reply{
		Text: text,
		Keyboard: adapter.Keyboard{
			row(button(f.tr.T("btn.refresh"), CbSystemInfo)),
			row(button(f.tr.T("btn.menu"), CbMenu)),
		},
		Edit: true,
	}
}

func (f *AdminFacade) AskRestart(ctx context.Context) *Reply {
	return &Reply{
		Text: f.tr.T("confirm.restart"),
		Keyboard: adapter.Keyboard{
			row(button(f.tr.T("btn.restart_core"), PfxRestartOK+"core")),
			row(button(f.tr.T("btn.restart_nodes"), PfxRestartOK+"nodes")),
			row(button(f.tr.T("btn.no"), CbMenu)),
		},
		Edit: true,
	}
}

// Restart restarts the core; target "nodes" also restarts every node.
func (f *AdminFacade) Restart(ctx context.Context, target string, op usecase.Operator) *Reply {
	withNodes := target == "nodes"
	if err := f.System.RestartCore(ctx, withNodes, op); err != nil {
		return f.fail(ctx, err)
	}
	key := "sys.restarted"
	if withNodes {
		key = "sys.restarted_nodes"
	}
	return &Reply{Text: f.tr.T(key), Keyboard: f.backToMenu(), Edit: true}
}

func (f *AdminFacade) UnknownAction() *Reply {
	return f.alert(domain.NewValidationError("err.unknown_action"))
}

// Describe returns the menu description of a bot command.
func (f *AdminFacade) Describe(command string) string {
	return f.tr.T("cmd." + command)
}

// CurrentSession returns the chat's wizard session, nil when idle. A store
// failure is returned as an error screen.
func (f *AdminFacade) CurrentSession(ctx context.Context, chatID int64) (*model.WizardSession, *Reply) {
	s, err := f.Wizard.Session(ctx, chatID)
	if err != nil {
		return nil, f.fail(ctx, err)
	}
	return s, nil
}

// Idle answers free text sent outside a wizard step.
func (f *AdminFacade) Idle(ctx context.Context) *Reply {
	r := f.Menu(ctx)
	r.Text = f.tr.T("menu.idle_hint") + "\n\n" + r.Text
	return r
}
