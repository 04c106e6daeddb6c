package application

import (
	"context"
	"strings"

	"proxy-admin-bot/internal/domain"
	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/adapter"
	"proxy-admin-bot/internal/usecase"
)

func (f *AdminFacade) sessionExpiry(s *model.WizardSession) string {
	if s.Status == model.StatusOnHold {
		if s.OnHoldDays <= 0 {
			return f.tr.T("card.on_hold_unlimited")
		}
		return f.tr.T("card.on_hold_days", s.OnHoldDays)
	}
	return model.ExpiryText(s.ExpireAt)
}

// prompt asks for free text. The reply box replaces the inline keyboard, so
// cancelling goes through /cancel.
func (f *AdminFacade) prompt(text string) *Reply {
	return &Reply{Text: text + "\n\n" + f.tr.T("prompt.cancel_hint"), Prompt: true, ForceReply: true}
}

// promptFor renders the question of the session's current step.
func (f *AdminFacade) promptFor(s *model.WizardSession) *Reply {
	switch s.Step {
	case model.StepAwaitingUsername:
		key := "prompt.username"
		if s.Flow == model.FlowCreateFromTmpl {
			key = "prompt.username_template"
		}
		text := f.tr.T(key)
		if s.RetryUsername {
			text = f.tr.T("prompt.username_retry") + "\n" + text
		}
		return &Reply{
			Text: text,
			Keyboard: adapter.Keyboard{
				row(button(f.tr.T("btn.random_username"), CbWizardRandom)),
				f.cancelRow(),
			},
			Prompt: true,
		}
	case model.StepAwaitingDataLimit:
		return f.prompt(f.tr.T("prompt.data_limit"))
	case model.StepEditingDataLimit:
		return f.prompt(f.tr.T("prompt.data_limit")+"\n"+f.tr.T("prompt.current", model.DataLimitText(s.DataLimit)))
	case model.StepAwaitingStatus:
		return &Reply{
			Text: f.tr.T("prompt.status"),
			Keyboard: adapter.Keyboard{
				row(
					button(f.tr.T("status.active"), PfxStatus+string(model.StatusActive)),
					button(f.tr.T("status.on_hold"), PfxStatus+string(model.StatusOnHold)),
				),
				f.cancelRow(),
			},
			Prompt: true,
		}
	case model.StepAwaitingExpiry, model.StepEditingExpiry:
		key := "prompt.expiry"
		if s.Status == model.StatusOnHold {
			key = "prompt.on_hold_days"
		}
		text := f.tr.T(key)
		if s.Step == model.StepEditingExpiry {
			text += "\n" + f.tr.T("prompt.current", f.sessionExpiry(s))
		}
		return f.prompt(text)
	case model.StepAwaitingProtocols:
		return f.board(s)
	case model.StepAwaitingNote:
		return f.prompt(f.tr.T("prompt.note_retry", s.Username))
	case model.StepAwaitingBulkData:
		return f.prompt(f.tr.T("prompt.bulk_data"))
	case model.StepAwaitingBulkDays:
		return f.prompt(f.tr.T("prompt.bulk_days"))
	}
	return &Reply{Text: f.tr.T("menu.title"), Keyboard: f.backToMenu(), Checkpoint: true}
}

// board is the protocol and inbound selection screen that ends every
// create and edit flow.
func (f *AdminFacade) board(s *model.WizardSession) *Reply {
	title := "board.title"
	if s.Flow == model.FlowEdit {
		title = "board.edit_title"
	}
	text := f.tr.T(title, s.Username, model.DataLimitText(s.DataLimit), f.sessionExpiry(s)) +
		"\n" + f.tr.T("board.selected", s.Protocols.String())

	byProtocol := f.Inbounds.InboundsByProtocol()
	tags := sortedTags(f.Inbounds.InboundsByTag())
	var kb adapter.Keyboard
	for _, p := range model.AllProxyTypes {
		infos := byProtocol[p]
		if len(infos) == 0 {
			continue
		}
		mark := "⬜"
		if _, ok := s.Protocols[p]; ok {
			mark = "✅"
		}
		kb = append(kb, row(button(mark+" "+strings.ToUpper(string(p)), cbProtocol(p))))
		var buttons []adapter.InlineButton
		for _, in := range infos {
			m := "▫️"
			if s.Protocols.Has(p, in.Tag) {
				m = "☑️"
			}
			buttons = append(buttons, button(m+" "+in.Tag, PfxInbound+inboundRef(PfxInbound, in.Tag, tags)))
			if len(buttons) == 2 {
				kb = append(kb, buttons)
				buttons = nil
			}
		}
		if len(buttons) > 0 {
			kb = append(kb, buttons)
		}
	}
	if s.Flow == model.FlowEdit {
		kb = append(kb, row(
			button(f.tr.T("btn.edit_data"), CbWizardData),
			button(f.tr.T("btn.edit_expiry"), CbWizardExpiry),
		))
	}
	kb = append(kb, row(button(f.tr.T("btn.done"), CbWizardCommit), button(f.tr.T("btn.cancel"), CbCancel)))
	return &Reply{Text: text, Keyboard: kb, Prompt: true}
}

// stepReply renders the session after an input. A failed input with the
// session still present re-asks the same question.
func (f *AdminFacade) stepReply(ctx context.Context, s *model.WizardSession, err error) *Reply {
	if s == nil {
		r := f.fail(ctx, err)
		r.Checkpoint = true
		return r
	}
	r := f.promptFor(s)
	if err != nil {
		r.Text = "⚠️ " + f.errText(err) + "\n\n" + r.Text
		r.Err = err
	}
	return r
}

// retry reloads the session after a failed terminal step so the operator
// can correct the input.
func (f *AdminFacade) retry(ctx context.Context, chatID int64, err error) *Reply {
	if domain.IsRecoverable(err) {
		if s, serr := f.Wizard.Session(ctx, chatID); serr == nil && s != nil {
			return f.stepReply(ctx, s, err)
		}
	}
	r := f.fail(ctx, err)
	r.Checkpoint = true
	return r
}

// boardUpdate answers a board button: errors pop up, success redraws the
// board in place.
func (f *AdminFacade) boardUpdate(s *model.WizardSession, err error) *Reply {
	if err != nil {
		r := f.alert(err)
		if s == nil {
			r.Text = f.errText(err)
			r.Keyboard = f.backToMenu()
			r.Edit = true
		}
		return r
	}
	r := f.promptFor(s)
	r.Edit = true
	return r
}

// --- create & edit ---

// CreateMenu offers a manual create and one entry per template.
func (f *AdminFacade) CreateMenu(ctx context.Context) *Reply {
	kb, err := f.templateButtons(ctx)
	if err != nil {
		return f.fail(ctx, err)
	}
	kb = append(adapter.Keyboard{row(button(f.tr.T("btn.create_manual"), CbCreateManual))}, kb...)
	kb = append(kb, f.cancelRow())
	return &Reply{Text: f.tr.T("create.choose"), Keyboard: kb, Edit: true}
}

func (f *AdminFacade) StartCreate(ctx context.Context, chatID int64) *Reply {
	s, err := f.Wizard.StartCreate(ctx, chatID)
	if err != nil {
		return f.fail(ctx, err)
	}
	return f.promptFor(s)
}

func (f *AdminFacade) StartFromTemplate(ctx context.Context, chatID, templateID int64) *Reply {
	s, tpl, err := f.Wizard.StartFromTemplate(ctx, chatID, templateID)
	if err != nil {
		return f.fail(ctx, err)
	}
	r := f.promptFor(s)
	r.Text = f.tr.T("create.template", tpl.Name, tpl.UsernamePrefix, tpl.UsernameSuffix) + "\n\n" + r.Text
	return r
}

func (f *AdminFacade) StartEdit(ctx context.Context, chatID int64, username string) *Reply {
	s, _, err := f.Wizard.StartEdit(ctx, chatID, username)
	if err != nil {
		return f.fail(ctx, err)
	}
	return f.board(s)
}

func (f *AdminFacade) SubmitUsername(ctx context.Context, chatID int64, input string) *Reply {
	s, err := f.Wizard.SubmitUsername(ctx, chatID, input)
	return f.stepReply(ctx, s, err)
}

func (f *AdminFacade) RandomUsername(ctx context.Context, chatID int64) *Reply {
	s, err := f.Wizard.RandomUsername(ctx, chatID)
	if err != nil && s != nil {
		return f.alert(err)
	}
	return f.stepReply(ctx, s, err)
}

func (f *AdminFacade) SubmitDataLimit(ctx context.Context, chatID int64, input string) *Reply {
	s, err := f.Wizard.SubmitDataLimit(ctx, chatID, input)
	return f.stepReply(ctx, s, err)
}

func (f *AdminFacade) ChooseStatus(ctx context.Context, chatID int64, status string) *Reply {
	s, err := f.Wizard.ChooseStatus(ctx, chatID, status)
	if err != nil && s != nil {
		return f.alert(err)
	}
	return f.stepReply(ctx, s, err)
}

func (f *AdminFacade) SubmitExpiry(ctx context.Context, chatID int64, input string) *Reply {
	s, err := f.Wizard.SubmitExpiry(ctx, chatID, input)
	return f.stepReply(ctx, s, err)
}

// ToggleInbound accepts a tag or an index ref from the board keyboard.
func (f *AdminFacade) ToggleInbound(ctx context.Context, chatID int64, ref string) *Reply {
	return f.boardUpdate(f.Wizard.ToggleInbound(ctx, chatID, resolveInbound(ref, f.Inbounds.InboundsByTag())))
}

func (f *AdminFacade) ToggleProtocol(ctx context.Context, chatID int64, protocol string) *Reply {
	return f.boardUpdate(f.Wizard.ToggleProtocol(ctx, chatID, protocol))
}

func (f *AdminFacade) BeginEditDataLimit(ctx context.Context, chatID int64) *Reply {
	s, err := f.Wizard.BeginEditDataLimit(ctx, chatID)
	if err != nil {
		return f.boardUpdate(s, err)
	}
	return f.promptFor(s)
}

func (f *AdminFacade) BeginEditExpiry(ctx context.Context, chatID int64) *Reply {
	s, err := f.Wizard.BeginEditExpiry(ctx, chatID)
	if err != nil {
		return f.boardUpdate(s, err)
	}
	return f.promptFor(s)
}

// Commit saves the wizard. A taken username sends the operator back to the
// username question; the rest of the selection is kept.
func (f *AdminFacade) Commit(ctx context.Context, chatID int64, op usecase.Operator) *Reply {
	acc, err := f.Wizard.Commit(ctx, chatID, op)
	switch {
	case err == nil:
		r := f.accountReply(acc)
		r.Text = f.tr.T("wizard.saved", acc.Username) + "\n\n" + r.Text
		return r
	case acc != nil:
		r := f.accountReply(acc)
		r.Text = "⚠️ " + f.errText(err) + "\n\n" + r.Text
		r.Err = err
		return r
	case domain.KindOf(err) == domain.KindValidation:
		return f.alert(err)
	}
	return f.retry(ctx, chatID, err)
}

// --- note & bulk values ---

func (f *AdminFacade) SubmitNote(ctx context.Context, chatID int64, input string, op usecase.Operator) *Reply {
	acc, err := f.Wizard.SubmitNote(ctx, chatID, input, op)
	if err != nil {
		return f.retry(ctx, chatID, err)
	}
	r := f.accountReply(acc)
	r.Text = f.tr.T("done.note", acc.Username) + "\n\n" + r.Text
	return r
}

func (f *AdminFacade) StartBulkValue(ctx context.Context, chatID int64, flow model.WizardFlow) *Reply {
	s, err := f.Wizard.StartBulkValue(ctx, chatID, flow)
	if err != nil {
		return f.fail(ctx, err)
	}
	return f.promptFor(s)
}

// SubmitBulkValue parses the adjustment and asks for confirmation before
// touching any account.
func (f *AdminFacade) SubmitBulkValue(ctx context.Context, chatID int64, input string) *Reply {
	flow, v, err := f.Wizard.SubmitBulkValue(ctx, chatID, input)
	if err != nil {
		return f.retry(ctx, chatID, err)
	}
	var text string
	if flow == model.FlowBulkAddData {
		text = f.tr.T("confirm.bulk_data", signedSize(v))
	} else {
		text = f.tr.T("confirm.bulk_days", v)
	}
	return &Reply{
		Text: text,
		Keyboard: adapter.Keyboard{
			row(button(f.tr.T("btn.yes"), cbBulkApply(flow, v)), button(f.tr.T("btn.no"), CbBulk)),
		},
		Checkpoint: true,
	}
}

func signedSize(v int64) string {
	if v < 0 {
		return "-" + model.ReadableSize(-v)
	}
	return "+" + model.ReadableSize(v)
}
