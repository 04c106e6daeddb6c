package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"proxy-admin-bot/internal/domain"
	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/adapter"
	"proxy-admin-bot/internal/usecase"
)

var statusIcon = map[model.AccountStatus]string{
	model.StatusActive:   "✅",
	model.StatusOnHold:   "🔌",
	model.StatusDisabled: "❌",
	model.StatusLimited:  "🪫",
	model.StatusExpired:  "📅",
}

func (f *AdminFacade) expiryLine(a *model.Account) string {
	if a.Status == model.StatusOnHold {
		days := a.OnHoldExpireDuration / 86400
		if days <= 0 {
			return f.tr.T("card.on_hold_unlimited")
		}
		return f.tr.T("card.on_hold_days", days)
	}
	return model.ExpiryText(a.Expire)
}

func (f *AdminFacade) accountText(a *model.Account) string {
	var b strings.Builder
	b.WriteString(f.tr.T("card.account",
		a.Username,
		statusIcon[a.Status], f.tr.T("status."+string(a.Status)),
		model.DataLimitText(a.DataLimit),
		model.ReadableSize(a.UsedTraffic),
		model.ReadableSize(a.LifetimeUsedTraffic),
		f.expiryLine(a),
		a.Inbounds.String(),
	))
	if a.Note != "" {
		b.WriteString("\n")
		b.WriteString(f.tr.T("card.note", a.Note))
	}
	return b.String()
}

func (f *AdminFacade) accountKeyboard(a *model.Account) adapter.Keyboard {
	name := a.Username
	toggle := button(f.tr.T("btn.suspend"), cbAsk(ActionSuspend, name))
	if a.Status == model.StatusDisabled {
		toggle = button(f.tr.T("btn.activate"), cbAsk(ActionActivate, name))
	}
	return adapter.Keyboard{
		row(button(f.tr.T("btn.edit"), PfxEdit+name), button(f.tr.T("btn.note"), PfxNote+name)),
		row(button(f.tr.T("btn.links"), PfxLinks+name), button(f.tr.T("btn.qr"), PfxQR+name)),
		row(button(f.tr.T("btn.charge"), PfxCharge+name), button(f.tr.T("btn.reset"), cbAsk(ActionReset, name))),
		row(toggle, button(f.tr.T("btn.revoke"), cbAsk(ActionRevoke, name))),
		row(button(f.tr.T("btn.delete"), cbAsk(ActionDelete, name))),
		row(button(f.tr.T("btn.users"), cbUsers(1)), button(f.tr.T("btn.menu"), CbMenu)),
	}
}

func (f *AdminFacade) accountReply(a *model.Account) *Reply {
	return &Reply{Text: f.accountText(a), Keyboard: f.accountKeyboard(a), Checkpoint: true}
}

// Account shows one account card.
func (f *AdminFacade) Account(ctx context.Context, username string) *Reply {
	acc, err := f.Accounts.Get(ctx, username)
	if err != nil {
		return f.fail(ctx, err)
	}
	r := f.accountReply(acc)
	r.Edit = true
	return r
}

// Users lists one page of accounts.
func (f *AdminFacade) Users(ctx context.Context, page int) *Reply {
	if page < 1 {
		page = 1
	}
	list, pages, err := f.Accounts.List(ctx, page)
	if err != nil {
		return f.fail(ctx, err)
	}
	if len(list) == 0 {
		return &Reply{Text: f.tr.T("users.empty"), Keyboard: f.backToMenu(), Edit: true}
	}
	kb := make(adapter.Keyboard, 0, len(list)/2+2)
	for i := 0; i < len(list); i += 2 {
		r := row(button(statusIcon[list[i].Status]+" "+list[i].Username, cbUser(list[i].Username)))
		if i+1 < len(list) {
			r = append(r, button(statusIcon[list[i+1].Status]+" "+list[i+1].Username, cbUser(list[i+1].Username)))
		}
		kb = append(kb, r)
	}
	var nav []adapter.InlineButton
	if page > 1 {
		nav = append(nav, button("⬅️", cbUsers(page-1)))
	}
	nav = append(nav, button(fmt.Sprintf("%d/%d", page, pages), CbNoop))
	if page < pages {
		nav = append(nav, button("➡️", cbUsers(page+1)))
	}
	kb = append(kb, nav, row(button(f.tr.T("btn.menu"), CbMenu)))
	return &Reply{Text: f.tr.T("users.title", page, pages), Keyboard: kb, Edit: true}
}

// Search looks up the usernames of a /user command, one card per hit.
func (f *AdminFacade) Search(ctx context.Context, names []string) []*Reply {
	if len(names) == 0 {
		return []*Reply{{Text: f.tr.T("users.search_usage")}}
	}
	found, missing, err := f.Accounts.Search(ctx, names)
	if err != nil {
		return []*Reply{f.fail(ctx, err)}
	}
	out := make([]*Reply, 0, len(found)+1)
	for _, a := range found {
		out = append(out, f.accountReply(a))
	}
	if len(missing) > 0 {
		out = append(out, &Reply{Text: f.tr.T("users.missing", strings.Join(missing, ", "))})
	}
	return out
}

// --- confirmed actions ---

func validAction(action string) bool {
	switch action {
	case ActionDelete, ActionSuspend, ActionActivate, ActionReset, ActionRevoke:
		return true
	}
	return false
}

// AskAction asks the operator to confirm a destructive account action.
func (f *AdminFacade) AskAction(ctx context.Context, action, username string) *Reply {
	if !validAction(action) {
		return f.alert(domain.NewValidationError("err.unknown_action"))
	}
	return &Reply{
		Text: f.tr.T("confirm."+action, username),
		Keyboard: adapter.Keyboard{
			row(button(f.tr.T("btn.yes"), cbDo(action, username)), button(f.tr.T("btn.no"), cbUser(username))),
		},
		Edit: true,
	}
}

// DoAction runs a confirmed account action.
func (f *AdminFacade) DoAction(ctx context.Context, action, username string, op usecase.Operator) *Reply {
	var (
		acc *model.Account
		err error
	)
	switch action {
	case ActionDelete:
		if err := f.Accounts.Delete(ctx, username, op); err != nil {
			return f.fail(ctx, err)
		}
		return &Reply{
			Text:       f.tr.T("done.delete", username),
			Keyboard:   adapter.Keyboard{row(button(f.tr.T("btn.users"), cbUsers(1)), button(f.tr.T("btn.menu"), CbMenu))},
			Edit:       true,
			Checkpoint: true,
		}
	case ActionSuspend:
		acc, err = f.Accounts.Suspend(ctx, username, op)
	case ActionActivate:
		acc, err = f.Accounts.Activate(ctx, username, op)
	case ActionReset:
		acc, err = f.Accounts.ResetUsage(ctx, username, op)
	case ActionRevoke:
		acc, err = f.Accounts.RevokeSubscription(ctx, username, op)
	default:
		return f.alert(domain.NewValidationError("err.unknown_action"))
	}
	return f.afterWrite(ctx, "done."+action, acc, err)
}

// afterWrite renders the outcome of an account write. An account returned
// together with an error was saved but not pushed to the core.
func (f *AdminFacade) afterWrite(ctx context.Context, doneKey string, acc *model.Account, err error) *Reply {
	if acc == nil {
		return f.fail(ctx, err)
	}
	r := f.accountReply(acc)
	r.Edit = true
	if err != nil {
		r.Text = "⚠️ " + f.errText(err) + "\n\n" + r.Text
		r.Err = err
		return r
	}
	r.Text = f.tr.T(doneKey, acc.Username) + "\n\n" + r.Text
	return r
}

// --- links & QR ---

func (f *AdminFacade) AccountLinks(ctx context.Context, username string) *Reply {
	l, err := f.Links.Links(ctx, username)
	if err != nil {
		return f.fail(ctx, err)
	}
	var b strings.Builder
	b.WriteString(f.tr.T("links.title", l.Account.Username))
	b.WriteString("\n\n")
	b.WriteString(f.tr.T("links.subscription", l.SubscriptionURL))
	for _, sl := range l.Links {
		b.WriteString("\n\n")
		b.WriteString(sl.Tag)
		b.WriteString(":\n")
		b.WriteString(sl.URL)
	}
	return &Reply{
		Text:     b.String(),
		Keyboard: adapter.Keyboard{row(button(f.tr.T("btn.back"), cbUser(username)))},
	}
}

func (f *AdminFacade) AccountQR(ctx context.Context, username string) *Reply {
	images, err := f.Links.QRCodes(ctx, username)
	if err != nil {
		return f.fail(ctx, err)
	}
	return &Reply{Photos: images}
}

// --- note ---

func (f *AdminFacade) StartNote(ctx context.Context, chatID int64, username string) *Reply {
	_, acc, err := f.Wizard.StartNote(ctx, chatID, username)
	if err != nil {
		return f.fail(ctx, err)
	}
	return f.prompt(f.tr.T("prompt.note", acc.Username, noteOrDash(acc.Note)))
}

func noteOrDash(n string) string {
	if n == "" {
		return "-"
	}
	return n
}

// --- charge ---

// ChargeTemplates lists the templates an account can be charged with.
func (f *AdminFacade) ChargeTemplates(ctx context.Context, username string) *Reply {
	tpls, err := f.Accounts.Templates(ctx)
	if err != nil {
		return f.fail(ctx, err)
	}
	if len(tpls) == 0 {
		return f.alert(domain.NewNotFoundError("err.no_templates"))
	}
	kb := make(adapter.Keyboard, 0, len(tpls)+1)
	for _, t := range tpls {
		kb = append(kb, row(button(f.templateLabel(t), cbChargeTemplate(t.ID, username))))
	}
	kb = append(kb, row(button(f.tr.T("btn.back"), cbUser(username))))
	return &Reply{Text: f.tr.T("charge.choose", username), Keyboard: kb, Edit: true}
}

func (f *AdminFacade) templateLabel(t *model.UserTemplate) string {
	days := f.tr.T("tpl.no_expiry")
	if t.ExpireDuration > 0 {
		days = f.tr.T("tpl.days", t.ExpireDuration/86400)
	}
	return t.Name + " · " + model.DataLimitText(t.DataLimit) + " · " + days
}

// ChargeChoice asks whether to add the template on top of what is left or
// to reset the account to it. Depleted or inactive accounts only reset.
func (f *AdminFacade) ChargeChoice(ctx context.Context, templateID int64, username string) *Reply {
	tpl, err := f.Accounts.Template(ctx, templateID)
	if err != nil {
		return f.fail(ctx, err)
	}
	choice, err := f.Accounts.NeedsChargeChoice(ctx, username)
	if err != nil {
		return f.fail(ctx, err)
	}
	back := button(f.tr.T("btn.no"), cbUser(username))
	if !choice {
		return &Reply{
			Text: f.tr.T("confirm.charge_reset", username, tpl.Name),
			Keyboard: adapter.Keyboard{
				row(button(f.tr.T("btn.yes"), cbChargeApply(modeReset, tpl.ID, username)), back),
			},
			Edit: true,
		}
	}
	return &Reply{
		Text: f.tr.T("confirm.charge_choice", username, tpl.Name),
		Keyboard: adapter.Keyboard{
			row(button(f.tr.T("btn.charge_add"), cbChargeApply(modeAdd, tpl.ID, username))),
			row(button(f.tr.T("btn.charge_reset"), cbChargeApply(modeReset, tpl.ID, username))),
			row(back),
		},
		Edit: true,
	}
}

func (f *AdminFacade) Charge(ctx context.Context, templateID int64, username string, add bool, op usecase.Operator) *Reply {
	acc, err := f.Accounts.Charge(ctx, username, templateID, add, op)
	return f.afterWrite(ctx, "done.charge", acc, err)
}

// templateButtons lists templates as create-from-template entries.
func (f *AdminFacade) templateButtons(ctx context.Context) (adapter.Keyboard, error) {
	tpls, err := f.Accounts.Templates(ctx)
	if err != nil {
		return nil, err
	}
	kb := make(adapter.Keyboard, 0, len(tpls))
	for _, t := range tpls {
		kb = append(kb, row(button("📋 "+f.templateLabel(t), cbTemplate(t.ID))))
	}
	return kb, nil
}

// ParsePage reads a page number, defaulting to the first page.
func ParsePage(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
