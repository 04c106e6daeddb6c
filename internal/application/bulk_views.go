package application

import (
	"context"
	"strconv"

	"proxy-admin-bot/internal/domain"
	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/adapter"
	"proxy-admin-bot/internal/usecase"
)

func (f *AdminFacade) BulkMenu(ctx context.Context) *Reply {
	return &Reply{
		Text: f.tr.T("bulk.title"),
		Keyboard: adapter.Keyboard{
			row(
				button(f.tr.T("btn.bulk_delete_expired"), PfxBulkDelete+string(model.StatusExpired)),
				button(f.tr.T("btn.bulk_delete_limited"), PfxBulkDelete+string(model.StatusLimited)),
			),
			row(
				button(f.tr.T("btn.bulk_add_data"), PfxBulkValue+string(model.FlowBulkAddData)),
				button(f.tr.T("btn.bulk_add_days"), PfxBulkValue+string(model.FlowBulkAddTime)),
			),
			row(
				button(f.tr.T("btn.bulk_add_inbound"), PfxBulkInbound+modeAdd),
				button(f.tr.T("btn.bulk_remove_inbound"), PfxBulkInbound+modeRemove),
			),
			row(button(f.tr.T("btn.menu"), CbMenu)),
		},
		Edit: true,
	}
}

func (f *AdminFacade) AskBulkDelete(ctx context.Context, status string) *Reply {
	st := model.AccountStatus(status)
	if st != model.StatusExpired && st != model.StatusLimited {
		return f.alert(domain.NewValidationError("err.bulk_status_invalid", status))
	}
	return &Reply{
		Text: f.tr.T("confirm.bulk_delete", f.tr.T("status."+status)),
		Keyboard: adapter.Keyboard{
			row(button(f.tr.T("btn.yes"), PfxBulkDeleteOK+status), button(f.tr.T("btn.no"), CbBulk)),
		},
		Edit: true,
	}
}

func (f *AdminFacade) BulkDelete(ctx context.Context, status string, op usecase.Operator) *Reply {
	res, err := f.Bulk.DeleteByStatus(ctx, model.AccountStatus(status), op)
	if err != nil {
		return f.bulkFailed(ctx, err)
	}
	r := f.bulkDone("bulk.deleted", res)
	r.Document = res.Report
	return r
}

// ApplyBulkValue runs a confirmed bulk data or time adjustment. payload is
// "<flow>:<value>".
func (f *AdminFacade) ApplyBulkValue(ctx context.Context, payload string, op usecase.Operator) *Reply {
	flow, raw, _ := splitArg(payload)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v == 0 {
		return f.alert(domain.NewValidationError("err.bulk_value_invalid"))
	}
	var res *usecase.BulkResult
	switch model.WizardFlow(flow) {
	case model.FlowBulkAddData:
		res, err = f.Bulk.AddData(ctx, v, op)
	case model.FlowBulkAddTime:
		res, err = f.Bulk.AddDays(ctx, int(v), op)
	default:
		return f.alert(domain.NewValidationError("err.bulk_value_invalid"))
	}
	if err != nil {
		return f.bulkFailed(ctx, err)
	}
	return f.bulkDone("bulk.updated", res)
}

// BulkInboundTags lists every inbound tag for a bulk add or remove.
func (f *AdminFacade) BulkInboundTags(ctx context.Context, mode string) *Reply {
	if mode != modeAdd && mode != modeRemove {
		return f.alert(domain.NewValidationError("err.unknown_action"))
	}
	byTag := f.Inbounds.InboundsByTag()
	tags := sortedTags(byTag)
	prefix := PfxBulkInboundAsk + mode + ":"
	kb := make(adapter.Keyboard, 0, len(tags)+1)
	for _, tag := range tags {
		kb = append(kb, row(button(string(byTag[tag].Protocol)+" · "+tag, prefix+inboundRef(prefix, tag, tags))))
	}
	kb = append(kb, row(button(f.tr.T("btn.back"), CbBulk)))
	return &Reply{Text: f.tr.T("bulk.choose_inbound_"+mode), Keyboard: kb, Edit: true}
}

func (f *AdminFacade) AskBulkInbound(ctx context.Context, payload string) *Reply {
	mode, ref, ok := splitArg(payload)
	if !ok || ref == "" {
		return f.alert(domain.NewValidationError("err.unknown_action"))
	}
	tag := resolveInbound(ref, f.Inbounds.InboundsByTag())
	return &Reply{
		Text: f.tr.T("confirm.bulk_inbound_"+mode, tag),
		Keyboard: adapter.Keyboard{
			row(button(f.tr.T("btn.yes"), PfxBulkInboundDo+payload), button(f.tr.T("btn.no"), CbBulk)),
		},
		Edit: true,
	}
}

func (f *AdminFacade) BulkInbound(ctx context.Context, payload string, op usecase.Operator) *Reply {
	mode, ref, _ := splitArg(payload)
	tag := resolveInbound(ref, f.Inbounds.InboundsByTag())
	var (
		res *usecase.BulkResult
		err error
	)
	switch mode {
	case modeAdd:
		res, err = f.Bulk.AddInbound(ctx, tag, op)
	case modeRemove:
		res, err = f.Bulk.RemoveInbound(ctx, tag, op)
	default:
		return f.alert(domain.NewValidationError("err.unknown_action"))
	}
	if err != nil {
		return f.bulkFailed(ctx, err)
	}
	return f.bulkDone("bulk.updated", res)
}

func (f *AdminFacade) bulkDone(key string, res *usecase.BulkResult) *Reply {
	text := f.tr.T(key, len(res.Affected))
	if len(res.Skipped) > 0 || len(res.Failed) > 0 {
		text += "\n" + f.tr.T("bulk.partial", len(res.Skipped), len(res.Failed))
	}
	return &Reply{
		Text:     text,
		Keyboard: adapter.Keyboard{row(button(f.tr.T("btn.bulk"), CbBulk), button(f.tr.T("btn.menu"), CbMenu))},
		Edit:     true,
	}
}

// bulkFailed keeps a busy lock as a popup so the confirm screen stays.
func (f *AdminFacade) bulkFailed(ctx context.Context, err error) *Reply {
	if domain.KindOf(err) == domain.KindConflict || domain.KindOf(err) == domain.KindValidation {
		return f.alert(err)
	}
	r := f.fail(ctx, err)
	r.Edit = true
	return r
}
