package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"proxy-admin-bot/internal/domain"
	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/adapter"
	"proxy-admin-bot/internal/domain/ports/repository"
	"proxy-admin-bot/internal/infra/logging"
)

// Compile-time check
var _ WizardUseCase = (*wizardUC)(nil)

// Operator identifies the admin performing an action.
type Operator struct {
	ID   int64
	Name string
}

// WizardUseCase drives the multi-step admin conversations. Every method
// loads the chat's session, validates the input against the current step and
// either advances the session or returns a *domain.FlowError leaving it as is.
type WizardUseCase interface {
	Session(ctx context.Context, chatID int64) (*model.WizardSession, error)
	Cancel(ctx context.Context, chatID int64) error

	StartCreate(ctx context.Context, chatID int64) (*model.WizardSession, error)
	StartFromTemplate(ctx context.Context, chatID, templateID int64) (*model.WizardSession, *model.UserTemplate, error)
	StartEdit(ctx context.Context, chatID int64, username string) (*model.WizardSession, *model.Account, error)

	SubmitUsername(ctx context.Context, chatID int64, input string) (*model.WizardSession, error)
	RandomUsername(ctx context.Context, chatID int64) (*model.WizardSession, error)
	SubmitDataLimit(ctx context.Context, chatID int64, input string) (*model.WizardSession, error)
	ChooseStatus(ctx context.Context, chatID int64, input string) (*model.WizardSession, error)
	SubmitExpiry(ctx context.Context, chatID int64, input string) (*model.WizardSession, error)
	ToggleInbound(ctx context.Context, chatID int64, tag string) (*model.WizardSession, error)
	ToggleProtocol(ctx context.Context, chatID int64, protocol string) (*model.WizardSession, error)
	BeginEditDataLimit(ctx context.Context, chatID int64) (*model.WizardSession, error)
	BeginEditExpiry(ctx context.Context, chatID int64) (*model.WizardSession, error)
	Commit(ctx context.Context, chatID int64, op Operator) (*model.Account, error)

	StartNote(ctx context.Context, chatID int64, username string) (*model.WizardSession, *model.Account, error)
	SubmitNote(ctx context.Context, chatID int64, input string, op Operator) (*model.Account, error)
	StartBulkValue(ctx context.Context, chatID int64, flow model.WizardFlow) (*model.WizardSession, error)
	SubmitBulkValue(ctx context.Context, chatID int64, input string) (model.WizardFlow, int64, error)
}

type wizardUC struct {
	sessions  repository.SessionStore
	accounts  repository.AccountRepository
	templates repository.TemplateRepository
	core      adapter.ProxyCore
	notifier  adapter.Notifier
	vlessFlow string
	log       *zerolog.Logger
	now       func() time.Time
}

func NewWizardUseCase(
	sessions repository.SessionStore,
	accounts repository.AccountRepository,
	templates repository.TemplateRepository,
	core adapter.ProxyCore,
	notifier adapter.Notifier,
	vlessFlow string,
	logger *zerolog.Logger,
) *wizardUC {
	if notifier == nil {
		notifier = adapter.NopNotifier{}
	}
	return &wizardUC{
		sessions:  sessions,
		accounts:  accounts,
		templates: templates,
		core:      core,
		notifier:  notifier,
		vlessFlow: vlessFlow,
		log:       logger,
		now:       time.Now,
	}
}

// --- session plumbing ---

func (w *wizardUC) load(ctx context.Context, chatID int64) (*model.WizardSession, error) {
	s, err := w.sessions.Get(ctx, chatID)
	if err != nil {
		return nil, domain.NewUpstreamError("err.session_store", err)
	}
	if s == nil {
		return nil, domain.NewNotFoundError("err.session_lost").WithCause(domain.ErrSessionLost)
	}
	if s.Protocols == nil {
		s.Protocols = model.Inbounds{}
	}
	return s, nil
}

func expect(s *model.WizardSession, allowed ...model.WizardStep) error {
	for _, st := range allowed {
		if s.Step == st {
			return nil
		}
	}
	return domain.NewValidationError("err.step_mismatch")
}

func (w *wizardUC) save(ctx context.Context, s *model.WizardSession) error {
	s.Touch(w.now())
	if err := w.sessions.Save(ctx, s); err != nil {
		return domain.NewUpstreamError("err.session_store", err)
	}
	return nil
}

func (w *wizardUC) advance(ctx context.Context, s *model.WizardSession, event string) error {
	if err := transition(ctx, s, event); err != nil {
		return domain.NewValidationError("err.step_mismatch").WithCause(err)
	}
	return w.save(ctx, s)
}

// finish marks the session committed and removes it.
func (w *wizardUC) finish(ctx context.Context, s *model.WizardSession) {
	if err := transition(ctx, s, evCommit); err != nil {
		w.log.Warn().Err(err).Int64("chat_id", s.ChatID).Msg("commit from unexpected step")
	}
	if err := w.sessions.Delete(ctx, s.ChatID); err != nil {
		w.log.Error().Err(err).Int64("chat_id", s.ChatID).Msg("failed to clear session")
	}
}

// lost clears a session whose required state vanished.
func (w *wizardUC) lost(ctx context.Context, chatID int64, cause error, key string, args ...any) error {
	if err := w.sessions.Delete(ctx, chatID); err != nil {
		w.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to clear session")
	}
	return domain.NewNotFoundError(key, args...).WithCause(cause)
}

func (w *wizardUC) Session(ctx context.Context, chatID int64) (*model.WizardSession, error) {
	s, err := w.sessions.Get(ctx, chatID)
	if err != nil {
		return nil, domain.NewUpstreamError("err.session_store", err)
	}
	return s, nil
}

// Cancel is legal from any step and leaves the chat idle.
func (w *wizardUC) Cancel(ctx context.Context, chatID int64) error {
	defer logging.TraceDuration(w.log, "WizardUC.Cancel")()
	if err := w.sessions.Delete(ctx, chatID); err != nil {
		return domain.NewUpstreamError("err.session_store", err)
	}
	return nil
}

// --- flow entry points ---

func (w *wizardUC) start(ctx context.Context, s *model.WizardSession, event string) (*model.WizardSession, error) {
	if err := transition(ctx, s, event); err != nil {
		return nil, err
	}
	if err := w.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (w *wizardUC) StartCreate(ctx context.Context, chatID int64) (*model.WizardSession, error) {
	defer logging.TraceDuration(w.log, "WizardUC.StartCreate")()
	return w.start(ctx, model.NewWizardSession(chatID, model.FlowCreate), evStartCreate)
}

func (w *wizardUC) StartFromTemplate(ctx context.Context, chatID, templateID int64) (*model.WizardSession, *model.UserTemplate, error) {
	defer logging.TraceDuration(w.log, "WizardUC.StartFromTemplate")()

	tpl, err := w.template(ctx, templateID)
	if err != nil {
		return nil, nil, err
	}
	s := model.NewWizardSession(chatID, model.FlowCreateFromTmpl)
	s.TemplateID = tpl.ID
	s.DataLimit = tpl.DataLimit
	s.SetStatus(model.StatusActive)
	s.SetExpiry(tpl.ExpireFrom(w.now()))
	s.Protocols = tpl.Inbounds.Clone()
	s, err = w.start(ctx, s, evStartTemplate)
	return s, tpl, err
}

func (w *wizardUC) StartEdit(ctx context.Context, chatID int64, username string) (*model.WizardSession, *model.Account, error) {
	defer logging.TraceDuration(w.log, "WizardUC.StartEdit")()

	acc, err := w.account(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	s := model.NewWizardSession(chatID, model.FlowEdit)
	s.Username = acc.Username
	s.DataLimit = acc.DataLimit
	s.Status = acc.Status
	if acc.Status == model.StatusOnHold {
		s.SetOnHold(int(acc.OnHoldExpireDuration / int64(day/time.Second)))
	} else {
		s.SetExpiry(acc.Expire)
	}
	s.Protocols = acc.Inbounds.Clone()
	s, err = w.start(ctx, s, evStartEdit)
	return s, acc, err
}

func (w *wizardUC) template(ctx context.Context, id int64) (*model.UserTemplate, error) {
	tpl, err := w.templates.FindByID(ctx, repository.NoTX, id)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && tpl.IsZero()) {
		return nil, domain.NewNotFoundError("err.template_not_found")
	}
	if err != nil {
		return nil, domain.NewUpstreamError("err.store_failed", err)
	}
	return tpl, nil
}

func (w *wizardUC) account(ctx context.Context, username string) (*model.Account, error) {
	acc, err := w.accounts.FindByUsername(ctx, repository.NoTX, username)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && acc == nil) {
		return nil, domain.NewNotFoundError("err.user_not_found", username)
	}
	if err != nil {
		return nil, domain.NewUpstreamError("err.store_failed", err)
	}
	return acc, nil
}

// --- field steps ---

func (w *wizardUC) SubmitUsername(ctx context.Context, chatID int64, input string) (*model.WizardSession, error) {
	defer logging.TraceDuration(w.log, "WizardUC.SubmitUsername")()
	s, err := w.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := expect(s, model.StepAwaitingUsername); err != nil {
		return s, err
	}
	return w.acceptUsername(ctx, s, strings.TrimSpace(input))
}

func (w *wizardUC) RandomUsername(ctx context.Context, chatID int64) (*model.WizardSession, error) {
	defer logging.TraceDuration(w.log, "WizardUC.RandomUsername")()
	s, err := w.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := expect(s, model.StepAwaitingUsername); err != nil {
		return s, err
	}
	const attempts = 3
	for i := 0; ; i++ {
		s, err = w.acceptUsername(ctx, s, RandomUsername())
		if err == nil || i == attempts-1 || domain.KindOf(err) != domain.KindValidation {
			return s, err
		}
	}
}

func (w *wizardUC) acceptUsername(ctx context.Context, s *model.WizardSession, name string) (*model.WizardSession, error) {
	if name == "" {
		return s, domain.NewValidationError("err.username_empty")
	}
	if s.Flow == model.FlowCreateFromTmpl {
		tpl, err := w.template(ctx, s.TemplateID)
		if err != nil {
			if domain.KindOf(err) == domain.KindNotFound {
				return nil, w.lost(ctx, s.ChatID, domain.ErrNotFound, "err.template_not_found")
			}
			return s, err
		}
		name = tpl.UsernamePrefix + name + tpl.UsernameSuffix
	}
	if err := ValidateUsername(name); err != nil {
		return s, err
	}
	exists, err := w.accounts.Exists(ctx, repository.NoTX, name)
	if err != nil {
		return s, domain.NewUpstreamError("err.store_failed", err)
	}
	if exists {
		return s, domain.NewValidationError("err.username_exists", name)
	}

	event := evUsernameAccepted
	switch {
	case s.RetryUsername:
		event = evUsernameRetried
	case s.Flow == model.FlowCreateFromTmpl:
		event = evTemplateUsername
	}
	s.Username = name
	s.RetryUsername = false
	if err := w.advance(ctx, s, event); err != nil {
		return s, err
	}
	return s, nil
}

func (w *wizardUC) SubmitDataLimit(ctx context.Context, chatID int64, input string) (*model.WizardSession, error) {
	defer logging.TraceDuration(w.log, "WizardUC.SubmitDataLimit")()
	s, err := w.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := expect(s, model.StepAwaitingDataLimit, model.StepEditingDataLimit); err != nil {
		return s, err
	}
	limit, err := ParseDataLimit(input)
	if err != nil {
		return s, err
	}
	s.DataLimit = limit
	event := evDataLimitAccepted
	if s.Step == model.StepEditingDataLimit {
		event = evEditFieldAccepted
	}
	return s, w.advance(ctx, s, event)
}

func (w *wizardUC) ChooseStatus(ctx context.Context, chatID int64, input string) (*model.WizardSession, error) {
	defer logging.TraceDuration(w.log, "WizardUC.ChooseStatus")()
	s, err := w.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := expect(s, model.StepAwaitingStatus); err != nil {
		return s, err
	}
	st, err := ParseStatus(input)
	if err != nil {
		return s, err
	}
	s.SetStatus(st)
	return s, w.advance(ctx, s, evStatusChosen)
}

func (w *wizardUC) SubmitExpiry(ctx context.Context, chatID int64, input string) (*model.WizardSession, error) {
	defer logging.TraceDuration(w.log, "WizardUC.SubmitExpiry")()
	s, err := w.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := expect(s, model.StepAwaitingExpiry, model.StepEditingExpiry); err != nil {
		return s, err
	}
	if s.Status == model.StatusOnHold {
		days, err := ParseOnHoldDays(input)
		if err != nil {
			return s, err
		}
		s.SetOnHold(days)
	} else {
		exp, err := ParseExpiry(input, w.now())
		if err != nil {
			return s, err
		}
		s.SetExpiry(exp)
	}
	event := evExpiryAccepted
	if s.Step == model.StepEditingExpiry {
		event = evEditFieldAccepted
	}
	return s, w.advance(ctx, s, event)
}

func (w *wizardUC) ToggleInbound(ctx context.Context, chatID int64, tag string) (*model.WizardSession, error) {
	s, err := w.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := expect(s, model.StepAwaitingProtocols); err != nil {
		return s, err
	}
	info, ok := w.core.InboundsByTag()[tag]
	if !ok {
		return s, domain.NewValidationError("err.inbound_unknown", tag)
	}
	s.Protocols.ToggleInbound(info.Protocol, tag)
	return s, w.save(ctx, s)
}

func (w *wizardUC) ToggleProtocol(ctx context.Context, chatID int64, protocol string) (*model.WizardSession, error) {
	s, err := w.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := expect(s, model.StepAwaitingProtocols); err != nil {
		return s, err
	}
	p := model.ProxyType(protocol)
	if !p.Valid() {
		return s, domain.NewValidationError("err.protocol_unknown", protocol)
	}
	s.Protocols.ToggleProtocol(p, adapter.ProtocolTags(w.core, p))
	return s, w.save(ctx, s)
}

func (w *wizardUC) beginEdit(ctx context.Context, chatID int64, event string) (*model.WizardSession, error) {
	s, err := w.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if s.Flow != model.FlowEdit {
		return s, domain.NewValidationError("err.step_mismatch")
	}
	return s, w.advance(ctx, s, event)
}

func (w *wizardUC) BeginEditDataLimit(ctx context.Context, chatID int64) (*model.WizardSession, error) {
	return w.beginEdit(ctx, chatID, evEditDataLimit)
}

func (w *wizardUC) BeginEditExpiry(ctx context.Context, chatID int64) (*model.WizardSession, error) {
	return w.beginEdit(ctx, chatID, evEditExpiry)
}

// --- commit ---

func (w *wizardUC) checkProtocolsEnabled(sel model.Inbounds) error {
	enabled := w.core.InboundsByProtocol()
	for _, p := range sel.Protocols() {
		if len(enabled[p]) == 0 {
			return domain.NewValidationError("err.protocol_disabled", string(p)).WithCause(domain.ErrProtocolDisabled)
		}
	}
	return nil
}

// Commit persists the accumulated fields and syncs the proxy core. A
// returned account with a non-nil error means the store write succeeded but
// the core sync did not.
func (w *wizardUC) Commit(ctx context.Context, chatID int64, op Operator) (*model.Account, error) {
	defer logging.TraceDuration(w.log, "WizardUC.Commit")()
	s, err := w.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := expect(s, model.StepAwaitingProtocols); err != nil {
		return nil, err
	}
	if s.Username == "" {
		return nil, w.lost(ctx, chatID, domain.ErrSessionLost, "err.session_lost")
	}
	if s.Protocols.IsEmpty() {
		return nil, domain.NewValidationError("err.no_inbound_selected").WithCause(domain.ErrNoInboundSelected)
	}
	if err := w.checkProtocolsEnabled(s.Protocols); err != nil {
		return nil, err
	}
	if s.Flow == model.FlowEdit {
		return w.commitEdit(ctx, s, op)
	}
	return w.commitCreate(ctx, s, op)
}

func (w *wizardUC) commitCreate(ctx context.Context, s *model.WizardSession, op Operator) (*model.Account, error) {
	status := s.Status
	if status == "" {
		status = model.StatusActive
	}
	acc, err := model.NewAccount(s.Username, status, reconcileProxies(nil, s.Protocols, w.vlessFlow), s.Protocols)
	if err != nil {
		return nil, domain.NewValidationError("err.invalid_account").WithCause(err)
	}
	acc.DataLimit = s.DataLimit
	if status == model.StatusOnHold {
		acc.OnHoldExpireDuration = int64(s.OnHoldDays) * int64(day/time.Second)
		timeout := w.now().Add(onHoldTimeoutWindow)
		acc.OnHoldTimeout = &timeout
	} else {
		acc.Expire = s.ExpireAt
	}

	if err := w.accounts.Create(ctx, repository.NoTX, acc); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			taken := s.Username
			s.Username = ""
			s.RetryUsername = true
			if terr := w.advance(ctx, s, evUsernameConflict); terr != nil {
				return nil, terr
			}
			return nil, domain.NewConflictError("err.username_exists", taken).WithCause(err)
		}
		return nil, domain.NewUpstreamError("err.store_failed", err)
	}
	w.finish(ctx, s)

	w.notifier.Notify(ctx, model.AuditEvent{
		Kind:       model.EventAccountCreated,
		Username:   acc.Username,
		OperatorID: op.ID,
		Operator:   op.Name,
		After:      summary(acc),
		At:         w.now(),
	})

	if acc.Status.IsLive() {
		if err := w.core.AddUser(ctx, acc); err != nil {
			w.log.Error().Err(err).Str("username", acc.Username).Msg("account created but core sync failed")
			return acc, domain.NewCoreError("err.core_sync_failed", err, acc.Username)
		}
	}
	return acc, nil
}

func (w *wizardUC) commitEdit(ctx context.Context, s *model.WizardSession, op Operator) (*model.Account, error) {
	prev, err := w.account(ctx, s.Username)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return nil, w.lost(ctx, s.ChatID, domain.ErrNotFound, "err.user_not_found", s.Username)
		}
		return nil, err
	}
	next := *prev
	next.Inbounds = s.Protocols.Clone()
	next.Proxies = reconcileProxies(prev.Proxies, s.Protocols, w.vlessFlow)
	next.DataLimit = s.DataLimit
	if prev.Status == model.StatusOnHold {
		next.OnHoldExpireDuration = int64(s.OnHoldDays) * int64(day/time.Second)
	} else {
		next.Expire = s.ExpireAt
	}

	if err := w.accounts.Update(ctx, repository.NoTX, &next); err != nil {
		return nil, domain.NewUpstreamError("err.store_failed", err)
	}
	w.finish(ctx, s)

	for _, ev := range diffEvents(prev, &next) {
		ev.OperatorID, ev.Operator, ev.At = op.ID, op.Name, w.now()
		w.notifier.Notify(ctx, ev)
	}

	if err := syncCore(ctx, w.core, &next); err != nil {
		w.log.Error().Err(err).Str("username", next.Username).Msg("account updated but core sync failed")
		return &next, domain.NewCoreError("err.core_sync_failed", err, next.Username)
	}
	return &next, nil
}

// syncCore pushes active accounts and removes everything else.
func syncCore(ctx context.Context, core adapter.ProxyCore, a *model.Account) error {
	if a.Status == model.StatusActive {
		return core.UpdateUser(ctx, a)
	}
	return core.RemoveUser(ctx, a)
}

// diffEvents returns one event per changed field among data limit, expiry
// and inbounds. Inbounds are compared as full mappings.
func diffEvents(prev, next *model.Account) []model.AuditEvent {
	var out []model.AuditEvent
	if prev.DataLimit != next.DataLimit {
		out = append(out, model.AuditEvent{
			Kind:     model.EventDataLimitChanged,
			Username: next.Username,
			Before:   model.DataLimitText(prev.DataLimit),
			After:    model.DataLimitText(next.DataLimit),
		})
	}
	if !sameTime(prev.Expire, next.Expire) || prev.OnHoldExpireDuration != next.OnHoldExpireDuration {
		out = append(out, model.AuditEvent{
			Kind:     model.EventExpiryChanged,
			Username: next.Username,
			Before:   expiryOrHold(prev),
			After:    expiryOrHold(next),
		})
	}
	if !prev.Inbounds.Equal(next.Inbounds) {
		out = append(out, model.AuditEvent{
			Kind:     model.EventInboundsChanged,
			Username: next.Username,
			Before:   prev.Inbounds.String(),
			After:    next.Inbounds.String(),
		})
	}
	return out
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func expiryOrHold(a *model.Account) string {
	if a.Status == model.StatusOnHold {
		if a.OnHoldExpireDuration <= 0 {
			return "Unlimited hold"
		}
		return fmt.Sprintf("%d days on hold", a.OnHoldExpireDuration/int64(day/time.Second))
	}
	return model.ExpiryText(a.Expire)
}

func summary(a *model.Account) string {
	return "limit " + model.DataLimitText(a.DataLimit) + ", expire " + expiryOrHold(a) + ", " + a.Inbounds.String()
}

// --- note & bulk value prompts ---

func (w *wizardUC) StartNote(ctx context.Context, chatID int64, username string) (*model.WizardSession, *model.Account, error) {
	acc, err := w.account(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	s := model.NewWizardSession(chatID, model.FlowEditNote)
	s.Username = acc.Username
	s, err = w.start(ctx, s, evStartNote)
	return s, acc, err
}

func (w *wizardUC) SubmitNote(ctx context.Context, chatID int64, input string, op Operator) (*model.Account, error) {
	defer logging.TraceDuration(w.log, "WizardUC.SubmitNote")()
	s, err := w.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := expect(s, model.StepAwaitingNote); err != nil {
		return nil, err
	}
	if err := ValidateNote(input); err != nil {
		return nil, err
	}
	acc, err := w.account(ctx, s.Username)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return nil, w.lost(ctx, chatID, domain.ErrNotFound, "err.user_not_found", s.Username)
		}
		return nil, err
	}
	before := acc.Note
	acc.Note = input
	if err := w.accounts.Update(ctx, repository.NoTX, acc); err != nil {
		return nil, domain.NewUpstreamError("err.store_failed", err)
	}
	w.finish(ctx, s)
	w.notifier.Notify(ctx, model.AuditEvent{
		Kind:       model.EventNoteChanged,
		Username:   acc.Username,
		OperatorID: op.ID,
		Operator:   op.Name,
		Before:     before,
		After:      input,
		At:         w.now(),
	})
	return acc, nil
}

func (w *wizardUC) StartBulkValue(ctx context.Context, chatID int64, flow model.WizardFlow) (*model.WizardSession, error) {
	var event string
	switch flow {
	case model.FlowBulkAddData:
		event = evStartBulkData
	case model.FlowBulkAddTime:
		event = evStartBulkDays
	default:
		return nil, domain.ErrInvalidArgument
	}
	return w.start(ctx, model.NewWizardSession(chatID, flow), event)
}

// SubmitBulkValue parses the bulk adjustment: bytes for data, days for time.
// The session is cleared; applying the value is a separate confirmed action.
func (w *wizardUC) SubmitBulkValue(ctx context.Context, chatID int64, input string) (model.WizardFlow, int64, error) {
	s, err := w.load(ctx, chatID)
	if err != nil {
		return "", 0, err
	}
	if err := expect(s, model.StepAwaitingBulkData, model.StepAwaitingBulkDays); err != nil {
		return "", 0, err
	}
	var v int64
	if s.Step == model.StepAwaitingBulkData {
		v, err = ParseSignedGB(input)
	} else {
		var days int
		days, err = ParseSignedInt(input)
		v = int64(days)
	}
	if err != nil {
		return "", 0, err
	}
	w.finish(ctx, s)
	return s.Flow, v, nil
}
