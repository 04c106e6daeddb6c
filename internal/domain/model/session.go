package model

import (
	"time"
)

// WizardFlow identifies which conversation a session belongs to.
type WizardFlow string

const (
	FlowNone           WizardFlow = ""
	FlowCreate         WizardFlow = "create"
	FlowCreateFromTmpl WizardFlow = "create_from_template"
	FlowEdit           WizardFlow = "edit"
	FlowEditNote       WizardFlow = "edit_note"
	FlowBulkAddData    WizardFlow = "bulk_add_data"
	FlowBulkAddTime    WizardFlow = "bulk_add_time"
)

// WizardStep is the state of a session; the step decides which handler
// receives the next operator message.
type WizardStep string

const (
	StepIdle              WizardStep = "idle"
	StepAwaitingUsername  WizardStep = "awaiting_username"
	StepAwaitingDataLimit WizardStep = "awaiting_data_limit"
	StepAwaitingStatus    WizardStep = "awaiting_status"
	StepAwaitingExpiry    WizardStep = "awaiting_expiry"
	StepAwaitingProtocols WizardStep = "awaiting_protocols"
	StepEditingDataLimit  WizardStep = "editing_data_limit"
	StepEditingExpiry     WizardStep = "editing_expiry"
	StepAwaitingNote      WizardStep = "awaiting_note"
	StepAwaitingBulkData  WizardStep = "awaiting_bulk_data"
	StepAwaitingBulkDays  WizardStep = "awaiting_bulk_days"
	StepCommitted         WizardStep = "committed"
)

// AwaitsText reports whether the step consumes free-text messages.
func (s WizardStep) AwaitsText() bool {
	switch s {
	case StepAwaitingUsername, StepAwaitingDataLimit, StepAwaitingExpiry,
		StepEditingDataLimit, StepEditingExpiry, StepAwaitingNote,
		StepAwaitingBulkData, StepAwaitingBulkDays:
		return true
	}
	return false
}

// WizardSession is the per-chat state of an in-progress admin conversation.
// Expiry and on-hold duration are mutually exclusive; use the setters.
type WizardSession struct {
	ChatID     int64         `json:"chat_id"`
	Flow       WizardFlow    `json:"flow"`
	Step       WizardStep    `json:"step"`
	Username   string        `json:"username,omitempty"`
	DataLimit  int64         `json:"data_limit"`
	Status     AccountStatus `json:"status,omitempty"`
	ExpireAt   *time.Time    `json:"expire_at,omitempty"`
	OnHoldDays int           `json:"on_hold_days,omitempty"`
	Protocols  Inbounds      `json:"protocols,omitempty"`
	TemplateID int64         `json:"template_id,omitempty"`
	// RetryUsername is set after a duplicate-name commit failure; the next
	// accepted username returns straight to the protocol board.
	RetryUsername bool      `json:"retry_username,omitempty"`
	PromptMsgID   int       `json:"prompt_msg_id,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewWizardSession starts a clean session for chatID.
func NewWizardSession(chatID int64, flow WizardFlow) *WizardSession {
	return &WizardSession{
		ChatID:    chatID,
		Flow:      flow,
		Step:      StepIdle,
		Protocols: Inbounds{},
		UpdatedAt: time.Now(),
	}
}

// SetExpiry records an absolute expiry and drops the on-hold duration; nil
// means never.
func (s *WizardSession) SetExpiry(t *time.Time) {
	s.ExpireAt = t
	s.OnHoldDays = 0
}

// SetOnHold records an on-hold duration in days and drops the absolute
// expiry; 0 means an unlimited hold.
func (s *WizardSession) SetOnHold(days int) {
	s.OnHoldDays = days
	s.ExpireAt = nil
}

// SetStatus records the status choice and resets the field of the path that
// no longer applies.
func (s *WizardSession) SetStatus(st AccountStatus) {
	s.Status = st
	if st == StatusOnHold {
		s.SetOnHold(0)
		return
	}
	s.SetExpiry(nil)
}

func (s *WizardSession) Touch(now time.Time) { s.UpdatedAt = now }
