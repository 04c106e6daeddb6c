package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"proxy-admin-bot/internal/domain"
	"proxy-admin-bot/internal/domain/model"
)

// Wizard events. Each is legal only from the sources listed in wizardEvents.
const (
	evStartCreate       = "start_create"
	evStartTemplate     = "start_template"
	evStartEdit         = "start_edit"
	evStartNote         = "start_note"
	evStartBulkData     = "start_bulk_data"
	evStartBulkDays     = "start_bulk_days"
	evUsernameAccepted  = "username_accepted"
	evTemplateUsername  = "template_username_accepted"
	evUsernameRetried   = "username_retried"
	evDataLimitAccepted = "data_limit_accepted"
	evStatusChosen      = "status_chosen"
	evExpiryAccepted    = "expiry_accepted"
	evEditDataLimit     = "edit_data_limit"
	evEditExpiry        = "edit_expiry"
	evEditFieldAccepted = "edit_field_accepted"
	evUsernameConflict  = "username_conflict"
	evCommit            = "commit"
)

func steps(s ...model.WizardStep) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = string(v)
	}
	return out
}

var wizardEvents = fsm.Events{
	{Name: evStartCreate, Src: steps(model.StepIdle), Dst: string(model.StepAwaitingUsername)},
	{Name: evStartTemplate, Src: steps(model.StepIdle), Dst: string(model.StepAwaitingUsername)},
	{Name: evStartEdit, Src: steps(model.StepIdle), Dst: string(model.StepAwaitingProtocols)},
	{Name: evStartNote, Src: steps(model.StepIdle), Dst: string(model.StepAwaitingNote)},
	{Name: evStartBulkData, Src: steps(model.StepIdle), Dst: string(model.StepAwaitingBulkData)},
	{Name: evStartBulkDays, Src: steps(model.StepIdle), Dst: string(model.StepAwaitingBulkDays)},

	{Name: evUsernameAccepted, Src: steps(model.StepAwaitingUsername), Dst: string(model.StepAwaitingDataLimit)},
	{Name: evTemplateUsername, Src: steps(model.StepAwaitingUsername), Dst: string(model.StepAwaitingProtocols)},
	{Name: evUsernameRetried, Src: steps(model.StepAwaitingUsername), Dst: string(model.StepAwaitingProtocols)},
	{Name: evDataLimitAccepted, Src: steps(model.StepAwaitingDataLimit), Dst: string(model.StepAwaitingStatus)},
	{Name: evStatusChosen, Src: steps(model.StepAwaitingStatus), Dst: string(model.StepAwaitingExpiry)},
	{Name: evExpiryAccepted, Src: steps(model.StepAwaitingExpiry), Dst: string(model.StepAwaitingProtocols)},

	{Name: evEditDataLimit, Src: steps(model.StepAwaitingProtocols), Dst: string(model.StepEditingDataLimit)},
	{Name: evEditExpiry, Src: steps(model.StepAwaitingProtocols), Dst: string(model.StepEditingExpiry)},
	{Name: evEditFieldAccepted, Src: steps(model.StepEditingDataLimit, model.StepEditingExpiry), Dst: string(model.StepAwaitingProtocols)},

	{Name: evUsernameConflict, Src: steps(model.StepAwaitingProtocols), Dst: string(model.StepAwaitingUsername)},
	{Name: evCommit, Src: steps(model.StepAwaitingProtocols, model.StepAwaitingNote, model.StepAwaitingBulkData, model.StepAwaitingBulkDays), Dst: string(model.StepCommitted)},
}

// transition moves s along event, rejecting events that are not legal from
// the session's current step.
func transition(ctx context.Context, s *model.WizardSession, event string) error {
	step := s.Step
	if step == "" {
		step = model.StepIdle
	}
	m := fsm.NewFSM(string(step), wizardEvents, nil)
	if err := m.Event(ctx, event); err != nil {
		var noTransition fsm.NoTransitionError
		if errors.As(err, &noTransition) {
			return nil
		}
		return fmt.Errorf("%w: %s from %s", domain.ErrIllegalTransition, event, step)
	}
	s.Step = model.WizardStep(m.Current())
	return nil
}
