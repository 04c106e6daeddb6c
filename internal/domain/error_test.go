//go:build !integration

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlowError_Chain(t *testing.T) {
	down := errors.New("connection refused")
	err := fmt.Errorf("commit: %w", NewCoreError("err.core_sync_failed", down, "alice"))

	assert.Equal(t, KindUpstream, KindOf(err))
	assert.ErrorIs(t, err, ErrCoreUnavailable)
	assert.ErrorIs(t, err, down)
	assert.False(t, IsRecoverable(err))

	lost := NewNotFoundError("err.session_lost").WithCause(ErrSessionLost)
	assert.ErrorIs(t, lost, ErrSessionLost)
	assert.NotErrorIs(t, lost, ErrNotFound)

	disabled := NewValidationError("err.protocol_disabled", "vmess").WithCause(ErrProtocolDisabled)
	assert.ErrorIs(t, disabled, ErrProtocolDisabled)
	assert.True(t, IsRecoverable(disabled))
	assert.Equal(t, []any{"vmess"}, disabled.Args)
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("boom")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.True(t, IsRecoverable(NewConflictError("err.username_taken")))
}
