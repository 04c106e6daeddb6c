package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Wizard / admin flow errors
	ErrSessionLost       = errors.New("wizard session lost")
	ErrNoInboundSelected = errors.New("no inbound selected")
	ErrProtocolDisabled  = errors.New("protocol disabled on core")
	ErrIllegalTransition = errors.New("illegal wizard transition")
	ErrBulkInProgress    = errors.New("another bulk operation is in progress")
	ErrRateLimited       = errors.New("rate limited")
	ErrCoreUnavailable   = errors.New("proxy core unavailable")
)

// ErrorKind classifies failures surfaced to the operator.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindUpstream   ErrorKind = "upstream"
)

// FlowError is returned by the admin use cases when an operator action cannot
// proceed. Key is an i18n key, Args its format arguments.
type FlowError struct {
	Kind  ErrorKind
	Key   string
	Args  []any
	cause error
}

func (e *FlowError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Kind, e.Key, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Key)
}

func (e *FlowError) Unwrap() error { return e.cause }

// WithCause attaches the underlying error.
func (e *FlowError) WithCause(err error) *FlowError {
	e.cause = err
	return e
}

func NewValidationError(key string, args ...any) *FlowError {
	return &FlowError{Kind: KindValidation, Key: key, Args: args}
}

func NewNotFoundError(key string, args ...any) *FlowError {
	return &FlowError{Kind: KindNotFound, Key: key, Args: args}
}

func NewConflictError(key string, args ...any) *FlowError {
	return &FlowError{Kind: KindConflict, Key: key, Args: args}
}

func NewUpstreamError(key string, cause error, args ...any) *FlowError {
	return &FlowError{Kind: KindUpstream, Key: key, Args: args, cause: cause}
}

// NewCoreError is an upstream error whose chain matches ErrCoreUnavailable.
func NewCoreError(key string, cause error, args ...any) *FlowError {
	return NewUpstreamError(key, fmt.Errorf("%w: %w", ErrCoreUnavailable, cause), args...)
}

// KindOf returns the kind of a FlowError in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsRecoverable reports whether the operator can fix err by re-entering input.
func IsRecoverable(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindConflict:
		return true
	}
	return false
}
