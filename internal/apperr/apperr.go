// Package apperr defines the error kinds shared by every booking, wallet
// and payment operation, so transports can map failures without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind categorizes application errors.
type Kind int

const (
	// Internal is an unexpected infrastructure failure.
	Internal Kind = iota
	// InvalidInput means a caller-supplied value failed validation.
	InvalidInput
	// NotFound means the referenced entity does not exist.
	NotFound
	// PermissionDenied means the actor may not act on the entity.
	PermissionDenied
	// IllegalTransition means the current lifecycle state forbids the action.
	IllegalTransition
	// GatewayTransient is a retryable gateway failure; nothing was changed.
	GatewayTransient
	// GatewayRejected is a terminal gateway verdict; the attempt is marked failed.
	GatewayRejected
	// Conflict means the effect was already applied; callers treat it as success.
	Conflict
)

var kindNames = map[Kind]string{
	Internal:          "internal",
	InvalidInput:      "invalid_input",
	NotFound:          "not_found",
	PermissionDenied:  "permission_denied",
	IllegalTransition: "illegal_transition",
	GatewayTransient:  "gateway_transient",
	GatewayRejected:   "gateway_rejected",
	Conflict:          "conflict",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the concrete error carried through the usecase layer.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	// State is the current lifecycle state for IllegalTransition errors.
	State string
	// Reason is a machine-readable rejection reason (promo codes, gateway verdicts).
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, apperr.New(apperr.NotFound, "")) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

// New creates an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to a cause.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Invalid(format string, args ...any) *Error {
	return Newf(InvalidInput, format, args...)
}

func NotFoundf(format string, args ...any) *Error {
	return Newf(NotFound, format, args...)
}

func Denied(msg string) *Error {
	return New(PermissionDenied, msg)
}

// Illegal reports that action is not allowed while the entity is in state.
func Illegal(action, state string) *Error {
	return &Error{
		Kind:    IllegalTransition,
		Message: fmt.Sprintf("cannot %s a booking that is %s", action, state),
		State:   state,
	}
}

func Transient(err error, msg string) *Error {
	return Wrap(GatewayTransient, err, msg)
}

func Rejected(reason, msg string) *Error {
	return &Error{Kind: GatewayRejected, Message: msg, Reason: reason}
}

func AlreadyApplied(msg string) *Error {
	return New(Conflict, msg)
}

// WithOp returns a copy of e tagged with the operation name.
func (e *Error) WithOp(op string) *Error {
	cp := *e
	cp.Op = op
	return &cp
}

// WithReason returns a copy of e carrying a machine-readable reason.
func (e *Error) WithReason(reason string) *Error {
	cp := *e
	cp.Reason = reason
	return &cp
}

// As extracts an *Error from an error chain.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// KindOf returns the kind of err, or Internal when err carries none.
func KindOf(err error) Kind {
	if appErr := As(err); appErr != nil {
		return appErr.Kind
	}
	return Internal
}

// IsKind reports whether any error in the chain has the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
