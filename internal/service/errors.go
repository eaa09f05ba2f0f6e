package service

import (
	"errors"
	"fmt"

	"praxis/internal/model"
)

// Kind classifies a service failure so transport layers can map it to a
// response without inspecting messages.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
	KindConflict
)

// Error is the failure type returned by every service operation. Conflict
// errors carry the sessions that blocked the request.
type Error struct {
	Kind      Kind
	Message   string
	Conflicts []model.Session
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// ConflictsOf returns the blocking sessions attached to a conflict error.
func ConflictsOf(err error) []model.Session {
	var se *Error
	if errors.As(err, &se) {
		return se.Conflicts
	}
	return nil
}

func invalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflictDetected(conflicts []model.Session) *Error {
	return &Error{
		Kind:      KindConflict,
		Message:   fmt.Sprintf("time slot conflicts with %d existing session(s)", len(conflicts)),
		Conflicts: conflicts,
	}
}

func internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}
