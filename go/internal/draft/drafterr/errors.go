// Package drafterr defines the typed rejections returned by the draft engine.
package drafterr

import (
	"errors"
	"fmt"
)

// Kind categorizes a draft error
type Kind string

const (
	KindInternal             Kind = "INTERNAL"
	KindNotFound             Kind = "NOT_FOUND"
	KindInvalidState         Kind = "INVALID_STATE"
	KindNotYourTurn          Kind = "NOT_YOUR_TURN"
	KindPlayerAlreadyDrafted Kind = "PLAYER_ALREADY_DRAFTED"
	KindPlayerNotFound       Kind = "PLAYER_NOT_FOUND"
	KindDraftAlreadyComplete Kind = "DRAFT_ALREADY_COMPLETE"
	KindInvalidArgument      Kind = "INVALID_ARGUMENT"

	// KindUnavailable is returned when the league lock could not be acquired
	// or a transient storage failure persisted through every retry.
	KindUnavailable Kind = "UNAVAILABLE"
)

// Error is a draft engine error with a kind and optional metadata
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Meta    map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithMeta adds metadata to the error
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = value
	return e
}

// Recoverable reports whether a client is expected to refresh its state and
// try again rather than treat the error as fatal.
func (e *Error) Recoverable() bool {
	return e.Kind == KindNotYourTurn || e.Kind == KindPlayerAlreadyDrafted
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: err}
}

func NotFoundf(format string, args ...any) *Error {
	return Newf(KindNotFound, format, args...)
}

func InvalidStatef(format string, args ...any) *Error {
	return Newf(KindInvalidState, format, args...)
}

func InvalidArgumentf(format string, args ...any) *Error {
	return Newf(KindInvalidArgument, format, args...)
}

// KindOf returns the kind of err, or KindInternal if err is not a draft error
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a draft error of the given kind
func IsKind(err error, kind Kind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}
