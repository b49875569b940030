// Package apperr carries a machine-readable kind alongside domain errors so
// transport layers can map them without string matching.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidInput             Kind = "INVALID_INPUT"
	KindInvalidState             Kind = "INVALID_STATE"
	KindInvalidTransition        Kind = "INVALID_TRANSITION"
	KindInvalidRuleConfiguration Kind = "INVALID_RULE_CONFIGURATION"
	KindAlreadyAssigned          Kind = "ALREADY_ASSIGNED"
	KindNotFound                 Kind = "NOT_FOUND"
	KindForbidden                Kind = "FORBIDDEN"
	KindConflict                 Kind = "CONFLICT"
	KindInternal                 Kind = "INTERNAL_ERROR"
)

type Error struct {
	Kind    Kind   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to err. errors.Is(result, err) still holds.
func Wrap(err error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the human message of the first *Error in err's chain.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
