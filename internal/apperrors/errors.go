// Package apperrors defines the error taxonomy shared by the booking core.
// Storage-driver errors are translated into these before they reach callers;
// raw driver messages are never user-visible.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	// KindValidation marks malformed input caught before storage.
	KindValidation Kind = iota
	// KindNotFound marks an absent resource. Cross-tenant access reports
	// the same kind so existence in another tenant is never revealed.
	KindNotFound
	// KindConflict marks a lost slot race.
	KindConflict
	// KindInvalidState marks an illegal lifecycle transition.
	KindInvalidState
	// KindConfiguration marks invalid revenue percentages at save time.
	KindConfiguration
	// KindTransaction marks a completion pipeline failure after rollback.
	KindTransaction
)

// Error carries a kind, a user-safe message and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage returns the text safe to show callers. Transaction errors are
// reported generically; the cause stays in server logs.
func (e *Error) UserMessage() string {
	if e.Kind == KindTransaction {
		return "the operation could not be completed, please retry"
	}
	return e.Message
}

// Validation builds a field-level validation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a not-found error.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// Conflict builds a slot-race conflict error.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// InvalidState builds an illegal-transition error.
func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// Configuration builds a revenue-config rejection.
func Configuration(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// Transaction wraps a pipeline failure. The wrapped cause is logged, never
// returned to users.
func Transaction(cause error) *Error {
	return &Error{Kind: KindTransaction, Message: "transaction failed", Err: cause}
}

// UserMessage returns the user-safe text for any error. Untyped errors get
// a generic message so driver text never leaks.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.UserMessage()
	}
	return "the operation could not be completed, please retry"
}

// KindOf extracts the kind from err, or ok=false for untyped errors.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
