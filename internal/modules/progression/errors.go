package progression

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies engine failures for callers.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindAlreadyCompleted   Kind = "already_completed"
	KindAttemptsExhausted  Kind = "attempts_exhausted"
	KindPersistenceFailure Kind = "persistence_failure"
	KindInvalidTransition  Kind = "invalid_transition"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Kind)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Kind)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether repeating the same action may succeed.
func (e *Error) Retryable() bool {
	return e != nil && e.Kind == KindPersistenceFailure
}

func newError(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: strings.TrimSpace(message), Cause: cause}
}

func notFound(op, message string) error {
	return newError(KindNotFound, op, message, nil)
}

func invalidTransition(op, message string) error {
	return newError(KindInvalidTransition, op, message, nil)
}

func attemptsExhausted(op string) error {
	return newError(KindAttemptsExhausted, op, "no attempts remaining", nil)
}

func persistenceFailure(op string, cause error) error {
	if cause == nil {
		return nil
	}
	var e *Error
	if errors.As(cause, &e) && e.Kind == KindPersistenceFailure {
		return cause
	}
	return newError(KindPersistenceFailure, op, cause.Error(), cause)
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

// IsRetryable is true for persistence failures anywhere in err's chain.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}
