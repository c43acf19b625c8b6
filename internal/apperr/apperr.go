package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the handler layer and for compensation
// decisions. PostPayment marks the window where money moved but
// fulfillment did not; those errors are candidates for manual
// reconciliation and must stand out in logs.
type Kind int

const (
	Client Kind = iota
	NotFound
	Upstream
	PostPayment
	AlreadyProcessed
	Internal
)

func (k Kind) String() string {
	switch k {
	case Client:
		return "CLIENT_ERROR"
	case NotFound:
		return "NOT_FOUND"
	case Upstream:
		return "UPSTREAM_UNAVAILABLE"
	case PostPayment:
		return "POST_PAYMENT_FAILURE"
	case AlreadyProcessed:
		return "ALREADY_PROCESSED"
	default:
		return "INTERNAL"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Detail  any   // optional remote-response payload, for logging only
	Err     error // wrapped cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func WithDetail(kind Kind, message string, detail any) *Error {
	return &Error{Kind: kind, Message: message, Detail: detail}
}

// KindOf returns the kind of err, or Internal for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
