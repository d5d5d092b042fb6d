// Package apperr is the closed set of failure kinds the site distinguishes.
// Remote SDK and driver errors are mapped onto a Kind where they are first
// observed so callers never inspect transport-specific error shapes.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrMissingTable marks a storage error caused by the target table not
// existing yet. It is wrapped inside an *Error of any kind.
var ErrMissingTable = errors.New("table does not exist")

type Kind int

const (
	KindUnknown Kind = iota
	KindConfigurationMissing
	KindAuthFailure
	KindNotFound
	KindConflict
	KindWriteFailure
	KindNetworkOrTimeout
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConfigurationMissing:
		return "configuration_missing"
	case KindAuthFailure:
		return "auth_failure"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindWriteFailure:
		return "write_failure"
	case KindNetworkOrTimeout:
		return "network_or_timeout"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain. Context and
// network errors without one are reported as KindNetworkOrTimeout.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if isTransport(err) {
		return KindNetworkOrTimeout
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing text carried by err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// FromTransport classifies an error returned by an HTTP client or driver call.
func FromTransport(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if isTransport(err) {
		return Wrap(KindNetworkOrTimeout, op, err)
	}
	return Wrap(KindUnknown, op, err)
}

func isTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
