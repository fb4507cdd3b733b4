// Package apperrors defines the error taxonomy surfaced by the catalog server.
// Errors are chained sentinels: a child created with New, Msg, MsgErr or Err
// inherits the Kind of its parent and matches every ancestor with errors.Is.
package apperrors

import (
	"context"
	"errors"
	"strings"
)

type Error interface {
	error
	// New creates a child sentinel with its own message.
	New(msg string) Error
	// Msg returns a child error carrying msg.
	Msg(msg string) Error
	// MsgErr returns a child error carrying msg and wrapping err.
	MsgErr(msg string, err ...error) Error
	// Err returns a child error with the same message wrapping err.
	Err(err ...error) Error
	SetKind(kind Kind) Error
	SetExpandError(expand bool) Error
	Kind() Kind
	// ErrorAll returns the message together with the messages of all wrapped errors.
	ErrorAll() string
}

type appError struct {
	msg    string
	kind   Kind
	expand bool
	parent *appError
	causes []error
}

var _ Error = (*appError)(nil)

func New(msg string) Error {
	return &appError{msg: msg}
}

func (e *appError) Error() string {
	if e.expandErrors() && len(e.causes) > 0 {
		return e.ErrorAll()
	}
	return e.msg
}

func (e *appError) Unwrap() []error {
	errs := make([]error, 0, len(e.causes)+1)
	if e.parent != nil {
		errs = append(errs, e.parent)
	}
	return append(errs, e.causes...)
}

func (e *appError) New(msg string) Error {
	return &appError{msg: msg, parent: e}
}

func (e *appError) Msg(msg string) Error {
	return &appError{msg: msg, parent: e}
}

func (e *appError) MsgErr(msg string, err ...error) Error {
	return &appError{msg: msg, parent: e, causes: nonNil(err)}
}

func (e *appError) Err(err ...error) Error {
	return &appError{msg: e.msg, parent: e, causes: nonNil(err)}
}

func (e *appError) SetKind(kind Kind) Error {
	e.kind = kind
	return e
}

func (e *appError) SetExpandError(expand bool) Error {
	e.expand = expand
	return e
}

func (e *appError) Kind() Kind {
	for p := e; p != nil; p = p.parent {
		if p.kind != KindUnknown {
			return p.kind
		}
	}
	return KindUnknown
}

func (e *appError) expandErrors() bool {
	for p := e; p != nil; p = p.parent {
		if p.expand {
			return true
		}
	}
	return false
}

func (e *appError) ErrorAll() string {
	var sb strings.Builder
	sb.WriteString(e.msg)
	for _, c := range e.causes {
		var s string
		if ae, ok := c.(Error); ok {
			s = ae.ErrorAll()
		} else {
			s = c.Error()
		}
		if s == "" {
			continue
		}
		sb.WriteString(": ")
		sb.WriteString(s)
	}
	return sb.String()
}

func nonNil(errs []error) []error {
	out := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}

// KindOf returns the first kind found in err's chain, searching depth first.
// Context cancellation maps to Unavailable; anything else unclassified is Internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if k := findKind(err); k != KindUnknown {
		return k
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindUnavailable
	}
	return KindInternal
}

func findKind(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if ae, ok := err.(Error); ok {
		if k := ae.Kind(); k != KindUnknown {
			return k
		}
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if k := findKind(e); k != KindUnknown {
				return k
			}
		}
	case interface{ Unwrap() error }:
		return findKind(u.Unwrap())
	}
	return KindUnknown
}

// Message returns the user-facing message for err.
func Message(err error) string {
	var ae Error
	if errors.As(err, &ae) {
		return ae.Error()
	}
	return err.Error()
}

// Retryable reports whether the operation that produced err may be retried.
func Retryable(err error) bool {
	return KindOf(err) == KindUnavailable
}
