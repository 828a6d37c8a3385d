// Package apperr holds the error taxonomy shared by the survey core.
// Routing code maps a Kind to a transport status; nothing else in the
// core knows about HTTP.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Unknown Kind = iota
	Validation
	NotFound
	Conflict
	Authentication
	Authorization
	Persistence
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Authentication:
		return "authentication"
	case Authorization:
		return "authorization"
	case Persistence:
		return "persistence"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Op   string // operation code, e.g. "db.insert_submission"
	Msg  string // safe to show to the caller
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Op != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.message(), e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.message(), e.Err)
	case e.Op != "":
		return e.Op + ": " + e.message()
	}
	return e.message()
}

func (e *Error) message() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Public returns the message that may be sent back to a caller.
// Persistence failures never expose their cause.
func (e *Error) Public() string {
	if e.Kind == Persistence || e.Kind == Unknown {
		return "internal error"
	}
	return e.message()
}

func Validationf(format string, args ...any) error {
	return &Error{Kind: Validation, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: NotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Kind: Conflict, Msg: fmt.Sprintf(format, args...)}
}

func Unauthenticated(msg string, err error) error {
	return &Error{Kind: Authentication, Msg: msg, Err: err}
}

func Forbidden(msg string) error {
	return &Error{Kind: Authorization, Msg: msg}
}

// Store wraps an underlying store failure. A nil err yields nil so that
// call sites can write `return apperr.Store("db.x", err)`.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: Persistence, Op: op, Err: err}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
