package tracker

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("input error")
	ErrDuplicate   = errors.New("duplicate entry")
	ErrSelection   = errors.New("selection error")
	ErrPersistence = errors.New("save error")
)

// Error carries one of the sentinel kinds above plus a human message.
// Err, when set, is the underlying cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func selectionError(index, n int) error {
	if n == 0 {
		return &Error{Kind: ErrSelection, Msg: "no food items"}
	}
	return &Error{Kind: ErrSelection, Msg: fmt.Sprintf("no item at position %d (have %d)", index+1, n)}
}

func persistenceError(err error) error {
	return &Error{Kind: ErrPersistence, Msg: "could not write data file", Err: err}
}

// IsUserError reports whether err stems from operator input rather than I/O.
func IsUserError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrDuplicate) || errors.Is(err, ErrSelection)
}
