package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrValidation  = errors.New("validation error")
	ErrUnavailable = errors.New("service unavailable")
	ErrInternal    = errors.New("internal error")
)

// opError annotates an error with the operation that produced it and,
// optionally, a sentinel kind that errors.Is can match.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	switch {
	case e.err == nil:
		return fmt.Sprintf("%s: %v", e.op, e.kind)
	case e.kind == nil:
		return fmt.Sprintf("%s: %v", e.op, e.err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.op, e.kind, e.err)
	}
}

func (e *opError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.kind != nil {
		out = append(out, e.kind)
	}
	if e.err != nil {
		out = append(out, e.err)
	}
	return out
}

// Wrap annotates err with op. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, err: err}
}

// WrapKind annotates err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &opError{op: op, kind: kind, err: err}
}

// NewKind returns an error of kind for op with no further cause.
func NewKind(op string, kind error) error {
	return &opError{op: op, kind: kind}
}
