package errors

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrInvalidInput marks malformed or out-of-range caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidArgument is kept for older call sites; it is the same sentinel as ErrInvalidInput.
	ErrInvalidArgument = ErrInvalidInput
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a write that lost a race or hit a uniqueness constraint.
	ErrConflict = errors.New("conflict")
	// ErrUpstreamModel marks a failure of the language model or embedding provider.
	ErrUpstreamModel = errors.New("upstream model error")
	// ErrValidationFailed marks model output that did not satisfy its shape constraints.
	ErrValidationFailed = errors.New("validation failed")
	// ErrPersistence marks a database failure.
	ErrPersistence = errors.New("persistence error")
	// ErrGenerationFailed marks a course generation attempt that ended in the failed state.
	ErrGenerationFailed = errors.New("generation failed")
)

type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	if e.cause == nil {
		return e.kind.Error()
	}
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *kindError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// Wrap tags err with kind. The result matches both under errors.Is / errors.As.
// A nil err yields the bare kind.
func Wrap(kind, err error) error {
	if kind == nil {
		return err
	}
	if err == nil {
		return kind
	}
	if errors.Is(err, kind) {
		return err
	}
	return &kindError{kind: kind, cause: err}
}

// Wrapf is Wrap with a formatted cause.
func Wrapf(kind error, format string, args ...any) error {
	return Wrap(kind, fmt.Errorf(format, args...))
}

// Truncate bounds msg to n runes.
func Truncate(msg string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(msg) <= n {
		return msg
	}
	r := []rune(msg)
	return string(r[:n])
}
