package pkg

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Error is a chain of errors, innermost first. It is used by the command
// line packages to attach context to failures without losing the identity
// of the sentinels below.
type Error []error

// Sentinels shared by the command line packages. Test with errors.Is.
var (
	// ErrReadInput is wrapped around I/O errors reading a template or data
	// file.
	ErrReadInput = MakeErrorf("failed to read input")
	// ErrDecodeVars is wrapped around errors decoding a variables file.
	ErrDecodeVars = MakeErrorf("failed to decode variables")
	// ErrInvalidFormat is returned for an unknown output format name.
	ErrInvalidFormat = MakeErrorf("invalid format")
	// ErrJSONMarshal is wrapped around JSON encoding errors.
	ErrJSONMarshal = MakeErrorf("JSON marshal error")
	// ErrYAMLMarshal is wrapped around YAML encoding errors.
	ErrYAMLMarshal = MakeErrorf("YAML marshal error")
	// ErrInvalidConfig is returned when configuration fails validation.
	ErrInvalidConfig = MakeErrorf("invalid configuration")
	// ErrNoInput is returned when a command has no template to work on.
	ErrNoInput = MakeErrorf("no template input")
)

// MakeError flattens errs into a single chain, skipping nil entries.
// The first argument is the innermost error.
func MakeError(errs ...error) Error {
	var e Error

	for _, err := range errs {
		if err != nil {
			e = append(e, UnwrapErrors(err)...)
		}
	}

	return e
}

// MakeErrorf constructs an Error from a formatted message.
func MakeErrorf(format string, args ...any) Error {
	return MakeError(fmt.Errorf(format, args...))
}

// Error joins the messages of the chain with ": ", innermost first.
func (e Error) Error() string {
	var sb strings.Builder

	for i, err := range slices.All(e) {
		if i > 0 {
			sb.WriteString(": ")
		}

		sb.WriteString(err.Error())
	}

	return sb.String()
}

// Wrap returns a copy of the chain with err appended.
func (e Error) Wrap(err ...error) Error {
	return append(slices.Clip(e), err...)
}

// Wrapf returns a copy of the chain with a formatted error appended.
func (e Error) Wrapf(format string, args ...any) Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// Unwrap returns the errors in the chain.
func (e Error) Unwrap() []error {
	return e
}

// Is reports whether every error in target also appears in the chain, so
// that a chain derived from a sentinel matches that sentinel.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	if !ok || len(t) == 0 {
		return false
	}

	for _, want := range t {
		if !slices.ContainsFunc(e, func(err error) bool {
			return errors.Is(err, want)
		}) {
			return false
		}
	}

	return true
}

// UnwrapErrors flattens the tree of errors rooted at err, innermost first.
func UnwrapErrors(err error) Error {
	if err == nil {
		return nil
	}

	var chain Error

	switch e := err.(type) {
	case Error:
		for _, wrapped := range e {
			chain = append(chain, UnwrapErrors(wrapped)...)
		}

		return chain
	case interface{ Unwrap() []error }:
		for _, wrapped := range e.Unwrap() {
			chain = append(chain, UnwrapErrors(wrapped)...)
		}
	case interface{ Unwrap() error }:
		chain = append(chain, UnwrapErrors(e.Unwrap())...)
	}

	return append(chain, err)
}
