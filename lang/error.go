package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
//
// Errors derived from a sentinel with [Error.Wrap] or [Error.With] still
// match it with [errors.Is].
var (
	ErrParse              = NewError("parse error")
	ErrUnbalancedBraces   = NewError("unbalanced braces")
	ErrEmptyExpression    = NewError("empty expression")
	ErrUnterminatedQuote  = NewError("unterminated quote")
	ErrMaxDepthExceeded   = NewError("maximum nesting depth exceeded")
	ErrReadInput          = NewError("failed to read input")
	ErrEvaluate           = NewError("expression evaluation failed")
	ErrUnknownVariable    = NewError("unknown variable")
	ErrArityMismatch      = NewError("parameter count mismatch")
	ErrInvalidSubAccessor = NewError("invalid sub-accessor")
	ErrUserFunction       = NewError("function failed")
	ErrRecursionLimit     = NewError("recursion limit exceeded")
	ErrInvalidNumber      = NewError("invalid number value")
	ErrInvalidVector      = NewError("invalid vector value")
	ErrNoState            = NewError("no state available")
	ErrOutputTooLarge     = NewError("output too large")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	base  *Error      // Sentinel this error was derived from
	msg   string      // Base message
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
//
// The message has the form "<msg> (<key>=<value>, ...): <err>", where each
// part is omitted when empty.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.msg)

	if len(e.attrs) > 0 {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteByte('(')

		for i, a := range e.attrs {
			if i > 0 {
				sb.WriteString(", ")
			}

			sb.WriteString(a.Key)
			sb.WriteByte('=')
			sb.WriteString(a.Value.String())
		}

		sb.WriteByte(')')
	}

	if e.err != nil {
		if sb.Len() > 0 {
			sb.WriteString(": ")
		}

		sb.WriteString(e.err.Error())
	}

	return sb.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether e was derived from target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t == e.root()
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		base:  e.root(),
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		base:  e.root(),
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// Position identifies a byte offset in template source along with its
// 1-based line and column.
type Position struct {
	Offset int
	Line   int
	Column int
}

// positionOf computes the line and column of the byte offset off in src.
func positionOf(src string, off int) Position {
	off = min(max(off, 0), len(src))
	line := 1 + strings.Count(src[:off], "\n")
	col := off - strings.LastIndexByte(src[:off], '\n')

	return Position{Offset: off, Line: line, Column: col}
}

// String returns the position formatted as "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// ParseError reports a failure to compile template source.
// It unwraps to the sentinel describing the failure
// (for example, [ErrUnbalancedBraces]).
type ParseError struct {
	Err    *Error
	Source string
	Pos    Position
}

func newParseError(cause *Error, src string, off int) *ParseError {
	pos := positionOf(src, off)

	return &ParseError{
		Err:    cause.With(slog.Int("offset", pos.Offset)),
		Source: src,
		Pos:    pos,
	}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg, snippet := e.formatWithContext()

	return msg + snippet
}

// Unwrap returns the underlying sentinel-derived error.
func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", ErrParse.msg),
		slog.String("cause", e.Err.msg),
		slog.Int("line", e.Pos.Line),
		slog.Int("column", e.Pos.Column),
	)
}

// formatWithContext formats the parse error with source code context.
func (e *ParseError) formatWithContext() (string, string) {
	var buf, src strings.Builder

	buf.WriteString("parse error at line ")
	buf.WriteString(strconv.Itoa(e.Pos.Line))
	buf.WriteString(", column ")
	buf.WriteString(strconv.Itoa(e.Pos.Column))
	buf.WriteString(": ")
	buf.WriteString(e.Err.msg)

	lines := strings.Split(e.Source, "\n")
	if e.Pos.Line < 1 || e.Pos.Line > len(lines) {
		return buf.String(), ""
	}

	num := strconv.Itoa(e.Pos.Line)

	src.WriteString("\n  ")
	src.WriteString(num)
	src.WriteString(" | ")
	src.WriteString(lines[e.Pos.Line-1])
	src.WriteByte('\n')

	// +5 accounts for: 2 leading spaces + " | " (3 chars)
	src.WriteString(strings.Repeat(" ", len(num)+5+max(e.Pos.Column-1, 0)))
	src.WriteByte('^')

	return buf.String(), src.String()
}
