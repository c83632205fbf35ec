package lang

import (
	"errors"
	"log/slog"
	"testing"
)

func TestError_Is(t *testing.T) {
	derived := ErrUnknownVariable.With(slog.String("name", "x"))
	wrapped := ErrEvaluate.Wrap(derived)

	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"sentinel", ErrUnknownVariable, ErrUnknownVariable, true},
		{"derived", derived, ErrUnknownVariable, true},
		{"wrapped outer", wrapped, ErrEvaluate, true},
		{"wrapped inner", wrapped, ErrUnknownVariable, true},
		{"different sentinel", derived, ErrArityMismatch, false},
		{"fresh error", NewError("unknown variable"), ErrUnknownVariable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_Message(t *testing.T) {
	err := ErrEvaluate.Wrap(ErrUnknownVariable.With(slog.String("name", "x"))).
		With(slog.String("expr", "{x}"))

	want := "expression evaluation failed (expr={x}): unknown variable (name=x)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if got := WrapError(errors.New("plain")).Error(); got != "plain" {
		t.Errorf("WrapError message = %q", got)
	}

	if WrapError(err) != err {
		t.Error("WrapError did not return the existing *Error")
	}
}

func TestError_LogValue(t *testing.T) {
	v := ErrArityMismatch.With(slog.Int("got", 2)).LogValue()

	attrs := v.Group()
	if len(attrs) != 2 || attrs[0].Value.String() != "parameter count mismatch" ||
		attrs[1].Key != "got" {
		t.Errorf("LogValue = %v", attrs)
	}
}

func TestError_WithDoesNotShareAttrs(t *testing.T) {
	base := ErrParse.With(slog.Int("a", 1))
	x := base.With(slog.Int("b", 2))
	y := base.With(slog.Int("c", 3))

	if x.Error() == y.Error() {
		t.Errorf("derived errors share attributes: %q", x.Error())
	}
}

func TestPositionOf(t *testing.T) {
	src := "ab\ncd\n"

	tests := []struct {
		off  int
		want string
	}{
		{0, "1:1"},
		{2, "1:3"},
		{3, "2:1"},
		{4, "2:2"},
		{100, "3:1"},
		{-1, "1:1"},
	}

	for _, tt := range tests {
		if got := positionOf(src, tt.off).String(); got != tt.want {
			t.Errorf("positionOf(%d) = %s, want %s", tt.off, got, tt.want)
		}
	}
}
