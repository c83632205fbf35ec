package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

type groupError struct{}

func (groupError) Error() string { return "boom" }

func (groupError) LogValue() slog.Value {
	return slog.GroupValue(slog.String("error", "boom"), slog.Int("offset", 3))
}

func TestPretty_FlattensGroups(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithFormat(FormatText), WithTimeLayout("none")).
		Error("failed", slog.Any("error", groupError{}))

	out := buf.String()
	for _, want := range []string{"error.error", "error.offset", "boom", "3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestPretty_JSONLayout(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithFormat(FormatJSON), WithTimeLayout("none")).
		Info("hello", slog.Bool("ok", true), slog.Any("err", errors.New("bad")))

	out := buf.String()
	if !strings.HasPrefix(out, "{\n") || !strings.HasSuffix(out, "\n}\n") {
		t.Errorf("output %q is not a multi-line object", out)
	}

	if !strings.Contains(out, "bad") || !strings.Contains(out, "true") {
		t.Errorf("output %q missing values", out)
	}
}

func TestPretty_WithGroup(t *testing.T) {
	var buf bytes.Buffer

	h := newPrettyHandler(&buf, &slog.HandlerOptions{}, false)
	slog.New(h).WithGroup("req").Info("x", slog.String("id", "7"))

	if !strings.Contains(buf.String(), "req.id") {
		t.Errorf("output %q missing qualified key", buf.String())
	}
}

func TestPretty_EnabledDefaultLevel(t *testing.T) {
	tests := []struct {
		opts  *slog.HandlerOptions
		level slog.Level
		want  bool
	}{
		{&slog.HandlerOptions{}, slog.LevelDebug, false},
		{&slog.HandlerOptions{}, slog.LevelInfo, true},
		{&slog.HandlerOptions{}, slog.LevelError, true},
		{&slog.HandlerOptions{Level: slog.LevelDebug}, slog.LevelDebug, true},
		{&slog.HandlerOptions{Level: slog.LevelWarn}, slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			h := newPrettyHandler(&bytes.Buffer{}, tt.opts, false)
			if got := h.Enabled(t.Context(), tt.level); got != tt.want {
				t.Errorf("Enabled(%v) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}
