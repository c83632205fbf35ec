package repl

import (
	"strings"
	"testing"

	"github.com/ardnew/pattern/lang"
)

func TestDetectCall(t *testing.T) {
	tests := []struct {
		input string
		want  call
	}{
		{"", call{}},
		{"plain text", call{}},
		{"{name", call{}},
		{"{substr:", call{name: "substr", argIndex: 0, inCall: true}},
		{"{substr:hello:1:", call{name: "substr", argIndex: 2, inCall: true}},
		{"{.opt:a", call{name: "opt", argIndex: 0, inCall: true}},
		{"{window.title:x", call{name: "window", argIndex: 0, inCall: true}},
		{"{upper:{lower:a", call{name: "lower", argIndex: 0, inCall: true}},
		{"{upper:{lower:a}:", call{name: "upper", argIndex: 1, inCall: true}},
		{"{join:[a:b]:", call{name: "join", argIndex: 1, inCall: true}},
		{"{done} {", call{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := detectCall(tt.input, len(tt.input)); got != tt.want {
				t.Errorf("detectCall(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRenderSignatureHint(t *testing.T) {
	if got := renderSignatureHint(nil, 0); got != "" {
		t.Errorf("nil function rendered %q", got)
	}

	fn := &lang.Function{Name: "substr", MinArgs: 2, MaxArgs: 3}

	if got := renderSignatureHint(fn, 1); !strings.Contains(got, "arg 2") {
		t.Errorf("hint %q does not name arg 2", got)
	}

	if got := renderSignatureHint(fn, 3); !strings.Contains(got, "too many") {
		t.Errorf("hint %q does not flag excess args", got)
	}
}
