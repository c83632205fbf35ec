package repl

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/pattern/lang"
	"github.com/ardnew/pattern/log"
)

func TestSessionRealize(t *testing.T) {
	s := newSession(lang.Vars{"name": lang.String("world")}, nil, log.Logger{})

	tests := []struct {
		line string
		want string
	}{
		{"Hello {name}!", "Hello world!"},
		{"{upper:{name}}", "WORLD"},
		{"{global:count:7}", "7"},
		{"{global:count}", "7"},
	}

	for _, tt := range tests {
		got, err := s.realize(t.Context(), tt.line)
		if err != nil {
			t.Fatalf("realize(%q): %v", tt.line, err)
		}

		if got != tt.want {
			t.Errorf("realize(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}

	if s.last == nil || s.last.Source() != "{global:count}" {
		t.Errorf("last template not recorded")
	}
}

func TestSessionParseError(t *testing.T) {
	s := newSession(nil, nil, log.Logger{})

	_, err := s.realize(t.Context(), "{unclosed")

	var pe *lang.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *lang.ParseError", err)
	}

	if s.last != nil {
		t.Error("failed compile recorded as last template")
	}
}

func TestSessionSetUnset(t *testing.T) {
	s := newSession(nil, nil, log.Logger{})
	ctx := t.Context()

	if err := s.set(ctx, "n", "{+:1:2}"); err != nil {
		t.Fatal(err)
	}

	if err := s.set(ctx, "who", "bob"); err != nil {
		t.Fatal(err)
	}

	if got, _ := s.realize(ctx, "{who}={n}"); got != "bob=3" {
		t.Errorf("realize = %q, want bob=3", got)
	}

	if got, want := s.variables(), []string{"n = 3", "who = bob"}; !slices.Equal(got, want) {
		t.Errorf("variables() = %v, want %v", got, want)
	}

	if !slices.Contains(s.names(), "who") {
		t.Error("names() missing who")
	}

	s.unset("who")

	if _, ok := s.vars["who"]; ok {
		t.Error("unset left who defined")
	}

	for _, name := range []string{"", "a.b", "{x}", "a:b"} {
		if err := s.set(ctx, name, "v"); !errors.Is(err, ErrUsage) {
			t.Errorf("set(%q) error = %v, want ErrUsage", name, err)
		}
	}
}

func TestSessionTree(t *testing.T) {
	s := newSession(lang.Vars{"name": lang.String("x")}, nil, log.Logger{})

	if _, err := s.tree(); !errors.Is(err, ErrUsage) {
		t.Fatalf("tree() before realize error = %v, want ErrUsage", err)
	}

	if _, err := s.realize(t.Context(), "a{name}b"); err != nil {
		t.Fatal(err)
	}

	tree, err := s.tree()
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(tree, "name") {
		t.Errorf("tree %q does not mention the expression", tree)
	}
}
