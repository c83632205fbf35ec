package repl

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ardnew/pattern/lang"
	"github.com/ardnew/pattern/log"
)

// session is the evaluation state shared by every line entered in one REPL
// run. Caller variables set with the "set" command and scratch values
// written by the global function persist from line to line.
type session struct {
	vars   lang.Vars
	env    *lang.Env
	state  *lang.State
	objs   *lang.Objects
	opts   []lang.Option
	last   *lang.Template
	logger log.Logger
}

func newSession(vars lang.Vars, objs *lang.Objects, logger log.Logger, opts ...lang.Option) *session {
	if vars == nil {
		vars = make(lang.Vars)
	}

	if objs == nil {
		objs = lang.NewObjects()
	}

	s := &session{
		vars:   vars,
		env:    lang.NewEnv(vars),
		state:  lang.NewState(nil),
		objs:   objs,
		opts:   append(slices.Clip(opts), lang.WithLogger(logger)),
		logger: logger,
	}

	s.state.SetObjects(objs)

	return s
}

// realize compiles line and realizes it with the session state.
func (s *session) realize(ctx context.Context, line string) (string, error) {
	t, err := lang.PrepareCached(ctx, line, s.opts...)
	if err != nil {
		return "", err
	}

	s.last = t
	s.state.Bind(t)

	out, err := s.state.Realize(ctx, s.env)

	s.logger.TraceContext(ctx, "repl realize",
		slog.Int("bytes", len(line)),
		slog.Bool("ok", err == nil),
	)

	return out, err
}

// set defines a caller variable. A value that parses as a template is
// realized first, so "set n {+:1:2}" stores "3".
func (s *session) set(ctx context.Context, name, value string) error {
	if name == "" || strings.ContainsAny(name, "{}:.") {
		return fmt.Errorf("%w: set NAME VALUE", ErrUsage)
	}

	out, err := s.realize(ctx, value)
	if err != nil {
		return err
	}

	s.vars[name] = lang.ValueOf(out)

	return nil
}

func (s *session) unset(name string) {
	delete(s.vars, name)
}

// names returns every name visible to a template: caller variables,
// globals, functions, and live objects.
func (s *session) names() []string {
	names := append(s.env.Names(), s.objs.Names()...)
	slices.Sort(names)

	return slices.Compact(names)
}

// variables returns "name = value" lines for the caller variables.
func (s *session) variables() []string {
	keys := make([]string, 0, len(s.vars))
	for k := range s.vars {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		v, err := s.vars[k].ValueString(nil, nil)
		if err != nil {
			v = "<" + err.Error() + ">"
		}

		lines[i] = k + " = " + v
	}

	return lines
}

// tree returns the JSON graph of the last compiled template.
func (s *session) tree() (string, error) {
	if s.last == nil {
		return "", fmt.Errorf("%w: no template realized yet", ErrUsage)
	}

	buf, err := s.last.MarshalJSON()
	if err != nil {
		return "", err
	}

	return string(buf), nil
}
