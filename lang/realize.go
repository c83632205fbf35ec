package lang

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Names of the special forms. They are resolved after caller variables, so
// a caller variable with the same name hides the form.
const (
	formIf  = "if"
	formFor = "for"
)

// Names bound inside the body of a for expression.
const (
	loopItem  = "i"
	loopIndex = "index"
)

// maxSuggestions bounds the names offered for an unknown variable.
const maxSuggestions = 3

// Realize evaluates t against env and st and returns the resulting text.
//
// env and st may be nil. Memoized results from any previous call are
// discarded first, so every call observes the current values of env and st.
//
// A top-level expression that fails is handled according to the template's
// [Policy]: with [PolicyNull] it is replaced by "null" and the failures are
// returned joined together with the full output; with [PolicyStrict] the
// first failure is returned with an empty output.
//
// Realize must not be called concurrently on the same Template.
func (t *Template) Realize(
	ctx context.Context,
	env *Env,
	st *State,
	opts ...Option,
) (string, error) {
	o := t.opts.apply(opts...)

	for i := range t.exprs {
		t.exprs[i].cached, t.exprs[i].hasCache = "", false
	}

	r := &realizer{
		ctx:  ctx,
		t:    t,
		env:  env.orDefault(),
		st:   st,
		opts: o,
	}

	var (
		sb   strings.Builder
		errs []error
	)

	sb.Grow(t.typical)

	for _, n := range t.root {
		if n.kind == nodeLiteral {
			sb.WriteString(n.span.in(t.src))

			continue
		}

		if err := ctx.Err(); err != nil {
			return "", err
		}

		s, err := r.eval(n)
		if err != nil {
			err = ErrEvaluate.Wrap(err).With(
				slog.String("expr", "{"+t.exprs[n.index].text.in(t.src)+"}"),
			)

			if o.policy == PolicyStrict {
				return "", err
			}

			o.logger.WarnContext(ctx, "expression replaced with null",
				slog.Any("error", err),
			)

			errs = append(errs, err)
			s = "null"
		}

		sb.WriteString(s)
	}

	t.typical = max(t.typical, sb.Len())

	o.logger.TraceContext(ctx, "realize complete",
		slog.Int("bytes", sb.Len()),
		slog.Int("errors", len(errs)),
	)

	return sb.String(), errors.Join(errs...)
}

// realizer holds the state of a single call to Realize.
type realizer struct {
	ctx   context.Context
	t     *Template
	env   *Env
	st    *State
	loops []loopFrame
	opts  options
	depth int
}

type loopFrame struct {
	item  string
	index int
}

// eval evaluates the expression referenced by n, reusing the result cached
// earlier in this pass when there is one.
func (r *realizer) eval(n node) (string, error) {
	e := &r.t.exprs[n.index]

	if e.hasCache {
		return e.cached, nil
	}

	r.depth++
	defer func() { r.depth-- }()

	if r.depth > r.opts.maxDepth {
		return "", ErrRecursionLimit.With(
			slog.Int("depth", r.depth),
			slog.Int("max", r.opts.maxDepth),
		)
	}

	s, err := r.resolve(e)

	switch {
	case err == nil:
		if e.escape {
			s = html.EscapeString(s)
		}

	case e.optional:
		r.opts.logger.TraceContext(r.ctx, "optional expression suppressed",
			slog.String("name", e.name),
			slog.Any("error", err),
		)

		s = ""

	default:
		return "", err
	}

	if e.shared {
		e.cached, e.hasCache = s, true
	}

	return s, nil
}

// concat realizes a node list, such as a parameter.
func (r *realizer) concat(nodes []node) (string, error) {
	if len(nodes) == 1 && nodes[0].kind == nodeLiteral {
		return nodes[0].span.in(r.t.src), nil
	}

	var sb strings.Builder

	for _, n := range nodes {
		if n.kind == nodeLiteral {
			sb.WriteString(n.span.in(r.t.src))

			continue
		}

		s, err := r.eval(n)
		if err != nil {
			return "", err
		}

		sb.WriteString(s)
	}

	return sb.String(), nil
}

func (r *realizer) params(e *expr) ([]string, error) {
	if len(e.params) == 0 {
		return nil, nil
	}

	args := make([]string, len(e.params))

	for i, p := range e.params {
		s, err := r.concat(p)
		if err != nil {
			return nil, err
		}

		args[i] = s
	}

	return args, nil
}

// resolve evaluates e by walking the resolution chain: loop variables,
// caller variables, special forms, globals and functions, state scratch
// variables, and finally the live objects.
func (r *realizer) resolve(e *expr) (string, error) {
	if v, ok := r.loopVar(e.name); ok {
		return r.value(e, v)
	}

	if v, ok := r.env.caller(e.name); ok {
		return r.value(e, v)
	}

	switch e.name {
	case formIf:
		return r.evalIf(e)
	case formFor:
		return r.evalFor(e)
	}

	if v, ok := r.env.library(e.name); ok {
		return r.value(e, v)
	}

	if v, ok := r.st.Get(e.name); ok {
		return r.value(e, v)
	}

	if h, ok := r.st.object(r.ctx, e.name); ok {
		args, err := r.params(e)
		if err != nil {
			return "", err
		}

		if s, ok := GetModifier(r.ctx, h, e.subpath, args); ok {
			return s, nil
		}
	}

	return "", r.unknown(e)
}

// value renders v for e. Functions are invoked with the resolved parameters
// of e and the result is rendered in their place.
func (r *realizer) value(e *expr, v Variable) (string, error) {
	args, err := r.params(e)
	if err != nil {
		return "", err
	}

	f, ok := v.(*Function)
	if !ok {
		return v.ValueString(e.subpath, args)
	}

	res, err := f.Invoke(Call{
		Context: r.ctx,
		Env:     r.env,
		State:   r.st,
		Name:    e.name,
		Args:    args,
	})
	if err != nil {
		return "", err
	}

	if res == nil {
		return "", nil
	}

	return res.ValueString(e.subpath, nil)
}

func (r *realizer) loopVar(name string) (Variable, bool) {
	if len(r.loops) == 0 {
		return nil, false
	}

	f := r.loops[len(r.loops)-1]

	switch name {
	case loopItem:
		return String(f.item), true
	case loopIndex:
		return Number(f.index), true
	}

	return nil, false
}

// unknown builds the error for an unresolved name, suggesting similar names.
func (r *realizer) unknown(e *expr) error {
	err := ErrUnknownVariable.With(slog.String("name", e.name))

	names := r.env.Names()
	if o := r.st.Objects(); o != nil {
		names = append(names, o.Names()...)
	}

	matches := fuzzy.Find(e.name, names)
	if len(matches) == 0 {
		return err
	}

	suggest := make([]string, 0, maxSuggestions)
	for _, m := range matches[:min(len(matches), maxSuggestions)] {
		suggest = append(suggest, m.Str)
	}

	return err.With(slog.String("suggest", strings.Join(suggest, ",")))
}

// ---------------------------------------------------------------------------
// Special forms
// ---------------------------------------------------------------------------

// evalIf evaluates {if:cond:then[:else]}. Only the selected branch is
// evaluated.
func (r *realizer) evalIf(e *expr) (string, error) {
	if n := len(e.params); n < 2 || n > 3 {
		return "", ErrArityMismatch.With(
			slog.String("function", formIf),
			slog.String("want", "2..3"),
			slog.Int("got", n),
		)
	}

	cond, err := r.concat(e.params[0])
	if err != nil {
		return "", err
	}

	var out string

	switch {
	case truthy(cond):
		out, err = r.concat(e.params[1])
	case len(e.params) == 3:
		out, err = r.concat(e.params[2])
	}

	if err != nil {
		return "", err
	}

	return String(out).ValueString(e.subpath, nil)
}

// evalFor evaluates {for:items:body}, realizing body once per element of
// items with {i} bound to the element and {index} to its position.
func (r *realizer) evalFor(e *expr) (string, error) {
	if n := len(e.params); n != 2 {
		return "", ErrArityMismatch.With(
			slog.String("function", formFor),
			slog.String("want", "2"),
			slog.Int("got", n),
		)
	}

	src, err := r.concat(e.params[0])
	if err != nil {
		return "", err
	}

	items := elements(src)
	if len(items) > r.opts.loopLimit {
		r.opts.logger.WarnContext(r.ctx, "loop truncated",
			slog.Int("items", len(items)),
			slog.Int("limit", r.opts.loopLimit),
		)

		items = items[:r.opts.loopLimit]
	}

	body := e.params[1]
	out := make(Array, 0, len(items))

	defer r.invalidate(body)

	for i, item := range items {
		if err := r.ctx.Err(); err != nil {
			return "", err
		}

		r.invalidate(body)
		r.loops = append(r.loops, loopFrame{item: item, index: i})

		s, err := r.concat(body)

		r.loops = r.loops[:len(r.loops)-1]

		if err != nil {
			return "", err
		}

		out = append(out, s)
	}

	return out.ValueString(e.subpath, nil)
}

// invalidate discards memoized results of every expression reachable from
// nodes, following shared references.
func (r *realizer) invalidate(nodes []node) {
	seen := make(map[int]bool)

	var walk func([]node)

	walk = func(nodes []node) {
		for _, n := range nodes {
			if n.kind == nodeLiteral || seen[n.index] {
				continue
			}

			seen[n.index] = true

			e := &r.t.exprs[n.index]
			e.cached, e.hasCache = "", false

			for _, p := range e.params {
				walk(p)
			}
		}
	}

	walk(nodes)
}

// ---------------------------------------------------------------------------
// Arrays
// ---------------------------------------------------------------------------

// elements splits s into array elements. A value wrapped in brackets is
// split on top-level commas, ignoring commas nested in brackets, parentheses,
// or quotes, with surrounding whitespace trimmed from each element. Any
// other value is split into its characters.
func elements(s string) []string {
	t := strings.TrimSpace(s)

	if len(t) < 2 || t[0] != '[' || t[len(t)-1] != ']' {
		out := make([]string, 0, len(s))
		for _, c := range s {
			out = append(out, string(c))
		}

		return out
	}

	inner := t[1 : len(t)-1]
	if strings.TrimSpace(inner) == "" {
		return nil
	}

	var (
		out   []string
		start int
		depth int
		quote byte
	)

	for i := 0; i < len(inner); i++ {
		c := inner[i]

		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}

			continue
		}

		switch c {
		case '\'', '"':
			quote = c
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}

	return append(out, strings.TrimSpace(inner[start:]))
}

// isArray reports whether s is written as an array literal.
func isArray(s string) bool {
	t := strings.TrimSpace(s)

	return len(t) >= 2 && t[0] == '[' && t[len(t)-1] == ']'
}

// itoa is shorthand used by the built-in functions.
func itoa(i int) string { return strconv.Itoa(i) }
