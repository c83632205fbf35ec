package lang

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ardnew/pattern/log"
)

// DefaultMaxDepth is the default limit on expression nesting, enforced both
// when a template is compiled and when it is realized.
var DefaultMaxDepth = 64

// DefaultLoopLimit is the default maximum number of elements a for
// expression iterates over. Excess elements are dropped.
var DefaultLoopLimit = 5000

// Policy selects how [Template.Realize] handles a top-level expression that
// fails to evaluate.
type Policy int

const (
	// PolicyNull logs the failure, writes "null" in place of the expression,
	// and continues. All failures are returned joined after realization.
	PolicyNull Policy = iota
	// PolicyStrict stops at the first failure and returns it.
	PolicyStrict
)

// String returns the policy name.
func (p Policy) String() string {
	if p == PolicyStrict {
		return "strict"
	}

	return "null"
}

// ParsePolicy parses a policy name, returning [PolicyNull] for anything
// other than "strict".
func ParsePolicy(s string) Policy {
	if strings.EqualFold(strings.TrimSpace(s), "strict") {
		return PolicyStrict
	}

	return PolicyNull
}

// options holds compile and realize settings.
type options struct {
	logger    log.Logger
	maxDepth  int
	loopLimit int
	policy    Policy
}

// Option configures a [Template].
// Options given to [Prepare] become the template's defaults; options given
// to [Template.Realize] override them for that call only.
type Option func(*options)

// WithMaxDepth sets the maximum expression nesting depth.
// Values less than 1 select [DefaultMaxDepth].
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth < 1 {
			depth = DefaultMaxDepth
		}

		o.maxDepth = depth
	}
}

// WithLoopLimit sets the maximum number of elements a for expression
// iterates over. Values less than 1 select [DefaultLoopLimit].
func WithLoopLimit(limit int) Option {
	return func(o *options) {
		if limit < 1 {
			limit = DefaultLoopLimit
		}

		o.loopLimit = limit
	}
}

// WithPolicy sets the evaluation error policy.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithLogger sets the logger used for trace and diagnostic messages.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func makeOptions(opts ...Option) options {
	return options{
		maxDepth:  DefaultMaxDepth,
		loopLimit: DefaultLoopLimit,
		policy:    PolicyNull,
	}.apply(opts...)
}

func (o options) apply(opts ...Option) options {
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}

// Template is a compiled template.
//
// Every expression is stored once in an arena owned by the template. Nodes
// refer to arena entries by index, and literal text is stored as offsets
// into the template source. Repeated occurrences of byte-identical
// expression text share a single arena entry, which is evaluated at most
// once per call to [Template.Realize].
//
// A Template is structurally immutable after [Prepare], but Realize writes
// per-call memoized results into the arena. Concurrent calls to Realize on
// the same Template are NOT safe; give each goroutine its own [Template.Clone]
// or serialize access.
type Template struct {
	src     string
	exprs   []expr
	root    []node
	typical int
	opts    options
}

// Prepare compiles src into a [Template].
//
// Compilation fails with a [*ParseError] on unbalanced braces, empty
// expressions, unterminated quotes, or nesting deeper than the configured
// maximum depth.
func Prepare(ctx context.Context, src string, opts ...Option) (*Template, error) {
	o := makeOptions(opts...)

	o.logger.TraceContext(ctx, "prepare start", slog.Int("bytes", len(src)))

	t, err := compile(ctx, src, o)
	if err != nil {
		o.logger.DebugContext(ctx, "prepare failed", slog.Any("error", err))

		return nil, err
	}

	o.logger.TraceContext(ctx, "prepare complete",
		slog.Int("exprs", len(t.exprs)),
		slog.Int("nodes", len(t.root)),
	)

	return t, nil
}

// MustPrepare is like [Prepare] but panics if src cannot be compiled.
// It simplifies initialization of package-level templates.
func MustPrepare(src string, opts ...Option) *Template {
	t, err := Prepare(context.Background(), src, opts...)
	if err != nil {
		panic(err)
	}

	return t
}

// Source returns the text the template was compiled from.
func (t *Template) Source() string { return t.src }

// String returns the template source.
func (t *Template) String() string { return t.src }

// Clone returns an independent deep copy of t. The copy shares no mutable
// state with t, so the two may be realized concurrently and either may be
// discarded without affecting the other.
func (t *Template) Clone() *Template {
	c := &Template{
		src:     t.src,
		exprs:   make([]expr, len(t.exprs)),
		root:    append([]node(nil), t.root...),
		typical: t.typical,
		opts:    t.opts,
	}

	for i, e := range t.exprs {
		e.params = make([][]node, len(t.exprs[i].params))
		for j, p := range t.exprs[i].params {
			e.params[j] = append([]node(nil), p...)
		}

		e.subpath = append([]string(nil), e.subpath...)
		e.cached, e.hasCache = "", false
		c.exprs[i] = e
	}

	return c
}

// Stats summarizes the shape of a compiled template.
type Stats struct {
	Literals int // literal nodes, including those inside parameters
	Owned    int // distinct expressions in the arena
	Shared   int // references to an expression compiled elsewhere
}

// Stats returns node counts for t.
func (t *Template) Stats() Stats {
	s := Stats{Owned: len(t.exprs)}

	count := func(nodes []node) {
		for _, n := range nodes {
			switch n.kind {
			case nodeLiteral:
				s.Literals++
			case nodeShared:
				s.Shared++
			}
		}
	}

	count(t.root)

	for _, e := range t.exprs {
		for _, p := range e.params {
			count(p)
		}
	}

	return s
}
