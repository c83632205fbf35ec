package lang

import (
	"context"
	"log/slog"
)

type nodeKind uint8

const (
	nodeLiteral nodeKind = iota // literal text at span
	nodeOwned                   // expression owned by this position
	nodeShared                  // reference to an expression owned elsewhere
)

// node is one element of a compiled node list. Literal nodes refer to the
// template source by span; expression nodes refer to the arena by index.
type node struct {
	span  span
	index int
	kind  nodeKind
}

// expr is an arena entry.
type expr struct {
	name     string
	subpath  []string
	params   [][]node
	cached   string
	text     span
	optional bool
	escape   bool
	shared   bool // referenced by at least one nodeShared
	hasCache bool // cached holds this pass's result
}

// compiler builds the arena of a single template.
//
// Expressions are compiled breadth-first from a work queue. The first
// occurrence of any expression text becomes the canonical arena entry; every
// later occurrence becomes a shared reference to it, and its parameters are
// never compiled.
type compiler struct {
	ctx      context.Context
	src      string
	opts     options
	exprs    []expr
	interned map[string]int
	queue    []pending
}

type pending struct {
	ex    expression
	index int
	depth int
}

func compile(ctx context.Context, src string, o options) (*Template, error) {
	c := &compiler{
		ctx:      ctx,
		src:      src,
		opts:     o,
		interned: make(map[string]int),
	}

	root, err := c.nodes(span{0, len(src)}, 0)
	if err != nil {
		return nil, err
	}

	for len(c.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := c.queue[0]
		c.queue = c.queue[1:]

		params := make([][]node, len(p.ex.params))

		for i, ps := range p.ex.params {
			params[i], err = c.nodes(ps, p.depth+1)
			if err != nil {
				return nil, err
			}
		}

		c.exprs[p.index].params = params
	}

	return &Template{
		src:   src,
		exprs: c.exprs,
		root:  root,
		opts:  o,
	}, nil
}

// nodes tokenizes src[sp] and converts each token to a node, interning
// expressions by their text.
func (c *compiler) nodes(sp span, depth int) ([]node, error) {
	toks, err := tokenize(c.src, sp)
	if err != nil {
		return nil, err
	}

	out := make([]node, 0, len(toks))

	for _, tok := range toks {
		if tok.kind == tokenLiteral {
			out = append(out, node{span: tok.span, kind: nodeLiteral})

			continue
		}

		text := tok.in(c.src)

		if idx, ok := c.interned[text]; ok {
			c.exprs[idx].shared = true

			c.opts.logger.TraceContext(c.ctx, "intern hit",
				slog.String("expr", text),
				slog.Int("index", idx),
			)

			out = append(out, node{span: tok.span, index: idx, kind: nodeShared})

			continue
		}

		if depth >= c.opts.maxDepth {
			return nil, &ParseError{
				Err: ErrMaxDepthExceeded.With(
					slog.Int("depth", depth),
					slog.Int("max", c.opts.maxDepth),
				),
				Source: c.src,
				Pos:    positionOf(c.src, tok.off),
			}
		}

		ex, err := extract(c.src, tok.span)
		if err != nil {
			return nil, err
		}

		idx := len(c.exprs)
		c.exprs = append(c.exprs, expr{
			name:     ex.name,
			subpath:  ex.subpath,
			text:     ex.text,
			optional: ex.optional,
			escape:   ex.escape,
		})
		c.interned[text] = idx
		c.queue = append(c.queue, pending{ex: ex, index: idx, depth: depth})

		out = append(out, node{span: tok.span, index: idx, kind: nodeOwned})
	}

	return out, nil
}
