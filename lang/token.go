package lang

// span is a byte range of a template's source buffer.
type span struct {
	off int
	n   int
}

func (s span) end() int { return s.off + s.n }

func (s span) in(src string) string { return src[s.off:s.end()] }

type tokenKind uint8

const (
	tokenLiteral tokenKind = iota
	tokenExpr
)

// token is either a literal run of text or the content of a top-level
// {...} expression, excluding its braces.
type token struct {
	span
	kind tokenKind
}

// tokenize splits src[sp] into literal and expression tokens.
//
// Braces nested inside an expression are captured verbatim until the brace
// matching the outermost '{'. A backslash escapes the character following it.
// Outside of expressions the backslash itself is dropped, splitting the
// surrounding literal. Inside expressions the pair is kept verbatim so that
// it is handled again when the parameter is tokenized.
func tokenize(src string, sp span) ([]token, error) {
	var (
		toks  []token
		stack []int
		lit   = sp.off
		end   = sp.end()
	)

	flush := func(to int) {
		if to > lit {
			toks = append(toks, token{span: span{lit, to - lit}, kind: tokenLiteral})
		}
	}

	for i := sp.off; i < end; i++ {
		switch src[i] {
		case '\\':
			if len(stack) == 0 {
				flush(i)
				lit = i + 1
			}

			i++ // the escaped character is never special

		case '{':
			stack = append(stack, i)

		case '}':
			if len(stack) == 0 {
				return nil, newParseError(ErrUnbalancedBraces, src, i)
			}

			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if len(stack) > 0 {
				continue
			}

			if i == start+1 {
				return nil, newParseError(ErrEmptyExpression, src, start)
			}

			flush(start)

			toks = append(toks, token{
				span: span{start + 1, i - start - 1},
				kind: tokenExpr,
			})
			lit = i + 1
		}
	}

	if len(stack) > 0 {
		return nil, newParseError(ErrUnbalancedBraces, src, stack[0])
	}

	flush(end)

	return toks, nil
}
