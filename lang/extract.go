package lang

import "strings"

// Sigils recognized at the start of an expression name.
const (
	sigilEscape   = '#' // HTML-escape the result
	sigilOptional = '.' // resolve errors to the empty string
)

// expression is the parsed form of a single {...} expression.
type expression struct {
	text     span // content between the braces
	name     string
	subpath  []string
	params   []span // each one is a mini-template
	sigils   int
	optional bool
	escape   bool
}

// extract parses the expression whose content (without braces) is src[sp].
//
// The content is split on ':' at the top level only, that is, outside of
// quotes, brackets, and nested braces. A backslash skips the character after
// it. The first field is the name with its sigils; the remaining fields are
// parameters. A quote opens anywhere at the top level of a field and runs to
// its match, so a literal apostrophe must be escaped. A parameter wholly
// wrapped in matching quotes is unquoted.
func extract(src string, sp span) (expression, error) {
	ex := expression{text: sp}

	fields, err := splitFields(src, sp)
	if err != nil {
		return ex, err
	}

	head := fields[0]
	name := head.in(src)

	for len(name) > 0 && (name[0] == sigilEscape || name[0] == sigilOptional) {
		switch name[0] {
		case sigilEscape:
			ex.escape = true
		case sigilOptional:
			ex.optional = true
		}

		ex.sigils++
		name = name[1:]
	}

	if name == "" {
		return ex, newParseError(ErrEmptyExpression, src, head.off)
	}

	if i := strings.IndexByte(name, '.'); i > 0 {
		ex.subpath = strings.Split(name[i+1:], ".")
		name = name[:i]
	}

	ex.name = name

	if len(fields) > 1 {
		ex.params = make([]span, len(fields)-1)
		for i, f := range fields[1:] {
			ex.params[i] = unquote(src, f)
		}
	}

	return ex, nil
}

// splitFields splits src[sp] on top-level ':' characters.
func splitFields(src string, sp span) ([]span, error) {
	var (
		fields  []span
		start   = sp.off
		end     = sp.end()
		brace   int
		bracket int
	)

	for i := sp.off; i < end; i++ {
		switch c := src[i]; c {
		case '\\':
			i++

		case '\'', '"':
			if brace > 0 || bracket > 0 {
				continue
			}

			closing := closeQuote(src, i, end)
			if closing < 0 {
				return nil, newParseError(ErrUnterminatedQuote, src, i)
			}

			i = closing

		case '{':
			brace++

		case '}':
			brace--

		case '[':
			if brace == 0 {
				bracket++
			}

		case ']':
			if brace == 0 && bracket > 0 {
				bracket--
			}

		case ':':
			if brace == 0 && bracket == 0 {
				fields = append(fields, span{start, i - start})
				start = i + 1
			}
		}
	}

	return append(fields, span{start, end - start}), nil
}

// closeQuote returns the offset of the quote closing the one at src[open],
// or -1 if there is none before end.
func closeQuote(src string, open, end int) int {
	for i := open + 1; i < end; i++ {
		switch src[i] {
		case '\\':
			i++
		case src[open]:
			return i
		}
	}

	return -1
}

// unquote strips a pair of matching quotes wrapping the whole field.
func unquote(src string, f span) span {
	if f.n < 2 {
		return f
	}

	q := src[f.off]
	if (q != '\'' && q != '"') || src[f.end()-1] != q {
		return f
	}

	if closeQuote(src, f.off, f.end()) != f.end()-1 {
		return f
	}

	return span{f.off + 1, f.n - 2}
}
