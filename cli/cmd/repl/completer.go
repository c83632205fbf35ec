package repl

import (
	"context"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/pattern/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"clear", "edit", "help", "names", "quit", "set", "tree", "unset", "vars",
}

// loopNames are the names bound inside a for body.
var loopNames = []string{"i", "index"}

// isWordBoundary reports whether r ends a name being completed. Braces
// and colons delimit expressions and parameters, the dot separates
// accessors, and the sigils may prefix a name.
func isWordBoundary(r rune) bool {
	switch r {
	case '{', '}', ':', '.', '#',
		'[', ']', ',',
		' ', '\t', '"', '\'':
		return true
	}

	return false
}

// wordBounds returns the word at cursor and its byte offsets in input.
// The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the accessor chain leading up to the word starting at
// wordStart. For "{window.size.w" with the word "w" it is "window.size".
// It is empty for a name at the start of an expression, including one
// after the optional-sigil dot ("{.na").
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]

	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimSuffix(prefix, ".")
	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.TrimLeft(prefix[pos:], ".")
}

// byteOffset converts a rune position in s, as reported by the text
// input, to a byte offset.
func byteOffset(s string, runes int) int {
	for i := range s {
		if runes == 0 {
			return i
		}

		runes--
	}

	return len(s)
}

// fieldNames returns the accessors of a value, or nil if it has none.
func fieldNames(v lang.Variable) []string {
	switch v := v.(type) {
	case lang.Vector:
		return []string{"x", "y"}
	case lang.Size:
		return []string{"w", "h"}
	case lang.Range:
		return []string{"start", "end"}
	case lang.Color:
		return []string{"r", "g", "b", "a"}
	case lang.Array:
		return []string{"length"}
	case lang.Map:
		return slices.Sorted(maps.Keys(v))
	}

	return nil
}

// candidates returns the completions for a word under parent. At the top
// level every visible name is offered. Under a parent, the parent is
// resolved one accessor at a time and its fields are offered.
func (s *session) candidates(ctx context.Context, parent string) []string {
	if parent == "" {
		return append(s.names(), loopNames...)
	}

	segments := strings.Split(parent, ".")

	v, ok := s.env.Find(segments[0])
	if !ok {
		if h, found := s.objs.RetrieveNamed(ctx, segments[0]); found {
			if f, isFields := h.(lang.Fields); isFields {
				v, ok = lang.Map(f), true
			}
		}
	}

	if !ok {
		return nil
	}

	for _, seg := range segments[1:] {
		next, found := field(v, seg)
		if !found {
			return nil
		}

		v = next
	}

	return fieldNames(v)
}

// field returns the accessor named name on v.
func field(v lang.Variable, name string) (lang.Variable, bool) {
	switch v := v.(type) {
	case interface {
		Field(name string) (lang.Variable, bool)
	}:
		return v.Field(name)
	}

	return nil, false
}

// computeMatches ranks the candidates for the word at the cursor, best
// first. An empty top-level word has no matches so the hint line stays
// visible; an empty word after a dot lists every field.
func (m model) computeMatches() (matches fuzzy.Matches, wordStart, wordEnd int) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, byteOffset(input, m.input.Position()))

	var candidates []string

	if m.mode == modeCtrl {
		if word == "" || strings.ContainsRune(input[:wordStart], ' ') {
			return nil, wordStart, wordEnd
		}

		candidates = ctrlCommands
	} else {
		parent := parentPath(input, wordStart)
		candidates = m.session.candidates(m.ctxFunc(), parent)

		if word == "" {
			if parent == "" || len(candidates) == 0 {
				return nil, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, wordStart, wordEnd
		}
	}

	return fuzzy.Find(word, candidates), wordStart, wordEnd
}

// renderCandidateBar renders the completion bar on one line, cut off with
// an ellipsis at width. The selected candidate is highlighted while
// tab-cycling.
func (m model) renderCandidateBar() string {
	if len(m.matches) == 0 || m.width <= 0 {
		return ""
	}

	const sep = "  "

	var (
		b        strings.Builder
		used     int
		ellipsis = hintStyle.Render("...")
	)

	for i, match := range m.matches {
		rendered := m.renderCandidate(match, m.tabActive && i == m.suggIdx)

		width := lipgloss.Width(rendered)
		if i > 0 {
			width += len(sep)
		}

		if i > 0 && used+width+lipgloss.Width(ellipsis) > m.width {
			b.WriteString(sep + ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += width
	}

	return b.String()
}

// renderCandidate highlights the matched characters of a candidate.
// Functions are shown with a ":" suffix, the separator that starts their
// first argument.
func (m model) renderCandidate(match fuzzy.Match, selected bool) string {
	base, highlight := suggestionStyle, matchStyle
	if selected {
		base, highlight = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if m.mode == modeTemplate {
		if _, ok := m.session.env.Function(match.Str); ok {
			b.WriteString(base.Render(":"))
		}
	}

	return b.String()
}
