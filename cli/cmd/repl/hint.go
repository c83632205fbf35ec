package repl

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/pattern/lang"
)

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// call describes the expression whose parameter list holds the cursor.
type call struct {
	name     string // expression name without sigils or accessors
	argIndex int    // 0-based parameter under the cursor
	inCall   bool   // false while the cursor is on a name
}

// detectCall finds the innermost expression enclosing cursor and the
// parameter the cursor is in.
func detectCall(input string, cursor int) call {
	cursor = min(max(cursor, 0), len(input))

	open, depth := -1, 0

	for i := cursor - 1; i >= 0 && open < 0; i-- {
		switch input[i] {
		case '}':
			depth++
		case '{':
			if depth == 0 {
				open = i
			} else {
				depth--
			}
		}
	}

	if open < 0 {
		return call{}
	}

	body := input[open+1 : cursor]

	var (
		colons  []int
		nested  int
		bracket int
	)

	for i := range len(body) {
		switch body[i] {
		case '{':
			nested++
		case '}':
			nested--
		case '[':
			bracket++
		case ']':
			bracket--
		case ':':
			if nested == 0 && bracket == 0 {
				colons = append(colons, i)
			}
		}
	}

	if len(colons) == 0 {
		return call{}
	}

	name := strings.TrimLeft(body[:colons[0]], "#.")
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}

	return call{name: name, argIndex: len(colons) - 1, inCall: name != ""}
}

// renderSignatureHint renders the signature of fn with the parameter
// under the cursor called out, or "" if fn is nil.
func renderSignatureHint(fn *lang.Function, argIndex int) string {
	if fn == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(fn.Name))
	b.WriteString(signatureStyle.Render(strings.TrimPrefix(fn.Signature(), fn.Name)))
	b.WriteString(signatureStyle.Render("  "))

	arg := "arg " + strconv.Itoa(argIndex+1)

	if fn.MaxArgs != lang.Variadic && argIndex >= fn.MaxArgs {
		b.WriteString(errorStyle.Render(arg + " (too many)"))
	} else {
		b.WriteString(currentParamStyle.Render(arg))
	}

	return b.String()
}
