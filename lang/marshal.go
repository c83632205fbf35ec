package lang

import (
	"encoding/json"

	"github.com/goccy/go-yaml"
)

// MarshalJSON implements json.Marshaler for Template.
func (t *Template) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.ToMap())
}

// MarshalYAML implements yaml.BytesMarshaler for Template.
func (t *Template) MarshalYAML() ([]byte, error) {
	return yaml.Marshal(t.ToMap())
}

// ToMap converts the compiled template to a native Go map structure
// describing its arena and root node list. Expressions are listed in arena
// order, and nodes refer to them by position in that list.
func (t *Template) ToMap() map[string]any {
	exprs := make([]any, len(t.exprs))

	for i, e := range t.exprs {
		m := map[string]any{
			"index": i,
			"text":  e.text.in(t.src),
			"name":  e.name,
		}

		if len(e.subpath) > 0 {
			m["subpath"] = e.subpath
		}

		if e.optional {
			m["optional"] = true
		}

		if e.escape {
			m["escape"] = true
		}

		if e.shared {
			m["shared"] = true
		}

		if len(e.params) > 0 {
			params := make([]any, len(e.params))
			for j, p := range e.params {
				params[j] = t.nodesToNative(p)
			}

			m["params"] = params
		}

		exprs[i] = m
	}

	return map[string]any{
		"source": t.src,
		"root":   t.nodesToNative(t.root),
		"exprs":  exprs,
	}
}

func (t *Template) nodesToNative(nodes []node) []any {
	out := make([]any, len(nodes))

	for i, n := range nodes {
		switch n.kind {
		case nodeLiteral:
			out[i] = map[string]any{"literal": n.span.in(t.src)}
		case nodeOwned:
			out[i] = map[string]any{"expr": n.index}
		case nodeShared:
			out[i] = map[string]any{"ref": n.index}
		}
	}

	return out
}
