package lang

import (
	"cmp"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Variable is anything an expression name can resolve to.
//
// ValueString renders the value after applying the accessor chain subpath
// (the dotted suffix of an expression name, such as "x" in {pos.x}). The
// resolved parameters of the expression are given in params.
type Variable interface {
	ValueString(subpath, params []string) (string, error)
}

// fielder is implemented by values with named sub-accessors.
type fielder interface {
	Field(name string) (Variable, bool)
}

// render applies subpath to v and formats the result.
func render(v Variable, subpath []string) (string, error) {
	for _, name := range subpath {
		f, ok := v.(fielder)
		if !ok {
			return "", ErrInvalidSubAccessor.With(
				slog.String("accessor", name),
				slog.String("value", stringOf(v)),
			)
		}

		next, ok := f.Field(name)
		if !ok {
			return "", ErrInvalidSubAccessor.With(
				slog.String("accessor", name),
				slog.String("value", stringOf(v)),
			)
		}

		v = next
	}

	return stringOf(v), nil
}

func stringOf(v Variable) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case fmt.Stringer:
		return v.String()
	default:
		s, err := v.ValueString(nil, nil)
		if err != nil {
			return "null"
		}

		return s
	}
}

// ---------------------------------------------------------------------------
// Scalars
// ---------------------------------------------------------------------------

// String is a text value.
type String string

func (s String) String() string { return string(s) }

// ValueString implements [Variable].
func (s String) ValueString(subpath, _ []string) (string, error) {
	return render(s, subpath)
}

// Number is a numeric value. It is formatted with the fewest digits
// necessary to represent it exactly.
type Number float64

func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

// ValueString implements [Variable].
func (n Number) ValueString(subpath, _ []string) (string, error) {
	return render(n, subpath)
}

// Bool is a boolean value, formatted as "true" or "false".
type Bool bool

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// ValueString implements [Variable].
func (b Bool) ValueString(subpath, _ []string) (string, error) {
	return render(b, subpath)
}

// ---------------------------------------------------------------------------
// Compound values
// ---------------------------------------------------------------------------

// Vector is a 2D point or direction, formatted as "(x,y)".
// Sub-accessors: x, y.
type Vector struct{ X, Y float64 }

func (v Vector) String() string {
	return "(" + Number(v.X).String() + "," + Number(v.Y).String() + ")"
}

// Field implements sub-accessor lookup.
func (v Vector) Field(name string) (Variable, bool) {
	switch name {
	case "x":
		return Number(v.X), true
	case "y":
		return Number(v.Y), true
	}

	return nil, false
}

// ValueString implements [Variable].
func (v Vector) ValueString(subpath, _ []string) (string, error) {
	return render(v, subpath)
}

// Size is a width and height, formatted as "(w,h)".
// Sub-accessors: w, h.
type Size struct{ W, H float64 }

func (s Size) String() string {
	return "(" + Number(s.W).String() + "," + Number(s.H).String() + ")"
}

// Field implements sub-accessor lookup.
func (s Size) Field(name string) (Variable, bool) {
	switch name {
	case "w":
		return Number(s.W), true
	case "h":
		return Number(s.H), true
	}

	return nil, false
}

// ValueString implements [Variable].
func (s Size) ValueString(subpath, _ []string) (string, error) {
	return render(s, subpath)
}

// Range is an interval, formatted as "(start,end)".
// Sub-accessors: start, end.
type Range struct{ Start, End float64 }

func (r Range) String() string {
	return "(" + Number(r.Start).String() + "," + Number(r.End).String() + ")"
}

// Field implements sub-accessor lookup.
func (r Range) Field(name string) (Variable, bool) {
	switch name {
	case "start":
		return Number(r.Start), true
	case "end":
		return Number(r.End), true
	}

	return nil, false
}

// ValueString implements [Variable].
func (r Range) ValueString(subpath, _ []string) (string, error) {
	return render(r, subpath)
}

// Color is an RGBA color, formatted as "#rrggbbaa".
// Sub-accessors: r, g, b, a.
type Color struct{ R, G, B, A uint8 }

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// Field implements sub-accessor lookup.
func (c Color) Field(name string) (Variable, bool) {
	switch name {
	case "r":
		return Number(c.R), true
	case "g":
		return Number(c.G), true
	case "b":
		return Number(c.B), true
	case "a":
		return Number(c.A), true
	}

	return nil, false
}

// ValueString implements [Variable].
func (c Color) ValueString(subpath, _ []string) (string, error) {
	return render(c, subpath)
}

// Array is an ordered list of element texts, formatted as "[a,b,...]".
// Sub-accessors: a decimal element index, or length.
type Array []string

func (a Array) String() string { return "[" + strings.Join(a, ",") + "]" }

// Field implements sub-accessor lookup.
func (a Array) Field(name string) (Variable, bool) {
	if name == "length" {
		return Number(len(a)), true
	}

	i, err := strconv.Atoi(name)
	if err != nil || i < 0 || i >= len(a) {
		return nil, false
	}

	return String(a[i]), true
}

// ValueString implements [Variable].
func (a Array) ValueString(subpath, _ []string) (string, error) {
	return render(a, subpath)
}

// Map is a set of named values. It renders as "{k:v,...}" with keys in
// sorted order, and each key is a sub-accessor.
type Map map[string]Variable

func (m Map) String() string {
	var sb strings.Builder

	sb.WriteByte('{')

	for i, k := range slices.Sorted(maps.Keys(m)) {
		if i > 0 {
			sb.WriteByte(',')
		}

		sb.WriteString(k)
		sb.WriteByte(':')
		sb.WriteString(stringOf(m[k]))
	}

	sb.WriteByte('}')

	return sb.String()
}

// Field implements sub-accessor lookup.
func (m Map) Field(name string) (Variable, bool) {
	v, ok := m[name]

	return v, ok
}

// ValueString implements [Variable].
func (m Map) ValueString(subpath, _ []string) (string, error) {
	return render(m, subpath)
}

// Getter is a lazily computed value. The function is called each time the
// variable is resolved, which is at most once per realization for any
// distinct expression text.
type Getter func() (Variable, error)

// ValueString implements [Variable].
func (g Getter) ValueString(subpath, params []string) (string, error) {
	v, err := g()
	if err != nil {
		return "", err
	}

	if v == nil {
		return render(String("null"), subpath)
	}

	return v.ValueString(subpath, params)
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

// ValueOf converts a native Go value to a [Variable].
//
// Maps whose keys are exactly {x, y}, {w, h}, or {start, end} with numeric
// values become a [Vector], [Size], or [Range]. Other maps become a [Map],
// slices become an [Array], and anything else is formatted as a [String].
func ValueOf(v any) Variable {
	switch v := v.(type) {
	case nil:
		return String("null")
	case Variable:
		return v
	case string:
		return String(v)
	case bool:
		return Bool(v)
	case int:
		return Number(v)
	case int8:
		return Number(v)
	case int16:
		return Number(v)
	case int32:
		return Number(v)
	case int64:
		return Number(v)
	case uint:
		return Number(v)
	case uint8:
		return Number(v)
	case uint16:
		return Number(v)
	case uint32:
		return Number(v)
	case uint64:
		return Number(v)
	case float32:
		return Number(v)
	case float64:
		return Number(v)
	case []string:
		return Array(v)
	case []any:
		a := make(Array, len(v))
		for i, e := range v {
			a[i] = stringOf(ValueOf(e))
		}

		return a
	case map[string]any:
		return mapValue(v)
	case map[string]string:
		m := make(Map, len(v))
		for k, e := range v {
			m[k] = String(e)
		}

		return m
	default:
		return String(fmt.Sprint(v))
	}
}

func mapValue(v map[string]any) Variable {
	num := func(k string) (float64, bool) {
		n, ok := ValueOf(v[k]).(Number)

		return float64(n), ok
	}

	if len(v) == 2 {
		for _, pair := range [][2]string{{"x", "y"}, {"w", "h"}, {"start", "end"}} {
			a, okA := num(pair[0])
			b, okB := num(pair[1])

			if !okA || !okB {
				continue
			}

			switch pair[0] {
			case "x":
				return Vector{a, b}
			case "w":
				return Size{a, b}
			default:
				return Range{a, b}
			}
		}
	}

	m := make(Map, len(v))
	for k, e := range v {
		m[k] = ValueOf(e)
	}

	return m
}

// ---------------------------------------------------------------------------
// Parsing helpers
// ---------------------------------------------------------------------------

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, ErrInvalidNumber.With(slog.String("value", s))
	}

	return f, nil
}

func isNumber(s string) bool {
	_, err := parseNumber(s)

	return err == nil
}

// parseVector parses "(x,y)". A lone number n is the vector (n,n).
func parseVector(s string) (Vector, error) {
	t := strings.TrimSpace(s)

	if !strings.HasPrefix(t, "(") || !strings.HasSuffix(t, ")") {
		n, err := parseNumber(t)
		if err != nil {
			return Vector{}, ErrInvalidVector.With(slog.String("value", s))
		}

		return Vector{n, n}, nil
	}

	x, y, ok := strings.Cut(t[1:len(t)-1], ",")
	if !ok {
		return Vector{}, ErrInvalidVector.With(slog.String("value", s))
	}

	fx, errX := parseNumber(x)
	fy, errY := parseNumber(y)

	if errX != nil || errY != nil {
		return Vector{}, ErrInvalidVector.With(slog.String("value", s))
	}

	return Vector{fx, fy}, nil
}

// truthy reports whether s counts as true in a condition.
// The empty string, "false", "null", and any number equal to zero are false.
func truthy(s string) bool {
	switch t := strings.TrimSpace(s); t {
	case "", "false", "null":
		return false
	default:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f != 0
		}

		return true
	}
}

// compare orders a and b numerically when both parse as numbers,
// and lexically otherwise.
func compare(a, b string) int {
	fa, errA := parseNumber(a)
	fb, errB := parseNumber(b)

	if errA == nil && errB == nil {
		return cmp.Compare(fa, fb)
	}

	return strings.Compare(a, b)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
