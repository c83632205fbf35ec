package lang

import (
	"errors"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"
)

var errDivideByZero = errors.New("division by zero")

// maxOutputLen bounds the length in bytes of a string built by repeat or
// padding.
const maxOutputLen = 1 << 20

// maxPlaces bounds the decimal places accepted by round.
const maxPlaces = 15

// checkLen returns [ErrOutputTooLarge] if count copies of s exceed
// maxOutputLen.
func checkLen(s string, count int) error {
	if count > 0 && len(s) > 0 && count > maxOutputLen/len(s) {
		return ErrOutputTooLarge.With(slog.Int("count", count), slog.Int("limit", maxOutputLen))
	}

	return nil
}

// fn is shorthand for declaring a built-in [Function].
func fn(name string, minArgs, maxArgs int, f func(Call) (Variable, error)) *Function {
	return &Function{Name: name, MinArgs: minArgs, MaxArgs: maxArgs, Fn: f}
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

func arithmeticFuncs() []*Function {
	return []*Function{
		fn("+", 2, Variadic, fold(func(a, b float64) float64 { return a + b })),
		fn("*", 2, Variadic, fold(func(a, b float64) float64 { return a * b })),
		fn("min", 1, Variadic, fold(math.Min)),
		fn("max", 1, Variadic, fold(math.Max)),
		fn("-", 1, 2, func(c Call) (Variable, error) {
			a, err := c.Number(0)
			if err != nil {
				return nil, err
			}

			if len(c.Args) == 1 {
				return Number(-a), nil
			}

			b, err := c.Number(1)

			return Number(a - b), err
		}),
		fn("/", 2, 2, binary(func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, errDivideByZero
			}

			return a / b, nil
		})),
		fn("mod", 2, 2, binary(func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, errDivideByZero
			}

			return math.Mod(a, b), nil
		})),
		fn("round", 1, 2, func(c Call) (Variable, error) {
			x, err := c.Number(0)
			if err != nil {
				return nil, err
			}

			places, err := c.NumberOr(1, 0)
			if err != nil {
				return nil, err
			}

			scale := math.Pow(10, math.Trunc(min(max(places, -maxPlaces), maxPlaces)))

			scaled := x * scale
			if math.IsInf(scaled, 0) {
				return Number(x), nil
			}

			return Number(math.Round(scaled) / scale), nil
		}),
		fn("sqr", 1, 1, unary(func(x float64) float64 { return x * x })),
		fn("abs", 1, 1, unary(math.Abs)),
	}
}

// fold reduces all arguments, parsed as numbers, with op.
func fold(op func(a, b float64) float64) func(Call) (Variable, error) {
	return func(c Call) (Variable, error) {
		nums, err := c.Numbers()
		if err != nil {
			return nil, err
		}

		acc := nums[0]
		for _, n := range nums[1:] {
			acc = op(acc, n)
		}

		return Number(acc), nil
	}
}

func unary(op func(float64) float64) func(Call) (Variable, error) {
	return func(c Call) (Variable, error) {
		x, err := c.Number(0)
		if err != nil {
			return nil, err
		}

		return Number(op(x)), nil
	}
}

func binary(op func(a, b float64) (float64, error)) func(Call) (Variable, error) {
	return func(c Call) (Variable, error) {
		nums, err := c.Numbers()
		if err != nil {
			return nil, err
		}

		x, err := op(nums[0], nums[1])
		if err != nil {
			return nil, err
		}

		return Number(x), nil
	}
}

// ---------------------------------------------------------------------------
// Comparison and logic
// ---------------------------------------------------------------------------

func logicFuncs() []*Function {
	cmpFn := func(name string, ok func(int) bool) *Function {
		return fn(name, 2, 2, func(c Call) (Variable, error) {
			return Bool(ok(compare(c.Args[0], c.Args[1]))), nil
		})
	}

	return []*Function{
		cmpFn(">", func(n int) bool { return n > 0 }),
		cmpFn(">=", func(n int) bool { return n >= 0 }),
		cmpFn("<", func(n int) bool { return n < 0 }),
		cmpFn("<=", func(n int) bool { return n <= 0 }),
		cmpFn("equal", func(n int) bool { return n == 0 }),
		cmpFn("nequal", func(n int) bool { return n != 0 }),
		fn("&&", 2, Variadic, func(c Call) (Variable, error) {
			for _, a := range c.Args {
				if !truthy(a) {
					return Bool(false), nil
				}
			}

			return Bool(true), nil
		}),
		fn("||", 2, Variadic, func(c Call) (Variable, error) {
			for _, a := range c.Args {
				if truthy(a) {
					return Bool(true), nil
				}
			}

			return Bool(false), nil
		}),
		fn("not", 1, 1, func(c Call) (Variable, error) {
			return Bool(!truthy(c.Args[0])), nil
		}),
	}
}

// ---------------------------------------------------------------------------
// Strings and arrays
// ---------------------------------------------------------------------------

func stringFuncs() []*Function {
	return []*Function{
		fn("lower", 1, 1, func(c Call) (Variable, error) {
			return String(strings.ToLower(c.Args[0])), nil
		}),
		fn("upper", 1, 1, func(c Call) (Variable, error) {
			return String(strings.ToUpper(c.Args[0])), nil
		}),
		fn("substr", 2, 3, substr),
		fn("pad_string", 2, 3, pad(false)),
		fn("padl_string", 2, 3, pad(true)),
		fn("shorten", 2, 3, shorten),
		fn("concat", 1, Variadic, func(c Call) (Variable, error) {
			return String(strings.Join(c.Args, "")), nil
		}),
		fn("repeat", 2, 2, func(c Call) (Variable, error) {
			n, err := c.Int(1)
			if err != nil {
				return nil, err
			}

			if err := checkLen(c.Args[0], n); err != nil {
				return nil, err
			}

			return String(strings.Repeat(c.Args[0], max(n, 0))), nil
		}),
		fn("join", 1, 2, func(c Call) (Variable, error) {
			return String(strings.Join(elements(c.Args[0]), c.Arg(1, ""))), nil
		}),
		fn("at", 2, 2, func(c Call) (Variable, error) {
			i, err := c.Int(1)
			if err != nil {
				return nil, err
			}

			items := elements(c.Args[0])
			if i < 0 {
				i += len(items)
			}

			if i < 0 || i >= len(items) {
				return String(""), nil
			}

			return String(items[i]), nil
		}),
		fn("array_length", 1, 1, func(c Call) (Variable, error) {
			return Number(len(elements(c.Args[0]))), nil
		}),
		fn("empty", 1, 1, func(c Call) (Variable, error) {
			return Bool(len(elements(c.Args[0])) == 0), nil
		}),
	}
}

// substr returns the runes of s from start, optionally limited to n runes.
// A negative start counts from the end of s.
func substr(c Call) (Variable, error) {
	r := []rune(c.Args[0])

	start, err := c.Int(1)
	if err != nil {
		return nil, err
	}

	if start < 0 {
		start += len(r)
	}

	start = min(max(start, 0), len(r))
	end := len(r)

	if len(c.Args) > 2 {
		n, err := c.Int(2)
		if err != nil {
			return nil, err
		}

		end = min(start+max(n, 0), len(r))
	}

	return String(r[start:end]), nil
}

// pad returns a function padding s to a width of n runes with a fill
// character (default space), on the left when left is set.
func pad(left bool) func(Call) (Variable, error) {
	return func(c Call) (Variable, error) {
		n, err := c.Int(1)
		if err != nil {
			return nil, err
		}

		s := c.Args[0]
		fill := c.Arg(2, " ")

		if fill == "" {
			fill = " "
		}

		count := n - utf8.RuneCountInString(s)
		if count <= 0 {
			return String(s), nil
		}

		if err := checkLen(fill, count); err != nil {
			return nil, err
		}

		p := strings.Repeat(fill, count)
		p = string([]rune(p)[:count])

		if left {
			return String(p + s), nil
		}

		return String(s + p), nil
	}
}

// shorten truncates s to at most n runes, replacing the tail with a suffix
// (default "...") when truncation occurs.
func shorten(c Call) (Variable, error) {
	n, err := c.Int(1)
	if err != nil {
		return nil, err
	}

	n = max(n, 0)

	r := []rune(c.Args[0])
	if len(r) <= n {
		return String(c.Args[0]), nil
	}

	suffix := []rune(c.Arg(2, "..."))
	keep := max(n-len(suffix), 0)

	return String(string(r[:keep]) + string(suffix[:min(len(suffix), n)])), nil
}
