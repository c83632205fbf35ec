package lang

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
)

// Variadic is the MaxArgs of a [Function] accepting any number of trailing
// arguments.
const Variadic = -1

// Function is a named callable [Variable].
//
// Arguments are the resolved parameters of the calling expression. The
// argument count is validated against MinArgs and MaxArgs before Fn is
// called; a MaxArgs of [Variadic] imposes no upper bound. The result is a
// [Variable], so accessors apply to function results ({mouse.x}).
type Function struct {
	Fn      func(Call) (Variable, error)
	Name    string
	MinArgs int
	MaxArgs int
}

// Call carries the arguments and evaluation state of a function invocation.
type Call struct {
	Context context.Context
	Env     *Env
	State   *State
	Name    string
	Args    []string
}

// Invoke validates the argument count and calls f.
// Failures of the function body, including panics, are wrapped with
// [ErrUserFunction].
func (f *Function) Invoke(c Call) (v Variable, err error) {
	if c.Context == nil {
		c.Context = context.Background()
	}

	if c.Name == "" {
		c.Name = f.Name
	}

	if n := len(c.Args); n < f.MinArgs || (f.MaxArgs != Variadic && n > f.MaxArgs) {
		return nil, ErrArityMismatch.With(
			slog.String("function", c.Name),
			slog.String("want", f.arity()),
			slog.Int("got", n),
		)
	}

	defer func() {
		if p := recover(); p != nil {
			v, err = nil, ErrUserFunction.Wrap(fmt.Errorf("panic: %v", p)).
				With(slog.String("function", c.Name))
		}
	}()

	v, err = f.Fn(c)
	if err != nil {
		return nil, ErrUserFunction.Wrap(err).With(slog.String("function", c.Name))
	}

	return v, nil
}

// ValueString implements [Variable] by invoking f with params as its
// arguments and no evaluation state.
func (f *Function) ValueString(subpath, params []string) (string, error) {
	v, err := f.Invoke(Call{Args: params})
	if err != nil {
		return "", err
	}

	return render(v, subpath)
}

// Signature returns a short usage string such as "substr/2..3".
func (f *Function) Signature() string { return f.Name + "/" + f.arity() }

func (f *Function) arity() string {
	switch {
	case f.MaxArgs == Variadic:
		return strconv.Itoa(f.MinArgs) + "+"
	case f.MinArgs == f.MaxArgs:
		return strconv.Itoa(f.MinArgs)
	default:
		return strconv.Itoa(f.MinArgs) + ".." + strconv.Itoa(f.MaxArgs)
	}
}

// ---------------------------------------------------------------------------
// Argument helpers
// ---------------------------------------------------------------------------

// Arg returns argument i, or def if there are not that many arguments.
func (c Call) Arg(i int, def string) string {
	if i < len(c.Args) {
		return c.Args[i]
	}

	return def
}

// Number parses argument i as a number.
func (c Call) Number(i int) (float64, error) {
	return parseNumber(c.Arg(i, ""))
}

// NumberOr parses argument i as a number, or returns def if there are not
// that many arguments.
func (c Call) NumberOr(i int, def float64) (float64, error) {
	if i >= len(c.Args) {
		return def, nil
	}

	return parseNumber(c.Args[i])
}

// maxIntArg bounds integer arguments to the range float64 holds exactly.
const maxIntArg = 1 << 53

// Int parses argument i as a number and truncates it to an int. Values
// beyond ±2^53 are rejected with [ErrInvalidNumber].
func (c Call) Int(i int) (int, error) {
	f, err := c.Number(i)
	if err != nil {
		return 0, err
	}

	if math.IsNaN(f) || math.Abs(f) > maxIntArg {
		return 0, ErrInvalidNumber.With(slog.String("value", c.Arg(i, "")))
	}

	return int(f), nil
}

// Numbers parses all arguments as numbers.
func (c Call) Numbers() ([]float64, error) {
	out := make([]float64, len(c.Args))

	for i := range c.Args {
		f, err := c.Number(i)
		if err != nil {
			return nil, err
		}

		out[i] = f
	}

	return out, nil
}

// Vector parses argument i as a vector.
func (c Call) Vector(i int) (Vector, error) {
	return parseVector(c.Arg(i, ""))
}
