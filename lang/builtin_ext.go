package lang

import (
	"strconv"
	"sync"

	exprlang "github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/google/cel-go/cel"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Expression-language functions. Both calc and cel evaluate their first
// argument with any remaining arguments bound as the list args. The caller
// variables are bound by name in calc, and as the map vars in cel.
// Arguments and variables that parse as numbers are bound as numbers.

func extensionFuncs() []*Function {
	return []*Function{
		fn("calc", 1, Variadic, calc),
		fn("cel", 1, Variadic, celEval),
		fn("number", 1, 3, formatNumber),
	}
}

// ---------------------------------------------------------------------------
// expr-lang
// ---------------------------------------------------------------------------

//nolint:gochecknoglobals
var calcPrograms sync.Map // map[string]*vm.Program

func calc(c Call) (Variable, error) {
	src := c.Args[0]

	var program *vm.Program

	if p, ok := calcPrograms.Load(src); ok {
		program = p.(*vm.Program)
	} else {
		p, err := exprlang.Compile(src)
		if err != nil {
			return nil, err
		}

		calcPrograms.Store(src, p)
		program = p
	}

	env := nativeVars(c.Env)
	env["args"] = nativeArgs(c.Args[1:])

	result, err := vm.Run(program, env)
	if err != nil {
		return nil, err
	}

	return ValueOf(result), nil
}

// ---------------------------------------------------------------------------
// CEL
// ---------------------------------------------------------------------------

//nolint:gochecknoglobals
var celEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("vars", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("args", cel.ListType(cel.DynType)),
	)
})

//nolint:gochecknoglobals
var celPrograms = struct {
	sync.RWMutex
	cache map[string]cel.Program
}{cache: make(map[string]cel.Program)}

func celProgram(src string) (cel.Program, error) {
	celPrograms.RLock()
	prg, ok := celPrograms.cache[src]
	celPrograms.RUnlock()

	if ok {
		return prg, nil
	}

	env, err := celEnv()
	if err != nil {
		return nil, err
	}

	ast, iss := env.Compile(src)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}

	prg, err = env.Program(ast)
	if err != nil {
		return nil, err
	}

	celPrograms.Lock()
	celPrograms.cache[src] = prg
	celPrograms.Unlock()

	return prg, nil
}

func celEval(c Call) (Variable, error) {
	prg, err := celProgram(c.Args[0])
	if err != nil {
		return nil, err
	}

	out, _, err := prg.Eval(map[string]any{
		"vars": nativeVars(c.Env),
		"args": nativeArgs(c.Args[1:]),
	})
	if err != nil {
		return nil, err
	}

	return ValueOf(out.Value()), nil
}

// ---------------------------------------------------------------------------
// Locale-aware number formatting
// ---------------------------------------------------------------------------

// formatNumber formats a number with the digit grouping of a locale
// (default "en"), optionally with a fixed number of decimal places.
func formatNumber(c Call) (Variable, error) {
	v, err := c.Number(0)
	if err != nil {
		return nil, err
	}

	tag, err := language.Parse(c.Arg(2, "en"))
	if err != nil {
		return nil, err
	}

	var opts []number.Option

	if len(c.Args) > 1 && c.Args[1] != "" {
		places, err := c.Int(1)
		if err != nil {
			return nil, err
		}

		places = min(max(places, 0), maxPlaces)

		opts = append(opts,
			number.MinFractionDigits(places),
			number.MaxFractionDigits(places),
		)
	}

	p := message.NewPrinter(tag)

	return String(p.Sprintf("%v", number.Decimal(v, opts...))), nil
}

// ---------------------------------------------------------------------------
// Native conversion
// ---------------------------------------------------------------------------

// nativeVars converts the enumerable caller variables of env to Go values.
func nativeVars(env *Env) map[string]any {
	out := make(map[string]any)

	vars, ok := env.Vars().(Vars)
	if !ok {
		return out
	}

	for name, v := range vars {
		if _, isFunc := v.(*Function); isFunc {
			continue
		}

		out[name] = native(v)
	}

	return out
}

func nativeArgs(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = nativeString(a)
	}

	return out
}

func native(v Variable) any {
	switch v := v.(type) {
	case Number:
		return float64(v)
	case Bool:
		return bool(v)
	case String:
		return nativeString(string(v))
	case Vector:
		return map[string]any{"x": v.X, "y": v.Y}
	case Size:
		return map[string]any{"w": v.W, "h": v.H}
	case Range:
		return map[string]any{"start": v.Start, "end": v.End}
	case Array:
		return nativeArgs(v)
	case Map:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[k] = native(e)
		}

		return m
	default:
		s, err := v.ValueString(nil, nil)
		if err != nil {
			return nil
		}

		return nativeString(s)
	}
}

func nativeString(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	return s
}
