package lang

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ardnew/pattern/log"
)

func miscFuncs() []*Function {
	return []*Function{
		fn("time", 0, 1, timeFunc),
		fn("mouse", 0, 0, func(c Call) (Variable, error) {
			return c.State.Pointer(), nil
		}),
		fn("cmap", 1, 3, colormap),
		fn("global", 1, 2, global),
		fn("filename", 1, 1, func(c Call) (Variable, error) {
			return String(filepath.Base(c.Args[0])), nil
		}),
		fn("folder", 1, 1, func(c Call) (Variable, error) {
			return String(filepath.Dir(c.Args[0])), nil
		}),
		fn("basename", 1, 1, func(c Call) (Variable, error) {
			base := filepath.Base(c.Args[0])

			return String(strings.TrimSuffix(base, filepath.Ext(base))), nil
		}),
	}
}

// timeFunc returns the state clock's current time. With no arguments it is
// the Unix time in seconds; otherwise the argument is a layout, either one
// of the names understood by [log.TimeLayout] (such as "rfc3339" or
// "kitchen") or a verbatim [time.Time.Format] layout.
func timeFunc(c Call) (Variable, error) {
	now := c.State.Now()

	if len(c.Args) == 0 {
		return Number(now.Unix()), nil
	}

	return String(now.Format(log.TimeLayout(c.Args[0]))), nil
}

// colormap maps a scalar onto a blue, green, red gradient. The scalar is
// normalized against an optional range (default 0 to 1) and clamped.
func colormap(c Call) (Variable, error) {
	v, err := c.Number(0)
	if err != nil {
		return nil, err
	}

	lo, err := c.NumberOr(1, 0)
	if err != nil {
		return nil, err
	}

	hi, err := c.NumberOr(2, 1)
	if err != nil {
		return nil, err
	}

	t := 0.0
	if hi != lo {
		t = clamp((v-lo)/(hi-lo), 0, 1)
	}

	channel := func(f float64) uint8 { return uint8(clamp(f, 0, 1)*255 + 0.5) }

	if t < 0.5 {
		u := t * 2

		return Color{R: 0, G: channel(u), B: channel(1 - u), A: 255}, nil
	}

	u := (t - 0.5) * 2

	return Color{R: channel(u), G: channel(1 - u), B: 0, A: 255}, nil
}

// global reads a variable from the state scratch space, falling back to
// the environment's globals. With a second argument it writes the value to
// the scratch space instead and returns it.
func global(c Call) (Variable, error) {
	name := c.Args[0]

	if len(c.Args) == 2 {
		if c.State == nil {
			return nil, ErrNoState.With(slog.String("name", name))
		}

		c.State.Set(name, String(c.Args[1]))

		return String(c.Args[1]), nil
	}

	if v, ok := c.State.Get(name); ok {
		return v, nil
	}

	if v, ok := c.Env.Global(name); ok {
		return v, nil
	}

	return nil, ErrUnknownVariable.With(slog.String("name", name))
}
