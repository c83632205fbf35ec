package lang

import "math"

func vectorFuncs() []*Function {
	return []*Function{
		fn("addVector", 2, 2, vectorOp(func(a, b float64) (float64, error) { return a + b, nil })),
		fn("subVector", 2, 2, vectorOp(func(a, b float64) (float64, error) { return a - b, nil })),
		fn("mulVector", 2, 2, vectorOp(func(a, b float64) (float64, error) { return a * b, nil })),
		fn("divVector", 2, 2, vectorOp(func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, errDivideByZero
			}

			return a / b, nil
		})),
		fn("minVector", 2, 2, vectorOp(func(a, b float64) (float64, error) { return math.Min(a, b), nil })),
		fn("distance", 2, 2, func(c Call) (Variable, error) {
			a, b, err := vectorPair(c)
			if err != nil {
				return nil, err
			}

			return Number(math.Hypot(a.X-b.X, a.Y-b.Y)), nil
		}),
		fn("meanVector", 1, Variadic, func(c Call) (Variable, error) {
			var sum Vector

			for i := range c.Args {
				v, err := c.Vector(i)
				if err != nil {
					return nil, err
				}

				sum.X += v.X
				sum.Y += v.Y
			}

			n := float64(len(c.Args))

			return Vector{sum.X / n, sum.Y / n}, nil
		}),
	}
}

// vectorOp applies op component-wise. Either operand may be a scalar,
// which applies to both components.
func vectorOp(op func(a, b float64) (float64, error)) func(Call) (Variable, error) {
	return func(c Call) (Variable, error) {
		a, b, err := vectorPair(c)
		if err != nil {
			return nil, err
		}

		x, err := op(a.X, b.X)
		if err != nil {
			return nil, err
		}

		y, err := op(a.Y, b.Y)
		if err != nil {
			return nil, err
		}

		return Vector{x, y}, nil
	}
}

func vectorPair(c Call) (Vector, Vector, error) {
	a, err := c.Vector(0)
	if err != nil {
		return Vector{}, Vector{}, err
	}

	b, err := c.Vector(1)
	if err != nil {
		return Vector{}, Vector{}, err
	}

	return a, b, nil
}
