package typesys

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

func buildMathMembers(b builder) {
	b.constant("PI", Double, math.Pi)
	b.constant("E", Double, math.E)

	for _, t := range []*Type{Int32, Int64, Single, Double, Decimal} {
		b.static("Abs", t, fn1(abs), t)
		b.static("Sign", Int32, fn1(sign), t)
	}

	for _, t := range []*Type{Int32, UInt32, Int64, UInt64, Single, Double, Decimal} {
		b.static("Min", t, fn2(func(x, y any) (any, error) { return pick(x, y, -1) }), t, t)
		b.static("Max", t, fn2(func(x, y any) (any, error) { return pick(x, y, 1) }), t, t)
	}

	b.static("Round", Double, fn1(func(x float64) (any, error) { return math.RoundToEven(x), nil }), Double)
	b.static("Round", Decimal, fn1(func(x decimal.Decimal) (any, error) { return x.RoundBank(0), nil }), Decimal)
	b.static("Round", Double, fn2(func(x float64, digits int32) (any, error) {
		if digits < 0 || digits > 15 {
			return nil, fmt.Errorf("%w: rounding digits must be between 0 and 15", ErrOutOfRange)
		}

		p := math.Pow10(int(digits))

		return math.RoundToEven(x*p) / p, nil
	}), Double, Int32)
	b.static("Round", Decimal, fn2(func(x decimal.Decimal, digits int32) (any, error) {
		if digits < 0 || digits > 28 {
			return nil, fmt.Errorf("%w: rounding digits must be between 0 and 28", ErrOutOfRange)
		}

		return x.RoundBank(digits), nil
	}), Decimal, Int32)

	b.static("Floor", Double, fn1(func(x float64) (any, error) { return math.Floor(x), nil }), Double)
	b.static("Floor", Decimal, fn1(func(x decimal.Decimal) (any, error) { return x.Floor(), nil }), Decimal)
	b.static("Ceiling", Double, fn1(func(x float64) (any, error) { return math.Ceil(x), nil }), Double)
	b.static("Ceiling", Decimal, fn1(func(x decimal.Decimal) (any, error) { return x.Ceil(), nil }), Decimal)
	b.static("Truncate", Double, fn1(func(x float64) (any, error) { return math.Trunc(x), nil }), Double)
	b.static("Truncate", Decimal, fn1(func(x decimal.Decimal) (any, error) { return x.Truncate(0), nil }), Decimal)

	double := func(name string, f func(float64) float64) {
		b.static(name, Double, fn1(func(x float64) (any, error) { return f(x), nil }), Double)
	}

	double("Sqrt", math.Sqrt)
	double("Exp", math.Exp)
	double("Log", math.Log)
	double("Log10", math.Log10)
	double("Sin", math.Sin)
	double("Cos", math.Cos)
	double("Tan", math.Tan)
	b.static("Pow", Double, fn2(func(x, y float64) (any, error) { return math.Pow(x, y), nil }), Double, Double)
}

func abs(v any) (any, error) {
	switch x := v.(type) {
	case int32:
		if x == math.MinInt32 {
			return nil, fmt.Errorf("%w: negating the minimum value of a twos complement number is invalid", ErrOverflow)
		}

		if x < 0 {
			return -x, nil
		}

		return x, nil
	case int64:
		if x == math.MinInt64 {
			return nil, fmt.Errorf("%w: negating the minimum value of a twos complement number is invalid", ErrOverflow)
		}

		if x < 0 {
			return -x, nil
		}

		return x, nil
	case float32:
		return float32(math.Abs(float64(x))), nil
	case float64:
		return math.Abs(x), nil
	case decimal.Decimal:
		return x.Abs(), nil
	}

	return nil, fmt.Errorf("%w: Abs(%T)", ErrInvalidOperation, v)
}

func sign(v any) (any, error) {
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return nil, fmt.Errorf("%w: function does not accept floating point NaN values", ErrInvalidOperation)
	}

	c, err := Compare(v, zeroOf(Int32))
	if err != nil {
		return nil, err
	}

	return int32(c), nil
}

func pick(x, y any, direction int) (any, error) {
	c, err := Compare(x, y)
	if err != nil {
		return nil, err
	}

	if c*direction >= 0 {
		return x, nil
	}

	return y, nil
}

// roundHalfEven rounds fractional values the way Convert.ToInt32 does before narrowing
func roundHalfEven(v any) any {
	switch x := v.(type) {
	case float32:
		return float32(math.RoundToEven(float64(x)))
	case float64:
		return math.RoundToEven(x)
	case decimal.Decimal:
		return x.RoundBank(0)
	}

	return v
}

func buildConvertMembers(b builder) {
	to := func(name string, t *Type) {
		b.static(name, t, fn1(func(v any) (any, error) {
			if v == nil {
				return ZeroValue(t), nil
			}

			if IsIntegral(t) {
				v = roundHalfEven(v)
			}

			return ChangeType(v, t)
		}), Object)
	}

	to("ToBoolean", Boolean)
	to("ToByte", Byte)
	to("ToInt16", Int16)
	to("ToInt32", Int32)
	to("ToInt64", Int64)
	to("ToSingle", Single)
	to("ToDouble", Double)
	to("ToDecimal", Decimal)
	to("ToDateTime", DateTime)
	b.static("ToString", String, fn1(func(v any) (any, error) { return Format(v), nil }), Object)
	b.static("ToString", String, fn1(func(r rune) (any, error) { return string(r), nil }), Char)
}
