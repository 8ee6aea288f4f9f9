package typesys

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// ArithOp is a binary arithmetic operator
type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
)

var arithOpNames = [...]string{"+", "-", "*", "/", "%"}

func (op ArithOp) String() string { return arithOpNames[op] }

// decimalPrecision is the number of fractional digits kept by decimal division
const decimalPrecision = 28

type signedInt interface {
	~int8 | ~int16 | ~int32 | ~int64
}

type unsignedInt interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

func signedArith[T signedInt](op ArithOp, a, b T, minValue T) (T, error) {
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSubtract:
		return a - b, nil
	case OpMultiply:
		return a * b, nil
	}

	if b == 0 {
		return 0, ErrDivideByZero
	}

	if a == minValue && b == -1 {
		return 0, ErrOverflow
	}

	if op == OpDivide {
		return a / b, nil
	}

	return a % b, nil
}

func unsignedArith[T unsignedInt](op ArithOp, a, b T) (T, error) {
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSubtract:
		return a - b, nil
	case OpMultiply:
		return a * b, nil
	}

	if b == 0 {
		return 0, ErrDivideByZero
	}

	if op == OpDivide {
		return a / b, nil
	}

	return a % b, nil
}

func floatArith[T float32 | float64](op ArithOp, a, b T) T {
	switch op {
	case OpAdd:
		return a + b
	case OpSubtract:
		return a - b
	case OpMultiply:
		return a * b
	case OpDivide:
		return a / b
	}

	return T(math.Mod(float64(a), float64(b)))
}

func decimalArith(op ArithOp, a, b decimal.Decimal) (decimal.Decimal, error) {
	switch op {
	case OpAdd:
		return a.Add(b), nil
	case OpSubtract:
		return a.Sub(b), nil
	case OpMultiply:
		return a.Mul(b), nil
	}

	if b.IsZero() {
		return decimal.Zero, ErrDivideByZero
	}

	if op == OpDivide {
		return a.DivRound(b, decimalPrecision), nil
	}

	return a.Mod(b), nil
}

// Arithmetic applies op to two non-null operands of the same numeric type,
// or to the DateTime and TimeSpan combinations of the add and subtract families.
func Arithmetic(op ArithOp, a, b any) (any, error) {
	switch x := a.(type) {
	case int32:
		if y, ok := b.(int32); ok {
			return signedArith(op, x, y, math.MinInt32)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return signedArith(op, x, y, math.MinInt64)
		}
	case int16:
		if y, ok := b.(int16); ok {
			return signedArith(op, x, y, math.MinInt16)
		}
	case int8:
		if y, ok := b.(int8); ok {
			return signedArith(op, x, y, math.MinInt8)
		}
	case uint32:
		if y, ok := b.(uint32); ok {
			return unsignedArith(op, x, y)
		}
	case uint64:
		if y, ok := b.(uint64); ok {
			return unsignedArith(op, x, y)
		}
	case uint16:
		if y, ok := b.(uint16); ok {
			return unsignedArith(op, x, y)
		}
	case uint8:
		if y, ok := b.(uint8); ok {
			return unsignedArith(op, x, y)
		}
	case float32:
		if y, ok := b.(float32); ok {
			return floatArith(op, x, y), nil
		}
	case float64:
		if y, ok := b.(float64); ok {
			return floatArith(op, x, y), nil
		}
	case decimal.Decimal:
		if y, ok := b.(decimal.Decimal); ok {
			return decimalArith(op, x, y)
		}
	case time.Time:
		switch y := b.(type) {
		case time.Duration:
			switch op {
			case OpAdd:
				return x.Add(y), nil
			case OpSubtract:
				return x.Add(-y), nil
			}
		case time.Time:
			if op == OpSubtract {
				return x.Sub(y), nil
			}
		}
	case time.Duration:
		if y, ok := b.(time.Duration); ok {
			switch op {
			case OpAdd:
				return x + y, nil
			case OpSubtract:
				return x - y, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %T %s %T", ErrInvalidOperation, a, op, b)
}

// Negate returns -v for a non-null numeric value
func Negate(v any) (any, error) {
	switch x := v.(type) {
	case int32:
		return -x, nil
	case int64:
		return -x, nil
	case int16:
		return -x, nil
	case int8:
		return -x, nil
	case float32:
		return -x, nil
	case float64:
		return -x, nil
	case decimal.Decimal:
		return x.Neg(), nil
	case time.Duration:
		return -x, nil
	}

	return nil, fmt.Errorf("%w: -%T", ErrInvalidOperation, v)
}

// AddChecked adds two values of the same numeric type failing with ErrOverflow on integer overflow
func AddChecked(a, b any) (any, error) {
	switch x := a.(type) {
	case int32:
		y := b.(int32)
		s := int64(x) + int64(y)

		if s < math.MinInt32 || s > math.MaxInt32 {
			return nil, ErrOverflow
		}

		return int32(s), nil
	case int64:
		y := b.(int64)
		s := x + y

		if (y > 0 && s < x) || (y < 0 && s > x) {
			return nil, ErrOverflow
		}

		return s, nil
	}

	return Arithmetic(OpAdd, a, b)
}
