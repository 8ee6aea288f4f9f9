package typesys

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func TestConvertNumber(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		target  *Type
		want    any
		wantErr error
	}{
		{"widen int", int32(5), Int64, int64(5), nil},
		{"narrow in range", int64(200), Byte, uint8(200), nil},
		{"narrow overflow", int64(300), Byte, nil, ErrOverflow},
		{"negative to unsigned", int32(-1), UInt32, nil, ErrOverflow},
		{"max uint64 to int64", uint64(math.MaxUint64), Int64, nil, ErrOverflow},
		{"double truncates", 3.9, Int32, int32(3), nil},
		{"negative double truncates", -3.9, Int32, int32(-3), nil},
		{"nan to int", math.NaN(), Int32, nil, ErrOverflow},
		{"int to decimal", int32(7), Decimal, decimal.NewFromInt(7), nil},
		{"decimal to int", decimal.RequireFromString("12.75"), Int32, int32(12), nil},
		{"int to char", int32(65), Char, rune('A'), nil},
		{"to nullable", int32(5), NullableOf(Int64), int64(5), nil},
		{"string is not numeric", "5", Int32, nil, ErrInvalidCast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertNumber(tt.value, tt.target)
			if tt.wantErr != nil {
				assert.IsError(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type weekday int

func TestCast(t *testing.T) {
	catalog := NewCatalog()
	enum, err := catalog.RegisterEnum(reflect.TypeFor[weekday](), map[string]any{"Monday": 1, "Tuesday": 2})
	assert.NoError(t, err)

	t.Run("wraps into nullable", func(t *testing.T) {
		got, err := Cast(int32(5), Int32, NullableOf(Int32))
		assert.NoError(t, err)
		assert.Equal(t, any(int32(5)), got)
	})

	t.Run("null to nullable", func(t *testing.T) {
		got, err := Cast(nil, Object, NullableOf(Int32))
		assert.NoError(t, err)
		assert.Zero(t, got)
	})

	t.Run("null to value type fails", func(t *testing.T) {
		_, err := Cast(nil, NullableOf(Int32), Int32)
		assert.IsError(t, err, ErrInvalidOperation)
	})

	t.Run("unboxing requires exact type", func(t *testing.T) {
		_, err := Cast(int64(5), Object, Int32)
		assert.IsError(t, err, ErrInvalidCast)

		got, err := Cast(int32(5), Object, Int32)
		assert.NoError(t, err)
		assert.Equal(t, any(int32(5)), got)
	})

	t.Run("number to enum", func(t *testing.T) {
		got, err := Cast(int32(2), Int32, enum)
		assert.NoError(t, err)
		assert.Equal(t, any(weekday(2)), got)
	})

	t.Run("enum to number", func(t *testing.T) {
		got, err := Cast(weekday(1), enum, Int64)
		assert.NoError(t, err)
		assert.Equal(t, any(int64(1)), got)
	})

	t.Run("string to enum by name", func(t *testing.T) {
		got, err := Cast("tuesday", String, enum)
		assert.NoError(t, err)
		assert.Equal(t, any(weekday(2)), got)
	})

	t.Run("object to string", func(t *testing.T) {
		_, err := Cast(int32(1), Object, String)
		assert.IsError(t, err, ErrInvalidCast)
	})
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		target  *Type
		want    any
		wantErr error
	}{
		{"int", "42", Int32, int32(42), nil},
		{"int overflow", "3000000000", Int32, nil, ErrOverflow},
		{"int format", "4x2", Int32, nil, ErrFormat},
		{"uint", "3000000000", UInt32, uint32(3000000000), nil},
		{"negative uint", "-1", UInt32, nil, ErrFormat},
		{"bool", "TRUE", Boolean, true, nil},
		{"double", "1.5", Double, 1.5, nil},
		{"decimal", "1.10", Decimal, decimal.RequireFromString("1.10"), nil},
		{"date", "2024-02-29", DateTime, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), nil},
		{"timespan clock", "01:02:03", TimeSpan, time.Hour + 2*time.Minute + 3*time.Second, nil},
		{"timespan days", "2.00:00:00", TimeSpan, 48 * time.Hour, nil},
		{"timespan go", "90m", TimeSpan, 90 * time.Minute, nil},
		{"char", "x", Char, 'x', nil},
		{"char too long", "xy", Char, nil, ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text, tt.target)
			if tt.wantErr != nil {
				assert.IsError(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChangeType(t *testing.T) {
	got, err := ChangeType("12", Int32)
	assert.NoError(t, err)
	assert.Equal(t, any(int32(12)), got)

	got, err = ChangeType(true, Int32)
	assert.NoError(t, err)
	assert.Equal(t, any(int32(1)), got)

	got, err = ChangeType(2.5, String)
	assert.NoError(t, err)
	assert.Equal(t, any("2.5"), got)

	_, err = ChangeType(nil, Int32)
	assert.IsError(t, err, ErrInvalidCast)
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name    string
		op      ArithOp
		a, b    any
		want    any
		wantErr error
	}{
		{"int add", OpAdd, int32(2), int32(3), int32(5), nil},
		{"int wraps", OpAdd, int32(math.MaxInt32), int32(1), int32(math.MinInt32), nil},
		{"int divide", OpDivide, int32(7), int32(2), int32(3), nil},
		{"int modulo", OpModulo, int32(-7), int32(3), int32(-1), nil},
		{"divide by zero", OpDivide, int64(1), int64(0), nil, ErrDivideByZero},
		{"min over minus one", OpDivide, int32(math.MinInt32), int32(-1), nil, ErrOverflow},
		{"float divide by zero", OpDivide, 1.0, 0.0, math.Inf(1), nil},
		{"decimal divide", OpDivide, decimal.NewFromInt(1), decimal.NewFromInt(4), decimal.RequireFromString("0.25"), nil},
		{"decimal divide by zero", OpDivide, decimal.NewFromInt(1), decimal.Zero, nil, ErrDivideByZero},
		{"date plus span", OpAdd, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 24 * time.Hour, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), nil},
		{"date minus date", OpSubtract, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 24 * time.Hour, nil},
		{"mixed types", OpAdd, int32(1), int64(1), nil, ErrInvalidOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Arithmetic(tt.op, tt.a, tt.b)
			if tt.wantErr != nil {
				assert.IsError(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)

			if d, ok := tt.want.(decimal.Decimal); ok {
				assert.True(t, d.Equal(got.(decimal.Decimal)))
				return
			}

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompareAndFormat(t *testing.T) {
	c, err := Compare(int32(-1), uint64(1))
	assert.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = Compare(decimal.RequireFromString("1.5"), 1.5)
	assert.NoError(t, err)
	assert.Equal(t, 0, c)

	c, err = Compare(nil, "a")
	assert.NoError(t, err)
	assert.Equal(t, -1, c)

	_, err = Compare("a", int32(1))
	assert.IsError(t, err, ErrInvalidOperation)

	assert.True(t, CompareStrings("apple", "Banana") < 0)

	assert.Equal(t, "True", Format(true))
	assert.Equal(t, "1000000", Format(1e6))
	assert.Equal(t, "1E+15", Format(1e15))
	assert.Equal(t, "0.5", Format(float32(0.5)))
	assert.Equal(t, "1.02:03:04", FormatTimeSpan(26*time.Hour+3*time.Minute+4*time.Second))
	assert.Equal(t, "-00:00:01.5000000", FormatTimeSpan(-1500*time.Millisecond))
	assert.Equal(t, "A", FormatAs('A', Char))
}

func TestEqualAndHash(t *testing.T) {
	assert.True(t, Equal(decimal.RequireFromString("1.0"), decimal.RequireFromString("1.00")))
	assert.Equal(t, Hash("x"), Hash("x"))
	assert.False(t, Equal(int32(1), int64(1)))
	assert.True(t, Equal(nil, nil))

	s := []int{1, 2}
	assert.True(t, SameReference(s, s))
	assert.False(t, SameReference(s, []int{1, 2}))
}
