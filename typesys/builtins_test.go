package typesys

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func findMethod(t *testing.T, typ *Type, name string, static bool, params ...*Type) *Method {
	t.Helper()

	for _, group := range DefaultCatalog.FindMethods(typ, name, static) {
		for _, m := range group {
			if len(m.Params) != len(params) {
				continue
			}

			match := true

			for i, p := range params {
				if m.Params[i] != p {
					match = false
				}
			}

			if match {
				return m
			}
		}
	}

	t.Fatalf("method %s.%s not found", typ.Name(), name)

	return nil
}

func staticValue(t *testing.T, typ *Type, name string) any {
	t.Helper()

	m, ok := DefaultCatalog.FindPropertyOrField(typ, name, true)
	assert.True(t, ok, name)

	v, err := m.Get(nil)
	assert.NoError(t, err)

	return v
}

func TestStringMembers(t *testing.T) {
	length, ok := DefaultCatalog.FindPropertyOrField(String, "length", false)
	assert.True(t, ok)

	n, err := length.Get("日本語")
	assert.NoError(t, err)
	assert.Equal(t, any(int32(3)), n)

	tests := []struct {
		name   string
		method *Method
		recv   any
		args   []any
		want   any
	}{
		{"Contains", findMethod(t, String, "Contains", false, String), "hello", []any{"ell"}, true},
		{"StartsWith", findMethod(t, String, "StartsWith", false, String), "hello", []any{"he"}, true},
		{"IndexOf rune index", findMethod(t, String, "IndexOf", false, String), "日本語", []any{"語"}, int32(2)},
		{"IndexOf missing", findMethod(t, String, "IndexOf", false, Char), "abc", []any{'z'}, int32(-1)},
		{"ToUpper", findMethod(t, String, "toupper", false), "hello", nil, "HELLO"},
		{"Substring", findMethod(t, String, "Substring", false, Int32, Int32), "abcdef", []any{int32(1), int32(3)}, "bcd"},
		{"Substring tail", findMethod(t, String, "Substring", false, Int32), "abcdef", []any{int32(4)}, "ef"},
		{"Replace", findMethod(t, String, "Replace", false, String, String), "a-b-c", []any{"-", "+"}, "a+b+c"},
		{"Concat objects", findMethod(t, String, "Concat", true, Object, Object), nil, []any{"x", int32(5)}, "x5"},
		{"IsNullOrEmpty null", findMethod(t, String, "IsNullOrEmpty", true, String), nil, []any{nil}, true},
		{"Compare null first", findMethod(t, String, "Compare", true, String, String), nil, []any{nil, "a"}, int32(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.method.Invoke(tt.recv, tt.args)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("Chars indexer", func(t *testing.T) {
		groups := DefaultCatalog.FindIndexers(String)
		assert.Equal(t, 1, len(groups))

		got, err := groups[0][0].Invoke("héllo", []any{int32(1)})
		assert.NoError(t, err)
		assert.Equal(t, any('é'), got)

		_, err = groups[0][0].Invoke("abc", []any{int32(3)})
		assert.IsError(t, err, ErrOutOfRange)
	})

	t.Run("Substring out of range", func(t *testing.T) {
		_, err := findMethod(t, String, "Substring", false, Int32, Int32).Invoke("abc", []any{int32(2), int32(5)})
		assert.IsError(t, err, ErrOutOfRange)
	})
}

func TestObjectMembersAreInherited(t *testing.T) {
	toString := findMethod(t, Int32, "ToString", false)
	assert.Equal(t, Object, toString.Declaring)

	got, err := toString.Invoke(int32(42), nil)
	assert.NoError(t, err)
	assert.Equal(t, any("42"), got)

	charToString := findMethod(t, Char, "ToString", false)
	got, err = charToString.Invoke('q', nil)
	assert.NoError(t, err)
	assert.Equal(t, any("q"), got)
}

func TestNumericStatics(t *testing.T) {
	assert.Equal(t, any(int32(math.MaxInt32)), staticValue(t, Int32, "MaxValue"))
	assert.Equal(t, any(uint8(0)), staticValue(t, Byte, "minvalue"))
	assert.True(t, math.IsNaN(staticValue(t, Double, "NaN").(float64)))

	parse := findMethod(t, Int64, "Parse", true, String)
	assert.True(t, parse.Pure)

	got, err := parse.Invoke(nil, []any{"-12"})
	assert.NoError(t, err)
	assert.Equal(t, any(int64(-12)), got)
}

func TestMathMembers(t *testing.T) {
	tests := []struct {
		name    string
		method  *Method
		args    []any
		want    any
		wantErr error
	}{
		{"Abs int", findMethod(t, Math, "Abs", true, Int32), []any{int32(-5)}, int32(5), nil},
		{"Abs min int", findMethod(t, Math, "Abs", true, Int32), []any{int32(math.MinInt32)}, nil, ErrOverflow},
		{"Max double", findMethod(t, Math, "Max", true, Double, Double), []any{1.5, 2.5}, 2.5, nil},
		{"Min long", findMethod(t, Math, "Min", true, Int64, Int64), []any{int64(-1), int64(3)}, int64(-1), nil},
		{"Round to even", findMethod(t, Math, "Round", true, Double), []any{2.5}, 2.0, nil},
		{"Round digits", findMethod(t, Math, "Round", true, Double, Int32), []any{1.2345, int32(2)}, 1.23, nil},
		{"Floor", findMethod(t, Math, "Floor", true, Double), []any{-1.5}, -2.0, nil},
		{"Pow", findMethod(t, Math, "Pow", true, Double, Double), []any{2.0, 10.0}, 1024.0, nil},
		{"Sign decimal", findMethod(t, Math, "Sign", true, Decimal), []any{decimal.NewFromInt(-3)}, int32(-1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.method.Invoke(nil, tt.args)
			if tt.wantErr != nil {
				assert.IsError(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, any(math.Pi), staticValue(t, Math, "PI"))
}

func TestConvertMembers(t *testing.T) {
	toInt := findMethod(t, Convert, "ToInt32", true, Object)

	tests := []struct {
		name    string
		arg     any
		want    any
		wantErr error
	}{
		{"string", "42", int32(42), nil},
		{"rounds half to even", 2.5, int32(2), nil},
		{"rounds up", 3.5, int32(4), nil},
		{"null is zero", nil, int32(0), nil},
		{"bool", true, int32(1), nil},
		{"overflow", int64(math.MaxInt64), nil, ErrOverflow},
		{"format", "x", nil, ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toInt.Invoke(nil, []any{tt.arg})
			if tt.wantErr != nil {
				assert.IsError(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := findMethod(t, Convert, "ToString", true, Char).Invoke(nil, []any{'c'})
	assert.NoError(t, err)
	assert.Equal(t, any("c"), got)
}

func TestDateTimeAndTimeSpanMembers(t *testing.T) {
	ctor := DateTime.Constructors()
	assert.Equal(t, 2, len(ctor))

	d, err := ctor[0].Invoke(nil, []any{int32(2024), int32(1), int32(31)})
	assert.NoError(t, err)

	_, err = ctor[0].Invoke(nil, []any{int32(2023), int32(2), int32(29)})
	assert.IsError(t, err, ErrOutOfRange)

	next, err := findMethod(t, DateTime, "AddMonths", false, Int32).Invoke(d, []any{int32(1)})
	assert.NoError(t, err)
	assert.Equal(t, any(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)), next)

	year, ok := DefaultCatalog.FindPropertyOrField(DateTime, "Year", false)
	assert.True(t, ok)

	y, err := year.Get(d)
	assert.NoError(t, err)
	assert.Equal(t, any(int32(2024)), y)

	ticks, _ := DefaultCatalog.FindPropertyOrField(DateTime, "Ticks", false)
	tv, err := ticks.Get(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.Equal(t, any(int64(630822816000000000)), tv)

	span, err := TimeSpan.Constructors()[1].Invoke(nil, []any{int32(1), int32(30), int32(0)})
	assert.NoError(t, err)
	assert.Equal(t, any(90*time.Minute), span)

	total, _ := DefaultCatalog.FindPropertyOrField(TimeSpan, "TotalHours", false)
	h, err := total.Get(span)
	assert.NoError(t, err)
	assert.Equal(t, any(1.5), h)

	minutes, _ := DefaultCatalog.FindPropertyOrField(TimeSpan, "Minutes", false)
	m, err := minutes.Get(span)
	assert.NoError(t, err)
	assert.Equal(t, any(int32(30)), m)

	fromDays := findMethod(t, TimeSpan, "FromDays", true, Double)
	got, err := fromDays.Invoke(nil, []any{0.5})
	assert.NoError(t, err)
	assert.Equal(t, any(12*time.Hour), got)
}

func TestNullableMembers(t *testing.T) {
	n := NullableOf(Int32)

	hasValue, ok := DefaultCatalog.FindPropertyOrField(n, "HasValue", false)
	assert.True(t, ok)

	v, err := hasValue.Get(nil)
	assert.NoError(t, err)
	assert.Equal(t, any(false), v)

	value, _ := DefaultCatalog.FindPropertyOrField(n, "Value", false)
	_, err = value.Get(nil)
	assert.IsError(t, err, ErrInvalidOperation)

	def := findMethod(t, n, "GetValueOrDefault", false)
	got, err := def.Invoke(nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, any(int32(0)), got)

	withDefault := findMethod(t, n, "GetValueOrDefault", false, Int32)
	got, err = withDefault.Invoke(nil, []any{int32(7)})
	assert.NoError(t, err)
	assert.Equal(t, any(int32(7)), got)

	assert.True(t, IsAccessible(n))
	assert.False(t, IsAccessible(SequenceOf(Int32)))
}

func TestMapMembers(t *testing.T) {
	mt := DefaultCatalog.MustTypeOf(reflect.TypeFor[map[string]int32]())
	m := map[string]int32{"a": 1}

	groups := DefaultCatalog.FindIndexers(mt)
	assert.Equal(t, 1, len(groups))

	got, err := groups[0][0].Invoke(m, []any{"a"})
	assert.NoError(t, err)
	assert.Equal(t, any(int32(1)), got)

	_, err = groups[0][0].Invoke(m, []any{"b"})
	assert.IsError(t, err, ErrKeyNotFound)

	contains := findMethod(t, mt, "ContainsKey", false, String)
	found, err := contains.Invoke(m, []any{"b"})
	assert.NoError(t, err)
	assert.Equal(t, any(false), found)
}
