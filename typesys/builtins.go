package typesys

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// builder appends members to a type while its member set is being built
type builder struct {
	t *Type
}

func (b builder) prop(name string, typ *Type, get Getter) {
	b.t.fields = append(b.t.fields, &Member{Name: name, Type: typ, Declaring: b.t, Get: get})
}

func (b builder) staticProp(name string, typ *Type, get Getter) {
	b.t.fields = append(b.t.fields, &Member{Name: name, Type: typ, Declaring: b.t, Static: true, Get: get})
}

func (b builder) constant(name string, typ *Type, value any) {
	b.staticProp(name, typ, func(any) (any, error) { return value, nil })
}

func (b builder) method(name string, result *Type, invoke Invoker, params ...*Type) {
	b.t.methods = append(b.t.methods, &Method{
		Name: name, Declaring: b.t, Params: params, Result: result, Pure: true, Invoke: invoke,
	})
}

func (b builder) static(name string, result *Type, invoke Invoker, params ...*Type) {
	b.t.methods = append(b.t.methods, &Method{
		Name: name, Declaring: b.t, Params: params, Result: result, Static: true, Pure: true, Invoke: invoke,
	})
}

// volatile adds a static method whose result changes between calls, such as DateTime.Now
func (b builder) volatile(name string, result *Type, invoke Invoker, params ...*Type) {
	b.t.methods = append(b.t.methods, &Method{
		Name: name, Declaring: b.t, Params: params, Result: result, Static: true, Invoke: invoke,
	})
}

func (b builder) constructor(invoke Invoker, params ...*Type) {
	b.t.constructors = append(b.t.constructors, &Method{
		Name: b.t.Name(), Declaring: b.t, Params: params, Result: b.t, Static: true, Pure: true, Invoke: invoke,
	})
}

func (b builder) indexer(result *Type, invoke Invoker, params ...*Type) {
	b.t.indexers = append(b.t.indexers, &Method{
		Name: "Item", Declaring: b.t, Params: params, Result: result, Invoke: invoke,
	})
}

func argAs[T any](args []any, i int) T {
	v, _ := args[i].(T)
	return v
}

func receiver[R any](recv any) (R, error) {
	r, ok := recv.(R)
	if !ok {
		return r, fmt.Errorf("%w: receiver %T", ErrInvalidCast, recv)
	}

	return r, nil
}

func get[R any](f func(r R) any) Getter {
	return func(recv any) (any, error) {
		r, err := receiver[R](recv)
		if err != nil {
			return nil, err
		}

		return f(r), nil
	}
}

func on[R any](f func(r R) (any, error)) Invoker {
	return func(recv any, _ []any) (any, error) {
		r, err := receiver[R](recv)
		if err != nil {
			return nil, err
		}

		return f(r)
	}
}

func on1[R, A any](f func(r R, a A) (any, error)) Invoker {
	return func(recv any, args []any) (any, error) {
		r, err := receiver[R](recv)
		if err != nil {
			return nil, err
		}

		return f(r, argAs[A](args, 0))
	}
}

func on2[R, A, B any](f func(r R, a A, b B) (any, error)) Invoker {
	return func(recv any, args []any) (any, error) {
		r, err := receiver[R](recv)
		if err != nil {
			return nil, err
		}

		return f(r, argAs[A](args, 0), argAs[B](args, 1))
	}
}

func fn0(f func() (any, error)) Invoker {
	return func(any, []any) (any, error) { return f() }
}

func fn1[A any](f func(a A) (any, error)) Invoker {
	return func(_ any, args []any) (any, error) { return f(argAs[A](args, 0)) }
}

func fn2[A, B any](f func(a A, b B) (any, error)) Invoker {
	return func(_ any, args []any) (any, error) { return f(argAs[A](args, 0), argAs[B](args, 1)) }
}

// ZeroValue returns the default value of t: nil for reference and nullable types
func ZeroValue(t *Type) any {
	if t.IsNullable() || !t.IsValueType() {
		return nil
	}

	switch t.kind {
	case KindBoolean:
		return false
	case KindDateTime:
		return time.Time{}
	case KindTimeSpan:
		return time.Duration(0)
	case KindGuid:
		return uuid.Nil
	case KindEnum:
		if t.goType != nil {
			return reflect.Zero(t.goType).Interface()
		}
	}

	return zeroOf(t)
}

func buildPredefinedMembers(t *Type) {
	b := builder{t}

	switch t.kind {
	case KindObject:
		buildObjectMembers(b)
	case KindString:
		buildStringMembers(b)
	case KindChar:
		buildCharMembers(b)
	case KindBoolean:
		b.static("Parse", Boolean, fn1(func(s string) (any, error) { return Parse(s, Boolean) }), String)
		b.constant("TrueString", String, "True")
		b.constant("FalseString", String, "False")
	case KindDateTime:
		buildDateTimeMembers(b)
	case KindTimeSpan:
		buildTimeSpanMembers(b)
	case KindGuid:
		buildGuidMembers(b)
	case KindStatic:
		switch t {
		case Math:
			buildMathMembers(b)
		case Convert:
			buildConvertMembers(b)
		}
	default:
		if IsNumeric(t) {
			buildNumericMembers(b)
		}
	}
}

func buildObjectMembers(b builder) {
	b.method("ToString", String, func(recv any, _ []any) (any, error) { return Format(recv), nil })
	b.method("Equals", Boolean, func(recv any, args []any) (any, error) { return Equal(recv, args[0]), nil }, Object)
	b.method("GetHashCode", Int32, func(recv any, _ []any) (any, error) { return int32(Hash(recv)), nil })
	b.static("Equals", Boolean, fn2(func(a, b any) (any, error) { return Equal(a, b), nil }), Object, Object)
	b.static("ReferenceEquals", Boolean, fn2(func(a, b any) (any, error) { return SameReference(a, b), nil }), Object, Object)
}

func runeIndex(s string, byteIndex int) int32 {
	if byteIndex < 0 {
		return -1
	}

	return int32(utf8.RuneCountInString(s[:byteIndex]))
}

func substring(s string, start, length int32) (any, error) {
	r := []rune(s)
	if start < 0 || length < 0 || int(start)+int(length) > len(r) {
		return nil, fmt.Errorf("%w: substring(%d, %d) of a string of length %d", ErrOutOfRange, start, length, len(r))
	}

	return string(r[start : start+length]), nil
}

func buildStringMembers(b builder) {
	b.constant("Empty", String, "")
	b.prop("Length", Int32, get(func(s string) any { return int32(utf8.RuneCountInString(s)) }))
	b.indexer(Char, on1(func(s string, i int32) (any, error) {
		r := []rune(s)
		if i < 0 || int(i) >= len(r) {
			return nil, fmt.Errorf("%w: index %d of a string of length %d", ErrOutOfRange, i, len(r))
		}

		return r[i], nil
	}), Int32)

	b.method("Contains", Boolean, on1(func(s, v string) (any, error) { return strings.Contains(s, v), nil }), String)
	b.method("StartsWith", Boolean, on1(func(s, v string) (any, error) { return strings.HasPrefix(s, v), nil }), String)
	b.method("EndsWith", Boolean, on1(func(s, v string) (any, error) { return strings.HasSuffix(s, v), nil }), String)
	b.method("IndexOf", Int32, on1(func(s, v string) (any, error) { return runeIndex(s, strings.Index(s, v)), nil }), String)
	b.method("IndexOf", Int32, on1(func(s string, c rune) (any, error) { return runeIndex(s, strings.IndexRune(s, c)), nil }), Char)
	b.method("LastIndexOf", Int32, on1(func(s, v string) (any, error) { return runeIndex(s, strings.LastIndex(s, v)), nil }), String)
	// cases.Caser is stateful, so each call gets its own
	b.method("ToUpper", String, on(func(s string) (any, error) { return cases.Upper(language.Und).String(s), nil }))
	b.method("ToLower", String, on(func(s string) (any, error) { return cases.Lower(language.Und).String(s), nil }))
	b.method("Trim", String, on(func(s string) (any, error) { return strings.TrimSpace(s), nil }))
	b.method("TrimStart", String, on(func(s string) (any, error) { return strings.TrimLeftFunc(s, unicode.IsSpace), nil }))
	b.method("TrimEnd", String, on(func(s string) (any, error) { return strings.TrimRightFunc(s, unicode.IsSpace), nil }))
	b.method("Substring", String, on1(func(s string, start int32) (any, error) {
		return substring(s, start, int32(utf8.RuneCountInString(s))-start)
	}), Int32)
	b.method("Substring", String, on2(substring), Int32, Int32)
	b.method("Replace", String, on2(func(s, old, repl string) (any, error) {
		if old == "" {
			return nil, fmt.Errorf("%w: string cannot be of zero length", ErrInvalidOperation)
		}

		return strings.ReplaceAll(s, old, repl), nil
	}), String, String)
	b.method("CompareTo", Int32, func(recv any, args []any) (any, error) {
		return compareNullableStrings(recv, args[0]), nil
	}, String)

	b.static("Concat", String, fn2(func(a, b string) (any, error) { return a + b, nil }), String, String)
	b.static("Concat", String, func(_ any, args []any) (any, error) {
		return argAs[string](args, 0) + argAs[string](args, 1) + argAs[string](args, 2), nil
	}, String, String, String)
	b.static("Concat", String, fn2(func(a, b any) (any, error) { return Format(a) + Format(b), nil }), Object, Object)
	b.static("Compare", Int32, func(_ any, args []any) (any, error) {
		return compareNullableStrings(args[0], args[1]), nil
	}, String, String)
	b.static("IsNullOrEmpty", Boolean, fn1(func(s any) (any, error) {
		v, _ := s.(string)
		return v == "", nil
	}), String)
	b.static("IsNullOrWhiteSpace", Boolean, fn1(func(s any) (any, error) {
		v, _ := s.(string)
		return strings.TrimSpace(v) == "", nil
	}), String)
}

func compareNullableStrings(a, b any) int32 {
	if a == nil || b == nil {
		c, _ := Compare(a, b)
		return int32(c)
	}

	return int32(CompareStrings(a.(string), b.(string)))
}

func buildCharMembers(b builder) {
	b.constant("MinValue", Char, rune(0))
	b.constant("MaxValue", Char, rune(0xFFFF))
	b.method("ToString", String, on(func(r rune) (any, error) { return string(r), nil }))

	predicate := func(name string, f func(rune) bool) {
		b.static(name, Boolean, fn1(func(r rune) (any, error) { return f(r), nil }), Char)
	}

	predicate("IsDigit", unicode.IsDigit)
	predicate("IsLetter", unicode.IsLetter)
	predicate("IsLetterOrDigit", func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) })
	predicate("IsWhiteSpace", unicode.IsSpace)
	predicate("IsUpper", unicode.IsUpper)
	predicate("IsLower", unicode.IsLower)
	b.static("ToUpper", Char, fn1(func(r rune) (any, error) { return unicode.ToUpper(r), nil }), Char)
	b.static("ToLower", Char, fn1(func(r rune) (any, error) { return unicode.ToLower(r), nil }), Char)
}

var numericLimits = map[Kind][2]any{
	KindSByte:   {int8(math.MinInt8), int8(math.MaxInt8)},
	KindByte:    {uint8(0), uint8(math.MaxUint8)},
	KindInt16:   {int16(math.MinInt16), int16(math.MaxInt16)},
	KindUInt16:  {uint16(0), uint16(math.MaxUint16)},
	KindInt32:   {int32(math.MinInt32), int32(math.MaxInt32)},
	KindUInt32:  {uint32(0), uint32(math.MaxUint32)},
	KindInt64:   {int64(math.MinInt64), int64(math.MaxInt64)},
	KindUInt64:  {uint64(0), uint64(math.MaxUint64)},
	KindSingle:  {float32(-math.MaxFloat32), float32(math.MaxFloat32)},
	KindDouble:  {-math.MaxFloat64, math.MaxFloat64},
	KindDecimal: {decimal.RequireFromString("-79228162514264337593543950335"), decimal.RequireFromString("79228162514264337593543950335")},
}

func buildNumericMembers(b builder) {
	t := b.t

	if limits, ok := numericLimits[t.kind]; ok {
		b.constant("MinValue", t, limits[0])
		b.constant("MaxValue", t, limits[1])
	}

	b.static("Parse", t, fn1(func(s string) (any, error) { return Parse(s, t) }), String)

	switch t.kind {
	case KindDouble:
		b.constant("NaN", Double, math.NaN())
		b.constant("PositiveInfinity", Double, math.Inf(1))
		b.constant("NegativeInfinity", Double, math.Inf(-1))
		b.constant("Epsilon", Double, math.SmallestNonzeroFloat64)
		b.static("IsNaN", Boolean, fn1(func(f float64) (any, error) { return math.IsNaN(f), nil }), Double)
		b.static("IsInfinity", Boolean, fn1(func(f float64) (any, error) { return math.IsInf(f, 0), nil }), Double)
	case KindSingle:
		b.constant("NaN", Single, float32(math.NaN()))
		b.constant("Epsilon", Single, float32(math.SmallestNonzeroFloat32))
	case KindDecimal:
		b.constant("Zero", Decimal, decimal.Zero)
		b.constant("One", Decimal, decimal.NewFromInt(1))
		b.constant("MinusOne", Decimal, decimal.NewFromInt(-1))
	}
}

func buildNullableMembers(t *Type) {
	b := builder{t}
	elem := t.elem

	b.prop("HasValue", Boolean, func(recv any) (any, error) { return recv != nil, nil })
	b.prop("Value", elem, func(recv any) (any, error) {
		if recv == nil {
			return nil, fmt.Errorf("%w: nullable object must have a value", ErrInvalidOperation)
		}

		return recv, nil
	})
	b.method("GetValueOrDefault", elem, func(recv any, _ []any) (any, error) {
		if recv == nil {
			return ZeroValue(elem), nil
		}

		return recv, nil
	})
	b.method("GetValueOrDefault", elem, func(recv any, args []any) (any, error) {
		if recv == nil {
			return args[0], nil
		}

		return recv, nil
	}, elem)
}

func sequenceLength(recv any) (any, error) {
	if e, ok := recv.(Enumerable); ok {
		return int32(len(e.Items())), nil
	}

	rv := reflect.ValueOf(recv)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return int32(rv.Len()), nil
	}

	return nil, fmt.Errorf("%w: %T has no length", ErrInvalidCast, recv)
}

func buildArrayMembers(t *Type) {
	b := builder{t}
	b.prop("Length", Int32, sequenceLength)
}

// mapIndex looks up key in a host map. A key that can not be converted to the map's key type is absent.
func mapIndex(m, key any) (reflect.Value, bool, error) {
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Map {
		return reflect.Value{}, false, fmt.Errorf("%w: %T is not a dictionary", ErrInvalidCast, m)
	}

	kv := reflect.ValueOf(key)
	if !kv.IsValid() {
		return reflect.Value{}, false, fmt.Errorf("%w: key cannot be null", ErrNullReference)
	}

	kt := rv.Type().Key()
	if kv.Type() != kt {
		if !kv.CanConvert(kt) {
			return reflect.Value{}, false, nil
		}

		kv = kv.Convert(kt)
	}

	v := rv.MapIndex(kv)

	return v, v.IsValid(), nil
}

func buildMapMembers(t *Type) {
	b := builder{t}
	value := t.elem

	b.prop("Count", Int32, sequenceLength)
	b.method("ContainsKey", Boolean, func(recv any, args []any) (any, error) {
		_, found, err := mapIndex(recv, args[0])
		return found, err
	}, t.key)
	b.indexer(value, func(recv any, args []any) (any, error) {
		v, found, err := mapIndex(recv, args[0])
		if err != nil {
			return nil, err
		}

		if !found {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, Format(args[0]))
		}

		return HostValue(v, value), nil
	}, t.key)
}

func buildGroupingMembers(t *Type) {
	b := builder{t}
	b.prop("Key", t.key, get(func(g *Grouping) any { return g.Key }))
}
