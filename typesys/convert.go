package typesys

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type numberClass int

const (
	signedNumber numberClass = iota + 1
	unsignedNumber
	floatNumber
	decimalNumber
)

// number is the widest representation of a numeric runtime value
type number struct {
	class numberClass
	i     int64
	u     uint64
	f     float64
	d     decimal.Decimal
}

func numberOf(v any) (number, bool) {
	switch n := v.(type) {
	case int8:
		return number{class: signedNumber, i: int64(n)}, true
	case int16:
		return number{class: signedNumber, i: int64(n)}, true
	case int32:
		return number{class: signedNumber, i: int64(n)}, true
	case int64:
		return number{class: signedNumber, i: n}, true
	case int:
		return number{class: signedNumber, i: int64(n)}, true
	case uint8:
		return number{class: unsignedNumber, u: uint64(n)}, true
	case uint16:
		return number{class: unsignedNumber, u: uint64(n)}, true
	case uint32:
		return number{class: unsignedNumber, u: uint64(n)}, true
	case uint64:
		return number{class: unsignedNumber, u: n}, true
	case uint:
		return number{class: unsignedNumber, u: uint64(n)}, true
	case float32:
		return number{class: floatNumber, f: float64(n)}, true
	case float64:
		return number{class: floatNumber, f: n}, true
	case decimal.Decimal:
		return number{class: decimalNumber, d: n}, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{class: signedNumber, i: rv.Int()}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return number{class: unsignedNumber, u: rv.Uint()}, true
	}

	return number{}, false
}

func (n number) float() float64 {
	switch n.class {
	case signedNumber:
		return float64(n.i)
	case unsignedNumber:
		return float64(n.u)
	case decimalNumber:
		return n.d.InexactFloat64()
	}

	return n.f
}

func (n number) decimal() (decimal.Decimal, error) {
	switch n.class {
	case signedNumber:
		return decimal.NewFromInt(n.i), nil
	case unsignedNumber:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(n.u), 0), nil
	case floatNumber:
		if math.IsNaN(n.f) || math.IsInf(n.f, 0) {
			return decimal.Zero, ErrOverflow
		}

		return decimal.NewFromFloat(n.f), nil
	}

	return n.d, nil
}

type integerRange struct {
	signed bool
	min    int64
	max    uint64
}

var integerRanges = map[Kind]integerRange{
	KindSByte:  {true, math.MinInt8, math.MaxInt8},
	KindInt16:  {true, math.MinInt16, math.MaxInt16},
	KindInt32:  {true, math.MinInt32, math.MaxInt32},
	KindInt64:  {true, math.MinInt64, math.MaxInt64},
	KindByte:   {false, 0, math.MaxUint8},
	KindUInt16: {false, 0, math.MaxUint16},
	KindChar:   {false, 0, math.MaxUint16},
	KindUInt32: {false, 0, math.MaxUint32},
	KindUInt64: {false, 0, math.MaxUint64},
}

// integer converts n to an integral kind. Negative results are held in i, others in both i and u.
func (n number) integer(r integerRange) (i int64, u uint64, err error) {
	switch n.class {
	case signedNumber:
		if n.i < 0 {
			if n.i < r.min {
				return 0, 0, ErrOverflow
			}

			return n.i, 0, nil
		}

		u = uint64(n.i)
	case unsignedNumber:
		u = n.u
	case floatNumber:
		if math.IsNaN(n.f) || math.IsInf(n.f, 0) {
			return 0, 0, ErrOverflow
		}

		t := math.Trunc(n.f)
		if t < 0 {
			if t < float64(r.min) {
				return 0, 0, ErrOverflow
			}

			return int64(t), 0, nil
		}

		if t >= 18446744073709551616.0 {
			return 0, 0, ErrOverflow
		}

		u = uint64(t)
	case decimalNumber:
		t := n.d.Truncate(0)
		if t.IsNegative() {
			if t.LessThan(decimal.NewFromInt(r.min)) {
				return 0, 0, ErrOverflow
			}

			return t.IntPart(), 0, nil
		}

		b := t.BigInt()
		if !b.IsUint64() {
			return 0, 0, ErrOverflow
		}

		u = b.Uint64()
	}

	if u > r.max {
		return 0, 0, ErrOverflow
	}

	return int64(u), u, nil
}

func makeInteger(k Kind, i int64, u uint64) any {
	switch k {
	case KindSByte:
		return int8(i)
	case KindInt16:
		return int16(i)
	case KindInt32:
		return int32(i)
	case KindInt64:
		return i
	case KindByte:
		return uint8(u)
	case KindUInt16:
		return uint16(u)
	case KindChar:
		return rune(u)
	case KindUInt32:
		return uint32(u)
	}

	return u
}

// ConvertNumber converts a numeric (or char) value to the numeric kind of target,
// failing with ErrOverflow when the value is out of range.
func ConvertNumber(v any, target *Type) (any, error) {
	n, ok := numberOf(v)
	if !ok {
		return nil, fmt.Errorf("%w: %T to %s", ErrInvalidCast, v, target.Name())
	}

	k := target.NonNullable().kind
	switch k {
	case KindSingle:
		if n.class == decimalNumber {
			return float32(n.d.InexactFloat64()), nil
		}

		return float32(n.float()), nil
	case KindDouble:
		return n.float(), nil
	case KindDecimal:
		return n.decimal()
	}

	r, ok := integerRanges[k]
	if !ok {
		return nil, fmt.Errorf("%w: %T to %s", ErrInvalidCast, v, target.Name())
	}

	i, u, err := n.integer(r)
	if err != nil {
		return nil, fmt.Errorf("%w: value was too large or too small for %s", err, target.Name())
	}

	return makeInteger(k, i, u), nil
}

// Cast converts a runtime value of static type from to type to. It implements
// nullable wrapping and unwrapping, numeric and enum conversions and reference conversions.
func Cast(v any, from, to *Type) (any, error) {
	if from == to {
		return v, nil
	}

	if v == nil {
		if to.IsValueType() && !to.IsNullable() {
			return nil, fmt.Errorf("%w: nullable object must have a value", ErrInvalidOperation)
		}

		return nil, nil
	}

	target := to.NonNullable()

	switch {
	case target.kind == KindEnum:
		return toEnum(v, target)
	case IsNumeric(target):
		if from.NonNullable() == target {
			return v, nil
		}

		if from.IsEnum() {
			v = enumNumber(v)
		}

		if !from.IsValueType() && from.kind != KindObject {
			return nil, fmt.Errorf("%w: %s to %s", ErrInvalidCast, from.Name(), to.Name())
		}

		if from.kind == KindObject && RuntimeKind(v) != target.kind {
			return nil, fmt.Errorf("%w: %T to %s", ErrInvalidCast, v, to.Name())
		}

		return ConvertNumber(v, target)
	case target.IsValueType():
		if RuntimeKind(v) != target.kind {
			return nil, fmt.Errorf("%w: %T to %s", ErrInvalidCast, v, to.Name())
		}

		return v, nil
	}

	if !IsInstanceOf(v, target) {
		return nil, fmt.Errorf("%w: %T to %s", ErrInvalidCast, v, to.Name())
	}

	return v, nil
}

func toEnum(v any, enum *Type) (any, error) {
	if enum.goType == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCast, enum.Name())
	}

	rv := reflect.ValueOf(v)
	if rv.Type() == enum.goType {
		return v, nil
	}

	if reflect.TypeOf(v).Kind() != reflect.String {
		n, err := ConvertNumber(enumNumber(v), enum.elem)
		if err != nil {
			return nil, err
		}

		return reflect.ValueOf(n).Convert(enum.goType).Interface(), nil
	}

	if value, ok := enum.EnumValue(rv.String()); ok {
		return value, nil
	}

	return nil, fmt.Errorf("%w: %q is not a member of %s", ErrFormat, rv.String(), enum.Name())
}

// enumNumber returns the integral value of an enum constant
func enumNumber(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	}

	return v
}

// RuntimeKind reports the predefined kind a runtime value belongs to, or KindObject
func RuntimeKind(v any) Kind {
	switch v.(type) {
	case bool:
		return KindBoolean
	case string:
		return KindString
	case int8:
		return KindSByte
	case uint8:
		return KindByte
	case int16:
		return KindInt16
	case uint16:
		return KindUInt16
	case int32:
		return KindInt32
	case uint32:
		return KindUInt32
	case int64:
		return KindInt64
	case uint64:
		return KindUInt64
	case float32:
		return KindSingle
	case float64:
		return KindDouble
	case decimal.Decimal:
		return KindDecimal
	case time.Time:
		return KindDateTime
	case time.Duration:
		return KindTimeSpan
	case uuid.UUID:
		return KindGuid
	}

	return KindObject
}

// IsInstanceOf reports whether the runtime value v can be held by a location of reference type t
func IsInstanceOf(v any, t *Type) bool {
	if v == nil {
		return !t.IsValueType() || t.IsNullable()
	}

	switch t.kind {
	case KindObject:
		return true
	case KindString:
		_, ok := v.(string)
		return ok
	case KindRecord:
		r, ok := v.(interface{ RecordType() *Type })
		return ok && r.RecordType() == t
	case KindGrouping:
		_, ok := v.(*Grouping)
		return ok
	case KindSequence, KindArray:
		if _, ok := v.(Enumerable); ok {
			return true
		}

		k := reflect.TypeOf(v).Kind()

		return k == reflect.Slice || k == reflect.Array
	case KindClass, KindInterface:
		rt := reflect.TypeOf(v)
		if t.goType == nil {
			return false
		}

		if t.goType.Kind() == reflect.Interface {
			return rt.Implements(t.goType)
		}

		return rt == t.goType || rt == reflect.PointerTo(t.goType)
	case KindMap:
		return reflect.TypeOf(v).Kind() == reflect.Map
	case KindFunc:
		_, ok := v.(Func)
		return ok
	}

	return RuntimeKind(v) == t.kind
}

// ChangeType converts v to target leniently: strings are parsed, numbers are converted
// with overflow checking and any value can become a string.
func ChangeType(v any, target *Type) (any, error) {
	if v == nil {
		if target.IsValueType() && !target.IsNullable() {
			return nil, fmt.Errorf("%w: null can not be converted to %s", ErrInvalidCast, target.Name())
		}

		return nil, nil
	}

	t := target.NonNullable()

	if s, ok := v.(string); ok && t.kind != KindString {
		return Parse(s, t)
	}

	switch t.kind {
	case KindString:
		return Format(v), nil
	case KindObject:
		return v, nil
	case KindBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}

		n, ok := numberOf(v)
		if !ok {
			return nil, fmt.Errorf("%w: %T to Boolean", ErrInvalidCast, v)
		}

		return n.float() != 0, nil
	case KindEnum:
		return toEnum(v, t)
	case KindDateTime, KindTimeSpan, KindGuid:
		if RuntimeKind(v) == t.kind {
			return v, nil
		}

		return nil, fmt.Errorf("%w: %T to %s", ErrInvalidCast, v, t.Name())
	}

	if b, ok := v.(bool); ok && IsNumeric(t) {
		if b {
			return ConvertNumber(int64(1), t)
		}

		return ConvertNumber(int64(0), t)
	}

	if IsNumeric(t) {
		return ConvertNumber(enumNumber(v), t)
	}

	return Cast(v, Object, t)
}

// Parse converts text to a value of a predefined type
func Parse(s string, t *Type) (any, error) {
	t = t.NonNullable()
	s = strings.TrimSpace(s)

	fail := func(err error) (any, error) {
		if err == nil {
			err = ErrFormat
		}

		return nil, fmt.Errorf("%w: %q as %s", err, s, t.Name())
	}

	switch t.kind {
	case KindString:
		return s, nil
	case KindBoolean:
		switch {
		case strings.EqualFold(s, "true"):
			return true, nil
		case strings.EqualFold(s, "false"):
			return false, nil
		}

		return fail(nil)
	case KindChar:
		r := []rune(s)
		if len(r) != 1 {
			return fail(nil)
		}

		return r[0], nil
	case KindSingle:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return fail(nil)
		}

		return float32(f), nil
	case KindDouble:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fail(nil)
		}

		return f, nil
	case KindDecimal:
		d, err := decimal.NewFromString(s)
		if err != nil {
			return fail(nil)
		}

		return d, nil
	case KindDateTime:
		for _, layout := range dateTimeLayouts {
			if tm, err := time.Parse(layout, s); err == nil {
				return tm, nil
			}
		}

		return fail(nil)
	case KindTimeSpan:
		return parseTimeSpan(s)
	case KindGuid:
		u, err := uuid.Parse(s)
		if err != nil {
			return fail(nil)
		}

		return u, nil
	case KindEnum:
		return toEnum(s, t)
	}

	r, ok := integerRanges[t.kind]
	if !ok {
		return fail(ErrInvalidCast)
	}

	if r.signed {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fail(rangeOrFormat(err))
		}

		return ConvertNumber(i, t)
	}

	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fail(rangeOrFormat(err))
	}

	return ConvertNumber(u, t)
}

func rangeOrFormat(err error) error {
	if errors.Is(err, strconv.ErrRange) {
		return ErrOverflow
	}

	return ErrFormat
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// parseTimeSpan accepts [-][d.]hh:mm[:ss[.fffffff]] as well as Go duration strings
func parseTimeSpan(s string) (any, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")

	var days int64

	if dot := strings.Index(body, "."); dot >= 0 && dot < strings.Index(body, ":") {
		d, err := strconv.ParseInt(body[:dot], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q as TimeSpan", ErrFormat, s)
		}

		days = d
		body = body[dot+1:]
	}

	parts := strings.Split(body, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("%w: %q as TimeSpan", ErrFormat, s)
	}

	h, err1 := strconv.ParseInt(parts[0], 10, 64)
	m, err2 := strconv.ParseInt(parts[1], 10, 64)

	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("%w: %q as TimeSpan", ErrFormat, s)
	}

	var sec float64

	if len(parts) == 3 {
		f, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q as TimeSpan", ErrFormat, s)
		}

		sec = f
	}

	d := time.Duration(days)*24*time.Hour + time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec*float64(time.Second))
	if neg {
		d = -d
	}

	return d, nil
}
