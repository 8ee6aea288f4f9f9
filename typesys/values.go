package typesys

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Func is the runtime value of a lambda
type Func func(args ...any) (any, error)

// Equaler is implemented by runtime values with structural equality
type Equaler interface {
	Equals(other any) bool
}

// Hasher is implemented by runtime values that provide their own hash code
type Hasher interface {
	Hash() uint64
}

// Equal reports whether two runtime values are equal by their natural equality
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch x := a.(type) {
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		return ok && x.Equal(y)
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case Equaler:
		return x.Equals(b)
	}

	return SameReference(a, b)
}

// SameReference compares values the way reference equality does: comparable values
// compare by ==, slices, maps and functions by identity.
func SameReference(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}

	if ra.Comparable() {
		return a == b
	}

	switch ra.Kind() {
	case reflect.Slice:
		return ra.Len() == rb.Len() && ra.Pointer() == rb.Pointer()
	case reflect.Map, reflect.Func:
		return ra.Pointer() == rb.Pointer()
	}

	return false
}

// Hash returns a hash code consistent with Equal
func Hash(v any) uint64 {
	if v == nil {
		return 0
	}

	var buf [8]byte

	switch x := v.(type) {
	case Hasher:
		return x.Hash()
	case string:
		return xxhash.Sum64String(x)
	case bool:
		if x {
			return 1
		}

		return 0
	case decimal.Decimal:
		return xxhash.Sum64String(x.String())
	case time.Time:
		binary.LittleEndian.PutUint64(buf[:], uint64(x.UnixNano()))
		return xxhash.Sum64(buf[:])
	case uuid.UUID:
		return xxhash.Sum64(x[:])
	case float32:
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(float64(x)))
		return xxhash.Sum64(buf[:])
	case float64:
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(x))
		return xxhash.Sum64(buf[:])
	}

	if n, ok := numberOf(v); ok {
		if n.class == signedNumber {
			binary.LittleEndian.PutUint64(buf[:], uint64(n.i))
		} else {
			binary.LittleEndian.PutUint64(buf[:], n.u)
		}

		return xxhash.Sum64(buf[:])
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func:
		binary.LittleEndian.PutUint64(buf[:], uint64(rv.Pointer()))
		return xxhash.Sum64(buf[:])
	}

	return xxhash.Sum64String(fmt.Sprintf("%#v", v))
}

var collators = sync.Pool{
	New: func() any {
		return collate.New(language.Und)
	},
}

// CompareStrings compares strings with the culture-aware root collation. Null sorts first.
func CompareStrings(a, b string) int {
	c := collators.Get().(*collate.Collator)
	defer collators.Put(c)

	return c.CompareString(a, b)
}

// Compare orders two runtime values of the same static type. Null sorts first.
func Compare(a, b any) (int, error) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, nil
		case a == nil:
			return -1, nil
		}

		return 1, nil
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return CompareStrings(x, y), nil
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, nil
			case !x:
				return -1, nil
			}

			return 1, nil
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), nil
		}
	case uuid.UUID:
		if y, ok := b.(uuid.UUID); ok {
			return bytes.Compare(x[:], y[:]), nil
		}
	case decimal.Decimal:
		if n, ok := numberOf(b); ok {
			d, err := n.decimal()
			if err != nil {
				return 0, err
			}

			return x.Cmp(d), nil
		}
	case interface{ Compare(other any) (int, error) }:
		return x.Compare(b)
	}

	na, okA := numberOf(a)
	nb, okB := numberOf(b)

	if okA && okB {
		return compareNumbers(na, nb), nil
	}

	return 0, fmt.Errorf("%w: %T and %T are not comparable", ErrInvalidOperation, a, b)
}

func compareNumbers(a, b number) int {
	switch {
	case a.class == decimalNumber || b.class == decimalNumber:
		da, errA := a.decimal()
		db, errB := b.decimal()

		if errA == nil && errB == nil {
			return da.Cmp(db)
		}
	case a.class == signedNumber && b.class == signedNumber:
		return cmp3(a.i, b.i)
	case a.class == unsignedNumber && b.class == unsignedNumber:
		return cmp3(a.u, b.u)
	case a.class == signedNumber && b.class == unsignedNumber:
		if a.i < 0 {
			return -1
		}

		return cmp3(uint64(a.i), b.u)
	case a.class == unsignedNumber && b.class == signedNumber:
		if b.i < 0 {
			return 1
		}

		return cmp3(a.u, uint64(b.i))
	}

	fa, fb := a.float(), b.float()

	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	case fa == fb:
		return 0
	case math.IsNaN(fa) && !math.IsNaN(fb):
		return -1
	case !math.IsNaN(fa) && math.IsNaN(fb):
		return 1
	}

	return 0
}

func cmp3[T int64 | uint64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}

	return 0
}

// Format renders a runtime value the way ToString does
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "True"
		}

		return "False"
	case float32:
		return formatFloat(float64(x), 32)
	case float64:
		return formatFloat(x, 64)
	case decimal.Decimal:
		return x.String()
	case time.Time:
		if x.Nanosecond() != 0 {
			return x.Format("2006-01-02 15:04:05.9999999")
		}

		return x.Format("2006-01-02 15:04:05")
	case time.Duration:
		return FormatTimeSpan(x)
	case uuid.UUID:
		return x.String()
	case fmt.Stringer:
		return x.String()
	case Func:
		return "Func"
	}

	return fmt.Sprint(v)
}

// FormatAs renders a value of static type t. Char values are runes and print as characters.
func FormatAs(v any, t *Type) string {
	if r, ok := v.(rune); ok && t != nil && t.NonNullable().kind == KindChar {
		return string(r)
	}

	return Format(v)
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	if abs := math.Abs(f); abs != 0 && (abs >= 1e15 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'E', -1, bits)
	}

	return strconv.FormatFloat(f, 'f', -1, bits)
}

// FormatTimeSpan renders a duration as [-][d.]hh:mm:ss[.fffffff]
func FormatTimeSpan(d time.Duration) string {
	var b strings.Builder

	if d < 0 {
		b.WriteByte('-')

		d = -d
	}

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second

	if days > 0 {
		fmt.Fprintf(&b, "%d.", days)
	}

	fmt.Fprintf(&b, "%02d:%02d:%02d", h, m, s)

	if d > 0 {
		fmt.Fprintf(&b, ".%07d", d/100)
	}

	return b.String()
}
