package typesys

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/shopspring/decimal"
)

// Enumerable is implemented by runtime sequence values that are not plain slices
type Enumerable interface {
	Items() []any
}

// Grouping is the runtime value of a grouping: a key and the elements sharing it
type Grouping struct {
	Key   any
	Elems []any
}

// Items implements Enumerable
func (g *Grouping) Items() []any { return g.Elems }

// String implements fmt.Stringer
func (g *Grouping) String() string {
	return fmt.Sprintf("%s (%d)", Format(g.Key), len(g.Elems))
}

// Items returns the elements of a sequence value as runtime values of elem
func Items(v any, elem *Type) ([]any, error) {
	switch s := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: sequence is null", ErrNullReference)
	case []any:
		return s, nil
	case Enumerable:
		return s.Items(), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Array {
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: %T is not a sequence", ErrInvalidCast, v)
	}

	result := make([]any, rv.Len())
	for i := range result {
		result[i] = HostValue(rv.Index(i), elem)
	}

	return result, nil
}

// enumerableType hosts the aggregate operators; it is never visible in expressions
var enumerableType = newType(KindStatic, "Enumerable")

type aggregateKey struct {
	name   string
	elem   uint64
	result uint64
}

var (
	aggregateMu sync.Mutex
	aggregates  = make(map[aggregateKey]*Method)
)

// Aggregate returns the sequence operator name applied to a sequence of elem.
// arg is the type of the lambda body, or nil for the parameterless overloads of Any and Count.
func Aggregate(name string, elem, arg *Type) (*Method, error) {
	key := aggregateKey{name: name, elem: elem.id, result: idOf(arg)}

	aggregateMu.Lock()
	defer aggregateMu.Unlock()

	if m, ok := aggregates[key]; ok {
		return m, nil
	}

	m, err := newAggregate(name, elem, arg)
	if err != nil {
		return nil, err
	}

	aggregates[key] = m

	return m, nil
}

func newAggregate(name string, elem, arg *Type) (*Method, error) {
	m := &Method{
		Name:      name,
		Declaring: enumerableType,
		Static:    true,
		Params:    []*Type{SequenceOf(elem)},
	}

	if arg != nil {
		m.Params = append(m.Params, FuncOf([]*Type{elem}, arg))
	}

	switch name {
	case "Where":
		m.Result = SequenceOf(elem)
		m.Invoke = aggregateInvoker(elem, func(items []any, f Func) (any, error) {
			result := make([]any, 0, len(items))

			for _, item := range items {
				ok, err := predicate(f, item)
				if err != nil {
					return nil, err
				}

				if ok {
					result = append(result, item)
				}
			}

			return result, nil
		})
	case "Any":
		m.Result = Boolean
		m.Invoke = aggregateInvoker(elem, func(items []any, f Func) (any, error) {
			if f == nil {
				return len(items) > 0, nil
			}

			for _, item := range items {
				ok, err := predicate(f, item)
				if err != nil || ok {
					return ok, err
				}
			}

			return false, nil
		})
	case "All":
		m.Result = Boolean
		m.Invoke = aggregateInvoker(elem, func(items []any, f Func) (any, error) {
			for _, item := range items {
				ok, err := predicate(f, item)
				if err != nil || !ok {
					return false, err
				}
			}

			return true, nil
		})
	case "Count":
		m.Result = Int32
		m.Invoke = aggregateInvoker(elem, func(items []any, f Func) (any, error) {
			if f == nil {
				return int32(len(items)), nil
			}

			var n int32

			for _, item := range items {
				ok, err := predicate(f, item)
				if err != nil {
					return nil, err
				}

				if ok {
					n++
				}
			}

			return n, nil
		})
	case "Min", "Max":
		m.Result = arg
		sign := 1

		if name == "Min" {
			sign = -1
		}

		m.Invoke = aggregateInvoker(elem, func(items []any, f Func) (any, error) {
			return extreme(items, f, arg, sign)
		})
	case "Sum":
		m.Result = arg
		m.Invoke = aggregateInvoker(elem, func(items []any, f Func) (any, error) {
			return sum(items, f, arg)
		})
	case "Average":
		m.Result = averageResult(arg)
		m.Invoke = aggregateInvoker(elem, func(items []any, f Func) (any, error) {
			return average(items, f, arg, m.Result)
		})
	default:
		return nil, fmt.Errorf("%w: unknown aggregate %s", ErrInvalidOperation, name)
	}

	return m, nil
}

func aggregateInvoker(elem *Type, body func(items []any, f Func) (any, error)) Invoker {
	return func(_ any, args []any) (any, error) {
		items, err := Items(args[0], elem)
		if err != nil {
			return nil, err
		}

		var f Func

		if len(args) > 1 {
			f, _ = args[1].(Func)
		}

		return body(items, f)
	}
}

func predicate(f Func, item any) (bool, error) {
	v, err := f(item)
	if err != nil {
		return false, err
	}

	b, _ := v.(bool)

	return b, nil
}

func extreme(items []any, f Func, t *Type, sign int) (any, error) {
	var best any

	for _, item := range items {
		v, err := f(item)
		if err != nil {
			return nil, err
		}

		if v == nil {
			continue
		}

		if best == nil {
			best = v
			continue
		}

		c, err := Compare(v, best)
		if err != nil {
			return nil, err
		}

		if c*sign > 0 {
			best = v
		}
	}

	if best == nil && t.IsValueType() && !t.IsNullable() {
		return nil, fmt.Errorf("%w: sequence contains no elements", ErrInvalidOperation)
	}

	return best, nil
}

func zeroOf(t *Type) any {
	v, _ := ConvertNumber(int64(0), t.NonNullable())
	return v
}

func sum(items []any, f Func, t *Type) (any, error) {
	total := zeroOf(t)

	for _, item := range items {
		v, err := f(item)
		if err != nil {
			return nil, err
		}

		if v == nil {
			continue
		}

		if total, err = AddChecked(total, v); err != nil {
			return nil, err
		}
	}

	return total, nil
}

func averageResult(arg *Type) *Type {
	switch arg.NonNullable() {
	case Int32, Int64:
		if arg.IsNullable() {
			return NullableOf(Double)
		}

		return Double
	}

	return arg
}

func average(items []any, f Func, arg, result *Type) (any, error) {
	var (
		count int64
		dsum  = decimal.Zero
		fsum  float64
	)

	isDecimal := arg.NonNullable() == Decimal

	for _, item := range items {
		v, err := f(item)
		if err != nil {
			return nil, err
		}

		if v == nil {
			continue
		}

		count++

		n, _ := numberOf(v)
		if isDecimal {
			dsum = dsum.Add(n.d)
		} else {
			fsum += n.float()
		}
	}

	if count == 0 {
		if result.IsNullable() {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: sequence contains no elements", ErrInvalidOperation)
	}

	if isDecimal {
		return dsum.DivRound(decimal.NewFromInt(count), decimalPrecision), nil
	}

	return ConvertNumber(fsum/float64(count), result.NonNullable())
}
