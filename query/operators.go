package query

import (
	"fmt"
	"slices"

	"github.com/shibukawa/dynquery/typesys"
)

// queryableType hosts the sequence operators that stages of a tree call
var queryableType = typesys.NewStaticType("Queryable")

func operator(name string, result *typesys.Type, invoke typesys.Invoker, params ...*typesys.Type) *typesys.Method {
	return &typesys.Method{
		Name:      name,
		Declaring: queryableType,
		Params:    params,
		Result:    result,
		Static:    true,
		Invoke:    invoke,
	}
}

// itemsAndFunc unpacks the source sequence and the optional lambda argument of an operator call
func itemsAndFunc(args []any, elem *typesys.Type) ([]any, typesys.Func, error) {
	items, err := typesys.Items(args[0], elem)
	if err != nil {
		return nil, nil, err
	}

	if len(args) < 2 {
		return items, nil, nil
	}

	f, ok := args[1].(typesys.Func)
	if !ok {
		return nil, nil, fmt.Errorf("%w: operator argument %T is not a function", typesys.ErrInvalidCast, args[1])
	}

	return items, f, nil
}

func whereOperator(elem *typesys.Type) *typesys.Method {
	seq := typesys.SequenceOf(elem)

	return operator("Where", seq, func(_ any, args []any) (any, error) {
		items, f, err := itemsAndFunc(args, elem)
		if err != nil {
			return nil, err
		}

		result := make([]any, 0, len(items))

		for _, item := range items {
			v, err := f(item)
			if err != nil {
				return nil, err
			}

			if b, _ := v.(bool); b {
				result = append(result, item)
			}
		}

		return result, nil
	}, seq, typesys.FuncOf([]*typesys.Type{elem}, typesys.Boolean))
}

func selectOperator(elem, result *typesys.Type) *typesys.Method {
	return operator("Select", typesys.SequenceOf(result), func(_ any, args []any) (any, error) {
		items, f, err := itemsAndFunc(args, elem)
		if err != nil {
			return nil, err
		}

		projected := make([]any, len(items))

		for i, item := range items {
			if projected[i], err = f(item); err != nil {
				return nil, err
			}
		}

		return projected, nil
	}, typesys.SequenceOf(elem), typesys.FuncOf([]*typesys.Type{elem}, result))
}

type orderKey struct {
	f          typesys.Func
	descending bool
}

// ordered is the value of an OrderBy/ThenBy stage. It keeps the unsorted input
// so that a following ThenBy sorts by all keys at once.
type ordered struct {
	base   []any
	keys   []orderKey
	sorted []any
}

// Items implements typesys.Enumerable
func (o *ordered) Items() []any { return o.sorted }

// orderOperator builds OrderBy, OrderByDescending, ThenBy and ThenByDescending.
// Sorting is stable and null keys sort first.
func orderOperator(elem, key *typesys.Type, descending, then bool) *typesys.Method {
	name := "OrderBy"
	if then {
		name = "ThenBy"
	}

	if descending {
		name += "Descending"
	}

	seq := typesys.SequenceOf(elem)

	return operator(name, seq, func(_ any, args []any) (any, error) {
		base, f, err := itemsAndFunc(args, elem)
		if err != nil {
			return nil, err
		}

		var keys []orderKey

		if prev, ok := args[0].(*ordered); ok && then {
			base = prev.base
			keys = slices.Clone(prev.keys)
		}

		keys = append(keys, orderKey{f: f, descending: descending})

		sorted, err := sortItems(base, keys)
		if err != nil {
			return nil, err
		}

		return &ordered{base: base, keys: keys, sorted: sorted}, nil
	}, seq, typesys.FuncOf([]*typesys.Type{elem}, key))
}

func sortItems(items []any, keys []orderKey) ([]any, error) {
	values := make([][]any, len(items))

	for i, item := range items {
		values[i] = make([]any, len(keys))

		for j, k := range keys {
			v, err := k.f(item)
			if err != nil {
				return nil, err
			}

			values[i][j] = v
		}
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}

	var cmpErr error

	slices.SortStableFunc(order, func(a, b int) int {
		for j, k := range keys {
			c, err := compareKeys(values[a][j], values[b][j])
			if err != nil {
				if cmpErr == nil {
					cmpErr = err
				}

				return 0
			}

			if c != 0 {
				if k.descending {
					return -c
				}

				return c
			}
		}

		return 0
	})

	if cmpErr != nil {
		return nil, cmpErr
	}

	sorted := make([]any, len(items))
	for i, idx := range order {
		sorted[i] = items[idx]
	}

	return sorted, nil
}

func compareKeys(a, b any) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return -1, nil
	case b == nil:
		return 1, nil
	}

	return typesys.Compare(a, b)
}

func takeOperator(elem *typesys.Type) *typesys.Method {
	seq := typesys.SequenceOf(elem)

	return operator("Take", seq, func(_ any, args []any) (any, error) {
		items, _, err := itemsAndFunc(args[:1], elem)
		if err != nil {
			return nil, err
		}

		n := int(args[1].(int32))

		return items[:max(0, min(n, len(items)))], nil
	}, seq, typesys.Int32)
}

func skipOperator(elem *typesys.Type) *typesys.Method {
	seq := typesys.SequenceOf(elem)

	return operator("Skip", seq, func(_ any, args []any) (any, error) {
		items, _, err := itemsAndFunc(args[:1], elem)
		if err != nil {
			return nil, err
		}

		n := int(args[1].(int32))

		return items[max(0, min(n, len(items))):], nil
	}, seq, typesys.Int32)
}

// groupByOperator groups elements by key in order of first appearance. Keys compare with value equality.
func groupByOperator(elem, key, value *typesys.Type) *typesys.Method {
	result := typesys.SequenceOf(typesys.GroupingOf(key, value))

	return operator("GroupBy", result, func(_ any, args []any) (any, error) {
		items, keyOf, err := itemsAndFunc(args[:2], elem)
		if err != nil {
			return nil, err
		}

		valueOf, ok := args[2].(typesys.Func)
		if !ok {
			return nil, fmt.Errorf("%w: element selector %T is not a function", typesys.ErrInvalidCast, args[2])
		}

		var groups []*typesys.Grouping

		buckets := make(map[uint64][]int)

	items:
		for _, item := range items {
			k, err := keyOf(item)
			if err != nil {
				return nil, err
			}

			v, err := valueOf(item)
			if err != nil {
				return nil, err
			}

			h := typesys.Hash(k)

			for _, i := range buckets[h] {
				if typesys.Equal(groups[i].Key, k) {
					groups[i].Elems = append(groups[i].Elems, v)
					continue items
				}
			}

			buckets[h] = append(buckets[h], len(groups))
			groups = append(groups, &typesys.Grouping{Key: k, Elems: []any{v}})
		}

		out := make([]any, len(groups))
		for i, g := range groups {
			out[i] = g
		}

		return out, nil
	}, typesys.SequenceOf(elem), typesys.FuncOf([]*typesys.Type{elem}, key), typesys.FuncOf([]*typesys.Type{elem}, value))
}

func anyOperator(elem *typesys.Type) *typesys.Method {
	return operator("Any", typesys.Boolean, func(_ any, args []any) (any, error) {
		items, _, err := itemsAndFunc(args, elem)
		if err != nil {
			return nil, err
		}

		return len(items) > 0, nil
	}, typesys.SequenceOf(elem))
}

func countOperator(elem *typesys.Type) *typesys.Method {
	return operator("Count", typesys.Int32, func(_ any, args []any) (any, error) {
		items, _, err := itemsAndFunc(args, elem)
		if err != nil {
			return nil, err
		}

		return int32(len(items)), nil
	}, typesys.SequenceOf(elem))
}
