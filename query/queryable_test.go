package query

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"

	"github.com/shibukawa/dynquery"
	"github.com/shibukawa/dynquery/expr"
	"github.com/shibukawa/dynquery/typesys"
)

type product struct {
	Name     string
	Category string
	Price    float64
	Qty      int32
}

var products = []product{
	{Name: "pen", Category: "stationery", Price: 2.5, Qty: 10},
	{Name: "desk", Category: "furniture", Price: 120, Qty: 2},
	{Name: "notebook", Category: "stationery", Price: 4, Qty: 0},
	{Name: "chair", Category: "furniture", Price: 45, Qty: 6},
	{Name: "lamp", Category: "lighting", Price: 45, Qty: 3},
}

func names(t *testing.T, q Queryable) []string {
	t.Helper()

	items, err := Collect(context.Background(), q)
	require.NoError(t, err)

	result := make([]string, len(items))
	for i, item := range items {
		result[i] = item.(product).Name
	}

	return result
}

func source(t *testing.T) Queryable {
	t.Helper()

	q, err := From(products)
	require.NoError(t, err)

	return q
}

func TestWhere(t *testing.T) {
	t.Run("filters elements", func(t *testing.T) {
		q, err := Where(source(t), "Price > 10 and Qty > 0")
		assert.NoError(t, err)
		assert.Equal(t, []string{"desk", "chair", "lamp"}, names(t, q))
	})

	t.Run("positional values", func(t *testing.T) {
		q, err := Where(source(t), "Category == @0 && Price < @1", "stationery", 3.0)
		assert.NoError(t, err)
		assert.Equal(t, []string{"pen"}, names(t, q))
	})

	t.Run("empty source", func(t *testing.T) {
		src, err := From([]product{})
		require.NoError(t, err)

		q, err := Where(src, "Price > 10")
		assert.NoError(t, err)

		items, err := Collect(context.Background(), q)
		assert.NoError(t, err)
		assert.Equal(t, 0, len(items))
	})

	t.Run("parse errors are returned", func(t *testing.T) {
		_, err := Where(source(t), "Weight > 10")
		assert.IsError(t, err, dynquery.ErrUnknownIdentifier)

		_, err = Where(source(t), "Name")
		assert.IsError(t, err, dynquery.ErrTypeMismatch)
	})
}

func TestArgumentNull(t *testing.T) {
	src := source(t)

	tests := []struct {
		name string
		call func() error
	}{
		{"source", func() error { _, err := Where(nil, "true"); return err }},
		{"predicate", func() error { _, err := Where(src, ""); return err }},
		{"selector", func() error { _, err := Select(src, ""); return err }},
		{"ordering", func() error { _, err := OrderBy(src, ""); return err }},
		{"keySelector", func() error { _, err := GroupBy(src, "", "it"); return err }},
		{"elementSelector", func() error { _, err := GroupBy(src, "Category", ""); return err }},
		{"source", func() error { _, err := Take(nil, 1); return err }},
		{"source", func() error { _, err := Skip(nil, 1); return err }},
		{"source", func() error { _, err := Any(context.Background(), nil); return err }},
		{"source", func() error { _, err := Count(context.Background(), nil); return err }},
		{"source", func() error { _, err := From(nil); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.IsError(t, err, dynquery.ErrArgumentNull)

			var ane *dynquery.ArgumentNullError
			assert.True(t, errors.As(err, &ane))
			assert.Equal(t, tt.name, ane.Name)
		})
	}
}

func TestStagesAreAppendOnly(t *testing.T) {
	src := source(t)
	root := src.Expression()

	filtered, err := Where(src, "Price > 10")
	require.NoError(t, err)

	first := filtered.Expression()
	before := first.String()

	projected, err := Select(filtered, "Name")
	require.NoError(t, err)

	assert.Equal(t, root, src.Expression())
	assert.Equal(t, first, filtered.Expression())
	assert.Equal(t, before, filtered.Expression().String())

	call, ok := projected.Expression().(*expr.Call)
	require.True(t, ok)
	assert.Equal(t, "Select", call.Method.Name)
	assert.Equal(t, first, call.Args[0])
	assert.Equal(t, typesys.String, projected.ElementType())

	// the earlier stage still executes on its own
	assert.Equal(t, []string{"desk", "chair", "lamp"}, names(t, filtered))

	items, err := Collect(context.Background(), projected)
	assert.NoError(t, err)
	assert.Equal(t, []any{"desk", "chair", "lamp"}, items)
}

func TestSelectRecord(t *testing.T) {
	q, err := Select(source(t), "new(Name, Price * 2 as Twice)")
	require.NoError(t, err)

	assert.Equal(t, typesys.KindRecord, q.ElementType().Kind())

	result, err := Materialize(context.Background(), q, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Twice"}, result.Columns)
	assert.Equal(t, 5, result.Count)
	assert.Equal(t, []any{"pen", 5.0}, result.Rows[0])
}

func TestOrderBy(t *testing.T) {
	t.Run("single key", func(t *testing.T) {
		q, err := OrderBy(source(t), "Price")
		assert.NoError(t, err)
		assert.Equal(t, []string{"pen", "notebook", "chair", "lamp", "desk"}, names(t, q))
	})

	t.Run("descending key is stable", func(t *testing.T) {
		q, err := OrderBy(source(t), "Price desc")
		assert.NoError(t, err)
		assert.Equal(t, []string{"desk", "chair", "lamp", "notebook", "pen"}, names(t, q))
	})

	t.Run("multiple keys", func(t *testing.T) {
		q, err := OrderBy(source(t), "Category, Price descending")
		assert.NoError(t, err)
		assert.Equal(t, []string{"desk", "chair", "lamp", "notebook", "pen"}, names(t, q))

		call, ok := q.Expression().(*expr.Call)
		require.True(t, ok)
		assert.Equal(t, "ThenByDescending", call.Method.Name)

		inner, ok := call.Args[0].(*expr.Call)
		require.True(t, ok)
		assert.Equal(t, "OrderBy", inner.Method.Name)
	})

	t.Run("ordering error", func(t *testing.T) {
		_, err := OrderBy(source(t), "Price sideways")
		assert.IsError(t, err, dynquery.ErrSyntax)
	})
}

func TestTakeSkip(t *testing.T) {
	tests := []struct {
		name  string
		build func(Queryable) (Queryable, error)
		want  []string
	}{
		{"take", func(q Queryable) (Queryable, error) { return Take(q, 2) }, []string{"pen", "desk"}},
		{"take more than available", func(q Queryable) (Queryable, error) { return Take(q, 10) }, []string{"pen", "desk", "notebook", "chair", "lamp"}},
		{"take negative", func(q Queryable) (Queryable, error) { return Take(q, -1) }, []string{}},
		{"skip", func(q Queryable) (Queryable, error) { return Skip(q, 3) }, []string{"chair", "lamp"}},
		{"skip negative", func(q Queryable) (Queryable, error) { return Skip(q, -3) }, []string{"pen", "desk", "notebook", "chair", "lamp"}},
		{"skip all", func(q Queryable) (Queryable, error) { return Skip(q, 5) }, []string{}},
		{"page", func(q Queryable) (Queryable, error) {
			q, err := Skip(q, 1)
			if err != nil {
				return nil, err
			}

			return Take(q, 2)
		}, []string{"desk", "notebook"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := tt.build(source(t))
			assert.NoError(t, err)
			assert.Equal(t, tt.want, names(t, q))
		})
	}
}

func TestGroupBy(t *testing.T) {
	q, err := GroupBy(source(t), "Category", "Name")
	require.NoError(t, err)

	assert.Equal(t, typesys.KindGrouping, q.ElementType().Kind())

	items, err := Collect(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, 3, len(items))

	first := items[0].(*typesys.Grouping)
	assert.Equal(t, any("stationery"), first.Key)
	assert.Equal(t, []any{"pen", "notebook"}, first.Elems)

	second := items[1].(*typesys.Grouping)
	assert.Equal(t, any("furniture"), second.Key)
	assert.Equal(t, []any{"desk", "chair"}, second.Elems)

	t.Run("record keys group by value", func(t *testing.T) {
		q, err := GroupBy(source(t), "new(Price > 10 as Expensive, Qty > 0 as InStock)", "it")
		require.NoError(t, err)

		n, err := Count(context.Background(), q)
		assert.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("key property is queryable", func(t *testing.T) {
		filtered, err := Where(q, "Key.StartsWith(\"f\")")
		require.NoError(t, err)

		result, err := Materialize(context.Background(), filtered, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"Key", "Count"}, result.Columns)
		assert.Equal(t, [][]any{{"furniture", 2}}, result.Rows)
	})
}

func TestAnyCount(t *testing.T) {
	ctx := context.Background()

	n, err := Count(ctx, source(t))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	none, err := Where(source(t), "Price > 1000")
	require.NoError(t, err)

	ok, err := Any(ctx, none)
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = Any(ctx, source(t))
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestExecutionErrors(t *testing.T) {
	q, err := Where(source(t), "100 / Qty > 1")
	require.NoError(t, err)

	_, err = Collect(context.Background(), q)
	assert.IsError(t, err, typesys.ErrDivideByZero)
}

func TestMaterializeMaxRows(t *testing.T) {
	result, err := Materialize(context.Background(), source(t), 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Category", "Price", "Qty"}, result.Columns)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, []any{"pen", "stationery", 2.5, int32(10)}, result.Rows[0])
}
