package query

import (
	"context"
	"time"

	"github.com/shibukawa/dynquery/typesys"
)

// Result is a materialized query result laid out as rows of columns
type Result struct {
	Columns  []string
	Rows     [][]any
	Count    int
	Duration time.Duration
}

// Materialize executes source and lays its elements out as a Result.
// maxRows limits the number of rows when it is positive.
func Materialize(ctx context.Context, source Queryable, maxRows int) (*Result, error) {
	start := time.Now()

	items, err := Collect(ctx, source)
	if err != nil {
		return nil, err
	}

	if maxRows > 0 && len(items) > maxRows {
		items = items[:maxRows]
	}

	result, err := NewResult(source.ElementType(), items)
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)

	return result, nil
}

// NewResult lays out items of elem as rows. Records and classes produce one
// column per field, groupings produce Key and Count, and other values a single
// Value column.
func NewResult(elem *typesys.Type, items []any) (*Result, error) {
	result := &Result{Count: len(items), Rows: make([][]any, 0, len(items))}

	if elem.Kind() == typesys.KindGrouping {
		result.Columns = []string{"Key", "Count"}

		for _, item := range items {
			g, ok := item.(*typesys.Grouping)
			if !ok {
				result.Rows = append(result.Rows, []any{nil, 0})
				continue
			}

			result.Rows = append(result.Rows, []any{g.Key, len(g.Elems)})
		}

		return result, nil
	}

	fields := instanceFields(elem)
	if len(fields) == 0 {
		result.Columns = []string{"Value"}

		for _, item := range items {
			result.Rows = append(result.Rows, []any{item})
		}

		return result, nil
	}

	for _, f := range fields {
		result.Columns = append(result.Columns, f.Name)
	}

	for _, item := range items {
		row := make([]any, len(fields))

		if item != nil {
			for i, f := range fields {
				v, err := f.Get(item)
				if err != nil {
					return nil, err
				}

				row[i] = v
			}
		}

		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

func instanceFields(t *typesys.Type) []*typesys.Member {
	switch t.Kind() {
	case typesys.KindRecord, typesys.KindClass:
	default:
		return nil
	}

	var fields []*typesys.Member

	for _, f := range t.Fields() {
		if !f.Static && f.Get != nil {
			fields = append(fields, f)
		}
	}

	return fields
}
