package query

import (
	"context"
	"fmt"
	"math"

	"github.com/shibukawa/dynquery/expr"
	"github.com/shibukawa/dynquery/parser"
	"github.com/shibukawa/dynquery/typesys"
)

// compose appends a call of m over the source tree and wraps it in a new queryable
func compose(source Queryable, m *typesys.Method, args ...expr.Node) (Queryable, error) {
	call := &expr.Call{Method: m, Args: append([]expr.Node{source.Expression()}, args...)}

	return source.Provider().CreateQuery(call)
}

// Where filters source by a boolean predicate over its elements
func Where(source Queryable, predicate string, values ...any) (Queryable, error) {
	if source == nil {
		return nil, argumentNull("source")
	}

	if predicate == "" {
		return nil, argumentNull("predicate")
	}

	elem := source.ElementType()

	l, err := parserOf(source).ParseItLambda(elem, typesys.Boolean, predicate, values...)
	if err != nil {
		return nil, err
	}

	return compose(source, whereOperator(elem), l)
}

// Select projects each element of source. The element type of the result is
// the type of the selector, which may be a record synthesized by new(...).
func Select(source Queryable, selector string, values ...any) (Queryable, error) {
	if source == nil {
		return nil, argumentNull("source")
	}

	if selector == "" {
		return nil, argumentNull("selector")
	}

	elem := source.ElementType()

	l, err := parserOf(source).ParseItLambda(elem, nil, selector, values...)
	if err != nil {
		return nil, err
	}

	return compose(source, selectOperator(elem, l.Body.Type()), l)
}

// OrderBy sorts source by a comma-separated list of keys. The first key becomes
// an OrderBy stage and each following key a ThenBy stage.
func OrderBy(source Queryable, ordering string, values ...any) (Queryable, error) {
	if source == nil {
		return nil, argumentNull("source")
	}

	if ordering == "" {
		return nil, argumentNull("ordering")
	}

	elem := source.ElementType()
	it := parser.NewParameter("", elem)

	orderings, err := parserOf(source).ParseOrdering([]*expr.Parameter{it}, ordering, values...)
	if err != nil {
		return nil, err
	}

	result := source

	for i, o := range orderings {
		m := orderOperator(elem, o.Expr.Type(), !o.Ascending, i > 0)

		if result, err = compose(result, m, expr.NewLambda(o.Expr, it)); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// Take returns the first n elements of source
func Take(source Queryable, n int) (Queryable, error) {
	if source == nil {
		return nil, argumentNull("source")
	}

	return compose(source, takeOperator(source.ElementType()), count(n))
}

// Skip bypasses the first n elements of source
func Skip(source Queryable, n int) (Queryable, error) {
	if source == nil {
		return nil, argumentNull("source")
	}

	return compose(source, skipOperator(source.ElementType()), count(n))
}

func count(n int) *expr.Constant {
	return &expr.Constant{Value: int32(max(math.MinInt32, min(n, math.MaxInt32))), T: typesys.Int32}
}

// GroupBy groups the elements selected by elementSelector by the value of keySelector.
// Each element of the result is a *typesys.Grouping with a Key property.
func GroupBy(source Queryable, keySelector, elementSelector string, values ...any) (Queryable, error) {
	if source == nil {
		return nil, argumentNull("source")
	}

	if keySelector == "" {
		return nil, argumentNull("keySelector")
	}

	if elementSelector == "" {
		return nil, argumentNull("elementSelector")
	}

	elem := source.ElementType()
	p := parserOf(source)

	key, err := p.ParseItLambda(elem, nil, keySelector, values...)
	if err != nil {
		return nil, err
	}

	value, err := p.ParseItLambda(elem, nil, elementSelector, values...)
	if err != nil {
		return nil, err
	}

	return compose(source, groupByOperator(elem, key.Body.Type(), value.Body.Type()), key, value)
}

// Any reports whether source contains any elements
func Any(ctx context.Context, source Queryable) (bool, error) {
	if source == nil {
		return false, argumentNull("source")
	}

	v, err := execute(ctx, source, anyOperator(source.ElementType()))
	if err != nil {
		return false, err
	}

	return v.(bool), nil
}

// Count returns the number of elements in source
func Count(ctx context.Context, source Queryable) (int, error) {
	if source == nil {
		return 0, argumentNull("source")
	}

	v, err := execute(ctx, source, countOperator(source.ElementType()))
	if err != nil {
		return 0, err
	}

	return int(v.(int32)), nil
}

// execute runs a scalar operator over the source tree through its provider
func execute(ctx context.Context, source Queryable, m *typesys.Method) (any, error) {
	call := &expr.Call{Method: m, Args: []expr.Node{source.Expression()}}

	v, err := source.Provider().Execute(ctx, call)
	if err != nil {
		return nil, err
	}

	if v == nil {
		return nil, fmt.Errorf("%w: %s returned no value", typesys.ErrInvalidOperation, m.Name)
	}

	return v, nil
}
