// Package query composes parsed expressions onto queryable sequences.
//
// Every operator appends one call of the static Queryable operator class to
// the source's expression tree and returns a new handle; prior stages are
// never modified. Trees are executed by the handle's Provider.
package query

import (
	"context"
	"fmt"
	"reflect"

	"github.com/shibukawa/dynquery/expr"
	"github.com/shibukawa/dynquery/parser"
	"github.com/shibukawa/dynquery/typesys"
)

// Queryable is a sequence described by an expression tree
type Queryable interface {
	// ElementType returns the type of the elements of the sequence
	ElementType() *typesys.Type
	// Expression returns the tree producing the sequence
	Expression() expr.Node
	// Provider returns the provider that creates and executes queries over the tree
	Provider() Provider
}

// Provider creates queryables over extended trees and executes them
type Provider interface {
	CreateQuery(e expr.Node) (Queryable, error)
	Execute(ctx context.Context, e expr.Node) (any, error)
}

// Engine is the in-memory provider. It parses operator arguments with its parser
// and executes trees with the expression evaluator.
type Engine struct {
	parser *parser.Parser
}

// NewEngine creates an engine parsing with p
func NewEngine(p *parser.Parser) *Engine {
	return &Engine{parser: p}
}

// Default is the engine over the default parser
var Default = NewEngine(parser.Default)

// Parser returns the parser used for operator arguments
func (e *Engine) Parser() *parser.Parser { return e.parser }

// sequence is the queryable handle of the engine
type sequence struct {
	elem     *typesys.Type
	node     expr.Node
	provider Provider
}

func (s *sequence) ElementType() *typesys.Type { return s.elem }
func (s *sequence) Expression() expr.Node      { return s.node }
func (s *sequence) Provider() Provider         { return s.provider }

func (s *sequence) String() string { return s.node.String() }

// origin is the value at the root of a tree: the items handed to From
type origin struct {
	name  string
	items []any
}

// Items implements typesys.Enumerable
func (o *origin) Items() []any { return o.items }

func (o *origin) String() string { return o.name }

// From creates a queryable over a Go slice or array. The element type is
// derived from the static element type of the slice.
func (e *Engine) From(items any) (Queryable, error) {
	if items == nil {
		return nil, argumentNull("source")
	}

	rt := reflect.TypeOf(items)
	if rt.Kind() != reflect.Slice && rt.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: %T is not a slice", ErrNotSequence, items)
	}

	elem, err := e.parser.Catalog().TypeOf(rt.Elem())
	if err != nil {
		return nil, err
	}

	values, err := typesys.Items(items, elem)
	if err != nil {
		return nil, err
	}

	return e.FromItems("Sequence<"+elem.Name()+">", elem, values), nil
}

// FromItems creates a queryable over runtime values of elem. name labels the
// root of the tree in its printed form.
func (e *Engine) FromItems(name string, elem *typesys.Type, items []any) Queryable {
	root := &expr.Constant{Value: &origin{name: name, items: items}, T: typesys.SequenceOf(elem)}

	return &sequence{elem: elem, node: root, provider: e}
}

// CreateQuery wraps a tree producing a sequence
func (e *Engine) CreateQuery(n expr.Node) (Queryable, error) {
	elem, ok := n.Type().ElementType()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotSequence, n.Type().Name())
	}

	return &sequence{elem: elem, node: n, provider: e}, nil
}

// Execute evaluates the tree and reports the execution to the logger on ctx
func (e *Engine) Execute(ctx context.Context, n expr.Node) (any, error) {
	log := newExecutionLogger(ctx, n)

	result, err := expr.Eval(ctx, n, nil)
	if err == nil {
		if elem, ok := n.Type().ElementType(); ok {
			var items []any
			if items, err = typesys.Items(result, elem); err == nil {
				result = items
				log.setRows(len(items))
			}
		}
	}

	log.setErr(err)
	log.write(ctx)

	if err != nil {
		return nil, err
	}

	return result, nil
}

// From creates a queryable over items with the default engine
func From(items any) (Queryable, error) {
	return Default.From(items)
}

// Collect executes source and returns its elements
func Collect(ctx context.Context, source Queryable) ([]any, error) {
	if source == nil {
		return nil, argumentNull("source")
	}

	result, err := source.Provider().Execute(ctx, source.Expression())
	if err != nil {
		return nil, err
	}

	return typesys.Items(result, source.ElementType())
}

// parserOf returns the parser of the source's provider, or the default parser
// for foreign providers
func parserOf(source Queryable) *parser.Parser {
	if p, ok := source.Provider().(interface{ Parser() *parser.Parser }); ok {
		return p.Parser()
	}

	return parser.Default
}
