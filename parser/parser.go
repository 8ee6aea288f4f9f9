// Package parser turns expression text into typed expression trees.
//
// Parsing is synchronous and fail-fast: the first error aborts the parse and is
// returned as a *dynquery.ParseError carrying the offending position.
package parser

import (
	"github.com/shibukawa/dynquery/expr"
	"github.com/shibukawa/dynquery/record"
	"github.com/shibukawa/dynquery/tokenizer"
	"github.com/shibukawa/dynquery/typesys"
)

// Parser resolves identifiers against a type catalog and synthesizes projection
// types through a record factory. A Parser is safe for concurrent use; every
// parse call owns its own state.
type Parser struct {
	catalog *typesys.Catalog
	records *record.Factory
}

// New creates a parser
func New(catalog *typesys.Catalog, records *record.Factory) *Parser {
	return &Parser{catalog: catalog, records: records}
}

// Default is the parser over the default catalog and record factory
var Default = New(typesys.DefaultCatalog, record.Default)

// Catalog returns the type catalog of the parser
func (p *Parser) Catalog() *typesys.Catalog { return p.catalog }

// Records returns the record factory of the parser
func (p *Parser) Records() *record.Factory { return p.records }

// NewParameter creates a lambda parameter. A single parameter with an empty
// name becomes the implicit receiver "it".
func NewParameter(name string, t *typesys.Type) *expr.Parameter {
	return expr.NewParameter(name, t)
}

// Ordering is one key of an ordering clause
type Ordering struct {
	Expr      expr.Node
	Ascending bool
}

// Parse parses text into an expression over params. When resultType is not nil the
// expression is promoted to it. values are bound to @0, @1, ...; a trailing
// map[string]any supplies additional named values.
func (p *Parser) Parse(params []*expr.Parameter, resultType *typesys.Type, text string, values ...any) (expr.Node, error) {
	s, err := p.newState(params, text, values)
	if err != nil {
		return nil, err
	}

	return s.parse(resultType)
}

// ParseLambda parses text into a lambda over params
func (p *Parser) ParseLambda(params []*expr.Parameter, resultType *typesys.Type, text string, values ...any) (*expr.Lambda, error) {
	body, err := p.Parse(params, resultType, text, values...)
	if err != nil {
		return nil, err
	}

	return expr.NewLambda(body, params...), nil
}

// ParseItLambda parses text into a lambda with a single implicit receiver of itType
func (p *Parser) ParseItLambda(itType *typesys.Type, resultType *typesys.Type, text string, values ...any) (*expr.Lambda, error) {
	return p.ParseLambda([]*expr.Parameter{NewParameter("", itType)}, resultType, text, values...)
}

// ParseOrdering parses a comma-separated list of ordering keys, each optionally
// followed by asc, ascending, desc or descending.
func (p *Parser) ParseOrdering(params []*expr.Parameter, text string, values ...any) ([]Ordering, error) {
	s, err := p.newState(params, text, values)
	if err != nil {
		return nil, err
	}

	var orderings []Ordering

	for {
		e, err := s.parseExpression()
		if err != nil {
			return nil, err
		}

		ascending := true

		switch {
		case s.token.Is("asc") || s.token.Is("ascending"):
			if err := s.next(); err != nil {
				return nil, err
			}
		case s.token.Is("desc") || s.token.Is("descending"):
			if err := s.next(); err != nil {
				return nil, err
			}

			ascending = false
		}

		orderings = append(orderings, Ordering{Expr: e, Ascending: ascending})

		if s.token.Type != tokenizer.COMMA {
			break
		}

		if err := s.next(); err != nil {
			return nil, err
		}
	}

	if err := s.expect(tokenizer.EOF, "Syntax error"); err != nil {
		return nil, err
	}

	return orderings, nil
}

func (s *state) parse(resultType *typesys.Type) (expr.Node, error) {
	pos := s.token.Position

	e, err := s.parseExpression()
	if err != nil {
		return nil, err
	}

	if resultType != nil {
		promoted := s.promote(e, resultType, true)
		if promoted == nil {
			return nil, s.errorAt(errTypeMismatch, pos, "Expression of type '%s' expected", resultType.Name())
		}

		e = promoted
	}

	if err := s.expect(tokenizer.EOF, "Syntax error"); err != nil {
		return nil, err
	}

	return e, nil
}
