package parser

import (
	"strconv"

	"github.com/shibukawa/dynquery"
	"github.com/shibukawa/dynquery/expr"
	"github.com/shibukawa/dynquery/tokenizer"
	"github.com/shibukawa/dynquery/typesys"
)

// Error kinds reported by the parser
var (
	errSyntax            = dynquery.ErrSyntax
	errUnknownIdentifier = dynquery.ErrUnknownIdentifier
	errDuplicate         = dynquery.ErrDuplicateIdentifier
	errNoApplicable      = dynquery.ErrNoApplicableOverload
	errAmbiguous         = dynquery.ErrAmbiguousOverload
	errType              = dynquery.ErrType
	errTypeMismatch      = dynquery.ErrTypeMismatch
	errIncompatible      = dynquery.ErrIncompatibleOperands
	errCannotConvert     = dynquery.ErrCannotConvert
	errMissingAs         = dynquery.ErrMissingAsClause
	errLiteral           = dynquery.ErrLiteralFormat

	errConditionalTest         = dynquery.ErrConditionalTestNotBoolean
	errAmbiguousConditional    = dynquery.ErrAmbiguousConditionalType
	errIncompatibleConditional = dynquery.ErrIncompatibleConditionalTypes
)

// state is the scan and scope state of one parse call
type state struct {
	*Parser

	tok   *tokenizer.Tokenizer
	token tokenizer.Token

	// symbols holds named parameters and @N values keyed by folded name
	symbols map[string]any
	// externals holds the entries of a trailing map value keyed by folded name
	externals map[string]any
	// literals maps literal constants to their source text
	literals map[*expr.Constant]string

	it *expr.Parameter
}

func (p *Parser) newState(params []*expr.Parameter, text string, values []any) (*state, error) {
	s := &state{
		Parser:   p,
		tok:      tokenizer.New(text),
		symbols:  make(map[string]any),
		literals: make(map[*expr.Constant]string),
	}

	if err := s.processParameters(params); err != nil {
		return nil, err
	}

	if err := s.processValues(values); err != nil {
		return nil, err
	}

	if err := s.next(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *state) processParameters(params []*expr.Parameter) error {
	for _, p := range params {
		if p.Name != "" {
			if err := s.addSymbol(p.Name, p); err != nil {
				return err
			}
		}
	}

	if len(params) == 1 && params[0].Name == "" {
		s.it = params[0]
	}

	return nil
}

func (s *state) processValues(values []any) error {
	for i, v := range values {
		if ext, ok := v.(map[string]any); ok && i == len(values)-1 {
			s.externals = make(map[string]any, len(ext))
			for name, value := range ext {
				s.externals[typesys.Fold(name)] = value
			}

			continue
		}

		if err := s.addSymbol("@"+strconv.Itoa(i), v); err != nil {
			return err
		}
	}

	return nil
}

func (s *state) addSymbol(name string, value any) error {
	key := typesys.Fold(name)
	if _, ok := s.symbols[key]; ok {
		return dynquery.NewParseError(errDuplicate, 0, "The identifier '%s' was defined more than once", name)
	}

	s.symbols[key] = value

	return nil
}

func (s *state) lookup(name string) (any, bool) {
	key := typesys.Fold(name)

	if v, ok := s.symbols[key]; ok {
		return v, true
	}

	if s.externals != nil {
		v, ok := s.externals[key]
		return v, ok
	}

	return nil, false
}

// next advances to the next token
func (s *state) next() error {
	token, err := s.tok.Next()
	if err != nil {
		return err
	}

	s.token = token

	return nil
}

// expect fails with a syntax error unless the current token has type tt
func (s *state) expect(tt tokenizer.TokenType, message string) error {
	if s.token.Type != tt {
		return s.errorf(errSyntax, "%s", message)
	}

	return nil
}

// skip checks the current token and advances past it
func (s *state) skip(tt tokenizer.TokenType, message string) error {
	if err := s.expect(tt, message); err != nil {
		return err
	}

	return s.next()
}

// identifier returns the current identifier without its '@' escape
func (s *state) identifier() (string, error) {
	if err := s.expect(tokenizer.IDENTIFIER, "Identifier expected"); err != nil {
		return "", err
	}

	id := s.token.Value
	if len(id) > 1 && id[0] == '@' {
		id = id[1:]
	}

	return id, nil
}

func (s *state) errorf(kind error, format string, args ...any) error {
	return s.errorAt(kind, s.token.Position, format, args...)
}

func (s *state) errorAt(kind error, pos int, format string, args ...any) error {
	return dynquery.NewParseError(kind, pos, format, args...)
}

// literal creates a constant and remembers its source text for later re-typing
func (s *state) literal(value any, t *typesys.Type, text string) *expr.Constant {
	c := &expr.Constant{Value: value, T: t}
	s.literals[c] = text

	return c
}
