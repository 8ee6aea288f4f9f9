package parser

import (
	"github.com/shibukawa/dynquery/expr"
	"github.com/shibukawa/dynquery/tokenizer"
	"github.com/shibukawa/dynquery/typesys"
)

// parseExpression parses ?: conditionals
func (s *state) parseExpression() (expr.Node, error) {
	pos := s.token.Position

	e, err := s.parseLogicalOr()
	if err != nil {
		return nil, err
	}

	if s.token.Type != tokenizer.QUESTION {
		return e, nil
	}

	if err := s.next(); err != nil {
		return nil, err
	}

	ifTrue, err := s.parseExpression()
	if err != nil {
		return nil, err
	}

	if err := s.skip(tokenizer.COLON, "':' expected"); err != nil {
		return nil, err
	}

	ifFalse, err := s.parseExpression()
	if err != nil {
		return nil, err
	}

	return s.conditional(e, ifTrue, ifFalse, pos)
}

// parseLogicalOr parses ||, or
func (s *state) parseLogicalOr() (expr.Node, error) {
	left, err := s.parseLogicalAnd()
	if err != nil {
		return nil, err
	}

	for s.token.Type == tokenizer.DOUBLE_BAR || s.token.Is("or") {
		op := s.token

		if err := s.next(); err != nil {
			return nil, err
		}

		right, err := s.parseLogicalAnd()
		if err != nil {
			return nil, err
		}

		if left, right, err = s.promoteOperands(typesys.LogicalFamily, op, left, right); err != nil {
			return nil, err
		}

		left = expr.Reduce(&expr.Binary{Op: expr.OrElse, Left: left, Right: right, T: left.Type()})
	}

	return left, nil
}

// parseLogicalAnd parses &&, and
func (s *state) parseLogicalAnd() (expr.Node, error) {
	left, err := s.parseComparison()
	if err != nil {
		return nil, err
	}

	for s.token.Type == tokenizer.DOUBLE_AMPERSAND || s.token.Is("and") {
		op := s.token

		if err := s.next(); err != nil {
			return nil, err
		}

		right, err := s.parseComparison()
		if err != nil {
			return nil, err
		}

		if left, right, err = s.promoteOperands(typesys.LogicalFamily, op, left, right); err != nil {
			return nil, err
		}

		left = expr.Reduce(&expr.Binary{Op: expr.AndAlso, Left: left, Right: right, T: left.Type()})
	}

	return left, nil
}

var comparisonOps = map[tokenizer.TokenType]expr.BinaryOp{
	tokenizer.EQUAL:             expr.Equal,
	tokenizer.DOUBLE_EQUAL:      expr.Equal,
	tokenizer.EXCLAMATION_EQUAL: expr.NotEqual,
	tokenizer.LESS_GREATER:      expr.NotEqual,
	tokenizer.GREATER_THAN:      expr.GreaterThan,
	tokenizer.GREATER_EQUAL:     expr.GreaterThanOrEqual,
	tokenizer.LESS_THAN:         expr.LessThan,
	tokenizer.LESS_EQUAL:        expr.LessThanOrEqual,
}

// parseComparison parses =, ==, !=, <>, >, >=, <, <=
func (s *state) parseComparison() (expr.Node, error) {
	left, err := s.parseAdditive()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := comparisonOps[s.token.Type]
		if !ok {
			return left, nil
		}

		token := s.token

		if err := s.next(); err != nil {
			return nil, err
		}

		right, err := s.parseAdditive()
		if err != nil {
			return nil, err
		}

		if left, right, err = s.comparisonOperands(op, token, left, right); err != nil {
			return nil, err
		}

		left = s.comparison(op, left, right)
	}
}

func (s *state) comparisonOperands(op expr.BinaryOp, token tokenizer.Token, left, right expr.Node) (expr.Node, expr.Node, error) {
	isEquality := op == expr.Equal || op == expr.NotEqual
	lt, rt := left.Type(), right.Type()

	switch {
	case isEquality && !lt.IsValueType() && !rt.IsValueType():
		if lt == rt {
			return left, right, nil
		}

		switch {
		case typesys.IsAssignableFrom(lt, rt):
			right = expr.Reduce(&expr.Convert{Operand: right, T: lt})
		case typesys.IsAssignableFrom(rt, lt):
			left = expr.Reduce(&expr.Convert{Operand: left, T: rt})
		default:
			return nil, nil, s.incompatibleOperands(token, left, right)
		}

		return left, right, nil
	case lt.IsEnum() || rt.IsEnum():
		if lt == rt {
			return left, right, nil
		}

		if e := s.promote(right, lt, true); e != nil {
			return left, e, nil
		}

		if e := s.promote(left, rt, true); e != nil {
			return e, right, nil
		}

		return nil, nil, s.incompatibleOperands(token, left, right)
	}

	family := typesys.RelationalFamily
	if isEquality {
		family = typesys.EqualityFamily
	}

	return s.promoteOperands(family, token, left, right)
}

// comparison builds a comparison node. Strings are ordered through String.Compare.
func (s *state) comparison(op expr.BinaryOp, left, right expr.Node) expr.Node {
	if !(op == expr.Equal || op == expr.NotEqual) && left.Type() == typesys.String {
		left = s.staticCall(typesys.String, "Compare", left, right)
		right = &expr.Constant{Value: int32(0), T: typesys.Int32}
	}

	return expr.Reduce(&expr.Binary{Op: op, Left: left, Right: right, T: typesys.Boolean})
}

// parseAdditive parses +, -, &
func (s *state) parseAdditive() (expr.Node, error) {
	left, err := s.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for {
		token := s.token

		switch token.Type {
		case tokenizer.PLUS, tokenizer.MINUS, tokenizer.AMPERSAND:
		default:
			return left, nil
		}

		if err := s.next(); err != nil {
			return nil, err
		}

		right, err := s.parseMultiplicative()
		if err != nil {
			return nil, err
		}

		switch {
		case token.Type == tokenizer.AMPERSAND,
			token.Type == tokenizer.PLUS && (left.Type() == typesys.String || right.Type() == typesys.String):
			left = s.concat(left, right)
		case token.Type == tokenizer.PLUS:
			if left, right, err = s.promoteOperands(typesys.AddFamily, token, left, right); err != nil {
				return nil, err
			}

			left = arithmetic(expr.Add, left, right)
		default:
			if left, right, err = s.promoteOperands(typesys.SubtractFamily, token, left, right); err != nil {
				return nil, err
			}

			left = arithmetic(expr.Subtract, left, right)
		}
	}
}

var multiplicativeOps = map[tokenizer.TokenType]expr.BinaryOp{
	tokenizer.ASTERISK: expr.Multiply,
	tokenizer.SLASH:    expr.Divide,
	tokenizer.PERCENT:  expr.Modulo,
}

// parseMultiplicative parses *, /, %, mod
func (s *state) parseMultiplicative() (expr.Node, error) {
	left, err := s.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := multiplicativeOps[s.token.Type]
		if !ok && s.token.Is("mod") {
			op, ok = expr.Modulo, true
		}

		if !ok {
			return left, nil
		}

		token := s.token

		if err := s.next(); err != nil {
			return nil, err
		}

		right, err := s.parseUnary()
		if err != nil {
			return nil, err
		}

		if left, right, err = s.promoteOperands(typesys.ArithmeticFamily, token, left, right); err != nil {
			return nil, err
		}

		left = arithmetic(op, left, right)
	}
}

// arithmetic builds an arithmetic node over promoted operands.
// Subtracting two dates yields a time span.
func arithmetic(op expr.BinaryOp, left, right expr.Node) expr.Node {
	t := left.Type()

	if op == expr.Subtract && t.NonNullable() == typesys.DateTime && right.Type().NonNullable() == typesys.DateTime {
		if t.IsNullable() {
			t = typesys.NullableOf(typesys.TimeSpan)
		} else {
			t = typesys.TimeSpan
		}
	}

	return expr.Reduce(&expr.Binary{Op: op, Left: left, Right: right, T: t})
}

// parseUnary parses -, !, not. A minus directly before a numeric literal becomes part of the literal.
func (s *state) parseUnary() (expr.Node, error) {
	token := s.token

	if token.Type != tokenizer.MINUS && token.Type != tokenizer.EXCLAMATION && !token.Is("not") {
		return s.parsePrimary()
	}

	if err := s.next(); err != nil {
		return nil, err
	}

	if token.Type == tokenizer.MINUS && (s.token.Type == tokenizer.INTEGER || s.token.Type == tokenizer.REAL) {
		s.token.Value = "-" + s.token.Value
		s.token.Position = token.Position

		return s.parsePrimary()
	}

	operand, err := s.parseUnary()
	if err != nil {
		return nil, err
	}

	if token.Type == tokenizer.MINUS {
		if operand, err = s.promoteOperand(typesys.NegationFamily, token, operand); err != nil {
			return nil, err
		}

		return expr.Reduce(&expr.Unary{Op: expr.Negate, Operand: operand, T: operand.Type()}), nil
	}

	if operand, err = s.promoteOperand(typesys.NotFamily, token, operand); err != nil {
		return nil, err
	}

	return expr.Reduce(&expr.Unary{Op: expr.Not, Operand: operand, T: operand.Type()}), nil
}

// concat builds String.Concat(Object, Object). Characters are converted through Char.ToString
// so that they concatenate as text.
func (s *state) concat(left, right expr.Node) expr.Node {
	return s.staticCall(typesys.String, "Concat", s.asObject(left), s.asObject(right))
}

func (s *state) asObject(n expr.Node) expr.Node {
	switch n.Type() {
	case typesys.Object:
		return n
	case typesys.Char:
		n = s.instanceCall(n, "ToString")
	}

	return expr.Reduce(&expr.Convert{Operand: n, T: typesys.Object})
}

// staticCall calls the static method of t whose parameter types are those of args
func (s *state) staticCall(t *typesys.Type, name string, args ...expr.Node) expr.Node {
	return expr.Reduce(&expr.Call{Method: s.exactMethod(t, name, true, args), Args: args})
}

// instanceCall calls the instance method of the target type whose parameter types are those of args
func (s *state) instanceCall(target expr.Node, name string, args ...expr.Node) expr.Node {
	return expr.Reduce(&expr.Call{Target: target, Method: s.exactMethod(target.Type(), name, false, args), Args: args})
}

func (s *state) exactMethod(t *typesys.Type, name string, static bool, args []expr.Node) *typesys.Method {
	for _, group := range s.catalog.FindMethods(t, name, static) {
	candidates:
		for _, m := range group {
			if len(m.Params) != len(args) {
				continue
			}

			for i, p := range m.Params {
				if p != args[i].Type() {
					continue candidates
				}
			}

			return m
		}
	}

	panic("parser: missing predefined method " + t.Name() + "." + name)
}
