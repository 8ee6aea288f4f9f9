package parser

import (
	"github.com/shibukawa/dynquery/expr"
	"github.com/shibukawa/dynquery/tokenizer"
	"github.com/shibukawa/dynquery/typesys"
)

// nullLiteral is the constant produced by the null keyword. It converts to any
// reference or nullable type.
var nullLiteral = &expr.Constant{Value: nil, T: typesys.Object}

// promote converts e to t implicitly. exact forces a Convert node even where a
// reference conversion would not need one. It returns nil when no implicit conversion exists.
func (s *state) promote(e expr.Node, t *typesys.Type, exact bool) expr.Node {
	if e.Type() == t {
		return e
	}

	if c, ok := e.(*expr.Constant); ok {
		if c == nullLiteral {
			if !t.IsValueType() || t.IsNullable() {
				return &expr.Constant{Value: nil, T: t}
			}
		} else if text, ok := s.literals[c]; ok {
			if v, ok := retypeLiteral(c, text, t.NonNullable()); ok {
				return &expr.Constant{Value: v, T: t}
			}
		}
	}

	if typesys.IsCompatibleWith(e.Type(), t) {
		if t.IsValueType() || exact {
			return expr.Reduce(&expr.Convert{Operand: e, T: t})
		}

		return e
	}

	return nil
}

// retypeLiteral re-reads the source text of a literal as target. Integer literals
// become any numeric type that holds them, real literals may become decimals and
// string literals may name an enum constant.
func retypeLiteral(c *expr.Constant, text string, target *typesys.Type) (any, bool) {
	switch c.T {
	case typesys.Int32, typesys.UInt32, typesys.Int64, typesys.UInt64:
		if target.Kind() == typesys.KindChar || !typesys.IsNumeric(target) {
			return nil, false
		}

		v, err := typesys.Parse(text, target)

		return v, err == nil
	case typesys.Double:
		if target != typesys.Decimal {
			return nil, false
		}

		v, err := typesys.Parse(text, target)

		return v, err == nil
	case typesys.String:
		return target.EnumValue(text)
	}

	return nil, false
}

// promoteOperands resolves a binary operator against its signature family and
// promotes both operands to the selected signature
func (s *state) promoteOperands(family typesys.Family, op tokenizer.Token, left, right expr.Node) (expr.Node, expr.Node, error) {
	args := []expr.Node{left, right}

	if n, _ := s.findSignature(family, "F", args); n != 1 {
		return nil, nil, s.incompatibleOperands(op, left, right)
	}

	return args[0], args[1], nil
}

// promoteOperand resolves a unary operator against its signature family
func (s *state) promoteOperand(family typesys.Family, op tokenizer.Token, operand expr.Node) (expr.Node, error) {
	args := []expr.Node{operand}

	if n, _ := s.findSignature(family, "F", args); n != 1 {
		return nil, s.errorAt(errIncompatible, op.Position, "Operator '%s' incompatible with operand type '%s'",
			op.Value, operand.Type().Name())
	}

	return args[0], nil
}

func (s *state) incompatibleOperands(op tokenizer.Token, left, right expr.Node) error {
	return s.errorAt(errIncompatible, op.Position, "Operator '%s' incompatible with operand types '%s' and '%s'",
		op.Value, left.Type().Name(), right.Type().Name())
}

// conditional reconciles the branch types of ?: and iif
func (s *state) conditional(test, ifTrue, ifFalse expr.Node, pos int) (expr.Node, error) {
	if test.Type() != typesys.Boolean {
		return nil, s.errorAt(errConditionalTest, pos, "The first expression must be of type 'Boolean'")
	}

	if ifTrue.Type() != ifFalse.Type() {
		var trueAsFalse, falseAsTrue expr.Node

		if ifFalse != nullLiteral {
			trueAsFalse = s.promote(ifTrue, ifFalse.Type(), true)
		}

		if ifTrue != nullLiteral {
			falseAsTrue = s.promote(ifFalse, ifTrue.Type(), true)
		}

		switch {
		case trueAsFalse != nil && falseAsTrue == nil:
			ifTrue = trueAsFalse
		case falseAsTrue != nil && trueAsFalse == nil:
			ifFalse = falseAsTrue
		case trueAsFalse != nil:
			return nil, s.errorAt(errAmbiguousConditional, pos, "Both of the types '%s' and '%s' convert to the other",
				branchName(ifTrue), branchName(ifFalse))
		default:
			return nil, s.errorAt(errIncompatibleConditional, pos, "Neither of the types '%s' and '%s' converts to the other",
				branchName(ifTrue), branchName(ifFalse))
		}
	}

	if c, ok := test.(*expr.Constant); ok {
		if c.Value == true {
			return ifTrue, nil
		}

		if c.Value == false {
			return ifFalse, nil
		}
	}

	return &expr.Conditional{Test: test, IfTrue: ifTrue, IfFalse: ifFalse, T: ifTrue.Type()}, nil
}

func branchName(e expr.Node) string {
	if e == nullLiteral {
		return "null"
	}

	return e.Type().Name()
}

// conversion builds the explicit conversion T(e)
func (s *state) conversion(e expr.Node, t *typesys.Type, pos int) (expr.Node, error) {
	et := e.Type()
	if et == t {
		return e, nil
	}

	if et.IsValueType() && t.IsValueType() {
		if (et.IsNullable() || t.IsNullable()) && et.NonNullable() == t.NonNullable() {
			return expr.Reduce(&expr.Convert{Operand: e, T: t}), nil
		}

		if (typesys.IsNumeric(et) || et.IsEnum()) && (typesys.IsNumeric(t) || t.IsEnum()) {
			return expr.Reduce(&expr.Convert{Operand: e, T: t, Checked: true}), nil
		}
	}

	if typesys.IsAssignableFrom(et, t) || typesys.IsAssignableFrom(t, et) || et.IsInterface() || t.IsInterface() {
		return expr.Reduce(&expr.Convert{Operand: e, T: t}), nil
	}

	return nil, s.errorAt(errCannotConvert, pos, "A value of type '%s' cannot be converted to type '%s'", et.Name(), t.Name())
}
