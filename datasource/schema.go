package datasource

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/shibukawa/dynquery/typesys"
)

// columnKind accumulates the values seen in one column
type columnKind struct {
	t        *typesys.Type
	nullable bool
	conflict bool
}

func (c *columnKind) observe(v any) {
	if v == nil {
		c.nullable = true
		return
	}

	t := valueType(v)

	switch {
	case c.conflict:
	case c.t == nil:
		c.t = t
	case c.t == t:
	case isNumber(c.t) && isNumber(t):
		c.t = widerNumber(c.t, t)
	default:
		c.conflict = true
	}
}

// result returns the column type. Columns holding values of unrelated types are
// Object; value-typed columns with missing cells are nullable.
func (c *columnKind) result() *typesys.Type {
	switch {
	case c.conflict:
		return typesys.Object
	case c.t == nil:
		return typesys.Object
	case c.nullable && c.t.IsValueType():
		return typesys.NullableOf(c.t)
	}

	return c.t
}

func valueType(v any) *typesys.Type {
	switch v.(type) {
	case bool:
		return typesys.Boolean
	case int64:
		return typesys.Int64
	case float64:
		return typesys.Double
	case decimal.Decimal:
		return typesys.Decimal
	case string:
		return typesys.String
	case time.Time:
		return typesys.DateTime
	}

	return typesys.Object
}

func isNumber(t *typesys.Type) bool {
	return t == typesys.Int64 || t == typesys.Double || t == typesys.Decimal
}

func widerNumber(a, b *typesys.Type) *typesys.Type {
	if a == typesys.Decimal || b == typesys.Decimal {
		return typesys.Decimal
	}

	return typesys.Double
}

// convertCell converts a cell to the runtime representation of column type t
func convertCell(v any, t *typesys.Type) any {
	if v == nil {
		return nil
	}

	switch t.NonNullable() {
	case typesys.Double:
		if i, ok := v.(int64); ok {
			return float64(i)
		}
	case typesys.Decimal:
		switch x := v.(type) {
		case int64:
			return decimal.NewFromInt(x)
		case float64:
			return decimal.NewFromFloat(x)
		case string:
			if d, err := decimal.NewFromString(x); err == nil {
				return d
			}
		}
	}

	return v
}

// propertyName turns a column name into an identifier usable in expressions
func propertyName(column string) string {
	var b strings.Builder

	for i, r := range strings.TrimSpace(column) {
		switch {
		case r == '_' || unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteByte('_')
			}

			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	if b.Len() == 0 {
		return "_"
	}

	return b.String()
}
