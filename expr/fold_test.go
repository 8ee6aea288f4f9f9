package expr

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/dynquery/typesys"
)

func TestFold(t *testing.T) {
	x := NewParameter("x", typesys.Int32)

	t.Run("constant subtree", func(t *testing.T) {
		n := &Binary{Op: Add, Left: x, Right: &Binary{Op: Multiply, Left: i32(2), Right: i32(3), T: typesys.Int32}, T: typesys.Int32}

		folded := Fold(n)
		assert.Equal(t, "(x + 6)", folded.String())
	})

	t.Run("whole tree", func(t *testing.T) {
		n := &Unary{Op: Negate, Operand: &Binary{Op: Subtract, Left: i32(2), Right: i32(7), T: typesys.Int32}, T: typesys.Int32}

		c, ok := Fold(n).(*Constant)
		assert.True(t, ok)
		assert.Equal(t, any(int32(5)), c.Value)
		assert.Equal(t, typesys.Int32, c.T)
	})

	t.Run("conditional with constant test", func(t *testing.T) {
		n := &Conditional{
			Test:    &Binary{Op: LessThan, Left: i32(1), Right: i32(2), T: typesys.Boolean},
			IfTrue:  x,
			IfFalse: i32(0),
			T:       typesys.Int32,
		}

		assert.Equal(t, Node(x), Fold(n))
	})

	t.Run("errors are kept for run time", func(t *testing.T) {
		n := &Binary{Op: Divide, Left: i32(1), Right: i32(0), T: typesys.Int32}

		_, ok := Fold(n).(*Binary)
		assert.True(t, ok)
	})

	t.Run("array index is not folded", func(t *testing.T) {
		arr := &Constant{Value: []any{"a"}, T: typesys.ArrayOf(typesys.String)}
		n := &Binary{Op: ArrayIndex, Left: arr, Right: i32(0), T: typesys.String}

		_, ok := Fold(n).(*Binary)
		assert.True(t, ok)
	})

	t.Run("pure calls fold", func(t *testing.T) {
		toUpper := findMethod(t, typesys.String, "ToUpper", false)

		c, ok := Fold(&Call{Target: str("abc"), Method: toUpper}).(*Constant)
		assert.True(t, ok)
		assert.Equal(t, any("ABC"), c.Value)
	})

	t.Run("volatile calls stay", func(t *testing.T) {
		newGuid := findMethod(t, typesys.Guid, "NewGuid", true)

		_, ok := Fold(&Call{Method: newGuid}).(*Call)
		assert.True(t, ok)
	})

	t.Run("inside lambdas", func(t *testing.T) {
		l := NewLambda(&Binary{Op: Add, Left: x, Right: &Binary{Op: Add, Left: i32(1), Right: i32(1), T: typesys.Int32}, T: typesys.Int32}, x)

		assert.Equal(t, "x => (x + 2)", Fold(l).String())
	})
}

func TestReduceIsShallow(t *testing.T) {
	x := NewParameter("x", typesys.Int32)

	inner := &Binary{Op: Add, Left: i32(1), Right: i32(1), T: typesys.Int32}
	n := &Binary{Op: Add, Left: x, Right: inner, T: typesys.Int32}

	assert.Equal(t, Node(n), Reduce(n))

	c, ok := Reduce(inner).(*Constant)
	assert.True(t, ok)
	assert.Equal(t, any(int32(2)), c.Value)
}

func findMethod(t *testing.T, typ *typesys.Type, name string, static bool) *typesys.Method {
	t.Helper()

	for _, group := range typesys.DefaultCatalog.FindMethods(typ, name, static) {
		for _, m := range group {
			if len(m.Params) == 0 {
				return m
			}
		}
	}

	t.Fatalf("no method %s.%s", typ.Name(), name)

	return nil
}
