package expr

import (
	"context"
	"reflect"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/dynquery/typesys"
)

func i32(v int32) *Constant { return &Constant{Value: v, T: typesys.Int32} }

func str(v string) *Constant { return &Constant{Value: v, T: typesys.String} }

func nullOf(t *typesys.Type) *Constant { return &Constant{Value: nil, T: t} }

func TestEvalArithmetic(t *testing.T) {
	tests := []struct {
		name    string
		node    Node
		want    any
		wantErr error
	}{
		{
			name: "add",
			node: &Binary{Op: Add, Left: i32(2), Right: i32(3), T: typesys.Int32},
			want: int32(5),
		},
		{
			name: "nested",
			node: &Binary{Op: Multiply, Left: &Binary{Op: Subtract, Left: i32(10), Right: i32(4), T: typesys.Int32}, Right: i32(3), T: typesys.Int32},
			want: int32(18),
		},
		{
			name:    "divide by zero",
			node:    &Binary{Op: Divide, Left: i32(1), Right: i32(0), T: typesys.Int32},
			wantErr: ErrDivideByZero,
		},
		{
			name: "lifted add with null",
			node: &Binary{Op: Add, Left: nullOf(typesys.NullableOf(typesys.Int32)), Right: &Constant{Value: int32(1), T: typesys.NullableOf(typesys.Int32)}, T: typesys.NullableOf(typesys.Int32)},
			want: nil,
		},
		{
			name: "negate",
			node: &Unary{Op: Negate, Operand: i32(4), T: typesys.Int32},
			want: int32(-4),
		},
		{
			name: "negate null",
			node: &Unary{Op: Negate, Operand: nullOf(typesys.NullableOf(typesys.Int32)), T: typesys.NullableOf(typesys.Int32)},
			want: nil,
		},
		{
			name: "not",
			node: &Unary{Op: Not, Operand: &Constant{Value: true, T: typesys.Boolean}, T: typesys.Boolean},
			want: false,
		},
		{
			name:    "checked conversion",
			node:    &Convert{Operand: i32(300), T: typesys.Byte, Checked: true},
			wantErr: ErrOverflow,
		},
		{
			name: "conversion",
			node: &Convert{Operand: i32(42), T: typesys.Int64},
			want: int64(42),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Eval(context.Background(), tt.node, nil)
			if tt.wantErr != nil {
				assert.IsError(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalComparison(t *testing.T) {
	nullable := typesys.NullableOf(typesys.Int32)
	nan := &Constant{Value: 0.0, T: typesys.Double}
	nanNode := &Binary{Op: Divide, Left: nan, Right: nan, T: typesys.Double}

	tests := []struct {
		name string
		node Node
		want any
	}{
		{"less", &Binary{Op: LessThan, Left: i32(1), Right: i32(2), T: typesys.Boolean}, true},
		{"greater or equal", &Binary{Op: GreaterThanOrEqual, Left: i32(1), Right: i32(2), T: typesys.Boolean}, false},
		{"null ordering is false", &Binary{Op: LessThan, Left: nullOf(nullable), Right: &Constant{Value: int32(1), T: nullable}, T: typesys.Boolean}, false},
		{"null ordering inverted is false", &Binary{Op: GreaterThanOrEqual, Left: nullOf(nullable), Right: &Constant{Value: int32(1), T: nullable}, T: typesys.Boolean}, false},
		{"NaN ordering is false", &Binary{Op: LessThanOrEqual, Left: nanNode, Right: nanNode, T: typesys.Boolean}, false},
		{"null equals null", &Binary{Op: Equal, Left: nullOf(nullable), Right: nullOf(nullable), T: typesys.Boolean}, true},
		{"null differs from value", &Binary{Op: NotEqual, Left: nullOf(nullable), Right: &Constant{Value: int32(1), T: nullable}, T: typesys.Boolean}, true},
		{"strings by value", &Binary{Op: Equal, Left: str("ab"), Right: str("a" + "b"), T: typesys.Boolean}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Eval(context.Background(), tt.node, nil)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalReferenceEquality(t *testing.T) {
	type box struct{ v int }

	a, b := &box{1}, &box{1}

	left := &Constant{Value: a, T: typesys.Object}

	got, err := Eval(context.Background(), &Binary{Op: Equal, Left: left, Right: &Constant{Value: a, T: typesys.Object}, T: typesys.Boolean}, nil)
	assert.NoError(t, err)
	assert.Equal(t, any(true), got)

	got, err = Eval(context.Background(), &Binary{Op: Equal, Left: left, Right: &Constant{Value: b, T: typesys.Object}, T: typesys.Boolean}, nil)
	assert.NoError(t, err)
	assert.Equal(t, any(false), got)
}

func TestEvalLogical(t *testing.T) {
	nb := typesys.NullableOf(typesys.Boolean)
	failing := &Binary{Op: Divide, Left: i32(1), Right: i32(0), T: typesys.Int32}
	boom := &Binary{Op: Equal, Left: failing, Right: i32(0), T: typesys.Boolean}

	t.Run("short circuit", func(t *testing.T) {
		got, err := Eval(context.Background(), &Binary{Op: AndAlso, Left: &Constant{Value: false, T: typesys.Boolean}, Right: boom, T: typesys.Boolean}, nil)
		assert.NoError(t, err)
		assert.Equal(t, any(false), got)

		got, err = Eval(context.Background(), &Binary{Op: OrElse, Left: &Constant{Value: true, T: typesys.Boolean}, Right: boom, T: typesys.Boolean}, nil)
		assert.NoError(t, err)
		assert.Equal(t, any(true), got)

		_, err = Eval(context.Background(), &Binary{Op: AndAlso, Left: &Constant{Value: true, T: typesys.Boolean}, Right: boom, T: typesys.Boolean}, nil)
		assert.IsError(t, err, ErrDivideByZero)
	})

	t.Run("null and false", func(t *testing.T) {
		got, err := Eval(context.Background(), &Binary{Op: AndAlso, Left: nullOf(nb), Right: &Constant{Value: false, T: nb}, T: nb}, nil)
		assert.NoError(t, err)
		assert.Equal(t, any(false), got)
	})

	t.Run("null or false", func(t *testing.T) {
		got, err := Eval(context.Background(), &Binary{Op: OrElse, Left: nullOf(nb), Right: &Constant{Value: false, T: nb}, T: nb}, nil)
		assert.NoError(t, err)
		assert.Equal(t, nil, got)
	})
}

func TestEvalLambda(t *testing.T) {
	x := NewParameter("x", typesys.Int32)
	y := NewParameter("y", typesys.Int32)

	// x => (y => x * y)
	inner := NewLambda(&Binary{Op: Multiply, Left: x, Right: y, T: typesys.Int32}, y)
	outer := NewLambda(&Invoke{Lambda: inner, Args: []Node{i32(3)}, T: typesys.Int32}, x)

	f := Compile(context.Background(), outer)

	got, err := f(int32(5))
	assert.NoError(t, err)
	assert.Equal(t, any(int32(15)), got)

	_, err = f()
	assert.IsError(t, err, ErrInvalidOperation)

	_, err = Eval(context.Background(), x, nil)
	assert.IsError(t, err, ErrInvalidOperation)

	got, err = Eval(context.Background(), x, NewEnv([]*Parameter{x}, []any{int32(9)}))
	assert.NoError(t, err)
	assert.Equal(t, any(int32(9)), got)
}

func TestEvalCancellation(t *testing.T) {
	x := NewParameter("x", typesys.Int32)
	f := func() typesys.Func {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		return Compile(ctx, NewLambda(x, x))
	}()

	_, err := f(int32(1))
	assert.IsError(t, err, context.Canceled)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Eval(ctx, i32(1), nil)
	assert.IsError(t, err, context.Canceled)
}

func TestEvalConditional(t *testing.T) {
	b := NewParameter("b", typesys.Boolean)
	n := &Conditional{Test: b, IfTrue: str("yes"), IfFalse: str("no"), T: typesys.String}

	got, err := Eval(context.Background(), n, NewEnv([]*Parameter{b}, []any{true}))
	assert.NoError(t, err)
	assert.Equal(t, any("yes"), got)

	got, err = Eval(context.Background(), n, NewEnv([]*Parameter{b}, []any{false}))
	assert.NoError(t, err)
	assert.Equal(t, any("no"), got)
}

func TestEvalArrayIndex(t *testing.T) {
	arr := typesys.DefaultCatalog.MustTypeOf(reflect.TypeFor[[]string]())
	a := NewParameter("a", arr)
	n := &Binary{Op: ArrayIndex, Left: a, Right: i32(1), T: typesys.String}

	got, err := Eval(context.Background(), n, NewEnv([]*Parameter{a}, []any{[]string{"x", "y"}}))
	assert.NoError(t, err)
	assert.Equal(t, any("y"), got)

	got, err = Eval(context.Background(), n, NewEnv([]*Parameter{a}, []any{[]any{"p", "q"}}))
	assert.NoError(t, err)
	assert.Equal(t, any("q"), got)

	_, err = Eval(context.Background(), n, NewEnv([]*Parameter{a}, []any{[]string{"x"}}))
	assert.IsError(t, err, ErrOutOfRange)

	_, err = Eval(context.Background(), n, NewEnv([]*Parameter{a}, []any{nil}))
	assert.IsError(t, err, ErrNullReference)
}

func TestEvalNullReceiver(t *testing.T) {
	s := NewParameter("s", typesys.String)
	length, ok := typesys.DefaultCatalog.FindPropertyOrField(typesys.String, "Length", false)
	assert.True(t, ok)

	n := &MemberAccess{Target: s, Member: length}

	got, err := Eval(context.Background(), n, NewEnv([]*Parameter{s}, []any{"four"}))
	assert.NoError(t, err)
	assert.Equal(t, any(int32(4)), got)

	_, err = Eval(context.Background(), n, NewEnv([]*Parameter{s}, []any{nil}))
	assert.IsError(t, err, ErrNullReference)

	q := NewParameter("q", typesys.NullableOf(typesys.Int32))
	hasValue, ok := typesys.DefaultCatalog.FindPropertyOrField(q.T, "HasValue", false)
	assert.True(t, ok)

	got, err = Eval(context.Background(), &MemberAccess{Target: q, Member: hasValue}, NewEnv([]*Parameter{q}, []any{nil}))
	assert.NoError(t, err)
	assert.Equal(t, any(false), got)
}
