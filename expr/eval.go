package expr

import (
	"context"
	"fmt"
	"math"
	"reflect"

	"github.com/shibukawa/dynquery/typesys"
)

// Env binds parameters to values. Environments chain so that lambdas capture their enclosing bindings.
type Env struct {
	parent *Env
	params []*Parameter
	values []any
}

// NewEnv creates a root environment binding params to values position by position
func NewEnv(params []*Parameter, values []any) *Env {
	return (*Env)(nil).With(params, values)
}

// With returns a child environment. The receiver may be nil.
func (e *Env) With(params []*Parameter, values []any) *Env {
	return &Env{parent: e, params: params, values: values}
}

func (e *Env) lookup(p *Parameter) (any, bool) {
	for s := e; s != nil; s = s.parent {
		for i, q := range s.params {
			if q == p && i < len(s.values) {
				return s.values[i], true
			}
		}
	}

	return nil, false
}

type evaluator struct {
	ctx context.Context
}

// Eval evaluates n. Lambdas evaluate to typesys.Func values that observe ctx cancellation on every call.
func Eval(ctx context.Context, n Node, env *Env) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return evaluator{ctx: ctx}.eval(n, env)
}

// Compile returns the function value of a lambda
func Compile(ctx context.Context, l *Lambda) typesys.Func {
	return evaluator{ctx: ctx}.compile(l, nil)
}

func (e evaluator) compile(l *Lambda, env *Env) typesys.Func {
	return func(args ...any) (any, error) {
		if err := e.ctx.Err(); err != nil {
			return nil, err
		}

		if len(args) != len(l.Params) {
			return nil, fmt.Errorf("%w: lambda expects %d arguments, got %d", ErrInvalidOperation, len(l.Params), len(args))
		}

		return e.eval(l.Body, env.With(l.Params, args))
	}
}

func (e evaluator) evalAll(nodes []Node, env *Env) ([]any, error) {
	values := make([]any, len(nodes))

	for i, n := range nodes {
		v, err := e.eval(n, env)
		if err != nil {
			return nil, err
		}

		values[i] = v
	}

	return values, nil
}

// receiver evaluates the target of an instance member. Only nullable targets may be null.
func (e evaluator) receiver(target Node, env *Env) (any, error) {
	v, err := e.eval(target, env)
	if err != nil {
		return nil, err
	}

	if v == nil && !target.Type().IsNullable() {
		return nil, fmt.Errorf("%w: %s is null", ErrNullReference, target)
	}

	return v, nil
}

func (e evaluator) eval(n Node, env *Env) (any, error) {
	switch n := n.(type) {
	case *Constant:
		return n.Value, nil
	case *Parameter:
		v, ok := env.lookup(n)
		if !ok {
			return nil, fmt.Errorf("%w: parameter %s is not bound", ErrInvalidOperation, n.Name)
		}

		return v, nil
	case *MemberAccess:
		if n.Target == nil {
			return n.Member.Get(nil)
		}

		recv, err := e.receiver(n.Target, env)
		if err != nil {
			return nil, err
		}

		return n.Member.Get(recv)
	case *Call:
		var recv any

		if n.Target != nil {
			var err error
			if recv, err = e.receiver(n.Target, env); err != nil {
				return nil, err
			}
		}

		args, err := e.evalAll(n.Args, env)
		if err != nil {
			return nil, err
		}

		return n.Method.Invoke(recv, args)
	case *Unary:
		return e.unary(n, env)
	case *Binary:
		return e.binary(n, env)
	case *Conditional:
		test, err := e.eval(n.Test, env)
		if err != nil {
			return nil, err
		}

		b, ok := test.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: condition %s is not a boolean", ErrInvalidOperation, n.Test)
		}

		if b {
			return e.eval(n.IfTrue, env)
		}

		return e.eval(n.IfFalse, env)
	case *New:
		return e.construct(n, env)
	case *Convert:
		v, err := e.eval(n.Operand, env)
		if err != nil {
			return nil, err
		}

		return typesys.Cast(v, n.Operand.Type(), n.T)
	case *Invoke:
		f, err := e.eval(n.Lambda, env)
		if err != nil {
			return nil, err
		}

		fn, ok := f.(typesys.Func)
		if !ok || fn == nil {
			return nil, fmt.Errorf("%w: %s is not a function", ErrNullReference, n.Lambda)
		}

		args, err := e.evalAll(n.Args, env)
		if err != nil {
			return nil, err
		}

		return fn(args...)
	case *Lambda:
		return e.compile(n, env), nil
	}

	return nil, fmt.Errorf("%w: unknown node %T", ErrInvalidOperation, n)
}

func (e evaluator) construct(n *New, env *Env) (any, error) {
	if n.Constructor != nil {
		args, err := e.evalAll(n.Args, env)
		if err != nil {
			return nil, err
		}

		return n.Constructor.Invoke(nil, args)
	}

	inst, ok := n.T.NewInstance()
	if !ok {
		return nil, fmt.Errorf("%w: %s can not be instantiated", ErrInvalidOperation, n.T.Name())
	}

	for _, b := range n.Bindings {
		v, err := e.eval(b.Value, env)
		if err != nil {
			return nil, err
		}

		if err := b.Member.Set(inst, v); err != nil {
			return nil, err
		}
	}

	return inst, nil
}

func (e evaluator) unary(n *Unary, env *Env) (any, error) {
	v, err := e.eval(n.Operand, env)
	if err != nil || v == nil {
		return nil, err
	}

	if n.Op == Not {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: Not(%T)", ErrInvalidOperation, v)
		}

		return !b, nil
	}

	return typesys.Negate(v)
}

func (e evaluator) binary(n *Binary, env *Env) (any, error) {
	if n.Op == AndAlso || n.Op == OrElse {
		return e.logical(n, env)
	}

	l, err := e.eval(n.Left, env)
	if err != nil {
		return nil, err
	}

	r, err := e.eval(n.Right, env)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case Equal:
		return equal(n.Left.Type(), l, r), nil
	case NotEqual:
		return !equal(n.Left.Type(), l, r), nil
	case ArrayIndex:
		return index(l, r, n.T)
	case LessThan, LessThanOrEqual, GreaterThan, GreaterThanOrEqual:
		return compare(n.Op, l, r)
	}

	// lifted arithmetic propagates null
	if l == nil || r == nil {
		return nil, nil
	}

	return typesys.Arithmetic(arithOps[n.Op], l, r)
}

var arithOps = map[BinaryOp]typesys.ArithOp{
	Add:      typesys.OpAdd,
	Subtract: typesys.OpSubtract,
	Multiply: typesys.OpMultiply,
	Divide:   typesys.OpDivide,
	Modulo:   typesys.OpModulo,
}

// equal compares values and strings by value and every other reference type by identity
func equal(t *typesys.Type, l, r any) bool {
	if t.NonNullable().IsValueType() || t == typesys.String {
		return typesys.Equal(l, r)
	}

	return typesys.SameReference(l, r)
}

func isNaN(v any) bool {
	switch f := v.(type) {
	case float64:
		return math.IsNaN(f)
	case float32:
		return math.IsNaN(float64(f))
	}

	return false
}

// compare is lifted to a non-nullable result: a null operand makes every ordering false
func compare(op BinaryOp, l, r any) (any, error) {
	if l == nil || r == nil || isNaN(l) || isNaN(r) {
		return false, nil
	}

	c, err := typesys.Compare(l, r)
	if err != nil {
		return nil, err
	}

	switch op {
	case LessThan:
		return c < 0, nil
	case LessThanOrEqual:
		return c <= 0, nil
	case GreaterThan:
		return c > 0, nil
	}

	return c >= 0, nil
}

func asBool(v any) (value, isNull bool) {
	if v == nil {
		return false, true
	}

	b, _ := v.(bool)

	return b, false
}

// logical implements short-circuit AND and OR with three-valued logic for nullable booleans
func (e evaluator) logical(n *Binary, env *Env) (any, error) {
	l, err := e.eval(n.Left, env)
	if err != nil {
		return nil, err
	}

	lb, lnull := asBool(l)
	and := n.Op == AndAlso

	if !lnull && lb != and {
		// false && x, true || x
		return lb, nil
	}

	r, err := e.eval(n.Right, env)
	if err != nil {
		return nil, err
	}

	rb, rnull := asBool(r)

	if lnull {
		if !rnull && rb != and {
			return rb, nil
		}

		return nil, nil
	}

	if rnull {
		return nil, nil
	}

	return rb, nil
}

func index(array, idx any, elem *typesys.Type) (any, error) {
	if array == nil {
		return nil, fmt.Errorf("%w: array is null", ErrNullReference)
	}

	i, ok := idx.(int32)
	if !ok {
		return nil, fmt.Errorf("%w: array index %T", ErrInvalidCast, idx)
	}

	if items, ok := array.([]any); ok {
		if i < 0 || int(i) >= len(items) {
			return nil, fmt.Errorf("%w: index %d of %d", ErrOutOfRange, i, len(items))
		}

		return items[i], nil
	}

	rv := reflect.ValueOf(array)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: %T is not an array", ErrInvalidCast, array)
	}

	if i < 0 || int(i) >= rv.Len() {
		return nil, fmt.Errorf("%w: index %d of %d", ErrOutOfRange, i, rv.Len())
	}

	return typesys.HostValue(rv.Index(int(i)), elem), nil
}
