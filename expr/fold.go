package expr

import "context"

// Fold evaluates operators, conversions and pure calls whose operands are all constants
// and replaces them by Constant nodes. A sub-expression that fails to evaluate is kept as is
// so that the error surfaces at run time.
func Fold(n Node) Node {
	switch n := n.(type) {
	case *Unary:
		return foldIfConstant(&Unary{Op: n.Op, Operand: Fold(n.Operand), T: n.T})
	case *Binary:
		folded := &Binary{Op: n.Op, Left: Fold(n.Left), Right: Fold(n.Right), T: n.T}
		if folded.Op == ArrayIndex {
			return folded
		}

		return foldIfConstant(folded)
	case *Convert:
		return foldIfConstant(&Convert{Operand: Fold(n.Operand), T: n.T, Checked: n.Checked})
	case *Call:
		folded := &Call{Target: n.Target, Method: n.Method, Args: foldAll(n.Args)}
		if n.Target != nil {
			folded.Target = Fold(n.Target)
		}

		if !n.Method.Pure {
			return folded
		}

		return foldIfConstant(folded)
	case *MemberAccess:
		if n.Target == nil {
			return n
		}

		return &MemberAccess{Target: Fold(n.Target), Member: n.Member}
	case *Conditional:
		test := Fold(n.Test)
		if c, ok := test.(*Constant); ok {
			if b, ok := c.Value.(bool); ok {
				if b {
					return Fold(n.IfTrue)
				}

				return Fold(n.IfFalse)
			}
		}

		return &Conditional{Test: test, IfTrue: Fold(n.IfTrue), IfFalse: Fold(n.IfFalse), T: n.T}
	case *New:
		folded := &New{T: n.T, Constructor: n.Constructor, Args: foldAll(n.Args)}
		for _, b := range n.Bindings {
			folded.Bindings = append(folded.Bindings, Binding{Member: b.Member, Value: Fold(b.Value)})
		}

		return folded
	case *Invoke:
		return &Invoke{Lambda: Fold(n.Lambda), Args: foldAll(n.Args), T: n.T}
	case *Lambda:
		return &Lambda{Params: n.Params, Body: Fold(n.Body), T: n.T}
	}

	return n
}

// Reduce folds n itself when it is a foldable node whose operands are already constants.
// The parser applies it to every node it builds, so whole trees never need a second pass.
func Reduce(n Node) Node {
	switch n := n.(type) {
	case *Unary, *Convert:
		return foldIfConstant(n)
	case *Binary:
		if n.Op != ArrayIndex {
			return foldIfConstant(n)
		}
	case *Call:
		if n.Method.Pure {
			return foldIfConstant(n)
		}
	}

	return n
}

func foldAll(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}

	result := make([]Node, len(nodes))
	for i, n := range nodes {
		result[i] = Fold(n)
	}

	return result
}

func foldIfConstant(n Node) Node {
	for _, c := range Children(n) {
		if _, ok := c.(*Constant); !ok {
			return n
		}
	}

	v, err := Eval(context.Background(), n, nil)
	if err != nil {
		return n
	}

	return &Constant{Value: v, T: n.Type()}
}
