// Package expr defines the typed expression tree produced by the parser and evaluates it.
package expr

import "github.com/shibukawa/dynquery/typesys"

// Node is a typed expression tree node
type Node interface {
	// Type returns the static type of the value the node produces
	Type() *typesys.Type
	String() string
	node()
}

// Constant is a literal or folded value
type Constant struct {
	Value any
	T     *typesys.Type
}

// Parameter is a lambda parameter or the implicit receiver
type Parameter struct {
	Name string
	T    *typesys.Type
}

// NewParameter creates a parameter node
func NewParameter(name string, t *typesys.Type) *Parameter {
	return &Parameter{Name: name, T: t}
}

// MemberAccess reads a property or field. Target is nil for static members.
type MemberAccess struct {
	Target Node
	Member *typesys.Member
}

// Call invokes a method, an indexer or a sequence operator. Target is nil for static methods.
type Call struct {
	Target Node
	Method *typesys.Method
	Args   []Node
}

// UnaryOp is a unary operator
type UnaryOp int

const (
	Negate UnaryOp = iota
	Not
)

// Unary applies a unary operator
type Unary struct {
	Op      UnaryOp
	Operand Node
	T       *typesys.Type
}

// BinaryOp is a binary operator
type BinaryOp int

const (
	OrElse BinaryOp = iota
	AndAlso
	Equal
	NotEqual
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
	Add
	Subtract
	Multiply
	Divide
	Modulo
	ArrayIndex
)

var binaryOpSymbols = [...]string{
	OrElse:             "||",
	AndAlso:            "&&",
	Equal:              "==",
	NotEqual:           "!=",
	LessThan:           "<",
	LessThanOrEqual:    "<=",
	GreaterThan:        ">",
	GreaterThanOrEqual: ">=",
	Add:                "+",
	Subtract:           "-",
	Multiply:           "*",
	Divide:             "/",
	Modulo:             "%",
	ArrayIndex:         "[]",
}

func (op BinaryOp) String() string { return binaryOpSymbols[op] }

// IsComparison reports whether op produces a boolean from two operands of the same type
func (op BinaryOp) IsComparison() bool {
	return op >= Equal && op <= GreaterThanOrEqual
}

// Binary applies a binary operator. Operands of comparison and arithmetic operators have the same type.
type Binary struct {
	Op    BinaryOp
	Left  Node
	Right Node
	T     *typesys.Type
}

// Conditional selects IfTrue or IfFalse by Test
type Conditional struct {
	Test    Node
	IfTrue  Node
	IfFalse Node
	T       *typesys.Type
}

// Binding assigns a value to a member of a newly created record
type Binding struct {
	Member *typesys.Member
	Value  Node
}

// New creates a value, either through a constructor of a predefined type
// or as a record initialized member by member.
type New struct {
	T           *typesys.Type
	Constructor *typesys.Method
	Args        []Node
	Bindings    []Binding
}

// Convert converts its operand to T. Checked conversions fail on overflow.
type Convert struct {
	Operand Node
	T       *typesys.Type
	Checked bool
}

// Invoke calls a lambda value
type Invoke struct {
	Lambda Node
	Args   []Node
	T      *typesys.Type
}

// Lambda is a function literal. Its type is a typesys Func type.
type Lambda struct {
	Params []*Parameter
	Body   Node
	T      *typesys.Type
}

// NewLambda creates a lambda with the function type derived from its parameters and body
func NewLambda(body Node, params ...*Parameter) *Lambda {
	types := make([]*typesys.Type, len(params))
	for i, p := range params {
		types[i] = p.T
	}

	return &Lambda{Params: params, Body: body, T: typesys.FuncOf(types, body.Type())}
}

func (n *Constant) Type() *typesys.Type     { return n.T }
func (n *Parameter) Type() *typesys.Type    { return n.T }
func (n *MemberAccess) Type() *typesys.Type { return n.Member.Type }
func (n *Unary) Type() *typesys.Type        { return n.T }
func (n *Binary) Type() *typesys.Type       { return n.T }
func (n *Conditional) Type() *typesys.Type  { return n.T }
func (n *New) Type() *typesys.Type          { return n.T }
func (n *Convert) Type() *typesys.Type      { return n.T }
func (n *Invoke) Type() *typesys.Type       { return n.T }
func (n *Lambda) Type() *typesys.Type       { return n.T }

// Type returns the method result, or Object for methods without a value
func (n *Call) Type() *typesys.Type {
	if n.Method.Result == nil {
		return typesys.Object
	}

	return n.Method.Result
}

func (*Constant) node()     {}
func (*Parameter) node()    {}
func (*MemberAccess) node() {}
func (*Call) node()         {}
func (*Unary) node()        {}
func (*Binary) node()       {}
func (*Conditional) node()  {}
func (*New) node()          {}
func (*Convert) node()      {}
func (*Invoke) node()       {}
func (*Lambda) node()       {}

// Children returns the direct sub-expressions of n in evaluation order
func Children(n Node) []Node {
	switch n := n.(type) {
	case *MemberAccess:
		if n.Target != nil {
			return []Node{n.Target}
		}
	case *Call:
		if n.Target != nil {
			return append([]Node{n.Target}, n.Args...)
		}

		return n.Args
	case *Unary:
		return []Node{n.Operand}
	case *Binary:
		return []Node{n.Left, n.Right}
	case *Conditional:
		return []Node{n.Test, n.IfTrue, n.IfFalse}
	case *New:
		result := append([]Node(nil), n.Args...)
		for _, b := range n.Bindings {
			result = append(result, b.Value)
		}

		return result
	case *Convert:
		return []Node{n.Operand}
	case *Invoke:
		return append([]Node{n.Lambda}, n.Args...)
	case *Lambda:
		return []Node{n.Body}
	}

	return nil
}

// Walk visits n and its descendants depth-first. Returning false from fn skips the children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}

	for _, c := range Children(n) {
		Walk(c, fn)
	}
}
