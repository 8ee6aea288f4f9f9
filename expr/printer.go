package expr

import (
	"slices"
	"strconv"
	"strings"

	"github.com/shibukawa/dynquery/typesys"
)

func (n *Constant) String() string {
	switch v := n.Value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	}

	if n.T.NonNullable().Kind() == typesys.KindChar {
		return "'" + typesys.FormatAs(n.Value, n.T) + "'"
	}

	return typesys.Format(n.Value)
}

func (n *Parameter) String() string {
	if n.Name == "" {
		return "it"
	}

	return n.Name
}

func (n *MemberAccess) String() string {
	if n.Target == nil {
		return n.Member.Declaring.Name() + "." + n.Member.Name
	}

	return n.Target.String() + "." + n.Member.Name
}

func joinNodes(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}

	return strings.Join(parts, ", ")
}

func isIndexer(m *typesys.Method) bool {
	return m.Declaring != nil && slices.Contains(m.Declaring.Indexers(), m)
}

func (n *Call) String() string {
	if n.Target != nil && isIndexer(n.Method) {
		return n.Target.String() + "[" + joinNodes(n.Args) + "]"
	}

	var b strings.Builder

	if n.Target != nil {
		b.WriteString(n.Target.String())
	} else {
		b.WriteString(n.Method.Declaring.Name())
	}

	b.WriteByte('.')
	b.WriteString(n.Method.Name)
	b.WriteByte('(')
	b.WriteString(joinNodes(n.Args))
	b.WriteByte(')')

	return b.String()
}

func (n *Unary) String() string {
	if n.Op == Not {
		return "Not(" + n.Operand.String() + ")"
	}

	return "-" + n.Operand.String()
}

func (n *Binary) String() string {
	if n.Op == ArrayIndex {
		return n.Left.String() + "[" + n.Right.String() + "]"
	}

	return "(" + n.Left.String() + " " + n.Op.String() + " " + n.Right.String() + ")"
}

func (n *Conditional) String() string {
	return "IIF(" + n.Test.String() + ", " + n.IfTrue.String() + ", " + n.IfFalse.String() + ")"
}

func (n *New) String() string {
	if n.Constructor != nil {
		return "new " + n.T.Name() + "(" + joinNodes(n.Args) + ")"
	}

	parts := make([]string, len(n.Bindings))
	for i, b := range n.Bindings {
		parts[i] = b.Member.Name + " = " + b.Value.String()
	}

	return "new " + n.T.Name() + "() {" + strings.Join(parts, ", ") + "}"
}

func (n *Convert) String() string {
	name := "Convert"
	if n.Checked {
		name = "ConvertChecked"
	}

	return name + "(" + n.Operand.String() + ", " + n.T.Name() + ")"
}

func (n *Invoke) String() string {
	return "Invoke(" + n.Lambda.String() + ", " + joinNodes(n.Args) + ")"
}

func (n *Lambda) String() string {
	if len(n.Params) == 1 {
		return n.Params[0].String() + " => " + n.Body.String()
	}

	names := make([]string, len(n.Params))
	for i, p := range n.Params {
		names[i] = p.String()
	}

	return "(" + strings.Join(names, ", ") + ") => " + n.Body.String()
}
