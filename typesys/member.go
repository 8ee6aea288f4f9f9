package typesys

import (
	"strings"

	"golang.org/x/text/cases"
)

// Getter reads a property or field. recv is nil for static members.
type Getter func(recv any) (any, error)

// Setter writes a property or field of a record instance
type Setter func(recv any, value any) error

// Invoker runs a method, constructor or indexer. recv is nil for static methods.
type Invoker func(recv any, args []any) (any, error)

// Member is a property or field
type Member struct {
	Name      string
	Type      *Type
	Declaring *Type
	Static    bool
	Get       Getter
	Set       Setter
}

// Method is a callable member. Result is nil for methods without a value.
type Method struct {
	Name      string
	Declaring *Type
	Params    []*Type
	Result    *Type
	Static    bool
	// Pure methods may be evaluated while parsing when every argument is constant
	Pure   bool
	Invoke Invoker
}

// String returns a readable signature such as "String.Substring(Int32, Int32)"
func (m *Method) String() string {
	var b strings.Builder

	if m.Declaring != nil {
		b.WriteString(m.Declaring.Name())
		b.WriteByte('.')
	}

	b.WriteString(m.Name)
	b.WriteByte('(')

	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(p.Name())
	}

	b.WriteByte(')')

	return b.String()
}

// fold returns the case-folded form of a member or enum name
func fold(s string) string {
	// cases.Caser keeps state and is not safe for concurrent use
	return cases.Fold().String(s)
}

// Fold returns the case-folded key used for case-insensitive identifier lookup
func Fold(s string) string { return fold(s) }

// EqualFold compares identifiers the way member lookup does
func EqualFold(a, b string) bool {
	return fold(a) == fold(b)
}
