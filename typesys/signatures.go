package typesys

import "sync"

// Family names an operator class whose operands are matched against a fixed list of signatures
type Family int

const (
	LogicalFamily Family = iota
	ArithmeticFamily
	RelationalFamily
	EqualityFamily
	AddFamily
	SubtractFamily
	NegationFamily
	NotFamily
	EnumerableFamily
)

var familyNames = map[Family]string{
	LogicalFamily:    "logical",
	ArithmeticFamily: "arithmetic",
	RelationalFamily: "relational",
	EqualityFamily:   "equality",
	AddFamily:        "add",
	SubtractFamily:   "subtract",
	NegationFamily:   "negation",
	NotFamily:        "not",
	EnumerableFamily: "enumerable",
}

func (f Family) String() string { return familyNames[f] }

// Signature is one legal shape of an operator or aggregate call
type Signature struct {
	Name   string
	Params []*Type
}

func pairs(name string, types ...*Type) []Signature {
	result := make([]Signature, 0, len(types))
	for _, t := range types {
		result = append(result, Signature{Name: name, Params: []*Type{t, t}})
	}

	return result
}

func singles(name string, types ...*Type) []Signature {
	result := make([]Signature, 0, len(types))
	for _, t := range types {
		result = append(result, Signature{Name: name, Params: []*Type{t}})
	}

	return result
}

func sig(name string, params ...*Type) Signature {
	return Signature{Name: name, Params: params}
}

var signatureTables = sync.OnceValue(func() map[Family][]Signature {
	n := NullableOf

	logical := pairs("F", Boolean, n(Boolean))

	arithmetic := pairs("F",
		Int32, UInt32, Int64, UInt64, Single, Double, Decimal,
		n(Int32), n(UInt32), n(Int64), n(UInt64), n(Single), n(Double), n(Decimal))

	relational := append(append([]Signature{}, arithmetic...), pairs("F",
		String, Char, DateTime, TimeSpan,
		n(Char), n(DateTime), n(TimeSpan))...)

	equality := append(append([]Signature{}, relational...), pairs("F",
		Boolean, n(Boolean), Guid, n(Guid))...)

	add := append(append([]Signature{}, arithmetic...),
		sig("F", DateTime, TimeSpan),
		sig("F", TimeSpan, TimeSpan),
		sig("F", n(DateTime), n(TimeSpan)),
		sig("F", n(TimeSpan), n(TimeSpan)))

	subtract := append(append([]Signature{}, add...),
		sig("F", DateTime, DateTime),
		sig("F", n(DateTime), n(DateTime)))

	negation := singles("F",
		Int32, Int64, Single, Double, Decimal,
		n(Int32), n(Int64), n(Single), n(Double), n(Decimal))

	not := singles("F", Boolean, n(Boolean))

	enumerable := []Signature{
		sig("Where", Boolean),
		sig("Any"),
		sig("Any", Boolean),
		sig("All", Boolean),
		sig("Count"),
		sig("Count", Boolean),
		sig("Min", Object),
		sig("Max", Object),
	}

	numeric := []*Type{Int32, n(Int32), Int64, n(Int64), Single, n(Single), Double, n(Double), Decimal, n(Decimal)}
	enumerable = append(enumerable, singles("Sum", numeric...)...)
	enumerable = append(enumerable, singles("Average", numeric...)...)

	return map[Family][]Signature{
		LogicalFamily:    logical,
		ArithmeticFamily: arithmetic,
		RelationalFamily: relational,
		EqualityFamily:   equality,
		AddFamily:        add,
		SubtractFamily:   subtract,
		NegationFamily:   negation,
		NotFamily:        not,
		EnumerableFamily: enumerable,
	}
})

// Signatures returns the candidate list of an operator family
func Signatures(f Family) []Signature {
	return signatureTables()[f]
}

// SignaturesNamed returns the candidates of a family with the given case-insensitive name
func SignaturesNamed(f Family, name string) []Signature {
	var result []Signature

	for _, s := range Signatures(f) {
		if EqualFold(s.Name, name) {
			result = append(result, s)
		}
	}

	return result
}
