package typesys

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
)

// Kind classifies a Type
type Kind int

const (
	KindObject Kind = iota
	KindBoolean
	KindChar
	KindString
	KindSByte
	KindByte
	KindInt16
	KindUInt16
	KindInt32
	KindUInt32
	KindInt64
	KindUInt64
	KindSingle
	KindDouble
	KindDecimal
	KindDateTime
	KindTimeSpan
	KindGuid

	KindNullable
	KindEnum
	KindClass
	KindInterface
	KindRecord
	KindSequence
	KindArray
	KindMap
	KindGrouping
	KindFunc
	KindStatic
)

var kindNames = [...]string{
	KindObject:    "Object",
	KindBoolean:   "Boolean",
	KindChar:      "Char",
	KindString:    "String",
	KindSByte:     "SByte",
	KindByte:      "Byte",
	KindInt16:     "Int16",
	KindUInt16:    "UInt16",
	KindInt32:     "Int32",
	KindUInt32:    "UInt32",
	KindInt64:     "Int64",
	KindUInt64:    "UInt64",
	KindSingle:    "Single",
	KindDouble:    "Double",
	KindDecimal:   "Decimal",
	KindDateTime:  "DateTime",
	KindTimeSpan:  "TimeSpan",
	KindGuid:      "Guid",
	KindNullable:  "Nullable",
	KindEnum:      "Enum",
	KindClass:     "Class",
	KindInterface: "Interface",
	KindRecord:    "Record",
	KindSequence:  "Sequence",
	KindArray:     "Array",
	KindMap:       "Map",
	KindGrouping:  "Grouping",
	KindFunc:      "Func",
	KindStatic:    "Static",
}

// String returns the kind name
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Type is a resolved static type. Two types are the same type iff they are the same pointer.
type Type struct {
	id         uint64
	kind       Kind
	name       string
	predefined bool

	elem   *Type // Nullable, Sequence, Array, Grouping element, Map value, Enum underlying
	key    *Type // Map and Grouping key
	params []*Type
	result *Type

	goType reflect.Type

	// Enum constants keyed by folded name
	enumValues map[string]any
	enumNames  []string

	once         sync.Once
	build        func(t *Type)
	fields       []*Member
	methods      []*Method
	indexers     []*Method
	constructors []*Method

	newInstance func() Instance
}

var typeIDs atomic.Uint64

func newType(kind Kind, name string) *Type {
	return &Type{
		id:   typeIDs.Add(1),
		kind: kind,
		name: name,
	}
}

// ID returns a process-unique identifier of the type
func (t *Type) ID() uint64 { return t.id }

// Kind returns the kind of the type
func (t *Type) Kind() Kind { return t.kind }

// Name returns the short type name. Nullable types are suffixed with '?'.
func (t *Type) Name() string {
	if t.kind == KindNullable {
		return t.elem.Name() + "?"
	}

	return t.name
}

// String implements fmt.Stringer
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}

	return t.Name()
}

// Elem returns the element type of sequences, arrays, groupings and maps,
// the underlying type of nullables and the underlying integer type of enums.
func (t *Type) Elem() *Type { return t.elem }

// Key returns the key type of maps and groupings
func (t *Type) Key() *Type { return t.key }

// Params returns the parameter types of a function type
func (t *Type) Params() []*Type { return t.params }

// Result returns the result type of a function type
func (t *Type) Result() *Type { return t.result }

// GoType returns the host type the type was registered from, if any
func (t *Type) GoType() reflect.Type { return t.goType }

// IsPredefined reports whether the type is one of the language's keyword types
func (t *Type) IsPredefined() bool { return t.predefined }

// IsNullable reports whether the type is a nullable wrapper of a value type
func (t *Type) IsNullable() bool { return t.kind == KindNullable }

// NonNullable returns the underlying type of a nullable type, or the type itself
func (t *Type) NonNullable() *Type {
	if t.kind == KindNullable {
		return t.elem
	}

	return t
}

// IsValueType reports whether values of the type are copied by value and can not be null
// (except through the Nullable wrapper)
func (t *Type) IsValueType() bool {
	switch t.kind {
	case KindObject, KindString, KindClass, KindInterface, KindRecord, KindSequence,
		KindArray, KindMap, KindGrouping, KindFunc, KindStatic:
		return false
	}

	return true
}

// IsEnum reports whether the non-nullable form of the type is an enum
func (t *Type) IsEnum() bool {
	return t.NonNullable().kind == KindEnum
}

// IsInterface reports whether the type is an interface
func (t *Type) IsInterface() bool { return t.kind == KindInterface }

// EnumValue looks up an enum constant by case-insensitive name
func (t *Type) EnumValue(name string) (any, bool) {
	if t.kind != KindEnum {
		return nil, false
	}

	v, ok := t.enumValues[fold(name)]

	return v, ok
}

// EnumNames returns the names of the enum constants sorted by name
func (t *Type) EnumNames() []string { return t.enumNames }

// ElementType returns the element type when values of t are enumerable
// (arrays, sequences and groupings). Strings are not treated as enumerable.
func (t *Type) ElementType() (*Type, bool) {
	switch t.kind {
	case KindSequence, KindArray, KindGrouping:
		return t.elem, true
	}

	return nil, false
}

// NewInstance creates a zero instance of a record type
func (t *Type) NewInstance() (Instance, bool) {
	if t.newInstance == nil {
		return nil, false
	}

	return t.newInstance(), true
}

func (t *Type) members() {
	t.once.Do(func() {
		if t.build != nil {
			t.build(t)
		}
	})
}

// Fields returns the properties and fields declared by the type itself
func (t *Type) Fields() []*Member {
	t.members()
	return t.fields
}

// Methods returns the methods declared by the type itself
func (t *Type) Methods() []*Method {
	t.members()
	return t.methods
}

// Indexers returns the indexers declared by the type itself
func (t *Type) Indexers() []*Method {
	t.members()
	return t.indexers
}

// Constructors returns the constructors of the type
func (t *Type) Constructors() []*Method {
	t.members()
	return t.constructors
}

// Instance is the runtime value of a record type
type Instance interface {
	Field(name string) (any, bool)
	SetField(name string, value any) error
}

// NewRecordType creates a record type. It is used by the record factory;
// every call creates a distinct type.
func NewRecordType(name string, fields []*Member, newInstance func() Instance) *Type {
	t := newType(KindRecord, name)
	t.newInstance = newInstance

	for _, f := range fields {
		f.Declaring = t
	}

	t.fields = fields

	return t
}

// Predefined types
var (
	Object   = predefined(KindObject)
	Boolean  = predefined(KindBoolean)
	Char     = predefined(KindChar)
	String   = predefined(KindString)
	SByte    = predefined(KindSByte)
	Byte     = predefined(KindByte)
	Int16    = predefined(KindInt16)
	UInt16   = predefined(KindUInt16)
	Int32    = predefined(KindInt32)
	UInt32   = predefined(KindUInt32)
	Int64    = predefined(KindInt64)
	UInt64   = predefined(KindUInt64)
	Single   = predefined(KindSingle)
	Double   = predefined(KindDouble)
	Decimal  = predefined(KindDecimal)
	DateTime = predefined(KindDateTime)
	TimeSpan = predefined(KindTimeSpan)
	Guid     = predefined(KindGuid)
	Math     = predefinedStatic("Math")
	Convert  = predefinedStatic("Convert")
)

func predefined(kind Kind) *Type {
	t := newType(kind, kind.String())
	t.predefined = true

	return t
}

func predefinedStatic(name string) *Type {
	t := newType(KindStatic, name)
	t.predefined = true

	return t
}

// NewStaticType creates a type that only hosts static methods added by its owner.
// It is not reachable from expression text.
func NewStaticType(name string) *Type {
	return newType(KindStatic, name)
}

func init() {
	for _, t := range PredefinedTypes() {
		t.build = buildPredefinedMembers
	}
}

// PredefinedTypes returns the keyword types in declaration order
func PredefinedTypes() []*Type {
	return []*Type{
		Object, Boolean, Char, String, SByte, Byte, Int16, UInt16, Int32, UInt32,
		Int64, UInt64, Single, Double, Decimal, DateTime, TimeSpan, Guid, Math, Convert,
	}
}

// derived types are interned so that structurally equal requests share one pointer
type internKey struct {
	kind   Kind
	elem   uint64
	key    uint64
	params string
	result uint64
}

var (
	internMu sync.Mutex
	interned = make(map[internKey]*Type)
)

func intern(k internKey, create func() *Type) *Type {
	internMu.Lock()
	defer internMu.Unlock()

	if t, ok := interned[k]; ok {
		return t
	}

	t := create()
	interned[k] = t

	return t
}

func idOf(t *Type) uint64 {
	if t == nil {
		return 0
	}

	return t.id
}

// NullableOf returns T? for a value type T. Nullable and reference types are returned unchanged.
func NullableOf(t *Type) *Type {
	if t.kind == KindNullable || !t.IsValueType() {
		return t
	}

	return intern(internKey{kind: KindNullable, elem: t.id}, func() *Type {
		n := newType(KindNullable, "Nullable")
		n.elem = t
		n.build = buildNullableMembers

		return n
	})
}

// SequenceOf returns the enumerable-of-T type
func SequenceOf(elem *Type) *Type {
	return intern(internKey{kind: KindSequence, elem: elem.id}, func() *Type {
		s := newType(KindSequence, "IEnumerable<"+elem.Name()+">")
		s.elem = elem

		return s
	})
}

// ArrayOf returns the one-dimensional array type of elem
func ArrayOf(elem *Type) *Type {
	return intern(internKey{kind: KindArray, elem: elem.id}, func() *Type {
		a := newType(KindArray, elem.Name()+"[]")
		a.elem = elem
		a.build = buildArrayMembers

		return a
	})
}

// MapOf returns the dictionary type with the given key and value types
func MapOf(key, value *Type) *Type {
	return intern(internKey{kind: KindMap, key: key.id, elem: value.id}, func() *Type {
		m := newType(KindMap, "Dictionary<"+key.Name()+","+value.Name()+">")
		m.key = key
		m.elem = value
		m.build = buildMapMembers

		return m
	})
}

// GroupingOf returns the grouping type with the given key and element types
func GroupingOf(key, elem *Type) *Type {
	return intern(internKey{kind: KindGrouping, key: key.id, elem: elem.id}, func() *Type {
		g := newType(KindGrouping, "IGrouping<"+key.Name()+","+elem.Name()+">")
		g.key = key
		g.elem = elem
		g.build = buildGroupingMembers

		return g
	})
}

// FuncOf returns the function type with the given parameter and result types
func FuncOf(params []*Type, result *Type) *Type {
	ids := make([]string, len(params))
	names := make([]string, len(params)+1)

	for i, p := range params {
		ids[i] = fmt.Sprint(p.id)
		names[i] = p.Name()
	}

	names[len(params)] = result.Name()

	return intern(internKey{kind: KindFunc, params: strings.Join(ids, ","), result: idOf(result)}, func() *Type {
		f := newType(KindFunc, "Func<"+strings.Join(names, ",")+">")
		f.params = append([]*Type(nil), params...)
		f.result = result

		return f
	})
}
