package typesys

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	timeType     = reflect.TypeFor[time.Time]()
	durationType = reflect.TypeFor[time.Duration]()
	decimalType  = reflect.TypeFor[decimal.Decimal]()
	uuidType     = reflect.TypeFor[uuid.UUID]()
	anyType      = reflect.TypeFor[any]()
	errorType    = reflect.TypeFor[error]()
)

// Catalog maps host Go types to expression types and resolves members.
// It is safe for concurrent use; registrations are never removed.
type Catalog struct {
	mu         sync.RWMutex
	types      map[reflect.Type]*Type
	interfaces []*Type
}

// NewCatalog creates an empty catalog. Predefined types are always available.
func NewCatalog() *Catalog {
	return &Catalog{
		types: make(map[reflect.Type]*Type),
	}
}

// DefaultCatalog is shared by the package level helpers of the query package
var DefaultCatalog = NewCatalog()

// RegisterEnum registers a named integer type as an enum with the given constants
func (c *Catalog) RegisterEnum(rt reflect.Type, values map[string]any) (*Type, error) {
	underlying, ok := integerKindOf(rt.Kind())
	if !ok || rt.PkgPath() == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotEnum, rt)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.types[rt]; ok {
		return t, nil
	}

	t := newType(KindEnum, rt.Name())
	t.goType = rt
	t.elem = underlying
	t.enumValues = make(map[string]any, len(values))

	for _, name := range slices.Sorted(maps.Keys(values)) {
		v := reflect.ValueOf(values[name])
		if !v.CanConvert(rt) {
			return nil, fmt.Errorf("%w: constant %s of %s", ErrNotEnum, name, rt)
		}

		t.enumValues[fold(name)] = v.Convert(rt).Interface()
		t.enumNames = append(t.enumNames, name)
	}

	c.types[rt] = t

	return t, nil
}

// TypeOf returns the expression type of a host type, registering it on first use
func (c *Catalog) TypeOf(rt reflect.Type) (*Type, error) {
	if rt == nil {
		return Object, nil
	}

	if t, ok := predefinedFor(rt); ok {
		return t, nil
	}

	c.mu.RLock()
	t, ok := c.types[canonical(rt)]
	c.mu.RUnlock()

	if ok {
		return t, nil
	}

	return c.register(rt)
}

// MustTypeOf is like TypeOf but panics on unsupported types. It is meant for tests and setup code.
func (c *Catalog) MustTypeOf(rt reflect.Type) *Type {
	t, err := c.TypeOf(rt)
	if err != nil {
		panic(err)
	}

	return t
}

// TypeOfValue returns the expression type of a runtime value
func (c *Catalog) TypeOfValue(v any) (*Type, error) {
	switch x := v.(type) {
	case nil:
		return Object, nil
	case interface{ RecordType() *Type }:
		return x.RecordType(), nil
	case *Grouping:
		return GroupingOf(Object, Object), nil
	case Func:
		return FuncOf(nil, Object), nil
	}

	return c.TypeOf(reflect.TypeOf(v))
}

func canonical(rt reflect.Type) reflect.Type {
	if rt.Kind() == reflect.Pointer && rt.Elem().Kind() == reflect.Struct {
		return rt.Elem()
	}

	return rt
}

func predefinedFor(rt reflect.Type) (*Type, bool) {
	switch rt {
	case timeType:
		return DateTime, true
	case durationType:
		return TimeSpan, true
	case decimalType:
		return Decimal, true
	case uuidType:
		return Guid, true
	case anyType:
		return Object, true
	}

	if rt.PkgPath() != "" {
		return nil, false
	}

	switch rt.Kind() {
	case reflect.Bool:
		return Boolean, true
	case reflect.String:
		return String, true
	}

	if t, ok := integerKindOf(rt.Kind()); ok {
		return t, true
	}

	switch rt.Kind() {
	case reflect.Float32:
		return Single, true
	case reflect.Float64:
		return Double, true
	}

	return nil, false
}

func integerKindOf(k reflect.Kind) (*Type, bool) {
	switch k {
	case reflect.Int8:
		return SByte, true
	case reflect.Int16:
		return Int16, true
	case reflect.Int32:
		return Int32, true
	case reflect.Int64, reflect.Int:
		return Int64, true
	case reflect.Uint8:
		return Byte, true
	case reflect.Uint16:
		return UInt16, true
	case reflect.Uint32:
		return UInt32, true
	case reflect.Uint64, reflect.Uint, reflect.Uintptr:
		return UInt64, true
	}

	return nil, false
}

func (c *Catalog) register(rt reflect.Type) (*Type, error) {
	switch rt.Kind() {
	case reflect.Pointer:
		if elem, ok := predefinedFor(rt.Elem()); ok {
			return NullableOf(elem), nil
		}

		if rt.Elem().Kind() == reflect.Struct {
			return c.registerStruct(rt.Elem())
		}

		elem, err := c.TypeOf(rt.Elem())
		if err != nil {
			return nil, err
		}

		return NullableOf(elem), nil
	case reflect.Struct:
		return c.registerStruct(rt)
	case reflect.Interface:
		return c.registerInterface(rt)
	case reflect.Slice, reflect.Array:
		elem, err := c.TypeOf(rt.Elem())
		if err != nil {
			return nil, err
		}

		return ArrayOf(elem), nil
	case reflect.Map:
		key, err := c.TypeOf(rt.Key())
		if err != nil {
			return nil, err
		}

		value, err := c.TypeOf(rt.Elem())
		if err != nil {
			return nil, err
		}

		return MapOf(key, value), nil
	}

	// named scalar types that were not registered as enums behave as their underlying kind
	if t, ok := integerKindOf(rt.Kind()); ok {
		return t, nil
	}

	switch rt.Kind() {
	case reflect.Bool:
		return Boolean, nil
	case reflect.String:
		return String, nil
	case reflect.Float32:
		return Single, nil
	case reflect.Float64:
		return Double, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, rt)
}

func (c *Catalog) registerStruct(rt reflect.Type) (*Type, error) {
	c.mu.Lock()

	if t, ok := c.types[rt]; ok {
		c.mu.Unlock()
		return t, nil
	}

	t := newType(KindClass, rt.Name())
	t.goType = rt
	// members are resolved lazily so that self-referencing types terminate
	t.build = c.buildStructMembers
	c.types[rt] = t
	c.mu.Unlock()

	return t, nil
}

func (c *Catalog) registerInterface(rt reflect.Type) (*Type, error) {
	c.mu.Lock()

	if t, ok := c.types[rt]; ok {
		c.mu.Unlock()
		return t, nil
	}

	t := newType(KindInterface, rt.Name())
	t.goType = rt
	t.build = c.buildInterfaceMembers
	c.types[rt] = t
	c.interfaces = append(c.interfaces, t)
	c.mu.Unlock()

	return t, nil
}

func (c *Catalog) buildStructMembers(t *Type) {
	for _, f := range reflect.VisibleFields(t.goType) {
		if !f.IsExported() || f.Anonymous {
			continue
		}

		ft, err := c.TypeOf(f.Type)
		if err != nil {
			continue
		}

		index := f.Index
		t.fields = append(t.fields, &Member{
			Name:      f.Name,
			Type:      ft,
			Declaring: t,
			Get: func(recv any) (any, error) {
				rv, err := structValue(recv)
				if err != nil {
					return nil, err
				}

				fv, err := rv.FieldByIndexErr(index)
				if err != nil {
					return nil, fmt.Errorf("%w: %s.%s", ErrNullReference, t.Name(), f.Name)
				}

				return HostValue(fv, ft), nil
			},
		})
	}

	c.addGetterProperties(t, reflect.PointerTo(t.goType))
}

func (c *Catalog) buildInterfaceMembers(t *Type) {
	c.addGetterProperties(t, t.goType)
}

// addGetterProperties exposes niladic methods returning one value (optionally with an error) as properties
func (c *Catalog) addGetterProperties(t *Type, rt reflect.Type) {
	for i := range rt.NumMethod() {
		method := rt.Method(i)
		if !method.IsExported() {
			continue
		}

		mt := method.Type
		in := 1

		if rt.Kind() == reflect.Interface {
			in = 0
		}

		if mt.NumIn() != in || mt.NumOut() < 1 || mt.NumOut() > 2 {
			continue
		}

		if mt.NumOut() == 2 && mt.Out(1) != errorType {
			continue
		}

		if t.hasField(method.Name) {
			continue
		}

		pt, err := c.TypeOf(mt.Out(0))
		if err != nil {
			continue
		}

		name := method.Name
		t.fields = append(t.fields, &Member{
			Name:      name,
			Type:      pt,
			Declaring: t,
			Get: func(recv any) (any, error) {
				return callGetter(recv, name, pt)
			},
		})
	}
}

func (t *Type) hasField(name string) bool {
	for _, f := range t.fields {
		if f.Name == name {
			return true
		}
	}

	return false
}

func structValue(recv any) (reflect.Value, error) {
	rv := reflect.ValueOf(recv)
	if !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		return reflect.Value{}, ErrNullReference
	}

	return reflect.Indirect(rv), nil
}

func callGetter(recv any, name string, t *Type) (any, error) {
	rv := reflect.ValueOf(recv)
	if !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		return nil, ErrNullReference
	}

	m := rv.MethodByName(name)
	if !m.IsValid() && rv.Kind() != reflect.Pointer {
		ptr := reflect.New(rv.Type())
		ptr.Elem().Set(rv)
		m = ptr.MethodByName(name)
	}

	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %s has no member %s", ErrInvalidOperation, rv.Type(), name)
	}

	out := m.Call(nil)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}

	return HostValue(out[0], t), nil
}

// HostValue converts a host value to the runtime representation of t
func HostValue(rv reflect.Value, t *Type) any {
	for rv.IsValid() && rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}

		rv = rv.Elem()
	}

	if !rv.IsValid() {
		return nil
	}

	if rv.Kind() == reflect.Pointer && t.kind != KindClass && t.kind != KindInterface && t.kind != KindObject {
		if rv.IsNil() {
			return nil
		}

		rv = rv.Elem()
	}

	k := t.NonNullable()

	switch k.kind {
	case KindObject:
		return Normalize(rv.Interface())
	case KindEnum, KindDecimal, KindDateTime, KindGuid, KindClass, KindInterface,
		KindArray, KindSequence, KindMap, KindRecord, KindGrouping, KindFunc:
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Map) && rv.IsNil() {
			return nil
		}

		return rv.Interface()
	case KindTimeSpan:
		return time.Duration(rv.Int())
	case KindBoolean:
		return rv.Bool()
	case KindString:
		return rv.String()
	case KindSingle:
		return float32(rv.Float())
	case KindDouble:
		return rv.Float()
	}

	if v, err := ConvertNumber(rv.Interface(), k); err == nil {
		return v
	}

	return rv.Interface()
}

// Normalize converts Go values without a dedicated expression type
// (int, uint, named scalars, pointers to scalars) to their runtime representation.
// A pointer to a value type is the nullable form: nil or the pointed-to value.
func Normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case uint:
		return uint64(x)
	case uintptr:
		return uint64(x)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return v
	}

	if _, ok := predefinedFor(rv.Type().Elem()); !ok && rv.Type().Elem().Kind() == reflect.Struct {
		return v
	}

	if rv.IsNil() {
		return nil
	}

	return Normalize(rv.Elem().Interface())
}
