package typesys

import "reflect"

// NumericClass groups numeric kinds for overload ranking
type NumericClass int

const (
	NotNumeric NumericClass = iota
	// FloatingNumeric covers Char, Single, Double and Decimal
	FloatingNumeric
	SignedIntegral
	UnsignedIntegral
)

// NumericClassOf classifies the non-nullable form of t. Enums are not numeric.
func NumericClassOf(t *Type) NumericClass {
	switch t.NonNullable().kind {
	case KindChar, KindSingle, KindDouble, KindDecimal:
		return FloatingNumeric
	case KindSByte, KindInt16, KindInt32, KindInt64:
		return SignedIntegral
	case KindByte, KindUInt16, KindUInt32, KindUInt64:
		return UnsignedIntegral
	}

	return NotNumeric
}

// IsNumeric reports whether t (or its non-nullable form) is numeric
func IsNumeric(t *Type) bool { return NumericClassOf(t) != NotNumeric }

// IsSignedIntegral reports whether t is sbyte, short, int or long (or nullable)
func IsSignedIntegral(t *Type) bool { return NumericClassOf(t) == SignedIntegral }

// IsUnsignedIntegral reports whether t is byte, ushort, uint or ulong (or nullable)
func IsUnsignedIntegral(t *Type) bool { return NumericClassOf(t) == UnsignedIntegral }

// IsIntegral reports whether t is a signed or unsigned integer type
func IsIntegral(t *Type) bool {
	c := NumericClassOf(t)
	return c == SignedIntegral || c == UnsignedIntegral
}

// widening lists, per source kind, the kinds a value converts to implicitly
var widening = map[Kind][]Kind{
	KindSByte:  {KindSByte, KindInt16, KindInt32, KindInt64, KindSingle, KindDouble, KindDecimal},
	KindByte:   {KindByte, KindInt16, KindUInt16, KindInt32, KindUInt32, KindInt64, KindUInt64, KindSingle, KindDouble, KindDecimal},
	KindInt16:  {KindInt16, KindInt32, KindInt64, KindSingle, KindDouble, KindDecimal},
	KindUInt16: {KindUInt16, KindInt32, KindUInt32, KindInt64, KindUInt64, KindSingle, KindDouble, KindDecimal},
	KindInt32:  {KindInt32, KindInt64, KindSingle, KindDouble, KindDecimal},
	KindUInt32: {KindUInt32, KindInt64, KindUInt64, KindSingle, KindDouble, KindDecimal},
	KindInt64:  {KindInt64, KindSingle, KindDouble, KindDecimal},
	KindUInt64: {KindUInt64, KindSingle, KindDouble, KindDecimal},
	KindSingle: {KindSingle, KindDouble},
}

// IsCompatibleWith reports whether a value of source converts implicitly to target.
// T converts to T? but T? never converts to T.
func IsCompatibleWith(source, target *Type) bool {
	if source == target {
		return true
	}

	if !target.IsValueType() {
		return IsAssignableFrom(target, source)
	}

	st := source.NonNullable()
	tt := target.NonNullable()

	if st != source && tt == target {
		return false
	}

	if widens, ok := widening[st.kind]; ok && st.predefined && tt.predefined {
		for _, k := range widens {
			if tt.kind == k {
				return true
			}
		}

		return false
	}

	return st == tt
}

// IsAssignableFrom reports whether a value of source can be stored in a location of target
// without conversion of its representation (identity, reference or boxing conversions).
func IsAssignableFrom(target, source *Type) bool {
	if target == source {
		return true
	}

	switch target.kind {
	case KindObject:
		return source.kind != KindStatic
	case KindNullable:
		return target.elem == source
	case KindInterface:
		return implements(source, target)
	case KindSequence:
		se, ok := source.ElementType()
		if !ok {
			return false
		}

		return se == target.elem || (!se.IsValueType() && IsAssignableFrom(target.elem, se))
	}

	return false
}

func implements(source, iface *Type) bool {
	if source.goType == nil || iface.goType == nil || iface.goType.Kind() != reflect.Interface {
		return false
	}

	if source.kind != KindClass && source.kind != KindInterface {
		return false
	}

	if source.goType.Implements(iface.goType) {
		return true
	}

	return source.goType.Kind() != reflect.Interface && reflect.PointerTo(source.goType).Implements(iface.goType)
}

// CompareConversions ranks the conversions s→t1 and s→t2.
// It returns 1 when s→t1 is better, -1 when s→t2 is better and 0 otherwise.
func CompareConversions(s, t1, t2 *Type) int {
	if t1 == t2 {
		return 0
	}

	if s == t1 {
		return 1
	}

	if s == t2 {
		return -1
	}

	t1t2 := IsCompatibleWith(t1, t2)
	t2t1 := IsCompatibleWith(t2, t1)

	if t1t2 && !t2t1 {
		return 1
	}

	if t2t1 && !t1t2 {
		return -1
	}

	if IsSignedIntegral(t1) && IsUnsignedIntegral(t2) {
		return 1
	}

	if IsSignedIntegral(t2) && IsUnsignedIntegral(t1) {
		return -1
	}

	return 0
}
