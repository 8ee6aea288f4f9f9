package record

import (
	"fmt"
	"strings"

	"github.com/shibukawa/dynquery/typesys"
)

// Instance is the runtime value of a record type
type Instance struct {
	class  *class
	values []any
}

var (
	_ typesys.Instance = (*Instance)(nil)
	_ typesys.Equaler  = (*Instance)(nil)
	_ typesys.Hasher   = (*Instance)(nil)
)

// RecordType returns the synthesized type of the instance
func (r *Instance) RecordType() *typesys.Type { return r.class.t }

// Properties returns the descriptor of the instance's type
func (r *Instance) Properties() []Property { return r.class.props }

// Values returns the field values in declaration order
func (r *Instance) Values() []any { return r.values }

// Field returns a field value by case-insensitive name
func (r *Instance) Field(name string) (any, bool) {
	i, ok := r.class.index[foldKey(name)]
	if !ok {
		return nil, false
	}

	return r.values[i], true
}

// SetField assigns a field by case-insensitive name
func (r *Instance) SetField(name string, value any) error {
	i, ok := r.class.index[foldKey(name)]
	if !ok {
		return fmt.Errorf("%w: %s has no property %s", typesys.ErrInvalidOperation, r.class.t.Name(), name)
	}

	r.values[i] = value

	return nil
}

// Equals reports whether other is a record of the same type with equal field values
func (r *Instance) Equals(other any) bool {
	o, ok := other.(*Instance)
	if !ok || o == nil || o.class != r.class {
		return false
	}

	for i := range r.values {
		if !typesys.Equal(r.values[i], o.values[i]) {
			return false
		}
	}

	return true
}

// Hash combines the field hashes with XOR
func (r *Instance) Hash() uint64 {
	var h uint64
	for _, v := range r.values {
		h ^= typesys.Hash(v)
	}

	return h
}

// String renders the instance as {Name=value, ...}
func (r *Instance) String() string {
	var b strings.Builder

	b.WriteByte('{')

	for i, p := range r.class.props {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(typesys.FormatAs(r.values[i], p.Type))
	}

	b.WriteByte('}')

	return b.String()
}

// Map returns the fields keyed by property name
func (r *Instance) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for i, p := range r.class.props {
		m[p.Name] = r.values[i]
	}

	return m
}

func foldKey(name string) string {
	return typesys.Fold(name)
}
