// Package record synthesizes the record types produced by new(...) projections.
// Structurally equal descriptors always map to the same *typesys.Type.
package record

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/shibukawa/dynquery/typesys"
)

// Errors
var (
	ErrDuplicateProperty = errors.New("duplicate property name")
	ErrEmptyProperty     = errors.New("property name must not be empty")
)

// Property is one named, typed slot of a record descriptor
type Property struct {
	Name string
	Type *typesys.Type
}

// class is the published form of one descriptor
type class struct {
	props []Property
	index map[string]int
	t     *typesys.Type
}

// Factory memoizes record types by descriptor. It is safe for concurrent use;
// the cache only grows.
type Factory struct {
	mu      sync.RWMutex
	buckets map[uint64][]*class
	count   int
}

// NewFactory creates an empty factory
func NewFactory() *Factory {
	return &Factory{
		buckets: make(map[uint64][]*class),
	}
}

// Default is the process-wide factory used when none is injected
var Default = NewFactory()

// Len returns the number of distinct record types created so far
func (f *Factory) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.count
}

func signature(props []Property) uint64 {
	var h uint64
	for _, p := range props {
		h ^= xxhash.Sum64String(p.Name) ^ p.Type.ID()
	}

	return h
}

func sameDescriptor(a, b []Property) bool {
	return slices.EqualFunc(a, b, func(x, y Property) bool {
		return x.Name == y.Name && x.Type == y.Type
	})
}

func lookup(bucket []*class, props []Property) *typesys.Type {
	for _, c := range bucket {
		if sameDescriptor(c.props, props) {
			return c.t
		}
	}

	return nil
}

// Get returns the record type for the ordered descriptor props, creating it on first use.
// Concurrent callers racing on the same descriptor all receive the first published type.
func (f *Factory) Get(props []Property) (*typesys.Type, error) {
	if err := validate(props); err != nil {
		return nil, err
	}

	h := signature(props)

	f.mu.RLock()
	t := lookup(f.buckets[h], props)
	f.mu.RUnlock()

	if t != nil {
		return t, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if t := lookup(f.buckets[h], props); t != nil {
		return t, nil
	}

	f.count++
	c := newClass("DynamicClass"+strconv.Itoa(f.count), slices.Clone(props))
	f.buckets[h] = append(f.buckets[h], c)

	return c.t, nil
}

func validate(props []Property) error {
	seen := make(map[string]bool, len(props))

	for _, p := range props {
		if p.Name == "" {
			return ErrEmptyProperty
		}

		if p.Type == nil {
			return fmt.Errorf("property %s has no type", p.Name)
		}

		key := foldKey(p.Name)
		if seen[key] {
			return fmt.Errorf("%w: %s", ErrDuplicateProperty, p.Name)
		}

		seen[key] = true
	}

	return nil
}

func newClass(name string, props []Property) *class {
	c := &class{
		props: props,
		index: make(map[string]int, len(props)),
	}

	members := make([]*typesys.Member, len(props))

	for i, p := range props {
		c.index[foldKey(p.Name)] = i
		members[i] = &typesys.Member{
			Name: p.Name,
			Type: p.Type,
			Get: func(recv any) (any, error) {
				r, ok := recv.(*Instance)
				if !ok || r == nil {
					return nil, fmt.Errorf("%w: %s.%s", typesys.ErrNullReference, name, p.Name)
				}

				return r.values[i], nil
			},
			Set: func(recv any, value any) error {
				r, ok := recv.(*Instance)
				if !ok || r == nil {
					return fmt.Errorf("%w: %s.%s", typesys.ErrNullReference, name, p.Name)
				}

				r.values[i] = value

				return nil
			},
		}
	}

	c.t = typesys.NewRecordType(name, members, func() typesys.Instance { return c.newInstance() })

	return c
}

func (c *class) newInstance() *Instance {
	values := make([]any, len(c.props))
	for i, p := range c.props {
		values[i] = typesys.ZeroValue(p.Type)
	}

	return &Instance{class: c, values: values}
}
