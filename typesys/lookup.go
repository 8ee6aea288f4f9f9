package typesys

// SelfAndBaseTypes returns the types searched for members of t, most derived first.
// For interfaces these are the interface and every registered interface it embeds,
// breadth-first and without duplicates. For every other type it is t and then Object.
func (c *Catalog) SelfAndBaseTypes(t *Type) []*Type {
	if t.kind != KindInterface {
		if t == Object {
			return []*Type{Object}
		}

		return []*Type{t, Object}
	}

	c.mu.RLock()
	registered := append([]*Type(nil), c.interfaces...)
	c.mu.RUnlock()

	result := []*Type{t}
	seen := map[*Type]bool{t: true}

	for i := 0; i < len(result); i++ {
		current := result[i]

		for _, candidate := range registered {
			if seen[candidate] || candidate.goType == nil || current.goType == nil {
				continue
			}

			if candidate.goType.NumMethod() < current.goType.NumMethod() && current.goType.Implements(candidate.goType) {
				seen[candidate] = true
				result = append(result, candidate)
			}
		}
	}

	return result
}

// FindPropertyOrField finds a property or field by case-insensitive name.
// static selects static members (type access) or instance members.
func (c *Catalog) FindPropertyOrField(t *Type, name string, static bool) (*Member, bool) {
	key := fold(name)

	for _, st := range c.SelfAndBaseTypes(t) {
		for _, f := range st.Fields() {
			if f.Static == static && fold(f.Name) == key {
				return f, true
			}
		}
	}

	return nil, false
}

// FindMethods returns the candidate methods of the first type in SelfAndBaseTypes(t)
// that declares a method with the given case-insensitive name.
func (c *Catalog) FindMethods(t *Type, name string, static bool) [][]*Method {
	key := fold(name)

	var groups [][]*Method

	for _, st := range c.SelfAndBaseTypes(t) {
		var group []*Method

		for _, m := range st.Methods() {
			if m.Static == static && fold(m.Name) == key {
				group = append(group, m)
			}
		}

		if len(group) > 0 {
			groups = append(groups, group)
		}
	}

	return groups
}

// FindIndexers returns the indexers of t grouped by declaring type, most derived first
func (c *Catalog) FindIndexers(t *Type) [][]*Method {
	var groups [][]*Method

	for _, st := range c.SelfAndBaseTypes(t) {
		if indexers := st.Indexers(); len(indexers) > 0 {
			groups = append(groups, indexers)
		}
	}

	return groups
}

// IsAccessible reports whether methods declared by t may be called from expressions.
// Only the keyword types and the structural wrappers expose callable methods.
func IsAccessible(t *Type) bool {
	switch t.kind {
	case KindNullable, KindArray, KindMap:
		return true
	}

	return t.predefined
}
