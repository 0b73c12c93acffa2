package conf

// keyValue is a single key=value occurrence. Order of occurrences is
// preserved, both across keys and across repeated values of the same key.
type keyValue struct {
	key   string
	value string
}

// Group is an ordered set of key/value pairs and child groups. Keys may
// repeat; repeated values form an ordered list. Child group names may repeat
// as well, each occurrence being a separate group.
type Group struct {
	name   string
	values []keyValue
	groups []*Group
}

// NewGroup creates a standalone group with the given name.
func NewGroup(name string) *Group {
	return &Group{name: name}
}

// Name returns the group name. The root group of a configuration has an
// empty name.
func (g *Group) Name() string {
	return g.name
}

// Value returns the first value stored under key, or an empty string if the
// key is not present.
func (g *Group) Value(key string) string {
	for _, kv := range g.values {
		if kv.key == key {
			return kv.value
		}
	}
	return ""
}

// Values returns all values stored under key, in insertion order.
func (g *Group) Values(key string) []string {
	var out []string
	for _, kv := range g.values {
		if kv.key == key {
			out = append(out, kv.value)
		}
	}
	return out
}

// Has reports whether at least one value is stored under key.
func (g *Group) Has(key string) bool {
	for _, kv := range g.values {
		if kv.key == key {
			return true
		}
	}
	return false
}

// SetValue replaces the first value stored under key, or appends the pair if
// the key is not present yet.
func (g *Group) SetValue(key, value string) {
	for i, kv := range g.values {
		if kv.key == key {
			g.values[i].value = value
			return
		}
	}
	g.values = append(g.values, keyValue{key: key, value: value})
}

// AddValue appends a value under key, keeping any existing values.
func (g *Group) AddValue(key, value string) {
	g.values = append(g.values, keyValue{key: key, value: value})
}

// RemoveValues removes all values stored under key.
func (g *Group) RemoveValues(key string) {
	kept := g.values[:0]
	for _, kv := range g.values {
		if kv.key != key {
			kept = append(kept, kv)
		}
	}
	g.values = kept
}

// KeyNames returns the distinct key names in first-occurrence order.
func (g *Group) KeyNames() []string {
	seen := make(map[string]bool, len(g.values))
	var out []string
	for _, kv := range g.values {
		if !seen[kv.key] {
			seen[kv.key] = true
			out = append(out, kv.key)
		}
	}
	return out
}

// Group returns the first child group with the given name, or nil.
func (g *Group) Group(name string) *Group {
	for _, child := range g.groups {
		if child.name == name {
			return child
		}
	}
	return nil
}

// Groups returns all child groups with the given name, in insertion order.
func (g *Group) Groups(name string) []*Group {
	var out []*Group
	for _, child := range g.groups {
		if child.name == name {
			out = append(out, child)
		}
	}
	return out
}

// AllGroups returns every child group in insertion order.
func (g *Group) AllGroups() []*Group {
	out := make([]*Group, len(g.groups))
	copy(out, g.groups)
	return out
}

// AddGroup appends a new child group with the given name and returns it.
// An existing child of the same name is kept; the new group is a separate
// occurrence.
func (g *Group) AddGroup(name string) *Group {
	child := &Group{name: name}
	g.groups = append(g.groups, child)
	return child
}

// GroupNames returns the distinct child group names in first-occurrence
// order.
func (g *Group) GroupNames() []string {
	seen := make(map[string]bool, len(g.groups))
	var out []string
	for _, child := range g.groups {
		if !seen[child.name] {
			seen[child.name] = true
			out = append(out, child.name)
		}
	}
	return out
}

// Clone returns a deep copy of the group.
func (g *Group) Clone() *Group {
	out := &Group{name: g.name}
	out.values = make([]keyValue, len(g.values))
	copy(out.values, g.values)
	out.groups = make([]*Group, 0, len(g.groups))
	for _, child := range g.groups {
		out.groups = append(out.groups, child.Clone())
	}
	return out
}

// IsEmpty reports whether the group has no values and no child groups.
func (g *Group) IsEmpty() bool {
	return len(g.values) == 0 && len(g.groups) == 0
}
