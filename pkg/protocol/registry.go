package protocol

import "fmt"

// ObjectDescriptor is the static, immutable-after-construction record for
// one known device field (spec.md §3 "Object descriptor").
type ObjectDescriptor struct {
	ID       uint32
	Name     string
	DataType DataType
}

// Registry is an immutable lookup table, id <-> name <-> data type.
type Registry struct {
	byID   map[uint32]ObjectDescriptor
	byName map[string]ObjectDescriptor
}

// NewRegistry builds a Registry from the given descriptors. Panics on a
// duplicate id or name since the registry is a startup-time invariant, not
// a runtime condition.
func NewRegistry(descs []ObjectDescriptor) *Registry {
	r := &Registry{
		byID:   make(map[uint32]ObjectDescriptor, len(descs)),
		byName: make(map[string]ObjectDescriptor, len(descs)),
	}
	for _, d := range descs {
		if _, exists := r.byID[d.ID]; exists {
			panic(fmt.Sprintf("protocol: duplicate object id 0x%08X (%s)", d.ID, d.Name))
		}
		if _, exists := r.byName[d.Name]; exists {
			panic(fmt.Sprintf("protocol: duplicate object name %q", d.Name))
		}
		r.byID[d.ID] = d
		r.byName[d.Name] = d
	}
	return r
}

// ByID looks up a descriptor by object id.
func (r *Registry) ByID(id uint32) (ObjectDescriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// ByName looks up a descriptor by symbolic name.
func (r *Registry) ByName(name string) (ObjectDescriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// MustByName looks up a descriptor by name, panicking if it is absent. Used
// at startup by package device to wire handlers against DefaultRegistry;
// any mismatch here is a programming error, not a runtime condition.
func (r *Registry) MustByName(name string) ObjectDescriptor {
	d, ok := r.byName[name]
	if !ok {
		panic(fmt.Sprintf("protocol: unknown object name %q", name))
	}
	return d
}
