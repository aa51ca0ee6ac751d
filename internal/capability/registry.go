package capability

import (
	"fmt"
	"sort"
)

// Registry maps capability IDs to their effect metadata and assigns each
// registered capability a dense uint32 index for hot-path dispatch.
//
// The registry is constructor-injected wherever a lookup is needed; there
// is no process-wide registry. All registration happens up front (normally
// from a manifest), after which the registry is read-only and safe for
// concurrent readers.
type Registry struct {
	entries map[ID]*Entry
	byIndex []*Entry
}

// Entry is a registered capability.
type Entry struct {
	ID       ID
	Name     string
	Metadata EffectMetadata
	Index    uint32
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[ID]*Entry)}
}

// Register adds a capability to the registry and assigns its index.
// Registering the same ID twice is an error: effect metadata is immutable
// after registration.
func (r *Registry) Register(id ID, name string, meta EffectMetadata) (*Entry, error) {
	if _, exists := r.entries[id]; exists {
		return nil, fmt.Errorf("capability %q already registered", id)
	}
	entry := &Entry{
		ID:       id,
		Name:     name,
		Metadata: meta,
		Index:    uint32(len(r.byIndex)),
	}
	r.entries[id] = entry
	r.byIndex = append(r.byIndex, entry)
	return entry, nil
}

// Lookup returns the entry for an ID, or nil if not registered.
func (r *Registry) Lookup(id ID) *Entry {
	return r.entries[id]
}

// ByIndex returns the entry with a given hot-path index, or nil if out of range.
func (r *Registry) ByIndex(index uint32) *Entry {
	if int(index) >= len(r.byIndex) {
		return nil
	}
	return r.byIndex[index]
}

// IDs returns all registered IDs in sorted order.
func (r *Registry) IDs() []ID {
	ids := make([]ID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

// IDSet returns the registered IDs as a set, suitable for the certificate
// pipeline's capability-availability check.
func (r *Registry) IDSet() map[ID]struct{} {
	set := make(map[ID]struct{}, len(r.entries))
	for id := range r.entries {
		set[id] = struct{}{}
	}
	return set
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int { return len(r.entries) }
