package address

import (
	"sort"
	"sync"
)

// KindRegistry tracks the owner kinds addresses may attach to. Host
// applications register their own entity kinds at startup.
type KindRegistry struct {
	mu    sync.RWMutex
	kinds map[string]struct{}
}

// NewKindRegistry creates a registry seeded with the given kinds.
func NewKindRegistry(kinds ...string) *KindRegistry {
	r := &KindRegistry{kinds: make(map[string]struct{}, len(kinds))}
	for _, k := range kinds {
		r.kinds[k] = struct{}{}
	}
	return r
}

// Register adds an owner kind.
func (r *KindRegistry) Register(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[kind] = struct{}{}
}

// Known reports whether the kind is registered.
func (r *KindRegistry) Known(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.kinds[kind]
	return ok
}

// Kinds returns the registered kinds sorted for stable output.
func (r *KindRegistry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
