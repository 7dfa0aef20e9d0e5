// Package registry holds the per-run symbol registry: every method built
// by the extractor, reachable through three lookup views. The registry is
// an explicit context object constructed once per run and passed to the
// extractor and resolver; it never owns the methods it indexes.
package registry

import (
	"sort"

	"docgen/internal/entity"
)

// Registry indexes methods by unique id, by class-scoped name (grouping
// overloads) and by bare identifier. Registration must complete for the
// whole project before any resolution pass reads it.
type Registry struct {
	byUMID  map[string]*entity.Method
	byScope map[string][]*entity.Method
	byShort map[string][]*entity.Method
}

func New() *Registry {
	return &Registry{
		byUMID:  make(map[string]*entity.Method),
		byScope: make(map[string][]*entity.Method),
		byShort: make(map[string][]*entity.Method),
	}
}

// Register adds a method to all three indices. Callers register each
// method exactly once; a duplicate umid replaces the previous entry in
// the unique index but is never double-appended to the overload lists.
func (r *Registry) Register(m *entity.Method) {
	if m == nil || m.UMID == "" {
		return
	}
	if _, exists := r.byUMID[m.UMID]; exists {
		return
	}
	r.byUMID[m.UMID] = m
	r.byScope[m.ScopedID] = append(r.byScope[m.ScopedID], m)
	r.byShort[m.Identifier] = append(r.byShort[m.Identifier], m)
}

// ByUMID returns the method with the given unique id, if registered.
func (r *Registry) ByUMID(umid string) (*entity.Method, bool) {
	m, ok := r.byUMID[umid]
	return m, ok
}

// ByScoped returns every overload registered under <ucid>.<identifier>.
// Unknown keys yield an empty slice, not an error.
func (r *Registry) ByScoped(scopedID string) []*entity.Method {
	return r.byScope[scopedID]
}

// ByShortName returns every method anywhere sharing the bare identifier.
func (r *Registry) ByShortName(identifier string) []*entity.Method {
	return r.byShort[identifier]
}

// Len reports the number of registered methods.
func (r *Registry) Len() int {
	return len(r.byUMID)
}

// All returns every registered method ordered by umid, so passes that
// iterate the whole registry (cache seeding, export) are deterministic.
func (r *Registry) All() []*entity.Method {
	out := make([]*entity.Method, 0, len(r.byUMID))
	for _, m := range r.byUMID {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UMID < out[j].UMID })
	return out
}
