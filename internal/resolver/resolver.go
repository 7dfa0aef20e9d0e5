// Package resolver converts raw call-site names into resolved references
// between registered methods. Resolution is a whole-project pass: it runs
// only after every file's methods are registered, so forward references
// resolve regardless of traversal order.
package resolver

import (
	"docgen/internal/entity"
	"docgen/internal/registry"
)

// Tier names recorded on resolved dependencies.
const (
	TierLocal  = "local"
	TierImport = "import"
	TierGlobal = "global"
)

// Stats summarizes one resolution pass.
type Stats struct {
	Methods    int // methods visited
	Resolved   int // resolved edges produced (ambiguous included)
	Ambiguous  int // edges tagged ambiguous
	Unresolved int // raw names with no candidate in any tier
}

// Resolver resolves method dependencies against a fully populated registry.
type Resolver struct {
	reg *registry.Registry
}

func New(reg *registry.Registry) *Resolver {
	return &Resolver{reg: reg}
}

// ResolveProject resolves every method in every class of every file.
func (r *Resolver) ResolveProject(files []*entity.File) Stats {
	var stats Stats
	for _, f := range files {
		for _, c := range f.Classes {
			r.resolveClass(c, f.Imports, &stats)
		}
	}
	return stats
}

func (r *Resolver) resolveClass(c *entity.Class, imports []string, stats *Stats) {
	for _, m := range c.SortedMethods() {
		r.ResolveMethod(m, imports)
		stats.Methods++
		stats.Resolved += len(m.Dependencies)
		for _, d := range m.Dependencies {
			if d.Ambiguous {
				stats.Ambiguous++
			}
		}
		stats.Unresolved += len(m.Unresolved)
	}
	for _, nested := range c.SortedNested() {
		r.resolveClass(nested, imports, stats)
	}
}

// ResolveMethod resolves one method's raw dependency set. Tiers apply in
// strict order, stopping at the first tier with any candidate:
//
//  1. local:  <enclosing-class-ucid>.<name> in the overload index
//  2. import: <import>.<name> for each import in file order, accumulated
//  3. global: bare <name> across the whole registry
//
// A name with no candidate in any tier is recorded as unresolved; that is
// expected for calls into code outside the analyzed project.
func (r *Resolver) ResolveMethod(m *entity.Method, imports []string) {
	m.Dependencies = nil
	m.Unresolved = nil

	for _, raw := range m.RawDeps {
		candidates := r.reg.ByScoped(m.ClassUCID + "." + raw.Name)
		tier := TierLocal

		if len(candidates) == 0 {
			tier = TierImport
			for _, imp := range imports {
				candidates = append(candidates, r.reg.ByScoped(imp+"."+raw.Name)...)
			}
		}

		if len(candidates) == 0 {
			tier = TierGlobal
			candidates = r.reg.ByShortName(raw.Name)
		}

		if len(candidates) == 0 {
			m.Unresolved = append(m.Unresolved, raw.Name)
			continue
		}

		m.Dependencies = append(m.Dependencies, narrow(candidates, raw.Argc, tier)...)
	}

	m.Dependencies = dedupe(m.Dependencies)
	m.Dependencies = dropSelf(m.Dependencies, m.UMID)
}

// narrow applies the single-candidate-vs-arity-filtered policy to the
// candidates of one tier. A lone candidate resolves directly regardless of
// arity. Among overloads only arity-matching candidates survive; a unique
// survivor is a confident resolution, several survivors stay as tagged
// ambiguous resolutions. Arity is the sole disambiguator; overloads
// sharing a parameter count stay ambiguous.
func narrow(candidates []*entity.Method, argc int, tier string) []entity.Dependency {
	if len(candidates) == 1 {
		return []entity.Dependency{{
			Target:   candidates[0],
			TargetID: candidates[0].UMID,
			Tier:     tier,
		}}
	}

	var matching []*entity.Method
	for _, cand := range candidates {
		if cand.Arity == argc {
			matching = append(matching, cand)
		}
	}
	if len(matching) == 1 {
		return []entity.Dependency{{
			Target:   matching[0],
			TargetID: matching[0].UMID,
			Tier:     tier,
		}}
	}

	out := make([]entity.Dependency, 0, len(matching))
	for _, cand := range matching {
		out = append(out, entity.Dependency{
			Target:    cand,
			TargetID:  cand.UMID,
			Tier:      tier,
			Ambiguous: true,
		})
	}
	return out
}

// dedupe keeps the first edge per target method.
func dedupe(deps []entity.Dependency) []entity.Dependency {
	seen := make(map[string]bool, len(deps))
	out := deps[:0]
	for _, d := range deps {
		if seen[d.TargetID] {
			continue
		}
		seen[d.TargetID] = true
		out = append(out, d)
	}
	return out
}

// dropSelf removes self-references: recursion is recorded implicitly by
// absence, never as a self-edge.
func dropSelf(deps []entity.Dependency, umid string) []entity.Dependency {
	out := deps[:0]
	for _, d := range deps {
		if d.TargetID == umid {
			continue
		}
		out = append(out, d)
	}
	return out
}
