package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docgen/internal/entity"
	"docgen/internal/registry"
)

func newMethod(ucid, identifier string, paramTypes ...string) *entity.Method {
	umid := ucid + "#" + identifier + "("
	for i, p := range paramTypes {
		if i > 0 {
			umid += ","
		}
		umid += p
	}
	umid += ")"
	return &entity.Method{
		UMID:       umid,
		ScopedID:   ucid + "." + identifier,
		ClassUCID:  ucid,
		Identifier: identifier,
		Arity:      len(paramTypes),
	}
}

func TestResolver_Tiers(t *testing.T) {
	reg := registry.New()

	// com.acme.A has helper(); com.other.B has helper() too.
	helperA := newMethod("com.acme.A", "helper")
	helperB := newMethod("com.other.B", "helper")
	reg.Register(helperA)
	reg.Register(helperB)

	// caller lives in com.acme.A as well, for the local-tier case.
	localHelper := newMethod("com.acme.C", "helper")
	reg.Register(localHelper)

	r := New(reg)

	t.Run("Local tier wins over everything", func(t *testing.T) {
		m := newMethod("com.acme.C", "caller")
		m.RawDeps = []entity.RawDep{{Name: "helper", Argc: 0}}
		reg.Register(m)

		r.ResolveMethod(m, []string{"com.acme.A"})
		require.Len(t, m.Dependencies, 1)
		assert.Equal(t, localHelper.UMID, m.Dependencies[0].TargetID)
		assert.Equal(t, TierLocal, m.Dependencies[0].Tier)
	})

	t.Run("Import tier consults imports in file order", func(t *testing.T) {
		m := newMethod("com.acme.D", "caller")
		m.RawDeps = []entity.RawDep{{Name: "helper", Argc: 0}}
		reg.Register(m)

		r.ResolveMethod(m, []string{"com.acme.A"})
		require.Len(t, m.Dependencies, 1)
		assert.Equal(t, helperA.UMID, m.Dependencies[0].TargetID)
		assert.Equal(t, TierImport, m.Dependencies[0].Tier)
	})

	t.Run("Import tier accumulates across imports", func(t *testing.T) {
		m := newMethod("com.acme.E", "caller")
		m.RawDeps = []entity.RawDep{{Name: "helper", Argc: 0}}
		reg.Register(m)

		r.ResolveMethod(m, []string{"com.acme.A", "com.other.B"})
		// Two candidates, both zero-arity: kept as ambiguous edges.
		require.Len(t, m.Dependencies, 2)
		for _, d := range m.Dependencies {
			assert.Equal(t, TierImport, d.Tier)
			assert.True(t, d.Ambiguous)
		}
	})

	t.Run("Global tier is the last resort", func(t *testing.T) {
		m := newMethod("com.acme.F", "caller")
		m.RawDeps = []entity.RawDep{{Name: "helper", Argc: 0}}
		reg.Register(m)

		r.ResolveMethod(m, nil)
		// No imports: falls through to the global short-name index,
		// which holds three zero-arity helpers.
		require.Len(t, m.Dependencies, 3)
		for _, d := range m.Dependencies {
			assert.Equal(t, TierGlobal, d.Tier)
			assert.True(t, d.Ambiguous)
		}
	})
}

func TestResolver_ArityFilter(t *testing.T) {
	reg := registry.New()
	foo1 := newMethod("p.A", "foo", "int")
	foo2 := newMethod("p.A", "foo", "int", "int")
	reg.Register(foo1)
	reg.Register(foo2)

	r := New(reg)

	t.Run("Arity narrows overloads to one confident edge", func(t *testing.T) {
		m := newMethod("p.B", "caller")
		m.RawDeps = []entity.RawDep{{Name: "foo", Argc: 2}}
		reg.Register(m)

		r.ResolveMethod(m, []string{"p.A"})
		require.Len(t, m.Dependencies, 1)
		assert.Equal(t, foo2.UMID, m.Dependencies[0].TargetID)
		assert.False(t, m.Dependencies[0].Ambiguous)
		assert.Same(t, foo2, m.Dependencies[0].Target)
	})

	t.Run("No arity match yields no edge", func(t *testing.T) {
		m := newMethod("p.C", "caller")
		m.RawDeps = []entity.RawDep{{Name: "foo", Argc: 5}}
		reg.Register(m)

		r.ResolveMethod(m, []string{"p.A"})
		assert.Empty(t, m.Dependencies)
		// The name existed in the tier, so it is not unresolved either.
		assert.Empty(t, m.Unresolved)
	})

	t.Run("Lone candidate resolves regardless of arity", func(t *testing.T) {
		bar := newMethod("p.A", "bar", "int", "int", "int")
		reg.Register(bar)

		m := newMethod("p.D", "caller")
		m.RawDeps = []entity.RawDep{{Name: "bar", Argc: 0}}
		reg.Register(m)

		r.ResolveMethod(m, []string{"p.A"})
		require.Len(t, m.Dependencies, 1)
		assert.Equal(t, bar.UMID, m.Dependencies[0].TargetID)
		assert.False(t, m.Dependencies[0].Ambiguous)
	})
}

func TestResolver_Hygiene(t *testing.T) {
	reg := registry.New()
	r := New(reg)

	t.Run("Unknown names are recorded as unresolved", func(t *testing.T) {
		m := newMethod("p.A", "caller")
		m.RawDeps = []entity.RawDep{{Name: "max", Argc: 2}}
		reg.Register(m)

		r.ResolveMethod(m, nil)
		assert.Empty(t, m.Dependencies)
		assert.Equal(t, []string{"max"}, m.Unresolved)
	})

	t.Run("Self-edges are dropped", func(t *testing.T) {
		m := newMethod("p.B", "fib", "int")
		m.RawDeps = []entity.RawDep{{Name: "fib", Argc: 1}}
		reg.Register(m)

		r.ResolveMethod(m, nil)
		assert.Empty(t, m.Dependencies)
	})

	t.Run("Edges dedupe by target", func(t *testing.T) {
		target := newMethod("p.C", "work")
		reg.Register(target)

		m := newMethod("p.D", "caller")
		// Same callee seen at two apparent arities; the lone-candidate
		// rule resolves both raw deps to the same target.
		m.RawDeps = []entity.RawDep{{Name: "work", Argc: 0}, {Name: "work", Argc: 3}}
		reg.Register(m)

		r.ResolveMethod(m, nil)
		require.Len(t, m.Dependencies, 1)
		assert.Equal(t, target.UMID, m.Dependencies[0].TargetID)
	})
}

func TestResolver_ResolveProject(t *testing.T) {
	reg := registry.New()

	callee := newMethod("p.A", "work")
	reg.Register(callee)

	caller := newMethod("p.A", "run")
	caller.RawDeps = []entity.RawDep{
		{Name: "work", Argc: 0},
		{Name: "missing", Argc: 1},
	}
	reg.Register(caller)

	class := entity.NewClass("p.A", "A", entity.KindClass)
	class.Methods[callee.UMID] = callee
	class.Methods[caller.UMID] = caller
	files := []*entity.File{{UFID: "A.java", Package: "p", Classes: []*entity.Class{class}}}

	stats := New(reg).ResolveProject(files)
	assert.Equal(t, 2, stats.Methods)
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, 0, stats.Ambiguous)
	assert.Equal(t, 1, stats.Unresolved)
	assert.True(t, caller.DependsOn(callee.UMID))
}
