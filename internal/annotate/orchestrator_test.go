package annotate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docgen/internal/entity"
)

// fakeGenerator returns canned results per class id and records the
// requests it received.
type fakeGenerator struct {
	mu       sync.Mutex
	requests []*Request
	results  map[string]*ClassAnnotation
	errs     map[string][]error // popped per call, last entry repeats
}

func (f *fakeGenerator) Generate(ctx context.Context, req *Request) (*ClassAnnotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)

	if queue := f.errs[req.ClassID]; len(queue) > 0 {
		err := queue[0]
		if len(queue) > 1 {
			f.errs[req.ClassID] = queue[1:]
		}
		if err != nil {
			return nil, err
		}
	}
	if ann, ok := f.results[req.ClassID]; ok {
		return ann, nil
	}
	return &ClassAnnotation{ID: req.ClassID, Description: "canned", Confidence: 80}, nil
}

func (f *fakeGenerator) requestFor(classID string) *Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.ClassID == classID {
			return r
		}
	}
	return nil
}

func newTestClass(ucid string, methods ...*entity.Method) *entity.Class {
	c := entity.NewClass(ucid, ucid, entity.KindClass)
	c.Signature = "class " + ucid
	c.Body = "{ body of " + ucid + " }"
	for _, m := range methods {
		c.Methods[m.UMID] = m
	}
	return c
}

func newTestMethod(ucid, name string, line int) *entity.Method {
	return &entity.Method{
		UMID:       ucid + "#" + name + "()",
		ScopedID:   ucid + "." + name,
		ClassUCID:  ucid,
		Identifier: name,
		Signature:  "void " + name + "()",
		Body:       "{ " + name + " }",
		Line:       line,
	}
}

func projectOf(classes ...*entity.Class) []*entity.File {
	return []*entity.File{{UFID: "test.java", Classes: classes}}
}

func TestBuildRequest(t *testing.T) {
	t.Run("Cold start carries the full body", func(t *testing.T) {
		m1 := newTestMethod("p.A", "first", 3)
		m2 := newTestMethod("p.A", "second", 9)
		c := newTestClass("p.A", m1, m2)

		req, index := BuildRequest(c, []string{"p.util"})
		assert.False(t, req.Warm())
		assert.Equal(t, c.Body, req.Code)
		assert.Equal(t, []string{"p.util"}, req.Imports)

		// Index follows source-line order.
		require.Len(t, index, 2)
		assert.Same(t, m1, index[0])
		assert.Same(t, m2, index[1])
		assert.Equal(t, map[int]string{0: m1.Signature, 1: m2.Signature}, req.Methods)
		assert.Empty(t, req.Cached)
	})

	t.Run("Warm start sends cached context and dirty bodies only", func(t *testing.T) {
		m1 := newTestMethod("p.B", "cachedOne", 3)
		m1.Description = "Already known."
		m2 := newTestMethod("p.B", "dirtyOne", 9)
		c := newTestClass("p.B", m1, m2)
		c.Fields["x"] = &entity.Field{Identifier: "x", Signature: "int x"}

		nested := newTestClass("p.B.Inner")
		nested.Description = "Inner helper."
		c.Nested[nested.UCID] = nested

		req, index := BuildRequest(c, nil)
		assert.True(t, req.Warm())
		assert.Empty(t, req.Code)
		assert.Equal(t, map[int]string{0: "Already known."}, req.Cached)
		assert.Equal(t, map[int]string{1: m2.Body}, req.Dirty)
		assert.Equal(t, []string{"int x"}, req.Fields)
		require.Len(t, req.Nested, 1)
		assert.Equal(t, "Inner helper.", req.Nested[0].Description)
		assert.Same(t, m2, index[1])
	})
}

func TestOrchestrator_AnnotateProject(t *testing.T) {
	t.Run("Annotates dirty classes and merges by index", func(t *testing.T) {
		m1 := newTestMethod("p.A", "first", 3)
		m2 := newTestMethod("p.A", "second", 9)
		c := newTestClass("p.A", m1, m2)

		gen := &fakeGenerator{results: map[string]*ClassAnnotation{
			"p.A": {
				ID:          "p.A",
				Description: "Does things.",
				Confidence:  90,
				Methods: []MethodAnnotation{
					{MethodIndex: 0, Description: "First.", Confidence: 85},
					{MethodIndex: 1, Description: "Second.", Confidence: 70},
					{MethodIndex: 7, Description: "Ignored.", Confidence: 10},
				},
			},
		}}

		o := NewOrchestrator(gen, 2, 1, time.Millisecond)
		report := o.AnnotateProject(context.Background(), projectOf(c))

		assert.Equal(t, 1, report.Annotated)
		assert.Equal(t, 0, report.Failed)
		assert.Equal(t, "Does things.", c.Description)
		assert.Equal(t, 90, c.Confidence)
		assert.Equal(t, "First.", m1.Description)
		assert.Equal(t, "Second.", m2.Description)
	})

	t.Run("Skips classes with no dirty methods", func(t *testing.T) {
		m := newTestMethod("p.B", "done", 3)
		m.Description = "Cached."
		c := newTestClass("p.B", m)

		gen := &fakeGenerator{}
		o := NewOrchestrator(gen, 2, 1, time.Millisecond)
		report := o.AnnotateProject(context.Background(), projectOf(c))

		assert.Equal(t, 1, report.Skipped)
		assert.Empty(t, gen.requests)
	})

	t.Run("A failed class does not poison its siblings", func(t *testing.T) {
		good := newTestClass("p.Good", newTestMethod("p.Good", "run", 3))
		bad := newTestClass("p.Bad", newTestMethod("p.Bad", "run", 3))

		gen := &fakeGenerator{errs: map[string][]error{
			"p.Bad": {&TerminalError{Status: "auth", Message: "denied"}},
		}}
		o := NewOrchestrator(gen, 2, 3, time.Millisecond)
		report := o.AnnotateProject(context.Background(), projectOf(good, bad))

		assert.Equal(t, 1, report.Annotated)
		assert.Equal(t, 1, report.Failed)
		assert.Contains(t, report.Errors, "p.Bad")
		assert.NotEmpty(t, bad.AnnotateErr)
		assert.Empty(t, bad.Description)
		assert.Equal(t, "canned", good.Description)
		assert.Empty(t, good.AnnotateErr)
	})

	t.Run("Nested classes are annotated as independent tasks", func(t *testing.T) {
		inner := newTestClass("p.C.Inner", newTestMethod("p.C.Inner", "run", 5))
		outer := newTestClass("p.C", newTestMethod("p.C", "run", 3))
		outer.Nested[inner.UCID] = inner

		gen := &fakeGenerator{}
		o := NewOrchestrator(gen, 2, 1, time.Millisecond)
		report := o.AnnotateProject(context.Background(), projectOf(outer))

		assert.Equal(t, 2, report.Annotated)
		assert.NotNil(t, gen.requestFor("p.C"))
		assert.NotNil(t, gen.requestFor("p.C.Inner"))
	})
}

func TestOrchestrator_Retry(t *testing.T) {
	t.Run("Transient failures are retried until success", func(t *testing.T) {
		c := newTestClass("p.R", newTestMethod("p.R", "run", 3))
		gen := &fakeGenerator{errs: map[string][]error{
			"p.R": {
				&TransientError{Err: assert.AnError},
				&TransientError{Err: assert.AnError},
				nil,
			},
		}}

		o := NewOrchestrator(gen, 1, 3, time.Millisecond)
		report := o.AnnotateProject(context.Background(), projectOf(c))

		assert.Equal(t, 1, report.Annotated)
		assert.Len(t, gen.requests, 3)
		assert.Equal(t, "canned", c.Description)
	})

	t.Run("Exhausted retries fail the class", func(t *testing.T) {
		c := newTestClass("p.S", newTestMethod("p.S", "run", 3))
		gen := &fakeGenerator{errs: map[string][]error{
			"p.S": {&TransientError{Err: assert.AnError}},
		}}

		o := NewOrchestrator(gen, 1, 2, time.Millisecond)
		report := o.AnnotateProject(context.Background(), projectOf(c))

		assert.Equal(t, 1, report.Failed)
		assert.Len(t, gen.requests, 2)
		assert.NotEmpty(t, c.AnnotateErr)
	})

	t.Run("Terminal failures are not retried", func(t *testing.T) {
		c := newTestClass("p.T", newTestMethod("p.T", "run", 3))
		gen := &fakeGenerator{errs: map[string][]error{
			"p.T": {&TerminalError{Status: "schema", Message: "bad shape"}},
		}}

		o := NewOrchestrator(gen, 1, 5, time.Millisecond)
		report := o.AnnotateProject(context.Background(), projectOf(c))

		assert.Equal(t, 1, report.Failed)
		assert.Len(t, gen.requests, 1)
	})
}
