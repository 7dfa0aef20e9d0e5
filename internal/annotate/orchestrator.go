package annotate

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"docgen/internal/entity"
)

// Report summarizes one annotation pass.
type Report struct {
	Annotated int               // classes merged successfully
	Failed    int               // classes with a recorded error marker
	Skipped   int               // classes with no dirty methods
	Errors    map[string]string // ucid -> error message
}

// Orchestrator schedules one generation task per class needing annotation
// and runs them concurrently under a global in-flight ceiling. Failures
// are contained per class: a failed call records an error marker and
// leaves that class's descriptions untouched.
type Orchestrator struct {
	gen         Generator
	sem         *semaphore.Weighted
	maxAttempts int
	baseDelay   time.Duration
}

// NewOrchestrator creates an orchestrator with the given concurrency
// ceiling, attempt limit and initial backoff delay.
func NewOrchestrator(gen Generator, maxConcurrent int64, maxAttempts int, baseDelay time.Duration) *Orchestrator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	return &Orchestrator{
		gen:         gen,
		sem:         semaphore.NewWeighted(maxConcurrent),
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

// AnnotateProject schedules every class (nested ones included) that has at
// least one method without a cached description, waits for all tasks and
// returns the pass report. Classes whose methods are all clean are skipped.
func (o *Orchestrator) AnnotateProject(ctx context.Context, files []*entity.File) *Report {
	report := &Report{Errors: make(map[string]string)}
	var mu sync.Mutex
	var g errgroup.Group
	visited := make(map[string]bool)

	for _, f := range files {
		for _, c := range f.Classes {
			o.schedule(ctx, &g, c, f.Imports, visited, report, &mu)
		}
	}

	// Tasks contain their own failures, so Wait never returns an error.
	_ = g.Wait()
	return report
}

// schedule registers one generation task for the class and recurses into
// nested classes as independent tasks. The visited set guards against
// re-scheduling a class already seen in this pass.
func (o *Orchestrator) schedule(ctx context.Context, g *errgroup.Group, c *entity.Class, imports []string, visited map[string]bool, report *Report, mu *sync.Mutex) {
	if visited[c.UCID] {
		return
	}
	visited[c.UCID] = true

	for _, nested := range c.SortedNested() {
		o.schedule(ctx, g, nested, imports, visited, report, mu)
	}

	dirty := 0
	for _, m := range c.SortedMethods() {
		if m.Description == "" {
			dirty++
		}
	}
	if dirty == 0 {
		mu.Lock()
		report.Skipped++
		mu.Unlock()
		return
	}

	g.Go(func() error {
		o.annotateClass(ctx, c, imports, report, mu)
		return nil
	})
}

func (o *Orchestrator) annotateClass(ctx context.Context, c *entity.Class, imports []string, report *Report, mu *sync.Mutex) {
	fail := func(err error) {
		c.AnnotateErr = err.Error()
		mu.Lock()
		report.Failed++
		report.Errors[c.UCID] = err.Error()
		mu.Unlock()
	}

	if err := o.sem.Acquire(ctx, 1); err != nil {
		fail(err)
		return
	}
	defer o.sem.Release(1)

	// The index map is captured before the call and reused verbatim for
	// merge-back; it must not be re-derived afterwards.
	req, index := BuildRequest(c, imports)

	ann, err := o.generateWithRetry(ctx, req)
	if err != nil {
		fail(err)
		return
	}

	mergeAnnotation(c, index, ann)
	mu.Lock()
	report.Annotated++
	mu.Unlock()
}

// generateWithRetry retries transient failures with exponential backoff.
// Terminal failures and exhausted retries return the last error.
func (o *Orchestrator) generateWithRetry(ctx context.Context, req *Request) (*ClassAnnotation, error) {
	delay := o.baseDelay
	var last error
	for attempt := 0; attempt < o.maxAttempts; attempt++ {
		ann, err := o.gen.Generate(ctx, req)
		if err == nil {
			return ann, nil
		}
		if !IsTransient(err) {
			return nil, err
		}
		last = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, last
}

// BuildRequest shapes the payload for one class and returns the stable
// index -> method map used for merge-back. Cold start (no cached method
// in the class) sends the full body; warm start sends cached context and
// only the dirty bodies.
func BuildRequest(c *entity.Class, imports []string) (*Request, map[int]*entity.Method) {
	methods := c.SortedMethods()
	index := make(map[int]*entity.Method, len(methods))

	warm := false
	for _, m := range methods {
		if m.Description != "" {
			warm = true
			break
		}
	}

	req := &Request{
		ClassID:   c.UCID,
		Signature: c.Signature,
		Imports:   imports,
	}

	if !warm {
		req.Code = c.Body
		req.Methods = make(map[int]string, len(methods))
		for i, m := range methods {
			index[i] = m
			req.Methods[i] = m.Signature
		}
		return req, index
	}

	req.Cached = make(map[int]string)
	req.Dirty = make(map[int]string)
	for _, f := range c.SortedFields() {
		req.Fields = append(req.Fields, f.Signature)
	}
	for i, m := range methods {
		index[i] = m
		if m.Description != "" {
			req.Cached[i] = m.Description
		} else {
			req.Dirty[i] = m.Body
		}
	}
	for _, nested := range c.SortedNested() {
		req.Nested = append(req.Nested, NestedSummary{
			Signature:   nested.Signature,
			Description: nested.Description,
		})
	}
	return req, index
}

// mergeAnnotation writes a validated response back onto the class and its
// methods, mapping each entry through the captured index. Entries with an
// index outside the captured map are ignored.
func mergeAnnotation(c *entity.Class, index map[int]*entity.Method, ann *ClassAnnotation) {
	c.Description = ann.Description
	c.Confidence = ann.Confidence
	c.AnnotateErr = ""
	for _, ma := range ann.Methods {
		m, ok := index[ma.MethodIndex]
		if !ok {
			continue
		}
		m.Description = ma.Description
		m.Confidence = ma.Confidence
	}
}
