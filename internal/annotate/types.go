// Package annotate coordinates concurrent, rate-limited calls to an
// external description generator and merges the structured results back
// into the entity model.
package annotate

import (
	"context"
	"errors"
	"fmt"
)

// Request is the structured payload for one class-level generation call.
// Cold-start requests carry the full class body; warm-start requests carry
// cached context plus the bodies of dirty methods only.
type Request struct {
	ClassID   string          `json:"id"`
	Signature string          `json:"signature"`
	Imports   []string        `json:"imports"`
	Code      string          `json:"code,omitempty"`    // cold start: full class body
	Methods   map[int]string  `json:"methods,omitempty"` // cold start: index -> signature
	Fields    []string        `json:"fields,omitempty"`  // warm start: field signatures
	Cached    map[int]string  `json:"cached,omitempty"`  // warm start: index -> cached description
	Dirty     map[int]string  `json:"dirty,omitempty"`   // warm start: index -> body, dirty methods only
	Nested    []NestedSummary `json:"nested,omitempty"`  // warm start: nested class context
}

// Warm reports whether the request was shaped from cached context.
func (r *Request) Warm() bool { return r.Code == "" }

// NestedSummary is the nested-class context included in warm payloads.
type NestedSummary struct {
	Signature   string `json:"signature"`
	Description string `json:"description,omitempty"`
}

// MethodAnnotation is one per-method entry of a generator response. The
// index references the position assigned when the request was built.
type MethodAnnotation struct {
	MethodIndex int    `json:"method_index"`
	Description string `json:"description"`
	Confidence  int    `json:"confidence"`
}

// ClassAnnotation is the schema-validated generator response for one class.
type ClassAnnotation struct {
	ID          string             `json:"id"`
	Description string             `json:"description"`
	Confidence  int                `json:"confidence"`
	Methods     []MethodAnnotation `json:"methods"`
}

// Generator is the external annotation service contract.
type Generator interface {
	Generate(ctx context.Context, req *Request) (*ClassAnnotation, error)
}

// TransientError marks a retryable failure: rate limiting or temporary
// service unavailability.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient generator failure: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// TerminalError marks a non-retryable failure; Status is a short machine
// marker ("schema", "auth", "error") recorded against the class.
type TerminalError struct {
	Status  string
	Message string
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("generator failure (%s): %s", e.Status, e.Message)
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
