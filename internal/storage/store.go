// Package storage holds the persistence collaborators: the JSON cache
// file exchanged with the cache manager and the SQLite model store.
package storage

import (
	"context"

	"docgen/internal/entity"
	"docgen/internal/registry"
)

// ModelStore defines operations for persisting the structural model.
type ModelStore interface {
	// SaveProject upserts the full file/class/method/field tree.
	SaveProject(ctx context.Context, files []*entity.File) error

	// LoadProject rebuilds the entity tree, registering every method
	// into reg and re-linking resolved dependency references.
	LoadProject(ctx context.Context, reg *registry.Registry) ([]*entity.File, error)

	Close() error
}
