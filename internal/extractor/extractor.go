// Package extractor turns raw source bytes into entity.File trees using
// language-specific tree-sitter walkers, registering every method into
// the symbol registry as it is built.
package extractor

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"docgen/internal/entity"
	"docgen/internal/registry"
)

// LanguageExtractor builds the entity tree for one grammar.
type LanguageExtractor interface {
	Language() *sitter.Language
	// BuildFile walks the parsed tree and produces the File entity,
	// registering each method into reg as it is created.
	BuildFile(ufid string, root *sitter.Node, source []byte, reg *registry.Registry) *entity.File
}

// Extractor orchestrates parsing and entity building for one language.
type Extractor struct {
	lang LanguageExtractor
	reg  *registry.Registry
}

// NewExtractor creates an extractor for the given language name.
func NewExtractor(lang string, reg *registry.Registry) (*Extractor, error) {
	switch lang {
	case "java":
		return &Extractor{lang: &JavaExtractor{}, reg: reg}, nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// ExtractSource parses one source unit and builds its File entity.
// Structural gaps inside the tree degrade to placeholder members; only a
// parser-level failure is reported as an error.
func (e *Extractor) ExtractSource(ctx context.Context, ufid string, source []byte) (*entity.File, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(e.lang.Language())
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ufid, err)
	}
	return e.lang.BuildFile(ufid, tree.RootNode(), source, e.reg), nil
}
