// Package project drives the structural pass: crawl the source tree,
// extract every file into the entity model, then resolve call
// dependencies once the whole registry is populated.
package project

import (
	"context"
	"log"

	"docgen/internal/crawler"
	"docgen/internal/entity"
	"docgen/internal/extractor"
	"docgen/internal/registry"
	"docgen/internal/resolver"
)

// Scanner builds the project model from a source tree.
type Scanner struct {
	crawler *crawler.Crawler
	ext     *extractor.Extractor
	reg     *registry.Registry
}

// NewScanner wires a scanner for the given language.
func NewScanner(lang string, reg *registry.Registry) (*Scanner, error) {
	ext, err := extractor.NewExtractor(lang, reg)
	if err != nil {
		return nil, err
	}
	return &Scanner{
		crawler: crawler.NewCrawler(),
		ext:     ext,
		reg:     reg,
	}, nil
}

// Scan extracts every source file under root and resolves dependencies.
// Resolution only starts after extraction finishes: a call site can
// reference a method in a file that has not been parsed yet.
func (s *Scanner) Scan(ctx context.Context, root string) ([]*entity.File, resolver.Stats, error) {
	var files []*entity.File
	err := s.crawler.ScanProject(root, func(ufid string, source []byte) error {
		f, err := s.ext.ExtractSource(ctx, ufid, source)
		if err != nil {
			// A file the parser cannot handle should not sink the scan.
			log.Printf("skipping %s: %v", ufid, err)
			return nil
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, resolver.Stats{}, err
	}

	stats := resolver.New(s.reg).ResolveProject(files)
	return files, stats, nil
}
