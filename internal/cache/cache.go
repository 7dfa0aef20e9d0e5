// Package cache decides which methods need re-annotation between runs.
// Dirtiness is determined purely by body-hash equality: no timestamps and
// no transitive propagation from dependencies.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"

	"docgen/internal/registry"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Entry is one persisted cache record for a method.
type Entry struct {
	Hash        string `json:"hash"`
	Description string `json:"description"`
}

// HashBody hashes a method body after stripping all whitespace, so purely
// cosmetic edits never invalidate a cache entry.
func HashBody(body string) string {
	normalized := whitespaceRe.ReplaceAllString(body, "")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Load seeds each registered method's description from the cache. A
// description is reused only when the stored hash matches the freshly
// computed one; any mismatch or absence leaves the description empty,
// marking the method dirty.
func Load(entries map[string]Entry, reg *registry.Registry) (clean, dirty int) {
	for _, m := range reg.All() {
		entry, ok := entries[m.UMID]
		if ok && entry.Hash == m.BodyHash && entry.Description != "" {
			m.Description = entry.Description
			clean++
			continue
		}
		m.Description = ""
		dirty++
	}
	return clean, dirty
}

// Export produces a fresh umid -> {hash, description} map reflecting the
// current run, for persistence by the storage layer.
func Export(reg *registry.Registry) map[string]Entry {
	out := make(map[string]Entry, reg.Len())
	for _, m := range reg.All() {
		out[m.UMID] = Entry{Hash: m.BodyHash, Description: m.Description}
	}
	return out
}
