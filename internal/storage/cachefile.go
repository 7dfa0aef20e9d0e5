package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"docgen/internal/cache"
)

// LoadCacheFile reads the persisted umid -> {hash, description} map. A
// missing file is a cold start, not an error.
func LoadCacheFile(path string) (map[string]cache.Entry, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]cache.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file %s: %w", path, err)
	}

	entries := make(map[string]cache.Entry)
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode cache file %s: %w", path, err)
	}
	return entries, nil
}

// SaveCacheFile writes the cache map for the next run.
func SaveCacheFile(path string, entries map[string]cache.Entry) error {
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", path, err)
	}
	return nil
}
