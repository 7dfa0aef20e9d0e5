package crawler

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Crawler scans a directory tree for Java source files.
type Crawler struct {
	ignored []string
}

// NewCrawler creates a new crawler instance.
func NewCrawler() *Crawler {
	return &Crawler{
		ignored: []string{".git", "build", "target", "out", "node_modules", ".gradle", ".idea"},
	}
}

// ScanProject walks the root directory and streams every Java source file
// through the callback, preventing large memory buildup. The relative path
// from root is the file's ufid.
func (c *Crawler) ScanProject(root string, onFile func(ufid string, source []byte) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip ignored directories
		if d.IsDir() {
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".java") {
			return nil
		}

		source, err := os.ReadFile(path)
		if err != nil {
			// Log and continue instead of failing the whole scan
			return nil
		}

		ufid, err := filepath.Rel(root, path)
		if err != nil {
			ufid = path
		}
		return onFile(filepath.ToSlash(ufid), source)
	})
}
