package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CareerIndex locates and extracts the configured career documents (CV,
// LinkedIn export) for retrieval-augmented answers about the author.
type CareerIndex struct {
	// Files are base names searched for in each of Dirs, in order.
	Files []string
	Dirs  []string
}

// Context returns the concatenated text of every career document it can
// find, or an explanatory fallback. Never returns an error.
func (c *CareerIndex) Context() string {
	var b strings.Builder

	for _, name := range c.Files {
		path := c.resolve(name)
		if path == "" {
			continue
		}

		text, err := extractAllText(path)
		if err != nil {
			fmt.Fprintf(&b, "--- Error reading %s: %v ---\n", name, err)
			continue
		}
		fmt.Fprintf(&b, "--- Source: %s ---\n%s\n\n", name, text)
	}

	if b.Len() == 0 {
		return "No career documents found."
	}
	return b.String()
}

// IsCareerFile reports whether a path names one of the career documents,
// so the augmenter can skip re-analyzing them as generic PDFs.
func (c *CareerIndex) IsCareerFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, name := range c.Files {
		if strings.ToLower(name) == base {
			return true
		}
	}
	return false
}

func (c *CareerIndex) resolve(name string) string {
	for _, dir := range c.Dirs {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
