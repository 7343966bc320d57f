package tools

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var ignoredDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"uploads":      true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
}

const readmeSummaryBytes = 500

// RepoContext builds a text map of the repository under root: an indented
// file tree plus the first bytes of each README. Never returns an error;
// unreadable entries are simply skipped.
func RepoContext(root string) string {
	var tree []string
	var readmes strings.Builder

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if path != root && (ignoredDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
		} else if strings.HasPrefix(name, ".") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}

		depth := strings.Count(rel, string(os.PathSeparator))
		indent := strings.Repeat("    ", depth)
		if d.IsDir() {
			tree = append(tree, indent+name+"/")
		} else {
			tree = append(tree, indent+name)
		}

		if strings.EqualFold(name, "readme.md") {
			if content, err := os.ReadFile(path); err == nil {
				if len(content) > readmeSummaryBytes {
					content = content[:readmeSummaryBytes]
				}
				fmt.Fprintf(&readmes, "\n--- README in %s ---\n%s...\n", filepath.Dir(rel), content)
			}
		}

		return nil
	})

	return fmt.Sprintf("Project Structure:\n%s\n\nProject README Summaries:\n%s",
		strings.Join(tree, "\n"), readmes.String())
}
