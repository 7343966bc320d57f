package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoContextBuildsTreeAndReadmeSummaries(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg", "core"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "left-pad"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("SECRET=1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "README.md"), []byte("The pkg directory holds libraries."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "config"), []byte("x"), 0o644))

	out := RepoContext(root)

	assert.Contains(t, out, "Project Structure:")
	assert.Contains(t, out, "main.go")
	assert.Contains(t, out, "pkg/")
	assert.Contains(t, out, "core/")
	assert.Contains(t, out, "README in pkg")
	assert.Contains(t, out, "The pkg directory holds libraries.")

	assert.NotContains(t, out, ".git")
	assert.NotContains(t, out, "node_modules")
	assert.NotContains(t, out, ".env", "hidden files stay out of the map")
}

func TestRepoContextTruncatesLongReadmes(t *testing.T) {
	root := t.TempDir()
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'r'
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), long, 0o644))

	out := RepoContext(root)
	assert.Contains(t, out, "README in .")
	assert.NotContains(t, out, string(long), "only the first bytes are kept")
}

func TestOperationalPresenceLookup(t *testing.T) {
	assert.Contains(t, OperationalPresence("Brazil"), "Primary hub")
	assert.Contains(t, OperationalPresence("  mexico "), "fintech")
	assert.Equal(t, "Status unknown for this region.", OperationalPresence("atlantis"))
}
