package capabilities

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlang-dev/mlc/internal/domain/capabilities"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "grants.yaml"))
	tokens, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "grants.yaml"))
	in := []capabilities.Token{
		capabilities.MustIssue("fs.read", "data/*.txt"),
		capabilities.MustIssue("env.read", "HOME"),
		capabilities.MustIssue("proc.spawn", ""),
	}
	require.NoError(t, store.Save(in))

	out, err := store.Load()
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		assert.True(t, out[i].Equals(in[i]), "token %d", i)
	}
}

func TestLoadRejectsMalformedPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grants:\n  - kind: fs.read\n    pattern: \"a****b\"\n"), 0o600))
	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grants: ["), 0o600))
	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}
