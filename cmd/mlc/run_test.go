package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlang-dev/mlc/internal/domain/capabilities"
	"github.com/mlang-dev/mlc/internal/sandbox"
)

func TestLoadRunTargetManifest(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(`
script: scripts/main.ml
security_level: strict
grants:
  - kind: fs.read
    pattern: "data/*"
limits:
  wall_clock: 2s
`), 0o644))

	manifest, scriptPath, err := loadRunTarget(manifestPath)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "scripts", "main.ml"), scriptPath)
	assert.Equal(t, "strict", manifest.SecurityLevel)
	require.Len(t, manifest.Tokens(), 1)
	assert.Equal(t, "fs.read", manifest.Tokens()[0].Kind())
	assert.Equal(t, 2*time.Second, manifest.ResourceLimits().WallClock)
}

func TestLoadRunTargetBareScript(t *testing.T) {
	manifest, scriptPath, err := loadRunTarget("examples/hello.ml")
	require.NoError(t, err)

	assert.Equal(t, "examples/hello.ml", scriptPath)
	assert.Equal(t, "standard", manifest.SecurityLevel)
	assert.Empty(t, manifest.Tokens())
}

func TestLoadRunTargetManifestWithoutScript(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte("security_level: standard\n"), 0o644))

	_, _, err := loadRunTarget(manifestPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declares no script")
}

func TestRequestedTokensMergesGrantFlags(t *testing.T) {
	manifest, _, err := loadRunTarget("examples/hello.ml")
	require.NoError(t, err)

	runGrants = []string{"fs.read:data/*.csv"}
	defer func() { runGrants = nil }()

	tokens, err := requestedTokens(manifest)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "fs.read", tokens[0].Kind())
	assert.Equal(t, "data/*.csv", tokens[0].Pattern())

	runGrants = []string{"fs.read"}
	_, err = requestedTokens(manifest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected kind:pattern")
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, exitCapability, exitCodeFor(&capabilities.CapabilityError{Kind: "fs.read"}))
	assert.Equal(t, exitResource, exitCodeFor(&sandbox.ResourceExceededError{Kind: "cpu", Limit: "100 steps"}))
	assert.Equal(t, exitFault, exitCodeFor(&sandbox.Fault{Class: "TypeError", Msg: "boom"}))
	assert.Equal(t, exitFault, exitCodeFor(fmt.Errorf("wrapped: %w", &sandbox.SecurityError{Name: "eval"})))
}
