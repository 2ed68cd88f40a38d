package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifestDefaults(t *testing.T) {
	m, err := LoadManifestFromReader(strings.NewReader("script: main.ml\n"))
	require.NoError(t, err)
	assert.Equal(t, "main.ml", m.Script)
	assert.Equal(t, "standard", m.SecurityLevel)
	assert.False(t, m.AllowHigh)
	assert.Empty(t, m.Tokens())
}

func TestLoadManifestFull(t *testing.T) {
	doc := `
script: jobs/report.ml
security_level: strict
allow_high: true
secret_scanning: true
gate: "critical == 0 && high <= 1"
grants:
  - kind: fs.read
    pattern: "data/*.csv"
  - kind: env.read
    pattern: "REPORT_*"
limits:
  max_steps: 500000
  max_alloc_bytes: 1048576
  wall_clock: 2s
`
	m, err := LoadManifestFromReader(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "strict", m.SecurityLevel)
	assert.Len(t, m.Tokens(), 2)
	assert.Equal(t, "fs.read", m.Tokens()[0].Kind())

	limits := m.ResourceLimits()
	assert.Equal(t, int64(500000), limits.MaxSteps)
	assert.Equal(t, int64(1048576), limits.MaxAllocBytes)
	assert.Equal(t, 2*time.Second, limits.WallClock)
}

func TestManifestRejectsUnknownFields(t *testing.T) {
	_, err := LoadManifestFromReader(strings.NewReader("script: a.ml\nsurprise: true\n"))
	assert.Error(t, err)
}

func TestManifestRejectsInvalidSecurityLevel(t *testing.T) {
	_, err := LoadManifestFromReader(strings.NewReader("script: a.ml\nsecurity_level: yolo\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "security_level")
}

func TestManifestRejectsMalformedGrantPattern(t *testing.T) {
	doc := `
script: a.ml
grants:
  - kind: fs.read
    pattern: "a****"
`
	_, err := LoadManifestFromReader(strings.NewReader(doc))
	assert.Error(t, err)
}

func TestManifestRejectsBadDuration(t *testing.T) {
	doc := `
script: a.ml
limits:
  wall_clock: sometime
`
	_, err := LoadManifestFromReader(strings.NewReader(doc))
	assert.Error(t, err)
}
