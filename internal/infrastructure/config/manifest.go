// Package config loads the project manifest (mlc.yaml): the declarative
// description of what a program is, which capabilities it requests, and how
// strictly it should be compiled and run.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/mlang-dev/mlc/internal/domain/capabilities"
	"github.com/mlang-dev/mlc/internal/sandbox"
)

// GrantRequest is one capability the manifest asks for.
type GrantRequest struct {
	Kind    string `yaml:"kind"`
	Pattern string `yaml:"pattern,omitempty"`
}

// LimitsConfig overrides the default resource limits. Zero fields keep the
// defaults.
type LimitsConfig struct {
	MaxSteps      int64  `yaml:"max_steps"`
	MaxAllocBytes int64  `yaml:"max_alloc_bytes"`
	WallClock     string `yaml:"wall_clock"`
}

// Manifest is the mlc.yaml structure.
type Manifest struct {
	// Script is the entry source file, relative to the manifest.
	Script string `yaml:"script"`
	// SecurityLevel is strict, standard, or permissive.
	SecurityLevel string `yaml:"security_level"`
	// AllowHigh downgrades high findings to warnings.
	AllowHigh bool `yaml:"allow_high"`
	// SecretScanning enables the embedded-secret analyzer pass.
	SecretScanning bool `yaml:"secret_scanning"`
	// Gate is an optional compile-gate expression over finding counts.
	Gate string `yaml:"gate"`

	Grants []GrantRequest `yaml:"grants"`
	Limits LimitsConfig   `yaml:"limits"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	m, err := LoadManifestFromReader(file)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// LoadManifestFromReader decodes and validates a manifest.
func LoadManifestFromReader(r io.Reader) (*Manifest, error) {
	var m Manifest
	decoder := yaml.NewDecoder(r, yaml.Strict())
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate applies defaults and rejects inconsistent manifests.
func (m *Manifest) Validate() error {
	if m.SecurityLevel == "" {
		m.SecurityLevel = "standard"
	}
	switch m.SecurityLevel {
	case "strict", "standard", "permissive":
	default:
		return fmt.Errorf("invalid security_level %q", m.SecurityLevel)
	}
	for _, g := range m.Grants {
		if _, err := capabilities.Issue(g.Kind, g.Pattern); err != nil {
			return fmt.Errorf("invalid grant %s:%s: %w", g.Kind, g.Pattern, err)
		}
	}
	if m.Limits.WallClock != "" {
		if _, err := time.ParseDuration(m.Limits.WallClock); err != nil {
			return fmt.Errorf("invalid limits.wall_clock %q: %w", m.Limits.WallClock, err)
		}
	}
	return nil
}

// Tokens converts the grant requests into capability tokens.
func (m *Manifest) Tokens() []capabilities.Token {
	tokens := make([]capabilities.Token, 0, len(m.Grants))
	for _, g := range m.Grants {
		tokens = append(tokens, capabilities.MustIssue(g.Kind, g.Pattern))
	}
	return tokens
}

// ResourceLimits converts the limits section, keeping defaults for zero
// fields.
func (m *Manifest) ResourceLimits() sandbox.ResourceLimits {
	limits := sandbox.ResourceLimits{
		MaxSteps:      m.Limits.MaxSteps,
		MaxAllocBytes: m.Limits.MaxAllocBytes,
	}
	if m.Limits.WallClock != "" {
		// Validate checked the duration already.
		d, _ := time.ParseDuration(m.Limits.WallClock)
		limits.WallClock = d
	}
	return limits
}
