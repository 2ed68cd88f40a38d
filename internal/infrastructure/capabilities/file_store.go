// Package capabilities persists capability grants and prompts the user for
// new ones.
package capabilities

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mlang-dev/mlc/internal/domain/capabilities"
)

// FileStore is the file-based persistence for granted capability tokens,
// normally ~/.mlc/grants.yaml.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// grantFile is the YAML structure of the grants file.
type grantFile struct {
	Grants []grantRecord `yaml:"grants"`
}

type grantRecord struct {
	Kind    string `yaml:"kind"`
	Pattern string `yaml:"pattern,omitempty"`
}

// Load reads the persisted grants. A missing file is an empty grant set, not
// an error; a malformed pattern in the file is.
func (s *FileStore) Load() ([]capabilities.Token, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read grants file: %w", err)
	}
	var doc grantFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse grants file %s: %w", s.path, err)
	}
	tokens := make([]capabilities.Token, 0, len(doc.Grants))
	for _, rec := range doc.Grants {
		tok, err := capabilities.Issue(rec.Kind, rec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("grants file %s: %w", s.path, err)
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// Save writes the grant set, replacing the previous contents.
func (s *FileStore) Save(tokens []capabilities.Token) error {
	doc := grantFile{Grants: make([]grantRecord, 0, len(tokens))}
	for _, tok := range tokens {
		doc.Grants = append(doc.Grants, grantRecord{Kind: tok.Kind(), Pattern: tok.Pattern()})
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal grants: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create grants directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write grants file: %w", err)
	}
	return nil
}
