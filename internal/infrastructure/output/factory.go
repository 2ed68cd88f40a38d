// Package output provides formatters for analysis reports: a human-readable
// table, machine-readable JSON, and SARIF 2.1.0 for code-scanning viewers.
package output

import (
	"fmt"
	"io"

	"github.com/mlang-dev/mlc/internal/domain/findings"
)

// AnalysisReport is what formatters render: the findings of one compilation
// unit together with the policy verdict.
type AnalysisReport struct {
	Unit        string             `json:"unit"`
	Version     string             `json:"version"`
	Findings    []findings.Finding `json:"findings"`
	Blocked     bool               `json:"blocked"`
	BlockReason string             `json:"block_reason,omitempty"`
}

// Formatter renders an analysis report to its writer.
type Formatter interface {
	Format(report *AnalysisReport) error
}

// NewFormatter returns a formatter for the given format name.
func NewFormatter(format string, writer io.Writer) (Formatter, error) {
	switch format {
	case "table":
		return NewTableFormatter(writer), nil
	case "json":
		return NewJSONFormatter(writer), nil
	case "sarif":
		return NewSARIFFormatter(writer), nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: %v)", format, SupportedFormats())
	}
}

// SupportedFormats lists available format names.
func SupportedFormats() []string {
	return []string{"table", "json", "sarif"}
}
