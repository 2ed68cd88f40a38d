package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter formats analysis reports as indented JSON.
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// Format writes the analysis report as JSON.
func (f *JSONFormatter) Format(report *AnalysisReport) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
