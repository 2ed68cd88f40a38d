package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlang-dev/mlc/internal/domain/findings"
)

func sampleReport() *AnalysisReport {
	return &AnalysisReport{
		Unit:    "scripts/deploy.ml",
		Version: "0.4.0",
		Findings: []findings.Finding{
			{
				Severity: findings.SevCritical,
				Category: findings.CategoryCodeInjection,
				Pos:      findings.Pos{Line: 3, Col: 5},
				Message:  "call to eval",
				RuleID:   "ML001",
			},
			{
				Severity: findings.SevMedium,
				Category: findings.CategoryUnsafeImport,
				Pos:      findings.Pos{Line: 7, Col: 1},
				Message:  "import of unknown module 'weird'",
				RuleID:   "ML010",
			},
		},
		Blocked:     true,
		BlockReason: "1 critical finding",
	}
}

func TestNewFormatter(t *testing.T) {
	var buf bytes.Buffer

	for _, format := range SupportedFormats() {
		f, err := NewFormatter(format, &buf)
		require.NoError(t, err, "format %s", format)
		assert.NotNil(t, f)
	}

	_, err := NewFormatter("xml", &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(&buf)
	f.EnableColor = false

	require.NoError(t, f.Format(sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "scripts/deploy.ml")
	assert.Contains(t, out, "CRITICAL")
	assert.Contains(t, out, "call to eval")
	assert.Contains(t, out, "BLOCKED")
	assert.Contains(t, out, "1 critical finding")
	assert.NotContains(t, out, "\033[", "color disabled")
}

func TestTableFormatterClean(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(&buf)
	f.EnableColor = false

	require.NoError(t, f.Format(&AnalysisReport{Unit: "ok.ml", Version: "0.4.0"}))

	out := buf.String()
	assert.Contains(t, out, "No findings.")
	assert.Contains(t, out, "OK")
	assert.NotContains(t, out, "BLOCKED")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(&buf)

	require.NoError(t, f.Format(sampleReport()))

	var decoded AnalysisReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "scripts/deploy.ml", decoded.Unit)
	assert.True(t, decoded.Blocked)
	require.Len(t, decoded.Findings, 2)
	assert.Equal(t, "ML001", decoded.Findings[0].RuleID)
	assert.Equal(t, findings.SevCritical, decoded.Findings[0].Severity)
	assert.Equal(t, 3, decoded.Findings[0].Pos.Line)
}

func TestSARIFFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewSARIFFormatter(&buf)

	require.NoError(t, f.Format(sampleReport()))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "2.1.0", doc["version"])

	out := buf.String()
	assert.Contains(t, out, `"ML001"`)
	assert.Contains(t, out, `"ML010"`)
	assert.Contains(t, out, "call to eval")
	assert.Contains(t, out, `"error"`, "critical maps to error level")
	assert.Contains(t, out, "scripts/deploy.ml")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestSARIFFormatterDeduplicatesRules(t *testing.T) {
	report := sampleReport()
	report.Findings = append(report.Findings, findings.Finding{
		Severity: findings.SevCritical,
		Category: findings.CategoryCodeInjection,
		Pos:      findings.Pos{Line: 9, Col: 1},
		Message:  "call to exec",
		RuleID:   "ML001",
	})

	var buf bytes.Buffer
	require.NoError(t, NewSARIFFormatter(&buf).Format(report))

	var doc struct {
		Runs []struct {
			Tool struct {
				Driver struct {
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []any `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Runs, 1)
	assert.Len(t, doc.Runs[0].Tool.Driver.Rules, 2, "ML001 registered once")
	assert.Len(t, doc.Runs[0].Results, 3)
}
