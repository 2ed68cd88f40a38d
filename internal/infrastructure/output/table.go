package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/mlang-dev/mlc/internal/domain/findings"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// TableFormatter renders a report for terminals.
type TableFormatter struct {
	writer      io.Writer
	EnableColor bool
}

// NewTableFormatter creates a table formatter with color enabled.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w, EnableColor: true}
}

func (f *TableFormatter) colorize(text, code string) string {
	if !f.EnableColor {
		return text
	}
	return code + text + colorReset
}

// Format writes the report as a table.
//
//nolint:errcheck // Table formatting errors are non-critical (best-effort terminal output)
func (f *TableFormatter) Format(report *AnalysisReport) error {
	fmt.Fprintln(f.writer, f.colorize(strings.Repeat("─", 72), colorGray))
	fmt.Fprintf(f.writer, "Unit: %s\n", f.colorize(report.Unit, colorBold))
	fmt.Fprintln(f.writer)

	if len(report.Findings) == 0 {
		fmt.Fprintln(f.writer, f.colorize("No findings.", colorGreen))
	} else {
		for _, finding := range report.Findings {
			f.formatFinding(finding)
		}
	}

	fmt.Fprintln(f.writer, f.colorize(strings.Repeat("─", 72), colorGray))
	if report.Blocked {
		fmt.Fprintf(f.writer, "%s %s\n", f.colorize("BLOCKED", colorRed+colorBold), report.BlockReason)
	} else {
		fmt.Fprintln(f.writer, f.colorize("OK", colorGreen+colorBold))
	}
	return nil
}

//nolint:errcheck // best-effort terminal output
func (f *TableFormatter) formatFinding(finding findings.Finding) {
	sev := strings.ToUpper(finding.Severity.String())
	switch finding.Severity.String() {
	case "critical", "high":
		sev = f.colorize(sev, colorRed)
	case "medium":
		sev = f.colorize(sev, colorYellow)
	default:
		sev = f.colorize(sev, colorGray)
	}
	fmt.Fprintf(f.writer, "  %-24s %-8s %-20s %s\n",
		sev, finding.Pos, f.colorize(string(finding.Category), colorGray), finding.Message)
}
