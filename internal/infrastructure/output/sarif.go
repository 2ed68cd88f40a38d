package output

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"

	"github.com/mlang-dev/mlc/internal/domain/findings"
)

// SARIFFormatter formats analysis reports as SARIF 2.1.0 JSON.
// Analyzer rules become SARIF rules and findings become results with
// source locations, so CI systems can annotate the scripts directly.
type SARIFFormatter struct {
	writer io.Writer
}

// NewSARIFFormatter creates a new SARIF formatter.
func NewSARIFFormatter(writer io.Writer) *SARIFFormatter {
	return &SARIFFormatter{writer: writer}
}

// Format writes the analysis report as SARIF 2.1.0 JSON.
func (f *SARIFFormatter) Format(report *AnalysisReport) error {
	doc := sarif.NewReport()

	run := sarif.NewRunWithInformationURI("mlc", "https://github.com/mlang-dev/mlc")
	run.Tool.Driver.Version = &report.Version

	addRules(run, report.Findings)
	for _, finding := range report.Findings {
		run.AddResult(mapFinding(report.Unit, finding))
	}

	if report.Blocked {
		props := sarif.NewPropertyBag()
		props.Add("blocked", true)
		props.Add("blockReason", report.BlockReason)
		run.WithProperties(props)
	}

	doc.AddRun(run)

	if err := doc.Write(f.writer); err != nil {
		return fmt.Errorf("failed to write SARIF output: %w", err)
	}
	_, err := f.writer.Write([]byte("\n"))
	return err
}

// addRules registers each distinct rule ID once, regardless of how many
// findings it produced.
func addRules(run *sarif.Run, all []findings.Finding) {
	seen := make(map[string]bool)
	for _, finding := range all {
		if seen[finding.RuleID] {
			continue
		}
		seen[finding.RuleID] = true

		category := string(finding.Category)
		rule := sarif.NewReportingDescriptor().WithID(finding.RuleID)
		rule.WithName(finding.RuleID)
		rule.WithShortDescription(&sarif.MultiformatMessageString{
			Text: &category,
		})
		rule.WithDefaultConfiguration(&sarif.ReportingConfiguration{
			Level: severityToLevel(finding.Severity),
		})

		props := sarif.NewPropertyBag()
		props.Add("category", category)
		rule.WithProperties(props)

		run.Tool.Driver.AddRule(rule)
	}
}

func mapFinding(unit string, finding findings.Finding) *sarif.Result {
	result := sarif.NewRuleResult(finding.RuleID)
	result.Level = severityToLevel(finding.Severity)
	result.Message = sarif.NewTextMessage(finding.Message)

	pLoc := sarif.NewPhysicalLocation().
		WithArtifactLocation(sarif.NewArtifactLocation().WithURI(unit))
	if finding.Pos.Line > 0 {
		region := sarif.NewRegion().WithStartLine(finding.Pos.Line)
		if finding.Pos.Col > 0 {
			region.WithStartColumn(finding.Pos.Col)
		}
		pLoc.WithRegion(region)
	}
	result.Locations = []*sarif.Location{
		sarif.NewLocation().WithPhysicalLocation(pLoc),
	}

	props := sarif.NewPropertyBag()
	props.Add("severity", finding.Severity.String())
	result.WithProperties(props)

	return result
}

// severityToLevel converts analyzer severity to a SARIF level.
func severityToLevel(sev findings.Severity) string {
	switch sev.String() {
	case "critical", "high":
		return "error"
	case "medium", "low":
		return "warning"
	default:
		return "warning"
	}
}
