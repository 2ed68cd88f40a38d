package findings

import "fmt"

// Category classifies the dangerous pattern a finding reports.
type Category string

const (
	CategoryCodeInjection    Category = "code-injection"
	CategoryReflectionAbuse  Category = "reflection-abuse"
	CategoryUnsafeImport     Category = "unsafe-import"
	CategoryCapabilityBypass Category = "capability-bypass"
	CategoryUnsafeAttribute  Category = "unsafe-attribute"
	CategoryEmbeddedSecret   Category = "embedded-secret"
)

// Pos is a 1-based source location.
type Pos struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Finding is one analyzer-detected security-relevant pattern. Findings are
// immutable once produced; a compilation pass produces them exactly once.
type Finding struct {
	Severity Severity `json:"severity"`
	Category Category `json:"category"`
	Pos      Pos      `json:"pos"`
	Message  string   `json:"message"`
	// RuleID identifies the analyzer rule that produced the finding,
	// stable across runs (used as the SARIF rule identifier).
	RuleID string `json:"rule_id"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", f.Severity, f.Category, f.Pos, f.Message)
}
