// Package findings defines the security analyzer's output model: immutable
// findings with severity and category, aggregated into a deterministic
// report that decides whether compilation proceeds.
package findings

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a finding.
// Enforces valid severity values and provides ordering.
type Severity struct {
	value severityLevel
}

type severityLevel int

const (
	severityUnknown  severityLevel = 0
	severityLow      severityLevel = 1
	severityMedium   severityLevel = 2
	severityHigh     severityLevel = 3
	severityCritical severityLevel = 4
)

// Predefined severity values
var (
	SevUnknown  = Severity{severityUnknown}
	SevLow      = Severity{severityLow}
	SevMedium   = Severity{severityMedium}
	SevHigh     = Severity{severityHigh}
	SevCritical = Severity{severityCritical}
)

// NewSeverity creates a Severity from string.
func NewSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SevLow, nil
	case "medium":
		return SevMedium, nil
	case "high":
		return SevHigh, nil
	case "critical":
		return SevCritical, nil
	case "":
		return SevUnknown, nil
	default:
		return Severity{}, fmt.Errorf("invalid severity: %s", s)
	}
}

// MustNewSeverity creates a Severity or panics.
func MustNewSeverity(s string) Severity {
	sev, err := NewSeverity(s)
	if err != nil {
		panic(err)
	}
	return sev
}

// String returns the string representation.
func (s Severity) String() string {
	switch s.value {
	case severityLow:
		return "low"
	case severityMedium:
		return "medium"
	case severityHigh:
		return "high"
	case severityCritical:
		return "critical"
	default:
		return ""
	}
}

// Level returns the numeric severity level (for ordering).
func (s Severity) Level() int {
	return int(s.value)
}

// IsHigherOrEqual returns true if this severity is higher or equal to the other.
func (s Severity) IsHigherOrEqual(other Severity) bool {
	return s.value >= other.value
}

// Equals checks if two severities are equal.
func (s Severity) Equals(other Severity) bool {
	return s.value == other.value
}

// MarshalJSON implements json.Marshaler.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Severity) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) < 2 || str[0] != '"' || str[len(str)-1] != '"' {
		return fmt.Errorf("invalid severity JSON")
	}
	sev, err := NewSeverity(str[1 : len(str)-1])
	if err != nil {
		return err
	}
	*s = sev
	return nil
}
