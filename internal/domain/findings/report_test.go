package findings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityParsing(t *testing.T) {
	sev, err := NewSeverity("Critical")
	require.NoError(t, err)
	assert.True(t, sev.Equals(SevCritical))

	_, err = NewSeverity("fatal")
	assert.Error(t, err)

	sev, err = NewSeverity("")
	require.NoError(t, err)
	assert.True(t, sev.Equals(SevUnknown))
}

func TestReportOrdering(t *testing.T) {
	items := []Finding{
		{Severity: SevLow, Category: CategoryUnsafeAttribute, Pos: Pos{Line: 1, Col: 1}},
		{Severity: SevCritical, Category: CategoryCodeInjection, Pos: Pos{Line: 9, Col: 4}},
		{Severity: SevCritical, Category: CategoryCodeInjection, Pos: Pos{Line: 2, Col: 7}},
		{Severity: SevHigh, Category: CategoryUnsafeImport, Pos: Pos{Line: 2, Col: 7}},
		{Severity: SevCritical, Category: CategoryReflectionAbuse, Pos: Pos{Line: 2, Col: 1}},
	}

	got := NewReport(items).Findings()

	assert.Equal(t, Pos{Line: 2, Col: 1}, got[0].Pos) // critical, earliest
	assert.Equal(t, Pos{Line: 2, Col: 7}, got[1].Pos)
	assert.Equal(t, Pos{Line: 9, Col: 4}, got[2].Pos)
	assert.True(t, got[3].Severity.Equals(SevHigh))
	assert.True(t, got[4].Severity.Equals(SevLow))
}

func TestReportOrderingIsDeterministic(t *testing.T) {
	items := []Finding{
		{Severity: SevHigh, Category: CategoryUnsafeImport, Pos: Pos{Line: 3, Col: 1}, Message: "a"},
		{Severity: SevHigh, Category: CategoryCodeInjection, Pos: Pos{Line: 3, Col: 1}, Message: "b"},
	}

	first := NewReport(items).Findings()
	second := NewReport(items).Findings()
	assert.Equal(t, first, second)
	// Equal severity and position falls back to category order.
	assert.Equal(t, CategoryCodeInjection, first[0].Category)
}

func TestReportBlockingPolicy(t *testing.T) {
	r := NewReport([]Finding{
		{Severity: SevCritical, Category: CategoryCodeInjection},
		{Severity: SevHigh, Category: CategoryUnsafeImport},
		{Severity: SevMedium, Category: CategoryUnsafeAttribute},
	})
	assert.True(t, r.Blocks())
	assert.Len(t, r.Blocking(), 2)

	// Opting in to high findings leaves only critical blocking.
	r.AllowHigh()
	assert.True(t, r.Blocks())
	assert.Len(t, r.Blocking(), 1)

	warnOnly := NewReport([]Finding{
		{Severity: SevMedium, Category: CategoryUnsafeAttribute},
		{Severity: SevLow, Category: CategoryUnsafeAttribute},
	})
	assert.False(t, warnOnly.Blocks())
}
