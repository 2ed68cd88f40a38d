package findings

import "sort"

// Report aggregates the findings of one compilation pass and decides whether
// compilation may proceed.
type Report struct {
	items []Finding
	// allowHigh downgrades high findings from blocking to warning.
	// Critical findings always block, regardless of configuration.
	allowHigh bool
}

// NewReport builds a report with the default policy: critical and high
// findings block compilation.
func NewReport(items []Finding) *Report {
	r := &Report{items: append([]Finding(nil), items...)}
	r.sortDeterministic()
	return r
}

// AllowHigh opts in to treating high findings as warnings. Explicit opt-in
// only; there is no way to downgrade critical findings.
func (r *Report) AllowHigh() *Report {
	r.allowHigh = true
	return r
}

// Findings returns the findings sorted by (severity desc, line asc, col asc,
// category asc). The order is identical across runs on the same input.
func (r *Report) Findings() []Finding {
	return r.items
}

// Blocking returns the findings that abort compilation under the current
// policy.
func (r *Report) Blocking() []Finding {
	var out []Finding
	for _, f := range r.items {
		if r.blocks(f) {
			out = append(out, f)
		}
	}
	return out
}

// Blocks reports whether compilation must abort.
func (r *Report) Blocks() bool {
	for _, f := range r.items {
		if r.blocks(f) {
			return true
		}
	}
	return false
}

func (r *Report) blocks(f Finding) bool {
	if f.Severity.Equals(SevCritical) {
		return true
	}
	if f.Severity.Equals(SevHigh) && !r.allowHigh {
		return true
	}
	return false
}

// Len returns the number of findings.
func (r *Report) Len() int { return len(r.items) }

func (r *Report) sortDeterministic() {
	sort.SliceStable(r.items, func(i, j int) bool {
		a, b := r.items[i], r.items[j]
		if a.Severity.Level() != b.Severity.Level() {
			return a.Severity.Level() > b.Severity.Level()
		}
		if a.Pos.Line != b.Pos.Line {
			return a.Pos.Line < b.Pos.Line
		}
		if a.Pos.Col != b.Pos.Col {
			return a.Pos.Col < b.Pos.Col
		}
		return a.Category < b.Category
	})
}
