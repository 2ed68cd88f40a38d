package capabilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternStarIsSegmentBounded(t *testing.T) {
	tests := []struct {
		pattern  string
		resource string
		want     bool
	}{
		{"*.csv", "data.csv", true},
		{"*.csv", "data.json", false},
		{"*.csv", "dir/data.csv", false}, // '*' never crosses '/'
		{"*.csv", ".csv", true},
		{"*", "data.csv", true},
		{"*", "dir/data.csv", false},
		{"**", "dir/data.csv", true},
		{"logs/**", "logs/a/b/c.log", true},
		{"logs/**", "logs/", true},
		{"logs/**", "logs", false},
		{"logs/*", "logs/app.log", true},
		{"logs/*", "logs/a/app.log", false},
		{"data-?.csv", "data-1.csv", true},
		{"data-?.csv", "data-12.csv", false},
		{"data-?.csv", "data-/.csv", false},
		{"exact.txt", "exact.txt", true},
		{"exact.txt", "exact.txt.bak", false}, // anchored match
		{"exact.txt", "prefix/exact.txt", false},
		{"a*b*c", "aXbYc", true},
		{"a*b*c", "abc", true},
		{"a*b*c", "aXbY", false},
	}

	for _, tt := range tests {
		m, err := compilePattern(tt.pattern)
		require.NoError(t, err, tt.pattern)
		assert.Equal(t, tt.want, m.Match(tt.resource), "%s vs %s", tt.pattern, tt.resource)
	}
}

func TestPatternRejectsTripleStar(t *testing.T) {
	_, err := compilePattern("***")
	var perr *InvalidPatternError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "***", perr.Pattern)
}

func TestIssueValidatesPattern(t *testing.T) {
	_, err := Issue("file.read", "a****b")
	var perr *InvalidPatternError
	require.ErrorAs(t, err, &perr)

	_, err = Issue("", "*.csv")
	require.ErrorAs(t, err, &perr)

	tok, err := Issue("file.read", "*.csv")
	require.NoError(t, err)
	assert.Equal(t, "file.read:*.csv", tok.String())
}

func TestTokenAuthorizes(t *testing.T) {
	tok := MustIssue("file.read", "*.csv")

	assert.True(t, tok.Authorizes("file.read", "data.csv"))
	assert.False(t, tok.Authorizes("file.read", "data.json"))
	assert.False(t, tok.Authorizes("file.write", "data.csv"))

	unscoped := MustIssue("crypto.random", "")
	assert.True(t, unscoped.Authorizes("crypto.random", "anything"))
	assert.True(t, unscoped.Authorizes("crypto.random", ""))
}

func TestTokenIsBroad(t *testing.T) {
	assert.True(t, MustIssue("file.read", "**").IsBroad())
	assert.True(t, MustIssue("file.read", "*").IsBroad())
	assert.True(t, MustIssue("env.read", "").IsBroad())
	assert.False(t, MustIssue("file.read", "*.csv").IsBroad())
}
