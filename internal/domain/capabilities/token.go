// Package capabilities defines the capability token model: named,
// pattern-scoped permissions and the context stack consulted by every
// access-controlled operation at runtime.
package capabilities

import "fmt"

// Token represents a single granted permission.
// It authorizes operations of a given Kind (e.g. "file.read", "env.read"),
// optionally restricted to resources matching Pattern. Tokens are immutable
// once issued; a zero Pattern authorizes every resource of the Kind.
type Token struct {
	kind    string
	pattern string
	matcher *patternMatcher // nil when pattern is empty
}

// Issue creates a token for the given permission kind, optionally scoped to a
// resource pattern. It returns *InvalidPatternError if the pattern is
// syntactically malformed.
func Issue(kind, pattern string) (Token, error) {
	if kind == "" {
		return Token{}, &InvalidPatternError{Pattern: pattern, Reason: "capability kind must not be empty"}
	}
	t := Token{kind: kind, pattern: pattern}
	if pattern != "" {
		m, err := compilePattern(pattern)
		if err != nil {
			return Token{}, err
		}
		t.matcher = m
	}
	return t, nil
}

// MustIssue creates a token or panics. For tests and static tables only.
func MustIssue(kind, pattern string) Token {
	t, err := Issue(kind, pattern)
	if err != nil {
		panic(err)
	}
	return t
}

// Kind returns the permission kind the token authorizes.
func (t Token) Kind() string { return t.kind }

// Pattern returns the resource pattern, or "" when the token is unscoped.
func (t Token) Pattern() string { return t.pattern }

// Authorizes reports whether the token covers an operation of the given kind
// on the given resource. An unscoped token covers every resource; a scoped
// token requires the resource to match its pattern (an empty resource never
// satisfies a scoped token).
func (t Token) Authorizes(kind, resource string) bool {
	if t.kind != kind {
		return false
	}
	if t.matcher == nil {
		return true
	}
	return t.matcher.Match(resource)
}

// Equals checks value equality of two tokens.
func (t Token) Equals(other Token) bool {
	return t.kind == other.kind && t.pattern == other.pattern
}

// String returns a human-readable "kind:pattern" form.
func (t Token) String() string {
	if t.pattern == "" {
		return t.kind
	}
	return t.kind + ":" + t.pattern
}

// IsBroad reports whether the token's scope is overly permissive. Broad
// tokens are treated specially by the gatekeeper security levels.
func (t Token) IsBroad() bool {
	return t.pattern == "" || t.pattern == "*" || t.pattern == "**"
}

// InvalidPatternError indicates a malformed capability resource pattern.
type InvalidPatternError struct {
	Pattern string
	Reason  string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid capability pattern %q: %s", e.Pattern, e.Reason)
}

// CapabilityError indicates a missing permission at a use site. It is raised
// by Context.Require, the single enforcement point for routed operations, and
// always aborts the current execution; there is no fallback-to-allowed.
type CapabilityError struct {
	Kind     string
	Resource string
}

func (e *CapabilityError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("missing capability %q", e.Kind)
	}
	return fmt.Sprintf("missing capability %q for resource %q", e.Kind, e.Resource)
}
