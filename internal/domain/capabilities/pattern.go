package capabilities

import "strings"

// Resource patterns use glob matching anchored to the whole resource string:
//
//	*   matches any run of characters within one path segment (never '/')
//	**  matches any run of characters including '/'
//	?   matches exactly one character other than '/'
//
// Everything else matches literally. "*.csv" therefore covers "data.csv" but
// not "dir/data.csv"; "logs/**" covers everything under logs/.

type segKind int

const (
	segLiteral segKind = iota
	segStar            // *
	segGlobstar        // **
	segQuestion        // ?
)

type patternSeg struct {
	kind    segKind
	literal string
}

type patternMatcher struct {
	segs []patternSeg
}

// compilePattern parses a glob pattern into a matcher. It returns
// *InvalidPatternError for runs of three or more stars, which are always a
// typo rather than a scope.
func compilePattern(pattern string) (*patternMatcher, error) {
	var segs []patternSeg
	i := 0
	for i < len(pattern) {
		switch pattern[i] {
		case '*':
			stars := 0
			for i < len(pattern) && pattern[i] == '*' {
				stars++
				i++
			}
			switch stars {
			case 1:
				segs = append(segs, patternSeg{kind: segStar})
			case 2:
				segs = append(segs, patternSeg{kind: segGlobstar})
			default:
				return nil, &InvalidPatternError{Pattern: pattern, Reason: "more than two consecutive '*'"}
			}
		case '?':
			segs = append(segs, patternSeg{kind: segQuestion})
			i++
		default:
			start := i
			for i < len(pattern) && pattern[i] != '*' && pattern[i] != '?' {
				i++
			}
			segs = append(segs, patternSeg{kind: segLiteral, literal: pattern[start:i]})
		}
	}
	return &patternMatcher{segs: segs}, nil
}

// Match reports whether the resource satisfies the pattern. Matching is
// anchored: the pattern must consume the entire resource.
func (m *patternMatcher) Match(resource string) bool {
	return matchSegs(m.segs, resource)
}

func matchSegs(segs []patternSeg, s string) bool {
	if len(segs) == 0 {
		return s == ""
	}
	seg, rest := segs[0], segs[1:]
	switch seg.kind {
	case segLiteral:
		if !strings.HasPrefix(s, seg.literal) {
			return false
		}
		return matchSegs(rest, s[len(seg.literal):])
	case segQuestion:
		if s == "" || s[0] == '/' {
			return false
		}
		return matchSegs(rest, s[1:])
	case segStar:
		// Try every prefix that stays within the current segment.
		for i := 0; ; i++ {
			if matchSegs(rest, s[i:]) {
				return true
			}
			if i >= len(s) || s[i] == '/' {
				return false
			}
		}
	case segGlobstar:
		for i := 0; ; i++ {
			if matchSegs(rest, s[i:]) {
				return true
			}
			if i >= len(s) {
				return false
			}
		}
	default:
		return false
	}
}
