package ops

import (
	"regexp"
	"strings"
)

// globToRegexp translates a glob pattern supporting "*", "**", "?",
// and "^"/"$" anchors into an anchored regexp. A bare "*" stops at
// dots so "Widget.*" style patterns behave predictably over canonical
// names.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	anchoredStart := strings.HasPrefix(pattern, "^")
	anchoredEnd := strings.HasSuffix(pattern, "$")
	pattern = strings.TrimPrefix(pattern, "^")
	pattern = strings.TrimSuffix(pattern, "$")

	if !anchoredStart {
		b.WriteString(".*")
	}

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch {
		case runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '*':
			b.WriteString(".*")
			i++
		case runes[i] == '*':
			b.WriteString("[^.]*")
		case runes[i] == '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(runes[i])))
		}
	}

	if !anchoredEnd {
		b.WriteString(".*")
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// matchesAny reports whether name matches any of patterns (OR
// semantics), or true if patterns is empty.
func matchesAny(patterns []string, name string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		re, err := globToRegexp(p)
		if err != nil {
			continue
		}
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// matchesNone reports whether name matches none of patterns (used for
// --exclude), or true if patterns is empty.
func matchesNone(patterns []string, name string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		re, err := globToRegexp(p)
		if err != nil {
			continue
		}
		if re.MatchString(name) {
			return false
		}
	}
	return true
}
