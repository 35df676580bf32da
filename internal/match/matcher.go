// Package match compiles the search pattern into a Matcher shared read-only by
// every worker.
package match

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/michaelscutari/finder/internal/search"
)

// Matcher evaluates one compiled pattern against names and content lines.
// It holds no mutable state after New returns.
type Matcher struct {
	pattern       string
	caseSensitive bool

	// literal mode
	folded      string
	foldedASCII bool

	// regex mode
	re *regexp.Regexp
}

// New compiles spec.Pattern. An invalid regular expression is a fatal
// *search.ConfigError.
func New(spec search.Spec) (*Matcher, error) {
	m := &Matcher{
		pattern:       spec.Pattern,
		caseSensitive: spec.CaseSensitive,
	}
	if spec.Regex {
		expr := spec.Pattern
		if !spec.CaseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, &search.ConfigError{
				Field: "pattern",
				Value: spec.Pattern,
				Err:   fmt.Errorf("%w: %v", search.ErrInvalidPattern, err),
			}
		}
		m.re = re
		return m, nil
	}
	if !spec.CaseSensitive {
		m.folded = Fold(spec.Pattern)
		m.foldedASCII = isASCII(m.folded)
	}
	return m, nil
}

// IsRegex reports whether the matcher evaluates a regular expression.
func (m *Matcher) IsRegex() bool {
	return m.re != nil
}

// MatchName reports whether a file or directory name contains the pattern.
func (m *Matcher) MatchName(name string) bool {
	switch {
	case m.re != nil:
		return m.re.MatchString(name)
	case m.caseSensitive:
		return strings.Contains(name, m.pattern)
	default:
		return m.containsFolded(name)
	}
}

// MatchLine reports whether one content line (without its terminator)
// contains the pattern.
func (m *Matcher) MatchLine(line []byte) bool {
	switch {
	case m.re != nil:
		return m.re.Match(line)
	case m.caseSensitive:
		return bytes.Contains(line, []byte(m.pattern))
	default:
		return m.containsFolded(string(line))
	}
}

func (m *Matcher) containsFolded(s string) bool {
	if m.foldedASCII && isASCII(s) {
		return containsFoldASCII(s, m.folded)
	}
	return strings.Contains(Fold(s), m.folded)
}

// A Caser is not safe for concurrent use; each caller borrows one.
var folders = sync.Pool{
	New: func() any {
		c := cases.Fold()
		return &c
	},
}

// Fold applies full Unicode case folding.
func Fold(s string) string {
	c := folders.Get().(*cases.Caser)
	defer folders.Put(c)
	return c.String(s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// containsFoldASCII reports whether s contains needle, which is already
// lower-case ASCII.
func containsFoldASCII(s, needle string) bool {
	n := len(needle)
	if n == 0 {
		return true
	}
	for i := 0; i+n <= len(s); i++ {
		j := 0
		for j < n && lowerASCII(s[i+j]) == needle[j] {
			j++
		}
		if j == n {
			return true
		}
	}
	return false
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
