// Package ignore parses gitignore-style rule files and evaluates them as a
// cascade: rules found closer to an entry take precedence over rules found
// further up, and within one directory the last matching rule wins.
package ignore

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/michaelscutari/finder/internal/pathutil"
)

// Rule is one parsed ignore line.
type Rule struct {
	glob     string // doublestar pattern, relative to the rule set's base
	negate   bool   // leading "!" re-includes a path
	dirOnly  bool   // trailing "/" restricts the rule to directories
	anchored bool   // contains a slash, so it matches the path from the base
	original string
}

// String returns the line the rule was parsed from.
func (r Rule) String() string {
	return r.original
}

// RuleSet holds the rules of one directory. It is never modified after Parse
// or Load returns.
type RuleSet struct {
	base  string
	rules []Rule
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// ErrBadPattern is returned for lines that are not valid globs.
var ErrBadPattern = errors.New("bad ignore pattern")

// Parse reads ignore file content whose rules are relative to base. Invalid
// lines are skipped and reported through the returned error.
func Parse(content string, base string) (*RuleSet, error) {
	rs := &RuleSet{base: filepath.Clean(base)}
	var errs []error
	for n, line := range strings.Split(content, "\n") {
		rule, ok, err := parseLine(line)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", n+1, err))
			continue
		}
		if ok {
			rs.rules = append(rs.rules, rule)
		}
	}
	return rs, errors.Join(errs...)
}

// Load reads every named file that exists in dir, lowest priority first, into
// one RuleSet. It returns nil when no rules were found. Unreadable files are
// reported in the error while the readable ones still apply.
func Load(dir string, names []string) (*RuleSet, error) {
	combined := &RuleSet{base: filepath.Clean(dir)}
	var errs []error
	for _, name := range names {
		file := filepath.Join(dir, name)
		data, err := os.ReadFile(file)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) && !isDirErr(file) {
				errs = append(errs, err)
			}
			continue
		}
		rs, err := Parse(string(data), dir)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", file, err))
		}
		combined.rules = append(combined.rules, rs.rules...)
	}
	if len(combined.rules) == 0 {
		return nil, errors.Join(errs...)
	}
	return combined, errors.Join(errs...)
}

func isDirErr(file string) bool {
	info, err := os.Stat(file)
	return err == nil && info.IsDir()
}

func parseLine(line string) (Rule, bool, error) {
	original := line
	line = strings.TrimSuffix(line, "\r")
	line = trimTrailingSpaces(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Rule{}, false, nil
	}

	negate := false
	switch {
	case strings.HasPrefix(line, "!"):
		negate = true
		line = line[1:]
	case strings.HasPrefix(line, `\!`), strings.HasPrefix(line, `\#`):
		line = line[1:]
	}

	dirOnly := false
	if strings.HasSuffix(line, "/") {
		dirOnly = true
		line = strings.TrimRight(line, "/")
	}

	anchored := strings.Contains(line, "/")
	line = strings.TrimPrefix(line, "/")
	if line == "" {
		return Rule{}, false, nil
	}
	if !doublestar.ValidatePattern(line) {
		return Rule{}, false, fmt.Errorf("%w: %q", ErrBadPattern, original)
	}

	return Rule{
		glob:     line,
		negate:   negate,
		dirOnly:  dirOnly,
		anchored: anchored,
		original: original,
	}, true, nil
}

// trimTrailingSpaces trims trailing spaces but preserves escaped spaces
func trimTrailingSpaces(line string) string {
	i := len(line) - 1
	for i >= 0 && line[i] == ' ' {
		backslashes := 0
		for j := i - 1; j >= 0 && line[j] == '\\'; j-- {
			backslashes++
		}
		if backslashes%2 == 1 {
			break
		}
		i--
	}
	return line[:i+1]
}

// Match evaluates the rules against an absolute path. matched reports whether
// any rule applied; ignored is the verdict of the last one that did.
func (rs *RuleSet) Match(absPath string, isDir bool) (matched, ignored bool) {
	if rs == nil || len(rs.rules) == 0 {
		return false, false
	}
	rel := pathutil.Rel(rs.base, absPath)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") || path.IsAbs(rel) {
		return false, false
	}
	name := path.Base(rel)

	for i := len(rs.rules) - 1; i >= 0; i-- {
		r := rs.rules[i]
		if r.dirOnly && !isDir {
			continue
		}
		subject := name
		if r.anchored {
			subject = rel
		}
		if ok, _ := doublestar.Match(r.glob, subject); ok {
			return true, !r.negate
		}
	}
	return false, false
}
