package search

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/michaelscutari/finder/internal/pathutil"
)

// Mode selects which targets are matched for each entry.
type Mode uint8

const (
	ModeAll Mode = iota
	ModeFileName
	ModeDirName
	ModeContent
)

func (m Mode) String() string {
	switch m {
	case ModeFileName:
		return "file-name"
	case ModeDirName:
		return "dir-name"
	case ModeContent:
		return "content"
	default:
		return "all"
	}
}

// ParseMode accepts the CLI spelling of a mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ModeAll, nil
	case "file-name", "filename", "file":
		return ModeFileName, nil
	case "dir-name", "dirname", "dir":
		return ModeDirName, nil
	case "content", "contents":
		return ModeContent, nil
	}
	return ModeAll, configErr("mode", s, fmt.Errorf("%w: expected file-name|dir-name|content|all", ErrInvalidOption))
}

// FileNames reports whether file names are matched in this mode.
func (m Mode) FileNames() bool { return m == ModeAll || m == ModeFileName }

// DirNames reports whether directory names are matched in this mode.
func (m Mode) DirNames() bool { return m == ModeAll || m == ModeDirName }

// Contents reports whether file contents are matched in this mode.
func (m Mode) Contents() bool { return m == ModeAll || m == ModeContent }

// Unlimited disables the depth limit.
const Unlimited = -1

const (
	defaultBinaryWindow = 8 << 10
	defaultMaxLineBytes = 4 << 20
)

// DefaultIgnoreFiles are read in every directory, lowest priority first.
var DefaultIgnoreFiles = []string{".gitignore", ".ignore", ".finderignore"}

// Spec is a validated search specification. Build it with Options.Build and
// treat it as read-only afterwards; every component receives it by value.
type Spec struct {
	Pattern       string
	Root          string
	Mode          Mode
	Regex         bool
	CaseSensitive bool
	IgnoreBinary  bool
	FollowLinks   bool
	// MaxDepth is the number of descents below the root that are allowed.
	// Zero limits the search to the root's direct children.
	MaxDepth     int
	ShowProgress bool

	Hidden       bool
	NoIgnore     bool
	IgnoreFiles  []string
	Workers      int
	BinaryWindow int
	MaxLineBytes int
}

// HasDepthLimit reports whether MaxDepth applies.
func (s Spec) HasDepthLimit() bool {
	return s.MaxDepth >= 0
}

// AllowsDepth reports whether an entry at depth should be emitted.
func (s Spec) AllowsDepth(depth int) bool {
	return !s.HasDepthLimit() || depth <= s.MaxDepth+1
}

// AllowsDescent reports whether the directory at depth may be read.
func (s Spec) AllowsDescent(depth int) bool {
	return !s.HasDepthLimit() || depth <= s.MaxDepth
}

// Options configures a search before validation.
type Options struct {
	Mode          Mode
	Regex         bool
	CaseSensitive bool
	IgnoreBinary  bool
	FollowLinks   bool
	MaxDepth      int
	ShowProgress  bool
	Hidden        bool
	NoIgnore      bool
	IgnoreFiles   []string

	// Workers is the worker pool size. Zero means GOMAXPROCS.
	Workers      int
	BinaryWindow int
	MaxLineBytes int
}

// DefaultOptions returns the defaults of the command line tool.
func DefaultOptions() *Options {
	return &Options{
		Mode:         ModeAll,
		IgnoreBinary: true,
		MaxDepth:     Unlimited,
		ShowProgress: true,
		IgnoreFiles:  append([]string(nil), DefaultIgnoreFiles...),
		BinaryWindow: defaultBinaryWindow,
		MaxLineBytes: defaultMaxLineBytes,
	}
}

// WithMode sets the match mode.
func (o *Options) WithMode(m Mode) *Options {
	o.Mode = m
	return o
}

// WithRegex treats the pattern as a regular expression.
func (o *Options) WithRegex(regex bool) *Options {
	o.Regex = regex
	return o
}

// WithCaseSensitive sets case sensitivity.
func (o *Options) WithCaseSensitive(cs bool) *Options {
	o.CaseSensitive = cs
	return o
}

// WithIgnoreBinary sets binary file skipping for content matches.
func (o *Options) WithIgnoreBinary(ignore bool) *Options {
	o.IgnoreBinary = ignore
	return o
}

// WithFollowLinks sets symlink following.
func (o *Options) WithFollowLinks(follow bool) *Options {
	o.FollowLinks = follow
	return o
}

// WithMaxDepth sets the depth limit. Use Unlimited to clear it.
func (o *Options) WithMaxDepth(depth int) *Options {
	o.MaxDepth = depth
	return o
}

// WithProgress toggles the progress display.
func (o *Options) WithProgress(show bool) *Options {
	o.ShowProgress = show
	return o
}

// WithHidden includes dot-files.
func (o *Options) WithHidden(hidden bool) *Options {
	o.Hidden = hidden
	return o
}

// WithNoIgnore disables ignore files.
func (o *Options) WithNoIgnore(noIgnore bool) *Options {
	o.NoIgnore = noIgnore
	return o
}

// WithIgnoreFiles replaces the per-directory ignore file names.
func (o *Options) WithIgnoreFiles(names ...string) *Options {
	o.IgnoreFiles = append([]string(nil), names...)
	return o
}

// WithWorkers sets the number of workers.
func (o *Options) WithWorkers(n int) *Options {
	o.Workers = n
	return o
}

// Build validates the options against pattern and root and returns the
// immutable Spec. All errors are *ConfigError.
func (o *Options) Build(pattern, root string) (Spec, error) {
	if pattern == "" {
		return Spec{}, configErr("pattern", "", ErrEmptyPattern)
	}
	if o.Regex {
		// Compiled again by the matcher; this only surfaces the error early.
		if _, err := regexp.Compile(pattern); err != nil {
			return Spec{}, configErr("pattern", pattern, fmt.Errorf("%w: %v", ErrInvalidPattern, err))
		}
	}
	if o.Mode > ModeContent {
		return Spec{}, configErr("mode", o.Mode.String(), ErrInvalidOption)
	}
	if o.MaxDepth < Unlimited {
		return Spec{}, configErr("max-depth", fmt.Sprint(o.MaxDepth), fmt.Errorf("%w: must be non-negative", ErrInvalidOption))
	}
	if o.Workers < 0 {
		return Spec{}, configErr("workers", fmt.Sprint(o.Workers), fmt.Errorf("%w: must be >= 0", ErrInvalidOption))
	}

	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Spec{}, configErr("root", root, err)
	}
	absRoot = pathutil.Normalize(absRoot)
	info, err := os.Stat(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return Spec{}, configErr("root", absRoot, ErrRootNotFound)
		}
		return Spec{}, configErr("root", absRoot, err)
	}
	if !info.IsDir() {
		return Spec{}, configErr("root", absRoot, ErrRootNotDir)
	}

	workers := o.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	binaryWindow := o.BinaryWindow
	if binaryWindow <= 0 {
		binaryWindow = defaultBinaryWindow
	}
	maxLine := o.MaxLineBytes
	if maxLine <= 0 {
		maxLine = defaultMaxLineBytes
	}

	return Spec{
		Pattern:       pattern,
		Root:          absRoot,
		Mode:          o.Mode,
		Regex:         o.Regex,
		CaseSensitive: o.CaseSensitive,
		IgnoreBinary:  o.IgnoreBinary,
		FollowLinks:   o.FollowLinks,
		MaxDepth:      o.MaxDepth,
		ShowProgress:  o.ShowProgress,
		Hidden:        o.Hidden,
		NoIgnore:      o.NoIgnore,
		IgnoreFiles:   append([]string(nil), o.IgnoreFiles...),
		Workers:       workers,
		BinaryWindow:  binaryWindow,
		MaxLineBytes:  maxLine,
	}, nil
}
