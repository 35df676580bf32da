package entry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Kind represents the type of filesystem entry.
type Kind uint8

const (
	KindFile    Kind = 0
	KindDir     Kind = 1
	KindSymlink Kind = 2
	KindOther   Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// KindFromMode derives the Kind from an os.FileMode.
func KindFromMode(mode os.FileMode) Kind {
	switch {
	case mode.IsRegular():
		return KindFile
	case mode.IsDir():
		return KindDir
	case mode&os.ModeSymlink != 0:
		return KindSymlink
	default:
		return KindOther
	}
}

// Entry is one walked filesystem node. Depth is relative to the search root,
// which sits at depth 0, so the root's direct children are at depth 1.
type Entry struct {
	Path  string
	Name  string
	Kind  Kind
	Depth int
	Size  int64

	// Linked is set when the entry was reached through a followed symlink;
	// Kind then describes the link target.
	Linked bool
}

// IsDir reports whether the entry is a directory (or a followed link to one).
func (e Entry) IsDir() bool {
	return e.Kind == KindDir
}

// Target identifies what a Match was found in.
type Target uint8

const (
	TargetFileName Target = iota
	TargetDirName
	TargetContent
)

func (t Target) String() string {
	switch t {
	case TargetFileName:
		return "file-name"
	case TargetDirName:
		return "dir-name"
	case TargetContent:
		return "content"
	default:
		return "unknown"
	}
}

// Match is one reported hit. Line and Text are only set for content hits,
// Line being 1-based.
type Match struct {
	Path   string
	Target Target
	Line   int
	Text   string
}

// WarningKind classifies a recoverable, per-entry problem.
type WarningKind uint8

const (
	WarnReadDir WarningKind = iota
	WarnStat
	WarnOpen
	WarnRead
	WarnPermission
	WarnSymlink
	WarnCycle
	WarnIgnoreFile
	WarnLineTruncated
)

func (k WarningKind) String() string {
	switch k {
	case WarnReadDir:
		return "read-dir"
	case WarnStat:
		return "stat"
	case WarnOpen:
		return "open"
	case WarnRead:
		return "read"
	case WarnPermission:
		return "permission"
	case WarnSymlink:
		return "symlink"
	case WarnCycle:
		return "cycle"
	case WarnIgnoreFile:
		return "ignore-file"
	case WarnLineTruncated:
		return "line-truncated"
	default:
		return "unknown"
	}
}

// Warning is a recoverable error attached to a single entry. The entry is
// skipped and traversal continues.
type Warning struct {
	Kind WarningKind
	Path string
	Err  error
}

// NewWarning builds a Warning, reclassifying permission failures so callers
// do not have to.
func NewWarning(kind WarningKind, path string, err error) Warning {
	if errors.Is(err, fs.ErrPermission) {
		kind = WarnPermission
	}
	return Warning{Kind: kind, Path: path, Err: err}
}

func (w Warning) Error() string {
	if w.Err == nil {
		return fmt.Sprintf("%s: %s", w.Kind, w.Path)
	}
	return fmt.Sprintf("%s: %s: %v", w.Kind, w.Path, w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}
