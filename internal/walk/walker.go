// Package walk traverses the search tree. Expand lists one directory and is
// the unit of work the scheduler distributes; Walk drives Expand sequentially
// and yields a lazy sequence of entries.
package walk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/michaelscutari/finder/internal/entry"
	"github.com/michaelscutari/finder/internal/ignore"
	"github.com/michaelscutari/finder/internal/pathutil"
	"github.com/michaelscutari/finder/internal/search"
)

const ctxCheckEntries = 256

var (
	errLinkIntoRoot = errors.New("link points inside the search root")
	errRevisit      = errors.New("real path already visited")
)

// Dir is a directory waiting to be expanded.
type Dir struct {
	Path  string
	Depth int
	// Ignore is the rule cascade of the directory's ancestors.
	Ignore *ignore.Stack
	// Real is the canonical path when the directory was reached through a
	// followed link, empty otherwise.
	Real string
}

// Listing is the result of expanding one directory.
type Listing struct {
	Entries  []entry.Entry
	Dirs     []Dir
	Warnings []entry.Warning
}

// Walker applies the hidden, ignore, depth and symlink policies of a Spec.
// Expand is safe for concurrent use. A Walker serves a single traversal
// because it remembers the real directories it entered through links.
type Walker struct {
	spec     search.Spec
	realRoot string
	visited  sync.Map // canonical path -> struct{}
}

// New checks the root and creates a walker. A missing or non-directory root
// is fatal.
func New(spec search.Spec) (*Walker, error) {
	info, err := os.Stat(spec.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &search.ConfigError{Field: "root", Value: spec.Root, Err: search.ErrRootNotFound}
		}
		return nil, &search.ConfigError{Field: "root", Value: spec.Root, Err: err}
	}
	if !info.IsDir() {
		return nil, &search.ConfigError{Field: "root", Value: spec.Root, Err: search.ErrRootNotDir}
	}
	realRoot, err := pathutil.Canonical(spec.Root)
	if err != nil {
		return nil, &search.ConfigError{Field: "root", Value: spec.Root, Err: err}
	}
	w := &Walker{spec: spec, realRoot: realRoot}
	w.visited.Store(realRoot, struct{}{})
	return w, nil
}

// Root returns the directory the traversal starts from.
func (w *Walker) Root() Dir {
	return Dir{Path: w.spec.Root, Depth: 0}
}

// Expand reads d and classifies its children. Per-entry failures end up in
// Listing.Warnings and never stop the listing.
func (w *Walker) Expand(ctx context.Context, d Dir) Listing {
	var l Listing
	if !w.spec.AllowsDescent(d.Depth) {
		return l
	}

	// os.ReadDir returns what it could read alongside the error.
	children, err := os.ReadDir(d.Path)
	if err != nil {
		l.Warnings = append(l.Warnings, entry.NewWarning(entry.WarnReadDir, d.Path, err))
		if len(children) == 0 {
			return l
		}
	}

	depth := d.Depth + 1
	if !w.spec.AllowsDepth(depth) {
		return l
	}

	stack := d.Ignore
	if !w.spec.NoIgnore && len(w.spec.IgnoreFiles) > 0 {
		rs, err := ignore.Load(d.Path, w.spec.IgnoreFiles)
		if err != nil {
			l.Warnings = append(l.Warnings, entry.NewWarning(entry.WarnIgnoreFile, d.Path, err))
		}
		stack = stack.Push(rs)
	}

	for i, de := range children {
		if i%ctxCheckEntries == 0 && ctx.Err() != nil {
			return l
		}

		name := de.Name()
		if !w.spec.Hidden && strings.HasPrefix(name, ".") {
			continue
		}
		childPath := filepath.Join(d.Path, name)
		typ := de.Type()
		if stack.Excluded(childPath, typ.IsDir()) {
			continue
		}

		e := entry.Entry{Path: childPath, Name: name, Depth: depth}
		switch {
		case typ.IsDir():
			e.Kind = entry.KindDir
			child := Dir{Path: childPath, Depth: depth, Ignore: stack}
			if d.Real != "" {
				child.Real = filepath.Join(d.Real, name)
				// a linked ancestor of the root leads back into it
				if pathutil.IsWithin(w.realRoot, child.Real) {
					l.Warnings = append(l.Warnings, entry.NewWarning(entry.WarnCycle, childPath, fmt.Errorf("%w: %s", errLinkIntoRoot, child.Real)))
					continue
				}
				if _, seen := w.visited.LoadOrStore(child.Real, struct{}{}); seen {
					l.Warnings = append(l.Warnings, entry.NewWarning(entry.WarnCycle, childPath, errRevisit))
					continue
				}
			}
			l.Entries = append(l.Entries, e)
			if w.spec.AllowsDescent(depth) {
				l.Dirs = append(l.Dirs, child)
			}

		case typ&fs.ModeSymlink != 0:
			if !w.spec.FollowLinks {
				e.Kind = entry.KindSymlink
				l.Entries = append(l.Entries, e)
				continue
			}
			w.follow(&l, e, stack)

		case typ.IsRegular():
			info, err := de.Info()
			if err != nil {
				l.Warnings = append(l.Warnings, entry.NewWarning(entry.WarnStat, childPath, err))
				continue
			}
			e.Kind = entry.KindFile
			e.Size = info.Size()
			l.Entries = append(l.Entries, e)

		default:
			e.Kind = entry.KindOther
			l.Entries = append(l.Entries, e)
		}
	}
	return l
}

// follow resolves a symlink entry. The depth check has already passed, so a
// link beyond the limit is never resolved.
func (w *Walker) follow(l *Listing, e entry.Entry, stack *ignore.Stack) {
	info, err := os.Stat(e.Path)
	if err != nil {
		l.Warnings = append(l.Warnings, entry.NewWarning(entry.WarnSymlink, e.Path, err))
		e.Kind = entry.KindSymlink
		l.Entries = append(l.Entries, e)
		return
	}

	e.Linked = true
	e.Kind = entry.KindFromMode(info.Mode())
	if e.Kind != entry.KindDir && e.Kind != entry.KindFile {
		l.Entries = append(l.Entries, e)
		return
	}

	target, err := pathutil.Canonical(e.Path)
	if err != nil {
		l.Warnings = append(l.Warnings, entry.NewWarning(entry.WarnSymlink, e.Path, err))
		return
	}

	if e.Kind == entry.KindFile {
		e.Size = info.Size()
		// the target is walked under its own path; matching it here too
		// would report it twice
		if pathutil.IsWithin(w.realRoot, target) {
			e.Kind = entry.KindSymlink
		}
		l.Entries = append(l.Entries, e)
		return
	}
	if pathutil.IsWithin(w.realRoot, target) {
		l.Warnings = append(l.Warnings, entry.NewWarning(entry.WarnCycle, e.Path, fmt.Errorf("%w: %s", errLinkIntoRoot, target)))
		return
	}
	if _, seen := w.visited.LoadOrStore(target, struct{}{}); seen {
		l.Warnings = append(l.Warnings, entry.NewWarning(entry.WarnCycle, e.Path, fmt.Errorf("%w: %s", errRevisit, target)))
		return
	}

	l.Entries = append(l.Entries, e)
	if w.spec.AllowsDescent(e.Depth) {
		l.Dirs = append(l.Dirs, Dir{Path: e.Path, Depth: e.Depth, Ignore: stack, Real: target})
	}
}

// Walk traverses the tree depth-first on the calling goroutine. Warnings are
// yielded as entry.Warning errors with a zero Entry; a cancelled context ends
// the sequence with ctx.Err().
func (w *Walker) Walk(ctx context.Context) iter.Seq2[entry.Entry, error] {
	return func(yield func(entry.Entry, error) bool) {
		pending := []Dir{w.Root()}
		for len(pending) > 0 {
			if err := ctx.Err(); err != nil {
				yield(entry.Entry{}, err)
				return
			}
			d := pending[len(pending)-1]
			pending = pending[:len(pending)-1]

			l := w.Expand(ctx, d)
			for _, warn := range l.Warnings {
				if !yield(entry.Entry{}, warn) {
					return
				}
			}
			for _, e := range l.Entries {
				if !yield(e, nil) {
					return
				}
			}
			for i := len(l.Dirs) - 1; i >= 0; i-- {
				pending = append(pending, l.Dirs[i])
			}
		}
	}
}
