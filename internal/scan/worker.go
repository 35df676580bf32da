package scan

import (
	"context"
	"errors"
	"fmt"

	"github.com/michaelscutari/finder/internal/entry"
)

// Worker claims units from the shared queue and from its own stack.
type Worker struct {
	id      int
	s       *Scheduler
	stack   []unit
	visited int64
}

func newWorker(id int, s *Scheduler) *Worker {
	return &Worker{id: id, s: s}
}

// Run processes units until the queue is closed or ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if len(w.stack) > 0 {
			u := w.stack[len(w.stack)-1]
			w.stack = w.stack[:len(w.stack)-1]
			w.process(ctx, u)
			w.donate()
			continue
		}

		select {
		case <-ctx.Done():
			return
		case u, ok := <-w.s.queue:
			if !ok {
				return
			}
			w.process(ctx, u)
		}
	}
}

func (w *Worker) process(ctx context.Context, u unit) {
	defer w.s.done()
	switch u.kind {
	case unitDir:
		w.expand(ctx, u)
	case unitFile:
		w.scanFile(ctx, u.file)
	}
}

func (w *Worker) expand(ctx context.Context, u unit) {
	l := w.s.walker.Expand(ctx, u.dir)
	for _, warn := range l.Warnings {
		w.warn(ctx, warn)
	}

	w.visited += int64(len(l.Entries))
	w.s.counters.AddEntries(len(l.Entries))

	for _, d := range l.Dirs {
		w.publish(ctx, unit{kind: unitDir, dir: d})
	}
	for _, e := range l.Entries {
		if ctx.Err() != nil {
			return
		}
		w.dispatch(ctx, e)
	}
}

// dispatch runs the matchers the mode selects for one entry. Unfollowed
// symlinks and special files are visited but never matched.
func (w *Worker) dispatch(ctx context.Context, e entry.Entry) {
	mode := w.s.spec.Mode
	switch e.Kind {
	case entry.KindDir:
		if mode.DirNames() && w.s.matcher.MatchName(e.Name) {
			w.emit(ctx, entry.Match{Path: e.Path, Target: entry.TargetDirName})
		}
	case entry.KindFile:
		if mode.FileNames() && w.s.matcher.MatchName(e.Name) {
			w.emit(ctx, entry.Match{Path: e.Path, Target: entry.TargetFileName})
		}
		if mode.Contents() {
			w.publish(ctx, unit{kind: unitFile, file: e})
		}
	}
}

func (w *Worker) scanFile(ctx context.Context, e entry.Entry) {
	stats, err := w.s.scanner.Scan(ctx, e.Path, func(line int, text []byte) error {
		return w.emit(ctx, entry.Match{
			Path:   e.Path,
			Target: entry.TargetContent,
			Line:   line,
			Text:   string(text),
		})
	})
	if stats.Binary {
		w.s.opts.Logger.Debugf("Skipping binary file %s", e.Path)
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		var warn entry.Warning
		if !errors.As(err, &warn) {
			warn = entry.NewWarning(entry.WarnRead, e.Path, err)
		}
		w.warn(ctx, warn)
		return
	}
	if stats.Truncated > 0 {
		w.warn(ctx, entry.NewWarning(entry.WarnLineTruncated, e.Path,
			fmt.Errorf("%d line(s) longer than %d bytes matched on their prefix", stats.Truncated, w.s.spec.MaxLineBytes)))
	}
}

// publish offers u to the shared queue without blocking. A directory that
// does not fit goes on the local stack; a file is scanned inline.
func (w *Worker) publish(ctx context.Context, u unit) {
	w.s.inFlight.Add(1)
	select {
	case w.s.queue <- u:
		return
	default:
	}
	if u.kind == unitFile {
		w.process(ctx, u)
		return
	}
	w.stack = append(w.stack, u)
}

// donate hands the oldest stacked units, usually the largest subtrees, to
// idle workers while the shared queue has room.
func (w *Worker) donate() {
	if len(w.stack) <= w.s.opts.DonateThreshold {
		return
	}
	n := 0
give:
	for n < len(w.stack)-1 {
		select {
		case w.s.queue <- w.stack[n]:
			n++
		default:
			break give
		}
	}
	if n > 0 {
		w.stack = append(w.stack[:0], w.stack[n:]...)
	}
}

// emit delivers a match, blocking while the consumer is behind.
func (w *Worker) emit(ctx context.Context, m entry.Match) error {
	select {
	case w.s.matches <- m:
		w.s.counters.AddMatch()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) warn(ctx context.Context, warn entry.Warning) {
	select {
	case w.s.warnings <- warn:
	case <-ctx.Done():
	}
}
