// Package scan runs the search on a fixed pool of workers. Directories and
// files to content-scan are units claimed from one shared queue; a unit that
// does not fit stays with the worker that produced it.
package scan

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/michaelscutari/finder/internal/content"
	"github.com/michaelscutari/finder/internal/entry"
	"github.com/michaelscutari/finder/internal/match"
	"github.com/michaelscutari/finder/internal/progress"
	"github.com/michaelscutari/finder/internal/search"
	"github.com/michaelscutari/finder/internal/walk"
)

// ErrAlreadyRun is returned by a second call to Run.
var ErrAlreadyRun = errors.New("scheduler already run")

// Scheduler coordinates the workers of one search.
type Scheduler struct {
	spec     search.Spec
	opts     *Options
	walker   *walk.Walker
	matcher  *match.Matcher
	scanner  *content.Scanner
	counters *progress.Counters

	queue    chan unit
	matches  chan entry.Match
	warnings chan entry.Warning

	inFlight  atomic.Int64
	visited   atomic.Int64
	started   atomic.Bool
	closeOnce sync.Once
}

type unitKind uint8

const (
	unitDir unitKind = iota
	unitFile
)

type unit struct {
	kind unitKind
	dir  walk.Dir
	file entry.Entry
}

// New creates a scheduler for spec. counters may be nil when progress is not
// displayed. A missing or non-directory root is a fatal error.
func New(spec search.Spec, m *match.Matcher, counters *progress.Counters, opts *Options) (*Scheduler, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	w, err := walk.New(spec)
	if err != nil {
		return nil, err
	}
	workers := spec.Workers
	if workers < 1 {
		workers = 1
		spec.Workers = 1
	}
	return &Scheduler{
		spec:    spec,
		opts:    opts,
		walker:  w,
		matcher: m,
		scanner: content.NewScanner(m, content.Options{
			IgnoreBinary: spec.IgnoreBinary,
			Window:       spec.BinaryWindow,
			MaxLineBytes: spec.MaxLineBytes,
		}),
		counters: counters,
		queue:    make(chan unit, opts.queueSize(workers)),
		matches:  make(chan entry.Match, max(opts.MatchBuffer, 1)),
		warnings: make(chan entry.Warning, max(opts.WarningBuffer, 1)),
	}, nil
}

// Matches delivers every match. It is closed when Run returns.
func (s *Scheduler) Matches() <-chan entry.Match {
	return s.matches
}

// Warnings delivers recoverable per-entry errors. It is closed when Run
// returns.
func (s *Scheduler) Warnings() <-chan entry.Warning {
	return s.warnings
}

// Visited returns the number of entries visited. It is exact once Run has
// returned.
func (s *Scheduler) Visited() int64 {
	return s.visited.Load()
}

// Run starts the workers and blocks until every unit is done or ctx is
// cancelled. Both delivery channels must be drained concurrently; they are
// closed before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}
	defer close(s.warnings)
	defer close(s.matches)

	// The queue is empty, so seeding never blocks.
	s.inFlight.Store(1)
	s.queue <- unit{kind: unitDir, dir: s.walker.Root()}

	var wg sync.WaitGroup
	workers := make([]*Worker, s.spec.Workers)
	for i := range workers {
		workers[i] = newWorker(i, s)
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			w.Run(ctx)
		}(workers[i])
	}
	wg.Wait()
	s.closeQueue()

	var total int64
	for _, w := range workers {
		total += w.visited
	}
	s.visited.Store(total)

	return ctx.Err()
}

// done retires one unit; the worker that retires the last one closes the
// queue so idle workers exit.
func (s *Scheduler) done() {
	if s.inFlight.Add(-1) == 0 {
		s.closeQueue()
	}
}

func (s *Scheduler) closeQueue() {
	s.closeOnce.Do(func() {
		close(s.queue)
	})
}
