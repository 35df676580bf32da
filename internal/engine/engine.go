// Package engine runs one search end to end: it compiles the matcher, starts
// the scheduler, the sink and the progress reporter, and returns the summary.
package engine

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/michaelscutari/finder/internal/entry"
	"github.com/michaelscutari/finder/internal/logger"
	"github.com/michaelscutari/finder/internal/match"
	"github.com/michaelscutari/finder/internal/progress"
	"github.com/michaelscutari/finder/internal/scan"
	"github.com/michaelscutari/finder/internal/search"
	"github.com/michaelscutari/finder/internal/sink"
)

// Display renders the live counters of a run until ctx is done.
// progress.Reporter is the console implementation.
type Display interface {
	Run(ctx context.Context, c *progress.Counters) error
	Wrap(w io.Writer) io.Writer
}

// Consumer drains the result streams of a run until both are closed.
// sink.Sink is the console implementation.
type Consumer interface {
	Run(matches <-chan entry.Match, warnings <-chan entry.Warning) error
	Summary() sink.Summary
}

// Config holds the collaborators of a run. Zero values are usable.
type Config struct {
	// Stdout receives match lines. Defaults to os.Stdout. Ignored when
	// Consumer is set.
	Stdout io.Writer
	Logger *logger.Logger
	// Display draws progress when spec.ShowProgress is set. Nil disables the
	// display and the counters with it.
	Display Display
	// Consumer replaces the console sink.
	Consumer Consumer
	// Renderer styles match labels; see sink.Options.
	Renderer  *lipgloss.Renderer
	Scheduler *scan.Options
}

// Run executes spec. Configuration errors are returned before anything is
// printed. A cancelled ctx returns the partial summary with ctx's error.
func Run(ctx context.Context, spec search.Spec, cfg Config) (sink.Summary, error) {
	start := time.Now()
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	m, err := match.New(spec)
	if err != nil {
		return sink.Summary{}, err
	}

	opts := scan.DefaultOptions()
	if cfg.Scheduler != nil {
		copied := *cfg.Scheduler
		opts = &copied
	}
	opts.WithLogger(log)
	log.Tracef("scheduler: queue=%d match_buffer=%d warning_buffer=%d donate_threshold=%d",
		opts.QueueSize, opts.MatchBuffer, opts.WarningBuffer, opts.DonateThreshold)

	var counters *progress.Counters
	if spec.ShowProgress && cfg.Display != nil {
		counters = progress.NewCounters()
	}

	sched, err := scan.New(spec, m, counters, opts)
	if err != nil {
		return sink.Summary{}, err
	}

	log.Infof("Starting search for pattern %q in %s", spec.Pattern, spec.Root)
	log.Debugf("mode=%s regex=%t case_sensitive=%t ignore_binary=%t follow_links=%t max_depth=%d hidden=%t no_ignore=%t workers=%d",
		spec.Mode, spec.Regex, spec.CaseSensitive, spec.IgnoreBinary, spec.FollowLinks,
		spec.MaxDepth, spec.Hidden, spec.NoIgnore, spec.Workers)

	snk := cfg.Consumer
	if snk == nil {
		stdout := cfg.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
		if cfg.Display != nil {
			stdout = cfg.Display.Wrap(stdout)
		}
		snk = sink.New(stdout, log, sink.Options{Renderer: cfg.Renderer})
	}

	g, gctx := errgroup.WithContext(ctx)
	reportCtx, stopReport := context.WithCancel(gctx)
	defer stopReport()

	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		defer stopReport()
		return snk.Run(sched.Matches(), sched.Warnings())
	})
	if counters != nil {
		g.Go(func() error {
			return cfg.Display.Run(reportCtx, counters)
		})
	}
	err = g.Wait()

	sum := snk.Summary()
	sum.Entries = sched.Visited()
	sum.Elapsed = time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			log.Warnf("Search interrupted after %.2fs. Processed %d entries, found %d matches.",
				sum.Elapsed.Seconds(), sum.Entries, sum.Matches)
			return sum, ctx.Err()
		}
		return sum, err
	}

	log.Infof("Search completed in %.2fs. Processed %d entries, found %d matches.",
		sum.Elapsed.Seconds(), sum.Entries, sum.Matches)
	if sum.Warnings > 0 {
		log.Infof("%s warning(s) reported", humanize.Comma(sum.Warnings))
	}
	return sum, nil
}
