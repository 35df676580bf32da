package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const (
	ttyRefresh      = 80 * time.Millisecond
	DefaultInterval = 30 * time.Second
	clearLine       = "\r\033[K"
)

var spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

// Frame returns the spinner glyph for tick i.
func Frame(i int) string {
	return spinnerFrames[i%len(spinnerFrames)]
}

// Options configures a Reporter.
type Options struct {
	// TTY selects the repainted spinner line; otherwise a PROGRESS line is
	// written every Interval.
	TTY bool
	// Interval between plain progress lines. Zero disables them.
	Interval time.Duration
	// Width returns the terminal width; zero or less means unknown.
	Width func() int
}

// Reporter renders Counters on its own cadence. Writers returned by Wrap
// share its lock so output never lands in the middle of a progress line.
// It is created before a run so that wrapped writers exist early; the run's
// counters are handed to Run.
type Reporter struct {
	out  io.Writer
	opts Options

	mu       sync.Mutex
	counters *Counters
	drawn    bool
	frame    int
	started  time.Time
}

// NewReporter creates a reporter writing to out.
func NewReporter(out io.Writer, opts Options) *Reporter {
	if opts.Width == nil {
		opts.Width = func() int { return 0 }
	}
	return &Reporter{out: out, opts: opts, started: time.Now()}
}

// ForFile derives Options for f: TTY detection through isatty and the
// terminal width through x/term.
func ForFile(f *os.File, interval time.Duration) Options {
	fd := f.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return Options{
		TTY:      tty,
		Interval: interval,
		Width: func() int {
			w, _, err := term.GetSize(int(fd))
			if err != nil {
				return 0
			}
			return w
		},
	}
}

// Run draws c until ctx is done, then clears the line. Nil counters are
// never drawn.
func (r *Reporter) Run(ctx context.Context, c *Counters) error {
	if c == nil || (!r.opts.TTY && r.opts.Interval <= 0) {
		<-ctx.Done()
		return nil
	}

	r.mu.Lock()
	r.counters = c
	r.started = time.Now()
	r.mu.Unlock()

	tick := ttyRefresh
	if !r.opts.TTY {
		tick = r.opts.Interval
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	defer r.Clear()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.draw()
		}
	}
}

func (r *Reporter) draw() {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.counters.Entries()
	matches := r.counters.Matches()
	elapsed := time.Since(r.started).Round(time.Millisecond)
	rate := float64(0)
	if s := elapsed.Seconds(); s > 0 {
		rate = float64(entries) / s
	}

	if !r.opts.TTY {
		fmt.Fprintf(r.out, "PROGRESS entries=%d matches=%d rate=%.0f/sec elapsed=%s\n",
			entries, matches, rate, elapsed)
		return
	}

	spinner := Frame(r.frame)
	r.frame++
	line := fmt.Sprintf("Searching... %s entries | %s matches | %s/sec | %s",
		humanize.Comma(entries), humanize.Comma(matches), humanize.Comma(int64(rate)), elapsed)
	if w := r.opts.Width(); w > 2 {
		line = runewidth.Truncate(line, w-2, "…")
	}
	fmt.Fprintf(r.out, "%s%s %s", clearLine, spinnerStyle.Render(spinner), line)
	r.drawn = true
}

// Clear erases a drawn progress line.
func (r *Reporter) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLocked()
}

func (r *Reporter) clearLocked() {
	if r.drawn {
		io.WriteString(r.out, clearLine)
		r.drawn = false
	}
}

// Wrap returns a writer that clears the progress line before each write to w.
func (r *Reporter) Wrap(w io.Writer) io.Writer {
	return &lockedWriter{r: r, w: w}
}

type lockedWriter struct {
	r *Reporter
	w io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.r.mu.Lock()
	defer lw.r.mu.Unlock()
	lw.r.clearLocked()
	return lw.w.Write(p)
}
