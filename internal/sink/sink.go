// Package sink is the single consumer of a search's match and warning
// streams. Matches are printed as they arrive; warnings go to the logger.
package sink

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/michaelscutari/finder/internal/entry"
)

// Logger receives warnings.
type Logger interface {
	Warnf(format string, args ...any)
}

// Summary holds the aggregate counts of a finished run.
type Summary struct {
	Entries        int64
	Matches        int64
	Warnings       int64
	WarningsByKind map[entry.WarningKind]int64
	Elapsed        time.Duration
}

// Options configures a Sink.
type Options struct {
	// Renderer decides whether labels are styled. It should be created for
	// the real terminal, not for a wrapping writer. Nil renders for out.
	Renderer *lipgloss.Renderer
}

type styles struct {
	file    lipgloss.Style
	dir     lipgloss.Style
	content lipgloss.Style
	line    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		file:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		dir:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("4")),
		content: r.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
		line:    r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// Sink formats matches onto out.
type Sink struct {
	out    *bufio.Writer
	log    Logger
	styles styles

	summary Summary
	started time.Time
}

// New creates a sink writing to out.
func New(out io.Writer, log Logger, opts Options) *Sink {
	r := opts.Renderer
	if r == nil {
		r = lipgloss.NewRenderer(out)
	}
	return &Sink{
		out:     bufio.NewWriter(out),
		log:     log,
		styles:  newStyles(r),
		summary: Summary{WarningsByKind: map[entry.WarningKind]int64{}},
		started: time.Now(),
	}
}

// Run consumes both channels until they are closed. Each match is flushed
// before the next one is read. A write error ends Run; the caller is then
// expected to cancel the producers.
func (s *Sink) Run(matches <-chan entry.Match, warnings <-chan entry.Warning) error {
	s.started = time.Now()
	defer func() { s.summary.Elapsed = time.Since(s.started) }()

	for matches != nil || warnings != nil {
		select {
		case m, ok := <-matches:
			if !ok {
				matches = nil
				continue
			}
			s.summary.Matches++
			if err := s.write(m); err != nil {
				return fmt.Errorf("write match: %w", err)
			}

		case w, ok := <-warnings:
			if !ok {
				warnings = nil
				continue
			}
			s.summary.Warnings++
			s.summary.WarningsByKind[w.Kind]++
			if s.log != nil {
				s.log.Warnf("%s", w.Error())
			}
		}
	}
	return nil
}

func (s *Sink) write(m entry.Match) error {
	s.out.WriteString(s.Format(m))
	s.out.WriteByte('\n')
	return s.out.Flush()
}

// Format renders one match without the trailing newline.
func (s *Sink) Format(m entry.Match) string {
	switch m.Target {
	case entry.TargetFileName:
		return s.styles.file.Render("File:") + " " + m.Path
	case entry.TargetDirName:
		return s.styles.dir.Render("Directory:") + " " + m.Path
	default:
		return s.styles.content.Render("Content:") + " " + m.Path + ":" +
			s.styles.line.Render(strconv.Itoa(m.Line)) + ":" + m.Text
	}
}

// Summary returns the counts gathered so far; final once Run returned.
func (s *Sink) Summary() Summary {
	return s.summary
}
