package tui

import (
	"context"
	"io"
	"time"

	"github.com/michaelscutari/finder/internal/entry"
	"github.com/michaelscutari/finder/internal/progress"
	"github.com/michaelscutari/finder/internal/sink"

	tea "github.com/charmbracelet/bubbletea"
)

// Sender delivers messages to a running program; *tea.Program is one.
type Sender interface {
	Send(msg tea.Msg)
}

const (
	maxBatch        = 512
	counterInterval = 100 * time.Millisecond
)

// Results drains a search's streams into a program. Matches are forwarded
// in batches of whatever is already queued so that a busy search does not
// cost one repaint per match. Send blocks while the program is busy, which
// holds the workers back the same way a slow terminal does.
type Results struct {
	to      Sender
	summary sink.Summary
}

// NewResults creates a consumer sending to p.
func NewResults(p Sender) *Results {
	return &Results{
		to:      p,
		summary: sink.Summary{WarningsByKind: map[entry.WarningKind]int64{}},
	}
}

// Run forwards until both channels are closed.
func (r *Results) Run(matches <-chan entry.Match, warnings <-chan entry.Warning) error {
	started := time.Now()
	defer func() { r.summary.Elapsed = time.Since(started) }()

	for matches != nil || warnings != nil {
		select {
		case m, ok := <-matches:
			if !ok {
				matches = nil
				continue
			}
			batch := []entry.Match{m}
		fill:
			for len(batch) < maxBatch {
				select {
				case m, ok := <-matches:
					if !ok {
						matches = nil
						break fill
					}
					batch = append(batch, m)
				default:
					break fill
				}
			}
			r.summary.Matches += int64(len(batch))
			r.to.Send(matchesMsg(batch))

		case w, ok := <-warnings:
			if !ok {
				warnings = nil
				continue
			}
			r.summary.Warnings++
			r.summary.WarningsByKind[w.Kind]++
			r.to.Send(warningMsg(w))
		}
	}
	return nil
}

// Summary returns the counts gathered so far; final once Run returned.
func (r *Results) Summary() sink.Summary {
	return r.summary
}

// Ticker forwards counter snapshots to a program while a search runs.
type Ticker struct {
	to       Sender
	interval time.Duration
}

// NewTicker creates a display sending to p every interval.
func NewTicker(p Sender, interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = counterInterval
	}
	return &Ticker{to: p, interval: interval}
}

// Run sends a snapshot every interval and a last one when ctx is done.
func (t *Ticker) Run(ctx context.Context, c *progress.Counters) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.send(c)
			return nil
		case <-ticker.C:
			t.send(c)
		}
	}
}

func (t *Ticker) send(c *progress.Counters) {
	t.to.Send(countersMsg{entries: c.Entries()})
}

// Wrap returns w; the program owns the terminal.
func (t *Ticker) Wrap(w io.Writer) io.Writer {
	return w
}
