// Package progress holds the run's live counters and renders them on stderr.
package progress

import "sync/atomic"

// Counters are the two cross-worker progress values. A nil *Counters is valid
// and ignores every update, which is how a run without progress display skips
// the atomics entirely.
type Counters struct {
	entries atomic.Int64
	matches atomic.Int64
}

// NewCounters returns zeroed counters.
func NewCounters() *Counters {
	return &Counters{}
}

// AddEntries records n visited entries.
func (c *Counters) AddEntries(n int) {
	if c == nil || n == 0 {
		return
	}
	c.entries.Add(int64(n))
}

// AddMatch records one delivered match.
func (c *Counters) AddMatch() {
	if c == nil {
		return
	}
	c.matches.Add(1)
}

// Entries returns the number of visited entries so far.
func (c *Counters) Entries() int64 {
	if c == nil {
		return 0
	}
	return c.entries.Load()
}

// Matches returns the number of matches so far.
func (c *Counters) Matches() int64 {
	if c == nil {
		return 0
	}
	return c.matches.Load()
}
