package tui

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/michaelscutari/finder/internal/entry"
	"github.com/michaelscutari/finder/internal/sink"

	tea "github.com/charmbracelet/bubbletea"
)

// SortOrder represents the current ordering of the results list.
type SortOrder int

const (
	SortByArrival SortOrder = iota
	SortByPath
)

func (s SortOrder) String() string {
	switch s {
	case SortByPath:
		return "path"
	default:
		return "arrival"
	}
}

// TargetFilter restricts the list to one kind of match.
type TargetFilter int

const (
	ShowAll TargetFilter = iota
	ShowFiles
	ShowDirs
	ShowContent
)

func (f TargetFilter) String() string {
	switch f {
	case ShowFiles:
		return "files"
	case ShowDirs:
		return "dirs"
	case ShowContent:
		return "content"
	default:
		return "all"
	}
}

func (f TargetFilter) next() TargetFilter {
	return (f + 1) % (ShowContent + 1)
}

func (f TargetFilter) allows(t entry.Target) bool {
	switch f {
	case ShowFiles:
		return t == entry.TargetFileName
	case ShowDirs:
		return t == entry.TargetDirName
	case ShowContent:
		return t == entry.TargetContent
	default:
		return true
	}
}

const spinnerTick = 80 * time.Millisecond

// Model holds the TUI state. Matches arrive while the search runs and are
// never dropped; filters only change what is shown.
type Model struct {
	pattern string
	root    string

	all     []entry.Match
	matches []entry.Match
	cursor  int
	sort    SortOrder
	target  TargetFilter
	width   int
	height  int

	filter       string
	filterActive bool

	entries     int64
	warnings    int64
	lastWarning string

	started time.Time
	frame   int
	done    bool
	summary sink.Summary
	err     error
}

// NewModel creates a model for a search of pattern under root.
func NewModel(pattern, root string) *Model {
	return &Model{
		pattern: pattern,
		root:    root,
		sort:    SortByArrival,
		started: time.Now(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(spinnerTick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// matchesMsg carries a batch of matches in arrival order.
type matchesMsg []entry.Match

type warningMsg entry.Warning

// countersMsg is a snapshot of the run's progress counters. The match count
// is taken from the list itself.
type countersMsg struct {
	entries int64
}

// DoneMsg tells the model that the search returned.
type DoneMsg struct {
	Summary sink.Summary
	Err     error
}

// Matches returns the matches received so far, in arrival order.
func (m *Model) Matches() []entry.Match {
	return m.all
}

// Done reports whether the search has returned.
func (m *Model) Done() bool {
	return m.done
}

func (m *Model) helpLine() string {
	if m.filterActive {
		return "Type to filter | Enter: apply | Esc: clear | Ctrl+C: quit"
	}
	return "↑/↓ move | t: target | s: sort | /: filter | q: quit"
}

func (m *Model) visible(mt entry.Match) bool {
	if !m.target.allows(mt.Target) {
		return false
	}
	if m.filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(mt.Path+" "+mt.Text), strings.ToLower(m.filter))
}

// add appends a batch without moving the cursor.
func (m *Model) add(batch []entry.Match) {
	m.all = append(m.all, batch...)
	for _, mt := range batch {
		if !m.visible(mt) {
			continue
		}
		if m.sort == SortByArrival {
			m.matches = append(m.matches, mt)
			continue
		}
		i, _ := slices.BinarySearchFunc(m.matches, mt, compareMatches)
		if i <= m.cursor && len(m.matches) > 0 {
			m.cursor++
		}
		m.matches = slices.Insert(m.matches, i, mt)
	}
}

func (m *Model) applyFilter() {
	filtered := make([]entry.Match, 0, len(m.all))
	for _, mt := range m.all {
		if m.visible(mt) {
			filtered = append(filtered, mt)
		}
	}
	if m.sort == SortByPath {
		slices.SortStableFunc(filtered, compareMatches)
	}
	m.matches = filtered
	m.cursor = 0
}

func compareMatches(a, b entry.Match) int {
	return cmp.Or(
		strings.Compare(a.Path, b.Path),
		cmp.Compare(a.Target, b.Target),
		cmp.Compare(a.Line, b.Line),
	)
}
