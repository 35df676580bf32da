package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/michaelscutari/finder/internal/entry"
	"github.com/michaelscutari/finder/internal/progress"
)

const (
	headerRows  = 7
	footerRows  = 3
	minRows     = 5
	colGap      = 2
	targetWidth = 9 // "Directory"
)

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	writeLine := func(line string) {
		b.WriteString(line)
		b.WriteString("\n")
	}

	title := fmt.Sprintf("finder - %q in %s", m.pattern, truncateMiddle(m.root, max(10, m.width-20)))
	writeLine(titleStyle.Render(title))

	writeLine(statsStyle.Render(m.statsLine()))

	status := fmt.Sprintf("Shown: %s/%s | Target: %s | Sort: %s",
		FormatCount(int64(len(m.matches))), FormatCount(int64(len(m.all))), m.target, m.sort)
	if m.filter != "" {
		status += fmt.Sprintf(" | Filter: %q", m.filter)
	}
	writeLine(statusStyle.Render(status))

	if m.filterActive {
		writeLine(filterStyle.Render(fmt.Sprintf("Filter: %s_", m.filter)))
	}

	header := fmt.Sprintf("%-*s%s%s", targetWidth, "TARGET", strings.Repeat(" ", colGap), "MATCH")
	writeLine(headerStyle.Render(header))

	// styles with margins or borders span more than one line
	visibleRows := m.rows(strings.Count(b.String(), "\n"))
	startIdx := 0
	if m.cursor >= visibleRows {
		startIdx = m.cursor - visibleRows + 1
	}
	endIdx := min(len(m.matches), startIdx+visibleRows)

	for i := startIdx; i < endIdx; i++ {
		b.WriteString(m.formatMatch(m.matches[i], i == m.cursor))
		b.WriteString("\n")
	}
	for i := endIdx - startIdx; i < visibleRows; i++ {
		b.WriteString("\n")
	}

	// Footer
	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	case m.lastWarning != "":
		b.WriteString(warningStyle.Render(truncateRight("Warning: "+m.lastWarning, m.lineWidth())))
	}
	b.WriteString("\n")
	help := m.helpLine()
	if len(m.matches) > 0 {
		help = fmt.Sprintf("%s [%d/%d]", help, m.cursor+1, len(m.matches))
	}
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m *Model) statsLine() string {
	elapsed := time.Since(m.started)
	state := progress.Frame(m.frame) + " Searching..."
	if m.done {
		elapsed = m.summary.Elapsed
		state = "Done"
	}
	return fmt.Sprintf("%s | Entries: %s | Matches: %s | Warnings: %s | %s",
		state, FormatCount(m.entries), FormatCount(int64(len(m.all))),
		FormatCount(m.warnings), elapsed.Round(time.Millisecond))
}

// rows is the number of result lines that fit below used header lines.
func (m *Model) rows(used int) int {
	return max(minRows, m.height-used-footerRows)
}

func (m *Model) pageSize() int {
	return m.rows(headerRows)
}

func (m *Model) lineWidth() int {
	if m.width <= 0 {
		return 0
	}
	return m.width
}

func (m *Model) formatMatch(mt entry.Match, selected bool) string {
	var label, text string
	switch mt.Target {
	case entry.TargetDirName:
		label = dirStyle.Render(fmt.Sprintf("%-*s", targetWidth, "Directory"))
		text = mt.Path + "/"
	case entry.TargetFileName:
		label = fileStyle.Render(fmt.Sprintf("%-*s", targetWidth, "File"))
		text = mt.Path
	default:
		label = contentStyle.Render(fmt.Sprintf("%-*s", targetWidth, "Content"))
		text = mt.Path + ":" + strconv.Itoa(mt.Line) + ":" + mt.Text
	}

	if w := m.lineWidth(); w > 0 {
		text = runewidth.Truncate(text, max(minNameWidth, w-targetWidth-colGap), "…")
	}
	line := label + strings.Repeat(" ", colGap) + text
	if selected {
		return selectedStyle.Render(line)
	}
	return line
}

const minNameWidth = 10

func truncateRight(s string, maxLen int) string {
	if maxLen <= 0 || runewidth.StringWidth(s) <= maxLen {
		return s
	}
	return runewidth.Truncate(s, maxLen, "...")
}

func truncateMiddle(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	head := (maxLen - 3) / 2
	tail := maxLen - 3 - head
	return s[:head] + "..." + s[len(s)-tail:]
}
