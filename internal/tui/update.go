package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, tick()

	case matchesMsg:
		m.add(msg)
		return m, nil

	case warningMsg:
		m.warnings++
		m.lastWarning = msg.Kind.String() + ": " + msg.Path
		return m, nil

	case countersMsg:
		m.entries = msg.entries
		return m, nil

	case DoneMsg:
		m.done = true
		m.summary = msg.Summary
		m.entries = msg.Summary.Entries
		m.err = msg.Err
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filterActive {
		switch msg.String() {
		case "enter":
			m.filterActive = false
			return m, nil

		case "esc":
			m.filterActive = false
			m.filter = ""
			m.applyFilter()
			return m, nil

		case "backspace":
			if len(m.filter) > 0 {
				runes := []rune(m.filter)
				m.filter = string(runes[:len(runes)-1])
				m.applyFilter()
			}
			return m, nil

		case "ctrl+c":
			return m, tea.Quit
		}

		switch msg.Type {
		case tea.KeyRunes:
			m.filter += string(msg.Runes)
			m.applyFilter()
		case tea.KeySpace:
			m.filter += " "
			m.applyFilter()
		}

		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.matches)-1 {
			m.cursor++
		}
		return m, nil

	case "t":
		m.target = m.target.next()
		m.applyFilter()
		return m, nil

	case "s":
		if m.sort == SortByArrival {
			m.sort = SortByPath
		} else {
			m.sort = SortByArrival
		}
		m.applyFilter()
		return m, nil

	case "/":
		m.filterActive = true
		return m, nil

	case "home", "g":
		m.cursor = 0
		return m, nil

	case "end", "G":
		if len(m.matches) > 0 {
			m.cursor = len(m.matches) - 1
		}
		return m, nil

	case "pgup":
		m.cursor -= m.pageSize()
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case "pgdown":
		m.cursor += m.pageSize()
		if m.cursor >= len(m.matches) {
			m.cursor = len(m.matches) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil
	}

	return m, nil
}
