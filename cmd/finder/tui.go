package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/michaelscutari/finder/internal/engine"
	"github.com/michaelscutari/finder/internal/logger"
	"github.com/michaelscutari/finder/internal/search"
	"github.com/michaelscutari/finder/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
)

var errNotTerminal = errors.New("--tui needs stdout to be a terminal")

// runTUI browses results while the search runs. Quitting the browser stops
// the search and is not an error. Logs only go to the log file, if any.
func runTUI(cmd *cobra.Command, spec search.Spec, logFile string, level logger.Level) error {
	out, ok := cmd.OutOrStdout().(*os.File)
	if !ok || !isatty.IsTerminal(out.Fd()) {
		return errNotTerminal
	}

	log := logger.Setup(logger.Options{Level: level, File: logFile, Stderr: io.Discard})
	defer log.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model := tui.NewModel(spec.Pattern, spec.Root)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithOutput(out))

	searched := make(chan struct{})
	go func() {
		defer close(searched)
		sum, err := engine.Run(ctx, spec, engine.Config{
			Logger:   log,
			Display:  tui.NewTicker(p, 0),
			Consumer: tui.NewResults(p),
		})
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		p.Send(tui.DoneMsg{Summary: sum, Err: err})
	}()

	_, err := p.Run()
	cancel()
	<-searched

	switch {
	case errors.Is(err, tea.ErrInterrupted):
		return context.Canceled
	case err != nil:
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
