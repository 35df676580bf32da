package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/michaelscutari/finder/internal/config"
	"github.com/michaelscutari/finder/internal/engine"
	"github.com/michaelscutari/finder/internal/logger"
	"github.com/michaelscutari/finder/internal/progress"
	"github.com/michaelscutari/finder/internal/search"
)

type searchFlags struct {
	mode             string
	regex            bool
	caseSensitive    bool
	ignoreBinary     bool
	followLinks      bool
	maxDepth         int
	progress         bool
	hidden           bool
	noIgnore         bool
	workers          int
	configPath       string
	logLevel         string
	logFile          string
	progressInterval time.Duration
	tui              bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.mode, "mode", "m", "all", "What to match: file-name|dir-name|content|all")
	flags.BoolVarP(&f.regex, "regex", "r", false, "Treat PATTERN as a regular expression")
	flags.BoolVarP(&f.caseSensitive, "case-sensitive", "c", false, "Match case exactly")
	flags.BoolVarP(&f.ignoreBinary, "ignore-binary", "i", true, "Skip content of files with a NUL byte near the start")
	flags.BoolVarP(&f.followLinks, "follow-links", "f", false, "Follow symbolic links (cycles are detected)")
	flags.IntVarP(&f.maxDepth, "max-depth", "d", search.Unlimited, "Maximum descents below PATH (0 = direct children only, -1 = unlimited)")
	flags.BoolVarP(&f.progress, "progress", "p", true, "Show live progress on stderr")
	flags.BoolVar(&f.hidden, "hidden", false, "Include hidden files and directories")
	flags.BoolVar(&f.noIgnore, "no-ignore", false, "Do not read ignore files")
	flags.IntVarP(&f.workers, "workers", "j", 0, "Number of worker goroutines (0 = number of CPUs)")
	flags.StringVar(&f.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/finder/config.yaml)")
	flags.StringVar(&f.logLevel, "log-level", "info", "Log level: trace|debug|info|warn|error")
	flags.StringVar(&f.logFile, "log-file", "", "Append log output to this file instead of stderr")
	flags.BoolVar(&f.tui, "tui", false, "Browse results interactively while searching")
	flags.DurationVar(&f.progressInterval, "progress-interval", progress.DefaultInterval, "Emit progress lines to stderr at this interval when not a TTY (0 to disable)")
}

// apply overrides cfg with every flag given on the command line.
func (f *searchFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("mode") {
		cfg.Mode = f.mode
	}
	if changed("regex") {
		cfg.Regex = f.regex
	}
	if changed("case-sensitive") {
		cfg.CaseSensitive = f.caseSensitive
	}
	if changed("ignore-binary") {
		cfg.IgnoreBinary = f.ignoreBinary
	}
	if changed("follow-links") {
		cfg.FollowLinks = f.followLinks
	}
	if changed("max-depth") {
		cfg.MaxDepth = f.maxDepth
	}
	if changed("progress") {
		cfg.Progress = f.progress
	}
	if changed("hidden") {
		cfg.Hidden = f.hidden
	}
	if changed("no-ignore") {
		cfg.NoIgnore = f.noIgnore
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("log-file") {
		cfg.LogFile = f.logFile
	}
	if changed("progress-interval") {
		cfg.ProgressInterval = f.progressInterval
	}
}

func runSearch(cmd *cobra.Command, f *searchFlags, args []string) error {
	pattern := args[0]
	root := "."
	if len(args) > 1 {
		root = args[1]
	}

	cfgPath := f.configPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	f.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts, err := cfg.SearchOptions()
	if err != nil {
		return err
	}
	spec, err := opts.Build(pattern, root)
	if err != nil {
		return err
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if f.tui {
		return runTUI(cmd, spec, cfg.LogFile, level)
	}

	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	var progressOpts progress.Options
	color := false
	if stderr == os.Stderr {
		progressOpts = progress.ForFile(os.Stderr, cfg.ProgressInterval)
		color = logger.StderrIsTerminal()
	} else {
		progressOpts = progress.Options{Interval: cfg.ProgressInterval}
	}
	reporter := progress.NewReporter(stderr, progressOpts)

	log := logger.Setup(logger.Options{
		Level:  level,
		File:   cfg.LogFile,
		Stderr: reporter.Wrap(stderr),
		Color:  color,
	})
	defer log.Close()
	log.Debugf("config file: %s", cfgPath)

	var renderer *lipgloss.Renderer
	if stdout == os.Stdout {
		renderer = lipgloss.NewRenderer(os.Stdout)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}
		fmt.Fprintln(stderr, "\nCanceling... (press Ctrl+C again to force)")
		cancel()
		<-sigCh
		os.Exit(exitInterrupted)
	}()

	_, err = engine.Run(ctx, spec, engine.Config{
		Stdout:   stdout,
		Logger:   log,
		Display:  reporter,
		Renderer: renderer,
	})
	if err != nil {
		if ctx.Err() != nil {
			return context.Canceled
		}
		return err
	}
	return nil
}
