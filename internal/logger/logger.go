// Package logger provides the leveled console logger used for diagnostics.
//
// Every line is prefixed with an [HH:MM:SS] timestamp and the level name.
// Level names are colored when the destination is a terminal. The logger is
// safe for concurrent use.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Level is a log severity; messages below the configured level are dropped.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel accepts trace, debug, info, warn or error in any case. An empty
// string is info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q (expected trace|debug|info|warn|error)", s)
}

// Logger writes leveled lines to one writer.
type Logger struct {
	writer      io.Writer
	level       Level
	colorOutput bool
	mutex       sync.Mutex
	closer      io.Closer
}

// New creates a logger. colorOutput enables ANSI level colors and should only
// be set for terminals.
func New(w io.Writer, level Level, colorOutput bool) *Logger {
	return &Logger{writer: w, level: level, colorOutput: colorOutput}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(nil, LevelError+1, false)
}

// Options selects the destination of a logger built by Setup.
type Options struct {
	Level Level
	// File is appended to when set; otherwise Stderr is used.
	File string
	// Stderr is the console destination, usually a progress-aware wrapper of
	// os.Stderr.
	Stderr io.Writer
	// Color enables level colors on Stderr.
	Color bool
}

// Setup builds the process logger. When File cannot be opened a warning is
// written to Stderr and logging stays on Stderr.
func Setup(opts Options) *Logger {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	if opts.File == "" {
		return New(stderr, opts.Level, opts.Color)
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l := New(stderr, opts.Level, opts.Color)
		l.Warnf("Could not open log file %s: %v. Logging to stderr.", opts.File, err)
		return l
	}
	l := New(f, opts.Level, false)
	l.closer = f
	return l
}

// StderrIsTerminal reports whether os.Stderr is a color-capable terminal.
// NO_COLOR is honoured through fatih/color.
func StderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) && !color.NoColor
}

// Close releases a log file opened by Setup.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level Level) bool {
	return l.writer != nil && level >= l.level
}

func (l *Logger) Tracef(format string, args ...any) { l.logf(LevelTrace, format, args...) }
func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *Logger) logf(level Level, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	message := fmt.Sprintf(format, args...)

	l.mutex.Lock()
	defer l.mutex.Unlock()

	name := level.String()
	if l.colorOutput {
		name = levelColor(level).Sprint(name)
	}
	fmt.Fprintf(l.writer, "[%s] [%s] %s\n", timestamp(), name, message)
}

func levelColor(level Level) *color.Color {
	switch level {
	case LevelTrace:
		return color.New(color.FgHiBlack)
	case LevelDebug:
		return color.New(color.FgCyan)
	case LevelWarn:
		return color.New(color.FgYellow)
	case LevelError:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgBlue)
	}
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}
