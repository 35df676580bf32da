// Package content streams file contents line by line against a matcher.
package content

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"

	"github.com/michaelscutari/finder/internal/entry"
)

const (
	readBufferSize = 64 << 10

	// cancellation is checked every this many lines
	ctxCheckLines = 4096
)

// LineMatcher is the part of the matcher the scanner needs.
type LineMatcher interface {
	MatchLine(line []byte) bool
}

// Scanner matches file content. It is safe for concurrent use; every call to
// Scan owns its own buffers.
type Scanner struct {
	matcher      LineMatcher
	ignoreBinary bool
	window       int
	maxLine      int
}

// Options configures a Scanner.
type Options struct {
	// IgnoreBinary skips files with a NUL byte within Window leading bytes.
	IgnoreBinary bool
	Window       int
	// MaxLineBytes bounds the bytes retained per line; the rest of a longer
	// line is discarded and the line matched on its prefix.
	MaxLineBytes int
}

// NewScanner creates a scanner.
func NewScanner(m LineMatcher, opts Options) *Scanner {
	if opts.Window <= 0 {
		opts.Window = 8 << 10
	}
	if opts.MaxLineBytes <= 0 {
		opts.MaxLineBytes = 4 << 20
	}
	return &Scanner{
		matcher:      m,
		ignoreBinary: opts.IgnoreBinary,
		window:       opts.Window,
		maxLine:      opts.MaxLineBytes,
	}
}

// Stats describes one scanned file.
type Stats struct {
	Binary    bool
	Lines     int
	Matches   int
	Truncated int
}

// EmitFunc receives each matching line in ascending order. text is only valid
// for the duration of the call. Returning an error stops the scan.
type EmitFunc func(line int, text []byte) error

// Scan opens path and streams it through Reader. Open and read failures are
// returned as entry.Warning values.
func (s *Scanner) Scan(ctx context.Context, path string, emit EmitFunc) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, entry.NewWarning(entry.WarnOpen, path, err)
	}
	defer f.Close()

	stats, err := s.Reader(ctx, f, emit)
	if err != nil {
		var w entry.Warning
		if errors.As(err, &w) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return stats, err
		}
		return stats, entry.NewWarning(entry.WarnRead, path, err)
	}
	return stats, nil
}

// Reader scans r. Memory use is bounded by the read buffer plus MaxLineBytes
// regardless of the input size.
func (s *Scanner) Reader(ctx context.Context, r io.Reader, emit EmitFunc) (Stats, error) {
	var stats Stats
	size := readBufferSize
	if s.window > size {
		size = s.window
	}
	br := bufio.NewReaderSize(r, size)

	if s.ignoreBinary {
		head, err := br.Peek(s.window)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
			return stats, err
		}
		if bytes.IndexByte(head, 0) >= 0 {
			stats.Binary = true
			return stats, nil
		}
	}

	var line []byte
	truncated := false
	for {
		chunk, err := br.ReadSlice('\n')
		if len(chunk) > 0 {
			if room := s.maxLine - len(line); room > 0 {
				if len(chunk) > room {
					line = append(line, chunk[:room]...)
					truncated = true
				} else {
					line = append(line, chunk...)
				}
			} else {
				truncated = true
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return stats, err
		}
		eof := err != nil

		if len(line) > 0 || !eof {
			stats.Lines++
			if truncated {
				stats.Truncated++
			}
			text := trimEOL(line)
			if s.matcher.MatchLine(text) {
				stats.Matches++
				if err := emit(stats.Lines, text); err != nil {
					return stats, err
				}
			}
		}
		if eof {
			return stats, nil
		}

		line = line[:0]
		truncated = false
		if stats.Lines%ctxCheckLines == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}
	}
}

func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte{'\n'})
	return bytes.TrimSuffix(line, []byte{'\r'})
}
