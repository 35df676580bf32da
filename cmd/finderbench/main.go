// Command finderbench measures search throughput over a real tree for a
// range of worker counts, against a sequential walk as baseline.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/michaelscutari/finder/internal/engine"
	"github.com/michaelscutari/finder/internal/search"
	"github.com/michaelscutari/finder/internal/walk"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "finderbench: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("finderbench", flag.ContinueOnError)
	dir := fs.String("dir", ".", "Directory to search")
	pattern := fs.String("pattern", "finder-bench-no-match", "Pattern to search for")
	modeName := fs.String("mode", "all", "Search mode: file-name|dir-name|content|all")
	workerList := fs.String("workers", "1,2,4,8", "Comma-separated worker counts to try")
	repeat := fs.Int("repeat", 1, "Runs per worker count; the fastest is reported")
	baseline := fs.Bool("baseline", true, "Also time a sequential walk without matching")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mode, err := search.ParseMode(*modeName)
	if err != nil {
		return err
	}
	counts, err := parseWorkers(*workerList)
	if err != nil {
		return err
	}
	if *repeat < 1 {
		*repeat = 1
	}

	fmt.Fprintf(out, "dir=%s pattern=%q mode=%s repeat=%d\n", *dir, *pattern, mode, *repeat)

	ctx := context.Background()
	if *baseline {
		spec, err := search.DefaultOptions().WithProgress(false).Build(*pattern, *dir)
		if err != nil {
			return err
		}
		entries, elapsed, err := walkOnce(ctx, spec)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "walk:       entries=%d elapsed=%v rate=%s\n", entries, elapsed.Round(time.Millisecond), rate(entries, elapsed))
	}

	for _, n := range counts {
		spec, err := search.DefaultOptions().
			WithMode(mode).
			WithWorkers(n).
			WithProgress(false).
			Build(*pattern, *dir)
		if err != nil {
			return err
		}

		best := time.Duration(0)
		var entries, matches, warnings int64
		for i := 0; i < *repeat; i++ {
			sum, err := engine.Run(ctx, spec, engine.Config{Stdout: io.Discard})
			if err != nil {
				return err
			}
			if best == 0 || sum.Elapsed < best {
				best = sum.Elapsed
			}
			entries, matches, warnings = sum.Entries, sum.Matches, sum.Warnings
		}
		fmt.Fprintf(out, "workers=%-3d entries=%d matches=%d warnings=%d elapsed=%v rate=%s\n",
			n, entries, matches, warnings, best.Round(time.Millisecond), rate(entries, best))
	}
	return nil
}

func parseWorkers(s string) ([]int, error) {
	var counts []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid worker count %q", part)
		}
		counts = append(counts, n)
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("no worker counts given")
	}
	return counts, nil
}

// walkOnce counts entries with the sequential walker. Warnings are skipped.
func walkOnce(ctx context.Context, spec search.Spec) (int64, time.Duration, error) {
	start := time.Now()
	w, err := walk.New(spec)
	if err != nil {
		return 0, 0, err
	}
	var n int64
	for _, err := range w.Walk(ctx) {
		if err == nil {
			n++
		}
	}
	return n, time.Since(start), nil
}

func rate(n int64, d time.Duration) string {
	if d.Seconds() <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.0f/sec", float64(n)/d.Seconds())
}
