package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/michaelscutari/finder/internal/entry"
	"github.com/michaelscutari/finder/internal/match"
	"github.com/michaelscutari/finder/internal/progress"
	"github.com/michaelscutari/finder/internal/search"
	"github.com/michaelscutari/finder/internal/walk"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// skewedTree builds one deep chain, one wide directory and a few small ones.
func skewedTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	deep := filepath.Join(root, "deep")
	for i := 0; i < 25; i++ {
		deep = filepath.Join(deep, fmt.Sprintf("level%02d", i))
	}
	require.NoError(t, os.MkdirAll(deep, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(deep, "needle.txt"), []byte("needle at the bottom\n"), 0o644))

	wide := filepath.Join(root, "wide")
	require.NoError(t, os.MkdirAll(wide, 0o755))
	for i := 0; i < 300; i++ {
		body := "nothing here\n"
		if i%7 == 0 {
			body = "line one\nfound a needle\nline three\nneedle again\n"
		}
		require.NoError(t, os.WriteFile(filepath.Join(wide, fmt.Sprintf("f%03d.txt", i)), []byte(body), 0o644))
	}
	for i := 0; i < 20; i++ {
		dir := filepath.Join(root, "small", fmt.Sprintf("needle-dir%02d", i), "sub")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "x.txt"), []byte("x\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin.dat"), []byte("needle\x00binary"), 0o644))
	return root
}

type outcome struct {
	matches  []entry.Match
	warnings []entry.Warning
	visited  int64
	err      error
}

func (o outcome) keys() []string {
	keys := make([]string, 0, len(o.matches))
	for _, m := range o.matches {
		keys = append(keys, fmt.Sprintf("%s|%s|%d|%s", m.Target, m.Path, m.Line, m.Text))
	}
	sort.Strings(keys)
	return keys
}

func spec(t *testing.T, pattern, root string, opts *search.Options) search.Spec {
	t.Helper()
	s, err := opts.Build(pattern, root)
	require.NoError(t, err)
	return s
}

func run(t *testing.T, ctx context.Context, sp search.Spec, counters *progress.Counters, opts *Options) outcome {
	t.Helper()
	m, err := match.New(sp)
	require.NoError(t, err)
	s, err := New(sp, m, counters, opts)
	require.NoError(t, err)

	var out outcome
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for m := range s.Matches() {
			out.matches = append(out.matches, m)
		}
	}()
	go func() {
		defer wg.Done()
		for w := range s.Warnings() {
			out.warnings = append(out.warnings, w)
		}
	}()
	out.err = s.Run(ctx)
	wg.Wait()
	out.visited = s.Visited()
	return out
}

func TestSameResultForEveryPoolSize(t *testing.T) {
	root := skewedTree(t)

	var want []string
	var wantVisited int64
	for n := 1; n <= 8; n++ {
		sp := spec(t, "needle", root, search.DefaultOptions().WithWorkers(n))
		out := run(t, context.Background(), sp, nil, nil)
		require.NoError(t, out.err)

		got := out.keys()
		if n == 1 {
			want, wantVisited = got, out.visited
			require.NotEmpty(t, want)
			continue
		}
		assert.Equal(t, want, got, "workers=%d", n)
		assert.Equal(t, wantVisited, out.visited, "workers=%d", n)
	}
}

func TestTinyQueueUsesLocalStacks(t *testing.T) {
	root := skewedTree(t)
	sp := spec(t, "needle", root, search.DefaultOptions().WithWorkers(1))
	want := run(t, context.Background(), sp, nil, nil).keys()

	for _, n := range []int{2, 4, 8} {
		sp := spec(t, "needle", root, search.DefaultOptions().WithWorkers(n))
		opts := DefaultOptions().WithQueueSize(1).WithDonateThreshold(1).WithMatchBuffer(1)
		out := run(t, context.Background(), sp, nil, opts)
		require.NoError(t, out.err)
		assert.Equal(t, want, out.keys(), "workers=%d", n)
	}
}

func TestEveryEntryVisitedExactlyOnce(t *testing.T) {
	root := skewedTree(t)
	sp := spec(t, "needle", root, search.DefaultOptions().WithWorkers(1))

	w, err := walk.New(sp)
	require.NoError(t, err)
	var sequential int64
	for _, err := range w.Walk(context.Background()) {
		if err == nil {
			sequential++
		}
	}

	sp = spec(t, "needle", root, search.DefaultOptions().WithWorkers(6))
	counters := progress.NewCounters()
	out := run(t, context.Background(), sp, counters, DefaultOptions().WithQueueSize(2))
	require.NoError(t, out.err)
	assert.Equal(t, sequential, out.visited)
	assert.Equal(t, sequential, counters.Entries())
	assert.Equal(t, int64(len(out.matches)), counters.Matches())
}

func TestModesSelectTargets(t *testing.T) {
	root := skewedTree(t)
	count := func(out outcome) map[entry.Target]int {
		c := map[entry.Target]int{}
		for _, m := range out.matches {
			c[m.Target]++
		}
		return c
	}

	all := count(run(t, context.Background(), spec(t, "needle", root, search.DefaultOptions()), nil, nil))
	assert.Equal(t, 20, all[entry.TargetDirName])
	assert.Equal(t, 1, all[entry.TargetFileName])
	// 43 wide files with two hits each plus the deep file; bin.dat is skipped
	assert.Equal(t, 43*2+1, all[entry.TargetContent])

	dirs := count(run(t, context.Background(), spec(t, "needle", root, search.DefaultOptions().WithMode(search.ModeDirName)), nil, nil))
	assert.Equal(t, map[entry.Target]int{entry.TargetDirName: 20}, dirs)

	files := count(run(t, context.Background(), spec(t, "needle", root, search.DefaultOptions().WithMode(search.ModeFileName)), nil, nil))
	assert.Equal(t, map[entry.Target]int{entry.TargetFileName: 1}, files)

	binary := count(run(t, context.Background(), spec(t, "needle", root, search.DefaultOptions().WithMode(search.ModeContent).WithIgnoreBinary(false)), nil, nil))
	assert.Equal(t, 43*2+2, binary[entry.TargetContent])
}

func TestBinaryFileKeepsNameMatch(t *testing.T) {
	root := t.TempDir()
	bin := filepath.Join(root, "needle.bin")
	require.NoError(t, os.WriteFile(bin, []byte("needle\x00needle\n"), 0o644))

	out := run(t, context.Background(), spec(t, "needle", root, search.DefaultOptions()), nil, nil)
	require.NoError(t, out.err)
	var names, content int
	for _, m := range out.matches {
		require.Equal(t, bin, m.Path)
		switch m.Target {
		case entry.TargetFileName:
			names++
		case entry.TargetContent:
			content++
		}
	}
	assert.Equal(t, 1, names, "a binary file still matches by name")
	assert.Zero(t, content, "binary content is skipped")
	assert.Empty(t, out.warnings)

	out = run(t, context.Background(), spec(t, "needle", root, search.DefaultOptions().WithIgnoreBinary(false)), nil, nil)
	require.NoError(t, out.err)
	assert.Len(t, out.matches, 2)
}

func TestContentMatchesAscendPerFile(t *testing.T) {
	root := t.TempDir()
	var body strings.Builder
	for i := 0; i < 2000; i++ {
		if i%3 == 0 {
			body.WriteString("hit\n")
		} else {
			body.WriteString("miss\n")
		}
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, fmt.Sprintf("f%d", i)), []byte(body.String()), 0o644))
	}

	sp := spec(t, "hit", root, search.DefaultOptions().WithMode(search.ModeContent).WithWorkers(4))
	out := run(t, context.Background(), sp, nil, DefaultOptions().WithMatchBuffer(1))
	require.NoError(t, out.err)

	last := map[string]int{}
	for _, m := range out.matches {
		assert.Greater(t, m.Line, last[m.Path], "lines must ascend within %s", m.Path)
		last[m.Path] = m.Line
	}
	assert.Len(t, out.matches, 4*667)
}

func TestWarningsDoNotStopTheSearch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "broken")))
	require.NoError(t, os.Symlink(root, filepath.Join(root, "loop")))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ok.txt"), []byte("target\n"), 0o644))

	sp := spec(t, "target", root, search.DefaultOptions().WithFollowLinks(true).WithWorkers(3))
	out := run(t, context.Background(), sp, nil, nil)
	require.NoError(t, out.err)

	kinds := map[entry.WarningKind]int{}
	for _, w := range out.warnings {
		kinds[w.Kind]++
	}
	assert.Equal(t, 1, kinds[entry.WarnSymlink])
	assert.Equal(t, 1, kinds[entry.WarnCycle])
	require.Len(t, out.matches, 1)
	assert.Equal(t, filepath.Join(root, "ok.txt"), out.matches[0].Path)
}

func TestLongLineWarning(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "long.txt"), []byte(strings.Repeat("z", 200)+"\n"), 0o644))

	opts := search.DefaultOptions().WithMode(search.ModeContent)
	opts.MaxLineBytes = 64
	out := run(t, context.Background(), spec(t, "zzz", root, opts), nil, nil)
	require.NoError(t, out.err)
	require.Len(t, out.warnings, 1)
	assert.Equal(t, entry.WarnLineTruncated, out.warnings[0].Kind)
	require.Len(t, out.matches, 1)
	assert.Len(t, out.matches[0].Text, 64)
}

func TestCancelledBeforeRun(t *testing.T) {
	root := skewedTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := run(t, ctx, spec(t, "needle", root, search.DefaultOptions().WithWorkers(4)), nil, nil)
	assert.ErrorIs(t, out.err, context.Canceled)
}

func TestCancelWithStalledConsumer(t *testing.T) {
	root := skewedTree(t)
	sp := spec(t, "needle", root, search.DefaultOptions().WithWorkers(4))
	m, err := match.New(sp)
	require.NoError(t, err)
	s, err := New(sp, m, nil, DefaultOptions().WithMatchBuffer(1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// take one match, then stop reading
	<-s.Matches()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("workers did not stop after cancellation")
	}
	for range s.Matches() {
	}
	for range s.Warnings() {
	}
}

func TestRunOnlyOnce(t *testing.T) {
	root := t.TempDir()
	sp := spec(t, "x", root, search.DefaultOptions())
	out := run(t, context.Background(), sp, nil, nil)
	require.NoError(t, out.err)

	m, err := match.New(sp)
	require.NoError(t, err)
	s, err := New(sp, m, nil, nil)
	require.NoError(t, err)
	go func() {
		for range s.Matches() {
		}
	}()
	go func() {
		for range s.Warnings() {
		}
	}()
	require.NoError(t, s.Run(context.Background()))
	assert.ErrorIs(t, s.Run(context.Background()), ErrAlreadyRun)
}

func TestNewRejectsMissingRoot(t *testing.T) {
	root := t.TempDir()
	sp := spec(t, "x", root, search.DefaultOptions())
	sp.Root = filepath.Join(root, "gone")
	m, err := match.New(sp)
	require.NoError(t, err)
	_, err = New(sp, m, nil, nil)
	assert.ErrorIs(t, err, search.ErrRootNotFound)
}
