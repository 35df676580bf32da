package ignore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloserRulesOverride(t *testing.T) {
	var root *Stack
	root = root.Push(mustParse(t, "*.txt\n", "/r"))
	child := root.Push(mustParse(t, "!b.txt\n", "/r/a"))

	assert.True(t, root.Excluded("/r/a/b.txt", false))
	assert.False(t, child.Excluded("/r/a/b.txt", false))
	assert.True(t, child.Excluded("/r/a/c.txt", false))
	assert.Equal(t, 2, child.Depth())
}

func TestCloserExclusionOverridesOuterNegation(t *testing.T) {
	var s *Stack
	s = s.Push(mustParse(t, "*.md\n!README.md\n", "/r"))
	s = s.Push(mustParse(t, "README.md\n", "/r/docs"))

	assert.True(t, s.Excluded("/r/docs/README.md", false))
	assert.False(t, s.Excluded("/r/README.md", false))
}

func TestPushEmptyKeepsStack(t *testing.T) {
	var s *Stack
	s = s.Push(mustParse(t, "x\n", "/r"))
	assert.Same(t, s, s.Push(nil))
	assert.Same(t, s, s.Push(&RuleSet{base: "/r/a"}))
}

func TestNilStackExcludesNothing(t *testing.T) {
	var s *Stack
	assert.False(t, s.Excluded("/r/any", false))
	assert.Equal(t, 0, s.Depth())
}

func TestPopIsTheParent(t *testing.T) {
	var root *Stack
	root = root.Push(mustParse(t, "secret\n", "/r"))
	a := root.Push(mustParse(t, "!secret\n", "/r/a"))
	b := root.Push(mustParse(t, "other\n", "/r/b"))

	assert.False(t, a.Excluded("/r/a/secret", false))
	assert.True(t, b.Excluded("/r/b/secret", false))
	assert.True(t, root.Excluded("/r/a/secret", false))
}

func TestConcurrentReads(t *testing.T) {
	var s *Stack
	s = s.Push(mustParse(t, "*.log\n!keep.log\n", "/r"))
	s = s.Push(mustParse(t, "keep.log\n", "/r/x"))

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if !s.Excluded("/r/x/keep.log", false) {
					errs <- "keep.log under x should be excluded"
					return
				}
				if s.Excluded("/r/keep.log", false) {
					errs <- "keep.log at root should be included"
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		require.Fail(t, e)
	}
}
