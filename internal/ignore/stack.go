package ignore

// Stack is the cascade of rule sets from the search root down to one
// directory. Push returns a new Stack and leaves the receiver untouched, so a
// parent's Stack is what remains when the walk ascends, and any number of
// goroutines may share one.
type Stack struct {
	parent *Stack
	set    *RuleSet
	depth  int
}

// Push layers rs over s. A nil or empty set returns s itself.
func (s *Stack) Push(rs *RuleSet) *Stack {
	if rs.Len() == 0 {
		return s
	}
	depth := 1
	if s != nil {
		depth = s.depth + 1
	}
	return &Stack{parent: s, set: rs, depth: depth}
}

// Depth returns the number of rule sets in the cascade.
func (s *Stack) Depth() int {
	if s == nil {
		return 0
	}
	return s.depth
}

// Excluded reports whether absPath is ignored. The innermost rule set with a
// matching rule decides; outer sets are consulted only when inner ones are
// silent about the path.
func (s *Stack) Excluded(absPath string, isDir bool) bool {
	for node := s; node != nil; node = node.parent {
		if matched, ignored := node.set.Match(absPath, isDir); matched {
			return ignored
		}
	}
	return false
}
