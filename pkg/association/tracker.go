package association

import "fmt"

// CallTracker maintains the stack of associations currently being traversed
type CallTracker struct {
	stack Path
}

// NewCallTracker creates an empty tracker positioned at the top-level context
func NewCallTracker() *CallTracker {
	return &CallTracker{}
}

// Push enters a nested traversal of k
func (t *CallTracker) Push(k Key) {
	t.stack = append(t.stack, k)
}

// Pop leaves the innermost traversal and returns its key
func (t *CallTracker) Pop() (Key, error) {
	if len(t.stack) == 0 {
		return Key{}, fmt.Errorf("%w: leave called at top level", ErrContextUnderflow)
	}
	last := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return last, nil
}

// Current returns a copy of the active path
func (t *CallTracker) Current() Path {
	return clonePath(t.stack)
}

// Depth returns the number of entered associations
func (t *CallTracker) Depth() int {
	return len(t.stack)
}
