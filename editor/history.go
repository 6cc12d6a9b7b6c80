package editor

import (
	"github.com/kaelemc/clabedit/topology"
)

// History keeps a bounded stack of model snapshots for undo/redo. When the
// bound is reached the oldest snapshot is dropped. Recording a snapshot
// after an undo discards the redo tail.
type History struct {
	states  []topology.Snapshot
	current int // index of the active state, -1 when empty
	depth   int
}

// NewHistory creates a history bounded to depth snapshots.
func NewHistory(depth int) *History {
	if depth <= 0 {
		depth = 50
	}
	return &History{current: -1, depth: depth}
}

// Record pushes a snapshot as the new current state.
func (h *History) Record(s topology.Snapshot) {
	// Drop any redo tail beyond the current position.
	h.states = h.states[:h.current+1]
	h.states = append(h.states, s)
	if len(h.states) > h.depth {
		h.states = h.states[1:]
	}
	h.current = len(h.states) - 1
}

// CanUndo reports whether an older state exists.
func (h *History) CanUndo() bool {
	return h.current > 0
}

// CanRedo reports whether a newer state exists.
func (h *History) CanRedo() bool {
	return h.current >= 0 && h.current < len(h.states)-1
}

// Undo steps back one state and returns it.
func (h *History) Undo() (topology.Snapshot, bool) {
	if !h.CanUndo() {
		return topology.Snapshot{}, false
	}
	h.current--
	return h.states[h.current], true
}

// Redo steps forward one state and returns it.
func (h *History) Redo() (topology.Snapshot, bool) {
	if !h.CanRedo() {
		return topology.Snapshot{}, false
	}
	h.current++
	return h.states[h.current], true
}

// Stats returns the current position (1-based) and total stored states.
func (h *History) Stats() (current, total int) {
	if len(h.states) == 0 {
		return 0, 0
	}
	return h.current + 1, len(h.states)
}

// Clear empties the history.
func (h *History) Clear() {
	h.states = nil
	h.current = -1
}
