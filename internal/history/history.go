package history

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/layers"
)

// DefaultLimit bounds the undo stack depth.
const DefaultLimit = 50

// History is a two-stack undo/redo structure over the layer manager.
// Execute, Undo and Redo return a boolean success indicator instead of
// an error: empty stacks and mid-execution re-entrancy are expected UI
// states, not faults.
type History struct {
	mu        sync.Mutex
	mgr       *layers.Manager
	undo      []*Command
	redo      []*Command
	limit     int
	executing bool
}

// New creates a history over the manager with the given undo depth;
// limit <= 0 uses DefaultLimit.
func New(mgr *layers.Manager, limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{mgr: mgr, limit: limit}
}

// Execute runs the command, pushes it onto the undo stack and clears the
// redo stack: once a new action is taken, prior "future" states are
// invalidated. The undo stack is trimmed to the bound by discarding its
// oldest entry.
func (h *History) Execute(c *Command) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.executing {
		log.Warn().Str("command", string(c.Kind)).Msg("history: re-entrant execute ignored")
		return false
	}
	h.executing = true
	ok := apply(h.mgr, c)
	h.executing = false

	if !ok {
		return false
	}

	h.undo = append(h.undo, c)
	if len(h.undo) > h.limit {
		h.undo = h.undo[1:]
	}
	h.redo = h.redo[:0]
	return true
}

// Undo pops the most recent command, runs its inverse and pushes it onto
// the redo stack. An empty stack is a no-op returning false.
func (h *History) Undo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.executing || len(h.undo) == 0 {
		return false
	}
	c := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]

	h.executing = true
	invert(h.mgr, c)
	h.executing = false

	h.redo = append(h.redo, c)
	return true
}

// Redo pops from the redo stack, re-applies the command and pushes it
// back onto the undo stack.
func (h *History) Redo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.executing || len(h.redo) == 0 {
		return false
	}
	c := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]

	h.executing = true
	ok := apply(h.mgr, c)
	h.executing = false

	if ok {
		h.undo = append(h.undo, c)
	}
	return ok
}

// CanUndo reports whether the undo stack is non-empty.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 0
}

// CanRedo reports whether the redo stack is non-empty.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// Depths returns the undo and redo stack depths.
func (h *History) Depths() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo), len(h.redo)
}

// UndoDescription returns the description of the command Undo would
// reverse, or "" when the stack is empty.
func (h *History) UndoDescription() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.undo) == 0 {
		return ""
	}
	return h.undo[len(h.undo)-1].Description
}

// RedoDescription returns the description of the command Redo would
// re-apply, or "" when the stack is empty.
func (h *History) RedoDescription() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.redo) == 0 {
		return ""
	}
	return h.redo[len(h.redo)-1].Description
}

// Clear drops both stacks, typically after a workspace import.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}
