package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type historyStatus struct {
	CanUndo         bool   `json:"canUndo"`
	CanRedo         bool   `json:"canRedo"`
	UndoDepth       int    `json:"undoDepth"`
	RedoDepth       int    `json:"redoDepth"`
	UndoDescription string `json:"undoDescription,omitempty"`
	RedoDescription string `json:"redoDescription,omitempty"`
}

func (h *Handler) historyStatus() historyStatus {
	undo, redo := h.history.Depths()
	return historyStatus{
		CanUndo:         undo > 0,
		CanRedo:         redo > 0,
		UndoDepth:       undo,
		RedoDepth:       redo,
		UndoDescription: h.history.UndoDescription(),
		RedoDescription: h.history.RedoDescription(),
	}
}

// HandleHistoryStatus reports stack depths and the next undo/redo
// descriptions, for the UI to enable or disable its buttons.
func (h *Handler) HandleHistoryStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.historyStatus())
}

// HandleUndo reverses the most recent command. An empty stack is not an
// error; the response carries the outcome.
func (h *Handler) HandleUndo(c echo.Context) error {
	h.mu.Lock()
	ok := h.history.Undo()
	h.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]any{
		"undone":  ok,
		"history": h.historyStatus(),
	})
}

// HandleRedo re-applies the most recently undone command.
func (h *Handler) HandleRedo(c echo.Context) error {
	h.mu.Lock()
	ok := h.history.Redo()
	h.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]any{
		"redone":  ok,
		"history": h.historyStatus(),
	})
}
