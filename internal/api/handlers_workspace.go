package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/docstore"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
)

// HandleExportWorkspace serializes the full workspace as JSON.
func (h *Handler) HandleExportWorkspace(c echo.Context) error {
	return c.JSON(http.StatusOK, h.mgr.ExportAllLayers())
}

// HandleExportWorkspaceMsgpack serializes the workspace in msgpack for
// compact transfer to automation clients.
func (h *Handler) HandleExportWorkspaceMsgpack(c echo.Context) error {
	doc := h.mgr.ExportAllLayers()
	data, err := msgpack.Marshal(doc)
	if err != nil {
		return NewInternalError("failed to encode workspace", err)
	}
	return c.Blob(http.StatusOK, "application/x-msgpack", data)
}

// HandleImportWorkspace replaces the workspace with the posted document
// and resets the undo history.
func (h *Handler) HandleImportWorkspace(c echo.Context) error {
	var doc models.WorkspaceDocument
	if err := c.Bind(&doc); err != nil {
		return NewBadRequestError("invalid workspace document", err)
	}

	h.mu.Lock()
	h.mgr.ImportLayers(&doc)
	h.history.Clear()
	h.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]int{"layers": len(h.mgr.Layers())})
}

// HandleSaveWorkspace persists the workspace to the document store now,
// outside the auto-save timer.
func (h *Handler) HandleSaveWorkspace(c echo.Context) error {
	h.saver.Save(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// HandleLoadWorkspace replaces the workspace with the latest persisted
// document.
func (h *Handler) HandleLoadWorkspace(c echo.Context) error {
	doc, err := h.docs.Load(c.Request().Context())
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return NewNotFoundError("workspace document", "latest")
		}
		return NewUpstreamError("failed to load workspace", err)
	}

	h.mu.Lock()
	h.mgr.ImportLayers(doc)
	h.history.Clear()
	h.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]int{"layers": len(doc.Layers)})
}
