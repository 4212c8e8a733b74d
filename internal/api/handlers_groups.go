package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/history"
)

// HandleListGroups returns all groups in creation order.
func (h *Handler) HandleListGroups(c echo.Context) error {
	return c.JSON(http.StatusOK, h.mgr.Groups())
}

// HandleCreateGroup creates a layer group through the undo history.
func (h *Handler) HandleCreateGroup(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Name == "" {
		return NewValidationError("name")
	}

	h.mu.Lock()
	cmd := history.NewCreateGroupCommand(req.Name)
	ok := h.history.Execute(cmd)
	h.mu.Unlock()
	if !ok {
		return NewInternalError("failed to create group", nil)
	}

	group, _ := h.mgr.GetGroup(cmd.GroupID)
	return c.JSON(http.StatusCreated, group)
}

// HandleDeleteGroup deletes a group through the undo history; member
// layers are un-grouped, not deleted.
func (h *Handler) HandleDeleteGroup(c echo.Context) error {
	id := c.Param("id")

	h.mu.Lock()
	ok := h.history.Execute(history.NewDeleteGroupCommand(id))
	h.mu.Unlock()
	if !ok {
		return NewNotFoundError("group", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleRenameGroup renames a group through the undo history.
func (h *Handler) HandleRenameGroup(c echo.Context) error {
	id := c.Param("id")
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Name == "" {
		return NewValidationError("name")
	}

	h.mu.Lock()
	ok := h.history.Execute(history.NewRenameGroupCommand(id, req.Name))
	h.mu.Unlock()
	if !ok {
		return NewNotFoundError("group", id)
	}
	group, _ := h.mgr.GetGroup(id)
	return c.JSON(http.StatusOK, group)
}

// HandleAddLayerToGroup moves a layer into a group, enforcing single
// membership.
func (h *Handler) HandleAddLayerToGroup(c echo.Context) error {
	groupID := c.Param("id")
	var req struct {
		LayerID string `json:"layerId"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.LayerID == "" {
		return NewValidationError("layerId")
	}

	h.mu.Lock()
	ok := h.mgr.AddLayerToGroup(req.LayerID, groupID)
	h.mu.Unlock()
	if !ok {
		return NewNotFoundError("group or layer", groupID)
	}
	group, _ := h.mgr.GetGroup(groupID)
	return c.JSON(http.StatusOK, group)
}

// HandleRemoveLayerFromGroup detaches a layer from a group.
func (h *Handler) HandleRemoveLayerFromGroup(c echo.Context) error {
	groupID := c.Param("id")
	layerID := c.Param("layerId")

	h.mu.Lock()
	h.mgr.RemoveLayerFromGroup(layerID, groupID)
	h.mu.Unlock()
	return c.NoContent(http.StatusNoContent)
}

// HandleToggleGroupVisibility flips a group's visibility, cascading to
// member layers.
func (h *Handler) HandleToggleGroupVisibility(c echo.Context) error {
	id := c.Param("id")
	if _, ok := h.mgr.GetGroup(id); !ok {
		return NewNotFoundError("group", id)
	}
	h.mu.Lock()
	visible := h.mgr.ToggleGroupVisibility(id)
	h.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]bool{"visible": visible})
}

// HandleToggleGroupExpansion flips a group's UI expansion state.
func (h *Handler) HandleToggleGroupExpansion(c echo.Context) error {
	id := c.Param("id")
	if _, ok := h.mgr.GetGroup(id); !ok {
		return NewNotFoundError("group", id)
	}
	h.mu.Lock()
	expanded := h.mgr.ToggleGroupExpansion(id)
	h.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]bool{"expanded": expanded})
}

// HandleSetActiveGroup records the active group selector.
func (h *Handler) HandleSetActiveGroup(c echo.Context) error {
	var req struct {
		GroupID string `json:"groupId"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	h.mu.Lock()
	h.mgr.SetActiveGroup(req.GroupID)
	h.mu.Unlock()
	return c.NoContent(http.StatusNoContent)
}
