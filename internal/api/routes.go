package api

import "github.com/labstack/echo/v4"

// RegisterRoutes wires all API endpoints.
func RegisterRoutes(e *echo.Echo, h *Handler, hub *Hub) {
	apiGroup := e.Group("/api")

	apiGroup.GET("/health", h.HandleHealth)
	apiGroup.GET("/ws", hub.HandleWebSocket)

	// Layers
	apiGroup.GET("/layers", h.HandleListLayers)
	apiGroup.POST("/layers", h.HandleCreateLayer)
	apiGroup.GET("/layers/:id", h.HandleGetLayer)
	apiGroup.GET("/layers/:id/stats", h.HandleLayerStats)
	apiGroup.DELETE("/layers/:id", h.HandleDeleteLayer)
	apiGroup.PUT("/layers/:id/name", h.HandleRenameLayer)
	apiGroup.POST("/layers/:id/move", h.HandleMoveLayer)
	apiGroup.PUT("/layers/:id/opacity", h.HandleSetLayerOpacity)
	apiGroup.POST("/layers/:id/visibility", h.HandleToggleLayerVisibility)
	apiGroup.PUT("/layers/:id/style", h.HandleSetLayerStyle)
	apiGroup.POST("/layers/:id/filter", h.HandleApplyFilter)
	apiGroup.DELETE("/layers/:id/filter", h.HandleClearFilter)
	apiGroup.POST("/layers/:id/sort", h.HandleSortLayer)
	apiGroup.POST("/layers/:id/fit", h.HandleFitToLayer)

	// Features
	apiGroup.POST("/layers/:id/features", h.HandleAddFeatures)
	apiGroup.PUT("/layers/:id/features/:featureId", h.HandleUpdateFeature)
	apiGroup.DELETE("/layers/:id/features/:featureId", h.HandleDeleteFeature)

	// Groups
	apiGroup.GET("/groups", h.HandleListGroups)
	apiGroup.POST("/groups", h.HandleCreateGroup)
	apiGroup.DELETE("/groups/:id", h.HandleDeleteGroup)
	apiGroup.PUT("/groups/:id/name", h.HandleRenameGroup)
	apiGroup.POST("/groups/:id/layers", h.HandleAddLayerToGroup)
	apiGroup.DELETE("/groups/:id/layers/:layerId", h.HandleRemoveLayerFromGroup)
	apiGroup.POST("/groups/:id/visibility", h.HandleToggleGroupVisibility)
	apiGroup.POST("/groups/:id/expansion", h.HandleToggleGroupExpansion)
	apiGroup.POST("/groups/active", h.HandleSetActiveGroup)

	// Undo/redo
	apiGroup.GET("/history", h.HandleHistoryStatus)
	apiGroup.POST("/history/undo", h.HandleUndo)
	apiGroup.POST("/history/redo", h.HandleRedo)

	// Workspace persistence and transfer
	apiGroup.GET("/workspace/export", h.HandleExportWorkspace)
	apiGroup.GET("/workspace/export/msgpack", h.HandleExportWorkspaceMsgpack)
	apiGroup.POST("/workspace/import", h.HandleImportWorkspace)
	apiGroup.POST("/workspace/save", h.HandleSaveWorkspace)
	apiGroup.POST("/workspace/load", h.HandleLoadWorkspace)

	// Data ingestion
	apiGroup.POST("/import/csv", h.HandleImportCSV)
	apiGroup.POST("/geocode", h.HandleGeocode)

	// Automation facade
	auto := apiGroup.Group("/automation")
	auto.POST("/locations", h.HandleAddLocations)
	auto.GET("/locations", h.HandleGetLocations)
	auto.PUT("/locations/:id", h.HandleUpdateLocation)
	auto.DELETE("/locations/:id", h.HandleDeleteLocation)
	auto.GET("/layers", h.HandleListLayers)
	auto.POST("/layers", h.HandleCreateLayer)
	auto.POST("/webhooks", h.HandleRegisterWebhook)
	auto.GET("/webhooks", h.HandleListWebhooks)
	auto.DELETE("/webhooks/:id", h.HandleUnregisterWebhook)
}
