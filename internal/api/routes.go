package api

import "github.com/labstack/echo/v4"

// RegisterRoutes wires the API endpoints onto an echo instance.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	g := e.Group("/api")

	g.GET("/health", h.HandleHealth)

	g.POST("/logs/fetch", h.HandleFetch)
	g.POST("/logs/fetch/msgpack", h.HandleFetchMsgpack)
	g.POST("/logs/export", h.HandleExportCSV)
}
