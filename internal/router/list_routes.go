package router

import (
	"github.com/mehmettevfikcetin/flixary/internal/handler"
	"github.com/mehmettevfikcetin/flixary/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterLists registers the custom-list endpoints under /v1.  All
// routes require a valid JWT and operate only on lists the
// authenticated user owns.
func RegisterLists(e *echo.Echo, h *handler.ListHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
	)
	g.POST("/lists", h.Create)
	g.GET("/lists", h.Index)
	g.GET("/lists/:id", h.Get)
	g.PATCH("/lists/:id", h.Update)
	g.DELETE("/lists/:id", h.Delete)

	// Item membership.  Items are snapshots of tracked entries and are
	// addressed by the same (media type, catalog id) pair as entries.
	g.POST("/lists/:id/items", h.AddItem)
	g.DELETE("/lists/:id/items/:type/:itemID", h.RemoveItem)
	// Transfers between lists.  Move copies into the target first and
	// removes from the source second so a failure never loses the item.
	g.POST("/lists/:id/items/:type/:itemID/move", h.MoveItem)
	g.POST("/lists/:id/items/:type/:itemID/copy", h.CopyItem)
}
