package router

import (
	"github.com/mehmettevfikcetin/flixary/internal/handler"
	"github.com/mehmettevfikcetin/flixary/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterEntries registers the tracked-entry endpoints under /v1.  All
// routes require a valid JWT; every operation is scoped to the
// authenticated user.  Adding an entry may also append it to a custom
// list, and deleting one purges its snapshots from every list, so both
// run through the consistency coordinator.
func RegisterEntries(e *echo.Echo, h *handler.EntryHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
	)
	// Start tracking a title (optionally into a custom list in the same call).
	g.POST("/entries", h.Add)
	// Browse the tracked entries with ?status= ?type= ?genre= ?year= ?favorite= ?sort=.
	g.GET("/entries", h.List)
	// Entries are addressed by their media reference, not the row id:
	// the pair (media type, catalog id) is unique per user.
	g.GET("/entries/:type/:id", h.Get)
	g.PATCH("/entries/:type/:id", h.Update)
	// Deleting removes the entry everywhere, custom lists included.
	g.DELETE("/entries/:type/:id", h.Remove)

	// Aggregated profile statistics over the user's entries.
	g.GET("/stats", h.Stats)
}
