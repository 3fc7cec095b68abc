package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mehmettevfikcetin/flixary/internal/handler"
)

// RegisterCatalog registers the read-only catalog lookup endpoints.
// These routes do not require authentication; callers can search and
// browse titles before signing up.  The supplied middleware (response
// cache and rate limiter) shields the upstream provider from repeated
// identical lookups and from abuse.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1/catalog", mw...)
	g.GET("/search", h.Search)
	g.GET("/trending", h.Trending)
	g.GET("/:type/:id", h.Detail)
}
