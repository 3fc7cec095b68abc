package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/mehmettevfikcetin/flixary/internal/catalog"
)

// CatalogHandler proxies read-only lookups against the external title
// catalog. These routes sit behind the response cache so repeated
// searches do not burn through the provider quota.
type CatalogHandler struct {
    Catalog *catalog.Client
}

func NewCatalogHandler(cl *catalog.Client) *CatalogHandler {
    if cl == nil {
        panic("nil catalog client passed to NewCatalogHandler")
    }
    return &CatalogHandler{Catalog: cl}
}

// Search looks up titles by free text: GET /v1/catalog/search?q=&type=&page=.
func (h *CatalogHandler) Search(c echo.Context) error {
    q := strings.TrimSpace(c.QueryParam("q"))
    if q == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "q required"})
    }
    kind := strings.TrimSpace(c.QueryParam("type"))
    page := 1
    if s := c.QueryParam("page"); s != "" {
        if n, err := strconv.Atoi(s); err == nil && n > 0 {
            page = n
        }
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    res, err := h.Catalog.Search(ctx, q, kind, page)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, res)
}

// Trending returns the provider's currently trending titles:
// GET /v1/catalog/trending?type=.
func (h *CatalogHandler) Trending(c echo.Context) error {
    kind := strings.TrimSpace(c.QueryParam("type"))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    res, err := h.Catalog.Trending(ctx, kind)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, res)
}

// Detail returns full metadata for one title: GET /v1/catalog/:type/:id.
func (h *CatalogHandler) Detail(c echo.Context) error {
    ref, ok := refFromPath(c, "type", "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid media reference"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    item, err := h.Catalog.Item(ctx, ref)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, item)
}
