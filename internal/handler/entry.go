package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/mehmettevfikcetin/flixary/internal/model"
    "github.com/mehmettevfikcetin/flixary/internal/queue"
    "github.com/mehmettevfikcetin/flixary/internal/repository"
    "github.com/mehmettevfikcetin/flixary/internal/service"
)

// EntryHandler exposes the tracked-entry endpoints. Writes go through
// the coordinator so list snapshots stay consistent with the primary
// entries; reads hit the entry repository directly.
type EntryHandler struct {
    Coord   *service.Coordinator
    Entries *repository.EntryRepo
}

func NewEntryHandler(co *service.Coordinator, e *repository.EntryRepo) *EntryHandler {
    if co == nil || e == nil {
        panic("nil dependency passed to NewEntryHandler")
    }
    return &EntryHandler{Coord: co, Entries: e}
}

type addTrackingReq struct {
    TMDBID    int64    `json:"tmdb_id"`
    MediaType string   `json:"media_type"`
    Status    string   `json:"status"`
    ListID    *uint64  `json:"list_id"`
    Rating    *float64 `json:"rating"`
}

type updateEntryReq struct {
    Status       *string  `json:"status"`
    Rating       *float64 `json:"rating"`
    ClearRating  bool     `json:"clear_rating"`
    Progress     *int64   `json:"progress"`
    Notes        *string  `json:"notes"`
    StartDate    *string  `json:"start_date"` // YYYY-MM-DD
    EndDate      *string  `json:"end_date"`   // YYYY-MM-DD
    RewatchCount *int64   `json:"rewatch_count"`
    Favorite     *bool    `json:"favorite"`
}

// Add starts tracking a title: POST /v1/entries.
func (h *EntryHandler) Add(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req addTrackingReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    mt, err := model.ParseMediaType(req.MediaType)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid media_type"})
    }
    if req.TMDBID <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "tmdb_id required"})
    }
    status, err := model.ParseWatchStatus(req.Status)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
    }
    ref := model.MediaRef{TMDBID: req.TMDBID, MediaType: mt}

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    entry, err := h.Coord.AddTracking(ctx, uid, ref, status, req.ListID, req.Rating)
    if err != nil {
        return writeError(c, err)
    }

    // Best effort: a broker outage must not fail the request.
    ev := queue.EntryTrackedEvent{
        UserID:    uid,
        TMDBID:    ref.TMDBID,
        MediaType: string(ref.MediaType),
        Title:     entry.Title,
        Status:    string(entry.Status),
        TrackedAt: time.Now().UTC().Format(time.RFC3339),
    }
    if req.ListID != nil {
        ev.ListID = *req.ListID
    }
    _ = queue.PublishEntryTracked(c.Request().Context(), ev)

    return c.JSON(http.StatusCreated, entry)
}

// List returns the user's entries, optionally filtered: GET /v1/entries.
// Supported query parameters: status, type, genre, year, favorite, sort.
func (h *EntryHandler) List(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    var f repository.EntryFilter
    if s := c.QueryParam("status"); s != "" {
        st, err := model.ParseWatchStatus(s)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
        }
        f.Status = st
    }
    if s := c.QueryParam("type"); s != "" {
        mt, err := model.ParseMediaType(s)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid type"})
        }
        f.MediaType = mt
    }
    if s := c.QueryParam("genre"); s != "" {
        if g, err := strconv.ParseInt(s, 10, 64); err == nil && g > 0 {
            f.GenreID = g
        }
    }
    if s := c.QueryParam("year"); s != "" {
        if y, err := strconv.Atoi(s); err == nil && y > 0 {
            f.Year = y
        }
    }
    if s := c.QueryParam("favorite"); s == "true" || s == "1" {
        f.Favorite = true
    }
    f.Sort = strings.TrimSpace(c.QueryParam("sort"))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    entries, err := h.Entries.ListFiltered(ctx, uid, f)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"entries": entries, "count": len(entries)})
}

// Get returns a single tracked entry: GET /v1/entries/:type/:id.
func (h *EntryHandler) Get(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ref, ok := refFromPath(c, "type", "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid media reference"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    entry, err := h.Entries.GetByRef(ctx, uid, ref)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, entry)
}

// Update patches a tracked entry: PATCH /v1/entries/:type/:id.
func (h *EntryHandler) Update(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ref, ok := refFromPath(c, "type", "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid media reference"})
    }
    var req updateEntryReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ch := model.EntryChanges{
        UserRating:   req.Rating,
        ClearRating:  req.ClearRating,
        Progress:     req.Progress,
        Notes:        req.Notes,
        RewatchCount: req.RewatchCount,
        Favorite:     req.Favorite,
    }
    if req.Status != nil {
        st, err := model.ParseWatchStatus(*req.Status)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
        }
        ch.Status = &st
    }
    if req.StartDate != nil {
        t, err := time.Parse("2006-01-02", *req.StartDate)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
        }
        ch.StartDate = &t
    }
    if req.EndDate != nil {
        t, err := time.Parse("2006-01-02", *req.EndDate)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
        }
        ch.EndDate = &t
    }
    if ch.Empty() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "no changes"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    entry, err := h.Coord.UpdateEntry(ctx, uid, ref, ch)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, entry)
}

// Remove deletes an entry and purges its snapshots from every custom
// list the user owns: DELETE /v1/entries/:type/:id.
func (h *EntryHandler) Remove(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ref, ok := refFromPath(c, "type", "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid media reference"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    res, err := h.Coord.RemoveTrackingEverywhere(ctx, uid, ref)
    if err != nil {
        return writeError(c, err)
    }

    _ = queue.PublishEntryRemoved(c.Request().Context(), queue.EntryRemovedEvent{
        UserID:      uid,
        TMDBID:      ref.TMDBID,
        MediaType:   string(ref.MediaType),
        PurgedLists: res.PurgedLists,
        RemovedAt:   time.Now().UTC().Format(time.RFC3339),
    })

    return c.JSON(http.StatusOK, res)
}

// Stats aggregates the user's tracked entries: GET /v1/stats.
func (h *EntryHandler) Stats(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    stats, err := h.Coord.ComputeStats(ctx, uid)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, stats)
}
