package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/mehmettevfikcetin/flixary/internal/model"
    "github.com/mehmettevfikcetin/flixary/internal/repository"
    "github.com/mehmettevfikcetin/flixary/internal/service"
)

// ListHandler exposes the custom-list endpoints. Item membership goes
// through the coordinator so snapshots are copied from the tracked
// entry and counts stay accurate; list metadata is plain CRUD on the
// repository.
type ListHandler struct {
    Coord *service.Coordinator
    Lists *repository.ListRepo
}

func NewListHandler(co *service.Coordinator, l *repository.ListRepo) *ListHandler {
    if co == nil || l == nil {
        panic("nil dependency passed to NewListHandler")
    }
    return &ListHandler{Coord: co, Lists: l}
}

type createListReq struct {
    Name  string `json:"name"`
    Emoji string `json:"emoji"`
    Color string `json:"color"`
}

type updateListReq struct {
    Name  *string `json:"name"`
    Emoji *string `json:"emoji"`
    Color *string `json:"color"`
}

type listItemReq struct {
    TMDBID    int64  `json:"tmdb_id"`
    MediaType string `json:"media_type"`
}

type transferReq struct {
    TargetListID uint64 `json:"target_list_id"`
}

// Create makes a new empty custom list: POST /v1/lists.
func (h *ListHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createListReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    name, err := model.ValidateListName(req.Name)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    id, err := h.Lists.Create(ctx, uid, name, req.Emoji, req.Color)
    if err != nil {
        return writeError(c, err)
    }
    lst, err := h.Lists.GetByID(ctx, uid, id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, lst)
}

// Index returns the user's list headers: GET /v1/lists.
func (h *ListHandler) Index(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    lists, err := h.Lists.ListByUser(ctx, uid)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"lists": lists, "count": len(lists)})
}

// Get returns one list with its items: GET /v1/lists/:id.
func (h *ListHandler) Get(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    listID, ok := pathUint(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    lst, err := h.Lists.GetByID(ctx, uid, listID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, lst)
}

// Update renames or restyles a list: PATCH /v1/lists/:id.
func (h *ListHandler) Update(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    listID, ok := pathUint(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list id"})
    }
    var req updateListReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Name == nil && req.Emoji == nil && req.Color == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "no changes"})
    }
    if req.Name != nil {
        name, err := model.ValidateListName(*req.Name)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        }
        req.Name = &name
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Lists.UpdateMeta(ctx, uid, listID, req.Name, req.Emoji, req.Color); err != nil {
        return writeError(c, err)
    }
    lst, err := h.Lists.GetByID(ctx, uid, listID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, lst)
}

// Delete removes a list and all of its items: DELETE /v1/lists/:id.
// Deleting a list never touches the primary entries.
func (h *ListHandler) Delete(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    listID, ok := pathUint(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Lists.Delete(ctx, uid, listID); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// AddItem appends a tracked title to a list: POST /v1/lists/:id/items.
func (h *ListHandler) AddItem(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    listID, ok := pathUint(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list id"})
    }
    var req listItemReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    mt, err := model.ParseMediaType(req.MediaType)
    if err != nil || req.TMDBID <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid media reference"})
    }
    ref := model.MediaRef{TMDBID: req.TMDBID, MediaType: mt}

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    if err := h.Coord.AddToCustomList(ctx, uid, listID, ref); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// RemoveItem takes a title out of a list: DELETE /v1/lists/:id/items/:type/:itemID.
// Removing from a list never deletes the primary entry.
func (h *ListHandler) RemoveItem(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    listID, ok := pathUint(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list id"})
    }
    ref, ok := refFromPath(c, "type", "itemID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid media reference"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Coord.RemoveFromCustomList(ctx, uid, listID, ref); err != nil {
        // Removing something that was never there is not an error.
        if errors.Is(err, repository.ErrNotInList) {
            return c.NoContent(http.StatusNoContent)
        }
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// MoveItem transfers a title to another list, copy first then remove:
// POST /v1/lists/:id/items/:type/:itemID/move.
func (h *ListHandler) MoveItem(c echo.Context) error {
    return h.transfer(c, true)
}

// CopyItem duplicates a title into another list, leaving the source
// untouched: POST /v1/lists/:id/items/:type/:itemID/copy.
func (h *ListHandler) CopyItem(c echo.Context) error {
    return h.transfer(c, false)
}

func (h *ListHandler) transfer(c echo.Context, move bool) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    fromID, ok := pathUint(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list id"})
    }
    ref, ok := refFromPath(c, "type", "itemID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid media reference"})
    }
    var req transferReq
    if err := c.Bind(&req); err != nil || req.TargetListID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "target_list_id required"})
    }
    if req.TargetListID == fromID {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "target must differ from source"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    if move {
        err = h.Coord.MoveBetweenCustomLists(ctx, uid, fromID, req.TargetListID, ref)
    } else {
        err = h.Coord.CopyToCustomList(ctx, uid, fromID, req.TargetListID, ref)
    }
    if err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
