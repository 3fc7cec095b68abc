package handler // handler defines http handlers

import (
    "errors"  // errors provides sentinel values used in getUserID
    "net/http"
    "strconv" // strconv converts strings to numeric types

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/mehmettevfikcetin/flixary/internal/catalog"
    "github.com/mehmettevfikcetin/flixary/internal/model"
    "github.com/mehmettevfikcetin/flixary/internal/repository"
    "github.com/mehmettevfikcetin/flixary/internal/service"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// refFromPath builds a MediaRef from the :type and :id path parameters.
// The second return value is false when either parameter is malformed.
func refFromPath(c echo.Context, typeParam, idParam string) (model.MediaRef, bool) {
    mt, err := model.ParseMediaType(c.Param(typeParam))
    if err != nil {
        return model.MediaRef{}, false
    }
    id, err := strconv.ParseInt(c.Param(idParam), 10, 64)
    if err != nil || id <= 0 {
        return model.MediaRef{}, false
    }
    return model.MediaRef{TMDBID: id, MediaType: mt}, true
}

// pathUint parses a numeric path parameter like :id into a uint64.
func pathUint(c echo.Context, name string) (uint64, bool) {
    n, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || n == 0 {
        return 0, false
    }
    return n, true
}

// writeError maps service and repository errors onto HTTP responses so
// every handler reports the same status codes for the same conditions.
// A PartialFailure surfaces the failed step and the committed writes so
// clients know what to retry.
func writeError(c echo.Context, err error) error {
    var pf *service.PartialFailure
    if errors.As(err, &pf) {
        return c.JSON(http.StatusInternalServerError, echo.Map{
            "error":     "partial_failure",
            "op":        pf.Op,
            "step":      pf.FailedStep,
            "committed": pf.Committed,
        })
    }
    switch {
    case errors.Is(err, repository.ErrAlreadyTracked):
        return c.JSON(http.StatusConflict, echo.Map{"error": "already tracked"})
    case errors.Is(err, repository.ErrDuplicateInList):
        return c.JSON(http.StatusConflict, echo.Map{"error": "already in list"})
    case errors.Is(err, repository.ErrEntryNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "entry not found"})
    case errors.Is(err, repository.ErrListNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "list not found"})
    case errors.Is(err, repository.ErrNotInList):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not in list"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, service.ErrNotTracked):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "not tracked"})
    case errors.Is(err, catalog.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "title not found"})
    case errors.Is(err, catalog.ErrUnavailable):
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "catalog unavailable"})
    case errors.Is(err, model.ErrInvalidStatus),
        errors.Is(err, model.ErrInvalidRating),
        errors.Is(err, model.ErrInvalidProgress),
        errors.Is(err, model.ErrInvalidMediaType),
        errors.Is(err, model.ErrNotesTooLong):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
