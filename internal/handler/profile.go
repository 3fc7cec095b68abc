package handler

import (
    "context"
    "database/sql"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/mehmettevfikcetin/flixary/internal/model"
    "github.com/mehmettevfikcetin/flixary/internal/repository"
)

// ProfileHandler serves the user's own profile page data.
type ProfileHandler struct {
    Users *repository.UserRepo
}

func NewProfileHandler(u *repository.UserRepo) *ProfileHandler {
    if u == nil {
        panic("nil user repository passed to NewProfileHandler")
    }
    return &ProfileHandler{Users: u}
}

type updateProfileReq struct {
    DisplayName *string `json:"display_name"`
    Bio         *string `json:"bio"`
    PhotoURL    *string `json:"photo_url"`
    BannerURL   *string `json:"banner_url"`
}

// profileResp mirrors model.User minus the password hash.
type profileResp struct {
    ID          uint64    `json:"id"`
    Email       string    `json:"email"`
    DisplayName string    `json:"display_name"`
    Bio         string    `json:"bio"`
    PhotoURL    string    `json:"photo_url"`
    BannerURL   string    `json:"banner_url"`
    CreatedAt   time.Time `json:"created_at"`
}

func toProfileResp(u model.User) profileResp {
    return profileResp{
        ID:          u.ID,
        Email:       u.Email,
        DisplayName: u.DisplayName,
        Bio:         u.Bio,
        PhotoURL:    u.PhotoURL,
        BannerURL:   u.BannerURL,
        CreatedAt:   u.CreatedAt,
    }
}

// Get returns the authenticated user's profile: GET /v1/profile.
func (h *ProfileHandler) Get(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    return c.JSON(http.StatusOK, toProfileResp(u))
}

// Update patches profile fields: PUT /v1/profile.
func (h *ProfileHandler) Update(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req updateProfileReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.DisplayName == nil && req.Bio == nil && req.PhotoURL == nil && req.BannerURL == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "no changes"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    ch := repository.ProfileChanges{
        DisplayName: req.DisplayName,
        Bio:         req.Bio,
        PhotoURL:    req.PhotoURL,
        BannerURL:   req.BannerURL,
    }
    if err := h.Users.UpdateProfile(ctx, uid, ch); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    return c.JSON(http.StatusOK, toProfileResp(u))
}
