package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/eco-adventures-backend/internal/model"
    "github.com/iliyamo/eco-adventures-backend/internal/repository"
)

// ActivityHandler serves the past-activity gallery.
type ActivityHandler struct {
    Activities *repository.ActivityRepo
}

func NewActivityHandler(repo *repository.ActivityRepo) *ActivityHandler {
    if repo == nil {
        panic("nil repository passed to NewActivityHandler")
    }
    return &ActivityHandler{Activities: repo}
}

type activityRequest struct {
    Title             *string     `json:"title" validate:"omitempty,min=1,max=200"`
    Description       *string     `json:"description"`
    Category          *string     `json:"category" validate:"omitempty,max=50"`
    Date              *model.Date `json:"date"`
    Location          *string     `json:"location" validate:"omitempty,max=200"`
    ImageURL          *string     `json:"image_url" validate:"omitempty,max=500"`
    ParticipantsCount *int        `json:"participants_count" validate:"omitempty,min=0"`
    Highlights        *string     `json:"highlights"`
    Photos            []string    `json:"photos"`
}

func (r *activityRequest) apply(a *model.Activity) {
    if r.Title != nil {
        a.Title = *r.Title
    }
    if r.Description != nil {
        a.Description = r.Description
    }
    if r.Category != nil {
        a.Category = r.Category
    }
    if r.Date != nil {
        a.Date = r.Date
    }
    if r.Location != nil {
        a.Location = r.Location
    }
    if r.ImageURL != nil {
        a.ImageURL = r.ImageURL
    }
    if r.ParticipantsCount != nil {
        a.ParticipantsCount = r.ParticipantsCount
    }
    if r.Highlights != nil {
        a.Highlights = r.Highlights
    }
    if r.Photos != nil {
        a.Photos = r.Photos
    }
}

// ListActivities handles GET /activities?skip&limit&category.
func (h *ActivityHandler) ListActivities(c echo.Context) error {
    page, err := queryPage(c, 100, 100)
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    out, err := h.Activities.List(c.Request().Context(), repository.ActivityFilter{Category: c.QueryParam("category"), Page: page})
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// GetActivity handles GET /activities/:id.
func (h *ActivityHandler) GetActivity(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    a, err := h.Activities.GetByID(c.Request().Context(), id)
    if err != nil {
        return repoError(c, err, "activity")
    }
    return c.JSON(http.StatusOK, a)
}

// CreateActivity handles POST /activities.
func (h *ActivityHandler) CreateActivity(c echo.Context) error {
    var req activityRequest
    if err := bindValid(c, &req); err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    if req.Title == nil || *req.Title == "" {
        return detail(c, http.StatusBadRequest, "title is required")
    }
    a := &model.Activity{Photos: []string{}}
    req.apply(a)
    if err := h.Activities.Create(c.Request().Context(), a); err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusCreated, a)
}

// UpdateActivity handles PUT /activities/:id.
func (h *ActivityHandler) UpdateActivity(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    var req activityRequest
    if err := bindValid(c, &req); err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    ctx := c.Request().Context()
    a, err := h.Activities.GetByID(ctx, id)
    if err != nil {
        return repoError(c, err, "activity")
    }
    req.apply(a)
    if err := h.Activities.Update(ctx, a); err != nil {
        return repoError(c, err, "activity")
    }
    return c.JSON(http.StatusOK, a)
}

// DeleteActivity handles DELETE /activities/:id.
func (h *ActivityHandler) DeleteActivity(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    if err := h.Activities.Delete(c.Request().Context(), id); err != nil {
        return repoError(c, err, "activity")
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "activity deleted"})
}
