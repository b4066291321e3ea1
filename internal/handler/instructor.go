package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/eco-adventures-backend/internal/model"
    "github.com/iliyamo/eco-adventures-backend/internal/repository"
)

// InstructorHandler serves instructor CRUD.
type InstructorHandler struct {
    Instructors *repository.InstructorRepo
}

func NewInstructorHandler(repo *repository.InstructorRepo) *InstructorHandler {
    if repo == nil {
        panic("nil repository passed to NewInstructorHandler")
    }
    return &InstructorHandler{Instructors: repo}
}

type instructorRequest struct {
    Name        *string  `json:"name" validate:"omitempty,min=1,max=100"`
    Title       *string  `json:"title" validate:"omitempty,max=100"`
    Description *string  `json:"description"`
    ImageURL    *string  `json:"image_url" validate:"omitempty,max=500"`
    Specialties []string `json:"specialties"`
    Email       *string  `json:"email" validate:"omitempty,email,max=255"`
    Phone       *string  `json:"phone" validate:"omitempty,max=20"`
    IsActive    *bool    `json:"is_active"`
}

func (r *instructorRequest) apply(in *model.Instructor) {
    if r.Name != nil {
        in.Name = *r.Name
    }
    if r.Title != nil {
        in.Title = r.Title
    }
    if r.Description != nil {
        in.Description = r.Description
    }
    if r.ImageURL != nil {
        in.ImageURL = r.ImageURL
    }
    if r.Specialties != nil {
        in.Specialties = r.Specialties
    }
    if r.Email != nil {
        in.Email = r.Email
    }
    if r.Phone != nil {
        in.Phone = r.Phone
    }
    if r.IsActive != nil {
        in.IsActive = *r.IsActive
    }
}

// ListInstructors handles GET /instructors?skip&limit&is_active.
func (h *InstructorHandler) ListInstructors(c echo.Context) error {
    page, err := queryPage(c, 100, 100)
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    active, err := queryBool(c, "is_active")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    out, err := h.Instructors.List(c.Request().Context(), repository.InstructorFilter{IsActive: active, Page: page})
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// GetInstructor handles GET /instructors/:id.
func (h *InstructorHandler) GetInstructor(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    in, err := h.Instructors.GetByID(c.Request().Context(), id)
    if err != nil {
        return repoError(c, err, "instructor")
    }
    return c.JSON(http.StatusOK, in)
}

// CreateInstructor handles POST /instructors.  New instructors are active.
func (h *InstructorHandler) CreateInstructor(c echo.Context) error {
    var req instructorRequest
    if err := bindValid(c, &req); err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    if req.Name == nil || *req.Name == "" {
        return detail(c, http.StatusBadRequest, "name is required")
    }
    in := &model.Instructor{IsActive: true, Specialties: []string{}}
    req.apply(in)
    if err := h.Instructors.Create(c.Request().Context(), in); err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusCreated, in)
}

// UpdateInstructor handles PUT /instructors/:id.
func (h *InstructorHandler) UpdateInstructor(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    var req instructorRequest
    if err := bindValid(c, &req); err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    ctx := c.Request().Context()
    in, err := h.Instructors.GetByID(ctx, id)
    if err != nil {
        return repoError(c, err, "instructor")
    }
    req.apply(in)
    if err := h.Instructors.Update(ctx, in); err != nil {
        return repoError(c, err, "instructor")
    }
    return c.JSON(http.StatusOK, in)
}

// DeleteInstructor handles DELETE /instructors/:id.
func (h *InstructorHandler) DeleteInstructor(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    if err := h.Instructors.Delete(c.Request().Context(), id); err != nil {
        return repoError(c, err, "instructor")
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "instructor deleted"})
}
