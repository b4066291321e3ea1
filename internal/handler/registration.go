package handler

import (
    "net/http"
    "net/url"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/eco-adventures-backend/internal/model"
    "github.com/iliyamo/eco-adventures-backend/internal/repository"
    "github.com/iliyamo/eco-adventures-backend/internal/service"
)

// RegistrationHandler exposes the registration state machine over HTTP.
type RegistrationHandler struct {
    Registrations *service.RegistrationService
}

// NewRegistrationHandler constructs a RegistrationHandler and panics if svc is nil.
func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
    if svc == nil {
        panic("nil service passed to NewRegistrationHandler")
    }
    return &RegistrationHandler{Registrations: svc}
}

type registrationRequest struct {
    CourseID     uint64  `json:"course_id" validate:"required"`
    Name         string  `json:"name" validate:"required,max=100"`
    Email        string  `json:"email" validate:"required,email,max=200"`
    Phone        string  `json:"phone" validate:"required,max=20"`
    Participants *int    `json:"participants" validate:"omitempty,min=1,max=5"`
    Notes        *string `json:"notes"`
}

type registrationPatch struct {
    Status *model.RegistrationStatus `json:"status" validate:"omitempty,oneof=pending confirmed cancelled waitlisted"`
    Notes  *string                   `json:"notes"`
}

// CreateRegistration handles POST /registrations.  The response status is
// confirmed, or waitlisted when the course is already full.
func (h *RegistrationHandler) CreateRegistration(c echo.Context) error {
    var req registrationRequest
    if err := bindValid(c, &req); err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    participants := 1
    if req.Participants != nil {
        participants = *req.Participants
    }
    reg, err := h.Registrations.Submit(c.Request().Context(), service.SubmitRequest{
        CourseID:     req.CourseID,
        Name:         req.Name,
        Email:        req.Email,
        Phone:        req.Phone,
        Participants: participants,
        Notes:        req.Notes,
    })
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusCreated, reg)
}

// ListRegistrations handles GET /registrations?skip&limit&course_id&status.
func (h *RegistrationHandler) ListRegistrations(c echo.Context) error {
    page, err := queryPage(c, 100, 100)
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    courseID, err := queryUint(c, "course_id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    status := model.RegistrationStatus(c.QueryParam("status"))
    if status != "" && !status.Valid() {
        return detail(c, http.StatusBadRequest, "unknown status")
    }
    regs, err := h.Registrations.List(c.Request().Context(), repository.RegistrationFilter{
        CourseID: courseID,
        Status:   status,
        Page:     page,
    })
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, regs)
}

// ListByEmail handles GET /registrations/by-email/:email.  Echo hands
// path params over still escaped, so ann%40example.com is decoded here.
func (h *RegistrationHandler) ListByEmail(c echo.Context) error {
    raw, err := url.PathUnescape(c.Param("email"))
    if err != nil {
        return detail(c, http.StatusBadRequest, "malformed email")
    }
    email := strings.TrimSpace(raw)
    if email == "" {
        return detail(c, http.StatusBadRequest, "email is required")
    }
    regs, err := h.Registrations.ListByEmail(c.Request().Context(), email)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, regs)
}

// GetRegistration handles GET /registrations/:id.
func (h *RegistrationHandler) GetRegistration(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    reg, err := h.Registrations.Get(c.Request().Context(), id)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, reg)
}

// UpdateRegistration handles PUT /registrations/:id.
func (h *RegistrationHandler) UpdateRegistration(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    var req registrationPatch
    if err := bindValid(c, &req); err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    reg, err := h.Registrations.Update(c.Request().Context(), id, service.UpdateRequest{Status: req.Status, Notes: req.Notes})
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, reg)
}

// CancelRegistration handles POST /registrations/:id/cancel.
func (h *RegistrationHandler) CancelRegistration(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    reg, err := h.Registrations.Cancel(c.Request().Context(), id)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, reg)
}

// DeleteRegistration handles DELETE /registrations/:id.
func (h *RegistrationHandler) DeleteRegistration(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    if err := h.Registrations.Delete(c.Request().Context(), id); err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "registration deleted"})
}

// CountRegistrations handles GET /registrations/stats/count?course_id.
func (h *RegistrationHandler) CountRegistrations(c echo.Context) error {
    courseID, err := queryUint(c, "course_id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    n, err := h.Registrations.Count(c.Request().Context(), courseID)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"count": n})
}

// CheckDuplicate handles GET /registrations/check?email&course_id.
func (h *RegistrationHandler) CheckDuplicate(c echo.Context) error {
    email := strings.TrimSpace(c.QueryParam("email"))
    courseID, err := queryUint(c, "course_id")
    if err != nil || email == "" || courseID == 0 {
        return detail(c, http.StatusBadRequest, "email and course_id are required")
    }
    dup, err := h.Registrations.CheckDuplicate(c.Request().Context(), email, courseID)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"registered": dup})
}
