package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/labstack/gommon/log"

    "github.com/iliyamo/eco-adventures-backend/internal/model"
    "github.com/iliyamo/eco-adventures-backend/internal/repository"
    "github.com/iliyamo/eco-adventures-backend/internal/service"
)

// CourseHandler serves the course catalogue and its admin operations.
type CourseHandler struct {
    Courses     *repository.CourseRepo
    Instructors *repository.InstructorRepo
    Ledger      *service.CapacityLedger
}

// NewCourseHandler constructs a CourseHandler and panics if any dependency is nil.
func NewCourseHandler(courses *repository.CourseRepo, instructors *repository.InstructorRepo, ledger *service.CapacityLedger) *CourseHandler {
    if courses == nil || instructors == nil || ledger == nil {
        panic("nil dependency passed to NewCourseHandler")
    }
    return &CourseHandler{Courses: courses, Instructors: instructors, Ledger: ledger}
}

// courseRequest is the create body.  Time fields use HH:MM or HH:MM:SS.
type courseRequest struct {
    Title        string               `json:"title" validate:"required,max=200"`
    Description  *string              `json:"description"`
    Category     model.CourseCategory `json:"category" validate:"omitempty,oneof=nature_explore workshop lecture other"`
    Date         *model.Date          `json:"date" validate:"required"`
    StartTime    *string              `json:"start_time"`
    EndTime      *string              `json:"end_time"`
    Location     *string              `json:"location" validate:"omitempty,max=200"`
    MaxSpots     *int                 `json:"max_spots" validate:"omitempty,min=1"`
    InstructorID *uint64              `json:"instructor_id"`
    ImageURL     *string              `json:"image_url" validate:"omitempty,max=500"`
    Requirements *string              `json:"requirements"`
    Notes        *string              `json:"notes"`
}

// coursePatch is the update body; absent fields are left alone.  Status
// and max_spots are written as given and the seat count is not
// recomputed.
type coursePatch struct {
    Title        *string               `json:"title" validate:"omitempty,min=1,max=200"`
    Description  *string               `json:"description"`
    Category     *model.CourseCategory `json:"category" validate:"omitempty,oneof=nature_explore workshop lecture other"`
    Status       *model.CourseStatus   `json:"status" validate:"omitempty,oneof=upcoming open full completed cancelled"`
    Date         *model.Date           `json:"date"`
    StartTime    *string               `json:"start_time"`
    EndTime      *string               `json:"end_time"`
    Location     *string               `json:"location" validate:"omitempty,max=200"`
    MaxSpots     *int                  `json:"max_spots" validate:"omitempty,min=1"`
    InstructorID *uint64               `json:"instructor_id"`
    ImageURL     *string               `json:"image_url" validate:"omitempty,max=500"`
    Requirements *string               `json:"requirements"`
    Notes        *string               `json:"notes"`
}

func validClock(s *string) bool {
    if s == nil {
        return true
    }
    if _, err := time.Parse("15:04", *s); err == nil {
        return true
    }
    _, err := time.Parse("15:04:05", *s)
    return err == nil
}

// ListCourses handles GET /courses?skip&limit&status&category.
func (h *CourseHandler) ListCourses(c echo.Context) error {
    page, err := queryPage(c, 100, 100)
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    f := repository.CourseFilter{
        Status:   model.CourseStatus(c.QueryParam("status")),
        Category: model.CourseCategory(c.QueryParam("category")),
        Page:     page,
    }
    if f.Status != "" && !f.Status.Valid() {
        return detail(c, http.StatusBadRequest, "unknown status")
    }
    if f.Category != "" && !f.Category.Valid() {
        return detail(c, http.StatusBadRequest, "unknown category")
    }
    courses, err := h.Courses.List(c.Request().Context(), f)
    if err != nil {
        return serviceError(c, err)
    }
    return h.writeDetails(c, courses)
}

// ListUpcoming handles GET /courses/upcoming?limit (1..50, default 10).
func (h *CourseHandler) ListUpcoming(c echo.Context) error {
    page, err := queryPage(c, 10, 50)
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    courses, err := h.Courses.ListUpcoming(c.Request().Context(), page.Limit)
    if err != nil {
        return serviceError(c, err)
    }
    return h.writeDetails(c, courses)
}

// GetCourse handles GET /courses/:id.
func (h *CourseHandler) GetCourse(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    ctx := c.Request().Context()
    course, err := h.Courses.GetByID(ctx, id)
    if err != nil {
        return repoError(c, err, "course")
    }
    out, err := h.details(ctx, []model.Course{*course})
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, out[0])
}

// GetCapacity handles GET /courses/:id/capacity.
func (h *CourseHandler) GetCapacity(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    snap, err := h.Ledger.Snapshot(c.Request().Context(), id)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, snap)
}

// CreateCourse handles POST /courses.
func (h *CourseHandler) CreateCourse(c echo.Context) error {
    var req courseRequest
    if err := bindValid(c, &req); err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    if req.Date.IsZero() {
        return detail(c, http.StatusBadRequest, "date is required")
    }
    if !validClock(req.StartTime) || !validClock(req.EndTime) {
        return detail(c, http.StatusBadRequest, "times must be HH:MM or HH:MM:SS")
    }
    ctx := c.Request().Context()
    if err := h.checkInstructor(ctx, req.InstructorID); err != nil {
        return repoError(c, err, "instructor")
    }
    course := &model.Course{
        Title:        req.Title,
        Description:  req.Description,
        Category:     req.Category,
        Status:       model.CourseUpcoming,
        Date:         *req.Date,
        StartTime:    req.StartTime,
        EndTime:      req.EndTime,
        Location:     req.Location,
        MaxSpots:     model.DefaultMaxSpots,
        InstructorID: req.InstructorID,
        ImageURL:     req.ImageURL,
        Requirements: req.Requirements,
        Notes:        req.Notes,
    }
    if course.Category == "" {
        course.Category = model.CategoryOther
    }
    if req.MaxSpots != nil {
        course.MaxSpots = *req.MaxSpots
    }
    if err := h.Courses.Create(ctx, course); err != nil {
        return serviceError(c, err)
    }
    c.Logger().Infoj(log.JSON{"msg": "course created", "course_id": course.ID})
    out, err := h.details(ctx, []model.Course{*course})
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusCreated, out[0])
}

// UpdateCourse handles PUT /courses/:id.
func (h *CourseHandler) UpdateCourse(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    var req coursePatch
    if err := bindValid(c, &req); err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    if req.Date != nil && req.Date.IsZero() {
        return detail(c, http.StatusBadRequest, "date cannot be empty")
    }
    if !validClock(req.StartTime) || !validClock(req.EndTime) {
        return detail(c, http.StatusBadRequest, "times must be HH:MM or HH:MM:SS")
    }
    ctx := c.Request().Context()
    if err := h.checkInstructor(ctx, req.InstructorID); err != nil {
        return repoError(c, err, "instructor")
    }
    course, err := h.Courses.Modify(ctx, id, func(cur *model.Course) error {
        req.apply(cur)
        return nil
    })
    if err != nil {
        return repoError(c, err, "course")
    }
    out, err := h.details(ctx, []model.Course{*course})
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, out[0])
}

func (p *coursePatch) apply(cur *model.Course) {
    if p.Title != nil {
        cur.Title = *p.Title
    }
    if p.Description != nil {
        cur.Description = p.Description
    }
    if p.Category != nil {
        cur.Category = *p.Category
    }
    if p.Status != nil {
        cur.Status = *p.Status
    }
    if p.Date != nil {
        cur.Date = *p.Date
    }
    if p.StartTime != nil {
        cur.StartTime = p.StartTime
    }
    if p.EndTime != nil {
        cur.EndTime = p.EndTime
    }
    if p.Location != nil {
        cur.Location = p.Location
    }
    if p.MaxSpots != nil {
        cur.MaxSpots = *p.MaxSpots
    }
    if p.InstructorID != nil {
        cur.InstructorID = p.InstructorID
    }
    if p.ImageURL != nil {
        cur.ImageURL = p.ImageURL
    }
    if p.Requirements != nil {
        cur.Requirements = p.Requirements
    }
    if p.Notes != nil {
        cur.Notes = p.Notes
    }
}

// DeleteCourse handles DELETE /courses/:id.  Courses that still have
// registrations are kept and a 409 is returned.
func (h *CourseHandler) DeleteCourse(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    if err := h.Courses.Delete(c.Request().Context(), id); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return detail(c, http.StatusConflict, "course still has registrations and cannot be deleted")
        }
        return repoError(c, err, "course")
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "course deleted"})
}

// CountCourses handles GET /courses/stats/count.
func (h *CourseHandler) CountCourses(c echo.Context) error {
    n, err := h.Courses.Count(c.Request().Context())
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"count": n})
}

func (h *CourseHandler) checkInstructor(ctx context.Context, id *uint64) error {
    if id == nil {
        return nil
    }
    _, err := h.Instructors.GetByID(ctx, *id)
    return err
}

func (h *CourseHandler) writeDetails(c echo.Context, courses []model.Course) error {
    out, err := h.details(c.Request().Context(), courses)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// details attaches available_spots and the instructor card to each course.
func (h *CourseHandler) details(ctx context.Context, courses []model.Course) ([]model.CourseDetail, error) {
    var ids []uint64
    for _, cs := range courses {
        if cs.InstructorID != nil {
            ids = append(ids, *cs.InstructorID)
        }
    }
    cards, err := h.Instructors.Summaries(ctx, ids)
    if err != nil {
        return nil, err
    }
    out := make([]model.CourseDetail, 0, len(courses))
    for _, cs := range courses {
        var card *model.InstructorSummary
        if cs.InstructorID != nil {
            card = cards[*cs.InstructorID]
        }
        out = append(out, model.NewCourseDetail(cs, card))
    }
    return out, nil
}
