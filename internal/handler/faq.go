package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/eco-adventures-backend/internal/model"
    "github.com/iliyamo/eco-adventures-backend/internal/repository"
)

// FAQHandler serves FAQ CRUD.
type FAQHandler struct {
    FAQs *repository.FAQRepo
}

// NewFAQHandler constructs a FAQHandler and panics if repo is nil.
func NewFAQHandler(repo *repository.FAQRepo) *FAQHandler {
    if repo == nil {
        panic("nil repository passed to NewFAQHandler")
    }
    return &FAQHandler{FAQs: repo}
}

type faqRequest struct {
    Question *string `json:"question" validate:"omitempty,min=1,max=500"`
    Answer   *string `json:"answer" validate:"omitempty,min=1"`
    Category *string `json:"category" validate:"omitempty,max=50"`
    Order    *int    `json:"order"`
    IsActive *bool   `json:"is_active"`
}

func (r *faqRequest) apply(f *model.FAQ) {
    if r.Question != nil {
        f.Question = *r.Question
    }
    if r.Answer != nil {
        f.Answer = *r.Answer
    }
    if r.Category != nil {
        f.Category = r.Category
    }
    if r.Order != nil {
        f.Order = *r.Order
    }
    if r.IsActive != nil {
        f.IsActive = *r.IsActive
    }
}

// ListFAQs handles GET /faqs?skip&limit&is_active&category.
func (h *FAQHandler) ListFAQs(c echo.Context) error {
    page, err := queryPage(c, 100, 100)
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    active, err := queryBool(c, "is_active")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    out, err := h.FAQs.List(c.Request().Context(), repository.FAQFilter{
        IsActive: active,
        Category: c.QueryParam("category"),
        Page:     page,
    })
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// GetFAQ handles GET /faqs/:id.
func (h *FAQHandler) GetFAQ(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    f, err := h.FAQs.GetByID(c.Request().Context(), id)
    if err != nil {
        return repoError(c, err, "faq")
    }
    return c.JSON(http.StatusOK, f)
}

// CreateFAQ handles POST /faqs.
func (h *FAQHandler) CreateFAQ(c echo.Context) error {
    var req faqRequest
    if err := bindValid(c, &req); err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    if req.Question == nil || req.Answer == nil {
        return detail(c, http.StatusBadRequest, "question and answer are required")
    }
    f := &model.FAQ{IsActive: true}
    req.apply(f)
    if err := h.FAQs.Create(c.Request().Context(), f); err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusCreated, f)
}

// UpdateFAQ handles PUT /faqs/:id.
func (h *FAQHandler) UpdateFAQ(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    var req faqRequest
    if err := bindValid(c, &req); err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    ctx := c.Request().Context()
    f, err := h.FAQs.GetByID(ctx, id)
    if err != nil {
        return repoError(c, err, "faq")
    }
    req.apply(f)
    if err := h.FAQs.Update(ctx, f); err != nil {
        return repoError(c, err, "faq")
    }
    return c.JSON(http.StatusOK, f)
}

// DeleteFAQ handles DELETE /faqs/:id.
func (h *FAQHandler) DeleteFAQ(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return detail(c, http.StatusBadRequest, err.Error())
    }
    if err := h.FAQs.Delete(c.Request().Context(), id); err != nil {
        return repoError(c, err, "faq")
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "faq deleted"})
}
