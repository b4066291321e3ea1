package handler

import (
    "fmt"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/eco-adventures-backend/internal/service"
)

func ctxFor(target string) echo.Context {
    e := echo.New()
    return e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
}

func TestQueryPage(t *testing.T) {
    p, err := queryPage(ctxFor("/x"), 10, 50)
    require.NoError(t, err)
    require.Equal(t, 10, p.Limit)
    require.Equal(t, 0, p.Skip)

    p, err = queryPage(ctxFor("/x?skip=5&limit=50"), 10, 50)
    require.NoError(t, err)
    require.Equal(t, 50, p.Limit)
    require.Equal(t, 5, p.Skip)

    for _, q := range []string{"?limit=0", "?limit=51", "?skip=-1", "?limit=abc"} {
        _, err = queryPage(ctxFor("/x"+q), 10, 50)
        require.Error(t, err, q)
    }
}

func TestQueryBoolAndUint(t *testing.T) {
    b, err := queryBool(ctxFor("/x?is_active=true"), "is_active")
    require.NoError(t, err)
    require.True(t, *b)
    b, err = queryBool(ctxFor("/x"), "is_active")
    require.NoError(t, err)
    require.Nil(t, b)

    n, err := queryUint(ctxFor("/x?course_id=7"), "course_id")
    require.NoError(t, err)
    require.Equal(t, uint64(7), n)
    _, err = queryUint(ctxFor("/x?course_id=0"), "course_id")
    require.Error(t, err)
}

func TestValidatorMessages(t *testing.T) {
    v := NewValidator()
    err := v.Validate(&registrationRequest{CourseID: 1, Name: "A", Email: "nope", Phone: "1"})
    require.Error(t, err)
    require.Equal(t, "email must be a valid email address", validationMessage(err))

    zero := 0
    err = v.Validate(&registrationRequest{CourseID: 1, Name: "A", Email: "a@example.com", Phone: "1", Participants: &zero})
    require.Equal(t, "participants must be at least 1", validationMessage(err))

    require.NoError(t, v.Validate(&registrationRequest{CourseID: 1, Name: "A", Email: "a@example.com", Phone: "1"}))
}

func TestServiceErrorStatus(t *testing.T) {
    cases := []struct {
        err  error
        code int
    }{
        {fmt.Errorf("%w: participants must be between 1 and 5", service.ErrValidation), http.StatusBadRequest},
        {service.ErrInsufficientCapacity, http.StatusBadRequest},
        {service.ErrNotFound, http.StatusNotFound},
        {service.ErrCourseNotFound, http.StatusNotFound},
        {service.ErrDuplicateRegistration, http.StatusConflict},
        {fmt.Errorf("boom"), http.StatusInternalServerError},
    }
    for _, tc := range cases {
        e := echo.New()
        rec := httptest.NewRecorder()
        c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
        require.NoError(t, serviceError(c, tc.err))
        require.Equal(t, tc.code, rec.Code, tc.err.Error())
    }
}
