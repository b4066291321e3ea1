package handler

import (
    "errors"
    "fmt"
    "net/http"
    "reflect"
    "strconv"
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
    "github.com/labstack/gommon/log"

    "github.com/iliyamo/eco-adventures-backend/internal/repository"
    "github.com/iliyamo/eco-adventures-backend/internal/service"
)

// Validator adapts go-playground/validator to echo's Validator interface.
type Validator struct {
    v *validator.Validate
}

// NewValidator returns a validator that reports json field names.
func NewValidator() *Validator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        return name
    })
    return &Validator{v: v}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i interface{}) error {
    return cv.v.Struct(i)
}

// detail writes the error body used by every endpoint.
func detail(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"detail": msg})
}

// bindValid decodes the JSON body into dst and runs struct validation.
// The returned error is already a user-facing message.
func bindValid(c echo.Context, dst interface{}) error {
    if err := c.Bind(dst); err != nil {
        return errors.New("invalid request body")
    }
    if err := c.Validate(dst); err != nil {
        return errors.New(validationMessage(err))
    }
    return nil
}

func validationMessage(err error) string {
    var verrs validator.ValidationErrors
    if !errors.As(err, &verrs) {
        return err.Error()
    }
    msgs := make([]string, 0, len(verrs))
    for _, fe := range verrs {
        switch fe.Tag() {
        case "required":
            msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
        case "email":
            msgs = append(msgs, fmt.Sprintf("%s must be a valid email address", fe.Field()))
        case "min", "gte":
            msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
        case "max", "lte":
            msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
        case "oneof":
            msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
        default:
            msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
        }
    }
    return strings.Join(msgs, "; ")
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, fmt.Errorf("invalid %s", name)
    }
    return id, nil
}

// queryPage reads skip and limit.  limit must lie in 1..maxLimit and
// defaults to def.
func queryPage(c echo.Context, def, maxLimit int) (repository.Page, error) {
    p := repository.Page{Limit: def}
    if s := c.QueryParam("skip"); s != "" {
        n, err := strconv.Atoi(s)
        if err != nil || n < 0 {
            return p, errors.New("skip must be a non-negative integer")
        }
        p.Skip = n
    }
    if s := c.QueryParam("limit"); s != "" {
        n, err := strconv.Atoi(s)
        if err != nil || n < 1 || n > maxLimit {
            return p, fmt.Errorf("limit must be between 1 and %d", maxLimit)
        }
        p.Limit = n
    }
    return p, nil
}

// queryBool reads an optional boolean query parameter.
func queryBool(c echo.Context, name string) (*bool, error) {
    s := c.QueryParam(name)
    if s == "" {
        return nil, nil
    }
    b, err := strconv.ParseBool(s)
    if err != nil {
        return nil, fmt.Errorf("%s must be true or false", name)
    }
    return &b, nil
}

// queryUint reads an optional positive integer query parameter; zero means absent.
func queryUint(c echo.Context, name string) (uint64, error) {
    s := c.QueryParam(name)
    if s == "" {
        return 0, nil
    }
    n, err := strconv.ParseUint(s, 10, 64)
    if err != nil || n == 0 {
        return 0, fmt.Errorf("invalid %s", name)
    }
    return n, nil
}

// serviceError maps domain errors onto status codes.  Anything unknown is
// logged and reported as a 500 without leaking the cause.
func serviceError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, service.ErrValidation):
        return detail(c, http.StatusBadRequest, strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": "))
    case errors.Is(err, service.ErrInsufficientCapacity):
        return detail(c, http.StatusBadRequest, err.Error())
    case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrCourseNotFound):
        return detail(c, http.StatusNotFound, err.Error())
    case errors.Is(err, service.ErrDuplicateRegistration):
        return detail(c, http.StatusConflict, err.Error())
    }
    c.Logger().Errorj(log.JSON{
        "msg":    "request failed",
        "path":   c.Path(),
        "method": c.Request().Method,
        "error":  err.Error(),
    })
    return detail(c, http.StatusInternalServerError, "internal server error")
}

// repoError maps repository errors for the catalogue handlers.
func repoError(c echo.Context, err error, what string) error {
    switch {
    case errors.Is(err, repository.ErrNotFound):
        return detail(c, http.StatusNotFound, what+" not found")
    case errors.Is(err, repository.ErrConflict):
        return detail(c, http.StatusConflict, what+" is still referenced and cannot be deleted")
    }
    return serviceError(c, err)
}
