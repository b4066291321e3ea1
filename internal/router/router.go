package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/eco-adventures-backend/internal/handler" // import the handlers that implement each endpoint
)

// APIPrefix is the path prefix shared by every resource route.
const APIPrefix = "/api/v1"

// RegisterRoutes registers the unversioned endpoints: a welcome message at
// "/" and a health check at "/health" for load balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/", handler.Root)
	e.GET("/health", handler.Health)
}

// Handlers bundles every resource handler the API exposes.
type Handlers struct {
	Courses       *handler.CourseHandler
	Registrations *handler.RegistrationHandler
	Instructors   *handler.InstructorHandler
	Activities    *handler.ActivityHandler
	FAQs          *handler.FAQHandler
}

// RegisterAPI mounts the catalogue and registration routes under
// APIPrefix.  cache wraps the public listings; limit guards registration
// submits.
func RegisterAPI(e *echo.Echo, h Handlers, cache, limit echo.MiddlewareFunc) *echo.Group {
	g := e.Group(APIPrefix)
	RegisterCatalogue(g, h, cache)
	RegisterRegistrations(g, h.Registrations, limit)
	return g
}
