package router

import (
	"github.com/labstack/echo/v4"
)

// RegisterCatalogue registers courses, instructors, activities and FAQs.
// Only the list endpoints go through the response cache; single-course
// reads and the capacity snapshot always hit the database so seat counts
// are current.
func RegisterCatalogue(g *echo.Group, h Handlers, cache echo.MiddlewareFunc) {
	// ---- Courses ----
	g.GET("/courses", h.Courses.ListCourses, cache)
	g.GET("/courses/upcoming", h.Courses.ListUpcoming, cache)
	g.GET("/courses/stats/count", h.Courses.CountCourses)
	g.GET("/courses/:id", h.Courses.GetCourse)
	g.GET("/courses/:id/capacity", h.Courses.GetCapacity)
	g.POST("/courses", h.Courses.CreateCourse)
	g.PUT("/courses/:id", h.Courses.UpdateCourse)
	g.DELETE("/courses/:id", h.Courses.DeleteCourse)

	// ---- Instructors ----
	g.GET("/instructors", h.Instructors.ListInstructors, cache)
	g.GET("/instructors/:id", h.Instructors.GetInstructor)
	g.POST("/instructors", h.Instructors.CreateInstructor)
	g.PUT("/instructors/:id", h.Instructors.UpdateInstructor)
	g.DELETE("/instructors/:id", h.Instructors.DeleteInstructor)

	// ---- Activities ----
	g.GET("/activities", h.Activities.ListActivities, cache)
	g.GET("/activities/:id", h.Activities.GetActivity)
	g.POST("/activities", h.Activities.CreateActivity)
	g.PUT("/activities/:id", h.Activities.UpdateActivity)
	g.DELETE("/activities/:id", h.Activities.DeleteActivity)

	// ---- FAQs ----
	g.GET("/faqs", h.FAQs.ListFAQs, cache)
	g.GET("/faqs/:id", h.FAQs.GetFAQ)
	g.POST("/faqs", h.FAQs.CreateFAQ)
	g.PUT("/faqs/:id", h.FAQs.UpdateFAQ)
	g.DELETE("/faqs/:id", h.FAQs.DeleteFAQ)
}
