package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eco-adventures-backend/internal/handler"
)

// RegisterRegistrations registers the registration endpoints.  Submits
// pass through the rate limiter; nothing here is cached.
func RegisterRegistrations(g *echo.Group, h *handler.RegistrationHandler, limit echo.MiddlewareFunc) {
	g.POST("/registrations", h.CreateRegistration, limit)
	g.GET("/registrations", h.ListRegistrations)
	g.GET("/registrations/check", h.CheckDuplicate)
	g.GET("/registrations/stats/count", h.CountRegistrations)
	g.GET("/registrations/by-email/:email", h.ListByEmail)
	g.GET("/registrations/:id", h.GetRegistration)
	g.PUT("/registrations/:id", h.UpdateRegistration)
	g.POST("/registrations/:id/cancel", h.CancelRegistration)
	g.DELETE("/registrations/:id", h.DeleteRegistration)
}
