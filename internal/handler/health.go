package handler // declare the package name; contains HTTP handlers

import (
    "net/http" // net/http provides status codes

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Root greets API clients and points them at the versioned prefix.
func Root(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{ // respond with a small JSON document
        "message": "Welcome to the Eco Adventures API", // greeting shown to browsers and curl
        "version": "1.0.0",                             // API version string
        "api":     "/api/v1",                           // prefix of every resource route
    })
}

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.
func Health(c echo.Context) error { // Health handler signature accepts an echo context and returns an error
    return c.JSON(http.StatusOK, echo.Map{"status": "healthy"}) // report healthy with a 200 OK status
}
