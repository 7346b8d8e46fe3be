package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/location-checkin/internal/handler"
	"github.com/iliyamo/location-checkin/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication: the
// liveness and readiness checks and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, ready *handler.ReadinessHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", ready.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterCheckIn registers the check-in API under /v1.  Every route needs
// a valid bearer token with the location-check-in scope; guest check-in
// additionally needs location-check-in-guest.
func RegisterCheckIn(e *echo.Echo, h *handler.CheckInHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireScope(middleware.ScopeCheckIn))

	g.GET("/places", h.ListPlaces)
	g.GET("/places/:id", h.GetPlace)

	g.GET("/check-ins", h.ListCheckIns)
	g.POST("/check-ins", h.CheckIn)
	g.POST("/check-outs", h.CheckOut)
	g.POST("/guest-check-ins", h.GuestCheckIn, middleware.RequireScope(middleware.ScopeGuestCheckIn))
}
