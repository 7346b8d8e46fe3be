package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/location-checkin/internal/service"
)

// statusOf maps a service error kind to an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		return http.StatusFailedDependency
	case errors.Is(err, service.ErrPlaceNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrLockUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrRemoteUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error": msg}.  Client-facing messages are
// passed through; anything else gets a fixed text per status.
func writeError(c echo.Context, err error) error {
	status := statusOf(err)
	var se *service.Error
	if errors.As(err, &se) {
		return c.JSON(status, echo.Map{"error": se.Msg})
	}
	msg := "internal error"
	switch status {
	case http.StatusForbidden:
		msg = "access denied"
	case http.StatusServiceUnavailable:
		msg = "system busy, try again later"
	case http.StatusBadGateway:
		msg = "check-in backend unavailable"
	}
	return c.JSON(status, echo.Map{"error": msg})
}
