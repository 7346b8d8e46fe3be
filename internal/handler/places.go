package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListPlaces handles GET /v1/places?search=.  Every whitespace separated
// part of search must occur in the place name.
func (h *CheckInHandler) ListPlaces(c echo.Context) error {
	p, err := parsePage(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	places, err := h.Svc.ListPlaces(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, listResponse(places, p))
}

// GetPlace handles GET /v1/places/:id.
func (h *CheckInHandler) GetPlace(c echo.Context) error {
	place, err := h.Svc.GetPlace(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, place)
}
