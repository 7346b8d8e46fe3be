// Package handler exposes the check-in service over HTTP.  Handlers decode
// and shape requests; all rules live in the service layer.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/location-checkin/internal/model"
	"github.com/iliyamo/location-checkin/internal/service"
)

// Service is the part of *service.Service the handlers use.
type Service interface {
	ListPlaces(ctx context.Context, search string) ([]model.Place, error)
	GetPlace(ctx context.Context, id string) (model.Place, error)
	ListCheckIns(ctx context.Context, locationID string, seat *int) ([]model.CheckInRecord, error)
	CheckIn(ctx context.Context, in service.CheckInInput) (model.CheckInRecord, error)
	CheckOut(ctx context.Context, in service.CheckOutInput) (model.CheckOutRecord, error)
	GuestCheckIn(ctx context.Context, in service.GuestCheckInInput) (model.GuestCheckInRecord, error)
}

// CheckInHandler serves places, check-ins, check-outs and guest check-ins.
type CheckInHandler struct {
	Svc Service
}

// CheckInRequest is the body of POST /v1/check-ins.
type CheckInRequest struct {
	LocationID string `json:"locationId"`
	Seat       *int   `json:"seatNumber"`
}

// CheckOutRequest is the body of POST /v1/check-outs.  AgentID is optional
// and must match the caller when given.
type CheckOutRequest struct {
	LocationID string `json:"locationId"`
	Seat       *int   `json:"seatNumber"`
	AgentID    string `json:"agentId"`
}

// GuestCheckInRequest is the body of POST /v1/guest-check-ins.
type GuestCheckInRequest struct {
	LocationID string    `json:"locationId"`
	Seat       *int      `json:"seatNumber"`
	Email      string    `json:"email"`
	EndTime    time.Time `json:"endTime"`
}

// ListCheckIns handles GET /v1/check-ins?location=&seatNumber=.
func (h *CheckInHandler) ListCheckIns(c echo.Context) error {
	p, err := parsePage(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var seat *int
	if v := c.QueryParam("seatNumber"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seatNumber must be an integer"})
		}
		seat = &n
	}
	recs, err := h.Svc.ListCheckIns(c.Request().Context(), strings.TrimSpace(c.QueryParam("location")), seat)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, listResponse(recs, p))
}

// CheckIn handles POST /v1/check-ins.
func (h *CheckInHandler) CheckIn(c echo.Context) error {
	var req CheckInRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	if strings.TrimSpace(req.LocationID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "locationId is required"})
	}
	rec, err := h.Svc.CheckIn(c.Request().Context(), service.CheckInInput{
		LocationID: strings.TrimSpace(req.LocationID),
		Seat:       req.Seat,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

// CheckOut handles POST /v1/check-outs.
func (h *CheckInHandler) CheckOut(c echo.Context) error {
	var req CheckOutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	if strings.TrimSpace(req.LocationID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "locationId is required"})
	}
	rec, err := h.Svc.CheckOut(c.Request().Context(), service.CheckOutInput{
		LocationID: strings.TrimSpace(req.LocationID),
		Seat:       req.Seat,
		AgentID:    req.AgentID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

// GuestCheckIn handles POST /v1/guest-check-ins.
func (h *CheckInHandler) GuestCheckIn(c echo.Context) error {
	var req GuestCheckInRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	if strings.TrimSpace(req.LocationID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "locationId is required"})
	}
	if req.EndTime.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "endTime is required"})
	}
	rec, err := h.Svc.GuestCheckIn(c.Request().Context(), service.GuestCheckInInput{
		LocationID: strings.TrimSpace(req.LocationID),
		Seat:       req.Seat,
		Email:      req.Email,
		EndTime:    req.EndTime,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}
