package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/location-checkin/internal/campusqr"
)

// Backend is what the readiness checks need from the check-in backend.
// *campusqr.Client implements it.
type Backend interface {
	Ping(ctx context.Context) error
	Config(ctx context.Context, key string) (json.RawMessage, error)
}

// CheckResult is the outcome of one readiness check.  Status is "ok",
// "forbidden" when the backend rejects the service token, or "unavailable".
type CheckResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ReadinessHandler reports whether the check-in backend is reachable and
// accepts the service token.
type ReadinessHandler struct {
	Backend Backend
	Timeout time.Duration
}

// Ready handles GET /readyz.  It answers 200 when every check passes and
// 503 otherwise, listing each check either way.
func (h *ReadinessHandler) Ready(c echo.Context) error {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
	defer cancel()

	checks := []CheckResult{
		result("campusqr-connection", h.Backend.Ping(ctx)),
		result("campusqr-api", apiCheck(ctx, h.Backend)),
	}
	status := http.StatusOK
	for _, ch := range checks {
		if ch.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
	}
	return c.JSON(status, echo.Map{"checks": checks})
}

func apiCheck(ctx context.Context, b Backend) error {
	_, err := b.Config(ctx, campusqr.ConfigKeyAutoCheckOutMinutes)
	return err
}

func result(name string, err error) CheckResult {
	switch {
	case err == nil:
		return CheckResult{Name: name, Status: "ok"}
	case errors.Is(err, campusqr.ErrAccessDenied):
		return CheckResult{Name: name, Status: "forbidden", Error: err.Error()}
	}
	return CheckResult{Name: name, Status: "unavailable", Error: err.Error()}
}
