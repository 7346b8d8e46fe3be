// Package campusqr is the HTTP client for the remote check-in backend, the
// system of record for who is checked in where.  Every call carries the
// service token in the X-Authorization header.  A 403 answer surfaces as
// ErrAccessDenied; any other failure is wrapped in ErrNotLoadable for reads
// or ErrNotStorable for writes.
package campusqr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/location-checkin/internal/model"
)

// ConfigKeyAutoCheckOutMinutes names the backend setting holding the
// auto-checkout window in minutes.
const ConfigKeyAutoCheckOutMinutes = "autoCheckOutMinutes"

// ActiveCheckIn is one entry of the backend's active check-in report.
// CheckInDate is epoch milliseconds; the backend sometimes renders it as a
// float in exponent notation, so it is decoded as float64.
type ActiveCheckIn struct {
	ID           string  `json:"id"`
	LocationID   string  `json:"locationId"`
	LocationName string  `json:"locationName"`
	Seat         *int    `json:"seat"`
	CheckInDate  float64 `json:"checkInDate"`
}

// StartTime converts CheckInDate to a UTC timestamp with second precision.
func (a ActiveCheckIn) StartTime() time.Time {
	return time.Unix(int64(a.CheckInDate/1000), 0).UTC()
}

type placeJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SeatCount *int   `json:"seatCount"`
}

// Client talks to the backend.  It is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	places  *PlaceCache
	log     logrus.FieldLogger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithPlaceCache puts a cache in front of the location list.
func WithPlaceCache(pc *PlaceCache) Option {
	return func(c *Client) { c.places = pc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a client for the backend at baseURL.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckIn registers email at the location/seat.  The boolean reports
// whether the backend acknowledged with "ok".
func (c *Client) CheckIn(ctx context.Context, place model.Place, seat *int, email string) (bool, error) {
	body, err := c.do(ctx, http.MethodPost, locationPath(place.ID, seat, "visit"),
		map[string]string{"email": email}, ErrNotStorable, "check-in")
	if err != nil {
		return false, err
	}
	return isOK(body), nil
}

// GuestCheckIn registers a guest email on behalf of host.
func (c *Client) GuestCheckIn(ctx context.Context, place model.Place, seat *int, email, host string) (bool, error) {
	body, err := c.do(ctx, http.MethodPost, locationPath(place.ID, seat, "guestCheckinBy"),
		map[string]string{"email": email, "host": host}, ErrNotStorable, "guest check-in")
	if err != nil {
		return false, err
	}
	return isOK(body), nil
}

// CheckOut closes the active check-in of email at the location/seat.
func (c *Client) CheckOut(ctx context.Context, email string, place model.Place, seat *int) (bool, error) {
	body, err := c.do(ctx, http.MethodPost, locationPath(place.ID, seat, "checkoutSeat"),
		map[string]string{"email": email}, ErrNotStorable, "check-out")
	if err != nil {
		return false, err
	}
	return isOK(body), nil
}

// ListActiveCheckIns returns every open check-in of email.
func (c *Client) ListActiveCheckIns(ctx context.Context, email string) ([]ActiveCheckIn, error) {
	body, err := c.do(ctx, http.MethodPost, activeCheckinPath,
		map[string]string{"emailAddress": email}, ErrNotLoadable, "active check-ins")
	if err != nil {
		return nil, err
	}
	var out []ActiveCheckIn
	if err := decode(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPlaces returns every location known to the backend, served from the
// place cache when one is configured.
func (c *Client) ListPlaces(ctx context.Context) ([]model.Place, error) {
	body, ok := c.places.Get(ctx)
	if !ok {
		var err error
		body, err = c.do(ctx, http.MethodGet, locationListPath, nil, ErrNotLoadable, "places")
		if err != nil {
			return nil, err
		}
	}
	var raw []placeJSON
	if err := decode(body, &raw); err != nil {
		return nil, err
	}
	if !ok {
		c.places.Set(ctx, body)
	}
	places := make([]model.Place, 0, len(raw))
	for _, p := range raw {
		places = append(places, model.Place{ID: p.ID, Name: p.Name, MaxCapacity: p.SeatCount})
	}
	return places, nil
}

// Config fetches a backend setting as raw JSON.
func (c *Client) Config(ctx context.Context, key string) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, configPath(key), nil, ErrNotLoadable, "config")
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: config %s: invalid json", ErrNotLoadable, key)
	}
	return json.RawMessage(body), nil
}

// Ping checks that the backend answers HTTP at all.  Any status counts as
// reachable; only transport failures are reported.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("%w: ping: %v", ErrRemoteUnavailable, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: ping: %v", ErrRemoteUnavailable, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.Body.Close()
}

// do performs one request and maps failures onto the error kinds.  kind is
// the wrapper for everything that is not a 403.
func (c *Client) do(ctx context.Context, method, path string, payload any, kind error, what string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: encode request: %v", kind, what, err)
		}
		reqBody = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", kind, what, err)
	}
	req.Header.Set("X-Authorization", c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", kind, what, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	c.log.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("campusqr request")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", kind, what, err)
	}

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: not allowed to %s", ErrAccessDenied, what)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %s: status %d", kind, what, resp.StatusCode)
	}
	return body, nil
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: invalid json: %v", ErrNotLoadable, err)
	}
	return nil
}

func isOK(body []byte) bool {
	return strings.TrimSpace(string(body)) == "ok"
}
