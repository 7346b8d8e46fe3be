package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/location-checkin/internal/model"
	"github.com/iliyamo/location-checkin/internal/service"
)

// stubService returns canned values and records the last input.
type stubService struct {
	places   []model.Place
	records  []model.CheckInRecord
	err      error
	checkIn  service.CheckInInput
	checkOut service.CheckOutInput
	guest    service.GuestCheckInInput
	search   string
	location string
	seat     *int
}

func (s *stubService) ListPlaces(_ context.Context, search string) ([]model.Place, error) {
	s.search = search
	return s.places, s.err
}

func (s *stubService) GetPlace(_ context.Context, id string) (model.Place, error) {
	if s.err != nil {
		return model.Place{}, s.err
	}
	return model.Place{ID: id, Name: "Lab"}, nil
}

func (s *stubService) ListCheckIns(_ context.Context, location string, seat *int) ([]model.CheckInRecord, error) {
	s.location, s.seat = location, seat
	return s.records, s.err
}

func (s *stubService) CheckIn(_ context.Context, in service.CheckInInput) (model.CheckInRecord, error) {
	s.checkIn = in
	return model.CheckInRecord{ID: "c1", Seat: in.Seat}, s.err
}

func (s *stubService) CheckOut(_ context.Context, in service.CheckOutInput) (model.CheckOutRecord, error) {
	s.checkOut = in
	return model.CheckOutRecord{ID: "o1"}, s.err
}

func (s *stubService) GuestCheckIn(_ context.Context, in service.GuestCheckInInput) (model.GuestCheckInRecord, error) {
	s.guest = in
	return model.GuestCheckInRecord{Email: in.Email}, s.err
}

func serve(t *testing.T, h echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h(c); err != nil {
		t.Fatalf("handler returned %v", err)
	}
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestWriteError_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		want    int
		wantMsg string
	}{
		{name: "validation", err: service.ErrSeatRequired, want: http.StatusBadRequest, wantMsg: service.ErrSeatRequired.Msg},
		{name: "conflict", err: &service.Error{Kind: service.ErrConflict, Msg: "already checked in"}, want: http.StatusFailedDependency, wantMsg: "already checked in"},
		{name: "not found", err: &service.Error{Kind: service.ErrPlaceNotFound, Msg: "place \"x\" not found"}, want: http.StatusNotFound},
		{name: "access denied", err: fmt.Errorf("check in: %w", service.ErrAccessDenied), want: http.StatusForbidden, wantMsg: "access denied"},
		{name: "lock", err: fmt.Errorf("lock k: %w", service.ErrLockUnavailable), want: http.StatusServiceUnavailable},
		{name: "remote", err: fmt.Errorf("%w: timeout", service.ErrNotStorable), want: http.StatusBadGateway, wantMsg: "check-in backend unavailable"},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError, wantMsg: "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &CheckInHandler{Svc: &stubService{err: tt.err}}
			rec := serve(t, h.CheckIn, http.MethodPost, "/v1/check-ins", `{"locationId":"l1"}`)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if tt.wantMsg != "" {
				if got := decodeBody(t, rec)["error"]; got != tt.wantMsg {
					t.Fatalf("expected message %q, got %q", tt.wantMsg, got)
				}
			}
		})
	}
}

func TestCheckIn_DecodesBody(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	h := &CheckInHandler{Svc: svc}

	rec := serve(t, h.CheckIn, http.MethodPost, "/v1/check-ins", `{"locationId":" l1 ","seatNumber":17}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.checkIn.LocationID != "l1" || svc.checkIn.Seat == nil || *svc.checkIn.Seat != 17 {
		t.Fatalf("unexpected input %+v", svc.checkIn)
	}

	if rec := serve(t, h.CheckIn, http.MethodPost, "/v1/check-ins", `{"seatNumber":1}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without location, got %d", rec.Code)
	}
	if rec := serve(t, h.CheckIn, http.MethodPost, "/v1/check-ins", `{"locationId":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for broken json, got %d", rec.Code)
	}
}

func TestCheckOut_PassesAgent(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	h := &CheckInHandler{Svc: svc}
	rec := serve(t, h.CheckOut, http.MethodPost, "/v1/check-outs", `{"locationId":"l1","agentId":"u-bob"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if svc.checkOut.AgentID != "u-bob" || svc.checkOut.Seat != nil {
		t.Fatalf("unexpected input %+v", svc.checkOut)
	}
}

func TestGuestCheckIn_DecodesEndTime(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	h := &CheckInHandler{Svc: svc}
	rec := serve(t, h.GuestCheckIn, http.MethodPost, "/v1/guest-check-ins",
		`{"locationId":"l1","email":"guest@example.com","endTime":"2026-03-02T10:30:00Z"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	want := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	if !svc.guest.EndTime.Equal(want) || svc.guest.Email != "guest@example.com" {
		t.Fatalf("unexpected input %+v", svc.guest)
	}

	if rec := serve(t, h.GuestCheckIn, http.MethodPost, "/v1/guest-check-ins", `{"locationId":"l1","email":"g@x.io"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without endTime, got %d", rec.Code)
	}
}

func TestListPlaces_Pagination(t *testing.T) {
	t.Parallel()

	var places []model.Place
	for i := 0; i < 5; i++ {
		places = append(places, model.Place{ID: fmt.Sprintf("p%d", i)})
	}
	svc := &stubService{places: places}
	h := &CheckInHandler{Svc: svc}

	tests := []struct {
		name   string
		query  string
		code   int
		wantID []string
	}{
		{name: "default", query: "", code: http.StatusOK, wantID: []string{"p0", "p1", "p2", "p3", "p4"}},
		{name: "second page", query: "?page=2&perPage=2", code: http.StatusOK, wantID: []string{"p2", "p3"}},
		{name: "last partial", query: "?page=3&perPage=2", code: http.StatusOK, wantID: []string{"p4"}},
		{name: "past end", query: "?page=9&perPage=2", code: http.StatusOK, wantID: []string{}},
		{name: "huge page", query: "?page=92233720368547759&perPage=1000", code: http.StatusOK, wantID: []string{}},
		{name: "bad page", query: "?page=0", code: http.StatusBadRequest},
		{name: "bad perPage", query: "?perPage=abc", code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, h.ListPlaces, http.MethodGet, "/v1/places"+tt.query, "")
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			if tt.code != http.StatusOK {
				return
			}
			body := decodeBody(t, rec)
			items := body["items"].([]any)
			got := make([]string, 0, len(items))
			for _, it := range items {
				got = append(got, it.(map[string]any)["identifier"].(string))
			}
			if strings.Join(got, ",") != strings.Join(tt.wantID, ",") {
				t.Fatalf("expected %v, got %v", tt.wantID, got)
			}
			if body["total"].(float64) != 5 {
				t.Fatalf("expected total 5, got %v", body["total"])
			}
		})
	}
}

func TestPaginate_NoOverflow(t *testing.T) {
	t.Parallel()

	tests := []page{
		{Page: 92233720368547759, PerPage: 1000},
		{Page: math.MaxInt, PerPage: maxPerPage},
		{Page: math.MaxInt / 2, PerPage: 3},
	}
	for _, p := range tests {
		if got := paginate([]int{1, 2, 3}, p); len(got) != 0 {
			t.Fatalf("page %+v: expected no items, got %v", p, got)
		}
	}
	if got := paginate([]int{1, 2, 3}, page{Page: 2, PerPage: 2}); len(got) != 1 || got[0] != 3 {
		t.Fatalf("expected [3], got %v", got)
	}
}

func TestListCheckIns_Filters(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	h := &CheckInHandler{Svc: svc}
	if rec := serve(t, h.ListCheckIns, http.MethodGet, "/v1/check-ins?location=l1&seatNumber=4", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.location != "l1" || svc.seat == nil || *svc.seat != 4 {
		t.Fatalf("unexpected filter %q %v", svc.location, svc.seat)
	}
	if rec := serve(t, h.ListCheckIns, http.MethodGet, "/v1/check-ins?seatNumber=x", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad seat, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := serve(t, Health, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}
