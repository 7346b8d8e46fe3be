package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/location-checkin/internal/campusqr"
	"github.com/iliyamo/location-checkin/internal/model"
)

// ListPlaces returns every place whose name contains all whitespace
// separated parts of search, ignoring case.  An empty search matches all.
func (s *Service) ListPlaces(ctx context.Context, search string) ([]model.Place, error) {
	places, err := s.gw.ListPlaces(ctx)
	if err != nil {
		return nil, err
	}
	parts := strings.Fields(strings.ToLower(search))
	if len(parts) == 0 {
		return places, nil
	}
	out := make([]model.Place, 0, len(places))
	for _, p := range places {
		if matchesAll(strings.ToLower(p.Name), parts) {
			out = append(out, p)
		}
	}
	return out, nil
}

func matchesAll(name string, parts []string) bool {
	for _, part := range parts {
		if !strings.Contains(name, part) {
			return false
		}
	}
	return true
}

// GetPlace resolves a place by identifier.
func (s *Service) GetPlace(ctx context.Context, id string) (model.Place, error) {
	places, err := s.gw.ListPlaces(ctx)
	if err != nil {
		return model.Place{}, err
	}
	for _, p := range places {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Place{}, newError(ErrPlaceNotFound, "place %q not found", id)
}

// ListCheckIns returns the caller's active check-ins.  A location narrows
// the result to that place, and a seat together with a location to that
// seat.  A seat without a location matches nothing.  EndTime is the start
// time plus the auto-checkout window.
func (s *Service) ListCheckIns(ctx context.Context, locationID string, seat *int) ([]model.CheckInRecord, error) {
	caller, err := s.ids.CurrentIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if locationID == "" && seat != nil {
		return []model.CheckInRecord{}, nil
	}
	active, err := s.gw.ListActiveCheckIns(ctx, caller.Email)
	if err != nil {
		return nil, err
	}
	window, err := s.window.Window(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.CheckInRecord, 0, len(active))
	for _, a := range active {
		if locationID != "" && !matchesPlace(a, locationID, seat) {
			continue
		}
		out = append(out, toRecord(a, caller, window))
	}
	return out, nil
}

func toRecord(a campusqr.ActiveCheckIn, agent model.Identity, window time.Duration) model.CheckInRecord {
	start := a.StartTime()
	return model.CheckInRecord{
		ID:        a.ID,
		Agent:     agent,
		Location:  model.Place{ID: a.LocationID, Name: a.LocationName},
		Seat:      a.Seat,
		StartTime: start,
		EndTime:   start.Add(window),
	}
}

// activeAt returns the active check-ins of email at the place.  With a seat
// only that seat matches; without one any seat at the place does.
func (s *Service) activeAt(ctx context.Context, email, locationID string, seat *int) ([]campusqr.ActiveCheckIn, error) {
	active, err := s.gw.ListActiveCheckIns(ctx, email)
	if err != nil {
		return nil, err
	}
	var out []campusqr.ActiveCheckIn
	for _, a := range active {
		if matchesPlace(a, locationID, seat) {
			out = append(out, a)
		}
	}
	return out, nil
}

func matchesPlace(a campusqr.ActiveCheckIn, locationID string, seat *int) bool {
	if a.LocationID != locationID {
		return false
	}
	return seat == nil || (a.Seat != nil && *a.Seat == *seat)
}
