package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/location-checkin/internal/lock"
	"github.com/iliyamo/location-checkin/internal/model"
)

// CheckInInput is a request to check the caller in.
type CheckInInput struct {
	LocationID string
	Seat       *int
}

// CheckIn checks the caller in at a place.  It fails with ErrConflict if the
// caller already has an active check-in matching the place and seat.
func (s *Service) CheckIn(ctx context.Context, in CheckInInput) (rec model.CheckInRecord, err error) {
	defer func() { s.observe(opCheckIn, err) }()

	caller, err := s.ids.CurrentIdentity(ctx)
	if err != nil {
		return model.CheckInRecord{}, err
	}
	place, err := s.GetPlace(ctx, in.LocationID)
	if err != nil {
		return model.CheckInRecord{}, err
	}
	if err := ValidateSeat(place, in.Seat); err != nil {
		return model.CheckInRecord{}, err
	}
	window, err := s.window.Window(ctx)
	if err != nil {
		return model.CheckInRecord{}, err
	}
	now := s.clock.Now().UTC()
	rec = model.CheckInRecord{
		ID:        newID(),
		Agent:     caller,
		Location:  place,
		Seat:      in.Seat,
		StartTime: now,
		EndTime:   now.Add(window),
	}

	key := lock.Key(opCheckIn, place.ID, in.Seat, caller.Key())
	err = s.withLock(ctx, key, func(ctx context.Context, lease lock.Lease) error {
		active, err := s.activeAt(ctx, caller.Email, place.ID, in.Seat)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return newError(ErrConflict, "already checked in at %s", place.Name)
		}
		if err := lease.Refresh(ctx); err != nil {
			return err
		}
		ok, err := s.gw.CheckIn(ctx, place, in.Seat, caller.Email)
		if err != nil {
			return err
		}
		s.checkAccepted(opCheckIn, ok, logrus.Fields{"location": place.ID, "email": caller.Email})
		return nil
	})
	if err != nil {
		return model.CheckInRecord{}, err
	}
	return rec, nil
}
