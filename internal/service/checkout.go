package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/location-checkin/internal/lock"
	"github.com/iliyamo/location-checkin/internal/model"
)

// CheckOutInput is a request to check the caller out.  AgentID, when set,
// must name the caller: nobody checks out on someone else's behalf.
type CheckOutInput struct {
	LocationID string
	Seat       *int
	AgentID    string
}

// CheckOut checks the caller out of a place.  It fails with ErrConflict if
// the caller has no active check-in there.
func (s *Service) CheckOut(ctx context.Context, in CheckOutInput) (rec model.CheckOutRecord, err error) {
	defer func() { s.observe(opCheckOut, err) }()

	caller, err := s.ids.CurrentIdentity(ctx)
	if err != nil {
		return model.CheckOutRecord{}, err
	}
	if in.AgentID != "" && in.AgentID != caller.ID {
		return model.CheckOutRecord{}, newError(ErrAccessDenied, "cannot check out another person")
	}
	place, err := s.GetPlace(ctx, in.LocationID)
	if err != nil {
		return model.CheckOutRecord{}, err
	}
	if err := ValidateSeat(place, in.Seat); err != nil {
		return model.CheckOutRecord{}, err
	}

	key := lock.Key(opCheckOut, place.ID, in.Seat, caller.Key())
	err = s.withLock(ctx, key, func(ctx context.Context, lease lock.Lease) error {
		active, err := s.activeAt(ctx, caller.Email, place.ID, in.Seat)
		if err != nil {
			return err
		}
		if len(active) == 0 {
			return newError(ErrConflict, "not checked in at %s", place.Name)
		}
		if err := lease.Refresh(ctx); err != nil {
			return err
		}
		ok, err := s.gw.CheckOut(ctx, caller.Email, place, in.Seat)
		if err != nil {
			return err
		}
		s.checkAccepted(opCheckOut, ok, logrus.Fields{"location": place.ID, "email": caller.Email})
		return nil
	})
	if err != nil {
		return model.CheckOutRecord{}, err
	}
	return model.CheckOutRecord{
		ID:       newID(),
		Agent:    caller,
		Location: place,
		Seat:     in.Seat,
	}, nil
}
