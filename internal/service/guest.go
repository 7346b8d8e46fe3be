package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/location-checkin/internal/lock"
	"github.com/iliyamo/location-checkin/internal/metrics"
	"github.com/iliyamo/location-checkin/internal/model"
)

const scheduleTimeout = 5 * time.Second

// GuestCheckInInput is a request by the caller to check a guest in until
// EndTime.
type GuestCheckInInput struct {
	LocationID string
	Seat       *int
	Email      string
	EndTime    time.Time
}

// GuestCheckIn checks a guest in on behalf of the caller and schedules the
// guest's checkout at EndTime.  EndTime must lie in (now, now+window].
func (s *Service) GuestCheckIn(ctx context.Context, in GuestCheckInInput) (rec model.GuestCheckInRecord, err error) {
	defer func() { s.observe(opGuestCheckIn, err) }()

	host, err := s.ids.CurrentIdentity(ctx)
	if err != nil {
		return model.GuestCheckInRecord{}, err
	}
	guest, err := normalizeEmail(in.Email)
	if err != nil {
		return model.GuestCheckInRecord{}, err
	}
	place, err := s.GetPlace(ctx, in.LocationID)
	if err != nil {
		return model.GuestCheckInRecord{}, err
	}
	if err := ValidateSeat(place, in.Seat); err != nil {
		return model.GuestCheckInRecord{}, err
	}
	window, err := s.window.Window(ctx)
	if err != nil {
		return model.GuestCheckInRecord{}, err
	}
	now := s.clock.Now().UTC()
	end := in.EndTime.UTC()
	if !end.After(now) {
		return model.GuestCheckInRecord{}, newError(ErrValidation, "end date must be in the future")
	}
	if ceiling := now.Add(window); end.After(ceiling) {
		return model.GuestCheckInRecord{}, newError(ErrValidation,
			"end date is too far in the future, it can't be after %s", ceiling.Format(time.RFC3339))
	}

	key := lock.Key(opGuestCheckIn, place.ID, in.Seat, strings.ToLower(guest))
	err = s.withLock(ctx, key, func(ctx context.Context, lease lock.Lease) error {
		active, err := s.activeAt(ctx, guest, place.ID, in.Seat)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return newError(ErrConflict, "guest is already checked in at %s", place.Name)
		}
		if err := lease.Refresh(ctx); err != nil {
			return err
		}
		ok, err := s.gw.GuestCheckIn(ctx, place, in.Seat, guest, host.Email)
		if err != nil {
			return err
		}
		s.checkAccepted(opGuestCheckIn, ok, logrus.Fields{"location": place.ID, "email": guest, "host": host.Email})
		return nil
	})
	if err != nil {
		return model.GuestCheckInRecord{}, err
	}

	// The guest is checked in remotely at this point, so the checkout is
	// handed off even if the caller has gone away.  A failed schedule leaves
	// the backend's own auto checkout in charge.
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), scheduleTimeout)
	defer cancel()
	if _, err := s.scheduler.Schedule(sctx, guest, place, in.Seat, end); err != nil {
		metrics.ObserveAutoCheckout("schedule_failed")
		s.log.WithError(err).WithFields(logrus.Fields{"location": place.ID, "email": guest}).Error("schedule guest checkout")
	}

	return model.GuestCheckInRecord{
		CheckInRecord: model.CheckInRecord{
			ID:        newID(),
			Agent:     host,
			Location:  place,
			Seat:      in.Seat,
			StartTime: now,
			EndTime:   end,
		},
		Email: guest,
	}, nil
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", newError(ErrValidation, "guest email is required")
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", newError(ErrValidation, "guest email %q is not a valid address", raw)
	}
	return addr.Address, nil
}
