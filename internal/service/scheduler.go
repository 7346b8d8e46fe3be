package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/location-checkin/internal/clock"
	"github.com/iliyamo/location-checkin/internal/metrics"
	"github.com/iliyamo/location-checkin/internal/model"
	"github.com/iliyamo/location-checkin/internal/queue"
)

// TaskQueue delivers a message no earlier than delay after Dispatch.
type TaskQueue interface {
	Dispatch(ctx context.Context, msg queue.GuestCheckOutMessage, delay time.Duration) error
}

// JobHandle identifies a scheduled guest checkout.
type JobHandle struct {
	ID     string
	Delay  time.Duration
	FireAt time.Time
}

// DeferredCheckoutScheduler arms one-shot checkouts for guests.
type DeferredCheckoutScheduler struct {
	queue TaskQueue
	clock clock.Clock
	log   logrus.FieldLogger
}

// NewDeferredCheckoutScheduler returns a scheduler dispatching to q.
func NewDeferredCheckoutScheduler(q TaskQueue, clk clock.Clock, log logrus.FieldLogger) *DeferredCheckoutScheduler {
	return &DeferredCheckoutScheduler{queue: q, clock: clk, log: log}
}

// CheckoutDelay is the whole seconds from now until fireAt, never negative.
func CheckoutDelay(now, fireAt time.Time) time.Duration {
	secs := fireAt.Unix() - now.Unix()
	if secs < 0 {
		secs = 0
	}
	return time.Duration(secs) * time.Second
}

// Schedule dispatches a checkout of email at place/seat to fire at fireAt.
// A fireAt in the past fires immediately.
func (s *DeferredCheckoutScheduler) Schedule(ctx context.Context, email string, place model.Place, seat *int, fireAt time.Time) (JobHandle, error) {
	h := JobHandle{
		ID:     uuid.NewString(),
		Delay:  CheckoutDelay(s.clock.Now(), fireAt),
		FireAt: fireAt.UTC(),
	}
	msg := queue.GuestCheckOutMessage{
		JobID:    h.ID,
		Email:    email,
		Location: place,
		Seat:     seat,
		FireAt:   h.FireAt,
	}
	if err := s.queue.Dispatch(ctx, msg, h.Delay); err != nil {
		return JobHandle{}, err
	}
	s.log.WithFields(logrus.Fields{
		"job_id":   h.ID,
		"email":    email,
		"location": place.ID,
		"delay":    h.Delay,
	}).Info("guest checkout scheduled")
	return h, nil
}

// CheckOuter is the part of the backend the checkout handler needs.
type CheckOuter interface {
	CheckOut(ctx context.Context, email string, place model.Place, seat *int) (bool, error)
}

// AutoCheckoutHandler runs fired guest checkouts.  Auto checkout is best
// effort: a backend failure is logged and dropped, never retried.
type AutoCheckoutHandler struct {
	gw  CheckOuter
	log logrus.FieldLogger
}

// NewAutoCheckoutHandler returns a handler calling gw.
func NewAutoCheckoutHandler(gw CheckOuter, log logrus.FieldLogger) *AutoCheckoutHandler {
	return &AutoCheckoutHandler{gw: gw, log: log}
}

func (h *AutoCheckoutHandler) HandleGuestCheckOut(ctx context.Context, msg queue.GuestCheckOutMessage) error {
	l := h.log.WithFields(logrus.Fields{"job_id": msg.JobID, "email": msg.Email, "location": msg.Location.ID})
	_, err := h.gw.CheckOut(ctx, msg.Email, msg.Location, msg.Seat)
	switch {
	case err == nil:
		metrics.ObserveAutoCheckout("ok")
		l.Info("guest checked out")
		return nil
	case errors.Is(err, ErrNotLoadable), errors.Is(err, ErrNotStorable):
		metrics.ObserveAutoCheckout("dropped")
		l.WithError(err).Warn("guest checkout failed, dropping")
		return nil
	}
	metrics.ObserveAutoCheckout("error")
	return err
}
