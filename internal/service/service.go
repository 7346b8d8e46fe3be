// Package service coordinates check-ins, check-outs and guest check-ins
// against the remote backend.  Each mutating operation runs under a
// distributed lock keyed on (operation, location, seat, person) so that a
// duplicate check and the remote write cannot interleave with a concurrent
// request for the same key.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/location-checkin/internal/campusqr"
	"github.com/iliyamo/location-checkin/internal/clock"
	"github.com/iliyamo/location-checkin/internal/lock"
	"github.com/iliyamo/location-checkin/internal/metrics"
	"github.com/iliyamo/location-checkin/internal/model"
)

// Lock namespaces.
const (
	opCheckIn      = "check-in"
	opCheckOut     = "check-out"
	opGuestCheckIn = "guest-check-in"
)

const releaseTimeout = 5 * time.Second

// Gateway is the remote backend as seen by the service.  *campusqr.Client
// implements it.
type Gateway interface {
	CheckIn(ctx context.Context, place model.Place, seat *int, email string) (bool, error)
	GuestCheckIn(ctx context.Context, place model.Place, seat *int, email, host string) (bool, error)
	CheckOut(ctx context.Context, email string, place model.Place, seat *int) (bool, error)
	ListActiveCheckIns(ctx context.Context, email string) ([]campusqr.ActiveCheckIn, error)
	ListPlaces(ctx context.Context) ([]model.Place, error)
	Config(ctx context.Context, key string) (json.RawMessage, error)
}

// IdentityResolver yields the authenticated caller of a request.
type IdentityResolver interface {
	CurrentIdentity(ctx context.Context) (model.Identity, error)
}

// Service implements the check-in operations.  It is safe for concurrent
// use.
type Service struct {
	gw        Gateway
	locker    lock.Locker
	ids       IdentityResolver
	window    *WindowCache
	scheduler *DeferredCheckoutScheduler
	clock     clock.Clock
	log       logrus.FieldLogger
}

// Option customises a Service.
type Option func(*Service)

// WithClock sets the time source used for start and end times.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.log = l }
}

// New wires a Service.
func New(gw Gateway, locker lock.Locker, ids IdentityResolver, window *WindowCache, scheduler *DeferredCheckoutScheduler, opts ...Option) *Service {
	s := &Service{
		gw:        gw,
		locker:    locker,
		ids:       ids,
		window:    window,
		scheduler: scheduler,
		clock:     clock.NewSystem(),
		log:       logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// withLock runs fn while holding the lock for key.  The lock is released on
// every path, including a cancelled ctx.
func (s *Service) withLock(ctx context.Context, key string, fn func(ctx context.Context, lease lock.Lease) error) error {
	start := time.Now()
	lease, err := s.locker.Acquire(ctx, key)
	metrics.ObserveLockWait(time.Since(start))
	if err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	defer func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := lease.Release(rctx); err != nil {
			s.log.WithError(err).WithField("lock_key", key).Warn("release lock")
		}
	}()
	return fn(ctx, lease)
}

// observe records the outcome of an operation and logs unexpected failures.
func (s *Service) observe(op string, err error) {
	result := resultLabel(err)
	metrics.ObserveOperation(op, result)
	switch result {
	case "ok", "validation", "conflict", "not_found":
	default:
		s.log.WithError(err).WithFields(logrus.Fields{"operation": op, "result": result}).Warn("operation failed")
	}
}

// checkAccepted logs a remote write that answered without "ok".  The
// backend has no error channel beyond status codes, so this is advisory.
func (s *Service) checkAccepted(op string, ok bool, fields logrus.Fields) {
	if !ok {
		s.log.WithFields(fields).WithField("operation", op).Warn("backend did not acknowledge write")
	}
}

func newID() string {
	return uuid.NewString()
}
