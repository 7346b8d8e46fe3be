// Package lock provides named mutual-exclusion leases used to serialise
// check-in operations that target the same location, seat and person.
//
// Acquisition follows a bounded-retry policy: each attempt is non-blocking,
// a failed attempt sleeps RetryInterval and the loop gives up with
// ErrUnavailable after MaxRetries further attempts.  Every grant carries a
// Lease so a crashed holder cannot keep a key forever.
package lock

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnavailable is returned when the retry ceiling is exceeded.
	ErrUnavailable = errors.New("lock unavailable")
	// ErrLeaseLost is returned by Refresh or Release when the lease expired
	// and the key is no longer held by the caller.
	ErrLeaseLost = fmt.Errorf("%w: lease lost", ErrUnavailable)
	// ErrBackend is returned when the lock store itself fails.  It is an
	// ErrUnavailable so callers treat it like a busy key.
	ErrBackend = fmt.Errorf("%w: lock store error", ErrUnavailable)
)

// Locker hands out leases on named resources.
type Locker interface {
	Acquire(ctx context.Context, key string) (Lease, error)
}

// Lease is an exclusively held resource.  Release must be called exactly
// once on every exit path of the critical section.
type Lease interface {
	Key() string
	Refresh(ctx context.Context) error
	Release(ctx context.Context) error
}

// Options controls lease length and the acquisition retry loop.
type Options struct {
	Lease         time.Duration
	RetryInterval time.Duration
	MaxRetries    int
}

// DefaultOptions gives a 60s lease and ~30s worth of 100ms retries.
func DefaultOptions() Options {
	return Options{
		Lease:         60 * time.Second,
		RetryInterval: 100 * time.Millisecond,
		MaxRetries:    300,
	}
}

func (o Options) normalize() Options {
	def := DefaultOptions()
	if o.Lease <= 0 {
		o.Lease = def.Lease
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = def.RetryInterval
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	return o
}

// Key builds the resource name for an operation on a location/seat pair
// for one identity.  Unseated locations use "null" in the seat slot so
// that keys never collide across seated and unseated requests.
func Key(operation, locationID string, seat *int, identity string) string {
	seatPart := "null"
	if seat != nil {
		seatPart = strconv.Itoa(*seat)
	}
	return strings.Join([]string{operation, locationID, seatPart, identity}, "-")
}

// retry runs try until it reports success, errors, the context ends or the
// retry budget is spent.
func retry(ctx context.Context, o Options, try func(context.Context) (bool, error)) error {
	for attempt := 0; ; attempt++ {
		ok, err := try(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if attempt >= o.MaxRetries {
			return ErrUnavailable
		}
		t := time.NewTimer(o.RetryInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
