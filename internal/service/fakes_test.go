package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/location-checkin/internal/campusqr"
	"github.com/iliyamo/location-checkin/internal/clock"
	"github.com/iliyamo/location-checkin/internal/lock"
	"github.com/iliyamo/location-checkin/internal/logging"
	"github.com/iliyamo/location-checkin/internal/model"
	"github.com/iliyamo/location-checkin/internal/queue"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

// fakeGateway keeps active check-ins in memory, keyed by lower-cased email.
type fakeGateway struct {
	mu     sync.Mutex
	clock  clock.Clock
	places []model.Place
	active map[string][]campusqr.ActiveCheckIn
	window json.RawMessage

	writeErr    error
	listErr     error
	onList      func()
	afterWrite  func()
	configErr   error
	writeDelay  time.Duration
	configCalls int
	writes      int
	hosts       []string
	inFlight    int
	maxInFlight int
}

func newFakeGateway(clk clock.Clock, places ...model.Place) *fakeGateway {
	return &fakeGateway{
		clock:  clk,
		places: places,
		active: make(map[string][]campusqr.ActiveCheckIn),
		window: json.RawMessage(`60`),
	}
}

func (g *fakeGateway) enter() {
	g.mu.Lock()
	g.inFlight++
	if g.inFlight > g.maxInFlight {
		g.maxInFlight = g.inFlight
	}
	g.writes++
	delay := g.writeDelay
	g.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
}

func (g *fakeGateway) leave() {
	g.mu.Lock()
	g.inFlight--
	g.mu.Unlock()
}

func (g *fakeGateway) add(ctx context.Context, email string, place model.Place, seat *int) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if g.writeErr != nil {
		return false, g.writeErr
	}
	if g.afterWrite != nil {
		defer g.afterWrite()
	}
	k := strings.ToLower(email)
	g.active[k] = append(g.active[k], campusqr.ActiveCheckIn{
		ID:           "remote-" + place.ID,
		LocationID:   place.ID,
		LocationName: place.Name,
		Seat:         seat,
		CheckInDate:  float64(g.clock.Now().UnixMilli()),
	})
	return true, nil
}

func (g *fakeGateway) CheckIn(ctx context.Context, place model.Place, seat *int, email string) (bool, error) {
	g.enter()
	defer g.leave()
	return g.add(ctx, email, place, seat)
}

func (g *fakeGateway) GuestCheckIn(ctx context.Context, place model.Place, seat *int, email, host string) (bool, error) {
	g.enter()
	defer g.leave()
	g.mu.Lock()
	g.hosts = append(g.hosts, host)
	g.mu.Unlock()
	return g.add(ctx, email, place, seat)
}

func (g *fakeGateway) CheckOut(_ context.Context, email string, place model.Place, seat *int) (bool, error) {
	g.enter()
	defer g.leave()
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.writeErr != nil {
		return false, g.writeErr
	}
	k := strings.ToLower(email)
	kept := g.active[k][:0]
	for _, a := range g.active[k] {
		if a.LocationID == place.ID && (seat == nil || (a.Seat != nil && *a.Seat == *seat)) {
			continue
		}
		kept = append(kept, a)
	}
	g.active[k] = kept
	return true, nil
}

func (g *fakeGateway) ListActiveCheckIns(_ context.Context, email string) ([]campusqr.ActiveCheckIn, error) {
	if g.onList != nil {
		g.onList()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	return append([]campusqr.ActiveCheckIn(nil), g.active[strings.ToLower(email)]...), nil
}

func (g *fakeGateway) ListPlaces(context.Context) ([]model.Place, error) {
	return g.places, nil
}

func (g *fakeGateway) Config(_ context.Context, key string) (json.RawMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.configCalls++
	if g.configErr != nil {
		return nil, g.configErr
	}
	if key != campusqr.ConfigKeyAutoCheckOutMinutes {
		return nil, campusqr.ErrNotLoadable
	}
	return g.window, nil
}

func (g *fakeGateway) writeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.writes
}

type fixedIdentity struct {
	id  model.Identity
	err error
}

func (f fixedIdentity) CurrentIdentity(context.Context) (model.Identity, error) {
	return f.id, f.err
}

type dispatched struct {
	msg   queue.GuestCheckOutMessage
	delay time.Duration
}

type recordingQueue struct {
	mu   sync.Mutex
	err  error
	jobs []dispatched
}

func (q *recordingQueue) Dispatch(ctx context.Context, msg queue.GuestCheckOutMessage, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, dispatched{msg: msg, delay: delay})
	return nil
}

// countingLocker records acquires and releases of the wrapped locker.
type countingLocker struct {
	inner    lock.Locker
	mu       sync.Mutex
	acquired int
	released map[string]int
}

func newCountingLocker(inner lock.Locker) *countingLocker {
	return &countingLocker{inner: inner, released: make(map[string]int)}
}

func (c *countingLocker) Acquire(ctx context.Context, key string) (lock.Lease, error) {
	l, err := c.inner.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.acquired++
	c.mu.Unlock()
	return &countingLease{Lease: l, owner: c}, nil
}

func (c *countingLocker) counts() (acquired, released int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range c.released {
		released += n
	}
	return c.acquired, released
}

type countingLease struct {
	lock.Lease
	owner *countingLocker
}

func (l *countingLease) Release(ctx context.Context) error {
	l.owner.mu.Lock()
	l.owner.released[l.Key()]++
	l.owner.mu.Unlock()
	return l.Lease.Release(ctx)
}

var alice = model.Identity{ID: "u-alice", Email: "Alice@Example.com", Name: "Alice"}

type fixture struct {
	svc    *Service
	gw     *fakeGateway
	locker *countingLocker
	queue  *recordingQueue
	clock  *clock.Manual
}

func newFixture(t *testing.T, places ...model.Place) *fixture {
	t.Helper()
	clk := clock.NewManual(testNow)
	gw := newFakeGateway(clk, places...)
	locker := newCountingLocker(lock.NewMemoryLocker(lock.Options{
		Lease:         time.Minute,
		RetryInterval: time.Millisecond,
		MaxRetries:    2000,
	}))
	q := &recordingQueue{}
	log := logging.Discard()
	svc := New(gw, locker, fixedIdentity{id: alice},
		NewWindowCache(gw, clk, 5*time.Minute),
		NewDeferredCheckoutScheduler(q, clk, log),
		WithClock(clk), WithLogger(log))
	return &fixture{svc: svc, gw: gw, locker: locker, queue: q, clock: clk}
}
