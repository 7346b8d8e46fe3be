package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/location-checkin/internal/campusqr"
	"github.com/iliyamo/location-checkin/internal/clock"
)

// ConfigSource reads backend settings.
type ConfigSource interface {
	Config(ctx context.Context, key string) (json.RawMessage, error)
}

// windowFetchTimeout bounds a shared fetch.  The fetch does not follow the
// cancellation of the caller that started it, since other callers may be
// waiting on the same flight.
const windowFetchTimeout = 10 * time.Second

// WindowCache memoises the backend's auto-checkout window.  A value is
// served for ttl after it was fetched; ttl <= 0 keeps it for the lifetime
// of the cache.  Concurrent misses share one fetch.  Failed fetches are not
// cached.
type WindowCache struct {
	src   ConfigSource
	clock clock.Clock
	ttl   time.Duration

	mu        sync.Mutex
	minutes   int
	fetchedAt time.Time
	loaded    bool

	group singleflight.Group
}

// NewWindowCache returns an empty cache.
func NewWindowCache(src ConfigSource, clk clock.Clock, ttl time.Duration) *WindowCache {
	return &WindowCache{src: src, clock: clk, ttl: ttl}
}

// Minutes returns the auto-checkout window in minutes.
func (w *WindowCache) Minutes(ctx context.Context) (int, error) {
	if m, ok := w.cached(); ok {
		return m, nil
	}
	v, err, _ := w.group.Do(campusqr.ConfigKeyAutoCheckOutMinutes, func() (any, error) {
		if m, ok := w.cached(); ok {
			return m, nil
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), windowFetchTimeout)
		defer cancel()
		raw, err := w.src.Config(fctx, campusqr.ConfigKeyAutoCheckOutMinutes)
		if err != nil {
			return 0, err
		}
		m, err := parseMinutes(raw)
		if err != nil {
			return 0, err
		}
		w.mu.Lock()
		w.minutes, w.fetchedAt, w.loaded = m, w.clock.Now(), true
		w.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Window returns the auto-checkout window as a duration.
func (w *WindowCache) Window(ctx context.Context) (time.Duration, error) {
	m, err := w.Minutes(ctx)
	if err != nil {
		return 0, err
	}
	return time.Duration(m) * time.Minute, nil
}

func (w *WindowCache) cached() (int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.loaded {
		return 0, false
	}
	if w.ttl > 0 && !w.clock.Now().Before(w.fetchedAt.Add(w.ttl)) {
		return 0, false
	}
	return w.minutes, true
}

// parseMinutes accepts a JSON number or a numeric JSON string.
func parseMinutes(raw json.RawMessage) (int, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("%w: auto checkout minutes: %v", ErrNotLoadable, err)
	}
	var m int
	switch t := v.(type) {
	case float64:
		m = int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("%w: auto checkout minutes %q", ErrNotLoadable, t)
		}
		m = n
	default:
		return 0, fmt.Errorf("%w: auto checkout minutes has type %T", ErrNotLoadable, v)
	}
	if m <= 0 {
		return 0, fmt.Errorf("%w: auto checkout minutes must be positive, got %d", ErrNotLoadable, m)
	}
	return m, nil
}
