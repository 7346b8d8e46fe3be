package campusqr

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/location-checkin/internal/config"
)

// PlaceCache keeps the raw location-list response in Redis.  A nil
// PlaceCache, a nil client or a disabled config turns every call into a
// miss so callers never need to special-case missing Redis.
type PlaceCache struct {
	rdb *redis.Client
	cfg config.PlaceCacheConfig
}

// NewPlaceCache returns a cache bound to rdb.
func NewPlaceCache(rdb *redis.Client, cfg config.PlaceCacheConfig) *PlaceCache {
	return &PlaceCache{rdb: rdb, cfg: cfg}
}

func (p *PlaceCache) enabled() bool {
	return p != nil && p.rdb != nil && p.cfg.Enabled
}

func (p *PlaceCache) key() string {
	return p.cfg.Prefix + ":location-list"
}

// Get returns the cached body.  Redis errors count as a miss.
func (p *PlaceCache) Get(ctx context.Context) ([]byte, bool) {
	if !p.enabled() {
		return nil, false
	}
	bs, err := p.rdb.Get(ctx, p.key()).Bytes()
	if err != nil || len(bs) == 0 {
		return nil, false
	}
	return bs, true
}

// Set stores body for the configured TTL.  Failures are ignored; the next
// lookup simply goes to the backend again.
func (p *PlaceCache) Set(ctx context.Context, body []byte) {
	if !p.enabled() {
		return
	}
	_ = p.rdb.SetEx(context.WithoutCancel(ctx), p.key(), body, p.cfg.TTL).Err()
}
