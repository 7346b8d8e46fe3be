package config

import "time"

// PlaceCacheConfig controls the Redis cache in front of the backend's
// location list.  The list changes rarely, so the default TTL matches the
// five minutes the backend itself advertises for it.
type PlaceCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadPlaceCacheConfig reads PLACE_CACHE_* variables with defaults.
func LoadPlaceCacheConfig() PlaceCacheConfig {
	cfg := PlaceCacheConfig{
		Enabled: envBool("PLACE_CACHE_ENABLED", true),
		TTL:     envDur("PLACE_CACHE_TTL", 300*time.Second),
		Prefix:  envStr("PLACE_CACHE_PREFIX", "checkin:cache"),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 300 * time.Second
	}
	return cfg
}
