package main

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/location-checkin/internal/campusqr"
	"github.com/iliyamo/location-checkin/internal/config"
	"github.com/iliyamo/location-checkin/internal/lock"
)

// connectRedis returns nil when Redis is unreachable; callers degrade to
// in-process locking and an uncached place list.
func connectRedis(cfg config.Config, log logrus.FieldLogger) *redis.Client {
	rdb, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, using in-process locks")
		return nil
	}
	return rdb
}

func newLocker(cfg config.Config, rdb *redis.Client) lock.Locker {
	opts := lock.Options{
		Lease:         cfg.Lock.Lease,
		RetryInterval: cfg.Lock.RetryInterval,
		MaxRetries:    cfg.Lock.MaxRetries,
	}
	if rdb == nil {
		return lock.NewMemoryLocker(opts)
	}
	return lock.NewRedisLocker(rdb, cfg.Lock.Prefix, opts)
}

func newGateway(cfg config.Config, rdb *redis.Client, log logrus.FieldLogger) *campusqr.Client {
	return campusqr.New(cfg.CampusQR.URL, cfg.CampusQR.Token,
		campusqr.WithTimeout(cfg.CampusQR.Timeout),
		campusqr.WithPlaceCache(campusqr.NewPlaceCache(rdb, cfg.PlaceCache)),
		campusqr.WithLogger(log),
	)
}
