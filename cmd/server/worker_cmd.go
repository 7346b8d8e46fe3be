package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/iliyamo/location-checkin/internal/config"
	"github.com/iliyamo/location-checkin/internal/logging"
	"github.com/iliyamo/location-checkin/internal/queue"
	"github.com/iliyamo/location-checkin/internal/service"
)

func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the deferred guest checkout consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return work(cmd.Context(), config.Load())
		},
	}
}

func work(ctx context.Context, cfg config.Config) error {
	log := logging.New(cfg.Env, cfg.LogLevel)
	if !cfg.AMQP.Enabled {
		return errors.New("worker needs AMQP_ENABLED=true")
	}
	rdb := connectRedis(cfg, log)
	if rdb != nil {
		defer rdb.Close()
	}
	h := service.NewAutoCheckoutHandler(newGateway(cfg, rdb, log), log)
	log.WithField("queue", queue.GuestCheckOutQueue).Info("worker started")
	err := queue.NewConsumer(cfg.AMQP.URL, h, log).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
