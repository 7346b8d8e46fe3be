package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iliyamo/location-checkin/internal/clock"
	"github.com/iliyamo/location-checkin/internal/config"
	"github.com/iliyamo/location-checkin/internal/handler"
	"github.com/iliyamo/location-checkin/internal/logging"
	"github.com/iliyamo/location-checkin/internal/middleware"
	"github.com/iliyamo/location-checkin/internal/queue"
	"github.com/iliyamo/location-checkin/internal/router"
	"github.com/iliyamo/location-checkin/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), config.Load())
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logging.New(cfg.Env, cfg.LogLevel)
	rdb := connectRedis(cfg, log)
	if rdb != nil {
		defer rdb.Close()
	}
	gw := newGateway(cfg, rdb, log)
	clk := clock.NewSystem()

	var tasks service.TaskQueue
	if cfg.AMQP.Enabled {
		tasks = queue.NewPublisher(cfg.AMQP.URL, log)
	} else {
		log.Warn("amqp disabled, guest checkouts use in-process timers")
		timers := queue.NewTimerQueue(service.NewAutoCheckoutHandler(gw, log), log)
		defer timers.Close()
		tasks = timers
	}

	svc := service.New(gw, newLocker(cfg, rdb), middleware.Resolver{},
		service.NewWindowCache(gw, clk, cfg.ConfigCacheTTL),
		service.NewDeferredCheckoutScheduler(tasks, clk, log),
		service.WithClock(clk),
		service.WithLogger(log),
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(requestLogger(log))
	router.RegisterRoutes(e, &handler.ReadinessHandler{Backend: gw, Timeout: cfg.CampusQR.Timeout})
	router.RegisterCheckIn(e, &handler.CheckInHandler{Svc: svc}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}

func requestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Info("request")
			return nil
		},
	})
}
