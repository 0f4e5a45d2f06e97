package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicdesk/clinic-booking/internal/config"
	"github.com/clinicdesk/clinic-booking/internal/db"
	"github.com/clinicdesk/clinic-booking/internal/metrics"
	"github.com/clinicdesk/clinic-booking/internal/notify"
	redisclient "github.com/clinicdesk/clinic-booking/internal/redis"
	"github.com/clinicdesk/clinic-booking/internal/scheduling"
	"github.com/clinicdesk/clinic-booking/pkg/logging"
)

// notify-watcher runs the change detector: it re-reads the appointment
// set on a fixed cadence, diffs against the last observed snapshot and
// publishes newly observed appointments for operator views to surface.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel).With("service", "notify-watcher")
	logger.Info("starting up", "env", cfg.Env, "interval", cfg.PollInterval.String())

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Error("postgres connection error", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Error("redis connection error", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("error closing redis", "error", err)
		}
	}()
	logger.Info("connected to Redis")

	m := metrics.NewSchedulingMetrics(nil)
	repo := scheduling.NewPgRepository(pgPool)

	detector := notify.NewDetector(notify.FetchFunc(func(ctx context.Context) ([]scheduling.AppointmentDetail, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		defer cancel()
		return repo.ListAppointments(fetchCtx, scheduling.ListFilter{})
	}))

	sink := notify.MultiSink{
		notify.NewLogSink(logger),
		notify.NewRedisSink(rdb, cfg.NotifyChannel),
	}

	poller := notify.NewPoller(detector, sink, logger, m).WithInterval(cfg.PollInterval)
	poller.Run(rootCtx)

	logger.Info("notify-watcher stopped")
}
