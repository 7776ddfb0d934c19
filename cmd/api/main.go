package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-cart/api/controllers"
	"github.com/angelmondragon/storefront-cart/api/routes"
	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/internal/cron"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/db"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
	"github.com/angelmondragon/storefront-cart/pkg/migrate"
	"github.com/angelmondragon/storefront-cart/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i].Close())
		}
	}()

	var (
		checks      []controllers.ReadinessCheck
		redisClient *redis.Client
		dbClient    *db.Client
	)

	if cfg.Redis.Configured() {
		redisClient, err = redis.New(bootCtx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient)
		checks = append(checks, controllers.ReadinessCheck{Name: "redis", Pinger: redisClient})
	}

	backend := cfg.Cart.PersistenceBackend()
	if backend == enums.PersistenceBackendDB {
		dbClient, err = db.New(bootCtx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
		if err != nil {
			return err
		}
		closers = append(closers, dbClient)
		checks = append(checks, controllers.ReadinessCheck{Name: "database", Pinger: dbClient})
		if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
			return err
		}
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cartMetrics := metrics.NewCartMetrics(promRegistry)
	jobMetrics := metrics.NewJobMetrics(promRegistry)

	var (
		storage  cart.Storage
		snapshot *cart.SnapshotRepository
	)
	switch backend {
	case enums.PersistenceBackendRedis:
		storage, err = cart.NewRedisStorage(redisClient, cfg.Cart.PersistTTL)
	case enums.PersistenceBackendDB:
		snapshot, err = cart.NewSnapshotRepository(dbClient.DB(), cfg.Cart.PersistTTL)
		storage = snapshot
	default:
		storage = cart.NewMemoryStorage()
	}
	if err != nil {
		return err
	}

	bridge, err := cart.NewBridge(storage, logg, cartMetrics)
	if err != nil {
		return err
	}
	registry := cart.NewRegistry(cfg.Cart.MaxSessions, cfg.Cart.SessionIdleTTL, cartMetrics)
	cartService, err := cart.NewService(cart.ServiceParams{
		Bridge:   bridge,
		Registry: registry,
		Logger:   logg,
		Metrics:  cartMetrics,
	})
	if err != nil {
		return err
	}

	schedulers, err := maintenanceSchedulers(cfg, logg, registry, snapshot, redisClient, jobMetrics)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:          cfg,
			Logger:          logg,
			CartService:     cartService,
			Redis:           redisClient,
			ReadinessChecks: checks,
			MetricsHandler:  promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"backend": string(backend),
	})
	logg.Info(ctx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logg.Info(ctx, "api server shutting down gracefully")
		return server.Shutdown(shutdownCtx)
	})
	for _, scheduler := range schedulers {
		g.Go(func() error {
			if err := scheduler.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// maintenanceSchedulers builds the background loops: the registry sweep runs
// on every instance, the snapshot purge only with the db backend and, when
// Redis is available, under a shared lock.
func maintenanceSchedulers(
	cfg *config.Config,
	logg *logger.Logger,
	registry *cart.Registry,
	snapshot *cart.SnapshotRepository,
	redisClient *redis.Client,
	jobMetrics *metrics.JobMetrics,
) ([]*cron.Service, error) {
	sweep, err := cron.NewRegistrySweepJob(registry, logg)
	if err != nil {
		return nil, err
	}
	sweeper, err := cron.NewService(cron.ServiceParams{
		Name:     "cart-registry",
		Logger:   logg,
		Jobs:     []cron.Job{sweep},
		Metrics:  jobMetrics,
		Interval: cfg.Cart.SweepInterval,
	})
	if err != nil {
		return nil, err
	}
	schedulers := []*cron.Service{sweeper}

	if snapshot == nil {
		return schedulers, nil
	}
	purge, err := cron.NewSnapshotPurgeJob(snapshot, logg)
	if err != nil {
		return nil, err
	}
	params := cron.ServiceParams{
		Name:     "cart-snapshots",
		Logger:   logg,
		Jobs:     []cron.Job{purge},
		Metrics:  jobMetrics,
		Interval: cfg.Cart.PurgeInterval,
	}
	if redisClient != nil {
		lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cart-snapshot-purge"), cfg.Cart.PurgeInterval)
		if err != nil {
			return nil, err
		}
		params.Lock = lock
	}
	purger, err := cron.NewService(params)
	if err != nil {
		return nil, err
	}
	return append(schedulers, purger), nil
}
