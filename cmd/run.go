package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"starsgame/catalog"
	"starsgame/config"
	"starsgame/database"
	"starsgame/events"
	"starsgame/infrastructure"
	"starsgame/infrastructure/observability"
	"starsgame/jobs"
	"starsgame/payments"
	"starsgame/repository"
	"starsgame/service"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Engine bundles the game services for the transport layer that embeds them
type Engine struct {
	Ledger   service.LedgerService
	Rounds   service.RoundService
	Crash    service.CrashService
	Lottery  service.LotteryService
	Activity service.ActivityService
	Payments *payments.StarsTopUp
	Catalog  *catalog.Catalog
	LiveFeed *infrastructure.RedisLiveFeed // nil when Redis is not configured
}

// ConfigureLogging applies the log level and format from config
func ConfigureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("logLevel", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)
	log.WithField("environment", cfg.Environment).Info("Starting starsgame engine...")

	// Initialize metrics before anything emits events
	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Apply pending migrations, then connect
	databaseURL := database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName)
	log.Info("Applying database migrations...")
	if err := database.RunMigrationsWithURL(databaseURL); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("Connecting to database...")
	db, err := database.NewConnectionWithOptions(ctx, databaseURL, database.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()
	metrics.Register(eventBus)

	// Live feed collaborators are best-effort and optional
	var natsClient *infrastructure.NATSClient
	if cfg.NATSEnabled {
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			db.Close()
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		if err := natsClient.EnsureLiveStream(); err != nil {
			log.WithError(err).Warn("Failed to provision live feed stream")
		}
		infrastructure.NewLiveFeedPublisher(natsClient).Register(eventBus)
	}

	var (
		rdb      *redis.Client
		liveFeed *infrastructure.RedisLiveFeed
	)
	if cfg.RedisAddr != "" {
		rdb, err = infrastructure.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, recent drops will not be cached")
		} else {
			liveFeed = infrastructure.NewRedisLiveFeed(rdb, cfg.LiveFeedSize)
			liveFeed.Register(eventBus)
		}
	}

	cases, err := catalog.Load(cfg.CaseCatalogPath)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to load case catalog: %w", err)
	}

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	rng := service.NewCryptoSource()

	rounds := service.NewRoundService(uowFactory, cfg, rng)
	ledger := service.NewLedgerService(uowFactory)
	engine := &Engine{
		Ledger:   ledger,
		Rounds:   rounds,
		Crash:    service.NewCrashService(uowFactory, rounds, cfg),
		Lottery:  service.NewLotteryService(uowFactory, cases, cfg, rng),
		Activity: service.NewActivityService(uowFactory),
		Payments: payments.NewStarsTopUp(ledger),
		Catalog:  cases,
		LiveFeed: liveFeed,
	}
	log.WithField("cases", len(cases.List())).Info("Services initialized successfully")

	scheduler := jobs.NewScheduler(engine.Crash, engine.Ledger, cfg)
	if err := scheduler.Start(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to start job scheduler: %w", err)
	}

	// Open the first round so the first request does not pay for it
	if _, err := engine.Rounds.CurrentRoundOrCreate(ctx, time.Now()); err != nil {
		log.WithError(err).Warn("Failed to open initial crash round")
	}

	// SIGHUP reloads the case catalog without a restart
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)

	log.Infof("Engine is running in %s mode...", cfg.Environment)
	for running := true; running; {
		select {
		case <-ctx.Done():
			running = false
		case <-reload:
			if err := engine.Catalog.Reload(); err != nil {
				log.WithError(err).Error("Failed to reload case catalog, keeping the previous one")
			}
		}
	}

	log.Info("Shutting down engine...")
	scheduler.Stop()

	// Let event handlers of the last transactions finish
	eventBus.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.WithError(err).Error("Error closing Redis connection")
		}
	}
	if err := metrics.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics provider")
	}

	log.Info("Closing database connection...")
	db.Close()

	log.Info("Shutdown completed")
	return nil
}
