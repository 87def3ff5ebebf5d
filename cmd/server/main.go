package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/walletledger/internal/adapter/http"
	"github.com/iho/walletledger/internal/adapter/http/handler"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
	"github.com/iho/walletledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/walletledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/walletledger/internal/adapter/repository/redis"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/auth"
	"github.com/iho/walletledger/internal/infrastructure/config"
	"github.com/iho/walletledger/internal/infrastructure/eventpublisher"
	"github.com/iho/walletledger/internal/infrastructure/logger"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
	"github.com/iho/walletledger/internal/infrastructure/postgres"
	"github.com/iho/walletledger/internal/infrastructure/redis"
	"github.com/iho/walletledger/internal/infrastructure/sweeper"
	"github.com/iho/walletledger/internal/usecase"
)

const (
	outboxRetention      = 7 * 24 * time.Hour
	limiterCleanupPeriod = time.Minute
	limiterMaxIdle       = 10 * time.Minute
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Caller: cfg.LogCaller,
	})
	log.Logger = appLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger zerolog.Logger) error {
	credit, err := signupCredit(cfg)
	if err != nil {
		return err
	}

	m := metrics.New()

	store, err := openStorage(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer store.close()

	// Optional Redis replay cache
	var replayCache usecase.ReplayCache
	checks := store.checks
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		appLogger.Info().Msg("connected to redis")

		replayCache = redisRepo.NewReplayCache(redisClient, cfg.IdempotencyTTL)
		checks = append(checks, handler.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	// Initialize use cases
	idGen := postgresRepo.NewULIDGenerator()
	accountUC := usecase.NewAccountUseCase(store.txManager, store.ledger, store.outbox, idGen, m)
	transferUC := usecase.NewTransferUseCase(usecase.TransferConfig{
		TxManager:   store.txManager,
		Ledger:      store.ledger,
		Registry:    store.registry,
		OutboxRepo:  store.outbox,
		ReplayCache: replayCache,
		IDGen:       idGen,
		RefGen:      postgresRepo.NewUUIDGenerator(),
		Metrics:     m,
		Logger:      &appLogger,
		Timeout:     cfg.TransferTimeout,
		TTL:         cfg.IdempotencyTTL,
	})
	ledgerUC := usecase.NewLedgerUseCase(store.auditor)

	// Create router
	routerCfg := httpAdapter.RouterConfig{
		AccountHandler:  handler.NewAccountHandler(accountUC, credit),
		TransferHandler: handler.NewTransferHandler(transferUC),
		LedgerHandler:   handler.NewLedgerHandler(ledgerUC),
		HealthHandler:   handler.NewHealthHandler(checks...),
		HTTPMetrics:     middleware.NewHTTPMetrics(prometheus.DefaultRegisterer),
		MetricsHandler:  httpAdapter.DefaultMetricsHandler(),
		Logger:          appLogger,
	}
	if cfg.AuthEnabled {
		routerCfg.JWTManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}
	var limiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		routerCfg.RateLimiter = limiter
	}

	// Background workers
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var wg sync.WaitGroup

	publisher, closePublisher := buildPublisher(cfg, appLogger)
	defer func() {
		if err := closePublisher(); err != nil {
			appLogger.Warn().Err(err).Msg("failed to close event publisher")
		}
	}()

	relay := eventpublisher.NewRelay(eventpublisher.Config{
		OutboxRepo: store.outbox,
		Publisher:  publisher,
		Metrics:    m,
		Logger:     &appLogger,
		Interval:   cfg.OutboxPollInterval,
		Retention:  outboxRetention,
	})

	sweep := sweeper.New(sweeper.Config{
		Purger:   store.registry,
		Retrier:  store.retrier,
		Metrics:  m,
		Logger:   &appLogger,
		TTL:      cfg.IdempotencyTTL,
		Interval: cfg.IdempotencySweepInterval,
	})

	startWorker(workerCtx, &wg, appLogger, "outbox-relay", relay.Start)
	startWorker(workerCtx, &wg, appLogger, "idempotency-sweeper", sweep.Start)
	if limiter != nil {
		startWorker(workerCtx, &wg, appLogger, "rate-limit-cleanup", func(ctx context.Context) error {
			ticker := time.NewTicker(limiterCleanupPeriod)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					if n := limiter.CleanupLimiters(limiterMaxIdle); n > 0 {
						appLogger.Debug().Int("removed", n).Msg("pruned idle rate limiters")
					}
				}
			}
		})
	}

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      httpAdapter.NewRouter(routerCfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info().
			Str("port", cfg.HTTPPort).
			Str("storage", cfg.StorageBackend).
			Bool("auth", cfg.AuthEnabled).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		appLogger.Info().Msg("shutting down server...")
	case err := <-serverErr:
		if err != nil {
			cancelWorkers()
			wg.Wait()
			return fmt.Errorf("server failed: %w", err)
		}
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("server forced to shutdown")
	}

	cancelWorkers()
	wg.Wait()

	appLogger.Info().Msg("server stopped")
	return nil
}

// storage bundles the ports served by one backend.
type storage struct {
	txManager usecase.TransactionManager
	ledger    usecase.LedgerStore
	auditor   usecase.LedgerAuditor
	registry  usecase.IdempotencyRegistry
	outbox    usecase.OutboxRepository
	retrier   sweeper.Retrier
	checks    []handler.Check
	close     func()
}

func openStorage(ctx context.Context, cfg *config.Config, appLogger zerolog.Logger) (*storage, error) {
	if cfg.StorageBackend == config.StorageMemory {
		appLogger.Warn().Msg("using in-memory storage, data is lost on restart")
		store := memory.NewStore().WithTTL(cfg.IdempotencyTTL)
		return &storage{
			txManager: store,
			ledger:    store,
			auditor:   store,
			registry:  store,
			outbox:    store,
			close:     func() {},
		}, nil
	}

	if cfg.MigrateOnStart {
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	appLogger.Info().Msg("connected to postgres")

	ledger := postgresRepo.NewLedgerStore(pool, postgresRepo.NewULIDGenerator())

	return &storage{
		txManager: postgresRepo.NewTxManager(pool),
		ledger:    ledger,
		auditor:   ledger,
		registry:  postgresRepo.NewIdempotencyRegistry(pool, cfg.IdempotencyTTL),
		outbox:    postgresRepo.NewOutboxRepository(pool),
		retrier:   postgresRepo.NewRetrier(appLogger),
		checks:    []handler.Check{{Name: "postgres", Ping: pool.Ping}},
		close:     pool.Close,
	}, nil
}

// signupCredit converts the configured signup bonus to minor units.
func signupCredit(cfg *config.Config) (int64, error) {
	if cfg.SignupBonus.IsZero() {
		return 0, nil
	}

	credit, err := domain.ToMinorUnits(cfg.SignupBonus)
	if err != nil {
		return 0, fmt.Errorf("invalid SIGNUP_BONUS: %w", err)
	}
	return credit, nil
}

// buildPublisher picks Kafka when brokers are configured and falls back to
// logging events. The returned func releases the publisher.
func buildPublisher(cfg *config.Config, appLogger zerolog.Logger) (eventpublisher.Publisher, func() error) {
	if len(cfg.KafkaBrokers) == 0 {
		return eventpublisher.NewLogPublisher(appLogger), func() error { return nil }
	}

	kafka := eventpublisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	appLogger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing outbox events to kafka")
	return kafka, kafka.Close
}

func startWorker(ctx context.Context, wg *sync.WaitGroup, appLogger zerolog.Logger, name string, fn func(context.Context) error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error().Err(err).Str("worker", name).Msg("background worker stopped")
		}
	}()
}
