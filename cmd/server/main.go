package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/meridianpay/quorum/internal/adapter/http"
	"github.com/meridianpay/quorum/internal/adapter/http/handler"
	memoryRepo "github.com/meridianpay/quorum/internal/adapter/repository/memory"
	postgresRepo "github.com/meridianpay/quorum/internal/adapter/repository/postgres"
	redisRepo "github.com/meridianpay/quorum/internal/adapter/repository/redis"
	"github.com/meridianpay/quorum/internal/infrastructure/config"
	"github.com/meridianpay/quorum/internal/infrastructure/eventpublisher"
	"github.com/meridianpay/quorum/internal/infrastructure/kafka"
	"github.com/meridianpay/quorum/internal/infrastructure/logger"
	"github.com/meridianpay/quorum/internal/infrastructure/metrics"
	"github.com/meridianpay/quorum/internal/infrastructure/postgres"
	"github.com/meridianpay/quorum/internal/infrastructure/redis"
	"github.com/meridianpay/quorum/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup loggers. zerolog carries the request path, slog the workers.
	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	m := metrics.New()

	var (
		entryRepo  usecase.EntryRepository
		outboxRepo usecase.OutboxRepository
		pool       *pgxpool.Pool
	)

	switch cfg.StoreBackend {
	case "postgres":
		if err := postgres.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}

		pool, err = postgres.NewPool(ctx, postgres.Config{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.DatabaseMaxConns,
			MinConns: cfg.DatabaseMinConns,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pool.Close()
		log.Info().Msg("connected to postgres")

		entryRepo = postgresRepo.NewEntryRepository(pool)
		outboxRepo = postgresRepo.NewOutboxRepository(pool)

	case "memory":
		log.Warn().Msg("using in-memory store, data will not survive restarts")
		entryRepo = memoryRepo.NewEntryRepository()
		outboxRepo = memoryRepo.NewOutboxRepository()

	default:
		log.Fatal().Str("backend", cfg.StoreBackend).Msg("unknown store backend")
	}

	// Redis is optional: without it there is no terminal entry cache and
	// no idempotent replay, but the API still works.
	var (
		redisClient      *goredis.Client
		cache            usecase.Cache
		idempotencyStore usecase.IdempotencyStore
	)
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")

		cache = redisRepo.NewCache(redisClient)
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}

	idGen := postgresRepo.NewULIDGenerator()

	// Initialize use cases
	transactionUC := usecase.NewTransactionUseCase(entryRepo, outboxRepo, cache, idGen, slogger, cfg.TerminalCacheTTL)
	approvalUC := usecase.NewApprovalUseCase(entryRepo, outboxRepo, idGen, usecase.ApprovalConfig{
		MaxAttempts:     cfg.VoteMaxAttempts,
		InitialInterval: cfg.VoteInitialInterval,
		MaxInterval:     cfg.VoteMaxInterval,
		Logger:          slogger,
		Metrics:         m,
	})

	// Initialize handlers
	transactionHandler := handler.NewTransactionHandler(transactionUC)
	voteHandler := handler.NewVoteHandler(approvalUC, transactionUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		TransactionHandler: transactionHandler,
		VoteHandler:        voteHandler,
		HealthHandler:      healthHandler,
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		Logger:             log.Logger,
	})

	// Start the outbox publisher
	var publisher eventpublisher.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, slogger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing events to kafka")
	} else {
		publisher = eventpublisher.NewLogPublisher(slogger)
		log.Info().Msg("no kafka brokers configured, logging events")
	}

	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()

	ep := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  publisher,
		Logger:     slogger,
		Metrics:    m,
		BatchSize:  cfg.PublisherBatchSize,
		Interval:   cfg.PublisherInterval,
	})
	go func() {
		if err := ep.Start(publisherCtx); err != nil && publisherCtx.Err() == nil {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("backend", cfg.StoreBackend).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	stopPublisher()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
