// Package main is the entry point for the Fiskalis background worker.
// It relays outbox events and cleans up expired refresh tokens.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"fiskalis/internal/domain/auth"
	"fiskalis/internal/infrastructure/storage/postgres"
	"fiskalis/internal/infrastructure/storage/postgres/auth_repo"
	"fiskalis/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting fiskalis worker")

	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	poolCfg.MaxConns = 5

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	// Auth service is only needed for token cleanup here, so the JWT
	// signing config can be a throwaway.
	tokenRepo := auth_repo.NewTokenRepo(txManager)
	authService := auth.NewService(
		auth_repo.NewUserRepo(txManager),
		auth_repo.NewRoleRepo(txManager),
		auth_repo.NewPermissionRepo(txManager),
		tokenRepo,
		auth.NewJWTService(auth.DefaultJWTConfig("worker")),
		txManager,
		auth.DefaultServiceConfig(),
		log,
	)

	relay := postgres.NewOutboxRelay(pool.Unwrap(), getEnvInt("OUTBOX_BATCH_SIZE", 100), &logHandler{log: log})

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		runOutboxLoop(ctx, relay, log, getEnvDuration("OUTBOX_POLL_INTERVAL", 5*time.Second))
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runTokenCleanupLoop(ctx, authService, log, getEnvDuration("TOKEN_CLEANUP_INTERVAL", time.Hour))
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// runOutboxLoop drains pending outbox messages at a fixed interval and
// periodically moves exhausted messages to the dead letter queue.
func runOutboxLoop(ctx context.Context, relay *postgres.OutboxRelay, log *logger.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	dlqTicker := time.NewTicker(10 * time.Minute)
	defer dlqTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			processed, err := relay.ProcessBatch(ctx)
			if err != nil {
				log.Errorw("outbox batch failed", "error", err)
				continue
			}
			if processed > 0 {
				log.Infow("outbox batch processed", "count", processed)
			}

		case <-dlqTicker.C:
			moved, err := relay.MoveToDLQ(ctx)
			if err != nil {
				log.Errorw("outbox DLQ move failed", "error", err)
				continue
			}
			if moved > 0 {
				log.Warnw("outbox messages moved to DLQ", "count", moved)
			}
		}
	}
}

// runTokenCleanupLoop deletes expired refresh tokens.
func runTokenCleanupLoop(ctx context.Context, authService *auth.Service, log *logger.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			deleted, err := authService.CleanupExpiredTokens(ctx)
			if err != nil {
				log.Errorw("token cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				log.Infow("expired tokens cleaned up", "count", deleted)
			}
		}
	}
}

// logHandler publishes outbox events to the log stream. Downstream
// consumers (SEF submission, e-mail) subscribe here once they exist.
type logHandler struct {
	log *logger.Logger
}

func (h *logHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	h.log.Infow("outbox event",
		"event_type", msg.EventType,
		"aggregate_type", msg.AggregateType,
		"aggregate_id", msg.AggregateID.String(),
	)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
