/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the MEDEVAC case engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults, MEDEVAC_* environment, flags)
  2. Build the zap logger
  3. Open the case store (memory, sqlite or postgres)
  4. Pick the obligation sequence: Redis when configured, else the store
  5. Seed the post table from YAML, start the refresh scheduler
  6. Start the HTTP server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler, close store and Redis
  4. Exit

EXAMPLES:
  # SQLite file database, posts seeded from YAML
  ./server -db="./data/medevac.db" -posts=posts.yaml

  # Shared Postgres and Redis counters
  ./server -driver=postgres -db="postgres://medevac@db/medevac?sslmode=disable" -redis-addr=redis:6379

  # In-memory, console logs
  ./server -driver=memory -log-format=console

SEE ALSO:
  - internal/config: Flags and environment
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/medevac-engine/api"
	"github.com/warp/medevac-engine/factory"
	"github.com/warp/medevac-engine/internal/config"
	"github.com/warp/medevac-engine/internal/logging"
	"github.com/warp/medevac-engine/medevac"
	"github.com/warp/medevac-engine/perdiem"
	"github.com/warp/medevac-engine/store/memory"
	"github.com/warp/medevac-engine/store/postgres"
	redisstore "github.com/warp/medevac-engine/store/redis"
	"github.com/warp/medevac-engine/store/sqlite"
	"go.uber.org/zap"
)

// caseStore is what every store driver provides.
type caseStore interface {
	medevac.CaseStore
	medevac.SequenceSource
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, config.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// Initialize store
	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Obligation sequence
	var seq medevac.SequenceSource = store
	if cfg.Redis.Addr != "" {
		client := redisstore.NewClient(redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisSeq := redisstore.NewSequence(client, logger)
		defer redisSeq.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisSeq.Ping(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		seq = redisSeq
		logger.Info("obligation sequence on redis", zap.String("addr", cfg.Redis.Addr))
	}

	// Post table
	var seed []medevac.Post
	if cfg.PostsFile != "" {
		if seed, err = factory.LoadPostsYAML(cfg.PostsFile); err != nil {
			return err
		}
	}
	posts := medevac.NewPostRegistry(medevac.NewPostTable(seed))
	logger.Info("post table seeded", zap.Int("post_count", len(seed)))

	// Per-diem service
	var (
		rates  api.RateSource
		source api.PostSource
	)
	if cfg.PerDiemURL != "" {
		client := perdiem.NewClient(cfg.PerDiemURL, logger)
		rates, source = client, client
	}
	scheduler := api.NewPostRefreshScheduler(source, posts, logger)
	scheduler.CheckInterval = cfg.RefreshInterval
	scheduler.Start()
	defer scheduler.Stop()

	editor := medevac.NewEditor(seq, posts, time.Now)
	handler := api.NewHandler(store, editor, posts, rates, scheduler, logger)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr), zap.String("driver", cfg.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func openStore(cfg *config.Config, logger *zap.Logger) (caseStore, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), func() {}, nil
	case config.DriverPostgres:
		s, err := postgres.Open(cfg.DB, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, closer(s, logger), nil
	default:
		s, err := sqlite.New(cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return s, closer(s, logger), nil
	}
}

func closer(c io.Closer, logger *zap.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}
}
