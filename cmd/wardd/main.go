package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/hospitalops/ward-api/internal/catalog"
	"github.com/hospitalops/ward-api/internal/config"
	"github.com/hospitalops/ward-api/internal/registry"
	"github.com/hospitalops/ward-api/internal/store"
	filestore "github.com/hospitalops/ward-api/internal/store/file"
	memorystore "github.com/hospitalops/ward-api/internal/store/memory"
	redisstore "github.com/hospitalops/ward-api/internal/store/redis"
	"github.com/hospitalops/ward-api/internal/worker"
	"github.com/hospitalops/ward-api/pkg/logger"
	"github.com/hospitalops/ward-api/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logg := logger.New(&logger.Config{Level: cfg.LogLevel})
	m := metrics.New("ward", prometheus.DefaultRegisterer)

	// Initialize persistence store
	st, closeStore, err := newStore(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer closeStore()

	// Initialize room catalog from the configured table
	cat, err := catalog.NewService(cfg.RoomTypes)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build room catalog")
	}

	reg := registry.NewService(cat, st, logg, m)

	// Restore persisted patients and reconcile room occupancy
	if err := reg.Load(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to restore persisted state")
	}

	for _, typeKey := range cat.Types() {
		stats, err := cat.Stats(typeKey)
		if err != nil {
			continue
		}
		logg.Info().
			Str("room_type", typeKey).
			Int("total", stats.Total).
			Int("occupied", stats.Occupied).
			Int("available", stats.Available).
			Msg("room type ready")
	}
	logg.Info().Int("patients", reg.Count()).Msg("registry restored")

	// Start autosave worker
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	autosave := worker.NewAutosaveWorker(reg, cfg.Autosave.Interval, logg)
	go autosave.Start(workerCtx)

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down...")
	cancelWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := reg.Persist(ctx); err != nil {
		log.Fatal().Err(err).Msg("final persist failed")
	}

	log.Info().Msg("state saved, exiting")
}

func newStore(cfg config.StorageConfig) (store.Store, func(), error) {
	switch cfg.Backend {
	case "file":
		return filestore.NewStore(cfg.FilePath), func() {}, nil
	case "redis":
		st, err := redisstore.NewStore(redisstore.Config{
			URL:        cfg.RedisURL,
			Key:        cfg.Key,
			MaxRetries: cfg.RedisRetries,
		})
		if err != nil {
			return nil, nil, err
		}
		return st, func() { st.Close() }, nil
	case "memory":
		return memorystore.NewStore(cfg.Key), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
