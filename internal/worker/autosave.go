package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Persister is the slice of the registry the autosave worker needs.
type Persister interface {
	Persist(ctx context.Context) error
}

// AutosaveWorker writes the registry state to the store on a fixed cadence,
// whether or not anything changed. The registry serializes these writes
// behind the same lock as its mutations, so a tick can never interleave
// with a half-applied admission.
type AutosaveWorker struct {
	registry Persister
	interval time.Duration
	logger   zerolog.Logger
}

func NewAutosaveWorker(registry Persister, interval time.Duration, logger zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		registry: registry,
		interval: interval,
		logger:   logger,
	}
}

func (w *AutosaveWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.registry.Persist(ctx); err != nil {
				// Log error but continue
				w.logger.Error().Err(err).Msg("autosave failed")
			}
		}
	}
}
