package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type countingPersister struct {
	calls atomic.Int64
}

func (c *countingPersister) Persist(context.Context) error {
	c.calls.Add(1)
	return nil
}

func TestAutosavePersistsOnTick(t *testing.T) {
	persister := &countingPersister{}
	w := NewAutosaveWorker(persister, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return persister.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
