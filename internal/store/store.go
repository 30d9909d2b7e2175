package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when the slot has never been written.
// Callers treat it as "no prior state", not a failure.
var ErrNotFound = errors.New("store: slot not found")

// Store is a single keyed blob slot. Save is always a full-state
// overwrite; there is no incremental patching or merging.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}
