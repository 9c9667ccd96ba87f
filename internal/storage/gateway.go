package storage

import (
	"context"
	"errors"
)

// ErrNotLoaded is returned by gateway operations before Init or Load succeeded.
var ErrNotLoaded = errors.New("storage not loaded")

// Gateway is a string key-value store for whole JSON records.
//
// Get reports found=false for a key that was never written; that is not an
// error. Backends are expected to make a single Set atomic, but nothing else:
// concurrent writers across processes are not coordinated.
type Gateway interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error

	// Utils
	GetConfigPath() string
}
