// Package backend opens the quad store named by the configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360studio/semprov/config"
	"github.com/c360studio/semprov/storage"
	"github.com/c360studio/semprov/storage/badger"
	"github.com/c360studio/semprov/storage/memory"
	"github.com/c360studio/semprov/storage/natskv"
	"github.com/c360studio/semprov/storage/sqlite"
)

// Open opens the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (storage.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("backend", cfg.Backend))

	switch storage.Backend(cfg.Backend) {
	case storage.BackendMemory:
		return memory.New(), nil

	case storage.BackendBadger:
		bc := badger.DefaultConfig()
		bc.Path = cfg.Path
		bc.SyncWrites = cfg.Sync()
		bc.GCInterval = cfg.GCInterval
		bc.Logger = logger
		s, err := badger.Open(bc)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return s, nil

	case storage.BackendSQLite:
		s, err := sqlite.Open(ctx, cfg.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil

	case storage.BackendNATS:
		s, err := natskv.Connect(ctx, cfg.NATS.URL, cfg.NATS.Bucket, logger)
		if err != nil {
			return nil, fmt.Errorf("open nats store: %w", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownBackend, cfg.Backend)
	}
}
