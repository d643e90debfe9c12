// Package repository persists registry snapshots. Each backend stores the
// whole ordered task list and returns it unchanged on load.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/nadmax/feedme/internal/config"
	"github.com/nadmax/feedme/internal/registry"
)

var (
	ErrSnapshotNotFound  = errors.New("snapshot not found")
	ErrSnapshotMalformed = errors.New("snapshot malformed")
)

type SnapshotRepository interface {
	Load(ctx context.Context) (registry.Snapshot, error)
	Save(ctx context.Context, s registry.Snapshot) error
	Close() error
}

// New opens the backend selected by cfg.Store.Backend.
func New(ctx context.Context, cfg *config.Config) (SnapshotRepository, error) {
	switch cfg.Store.Backend {
	case config.BackendFile:
		return NewFileRepository(cfg.SnapshotPath())
	case config.BackendRedis:
		return NewRedisRepository(ctx, cfg.Store.RedisAddr, cfg.Store.RedisKey)
	case config.BackendPostgres:
		repo, err := NewPostgresRepository(cfg.Store.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
