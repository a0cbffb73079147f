package backend

import (
	"context"
	"fmt"

	"rewards/internal/log"
	"rewards/internal/storage"
	"rewards/internal/store/memory"
	"rewards/internal/store/seed"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDSN, storage.WithLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	seeded, err := seed.FromDir(ctx, seedDir(config), repo)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to seed SQLite backend: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"dsn", config.SQLiteDSN,
		"seed_directory", seedDir(config),
		"transactions", seeded)

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	st, err := memory.NewFromFiles(seedDir(config))
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory backend: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized memory backend",
		"seed_directory", seedDir(config),
		"transactions", st.Len())

	return &BackendResult{
		Store:   st,
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}

func seedDir(config Config) string {
	if config.SeedDirectory == "" {
		return "data"
	}
	return config.SeedDirectory
}
