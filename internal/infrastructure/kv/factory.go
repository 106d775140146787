package kv

import (
	"fmt"

	"github.com/linkdeck/linkdeck/internal/domain/links"
	"github.com/linkdeck/linkdeck/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Factory creates link repositories backed by key-value stores.
// Relational backends (sqlite, postgres) are handled by the persistence
// package; this factory covers the memory and redis drivers.
type Factory struct {
	redisConfig         config.RedisConfig
	logger              *zap.Logger
	allowMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithMemoryFallback controls whether to fall back to the in-memory store
// when Redis is unavailable. Default is true (allow fallback).
func WithMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:         cfg,
		logger:              zap.NewNop(),
		allowMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisRepository creates a Redis-backed link repository
func (f *Factory) CreateRedisRepository() (links.LinkRepository, error) {
	repo, err := NewRedisLinkRepository(f.redisConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis link repository: %w", err)
	}
	return repo, nil
}

// CreateMemoryRepository creates an in-memory link repository.
// WARNING: state is process-local and lost on restart.
func (f *Factory) CreateMemoryRepository() links.LinkRepository {
	return NewMemoryLinkRepository()
}

// CreateRepository creates a link repository for the given driver.
// For the redis driver it tries Redis first and falls back to the in-memory
// store when Redis is unavailable and fallback is allowed.
func (f *Factory) CreateRepository(driver string) (links.LinkRepository, error) {
	switch driver {
	case config.StoreDriverMemory:
		f.logger.Info("using in-memory link store")
		return f.CreateMemoryRepository(), nil

	case config.StoreDriverRedis:
		repo, err := f.CreateRedisRepository()
		if err == nil {
			f.logger.Info("using Redis link store")
			return repo, nil
		}

		if !f.allowMemoryFallback {
			return nil, fmt.Errorf("Redis required for link store but unavailable: %w", err)
		}

		f.logger.Warn("Redis unavailable, falling back to in-memory link store. "+
			"Links will not survive a restart.",
			zap.Error(err),
		)
		return f.CreateMemoryRepository(), nil

	default:
		return nil, fmt.Errorf("kv factory does not support driver %q", driver)
	}
}
