package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/campus-hq/academics-api/pkg/errors"
)

type cacheBackend interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService wraps the redis cache with hit/miss instrumentation.
type CacheService struct {
	backend cacheBackend
	metrics *MetricsService
	logger  *zap.Logger
}

// NewCacheService constructs CacheService. metrics may be nil.
func NewCacheService(backend cacheBackend, metrics *MetricsService, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{backend: backend, metrics: metrics, logger: logger}
}

// Get reads a cached value, recording the lookup outcome.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	start := time.Now()
	err := s.backend.Get(ctx, key, dest)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, elapsed)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return err
	}
	s.metrics.RecordCacheOperation(true, elapsed)
	return nil
}

// Set writes a cached value.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return s.backend.Set(ctx, key, value, ttl)
}

// DeleteByPattern drops every key matching the pattern.
func (s *CacheService) DeleteByPattern(ctx context.Context, pattern string) error {
	return s.backend.DeleteByPattern(ctx, pattern)
}
