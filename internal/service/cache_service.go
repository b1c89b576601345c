package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/registration-etl/pkg/errors"
)

// RegistrationCachePattern matches every registration lookup key.
const RegistrationCachePattern = "registration:*"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

// CacheService orchestrates cache operations and related metrics.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	removed, err := s.repo.DeleteByPattern(ctx, pattern)
	if err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	s.logger.Debug("cache invalidated", zap.String("pattern", pattern), zap.Int("removed", removed))
	return nil
}

// RegistrationKey is the cache key of the student id registered under email.
func RegistrationKey(email string) string {
	return "registration:student:" + strings.ToLower(strings.TrimSpace(email))
}

// LookupStudentID returns a cached student id. Cache errors count as a miss.
func (s *CacheService) LookupStudentID(ctx context.Context, email string) (int64, bool) {
	var id int64
	hit, err := s.Get(ctx, RegistrationKey(email), &id)
	if err != nil || !hit {
		return 0, false
	}
	return id, true
}

// RememberStudentID caches the id of a registered student.
func (s *CacheService) RememberStudentID(ctx context.Context, email string, id int64) {
	_ = s.Set(ctx, RegistrationKey(email), id, 0)
}

// ForgetStudentID drops the cached id of one student.
func (s *CacheService) ForgetStudentID(ctx context.Context, email string) {
	_ = s.Invalidate(ctx, RegistrationKey(email))
}

// InvalidateRegistrations drops every registration lookup, used after a batch
// reload renumbers the student table.
func (s *CacheService) InvalidateRegistrations(ctx context.Context) error {
	return s.Invalidate(ctx, RegistrationCachePattern)
}
