package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/registration-etl/pkg/errors"
)

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

func TestCacheServiceStudentIDRoundTrip(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)
	ctx := context.Background()

	_, hit := cache.LookupStudentID(ctx, "ada@example.com")
	assert.False(t, hit)

	cache.RememberStudentID(ctx, " ADA@example.com", 42)
	id, hit := cache.LookupStudentID(ctx, "ada@example.com")
	require.True(t, hit)
	assert.Equal(t, int64(42), id)

	require.NoError(t, cache.InvalidateRegistrations(ctx))
	_, hit = cache.LookupStudentID(ctx, "ada@example.com")
	assert.False(t, hit)
}

func TestCacheServiceForgetStudentID(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	ctx := context.Background()

	cache.RememberStudentID(ctx, "ada@example.com", 42)
	cache.RememberStudentID(ctx, "alan@example.com", 43)
	cache.ForgetStudentID(ctx, "Ada@Example.com")

	_, hit := cache.LookupStudentID(ctx, "ada@example.com")
	assert.False(t, hit)
	id, hit := cache.LookupStudentID(ctx, "alan@example.com")
	require.True(t, hit)
	assert.Equal(t, int64(43), id)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, 0, nil, false)
	ctx := context.Background()

	cache.RememberStudentID(ctx, "ada@example.com", 42)
	assert.Empty(t, repo.entries)
	_, hit := cache.LookupStudentID(ctx, "ada@example.com")
	assert.False(t, hit)

	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
}

func TestCacheServiceGetErrorIsMiss(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.getErr = errors.New("redis down")
	cache := NewCacheService(repo, nil, 0, nil, true)

	var id int64
	hit, err := cache.Get(context.Background(), RegistrationKey("a@x.com"), &id)
	assert.False(t, hit)
	assert.Error(t, err)

	_, ok := cache.LookupStudentID(context.Background(), "a@x.com")
	assert.False(t, ok)
}
