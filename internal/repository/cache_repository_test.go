package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/registration-etl/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var id int64
	assert.ErrorIs(t, repo.Get(ctx, "registration:student:a@x.com", &id), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Set(ctx, "registration:student:a@x.com", int64(7), time.Minute))

	removed, err := repo.DeleteByPattern(ctx, "registration:*")
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.NoError(t, repo.Ping(ctx))
	assert.NoError(t, repo.Close())
}
