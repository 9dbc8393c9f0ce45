package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipebox/backend/internal/service"
	"github.com/pageza/recipebox/backend/internal/storage"
	"github.com/pageza/recipebox/backend/internal/testhelpers"
)

func exerciseDraftBackend(t *testing.T, backend service.DraftBackend) {
	ctx := context.Background()

	_, found, err := backend.Get(ctx, "recipe:draft:missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, backend.Set(ctx, "recipe:draft:1", []byte(`{"title":"x"}`), time.Hour))
	value, found, err := backend.Get(ctx, "recipe:draft:1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"title":"x"}`, string(value))

	require.NoError(t, backend.Del(ctx, "recipe:draft:1"))
	_, found, err = backend.Get(ctx, "recipe:draft:1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryDraftBackend(t *testing.T) {
	exerciseDraftBackend(t, storage.NewMemoryDraftBackend())
}

func TestMemoryDraftBackendExpiry(t *testing.T) {
	backend := storage.NewMemoryDraftBackend()
	ctx := context.Background()
	now := time.Now()
	backend.SetClock(func() time.Time { return now })

	require.NoError(t, backend.Set(ctx, "k", []byte("v"), time.Minute))
	_, found, _ := backend.Get(ctx, "k")
	assert.True(t, found)

	now = now.Add(time.Minute)
	_, found, _ = backend.Get(ctx, "k")
	assert.False(t, found)
}

func TestRedisDraftBackend(t *testing.T) {
	client := testhelpers.StartRedis(t)
	ctx := context.Background()

	backend := storage.NewRedisDraftBackend(client)
	exerciseDraftBackend(t, backend)

	require.NoError(t, backend.Set(ctx, "recipe:draft:ttl", []byte("v"), time.Hour))
	ttl, err := client.TTL(ctx, "recipe:draft:ttl").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
}
