package cache

import (
	"context"
	"testing"
	"time"

	"VinylShop/model"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlbumCache_NilIsAMiss(t *testing.T) {
	var c *AlbumCache
	ctx := context.Background()

	albums, ok, err := c.Get(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, albums)

	assert.NoError(t, c.Set(ctx, []model.Album{{Title: "Bad"}}))
	assert.NoError(t, c.Invalidate(ctx))
}

func TestAlbumCache_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := NewAlbumCache(client, time.Minute)

	_, ok, err := c.Get(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.Set(context.Background(), nil))
	assert.Error(t, c.Invalidate(context.Background()))
}
