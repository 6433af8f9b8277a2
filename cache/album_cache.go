package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"VinylShop/logger"
	"VinylShop/model"

	"github.com/redis/go-redis/v9"
)

const catalogKey = "vinylshop:catalog:albums"

// AlbumCache 缓存完整的专辑目录快照，任何写操作后失效
// A nil *AlbumCache is valid and always misses.
type AlbumCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewAlbumCache creates a cache entry with the given lifetime.
func NewAlbumCache(client redis.Cmdable, ttl time.Duration) *AlbumCache {
	return &AlbumCache{client: client, ttl: ttl}
}

// Get returns the cached catalog; ok is false on a miss.
func (c *AlbumCache) Get(ctx context.Context) (albums []model.Album, ok bool, err error) {
	if c == nil {
		return nil, false, nil
	}

	data, err := c.client.Get(ctx, catalogKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read catalog cache: %w", err)
	}

	if err := json.Unmarshal(data, &albums); err != nil {
		// 缓存内容损坏时直接删除，按未命中处理
		logger.Warn("[Cache] 目录缓存解析失败，已删除", logger.ErrorField(err))
		_ = c.client.Del(ctx, catalogKey).Err()
		return nil, false, nil
	}
	return albums, true, nil
}

// Set stores the catalog snapshot.
func (c *AlbumCache) Set(ctx context.Context, albums []model.Album) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(albums)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := c.client.Set(ctx, catalogKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write catalog cache: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot so the next read goes to the database.
func (c *AlbumCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, catalogKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}
	return nil
}
