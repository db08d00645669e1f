package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"GeoCanvas-App/internal/domain/model"
	"GeoCanvas-App/internal/domain/repository"
)

// cacheEntry チャンク1件分のキャッシュ
type cacheEntry struct {
	pixels    []model.Pixel
	fetchedAt time.Time
}

// SpatialCache チャンク粒度のリードスルーキャッシュ
// TTLは明示的な無効化とは独立した安全網。コミット後は必ず Invalidate が
// 呼ばれるため、次の読み取りは新しい状態を反映する。
// 同一チャンクへの同時ミスは singleflight で1回の取得に集約する
type SpatialCache struct {
	repo  repository.PixelsRepository
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]*cacheEntry
	group singleflight.Group
}

// NewSpatialCache 指定TTLのキャッシュを作成
func NewSpatialCache(repo repository.PixelsRepository, ttl time.Duration) *SpatialCache {
	return &SpatialCache{
		repo:  repo,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]*cacheEntry),
	}
}

// lookup 有効なキャッシュエントリを探す
func (c *SpatialCache) lookup(key string) ([]model.Pixel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	return e.pixels, true
}

// GetChunk チャンクのピクセル一覧を取得する（ミス時はストアから補充）
func (c *SpatialCache) GetChunk(ctx context.Context, chunk model.ChunkCoord) ([]model.Pixel, error) {
	key := chunk.Key()
	if pixels, ok := c.lookup(key); ok {
		return pixels, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Doの待機中に先行フライトが埋めた場合はそれを使う
		if pixels, ok := c.lookup(key); ok {
			return pixels, nil
		}

		pixels, err := c.repo.GetByChunks(ctx, []model.ChunkCoord{chunk})
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.items[key] = &cacheEntry{pixels: pixels, fetchedAt: c.now()}
		c.mu.Unlock()
		return pixels, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Pixel), nil
}

// GetChunks 複数チャンクのピクセルをまとめて取得する
func (c *SpatialCache) GetChunks(ctx context.Context, chunks []model.ChunkCoord) ([]model.Pixel, error) {
	var pixels []model.Pixel
	for _, chunk := range chunks {
		chunkPixels, err := c.GetChunk(ctx, chunk)
		if err != nil {
			return nil, err
		}
		pixels = append(pixels, chunkPixels...)
	}
	return pixels, nil
}

// Invalidate TTLに関係なくチャンクのエントリを即座に破棄する
// コミット済みの書き込みごとに呼ばれる
func (c *SpatialCache) Invalidate(chunk model.ChunkCoord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, chunk.Key())
}

// EntryCount 現在のキャッシュエントリ数（診断用）
func (c *SpatialCache) EntryCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
