package usecase

import (
	"context"
	"fmt"

	"GeoCanvas-App/internal/domain/model"
	"GeoCanvas-App/internal/domain/service"
)

type PixelsQueryUseCase interface {
	// GetPixelsForChunks 指定チャンク群の現在のピクセルをキャッシュ経由で取得する
	GetPixelsForChunks(ctx context.Context, chunks []model.ChunkCoord) ([]model.Pixel, error)

	// GetPixelsInBounds 表示領域と交差するチャンク群のピクセルを取得する
	GetPixelsInBounds(ctx context.Context, bounds model.Bounds) ([]model.Pixel, []model.ChunkCoord, error)
}

// pixelsQueryUseCaseImpl はPixelsQueryUseCaseの実装
type pixelsQueryUseCaseImpl struct {
	grid  *service.GridService
	cache *service.SpatialCache
}

// NewPixelsQueryUseCase 新しいPixelsQueryUseCaseインスタンスを作成
func NewPixelsQueryUseCase(grid *service.GridService, cache *service.SpatialCache) PixelsQueryUseCase {
	return &pixelsQueryUseCaseImpl{
		grid:  grid,
		cache: cache,
	}
}

func (u *pixelsQueryUseCaseImpl) GetPixelsForChunks(ctx context.Context, chunks []model.ChunkCoord) ([]model.Pixel, error) {
	pixels, err := u.cache.GetChunks(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("チャンクピクセルの取得失敗: %w", err)
	}
	return pixels, nil
}

func (u *pixelsQueryUseCaseImpl) GetPixelsInBounds(ctx context.Context, bounds model.Bounds) ([]model.Pixel, []model.ChunkCoord, error) {
	chunks := u.grid.ChunksInBounds(bounds)
	pixels, err := u.GetPixelsForChunks(ctx, chunks)
	if err != nil {
		return nil, nil, err
	}
	return pixels, chunks, nil
}
