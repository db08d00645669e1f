package repository

import (
	"context"
	"sync"
	"time"

	"GeoCanvas-App/internal/domain/model"
	"GeoCanvas-App/internal/domain/repository"
)

// MemoryPixelsRepository テスト・ローカル開発用のインメモリピクセルストア
// (grid_x, grid_y) をマップキーにすることでセルごとの一意性を保証する
type MemoryPixelsRepository struct {
	mu     sync.RWMutex
	pixels map[model.GridCoord]model.Pixel

	// ForcedErr 設定するとすべての操作がこのエラーで失敗する（障害試験用）
	ForcedErr error
}

func NewMemoryPixelsRepository() *MemoryPixelsRepository {
	return &MemoryPixelsRepository{
		pixels: make(map[model.GridCoord]model.Pixel),
	}
}

var _ repository.PixelsRepository = (*MemoryPixelsRepository)(nil)

func (r *MemoryPixelsRepository) GetByChunks(ctx context.Context, chunks []model.ChunkCoord) ([]model.Pixel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.ForcedErr != nil {
		return nil, r.ForcedErr
	}

	wanted := make(map[model.ChunkCoord]struct{}, len(chunks))
	for _, chunk := range chunks {
		wanted[chunk] = struct{}{}
	}

	var pixels []model.Pixel
	for _, p := range r.pixels {
		if _, ok := wanted[p.Chunk()]; ok {
			pixels = append(pixels, p)
		}
	}
	return pixels, nil
}

func (r *MemoryPixelsRepository) Upsert(ctx context.Context, cell model.GridCoord, chunk model.ChunkCoord, color, ownerID string, placedAt time.Time) (*model.Pixel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ForcedErr != nil {
		return nil, r.ForcedErr
	}

	pixel := model.Pixel{
		GridX:    cell.X,
		GridY:    cell.Y,
		ChunkX:   chunk.X,
		ChunkY:   chunk.Y,
		Color:    color,
		OwnerID:  ownerID,
		PlacedAt: placedAt,
	}
	r.pixels[cell] = pixel

	committed := pixel
	return &committed, nil
}

// Count 保存されているピクセル数（テスト用）
func (r *MemoryPixelsRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pixels)
}

// Get 指定セルのピクセルを取得（テスト用）
func (r *MemoryPixelsRepository) Get(cell model.GridCoord) (model.Pixel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pixels[cell]
	return p, ok
}
