package repository

import (
	"context"
	"time"

	"GeoCanvas-App/internal/domain/model"
)

// PixelsRepository ピクセル永続化ストアのインターフェース
// Upsert は (grid_x, grid_y) の一意性制約を前提としたアトミックな
// insert-or-replace であり、同一セルへの同時書き込みの裁定はストア側が行う
type PixelsRepository interface {
	// GetByChunks 指定チャンク群に属する全ピクセルを取得する
	GetByChunks(ctx context.Context, chunks []model.ChunkCoord) ([]model.Pixel, error)

	// Upsert セルにピクセルを配置する。既存レコードがあれば色・所有者・時刻を置き換える。
	// 戻り値はストアがコミットした結果であり、ブロードキャストはこの値を使う
	Upsert(ctx context.Context, cell model.GridCoord, chunk model.ChunkCoord, color, ownerID string, placedAt time.Time) (*model.Pixel, error)
}
