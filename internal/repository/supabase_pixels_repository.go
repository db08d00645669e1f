package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"GeoCanvas-App/internal/database"
	"GeoCanvas-App/internal/domain/model"
	"GeoCanvas-App/internal/domain/repository"
)

// SupabasePixelsRepository PostgREST経由のピクセルストア
// 直接PostgreSQL接続が使えない環境向けの代替バックエンド
type SupabasePixelsRepository struct {
	client *database.SupabaseClient
}

func NewSupabasePixelsRepository(client *database.SupabaseClient) repository.PixelsRepository {
	return &SupabasePixelsRepository{
		client: client,
	}
}

// GetByChunks 指定チャンク群に属する全ピクセルを取得する
// PostgRESTは複合キーのIN句を表現しにくいため、チャンクごとに取得して結合する
func (r *SupabasePixelsRepository) GetByChunks(ctx context.Context, chunks []model.ChunkCoord) ([]model.Pixel, error) {
	var pixels []model.Pixel

	for _, chunk := range chunks {
		data, count, err := r.client.GetClient().From("pixels").
			Select("*", "exact", false).
			Eq("chunk_x", strconv.Itoa(chunk.X)).
			Eq("chunk_y", strconv.Itoa(chunk.Y)).
			Execute()
		if err != nil {
			return nil, fmt.Errorf("チャンク %s のピクセル取得失敗: %w", chunk.Key(), err)
		}
		_ = count

		var chunkPixels []model.Pixel
		if err := json.Unmarshal([]byte(data), &chunkPixels); err != nil {
			return nil, fmt.Errorf("ピクセルデータのJSONアンマーシャル失敗: %w", err)
		}
		pixels = append(pixels, chunkPixels...)
	}

	return pixels, nil
}

// Upsert セルにピクセルを配置する
// on_conflict=grid_x,grid_y のUpsertでストア側が last-write-wins に裁定する
func (r *SupabasePixelsRepository) Upsert(ctx context.Context, cell model.GridCoord, chunk model.ChunkCoord, color, ownerID string, placedAt time.Time) (*model.Pixel, error) {
	pixel := model.Pixel{
		GridX:    cell.X,
		GridY:    cell.Y,
		ChunkX:   chunk.X,
		ChunkY:   chunk.Y,
		Color:    color,
		OwnerID:  ownerID,
		PlacedAt: placedAt,
	}

	payload, err := json.Marshal(pixel)
	if err != nil {
		return nil, fmt.Errorf("ピクセルデータのJSONマーシャル失敗: %w", err)
	}

	data, _, err := r.client.GetClient().From("pixels").
		Insert(string(payload), true, "grid_x,grid_y", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("ピクセルのUpsert失敗: %w", err)
	}

	var rows []model.Pixel
	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		return nil, fmt.Errorf("Upsert結果のJSONアンマーシャル失敗: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("Upsert結果が空です (%d, %d)", cell.X, cell.Y)
	}

	return &rows[0], nil
}
