package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"GeoCanvas-App/internal/domain/model"
	"GeoCanvas-App/internal/domain/repository"
	"GeoCanvas-App/internal/infrastructure/database"
)

type PostgresPixelsRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresPixelsRepository(client *database.PostgreSQLClient) repository.PixelsRepository {
	return &PostgresPixelsRepository{
		client: client,
	}
}

const pixelColumns = `grid_x, grid_y, chunk_x, chunk_y, color, owner_id, placed_at`

// GetByChunks 指定チャンク群に属する全ピクセルを取得する
// chunk_x/chunk_y は非正規化カラムで、(chunk_x, chunk_y) の複合インデックスを使う
func (r *PostgresPixelsRepository) GetByChunks(ctx context.Context, chunks []model.ChunkCoord) ([]model.Pixel, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	clauses := make([]string, 0, len(chunks))
	args := make([]interface{}, 0, len(chunks)*2)
	for i, chunk := range chunks {
		clauses = append(clauses, fmt.Sprintf("(chunk_x = $%d AND chunk_y = $%d)", i*2+1, i*2+2))
		args = append(args, chunk.X, chunk.Y)
	}

	query := fmt.Sprintf(`SELECT %s FROM pixels WHERE %s`, pixelColumns, strings.Join(clauses, " OR "))

	rows, err := r.client.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("チャンク内ピクセルの取得失敗: %w", err)
	}
	defer rows.Close()

	var pixels []model.Pixel
	for rows.Next() {
		var p model.Pixel
		if err := rows.Scan(&p.GridX, &p.GridY, &p.ChunkX, &p.ChunkY, &p.Color, &p.OwnerID, &p.PlacedAt); err != nil {
			return nil, fmt.Errorf("ピクセルデータスキャンエラー: %w", err)
		}
		pixels = append(pixels, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("行イテレーション中のエラー: %w", err)
	}

	return pixels, nil
}

// Upsert セルにピクセルを配置する
// (grid_x, grid_y) の一意性制約を使ったアトミックなinsert-or-replaceであり、
// 同一セルへの同時書き込みはストア側で last-write-wins に裁定される。
// RETURNING でコミット結果をそのまま返す
func (r *PostgresPixelsRepository) Upsert(ctx context.Context, cell model.GridCoord, chunk model.ChunkCoord, color, ownerID string, placedAt time.Time) (*model.Pixel, error) {
	query := fmt.Sprintf(`
		INSERT INTO pixels (grid_x, grid_y, chunk_x, chunk_y, color, owner_id, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (grid_x, grid_y) DO UPDATE SET
			color = EXCLUDED.color,
			owner_id = EXCLUDED.owner_id,
			placed_at = EXCLUDED.placed_at
		RETURNING %s
	`, pixelColumns)

	row := r.client.DB.QueryRowContext(ctx, query, cell.X, cell.Y, chunk.X, chunk.Y, color, ownerID, placedAt)

	var p model.Pixel
	if err := row.Scan(&p.GridX, &p.GridY, &p.ChunkX, &p.ChunkY, &p.Color, &p.OwnerID, &p.PlacedAt); err != nil {
		return nil, fmt.Errorf("ピクセルのUpsert失敗: %w", err)
	}

	return &p, nil
}
