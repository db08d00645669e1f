package repository

import (
	"context"
	"time"

	"GeoCanvas-App/internal/domain/model"
)

// ChunkStatsRepository チャンク単位の配置カウンター（メタデータキャッシュ）
// チャンク自体は永続エンティティではないため、カウント・最終配置時刻のみを保持する
type ChunkStatsRepository interface {
	// IncrementPlacement 指定チャンクの配置カウンターを加算する
	IncrementPlacement(ctx context.Context, chunk model.ChunkCoord, placedAt time.Time) error
}
