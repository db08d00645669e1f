package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"GeoCanvas-App/internal/domain/model"
	"GeoCanvas-App/internal/domain/repository"
)

// FirestoreChunkStatsRepository Firestoreを使ったチャンク配置カウンター
// チャンクは永続エンティティではなく、ここにはカウント・メタデータのみを置く
type FirestoreChunkStatsRepository struct {
	client *firestore.Client
}

func NewFirestoreChunkStatsRepository(client *firestore.Client) repository.ChunkStatsRepository {
	return &FirestoreChunkStatsRepository{
		client: client,
	}
}

// IncrementPlacement チャンクの配置カウンターを加算する
// ドキュメントIDはチャンクキー "x:y"。存在しなければ作成される
func (r *FirestoreChunkStatsRepository) IncrementPlacement(ctx context.Context, chunk model.ChunkCoord, placedAt time.Time) error {
	_, err := r.client.Collection("chunkStats").Doc(chunk.Key()).Set(ctx, map[string]interface{}{
		"chunk_x":         chunk.X,
		"chunk_y":         chunk.Y,
		"placement_count": firestore.Increment(1),
		"last_placed_at":  placedAt,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("チャンク %s のカウンター更新失敗: %w", chunk.Key(), err)
	}

	return nil
}
