package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"GeoCanvas-App/internal/domain/model"
	"GeoCanvas-App/internal/domain/repository"
	"GeoCanvas-App/internal/domain/service"
)

const chunkStatsTimeout = 5 * time.Second

// Broadcaster コミット済み配置を影響チャンクの購読者に配信する
type Broadcaster struct {
	hub           *Hub
	cache         *service.SpatialCache
	chunkStats    repository.ChunkStatsRepository // nil可（統計永続化なし）
	statsInterval time.Duration
}

// NewBroadcaster 新しいBroadcasterを作成
func NewBroadcaster(hub *Hub, cache *service.SpatialCache, chunkStats repository.ChunkStatsRepository, statsInterval time.Duration) *Broadcaster {
	return &Broadcaster{
		hub:           hub,
		cache:         cache,
		chunkStats:    chunkStats,
		statsInterval: statsInterval,
	}
}

// PlacementCommitted ストアへのコミット確定後に呼ばれる
// 影響チャンクのキャッシュを無効化し、そのチャンクの購読者にのみ
// pixel_placed を配信する。ペイロードはストアが返したコミット結果であり、
// 検証前のスナップショットから作ることはない
func (b *Broadcaster) PlacementCommitted(pixel *model.Pixel, originClientID string) {
	chunk := pixel.Chunk()
	b.cache.Invalidate(chunk)
	b.hub.AddPlacement()

	data, err := json.Marshal(model.PixelPlacedMessage{
		Type:  model.MessageTypePixelPlaced,
		Pixel: pixel,
	})
	if err != nil {
		log.Printf("❌ pixel_placedのJSONマーシャル失敗: %v", err)
		return
	}

	// 配信は購読者ごとに独立したベストエフォート。
	// 詰まったクライアントへの送信失敗が他の購読者を道連れにしない
	for _, sub := range b.hub.SubscribersOf(chunk) {
		if sub.ID == originClientID {
			continue
		}
		if !sub.Enqueue(data) {
			log.Printf("⚠️ 配信バッファ超過のためスキップ client=%s chunk=%s", sub.ID, chunk.Key())
		}
	}

	// チャンク統計の更新は配信と独立で、失敗しても配置には影響しない
	if b.chunkStats != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), chunkStatsTimeout)
			defer cancel()
			if err := b.chunkStats.IncrementPlacement(ctx, chunk, pixel.PlacedAt); err != nil {
				log.Printf("⚠️ チャンク統計の更新失敗 chunk=%s: %v", chunk.Key(), err)
			}
		}()
	}
}

// Stats 現在のサーバー統計を返す
func (b *Broadcaster) Stats() model.ServerStatsMessage {
	return model.ServerStatsMessage{
		Type:             model.MessageTypeServerStats,
		ConnectedClients: b.hub.ClientCount(),
		TotalPlacements:  b.hub.TotalPlacements(),
		ActiveChunks:     b.hub.ActiveChunkCount(),
		ServerTime:       time.Now().UnixMilli(),
	}
}

// RunStatsBroadcast 全クライアントへ定期的に server_stats を配信する
func (b *Broadcaster) RunStatsBroadcast(stop <-chan struct{}) {
	ticker := time.NewTicker(b.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			data, err := json.Marshal(b.Stats())
			if err != nil {
				log.Printf("❌ server_statsのJSONマーシャル失敗: %v", err)
				continue
			}
			for _, client := range b.hub.Clients() {
				client.Enqueue(data)
			}
		}
	}
}
