package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"GeoCanvas-App/internal/domain/model"
	"GeoCanvas-App/internal/domain/service"
)

// fakePixelsRepo 配信テスト用の空ストア
type fakePixelsRepo struct{}

func (fakePixelsRepo) GetByChunks(ctx context.Context, chunks []model.ChunkCoord) ([]model.Pixel, error) {
	return nil, nil
}

func (fakePixelsRepo) Upsert(ctx context.Context, cell model.GridCoord, chunk model.ChunkCoord, color, ownerID string, placedAt time.Time) (*model.Pixel, error) {
	return nil, nil
}

// recv 送信キューから1件取り出す（空ならfalse）
func recv(c *Client) ([]byte, bool) {
	select {
	case data := <-c.send:
		return data, true
	default:
		return nil, false
	}
}

func TestBroadcaster_PlacementCommitted(t *testing.T) {
	hub, grid := newTestHub()
	cache := service.NewSpatialCache(fakePixelsRepo{}, time.Minute)
	broadcaster := NewBroadcaster(hub, cache, nil, time.Minute)

	origin := newTestClient(hub)
	watcher := newTestClient(hub)
	elsewhere := newTestClient(hub)

	chunkA := model.ChunkCoord{X: 3, Y: 3}
	chunkB := model.ChunkCoord{X: 9, Y: 9}

	hub.UpdateViewport(origin, model.Viewport{Bounds: chunkBounds(grid, chunkA, chunkA), Zoom: 15})
	hub.UpdateViewport(watcher, model.Viewport{Bounds: chunkBounds(grid, chunkA, chunkA), Zoom: 15})
	hub.UpdateViewport(elsewhere, model.Viewport{Bounds: chunkBounds(grid, chunkB, chunkB), Zoom: 15})

	pixel := &model.Pixel{
		GridX:    3*model.DefaultChunkSize + 10,
		GridY:    3*model.DefaultChunkSize + 10,
		ChunkX:   3,
		ChunkY:   3,
		Color:    "#FF0000",
		OwnerID:  origin.User.ID,
		PlacedAt: time.Now(),
	}
	broadcaster.PlacementCommitted(pixel, origin.ID)

	// 同じチャンクを購読する別クライアントには配信される
	data, ok := recv(watcher)
	if !ok {
		t.Fatal("購読者にpixel_placedが配信されませんでした")
	}
	var placed model.PixelPlacedMessage
	if err := json.Unmarshal(data, &placed); err != nil {
		t.Fatalf("配信メッセージの解析失敗: %v", err)
	}
	if placed.Type != model.MessageTypePixelPlaced {
		t.Fatalf("メッセージタイプが期待と異なります: %s", placed.Type)
	}
	if placed.Pixel == nil || placed.Pixel.GridX != pixel.GridX || placed.Pixel.Color != pixel.Color {
		t.Fatalf("配信ペイロードが期待と異なります: %+v", placed.Pixel)
	}

	// 配置者本人には配信しない（確認応答は別経路）
	if _, ok := recv(origin); ok {
		t.Fatal("配置者本人にpixel_placedが配信されました")
	}

	// 別チャンクの購読者には配信しない
	if _, ok := recv(elsewhere); ok {
		t.Fatal("無関係なチャンクの購読者に配信されました")
	}

	if hub.TotalPlacements() != 1 {
		t.Fatalf("配置総数が加算されていません: %d", hub.TotalPlacements())
	}
}

func TestBroadcaster_詰まったクライアントをスキップ(t *testing.T) {
	hub, grid := newTestHub()
	cache := service.NewSpatialCache(fakePixelsRepo{}, time.Minute)
	broadcaster := NewBroadcaster(hub, cache, nil, time.Minute)

	slow := newTestClient(hub)
	healthy := newTestClient(hub)

	chunk := model.ChunkCoord{X: 3, Y: 3}
	bounds := chunkBounds(grid, chunk, chunk)
	hub.UpdateViewport(slow, model.Viewport{Bounds: bounds, Zoom: 15})
	hub.UpdateViewport(healthy, model.Viewport{Bounds: bounds, Zoom: 15})

	// slowの送信バッファを満杯にする
	for slow.Enqueue([]byte("{}")) {
	}

	pixel := &model.Pixel{
		GridX:    3*model.DefaultChunkSize + 1,
		GridY:    3*model.DefaultChunkSize + 1,
		ChunkX:   3,
		ChunkY:   3,
		Color:    "#FF0000",
		OwnerID:  "user-x",
		PlacedAt: time.Now(),
	}

	// 満杯のクライアントがいてもブロックせずに戻り、健全な購読者へは届く
	done := make(chan struct{})
	go func() {
		broadcaster.PlacementCommitted(pixel, "other-client")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("詰まったクライアントへの配信でブロックしました")
	}

	if _, ok := recv(healthy); !ok {
		t.Fatal("健全な購読者に配信されませんでした")
	}
}

func TestBroadcaster_キャッシュ無効化(t *testing.T) {
	hub, _ := newTestHub()
	cache := service.NewSpatialCache(fakePixelsRepo{}, time.Hour)
	broadcaster := NewBroadcaster(hub, cache, nil, time.Minute)

	chunk := model.ChunkCoord{X: 3, Y: 3}
	if _, err := cache.GetChunk(context.Background(), chunk); err != nil {
		t.Fatalf("キャッシュの事前取得失敗: %v", err)
	}
	if cache.EntryCount() != 1 {
		t.Fatalf("キャッシュエントリ数が期待と異なります: %d", cache.EntryCount())
	}

	pixel := &model.Pixel{ChunkX: 3, ChunkY: 3, Color: "#FF0000", PlacedAt: time.Now()}
	broadcaster.PlacementCommitted(pixel, "origin")

	// コミット後はTTLに関係なくエントリが破棄される
	if cache.EntryCount() != 0 {
		t.Fatalf("コミット後もキャッシュが残っています: %d", cache.EntryCount())
	}
}

func TestBroadcaster_Stats(t *testing.T) {
	hub, grid := newTestHub()
	cache := service.NewSpatialCache(fakePixelsRepo{}, time.Minute)
	broadcaster := NewBroadcaster(hub, cache, nil, time.Minute)

	c := newTestClient(hub)
	chunk := model.ChunkCoord{X: 3, Y: 3}
	hub.UpdateViewport(c, model.Viewport{Bounds: chunkBounds(grid, chunk, chunk), Zoom: 15})
	hub.AddPlacement()

	stats := broadcaster.Stats()
	if stats.Type != model.MessageTypeServerStats {
		t.Fatalf("メッセージタイプが期待と異なります: %s", stats.Type)
	}
	if stats.ConnectedClients != 1 {
		t.Fatalf("接続数が期待と異なります: %d", stats.ConnectedClients)
	}
	if stats.TotalPlacements != 1 {
		t.Fatalf("配置総数が期待と異なります: %d", stats.TotalPlacements)
	}
	if stats.ActiveChunks != 1 {
		t.Fatalf("アクティブチャンク数が期待と異なります: %d", stats.ActiveChunks)
	}
}
