package realtime

import (
	"context"
	"sync"
	"testing"

	"GeoCanvas-App/internal/domain/model"
)

// fakeQueryUC スナップショット取得の呼び出しを観測するフェイク
type fakeQueryUC struct {
	mu          sync.Mutex
	calls       int
	hadDeadline bool
}

func (f *fakeQueryUC) GetPixelsForChunks(ctx context.Context, chunks []model.ChunkCoord) ([]model.Pixel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	_, f.hadDeadline = ctx.Deadline()
	return nil, nil
}

func (f *fakeQueryUC) GetPixelsInBounds(ctx context.Context, bounds model.Bounds) ([]model.Pixel, []model.ChunkCoord, error) {
	return nil, nil, nil
}

func TestClient_スナップショット取得は期限付きコンテキスト(t *testing.T) {
	hub, _ := newTestHub()
	query := &fakeQueryUC{}
	c := NewClient(hub, nil, &model.User{ID: "user-1"}, nil, query)
	hub.Register(c)

	c.applyViewport(0)

	query.mu.Lock()
	defer query.mu.Unlock()
	if query.calls != 1 {
		t.Fatalf("スナップショット取得の呼び出し回数が期待と異なります: %d", query.calls)
	}
	if !query.hadDeadline {
		t.Fatal("スナップショット取得のコンテキストに期限が設定されていません")
	}
}

func TestClient_Close後の保留処理は何もしない(t *testing.T) {
	hub, _ := newTestHub()
	query := &fakeQueryUC{}
	c := NewClient(hub, nil, &model.User{ID: "user-1"}, nil, query)
	hub.Register(c)

	c.Close()

	// Close前にスケジュールされていたデバウンス処理が遅れて走っても
	// ストア取得も再購読も起きない
	c.applyViewport(0)

	query.mu.Lock()
	calls := query.calls
	query.mu.Unlock()
	if calls != 0 {
		t.Fatalf("Close後にスナップショット取得が実行されました: %d", calls)
	}
	if hub.ActiveChunkCount() != 0 {
		t.Fatalf("Close後に購読が発生しました: %d", hub.ActiveChunkCount())
	}
}
