package realtime

import (
	"hash/fnv"
	"sync"
	"sync/atomic"

	"GeoCanvas-App/internal/domain/model"
	"GeoCanvas-App/internal/domain/service"
)

// ファンアウトの幅が支配的なため、チャンク→購読者の逆引きインデックスは
// 単一のグローバルロックではなくキー単位のシャードで保護する
const subscriberShardCount = 32

// subscriberShard 逆引きインデックスの1シャード
type subscriberShard struct {
	mu   sync.RWMutex
	subs map[model.ChunkCoord]map[string]*Client
}

// Hub 接続中クライアントとチャンク購読状態の所有者
// 購読の逆引きインデックスを変更できるのはHubの操作のみ。
// グローバル変数ではなく、サーバー起動時に生成して各ハンドラーに注入する
type Hub struct {
	grid    *service.GridService
	minZoom int

	clientsMu sync.RWMutex
	clients   map[string]*Client

	shards [subscriberShardCount]*subscriberShard

	totalPlacements atomic.Int64
}

// NewHub 新しいHubを作成
func NewHub(grid *service.GridService, minZoom int) *Hub {
	h := &Hub{
		grid:    grid,
		minZoom: minZoom,
		clients: make(map[string]*Client),
	}
	for i := range h.shards {
		h.shards[i] = &subscriberShard{
			subs: make(map[model.ChunkCoord]map[string]*Client),
		}
	}
	return h
}

func (h *Hub) shardFor(chunk model.ChunkCoord) *subscriberShard {
	hasher := fnv.New32a()
	hasher.Write([]byte(chunk.Key()))
	return h.shards[hasher.Sum32()%subscriberShardCount]
}

// Register クライアントを接続中として登録する
func (h *Hub) Register(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	h.clients[c.ID] = c
}

// Unregister クライアントを切断状態にする
// 購読していた全チャンクの逆引きエントリから取り除き、
// 購読者がいなくなったチャンクのエントリは削除する
// （キャッシュエントリの寿命は購読者の有無とは独立）
func (h *Hub) Unregister(c *Client) {
	h.clientsMu.Lock()
	delete(h.clients, c.ID)
	h.clientsMu.Unlock()

	// 閉鎖マークと世代の無効化を購読集合のドレインより先に行う。
	// 実行中のデバウンスコールバックが逆引きインデックスへ
	// 死んだクライアントを再登録できないようにする
	c.stateMu.Lock()
	c.closed = true
	c.viewportGen++
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}
	chunks := make([]model.ChunkCoord, 0, len(c.chunks))
	for chunk := range c.chunks {
		chunks = append(chunks, chunk)
	}
	c.chunks = make(map[model.ChunkCoord]struct{})
	c.stateMu.Unlock()

	for _, chunk := range chunks {
		h.unsubscribe(chunk, c.ID)
	}
}

// UpdateViewport クライアントの表示領域から購読チャンク集合を再計算する
// ズームが閾値未満なら空集合（世界全体の俯瞰中は購読テーブルを成長させない）。
// 現在の集合との差分のみを逆引きインデックスに適用するため、
// 同じ表示領域の再適用は何もしない（冪等）
func (h *Hub) UpdateViewport(c *Client, vp model.Viewport) []model.ChunkCoord {
	var target []model.ChunkCoord
	if vp.Zoom >= h.minZoom {
		target = h.grid.ChunksInBounds(vp.Bounds)
	}

	targetSet := make(map[model.ChunkCoord]struct{}, len(target))
	for _, chunk := range target {
		targetSet[chunk] = struct{}{}
	}

	var added, removed []model.ChunkCoord

	c.stateMu.Lock()
	if c.closed {
		// Unregister済みのクライアントを再購読させない
		c.stateMu.Unlock()
		return nil
	}
	for chunk := range c.chunks {
		if _, ok := targetSet[chunk]; !ok {
			removed = append(removed, chunk)
			delete(c.chunks, chunk)
		}
	}
	for chunk := range targetSet {
		if _, ok := c.chunks[chunk]; !ok {
			added = append(added, chunk)
			c.chunks[chunk] = struct{}{}
		}
	}
	c.stateMu.Unlock()

	for _, chunk := range removed {
		h.unsubscribe(chunk, c.ID)
	}
	for _, chunk := range added {
		h.subscribe(chunk, c)
	}

	return target
}

func (h *Hub) subscribe(chunk model.ChunkCoord, c *Client) {
	shard := h.shardFor(chunk)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	set, ok := shard.subs[chunk]
	if !ok {
		set = make(map[string]*Client)
		shard.subs[chunk] = set
	}
	set[c.ID] = c
}

func (h *Hub) unsubscribe(chunk model.ChunkCoord, clientID string) {
	shard := h.shardFor(chunk)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	set, ok := shard.subs[chunk]
	if !ok {
		return
	}
	delete(set, clientID)
	if len(set) == 0 {
		delete(shard.subs, chunk)
	}
}

// SubscribersOf チャンクの現在の購読者一覧を返す
func (h *Hub) SubscribersOf(chunk model.ChunkCoord) []*Client {
	shard := h.shardFor(chunk)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	set := shard.subs[chunk]
	subscribers := make([]*Client, 0, len(set))
	for _, c := range set {
		subscribers = append(subscribers, c)
	}
	return subscribers
}

// ChunksOf クライアントの現在の購読チャンク集合を返す（診断・テスト用）
func (h *Hub) ChunksOf(c *Client) []model.ChunkCoord {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	chunks := make([]model.ChunkCoord, 0, len(c.chunks))
	for chunk := range c.chunks {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// Clients 接続中クライアントのスナップショットを返す
func (h *Hub) Clients() []*Client {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

// ClientCount 接続中クライアント数
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// ActiveChunkCount 購読者が存在するチャンク数
func (h *Hub) ActiveChunkCount() int {
	count := 0
	for _, shard := range h.shards {
		shard.mu.RLock()
		count += len(shard.subs)
		shard.mu.RUnlock()
	}
	return count
}

// AddPlacement 配置総数カウンターを加算する
func (h *Hub) AddPlacement() {
	h.totalPlacements.Add(1)
}

// TotalPlacements プロセス開始以降の配置総数
func (h *Hub) TotalPlacements() int64 {
	return h.totalPlacements.Load()
}
