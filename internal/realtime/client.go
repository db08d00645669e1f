package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"GeoCanvas-App/internal/domain/model"
	"GeoCanvas-App/internal/usecase"
)

const (
	writeWait        = 10 * time.Second
	sendBufferSize   = 64
	viewportDebounce = 200 * time.Millisecond
	snapshotTimeout  = 5 * time.Second
)

// Client 1本のWebSocket接続とその購読状態
// タイマーや購読集合はクロージャーではなく接続ごとの状態として明示的に持ち、
// デバウンスの取り消しは世代カウンターで表現する
type Client struct {
	ID   string
	User *model.User

	hub     *Hub
	conn    *websocket.Conn
	placeUC usecase.PlacePixelUseCase
	queryUC usecase.PixelsQueryUseCase

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	stateMu         sync.Mutex
	closed          bool
	chunks          map[model.ChunkCoord]struct{}
	viewportGen     int
	pendingViewport model.Viewport
	debounceTimer   *time.Timer
}

// NewClient 新しいクライアント接続を作成
func NewClient(hub *Hub, conn *websocket.Conn, user *model.User, placeUC usecase.PlacePixelUseCase, queryUC usecase.PixelsQueryUseCase) *Client {
	return &Client{
		ID:      uuid.New().String(),
		User:    user,
		hub:     hub,
		conn:    conn,
		placeUC: placeUC,
		queryUC: queryUC,
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
		chunks:  make(map[model.ChunkCoord]struct{}),
	}
}

// Run 接続のライフサイクルを実行する（読み取りループが終わるまでブロック）
func (c *Client) Run() {
	c.hub.Register(c)
	go c.writePump()

	c.readLoop()

	c.hub.Unregister(c)
	c.Close()
}

func (c *Client) readLoop() {
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg model.ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Printf("⚠️ 不正なメッセージを破棄 client=%s: %v", c.ID, err)
			continue
		}

		switch msg.Type {
		case model.MessageTypeSubscribeViewport:
			if msg.Bounds == nil {
				log.Printf("⚠️ boundsのないviewport購読を無視 client=%s", c.ID)
				continue
			}
			c.scheduleViewportUpdate(model.Viewport{Bounds: *msg.Bounds, Zoom: msg.Zoom})
		case model.MessageTypePlacePixel:
			c.handlePlacePixel(&msg)
		default:
			log.Printf("⚠️ 未知のメッセージタイプ %q client=%s", msg.Type, c.ID)
		}
	}
}

// scheduleViewportUpdate 表示領域の更新をデバウンスする
// ドラッグ中の連続イベントは静止期間の後に1回の再計算にまとめる。
// 新しいイベントは世代カウンターを進め、保留中の再計算を無効化する
func (c *Client) scheduleViewportUpdate(vp model.Viewport) {
	c.stateMu.Lock()
	c.viewportGen++
	gen := c.viewportGen
	c.pendingViewport = vp
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}
	c.debounceTimer = time.AfterFunc(viewportDebounce, func() {
		c.applyViewport(gen)
	})
	c.stateMu.Unlock()
}

func (c *Client) applyViewport(gen int) {
	c.stateMu.Lock()
	if c.closed || gen != c.viewportGen {
		// 切断済み、またはより新しい表示領域イベントに上書きされている
		c.stateMu.Unlock()
		return
	}
	vp := c.pendingViewport
	c.stateMu.Unlock()

	chunks := c.hub.UpdateViewport(c, vp)

	// ストアが詰まってもこの接続の読み取り処理を道連れにしない
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	pixels, err := c.queryUC.GetPixelsForChunks(ctx, chunks)
	if err != nil {
		log.Printf("❌ スナップショット取得失敗 client=%s: %v", c.ID, err)
		return
	}
	if pixels == nil {
		pixels = []model.Pixel{}
	}

	chunkIDs := make([]string, len(chunks))
	for i, chunk := range chunks {
		chunkIDs[i] = chunk.Key()
	}

	c.sendJSON(model.PixelsSnapshotMessage{
		Type:     model.MessageTypePixelsSnapshot,
		ChunkIDs: chunkIDs,
		Pixels:   pixels,
	})
}

func (c *Client) handlePlacePixel(msg *model.ClientMessage) {
	req := &model.PlacePixelRequest{
		Lat:   msg.Lat,
		Lng:   msg.Lng,
		GridX: msg.GridX,
		GridY: msg.GridY,
		Color: msg.Color,
	}

	pixel, perr := c.placeUC.Execute(context.Background(), c.ID, c.User, req)
	if perr != nil {
		c.sendJSON(model.PlacementRejectedMessage{
			Type:        model.MessageTypePlacementRejected,
			Reason:      perr.Reason,
			RemainingMs: perr.RemainingMs,
			Retryable:   perr.Retryable,
		})
		return
	}

	// 配置者本人には pixel_placed ではなく確認応答を返す
	c.sendJSON(model.PlacementConfirmedMessage{
		Type:  model.MessageTypePlacementConfirmed,
		Pixel: pixel,
	})
}

// Enqueue 送信キューへの非ブロッキング投入
// バッファが詰まっている（遅い）クライアントは待たずにfalseを返す
func (c *Client) Enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) sendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("❌ メッセージのJSONマーシャル失敗 client=%s: %v", c.ID, err)
		return
	}
	if !c.Enqueue(data) {
		log.Printf("⚠️ 送信バッファ超過のため破棄 client=%s", c.ID)
	}
}

func (c *Client) writePump() {
	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close 接続を閉じる（複数回呼んでも安全）
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.stateMu.Lock()
		c.closed = true
		c.viewportGen++
		if c.debounceTimer != nil {
			c.debounceTimer.Stop()
		}
		c.stateMu.Unlock()
		if c.conn != nil {
			c.conn.Close()
		}
	})
}
