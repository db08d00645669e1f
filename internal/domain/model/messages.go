package model

// WebSocketメッセージのタイプ
const (
	MessageTypeSubscribeViewport  = "subscribe_viewport"
	MessageTypePlacePixel         = "place_pixel"
	MessageTypePixelsSnapshot     = "pixels_snapshot"
	MessageTypePlacementConfirmed = "placement_confirmed"
	MessageTypePlacementRejected  = "placement_rejected"
	MessageTypePixelPlaced        = "pixel_placed"
	MessageTypeServerStats        = "server_stats"
)

// ClientMessage クライアント→サーバーのWebSocketメッセージ
type ClientMessage struct {
	Type   string  `json:"type"`
	Bounds *Bounds `json:"bounds,omitempty"`
	Zoom   int     `json:"zoom,omitempty"`
	Lat    float64 `json:"lat,omitempty"`
	Lng    float64 `json:"lng,omitempty"`
	GridX  *int    `json:"grid_x,omitempty"`
	GridY  *int    `json:"grid_y,omitempty"`
	Color  string  `json:"color,omitempty"`
}

// PixelsSnapshotMessage 購読チャンクの現在のピクセル一覧
type PixelsSnapshotMessage struct {
	Type     string   `json:"type"`
	ChunkIDs []string `json:"chunk_ids"`
	Pixels   []Pixel  `json:"pixels"`
}

// PlacementConfirmedMessage 配置成功の確認（配置者本人のみに送る）
type PlacementConfirmedMessage struct {
	Type  string `json:"type"`
	Pixel *Pixel `json:"pixel"`
}

// PlacementRejectedMessage 配置拒否の通知
type PlacementRejectedMessage struct {
	Type        string `json:"type"`
	Reason      string `json:"reason"`
	RemainingMs int64  `json:"remaining_ms,omitempty"`
	Retryable   bool   `json:"retryable,omitempty"`
}

// PixelPlacedMessage 影響チャンクの購読者への配置通知
type PixelPlacedMessage struct {
	Type  string `json:"type"`
	Pixel *Pixel `json:"pixel"`
}

// ServerStatsMessage 定期配信するサーバー統計
type ServerStatsMessage struct {
	Type             string `json:"type"`
	ConnectedClients int    `json:"connected_clients"`
	TotalPlacements  int64  `json:"total_placements"`
	ActiveChunks     int    `json:"active_chunks"`
	ServerTime       int64  `json:"server_time"`
}
