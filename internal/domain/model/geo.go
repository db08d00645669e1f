package model

import "strconv"

// Location 緯度経度の座標（度単位）
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GridCoord 世界グリッド上のセル座標（左上原点、Yは南向きに増加する画像座標系）
type GridCoord struct {
	X int `json:"grid_x"`
	Y int `json:"grid_y"`
}

// ChunkCoord チャンク座標（ChunkSize×ChunkSizeセルの集約単位）
// チャンクはキャッシュと購読の単位であり、セル座標から常に再計算される
type ChunkCoord struct {
	X int `json:"chunk_x"`
	Y int `json:"chunk_y"`
}

// Key 逆引きインデックスとキャッシュのキーに使う "x:y" 形式の識別子
func (c ChunkCoord) Key() string {
	return strconv.Itoa(c.X) + ":" + strconv.Itoa(c.Y)
}

// CellBounds セル矩形の正確な境界（度単位）
type CellBounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Bounds クライアントが見ている矩形領域
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Viewport 表示領域＋ズームレベル
type Viewport struct {
	Bounds
	Zoom int `json:"zoom"`
}
