package model

import "time"

// Pixel グリッドセルに置かれた1ピクセル
// (grid_x, grid_y) につき最大1件。新しい配置は既存レコードを置き換える（last-write-wins）
// chunk_x/chunk_y は領域検索を高速化するための非正規化カラム
type Pixel struct {
	GridX    int       `json:"grid_x" db:"grid_x"`
	GridY    int       `json:"grid_y" db:"grid_y"`
	ChunkX   int       `json:"chunk_x" db:"chunk_x"`
	ChunkY   int       `json:"chunk_y" db:"chunk_y"`
	Color    string    `json:"color" db:"color"`
	OwnerID  string    `json:"owner_id" db:"owner_id"`
	PlacedAt time.Time `json:"placed_at" db:"placed_at"`
}

// Chunk 所属チャンク座標を返す
func (p *Pixel) Chunk() ChunkCoord {
	return ChunkCoord{X: p.ChunkX, Y: p.ChunkY}
}

// PlacePixelRequest クライアントからのピクセル配置リクエスト
// グリッド座標は任意項目。サーバー側で緯度経度から再導出し、食い違う場合は
// クライアント指定値を無視してログに残す
type PlacePixelRequest struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	GridX *int    `json:"grid_x,omitempty"`
	GridY *int    `json:"grid_y,omitempty"`
	Color string  `json:"color"`
}
