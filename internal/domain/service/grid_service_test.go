package service

import (
	"testing"

	"GeoCanvas-App/internal/domain/model"
)

func newTestGrid() *GridService {
	return NewGridService(model.DefaultGridConfig())
}

func TestGridService_座標変換の往復(t *testing.T) {
	grid := newTestGrid()

	locations := []model.Location{
		{Latitude: 48.8566, Longitude: 2.3522},   // パリ
		{Latitude: 35.0116, Longitude: 135.7681}, // 京都
		{Latitude: -33.8688, Longitude: 151.2093},
		{Latitude: 0, Longitude: 0},
		{Latitude: 84.9, Longitude: -179.9},
	}

	for _, loc := range locations {
		snapped, cell := grid.SnapToGrid(loc.Latitude, loc.Longitude)

		// スナップは冪等: スナップ済みの点を再スナップしても同じ点になる
		resnapped, recell := grid.SnapToGrid(snapped.Latitude, snapped.Longitude)
		if recell != cell {
			t.Fatalf("再スナップでセルが変わりました: %v -> %v", cell, recell)
		}
		if resnapped != snapped {
			t.Fatalf("再スナップで座標が変わりました: %v -> %v", snapped, resnapped)
		}

		// gridToGeo(geoToGrid(p)) はセル中心を返す
		center := grid.GridToGeo(cell)
		if center != snapped {
			t.Fatalf("SnapToGridとGridToGeoの結果が一致しません: %v != %v", snapped, center)
		}
	}
}

func TestGridService_セル中心の逆変換(t *testing.T) {
	grid := newTestGrid()

	cells := []model.GridCoord{
		{X: 0, Y: 0},
		{X: 195, Y: 244},
		{X: 1000000, Y: 850000},
		{X: grid.WorldWidth() - 1, Y: grid.WorldHeight() - 1},
	}

	for _, cell := range cells {
		center := grid.GridToGeo(cell)
		back := grid.GeoToGrid(center.Latitude, center.Longitude)
		if back != cell {
			t.Fatalf("セル中心の往復が一致しません: %v -> %v", cell, back)
		}
	}
}

func TestGridService_範囲外座標のクランプ(t *testing.T) {
	grid := newTestGrid()

	// 範囲外の座標は拒否ではなくクランプされる（全域関数）
	cell := grid.GeoToGrid(90.0, 200.0)
	if !grid.InBounds(cell) {
		t.Fatalf("クランプ後のセルが範囲外です: %v", cell)
	}

	cell = grid.GeoToGrid(-90.0, -200.0)
	if !grid.InBounds(cell) {
		t.Fatalf("クランプ後のセルが範囲外です: %v", cell)
	}
}

func TestGridService_CellBounds(t *testing.T) {
	grid := newTestGrid()

	cell := grid.GeoToGrid(48.8566, 2.3522)
	bounds := grid.CellBounds(cell)

	if bounds.North <= bounds.South {
		t.Fatalf("北端が南端以下です: %+v", bounds)
	}
	if bounds.East <= bounds.West {
		t.Fatalf("東端が西端以下です: %+v", bounds)
	}

	// セル中心は境界の内側にある
	center := grid.GridToGeo(cell)
	if center.Latitude >= bounds.North || center.Latitude <= bounds.South {
		t.Fatalf("セル中心の緯度が境界外です: %v not in %+v", center, bounds)
	}
	if center.Longitude >= bounds.East || center.Longitude <= bounds.West {
		t.Fatalf("セル中心の経度が境界外です: %v not in %+v", center, bounds)
	}
}

func TestGridService_ChunkOf(t *testing.T) {
	grid := newTestGrid()

	cases := []struct {
		cell  model.GridCoord
		chunk model.ChunkCoord
	}{
		{model.GridCoord{X: 0, Y: 0}, model.ChunkCoord{X: 0, Y: 0}},
		{model.GridCoord{X: 63, Y: 63}, model.ChunkCoord{X: 0, Y: 0}},
		{model.GridCoord{X: 64, Y: 63}, model.ChunkCoord{X: 1, Y: 0}},
		{model.GridCoord{X: 200, Y: 200}, model.ChunkCoord{X: 3, Y: 3}},
		{model.GridCoord{X: 600, Y: 600}, model.ChunkCoord{X: 9, Y: 9}},
	}

	for _, tc := range cases {
		if got := grid.ChunkOf(tc.cell); got != tc.chunk {
			t.Fatalf("ChunkOf(%v) = %v, want %v", tc.cell, got, tc.chunk)
		}
	}
}

func TestGridService_CellsInBoundsの上限(t *testing.T) {
	grid := newTestGrid()

	// 大きな表示領域でも上限で決定的に打ち切られる
	bounds := model.Bounds{MinLat: 48.0, MinLng: 2.0, MaxLat: 49.0, MaxLng: 3.0}
	cells := grid.CellsInBounds(bounds, 100)

	if len(cells) > 100 {
		t.Fatalf("上限を超えるセルが返されました: %d", len(cells))
	}
	if len(cells) != 100 {
		t.Fatalf("打ち切りが機能していません: %d", len(cells))
	}

	// 同じ入力なら同じ結果（行優先の決定的な打ち切り）
	again := grid.CellsInBounds(bounds, 100)
	for i := range cells {
		if cells[i] != again[i] {
			t.Fatalf("打ち切り順序が決定的ではありません: %v != %v", cells[i], again[i])
		}
	}
}

func TestGridService_CellsInBoundsは領域内のみ(t *testing.T) {
	grid := newTestGrid()

	bounds := model.Bounds{MinLat: 48.8560, MinLng: 2.3520, MaxLat: 48.8566, MaxLng: 2.3526}
	cells := grid.CellsInBounds(bounds, 0)

	if len(cells) == 0 {
		t.Fatal("セルが1つも返されませんでした")
	}

	for _, cell := range cells {
		cb := grid.CellBounds(cell)
		// 各セルの矩形が表示領域と交差していること
		if cb.South > bounds.MaxLat || cb.North < bounds.MinLat ||
			cb.West > bounds.MaxLng || cb.East < bounds.MinLng {
			t.Fatalf("表示領域外のセルが含まれています: %v (%+v)", cell, cb)
		}
	}
}

func TestGridService_ChunksInBounds(t *testing.T) {
	grid := newTestGrid()

	// チャンク(3,3)の内側のセル範囲から表示領域を作る
	topLeft := grid.GridToGeo(model.GridCoord{X: 3*64 + 8, Y: 3*64 + 8})
	bottomRight := grid.GridToGeo(model.GridCoord{X: 3*64 + 56, Y: 3*64 + 56})
	bounds := model.Bounds{
		MinLat: bottomRight.Latitude,
		MinLng: topLeft.Longitude,
		MaxLat: topLeft.Latitude,
		MaxLng: bottomRight.Longitude,
	}

	chunks := grid.ChunksInBounds(bounds)
	if len(chunks) != 1 {
		t.Fatalf("チャンク数が期待と異なります: %v", chunks)
	}
	if chunks[0] != (model.ChunkCoord{X: 3, Y: 3}) {
		t.Fatalf("チャンクが期待と異なります: %v", chunks[0])
	}
}
