package service

import (
	"math"

	"github.com/paulmach/orb"

	"GeoCanvas-App/internal/domain/model"
)

// GridService 地理座標⇔グリッド座標⇔チャンク座標の変換を担う純粋サービス
// すべての変換は副作用なしの全域関数であり、範囲外の座標は世界境界にクランプする
// （権限チェックやセル範囲の検証は PlacementValidator の責務）
type GridService struct {
	cfg model.GridConfig
}

// NewGridService 指定設定のGridServiceを作成
func NewGridService(cfg model.GridConfig) *GridService {
	return &GridService{cfg: cfg}
}

// Config 現在のグリッド設定を返す
func (s *GridService) Config() model.GridConfig {
	return s.cfg
}

// WorldWidth 経度方向のセル数
func (s *GridService) WorldWidth() int {
	return s.cfg.WorldWidth()
}

// WorldHeight 緯度方向のセル数
func (s *GridService) WorldHeight() int {
	return s.cfg.WorldHeight()
}

// clampLocation 緯度経度を世界境界内にクランプする
func (s *GridService) clampLocation(lat, lng float64) (float64, float64) {
	lat = math.Max(-s.cfg.MaxLat, math.Min(s.cfg.MaxLat, lat))
	lng = math.Max(model.MinLongitude, math.Min(model.MaxLongitude, lng))
	return lat, lng
}

// GeoToGrid 緯度経度からセル座標を求める
// Yは南向きに増加する（画像座標系）
func (s *GridService) GeoToGrid(lat, lng float64) model.GridCoord {
	lat, lng = s.clampLocation(lat, lng)
	x := int(math.Floor((lng - model.MinLongitude) / s.cfg.PixelSizeDegrees))
	y := int(math.Floor((s.cfg.MaxLat - lat) / s.cfg.PixelSizeDegrees))

	// 東端・南端ちょうどの座標は最終セルに含める
	if x >= s.WorldWidth() {
		x = s.WorldWidth() - 1
	}
	if y >= s.WorldHeight() {
		y = s.WorldHeight() - 1
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return model.GridCoord{X: x, Y: y}
}

// GridToGeo セル座標からセル中心の緯度経度を求める（GeoToGridの逆変換）
func (s *GridService) GridToGeo(cell model.GridCoord) model.Location {
	return model.Location{
		Latitude:  s.cfg.MaxLat - (float64(cell.Y)+0.5)*s.cfg.PixelSizeDegrees,
		Longitude: model.MinLongitude + (float64(cell.X)+0.5)*s.cfg.PixelSizeDegrees,
	}
}

// CellBounds セル矩形の正確な境界を返す（外部レンダラーのヒットテスト用）
func (s *GridService) CellBounds(cell model.GridCoord) model.CellBounds {
	west := model.MinLongitude + float64(cell.X)*s.cfg.PixelSizeDegrees
	north := s.cfg.MaxLat - float64(cell.Y)*s.cfg.PixelSizeDegrees
	return model.CellBounds{
		North: north,
		South: north - s.cfg.PixelSizeDegrees,
		East:  west + s.cfg.PixelSizeDegrees,
		West:  west,
	}
}

// SnapToGrid 任意の緯度経度をセル中心にスナップする
// スナップ済みの点を再スナップしても同じ点になる（冪等）
func (s *GridService) SnapToGrid(lat, lng float64) (model.Location, model.GridCoord) {
	cell := s.GeoToGrid(lat, lng)
	return s.GridToGeo(cell), cell
}

// ChunkOf セルの所属チャンク座標を求める
func (s *GridService) ChunkOf(cell model.GridCoord) model.ChunkCoord {
	return model.ChunkCoord{
		X: cell.X / s.cfg.ChunkSize,
		Y: cell.Y / s.cfg.ChunkSize,
	}
}

// InBounds セル座標が世界グリッド内にあるか
func (s *GridService) InBounds(cell model.GridCoord) bool {
	return cell.X >= 0 && cell.X < s.WorldWidth() &&
		cell.Y >= 0 && cell.Y < s.WorldHeight()
}

// normalizeBounds 境界ボックスをorb.Boundに正規化する（min/maxの入れ替わりを吸収）
func (s *GridService) normalizeBounds(b model.Bounds) orb.Bound {
	bound := orb.Bound{
		Min: orb.Point{b.MinLng, b.MinLat},
		Max: orb.Point{b.MinLng, b.MinLat},
	}
	bound = bound.Extend(orb.Point{b.MaxLng, b.MaxLat})
	return bound
}

// CellsInBounds 表示領域と交差するセルを列挙する
// maxCount を超える場合は左上からの行優先順で決定的に打ち切る。
// 完全な範囲が必要な場合はチャンク単位の取得を使うこと
func (s *GridService) CellsInBounds(b model.Bounds, maxCount int) []model.GridCoord {
	if maxCount <= 0 {
		maxCount = s.cfg.MaxPixelsPerRequest
	}
	bound := s.normalizeBounds(b)
	topLeft := s.GeoToGrid(bound.Max.Lat(), bound.Min.Lon())
	bottomRight := s.GeoToGrid(bound.Min.Lat(), bound.Max.Lon())

	cells := make([]model.GridCoord, 0)
	for y := topLeft.Y; y <= bottomRight.Y; y++ {
		for x := topLeft.X; x <= bottomRight.X; x++ {
			cells = append(cells, model.GridCoord{X: x, Y: y})
			if len(cells) >= maxCount {
				return cells
			}
		}
	}
	return cells
}

// ChunksInBounds 表示領域と交差するチャンクを列挙する（上限なし）
// チャンク数はセル数よりはるかに少ないため打ち切りは不要
func (s *GridService) ChunksInBounds(b model.Bounds) []model.ChunkCoord {
	bound := s.normalizeBounds(b)
	topLeft := s.ChunkOf(s.GeoToGrid(bound.Max.Lat(), bound.Min.Lon()))
	bottomRight := s.ChunkOf(s.GeoToGrid(bound.Min.Lat(), bound.Max.Lon()))

	chunks := make([]model.ChunkCoord, 0, (bottomRight.Y-topLeft.Y+1)*(bottomRight.X-topLeft.X+1))
	for y := topLeft.Y; y <= bottomRight.Y; y++ {
		for x := topLeft.X; x <= bottomRight.X; x++ {
			chunks = append(chunks, model.ChunkCoord{X: x, Y: y})
		}
	}
	return chunks
}
