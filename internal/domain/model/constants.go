package model

import "math"

// 世界グリッドのデフォルト設定値
// チャンクサイズとクールダウンはデプロイ先ごとに調整したいため、
// 環境変数で上書き可能な設定値として扱う
const (
	DefaultPixelSizeDegrees    = 0.0001
	DefaultChunkSize           = 64
	DefaultCooldownMs          = 30000
	DefaultCacheTTLSeconds     = 60
	DefaultMaxPixelsPerRequest = 5000
	DefaultMinSubscriptionZoom = 12

	// Web Mercator で安全に扱える緯度の上限
	MaxMercatorLat = 85.0511287798066
	MinLongitude   = -180.0
	MaxLongitude   = 180.0
)

// GridConfig 世界グリッドの設定
type GridConfig struct {
	PixelSizeDegrees    float64
	ChunkSize           int
	MaxLat              float64
	MaxPixelsPerRequest int
	MinSubscriptionZoom int
}

// DefaultGridConfig デフォルト設定のGridConfigを返す
func DefaultGridConfig() GridConfig {
	return GridConfig{
		PixelSizeDegrees:    DefaultPixelSizeDegrees,
		ChunkSize:           DefaultChunkSize,
		MaxLat:              MaxMercatorLat,
		MaxPixelsPerRequest: DefaultMaxPixelsPerRequest,
		MinSubscriptionZoom: DefaultMinSubscriptionZoom,
	}
}

// WorldWidth 経度方向のセル数
func (c GridConfig) WorldWidth() int {
	return int(math.Floor((MaxLongitude - MinLongitude) / c.PixelSizeDegrees))
}

// WorldHeight 緯度方向のセル数
func (c GridConfig) WorldHeight() int {
	return int(math.Floor(2 * c.MaxLat / c.PixelSizeDegrees))
}
