package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"GeoCanvas-App/internal/realtime"
)

// StatsHandler はサーバー統計・ヘルスチェックのハンドラー
type StatsHandler struct {
	broadcaster *realtime.Broadcaster
}

// NewStatsHandler は新しいStatsHandlerインスタンスを作成
func NewStatsHandler(broadcaster *realtime.Broadcaster) *StatsHandler {
	return &StatsHandler{
		broadcaster: broadcaster,
	}
}

// GetHealth はヘルスチェックエンドポイント
// GET /api/health
func (h *StatsHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "GeoCanvas-App",
	})
}

// GetStats は現在のサーバー統計を返すエンドポイント
// GET /api/stats
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats := h.broadcaster.Stats()
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": stats.ConnectedClients,
		"total_placements":  stats.TotalPlacements,
		"active_chunks":     stats.ActiveChunks,
		"server_time":       stats.ServerTime,
	})
}
