package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"GeoCanvas-App/internal/domain/model"
	"GeoCanvas-App/internal/usecase"
)

// PixelsHandler はピクセル取得REST APIのハンドラー
// WebSocket接続前の初期ロード用にチャンク単位のスナップショットを返す
type PixelsHandler struct {
	queryUC usecase.PixelsQueryUseCase
}

// NewPixelsHandler は新しいPixelsHandlerインスタンスを作成
func NewPixelsHandler(queryUC usecase.PixelsQueryUseCase) *PixelsHandler {
	return &PixelsHandler{
		queryUC: queryUC,
	}
}

// GetPixels は表示領域内のピクセルを取得するエンドポイント
// GET /api/pixels?min_lat=..&min_lng=..&max_lat=..&max_lng=..
func (h *PixelsHandler) GetPixels(c *gin.Context) {
	bounds, err := parseBounds(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "境界パラメータが正しくありません",
			"details": err.Error(),
		})
		return
	}

	pixels, chunks, err := h.queryUC.GetPixelsInBounds(c.Request.Context(), *bounds)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "ピクセルの取得に失敗しました",
			"details": err.Error(),
		})
		return
	}
	if pixels == nil {
		pixels = []model.Pixel{}
	}

	chunkIDs := make([]string, len(chunks))
	for i, chunk := range chunks {
		chunkIDs[i] = chunk.Key()
	}

	c.JSON(http.StatusOK, gin.H{
		"chunk_ids": chunkIDs,
		"pixels":    pixels,
		"count":     len(pixels),
	})
}

// parseBounds はクエリパラメータから境界ボックスを組み立てる
func parseBounds(c *gin.Context) (*model.Bounds, error) {
	parse := func(name string) (float64, error) {
		return strconv.ParseFloat(c.Query(name), 64)
	}

	minLat, err := parse("min_lat")
	if err != nil {
		return nil, &ValidationError{Field: "min_lat", Message: "数値で指定してください"}
	}
	minLng, err := parse("min_lng")
	if err != nil {
		return nil, &ValidationError{Field: "min_lng", Message: "数値で指定してください"}
	}
	maxLat, err := parse("max_lat")
	if err != nil {
		return nil, &ValidationError{Field: "max_lat", Message: "数値で指定してください"}
	}
	maxLng, err := parse("max_lng")
	if err != nil {
		return nil, &ValidationError{Field: "max_lng", Message: "数値で指定してください"}
	}

	if minLat > maxLat {
		return nil, &ValidationError{Field: "min_lat", Message: "min_latはmax_lat以下で指定してください"}
	}
	if minLng > maxLng {
		return nil, &ValidationError{Field: "min_lng", Message: "min_lngはmax_lng以下で指定してください"}
	}

	return &model.Bounds{
		MinLat: minLat,
		MinLng: minLng,
		MaxLat: maxLat,
		MaxLng: maxLng,
	}, nil
}

// ValidationError はバリデーションエラーを表す
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
