package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"GeoCanvas-App/internal/domain/repository"
	"GeoCanvas-App/internal/domain/service"
	"GeoCanvas-App/internal/realtime"
	"GeoCanvas-App/internal/usecase"
)

// CanvasWSHandler はWebSocket接続のハンドラー
type CanvasWSHandler struct {
	hub      *realtime.Hub
	auth     repository.AuthProvider
	cooldown *service.CooldownTracker
	placeUC  usecase.PlacePixelUseCase
	queryUC  usecase.PixelsQueryUseCase
	upgrader websocket.Upgrader
}

// NewCanvasWSHandler は新しいCanvasWSHandlerインスタンスを作成
func NewCanvasWSHandler(
	hub *realtime.Hub,
	auth repository.AuthProvider,
	cooldown *service.CooldownTracker,
	placeUC usecase.PlacePixelUseCase,
	queryUC usecase.PixelsQueryUseCase,
) *CanvasWSHandler {
	return &CanvasWSHandler{
		hub:      hub,
		auth:     auth,
		cooldown: cooldown,
		placeUC:  placeUC,
		queryUC:  queryUC,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS はWebSocket接続を確立するエンドポイント
// GET /ws?token=...
func (h *CanvasWSHandler) HandleWS(c *gin.Context) {
	token := c.Query("token")

	user, err := h.auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":  "認証に失敗しました",
			"reason": "unauthenticated",
		})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ WebSocketアップグレード失敗 user=%s: %v", user.ID, err)
		return
	}

	// ストアの最終配置時刻でクールダウン状態を初期化する
	// （プロセス再起動後もクールダウンを素通りさせない）
	if user.LastPlacedAt != nil {
		h.cooldown.Prime(user.ID, *user.LastPlacedAt)
	}

	client := realtime.NewClient(h.hub, conn, user, h.placeUC, h.queryUC)
	log.Printf("🔌 クライアント接続 client=%s user=%s", client.ID, user.ID)

	go func() {
		client.Run()
		log.Printf("👋 クライアント切断 client=%s user=%s", client.ID, user.ID)
	}()
}
