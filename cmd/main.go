package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"GeoCanvas-App/internal/database"
	"GeoCanvas-App/internal/domain/model"
	domainRepo "GeoCanvas-App/internal/domain/repository"
	"GeoCanvas-App/internal/domain/service"
	"GeoCanvas-App/internal/handler"
	infraDB "GeoCanvas-App/internal/infrastructure/database"
	infraFirestore "GeoCanvas-App/internal/infrastructure/firestore"
	"GeoCanvas-App/internal/realtime"
	"GeoCanvas-App/internal/repository"
	"GeoCanvas-App/internal/usecase"
)

const (
	defaultStorageTimeout = 5 * time.Second
	defaultStatsInterval  = 15 * time.Second
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using system environment variables")
	}

	// グリッド設定（環境変数で上書き可能）
	gridCfg := model.DefaultGridConfig()
	gridCfg.ChunkSize = envInt("CHUNK_SIZE", gridCfg.ChunkSize)
	gridCfg.MinSubscriptionZoom = envInt("MIN_SUBSCRIPTION_ZOOM", gridCfg.MinSubscriptionZoom)
	gridCfg.MaxPixelsPerRequest = envInt("MAX_PIXELS_PER_REQUEST", gridCfg.MaxPixelsPerRequest)

	cooldownMs := envInt("PLACEMENT_COOLDOWN_MS", model.DefaultCooldownMs)
	cacheTTLSeconds := envInt("CACHE_TTL_SECONDS", model.DefaultCacheTTLSeconds)

	// ストレージバックエンドの選択
	pixelsRepo, usersRepo, err := buildStorageBackend()
	if err != nil {
		log.Fatalf("ストレージバックエンドの初期化失敗: %v", err)
	}

	// Firestoreはチャンク統計カウンター用（任意）
	var chunkStats domainRepo.ChunkStatsRepository
	if projectID := os.Getenv("FIRESTORE_PROJECT_ID"); projectID != "" {
		fsClient, err := infraFirestore.NewFirestoreClient(context.Background(), projectID)
		if err != nil {
			log.Fatalf("Firestore初期化失敗: %v", err)
		}
		defer fsClient.Close()
		chunkStats = repository.NewFirestoreChunkStatsRepository(fsClient.GetClient())
	} else {
		fmt.Println("⚠️ FIRESTORE_PROJECT_ID未設定: チャンク統計の永続化は無効です")
	}

	// コアサービスの構築
	grid := service.NewGridService(gridCfg)
	validator := service.NewPlacementValidator(grid, model.DefaultPalette())
	cooldown := service.NewCooldownTracker(time.Duration(cooldownMs) * time.Millisecond)
	cache := service.NewSpatialCache(pixelsRepo, time.Duration(cacheTTLSeconds)*time.Second)

	// リアルタイム層の構築（Hubはグローバルではなく明示的に注入する）
	hub := realtime.NewHub(grid, gridCfg.MinSubscriptionZoom)
	broadcaster := realtime.NewBroadcaster(hub, cache, chunkStats, defaultStatsInterval)

	// UseCaseとハンドラーのDI
	placeUC := usecase.NewPlacePixelUseCase(grid, validator, cooldown, pixelsRepo, usersRepo, broadcaster, defaultStorageTimeout)
	queryUC := usecase.NewPixelsQueryUseCase(grid, cache)
	authProvider := repository.NewTokenAuthProvider(usersRepo)

	wsHandler := handler.NewCanvasWSHandler(hub, authProvider, cooldown, placeUC, queryUC)
	pixelsHandler := handler.NewPixelsHandler(queryUC)
	statsHandler := handler.NewStatsHandler(broadcaster)

	stop := make(chan struct{})
	defer close(stop)
	go broadcaster.RunStatsBroadcast(stop)

	// Ginルーターのセットアップ
	r := gin.Default()

	r.GET("/ws", wsHandler.HandleWS)

	api := r.Group("/api")
	{
		api.GET("/health", statsHandler.GetHealth)
		api.GET("/stats", statsHandler.GetStats)
		api.GET("/pixels", pixelsHandler.GetPixels)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Printf("GeoCanvas-App server starting on :%s (chunk=%d, cooldown=%dms)...\n",
		port, gridCfg.ChunkSize, cooldownMs)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("サーバーの起動に失敗: %v", err)
	}
}

// buildStorageBackend PIXELS_BACKEND環境変数でストレージ実装を選択する
// リクエストハンドラーに条件分岐を散らさず、起動時に一度だけ決める
func buildStorageBackend() (domainRepo.PixelsRepository, domainRepo.UsersRepository, error) {
	backend := os.Getenv("PIXELS_BACKEND")
	if backend == "" {
		backend = "postgres"
	}

	switch backend {
	case "postgres":
		client, err := infraDB.NewPostgreSQLClient()
		if err != nil {
			return nil, nil, fmt.Errorf("PostgreSQL初期化失敗: %w", err)
		}
		fmt.Println("✅ PostgreSQLバックエンドで起動します")
		return repository.NewPostgresPixelsRepository(client), repository.NewPostgresUsersRepository(client), nil

	case "supabase":
		supabaseClient, err := database.NewSupabaseClient()
		if err != nil {
			return nil, nil, fmt.Errorf("Supabaseクライアント初期化失敗: %w", err)
		}
		if err := supabaseClient.HealthCheck(); err != nil {
			return nil, nil, fmt.Errorf("Supabaseヘルスチェック失敗: %w", err)
		}
		// ユーザー参照はPostgREST未対応のため直接接続を併用する
		pgClient, err := infraDB.NewPostgreSQLClient()
		if err != nil {
			return nil, nil, fmt.Errorf("PostgreSQL初期化失敗: %w", err)
		}
		fmt.Println("✅ Supabase (PostgREST) バックエンドで起動します")
		return repository.NewSupabasePixelsRepository(supabaseClient), repository.NewPostgresUsersRepository(pgClient), nil

	case "memory":
		fmt.Println("⚠️ インメモリバックエンドで起動します（再起動でデータは消えます）")
		pixels := repository.NewMemoryPixelsRepository()
		users := repository.NewMemoryUsersRepository()
		// ローカル開発用のデモユーザー
		users.AddUser(&model.User{
			ID:              "demo-user",
			DisplayName:     "デモユーザー",
			EntitlementTier: model.TierPremium,
		}, "demo-token")
		return pixels, users, nil

	default:
		return nil, nil, fmt.Errorf("未知のPIXELS_BACKEND: %s", backend)
	}
}

// envInt 整数の環境変数を読む（未設定・不正値はデフォルト）
func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ %s の値 %q が不正です。デフォルト %d を使用します", name, v, fallback)
		return fallback
	}
	return n
}
