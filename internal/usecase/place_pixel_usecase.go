package usecase

import (
	"context"
	"log"
	"strings"
	"time"

	"GeoCanvas-App/internal/domain/model"
	"GeoCanvas-App/internal/domain/repository"
	"GeoCanvas-App/internal/domain/service"
)

// PlacementNotifier コミット済み配置の通知先
// usecase層は具体的な配信方法を知らない
type PlacementNotifier interface {
	PlacementCommitted(pixel *model.Pixel, originClientID string)
}

type PlacePixelUseCase interface {
	// Execute 配置リクエストを検証・コミットし、確定したピクセルを返す。
	// 拒否時は構造化された PlacementError を返す
	Execute(ctx context.Context, clientID string, user *model.User, req *model.PlacePixelRequest) (*model.Pixel, *model.PlacementError)
}

// placePixelUseCaseImpl はPlacePixelUseCaseの実装
// 状態遷移: Validated → CooldownChecked → Committed → CacheInvalidated → Broadcast
// 早期離脱はすべて Rejected(reason) 終端
type placePixelUseCaseImpl struct {
	grid           *service.GridService
	validator      *service.PlacementValidator
	cooldown       *service.CooldownTracker
	pixelsRepo     repository.PixelsRepository
	usersRepo      repository.UsersRepository
	notifier       PlacementNotifier
	storageTimeout time.Duration
	now            func() time.Time
}

// NewPlacePixelUseCase 新しいPlacePixelUseCaseインスタンスを作成
func NewPlacePixelUseCase(
	grid *service.GridService,
	validator *service.PlacementValidator,
	cooldown *service.CooldownTracker,
	pixelsRepo repository.PixelsRepository,
	usersRepo repository.UsersRepository,
	notifier PlacementNotifier,
	storageTimeout time.Duration,
) PlacePixelUseCase {
	return &placePixelUseCaseImpl{
		grid:           grid,
		validator:      validator,
		cooldown:       cooldown,
		pixelsRepo:     pixelsRepo,
		usersRepo:      usersRepo,
		notifier:       notifier,
		storageTimeout: storageTimeout,
		now:            time.Now,
	}
}

func (u *placePixelUseCaseImpl) Execute(ctx context.Context, clientID string, user *model.User, req *model.PlacePixelRequest) (*model.Pixel, *model.PlacementError) {
	// Step 1: 緯度経度からセル座標を再導出する。
	// クライアント指定のグリッド座標は信用せず、食い違いはログに残して無視する
	_, cell := u.grid.SnapToGrid(req.Lat, req.Lng)
	if req.GridX != nil && req.GridY != nil && (*req.GridX != cell.X || *req.GridY != cell.Y) {
		log.Printf("⚠️ グリッド座標の不一致: クライアント=(%d,%d) サーバー導出=(%d,%d) user=%s",
			*req.GridX, *req.GridY, cell.X, cell.Y, user.ID)
	}

	color := strings.ToUpper(req.Color)

	// Step 2: 構造・ポリシー検証（純粋チェック、最初の失敗で打ち切り）
	if perr := u.validator.Validate(cell, color, user.EntitlementTier); perr != nil {
		return nil, perr
	}

	// Step 3: クールダウン予約。同一ユーザーの同時リクエストはここで2件目が落ちる
	ok, remainingMs := u.cooldown.Begin(user.ID)
	if !ok {
		return nil, model.NewCooldownError(remainingMs)
	}

	// Step 4: ストアへのアトミックUpsert（タイムアウト付き）。
	// 失敗時は予約を解除し、クールダウンは消費しない
	chunk := u.grid.ChunkOf(cell)
	storageCtx, cancel := context.WithTimeout(ctx, u.storageTimeout)
	defer cancel()

	pixel, err := u.pixelsRepo.Upsert(storageCtx, cell, chunk, color, user.ID, u.now())
	if err != nil {
		u.cooldown.Abort(user.ID)
		log.Printf("❌ ピクセルUpsert失敗 (%d,%d) user=%s: %v", cell.X, cell.Y, user.ID, err)
		return nil, model.NewStorageError()
	}

	// Step 5: コミット確定後にのみクールダウンを開始する
	u.cooldown.Commit(user.ID, pixel.PlacedAt)

	// Step 6: 配置カウント更新。失敗しても配置自体は成立している
	if _, err := u.usersRepo.RecordPlacement(ctx, user.ID, pixel.PlacedAt); err != nil {
		log.Printf("⚠️ 配置カウント更新失敗 user=%s: %v", user.ID, err)
	}

	// Step 7: キャッシュ無効化と購読者への配信はNotifierに委譲する。
	// ブロードキャストはストアが返したコミット結果をそのまま使う
	if u.notifier != nil {
		u.notifier.PlacementCommitted(pixel, clientID)
	}

	return pixel, nil
}
