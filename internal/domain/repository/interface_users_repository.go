package repository

import (
	"context"
	"time"

	"GeoCanvas-App/internal/domain/model"
)

// UsersRepository ユーザー情報ストアのインターフェース
type UsersRepository interface {
	// GetByID 指定IDのユーザーを取得する
	GetByID(ctx context.Context, id string) (*model.User, error)

	// GetByToken APIトークンからユーザーを取得する（認証用）
	GetByToken(ctx context.Context, token string) (*model.User, error)

	// RecordPlacement 配置コミット後に placement_count をインクリメントし
	// last_placed_at を更新する。更新後のカウントを返す
	RecordPlacement(ctx context.Context, id string, placedAt time.Time) (int, error)
}
