package repository

import (
	"context"

	"GeoCanvas-App/internal/domain/model"
)

// AuthProvider クライアント認証の外部コラボレーター
type AuthProvider interface {
	// Authenticate 資格情報からユーザーを特定する。
	// 失敗時は model.ErrUnauthenticated を返す
	Authenticate(ctx context.Context, credential string) (*model.User, error)
}
