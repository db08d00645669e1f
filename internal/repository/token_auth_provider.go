package repository

import (
	"context"
	"errors"
	"log"

	"GeoCanvas-App/internal/domain/model"
	"GeoCanvas-App/internal/domain/repository"
)

// TokenAuthProvider APIトークンをユーザーストアで照合する認証プロバイダー
type TokenAuthProvider struct {
	users repository.UsersRepository
}

func NewTokenAuthProvider(users repository.UsersRepository) repository.AuthProvider {
	return &TokenAuthProvider{
		users: users,
	}
}

func (p *TokenAuthProvider) Authenticate(ctx context.Context, credential string) (*model.User, error) {
	if credential == "" {
		return nil, model.ErrUnauthenticated
	}

	user, err := p.users.GetByToken(ctx, credential)
	if err != nil {
		if !errors.Is(err, model.ErrUnauthenticated) {
			// ストア障害は認証失敗と区別してログに残す
			log.Printf("⚠️ トークン照合中のストアエラー: %v", err)
		}
		return nil, model.ErrUnauthenticated
	}

	return user, nil
}
