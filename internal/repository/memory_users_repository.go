package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"GeoCanvas-App/internal/domain/model"
	"GeoCanvas-App/internal/domain/repository"
)

// MemoryUsersRepository テスト・ローカル開発用のインメモリユーザーストア
type MemoryUsersRepository struct {
	mu     sync.RWMutex
	users  map[string]*model.User
	tokens map[string]string // token -> userID
}

func NewMemoryUsersRepository() *MemoryUsersRepository {
	return &MemoryUsersRepository{
		users:  make(map[string]*model.User),
		tokens: make(map[string]string),
	}
}

var _ repository.UsersRepository = (*MemoryUsersRepository)(nil)

// AddUser ユーザーをトークン付きで登録する（シード用）
func (r *MemoryUsersRepository) AddUser(user *model.User, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	if token != "" {
		r.tokens[token] = user.ID
	}
}

func (r *MemoryUsersRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("ユーザー ID %s が見つかりません", id)
	}
	copied := *user
	return &copied, nil
}

func (r *MemoryUsersRepository) GetByToken(ctx context.Context, token string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.tokens[token]
	if !ok {
		return nil, model.ErrUnauthenticated
	}
	copied := *r.users[id]
	return &copied, nil
}

func (r *MemoryUsersRepository) RecordPlacement(ctx context.Context, id string, placedAt time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return 0, fmt.Errorf("ユーザー ID %s が見つかりません", id)
	}
	user.PlacementCount++
	at := placedAt
	user.LastPlacedAt = &at
	return user.PlacementCount, nil
}
