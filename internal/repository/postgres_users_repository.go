package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"GeoCanvas-App/internal/domain/model"
	"GeoCanvas-App/internal/domain/repository"
	"GeoCanvas-App/internal/infrastructure/database"
)

type PostgresUsersRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresUsersRepository(client *database.PostgreSQLClient) repository.UsersRepository {
	return &PostgresUsersRepository{
		client: client,
	}
}

const userColumns = `id, display_name, entitlement_tier, last_placed_at, placement_count`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var lastPlacedAt sql.NullTime
	if err := row.Scan(&u.ID, &u.DisplayName, &u.EntitlementTier, &lastPlacedAt, &u.PlacementCount); err != nil {
		return nil, err
	}
	if lastPlacedAt.Valid {
		u.LastPlacedAt = &lastPlacedAt.Time
	}
	return &u, nil
}

func (r *PostgresUsersRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)

	user, err := scanUser(r.client.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("ユーザー ID %s が見つかりません", id)
		}
		return nil, fmt.Errorf("ユーザーデータの取得失敗: %w", err)
	}

	return user, nil
}

func (r *PostgresUsersRepository) GetByToken(ctx context.Context, token string) (*model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE api_token = $1`, userColumns)

	user, err := scanUser(r.client.DB.QueryRowContext(ctx, query, token))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUnauthenticated
		}
		return nil, fmt.Errorf("トークンによるユーザー取得失敗: %w", err)
	}

	return user, nil
}

// RecordPlacement 配置コミット後のカウント加算と最終配置時刻の更新を1文で行う
func (r *PostgresUsersRepository) RecordPlacement(ctx context.Context, id string, placedAt time.Time) (int, error) {
	query := `
		UPDATE users
		SET placement_count = placement_count + 1, last_placed_at = $2
		WHERE id = $1
		RETURNING placement_count
	`

	var count int
	if err := r.client.DB.QueryRowContext(ctx, query, id, placedAt).Scan(&count); err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("ユーザー ID %s が見つかりません", id)
		}
		return 0, fmt.Errorf("配置カウントの更新失敗: %w", err)
	}

	return count, nil
}
