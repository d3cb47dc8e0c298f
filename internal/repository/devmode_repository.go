package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DevModeRepository struct {
	pool *pgxpool.Pool
}

func NewDevModeRepository(pool *pgxpool.Pool) *DevModeRepository {
	return &DevModeRepository{pool: pool}
}

// IsActive проверяет, включён ли у пользователя режим разработчика
func (r *DevModeRepository) IsActive(ctx context.Context, guildID, userID int64) (bool, error) {
	query := `
		SELECT active
		FROM dev_mode
		WHERE guild_id = $1 AND user_id = $2
	`

	var active bool
	err := r.pool.QueryRow(ctx, query, guildID, userID).Scan(&active)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil // Нет записи - режим выключен
		}
		return false, fmt.Errorf("get dev mode: %w", err)
	}

	return active, nil
}

// Set включает или выключает режим разработчика
func (r *DevModeRepository) Set(ctx context.Context, guildID, userID int64, active bool) error {
	if !active {
		query := `DELETE FROM dev_mode WHERE guild_id = $1 AND user_id = $2`
		if _, err := r.pool.Exec(ctx, query, guildID, userID); err != nil {
			return fmt.Errorf("disable dev mode: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO dev_mode (guild_id, user_id, active)
		VALUES ($1, $2, true)
		ON CONFLICT (guild_id, user_id) DO UPDATE SET active = true
	`

	if _, err := r.pool.Exec(ctx, query, guildID, userID); err != nil {
		return fmt.Errorf("enable dev mode: %w", err)
	}

	return nil
}

// ActiveUsers возвращает пользователей с включённым режимом разработчика
func (r *DevModeRepository) ActiveUsers(ctx context.Context, guildID int64) ([]int64, error) {
	query := `
		SELECT user_id
		FROM dev_mode
		WHERE guild_id = $1 AND active
		ORDER BY user_id
	`

	rows, err := r.pool.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("get dev mode users: %w", err)
	}
	defer rows.Close()

	var users []int64
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan dev mode user: %w", err)
		}
		users = append(users, userID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dev mode users: %w", err)
	}

	return users, nil
}
