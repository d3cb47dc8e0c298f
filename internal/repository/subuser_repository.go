package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/skillbot/internal/model"
	"github.com/Freeeeeet/skillbot/internal/store"
)

type SubuserRepository struct {
	pool *pgxpool.Pool
}

func NewSubuserRepository(pool *pgxpool.Pool) *SubuserRepository {
	return &SubuserRepository{pool: pool}
}

// Get получает связь основного аккаунта и субпользователя
func (r *SubuserRepository) Get(ctx context.Context, guildID, userID, subuserID int64) (*model.Subuser, error) {
	query := `
		SELECT guild_id, user_id, subuser_id
		FROM subusers
		WHERE guild_id = $1 AND user_id = $2 AND subuser_id = $3
	`

	var link model.Subuser
	err := r.pool.QueryRow(ctx, query, guildID, userID, subuserID).Scan(
		&link.GuildID,
		&link.UserID,
		&link.SubuserID,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Связь не найдена
		}
		return nil, fmt.Errorf("get subuser: %w", err)
	}

	return &link, nil
}

// ByPrimary получает субпользователей основного аккаунта
func (r *SubuserRepository) ByPrimary(ctx context.Context, guildID, userID int64) ([]*model.Subuser, error) {
	query := `
		SELECT guild_id, user_id, subuser_id
		FROM subusers
		WHERE guild_id = $1 AND user_id = $2
		ORDER BY subuser_id
	`

	rows, err := r.pool.Query(ctx, query, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("get subusers by primary: %w", err)
	}
	defer rows.Close()

	return scanSubusers(rows)
}

// BySubuser получает связи, где аккаунт выступает субпользователем
func (r *SubuserRepository) BySubuser(ctx context.Context, guildID, subuserID int64) ([]*model.Subuser, error) {
	query := `
		SELECT guild_id, user_id, subuser_id
		FROM subusers
		WHERE guild_id = $1 AND subuser_id = $2
		ORDER BY user_id
	`

	rows, err := r.pool.Query(ctx, query, guildID, subuserID)
	if err != nil {
		return nil, fmt.Errorf("get subusers by subuser: %w", err)
	}
	defer rows.Close()

	return scanSubusers(rows)
}

// Upsert создаёт связь; повторная вставка той же пары безвредна
func (r *SubuserRepository) Upsert(ctx context.Context, link *model.Subuser) error {
	query := `
		INSERT INTO subusers (guild_id, user_id, subuser_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id, user_id, subuser_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, link.GuildID, link.UserID, link.SubuserID)
	if err != nil {
		if isCheckViolation(err) {
			return store.ErrInvalid // ссылка на самого себя
		}
		return fmt.Errorf("upsert subuser: %w", err)
	}

	return nil
}

// Delete удаляет связь
func (r *SubuserRepository) Delete(ctx context.Context, guildID, userID, subuserID int64) error {
	query := `
		DELETE FROM subusers
		WHERE guild_id = $1 AND user_id = $2 AND subuser_id = $3
	`

	result, err := r.pool.Exec(ctx, query, guildID, userID, subuserID)
	if err != nil {
		return fmt.Errorf("delete subuser: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

// All возвращает все связи гильдии
func (r *SubuserRepository) All(ctx context.Context, guildID int64) ([]*model.Subuser, error) {
	query := `
		SELECT guild_id, user_id, subuser_id
		FROM subusers
		WHERE guild_id = $1
		ORDER BY user_id, subuser_id
	`

	rows, err := r.pool.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("get subusers: %w", err)
	}
	defer rows.Close()

	return scanSubusers(rows)
}

func scanSubusers(rows pgx.Rows) ([]*model.Subuser, error) {
	var links []*model.Subuser
	for rows.Next() {
		var link model.Subuser
		if err := rows.Scan(&link.GuildID, &link.UserID, &link.SubuserID); err != nil {
			return nil, fmt.Errorf("scan subuser: %w", err)
		}
		links = append(links, &link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subusers: %w", err)
	}

	return links, nil
}
