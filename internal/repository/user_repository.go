package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/skillbot/internal/model"
	"github.com/Freeeeeet/skillbot/internal/store"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Get получает пользователя по id
func (r *UserRepository) Get(ctx context.Context, guildID, userID int64) (*model.User, error) {
	query := `
		SELECT guild_id, id, real_name, hours_in_class
		FROM users
		WHERE guild_id = $1 AND id = $2
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, guildID, userID).Scan(
		&user.GuildID,
		&user.ID,
		&user.RealName,
		&user.HoursInClass,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

// Upsert создаёт пользователя или обновляет его имя; часы не трогает
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (guild_id, id, real_name, hours_in_class)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, id) DO UPDATE SET real_name = EXCLUDED.real_name
	`

	_, err := r.pool.Exec(
		ctx, query,
		user.GuildID,
		user.ID,
		user.RealName,
		user.HoursInClass,
	)

	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

// Delete удаляет пользователя; отсутствие записи не считается ошибкой
func (r *UserRepository) Delete(ctx context.Context, guildID, userID int64) error {
	query := `DELETE FROM users WHERE guild_id = $1 AND id = $2`

	if _, err := r.pool.Exec(ctx, query, guildID, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return nil
}

// All возвращает всех пользователей гильдии
func (r *UserRepository) All(ctx context.Context, guildID int64) ([]*model.User, error) {
	query := `
		SELECT guild_id, id, real_name, hours_in_class
		FROM users
		WHERE guild_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var user model.User
		err := rows.Scan(
			&user.GuildID,
			&user.ID,
			&user.RealName,
			&user.HoursInClass,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// AddHours прибавляет пользователю часы в классе
func (r *UserRepository) AddHours(ctx context.Context, guildID, userID int64, hours float64) error {
	query := `
		UPDATE users
		SET hours_in_class = hours_in_class + $1
		WHERE guild_id = $2 AND id = $3
	`

	result, err := r.pool.Exec(ctx, query, hours, guildID, userID)
	if err != nil {
		return fmt.Errorf("add hours: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}
