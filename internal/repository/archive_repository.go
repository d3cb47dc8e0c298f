package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/skillbot/internal/model"
	"github.com/Freeeeeet/skillbot/internal/store"
)

type ArchiveRepository struct {
	pool *pgxpool.Pool
}

func NewArchiveRepository(pool *pgxpool.Pool) *ArchiveRepository {
	return &ArchiveRepository{pool: pool}
}

// Get получает архивную категорию по id
func (r *ArchiveRepository) Get(ctx context.Context, guildID, categoryID int64) (*model.ArchiveBucket, error) {
	query := `
		SELECT guild_id, id, name, created_at
		FROM archives
		WHERE guild_id = $1 AND id = $2
	`

	var bucket model.ArchiveBucket
	err := r.pool.QueryRow(ctx, query, guildID, categoryID).Scan(
		&bucket.GuildID,
		&bucket.ID,
		&bucket.Name,
		&bucket.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Архив не найден
		}
		return nil, fmt.Errorf("get archive: %w", err)
	}

	return &bucket, nil
}

// ByName получает архивную категорию по имени
func (r *ArchiveRepository) ByName(ctx context.Context, guildID int64, name string) (*model.ArchiveBucket, error) {
	query := `
		SELECT guild_id, id, name, created_at
		FROM archives
		WHERE guild_id = $1 AND name = $2
	`

	var bucket model.ArchiveBucket
	err := r.pool.QueryRow(ctx, query, guildID, name).Scan(
		&bucket.GuildID,
		&bucket.ID,
		&bucket.Name,
		&bucket.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get archive by name: %w", err)
	}

	return &bucket, nil
}

// All возвращает архивы гильдии в порядке создания
func (r *ArchiveRepository) All(ctx context.Context, guildID int64) ([]*model.ArchiveBucket, error) {
	query := `
		SELECT guild_id, id, name, created_at
		FROM archives
		WHERE guild_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("get archives: %w", err)
	}
	defer rows.Close()

	var buckets []*model.ArchiveBucket
	for rows.Next() {
		var bucket model.ArchiveBucket
		err := rows.Scan(
			&bucket.GuildID,
			&bucket.ID,
			&bucket.Name,
			&bucket.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		buckets = append(buckets, &bucket)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archives: %w", err)
	}

	return buckets, nil
}

// Upsert создаёт архив или обновляет его имя
func (r *ArchiveRepository) Upsert(ctx context.Context, bucket *model.ArchiveBucket) error {
	query := `
		INSERT INTO archives (guild_id, id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id, id) DO UPDATE SET name = EXCLUDED.name
	`

	_, err := r.pool.Exec(ctx, query, bucket.GuildID, bucket.ID, bucket.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate // имя занято другим архивом
		}
		return fmt.Errorf("upsert archive: %w", err)
	}

	return nil
}

// Delete удаляет запись архива
func (r *ArchiveRepository) Delete(ctx context.Context, guildID, categoryID int64) error {
	query := `DELETE FROM archives WHERE guild_id = $1 AND id = $2`

	result, err := r.pool.Exec(ctx, query, guildID, categoryID)
	if err != nil {
		return fmt.Errorf("delete archive: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}
