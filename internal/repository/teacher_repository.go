package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/skillbot/internal/model"
	"github.com/Freeeeeet/skillbot/internal/store"
)

type TeacherRepository struct {
	pool *pgxpool.Pool
}

func NewTeacherRepository(pool *pgxpool.Pool) *TeacherRepository {
	return &TeacherRepository{pool: pool}
}

// Get получает учителя по id пользователя
func (r *TeacherRepository) Get(ctx context.Context, guildID, userID int64) (*model.Teacher, error) {
	query := `
		SELECT guild_id, user_id, subjects, phonenumber, availability, teaching_category
		FROM teachers
		WHERE guild_id = $1 AND user_id = $2
	`

	var teacher model.Teacher
	err := r.pool.QueryRow(ctx, query, guildID, userID).Scan(
		&teacher.GuildID,
		&teacher.UserID,
		&teacher.Subjects,
		&teacher.Phonenumber,
		&teacher.Availability,
		&teacher.TeachingCategory,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Учитель не найден
		}
		return nil, fmt.Errorf("get teacher: %w", err)
	}

	return &teacher, nil
}

// Upsert создаёт или обновляет запись учителя
func (r *TeacherRepository) Upsert(ctx context.Context, teacher *model.Teacher) error {
	query := `
		INSERT INTO teachers (guild_id, user_id, subjects, phonenumber, availability, teaching_category)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (guild_id, user_id) DO UPDATE SET
			subjects = EXCLUDED.subjects,
			phonenumber = EXCLUDED.phonenumber,
			availability = EXCLUDED.availability,
			teaching_category = EXCLUDED.teaching_category
	`

	_, err := r.pool.Exec(
		ctx, query,
		teacher.GuildID,
		teacher.UserID,
		teacher.Subjects,
		teacher.Phonenumber,
		teacher.Availability,
		teacher.TeachingCategory,
	)

	if err != nil {
		return fmt.Errorf("upsert teacher: %w", err)
	}

	return nil
}

// Delete удаляет запись учителя
func (r *TeacherRepository) Delete(ctx context.Context, guildID, userID int64) error {
	query := `DELETE FROM teachers WHERE guild_id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, guildID, userID)
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

// All возвращает всех учителей гильдии
func (r *TeacherRepository) All(ctx context.Context, guildID int64) ([]*model.Teacher, error) {
	query := `
		SELECT guild_id, user_id, subjects, phonenumber, availability, teaching_category
		FROM teachers
		WHERE guild_id = $1
		ORDER BY user_id
	`

	rows, err := r.pool.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("get teachers: %w", err)
	}
	defer rows.Close()

	var teachers []*model.Teacher
	for rows.Next() {
		var teacher model.Teacher
		err := rows.Scan(
			&teacher.GuildID,
			&teacher.UserID,
			&teacher.Subjects,
			&teacher.Phonenumber,
			&teacher.Availability,
			&teacher.TeachingCategory,
		)
		if err != nil {
			return nil, fmt.Errorf("scan teacher: %w", err)
		}
		teachers = append(teachers, &teacher)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teachers: %w", err)
	}

	return teachers, nil
}

// TeachingCategories возвращает id учебных категорий гильдии
func (r *TeacherRepository) TeachingCategories(ctx context.Context, guildID int64) ([]int64, error) {
	query := `
		SELECT teaching_category
		FROM teachers
		WHERE guild_id = $1 AND teaching_category IS NOT NULL
		ORDER BY teaching_category
	`

	rows, err := r.pool.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("get teaching categories: %w", err)
	}
	defer rows.Close()

	var categories []int64
	for rows.Next() {
		var categoryID int64
		if err := rows.Scan(&categoryID); err != nil {
			return nil, fmt.Errorf("scan teaching category: %w", err)
		}
		categories = append(categories, categoryID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teaching categories: %w", err)
	}

	return categories, nil
}
