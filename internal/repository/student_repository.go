package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/skillbot/internal/model"
	"github.com/Freeeeeet/skillbot/internal/store"
)

type StudentRepository struct {
	pool *pgxpool.Pool
}

func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// Get получает ученика по id пользователя
func (r *StudentRepository) Get(ctx context.Context, guildID, userID int64) (*model.Student, error) {
	query := `
		SELECT guild_id, user_id, major, customer_id
		FROM students
		WHERE guild_id = $1 AND user_id = $2
	`

	var student model.Student
	err := r.pool.QueryRow(ctx, query, guildID, userID).Scan(
		&student.GuildID,
		&student.UserID,
		&student.Major,
		&student.CustomerID,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Ученик не найден
		}
		return nil, fmt.Errorf("get student: %w", err)
	}

	return &student, nil
}

// Upsert создаёт или обновляет запись ученика
func (r *StudentRepository) Upsert(ctx context.Context, student *model.Student) error {
	query := `
		INSERT INTO students (guild_id, user_id, major, customer_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, user_id) DO UPDATE SET
			major = EXCLUDED.major,
			customer_id = EXCLUDED.customer_id
	`

	_, err := r.pool.Exec(
		ctx, query,
		student.GuildID,
		student.UserID,
		student.Major,
		student.CustomerID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate // customer_id уже занят
		}
		return fmt.Errorf("upsert student: %w", err)
	}

	return nil
}

// Delete удаляет запись ученика
func (r *StudentRepository) Delete(ctx context.Context, guildID, userID int64) error {
	query := `DELETE FROM students WHERE guild_id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, guildID, userID)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

// All возвращает всех учеников гильдии
func (r *StudentRepository) All(ctx context.Context, guildID int64) ([]*model.Student, error) {
	query := `
		SELECT guild_id, user_id, major, customer_id
		FROM students
		WHERE guild_id = $1
		ORDER BY user_id
	`

	rows, err := r.pool.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("get students: %w", err)
	}
	defer rows.Close()

	var students []*model.Student
	for rows.Next() {
		var student model.Student
		err := rows.Scan(
			&student.GuildID,
			&student.UserID,
			&student.Major,
			&student.CustomerID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, &student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}

	return students, nil
}
