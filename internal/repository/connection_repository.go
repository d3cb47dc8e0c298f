package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/skillbot/internal/model"
	"github.com/Freeeeeet/skillbot/internal/store"
)

type ConnectionRepository struct {
	pool *pgxpool.Pool
}

func NewConnectionRepository(pool *pgxpool.Pool) *ConnectionRepository {
	return &ConnectionRepository{pool: pool}
}

// Get получает связь учителя и ученика
func (r *ConnectionRepository) Get(ctx context.Context, guildID, teacherID, studentID int64) (*model.Connection, error) {
	query := `
		SELECT guild_id, teacher_id, student_id, channel_id
		FROM teacher_student
		WHERE guild_id = $1 AND teacher_id = $2 AND student_id = $3
	`

	var conn model.Connection
	err := r.pool.QueryRow(ctx, query, guildID, teacherID, studentID).Scan(
		&conn.GuildID,
		&conn.TeacherID,
		&conn.StudentID,
		&conn.ChannelID,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Связь не найдена
		}
		return nil, fmt.Errorf("get connection: %w", err)
	}

	return &conn, nil
}

// ByStudent получает связь по id ученика; у ученика она одна
func (r *ConnectionRepository) ByStudent(ctx context.Context, guildID, studentID int64) (*model.Connection, error) {
	query := `
		SELECT guild_id, teacher_id, student_id, channel_id
		FROM teacher_student
		WHERE guild_id = $1 AND student_id = $2
	`

	var conn model.Connection
	err := r.pool.QueryRow(ctx, query, guildID, studentID).Scan(
		&conn.GuildID,
		&conn.TeacherID,
		&conn.StudentID,
		&conn.ChannelID,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get connection by student: %w", err)
	}

	return &conn, nil
}

// ByTeacher получает все связи учителя
func (r *ConnectionRepository) ByTeacher(ctx context.Context, guildID, teacherID int64) ([]*model.Connection, error) {
	query := `
		SELECT guild_id, teacher_id, student_id, channel_id
		FROM teacher_student
		WHERE guild_id = $1 AND teacher_id = $2
		ORDER BY student_id
	`

	rows, err := r.pool.Query(ctx, query, guildID, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get connections by teacher: %w", err)
	}
	defer rows.Close()

	return scanConnections(rows)
}

// Upsert создаёт связь или обновляет её канал
func (r *ConnectionRepository) Upsert(ctx context.Context, conn *model.Connection) error {
	query := `
		INSERT INTO teacher_student (guild_id, teacher_id, student_id, channel_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, teacher_id, student_id) DO UPDATE SET channel_id = EXCLUDED.channel_id
	`

	_, err := r.pool.Exec(
		ctx, query,
		conn.GuildID,
		conn.TeacherID,
		conn.StudentID,
		conn.ChannelID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate // channel_id уже занят другой парой
		}
		if isCheckViolation(err) {
			return store.ErrInvalid
		}
		return fmt.Errorf("upsert connection: %w", err)
	}

	return nil
}

// Delete удаляет связь учителя и ученика
func (r *ConnectionRepository) Delete(ctx context.Context, guildID, teacherID, studentID int64) error {
	query := `
		DELETE FROM teacher_student
		WHERE guild_id = $1 AND teacher_id = $2 AND student_id = $3
	`

	result, err := r.pool.Exec(ctx, query, guildID, teacherID, studentID)
	if err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

// All возвращает все связи гильдии
func (r *ConnectionRepository) All(ctx context.Context, guildID int64) ([]*model.Connection, error) {
	query := `
		SELECT guild_id, teacher_id, student_id, channel_id
		FROM teacher_student
		WHERE guild_id = $1
		ORDER BY teacher_id, student_id
	`

	rows, err := r.pool.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("get connections: %w", err)
	}
	defer rows.Close()

	return scanConnections(rows)
}

func scanConnections(rows pgx.Rows) ([]*model.Connection, error) {
	var connections []*model.Connection
	for rows.Next() {
		var conn model.Connection
		err := rows.Scan(
			&conn.GuildID,
			&conn.TeacherID,
			&conn.StudentID,
			&conn.ChannelID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		connections = append(connections, &conn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}

	return connections, nil
}
