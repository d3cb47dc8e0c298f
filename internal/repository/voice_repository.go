package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/skillbot/internal/model"
	"github.com/Freeeeeet/skillbot/internal/store"
)

type VoiceSessionRepository struct {
	pool *pgxpool.Pool
}

func NewVoiceSessionRepository(pool *pgxpool.Pool) *VoiceSessionRepository {
	return &VoiceSessionRepository{pool: pool}
}

// Get получает активную голосовую сессию пользователя
func (r *VoiceSessionRepository) Get(ctx context.Context, guildID, userID int64) (*model.VoiceSession, error) {
	query := `
		SELECT guild_id, user_id, voice_channel_id, join_time
		FROM voice_sessions
		WHERE guild_id = $1 AND user_id = $2
	`

	var session model.VoiceSession
	err := r.pool.QueryRow(ctx, query, guildID, userID).Scan(
		&session.GuildID,
		&session.UserID,
		&session.VoiceChannelID,
		&session.JoinTime,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Сессии нет
		}
		return nil, fmt.Errorf("get voice session: %w", err)
	}

	return &session, nil
}

// Upsert создаёт сессию или заменяет существующую
func (r *VoiceSessionRepository) Upsert(ctx context.Context, session *model.VoiceSession) error {
	query := `
		INSERT INTO voice_sessions (guild_id, user_id, voice_channel_id, join_time)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, user_id) DO UPDATE SET
			voice_channel_id = EXCLUDED.voice_channel_id,
			join_time = EXCLUDED.join_time
	`

	_, err := r.pool.Exec(
		ctx, query,
		session.GuildID,
		session.UserID,
		session.VoiceChannelID,
		session.JoinTime,
	)

	if err != nil {
		return fmt.Errorf("upsert voice session: %w", err)
	}

	return nil
}

// Delete удаляет сессию пользователя
func (r *VoiceSessionRepository) Delete(ctx context.Context, guildID, userID int64) error {
	query := `DELETE FROM voice_sessions WHERE guild_id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, guildID, userID)
	if err != nil {
		return fmt.Errorf("delete voice session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

// All возвращает все активные сессии гильдии
func (r *VoiceSessionRepository) All(ctx context.Context, guildID int64) ([]*model.VoiceSession, error) {
	query := `
		SELECT guild_id, user_id, voice_channel_id, join_time
		FROM voice_sessions
		WHERE guild_id = $1
		ORDER BY user_id
	`

	rows, err := r.pool.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("get voice sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.VoiceSession
	for rows.Next() {
		var session model.VoiceSession
		err := rows.Scan(
			&session.GuildID,
			&session.UserID,
			&session.VoiceChannelID,
			&session.JoinTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scan voice session: %w", err)
		}
		sessions = append(sessions, &session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate voice sessions: %w", err)
	}

	return sessions, nil
}
