package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/skillbot/internal/store"
)

// NewStore собирает хранилище на PostgreSQL
func NewStore(pool *pgxpool.Pool) *store.Store {
	return &store.Store{
		Users:         NewUserRepository(pool),
		Teachers:      NewTeacherRepository(pool),
		Students:      NewStudentRepository(pool),
		Connections:   NewConnectionRepository(pool),
		Subusers:      NewSubuserRepository(pool),
		Archives:      NewArchiveRepository(pool),
		VoiceSessions: NewVoiceSessionRepository(pool),
		DevMode:       NewDevModeRepository(pool),
	}
}
