package store

import (
	"context"
	"errors"

	"github.com/Freeeeeet/skillbot/internal/model"
)

// Ошибки хранилища
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	ErrInvalid   = errors.New("record violates a constraint")
)

// Users базовые записи участников; удаление идемпотентно
type Users interface {
	Get(ctx context.Context, guildID, userID int64) (*model.User, error) // (nil, nil) если записи нет
	Upsert(ctx context.Context, user *model.User) error                  // у существующей записи меняет только real_name

	Delete(ctx context.Context, guildID, userID int64) error
	All(ctx context.Context, guildID int64) ([]*model.User, error)
	AddHours(ctx context.Context, guildID, userID int64, hours float64) error
}

type Teachers interface {
	Get(ctx context.Context, guildID, userID int64) (*model.Teacher, error)
	Upsert(ctx context.Context, teacher *model.Teacher) error
	Delete(ctx context.Context, guildID, userID int64) error // ErrNotFound, если записи нет
	All(ctx context.Context, guildID int64) ([]*model.Teacher, error)
	TeachingCategories(ctx context.Context, guildID int64) ([]int64, error)
}

type Students interface {
	Get(ctx context.Context, guildID, userID int64) (*model.Student, error)
	Upsert(ctx context.Context, student *model.Student) error
	Delete(ctx context.Context, guildID, userID int64) error // ErrNotFound, если записи нет
	All(ctx context.Context, guildID int64) ([]*model.Student, error)
}

type Connections interface {
	Get(ctx context.Context, guildID, teacherID, studentID int64) (*model.Connection, error)
	ByStudent(ctx context.Context, guildID, studentID int64) (*model.Connection, error)
	ByTeacher(ctx context.Context, guildID, teacherID int64) ([]*model.Connection, error)
	Upsert(ctx context.Context, conn *model.Connection) error // ErrDuplicate при чужом channel_id
	Delete(ctx context.Context, guildID, teacherID, studentID int64) error
	All(ctx context.Context, guildID int64) ([]*model.Connection, error)
}

type Subusers interface {
	Get(ctx context.Context, guildID, userID, subuserID int64) (*model.Subuser, error)
	ByPrimary(ctx context.Context, guildID, userID int64) ([]*model.Subuser, error)
	BySubuser(ctx context.Context, guildID, subuserID int64) ([]*model.Subuser, error)
	Upsert(ctx context.Context, link *model.Subuser) error // ErrInvalid при self-link
	Delete(ctx context.Context, guildID, userID, subuserID int64) error
	All(ctx context.Context, guildID int64) ([]*model.Subuser, error)
}

type Archives interface {
	Get(ctx context.Context, guildID, categoryID int64) (*model.ArchiveBucket, error)
	ByName(ctx context.Context, guildID int64, name string) (*model.ArchiveBucket, error)
	All(ctx context.Context, guildID int64) ([]*model.ArchiveBucket, error) // в порядке создания
	Upsert(ctx context.Context, bucket *model.ArchiveBucket) error          // ErrDuplicate при чужом имени
	Delete(ctx context.Context, guildID, categoryID int64) error
}

type VoiceSessions interface {
	Get(ctx context.Context, guildID, userID int64) (*model.VoiceSession, error)
	Upsert(ctx context.Context, session *model.VoiceSession) error
	Delete(ctx context.Context, guildID, userID int64) error
	All(ctx context.Context, guildID int64) ([]*model.VoiceSession, error)
}

type DevMode interface {
	IsActive(ctx context.Context, guildID, userID int64) (bool, error)
	Set(ctx context.Context, guildID, userID int64, active bool) error
	ActiveUsers(ctx context.Context, guildID int64) ([]int64, error)
}

// Store объединяет репозитории всех сущностей одной гильдии
type Store struct {
	Users         Users
	Teachers      Teachers
	Students      Students
	Connections   Connections
	Subusers      Subusers
	Archives      Archives
	VoiceSessions VoiceSessions
	DevMode       DevMode
}
