package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/skillbot/internal/model"
	"github.com/Freeeeeet/skillbot/internal/store"
	"go.uber.org/zap"
)

// UserService ведёт базовые записи участников при входе и выходе с сервера
type UserService struct {
	store  *store.Store
	logger *zap.Logger
}

func NewUserService(st *store.Store, logger *zap.Logger) *UserService {
	return &UserService{
		store:  st,
		logger: logger,
	}
}

// RegisterMember заводит запись участника при входе на сервер.
// Для уже известного участника настоящее имя не трогаем
func (s *UserService) RegisterMember(ctx context.Context, guildID, memberID int64, name string) error {
	existing, err := s.store.Users.Get(ctx, guildID, memberID)
	if err != nil {
		return fmt.Errorf("get user %d: %w", memberID, err)
	}
	if existing != nil {
		s.logger.Info("member rejoined",
			zap.Int64("guild_id", guildID),
			zap.Int64("user_id", memberID),
			zap.String("real_name", existing.RealName))
		return nil
	}

	if err := s.store.Users.Upsert(ctx, &model.User{GuildID: guildID, ID: memberID, RealName: name}); err != nil {
		return fmt.Errorf("save user %d: %w", memberID, err)
	}

	s.logger.Info("member registered",
		zap.Int64("guild_id", guildID),
		zap.Int64("user_id", memberID),
		zap.String("real_name", name))
	return nil
}

// RemoveMember удаляет запись участника после выхода; повторный вызов безопасен
func (s *UserService) RemoveMember(ctx context.Context, guildID, memberID int64) error {
	existing, err := s.store.Users.Get(ctx, guildID, memberID)
	if err != nil {
		return fmt.Errorf("get user %d: %w", memberID, err)
	}
	if existing == nil {
		return nil
	}

	if err := s.store.Users.Delete(ctx, guildID, memberID); err != nil {
		return fmt.Errorf("delete user %d: %w", memberID, err)
	}

	s.logger.Info("member removed",
		zap.Int64("guild_id", guildID),
		zap.Int64("user_id", memberID),
		zap.String("real_name", existing.RealName),
		zap.Float64("hours_in_class", existing.HoursInClass))
	return nil
}

// HoursInClass возвращает накопленные часы участника; без записи - ноль
func (s *UserService) HoursInClass(ctx context.Context, guildID, memberID int64) (float64, error) {
	user, err := s.store.Users.Get(ctx, guildID, memberID)
	if err != nil {
		return 0, fmt.Errorf("get user %d: %w", memberID, err)
	}
	if user == nil {
		return 0, nil
	}
	return user.HoursInClass, nil
}
