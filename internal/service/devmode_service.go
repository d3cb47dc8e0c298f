package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/skillbot/internal/apperrors"
	"github.com/Freeeeeet/skillbot/internal/store"
	"go.uber.org/zap"
)

// DevModeService переключает режим разработчика: активные получают
// уведомления о сбоях в свои каналы cmd
type DevModeService struct {
	store  *store.Store
	logger *zap.Logger
}

func NewDevModeService(st *store.Store, logger *zap.Logger) *DevModeService {
	return &DevModeService{
		store:  st,
		logger: logger,
	}
}

// Enable включает режим разработчика; доступно только учителям
func (s *DevModeService) Enable(ctx context.Context, guildID, userID int64) error {
	teacher, err := s.store.Teachers.Get(ctx, guildID, userID)
	if err != nil {
		return fmt.Errorf("get teacher %d: %w", userID, err)
	}
	if teacher == nil {
		return apperrors.Usagef("Nur Lehrer können den Entwicklermodus aktivieren")
	}

	if err := s.store.DevMode.Set(ctx, guildID, userID, true); err != nil {
		return fmt.Errorf("enable dev mode for %d: %w", userID, err)
	}

	s.logger.Info("dev mode enabled",
		zap.Int64("guild_id", guildID),
		zap.Int64("user_id", userID))
	return nil
}

// Disable выключает режим разработчика; выключенный режим не ошибка
func (s *DevModeService) Disable(ctx context.Context, guildID, userID int64) error {
	if err := s.store.DevMode.Set(ctx, guildID, userID, false); err != nil {
		return fmt.Errorf("disable dev mode for %d: %w", userID, err)
	}

	s.logger.Info("dev mode disabled",
		zap.Int64("guild_id", guildID),
		zap.Int64("user_id", userID))
	return nil
}

// Status сообщает, активен ли режим у пользователя
func (s *DevModeService) Status(ctx context.Context, guildID, userID int64) (bool, error) {
	active, err := s.store.DevMode.IsActive(ctx, guildID, userID)
	if err != nil {
		return false, fmt.Errorf("get dev mode of %d: %w", userID, err)
	}
	return active, nil
}

// ActiveUsers возвращает всех пользователей с включённым режимом
func (s *DevModeService) ActiveUsers(ctx context.Context, guildID int64) ([]int64, error) {
	users, err := s.store.DevMode.ActiveUsers(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list active dev users: %w", err)
	}
	return users, nil
}
