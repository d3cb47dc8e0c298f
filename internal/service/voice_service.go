package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/skillbot/internal/model"
	"github.com/Freeeeeet/skillbot/internal/store"
	"go.uber.org/zap"
)

// VoiceService считает часы в классе: вход в отслеживаемый голосовой канал
// открывает сессию, выход переводит её длительность в hours_in_class
type VoiceService struct {
	store  *store.Store
	names  Names
	logger *zap.Logger
}

func NewVoiceService(st *store.Store, names Names, logger *zap.Logger) *VoiceService {
	return &VoiceService{
		store:  st,
		names:  names,
		logger: logger,
	}
}

// HandleJoin открывает сессию при входе в класс; другие каналы не отслеживаются.
// Повторный вход перезаписывает незакрытую сессию
func (s *VoiceService) HandleJoin(ctx context.Context, guildID, userID, channelID int64, channelName string, at time.Time) error {
	if channelName != s.names.ClassroomChannel {
		return nil
	}

	session := &model.VoiceSession{
		GuildID:        guildID,
		UserID:         userID,
		VoiceChannelID: channelID,
		JoinTime:       at,
	}
	if err := s.store.VoiceSessions.Upsert(ctx, session); err != nil {
		return fmt.Errorf("save voice session %d: %w", userID, err)
	}

	s.logger.Info("voice session started",
		zap.Int64("guild_id", guildID),
		zap.Int64("user_id", userID),
		zap.Int64("channel_id", channelID))
	return nil
}

// HandleLeave закрывает сессию и зачисляет часы. Без открытой сессии выход
// игнорируется, без записи участника часы пропадают с предупреждением
func (s *VoiceService) HandleLeave(ctx context.Context, guildID, userID int64, channelName string, at time.Time) error {
	if channelName != s.names.ClassroomChannel {
		return nil
	}

	session, err := s.store.VoiceSessions.Get(ctx, guildID, userID)
	if err != nil {
		return fmt.Errorf("get voice session %d: %w", userID, err)
	}
	if session == nil {
		return nil
	}

	hours := session.Elapsed(at)
	if err := s.store.Users.AddHours(ctx, guildID, userID, hours); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("add hours for %d: %w", userID, err)
		}
		s.logger.Warn("hours lost, user record missing",
			zap.Int64("guild_id", guildID),
			zap.Int64("user_id", userID),
			zap.Float64("hours", hours))
	}

	if err := s.store.VoiceSessions.Delete(ctx, guildID, userID); err != nil {
		return fmt.Errorf("delete voice session %d: %w", userID, err)
	}

	s.logger.Info("voice session closed",
		zap.Int64("guild_id", guildID),
		zap.Int64("user_id", userID),
		zap.Float64("hours", hours))
	return nil
}
