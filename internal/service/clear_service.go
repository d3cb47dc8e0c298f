package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/skillbot/internal/platform"
	"github.com/Freeeeeet/skillbot/internal/store"
	"go.uber.org/zap"
)

// ClearService очищает командные каналы учителей от накопившихся сообщений
type ClearService struct {
	store   *store.Store
	gateway platform.Gateway
	names   Names
	logger  *zap.Logger
}

func NewClearService(st *store.Store, gateway platform.Gateway, names Names, logger *zap.Logger) *ClearService {
	return &ClearService{
		store:   st,
		gateway: gateway,
		names:   names,
		logger:  logger,
	}
}

// PurgeCommandChannels чистит каналы cmd во всех учительских категориях.
// Ошибка в одном канале не прерывает обход остальных
func (s *ClearService) PurgeCommandChannels(ctx context.Context, guildID int64) error {
	categories, err := s.store.Teachers.TeachingCategories(ctx, guildID)
	if err != nil {
		return fmt.Errorf("list teaching categories: %w", err)
	}

	purged := 0
	for _, categoryID := range categories {
		channels, err := s.gateway.ChannelsOfCategory(ctx, guildID, categoryID)
		if err != nil {
			if errors.Is(err, platform.ErrNotFound) {
				s.logger.Warn("teaching category missing on platform",
					zap.Int64("guild_id", guildID),
					zap.Int64("category_id", categoryID))
				continue
			}
			return fmt.Errorf("list channels of category %d: %w", categoryID, err)
		}

		for _, channel := range channels {
			if channel.Name != s.names.CmdChannel {
				continue
			}
			if err := s.gateway.PurgeChannel(ctx, guildID, channel.ID); err != nil {
				s.logger.Warn("purge cmd channel failed",
					zap.Int64("guild_id", guildID),
					zap.Int64("channel_id", channel.ID),
					zap.Error(err))
				continue
			}
			purged++
		}
	}

	s.logger.Info("cmd channels purged",
		zap.Int64("guild_id", guildID),
		zap.Int("purged", purged))
	return nil
}
