package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Freeeeeet/skillbot/internal/platform"
	"github.com/Freeeeeet/skillbot/internal/store"
	"go.uber.org/zap"
)

// SortService упорядочивает каналы в категориях учителей и архива:
// cmd первым, остальные по алфавиту
type SortService struct {
	store   *store.Store
	gateway platform.Gateway
	names   Names
	logger  *zap.Logger
}

func NewSortService(st *store.Store, gateway platform.Gateway, names Names, logger *zap.Logger) *SortService {
	return &SortService{
		store:   st,
		gateway: gateway,
		names:   names,
		logger:  logger,
	}
}

// SortCategory сортирует одну категорию. Категории вне учительских и
// архивных пропускаются молча, перемещаются только каналы не на своём месте
func (s *SortService) SortCategory(ctx context.Context, guildID, categoryID int64) error {
	allowed, err := s.allowedCategory(ctx, guildID, categoryID)
	if err != nil {
		return err
	}
	if !allowed {
		s.logger.Debug("category not sortable",
			zap.Int64("guild_id", guildID),
			zap.Int64("category_id", categoryID))
		return nil
	}

	channels, err := s.gateway.ChannelsOfCategory(ctx, guildID, categoryID)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			s.logger.Warn("category missing on platform",
				zap.Int64("guild_id", guildID),
				zap.Int64("category_id", categoryID))
			return nil
		}
		return fmt.Errorf("list channels of category %d: %w", categoryID, err)
	}

	sort.SliceStable(channels, func(i, j int) bool {
		a, b := channels[i], channels[j]
		if (a.Name == s.names.CmdChannel) != (b.Name == s.names.CmdChannel) {
			return a.Name == s.names.CmdChannel
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})

	moved := 0
	for index, channel := range channels {
		if channel.Position == index {
			continue
		}
		if err := s.gateway.RepositionChannel(ctx, guildID, channel.ID, index); err != nil {
			if errors.Is(err, platform.ErrNotFound) {
				s.logger.Warn("channel vanished during sort",
					zap.Int64("guild_id", guildID),
					zap.Int64("channel_id", channel.ID))
				continue
			}
			return fmt.Errorf("reposition channel %d: %w", channel.ID, err)
		}
		moved++
	}

	if moved > 0 {
		s.logger.Info("category sorted",
			zap.Int64("guild_id", guildID),
			zap.Int64("category_id", categoryID),
			zap.Int("moved", moved))
	}
	return nil
}

// SortGuild сортирует все учительские и архивные категории сервера.
// Ошибка в одной категории не прерывает остальные
func (s *SortService) SortGuild(ctx context.Context, guildID int64) error {
	categories, err := s.sortableCategories(ctx, guildID)
	if err != nil {
		return err
	}

	var failed int
	for _, categoryID := range categories {
		if err := s.SortCategory(ctx, guildID, categoryID); err != nil {
			failed++
			s.logger.Error("sort category failed",
				zap.Int64("guild_id", guildID),
				zap.Int64("category_id", categoryID),
				zap.Error(err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("sort guild %d: %d categories failed", guildID, failed)
	}
	return nil
}

func (s *SortService) allowedCategory(ctx context.Context, guildID, categoryID int64) (bool, error) {
	teaching, err := s.store.Teachers.TeachingCategories(ctx, guildID)
	if err != nil {
		return false, fmt.Errorf("list teaching categories: %w", err)
	}
	for _, id := range teaching {
		if id == categoryID {
			return true, nil
		}
	}

	bucket, err := s.store.Archives.Get(ctx, guildID, categoryID)
	if err != nil {
		return false, fmt.Errorf("get archive bucket %d: %w", categoryID, err)
	}
	return bucket != nil, nil
}

func (s *SortService) sortableCategories(ctx context.Context, guildID int64) ([]int64, error) {
	teaching, err := s.store.Teachers.TeachingCategories(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list teaching categories: %w", err)
	}

	buckets, err := s.store.Archives.All(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list archive buckets: %w", err)
	}

	categories := make([]int64, 0, len(teaching)+len(buckets))
	categories = append(categories, teaching...)
	for _, bucket := range buckets {
		categories = append(categories, bucket.ID)
	}
	return categories, nil
}
