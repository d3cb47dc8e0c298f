package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/skillbot/internal/apperrors"
	"github.com/Freeeeeet/skillbot/internal/model"
	"github.com/Freeeeeet/skillbot/internal/platform"
	"github.com/Freeeeeet/skillbot/internal/store"
	"go.uber.org/zap"
)

// maxBucketSuffix ограничивает числовой суффикс имени архива; вместе с набором
// пар это даёт сотни комбинаций, которых на практике хватает навсегда
const maxBucketSuffix = 99

// ArchivePair значок и базовое имя для генерации имени архивной категории
type ArchivePair struct {
	Icon     string
	BaseName string
}

// DefaultArchivePairs возвращает принятую ротацию имён архивов
func DefaultArchivePairs() []ArchivePair {
	return []ArchivePair{
		{Icon: "📚", BaseName: "Wissensbereich"},
		{Icon: "🗃️", BaseName: "Wissenskammer"},
		{Icon: "🗄️", BaseName: "Wissensspeicher"},
		{Icon: "📦", BaseName: "Lehrarchiv"},
	}
}

// ArchiveService подбирает архивную категорию со свободным местом
// и заводит новую, когда все заполнены
type ArchiveService struct {
	store    *store.Store
	gateway  platform.Gateway
	pairs    []ArchivePair
	capacity int
	logger   *zap.Logger
}

func NewArchiveService(st *store.Store, gateway platform.Gateway, pairs []ArchivePair, capacity int, logger *zap.Logger) *ArchiveService {
	return &ArchiveService{
		store:    st,
		gateway:  gateway,
		pairs:    pairs,
		capacity: capacity,
		logger:   logger,
	}
}

// ActiveBucket возвращает первый архив со свободным местом в порядке создания;
// если свободных нет, создаёт новый
func (s *ArchiveService) ActiveBucket(ctx context.Context, guildID int64) (*model.ArchiveBucket, error) {
	buckets, err := s.store.Archives.All(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list archive buckets: %w", err)
	}

	for _, bucket := range buckets {
		channels, err := s.gateway.ChannelsOfCategory(ctx, guildID, bucket.ID)
		if err != nil {
			if errors.Is(err, platform.ErrNotFound) {
				// категорию удалили руками; строку найдёт аудит
				s.logger.Warn("archive category missing on platform",
					zap.Int64("guild_id", guildID),
					zap.Int64("category_id", bucket.ID),
					zap.String("name", bucket.Name))
				continue
			}
			return nil, fmt.Errorf("count channels of archive %d: %w", bucket.ID, err)
		}
		if len(channels) < s.capacity {
			return bucket, nil
		}
	}

	return s.createBucket(ctx, guildID)
}

// AddChannel переносит канал в активный архив; при нехватке места
// сам открывает новый архив, канал никогда не отклоняется
func (s *ArchiveService) AddChannel(ctx context.Context, guildID, channelID int64) (*model.ArchiveBucket, error) {
	bucket, err := s.ActiveBucket(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if err := s.gateway.MoveChannel(ctx, guildID, channelID, bucket.ID); err != nil {
		return nil, fmt.Errorf("move channel %d to archive %d: %w", channelID, bucket.ID, err)
	}

	s.logger.Info("channel archived",
		zap.Int64("guild_id", guildID),
		zap.Int64("channel_id", channelID),
		zap.Int64("archive_id", bucket.ID),
		zap.String("archive_name", bucket.Name))
	return bucket, nil
}

// IsArchiveCategory сообщает, числится ли категория архивом
func (s *ArchiveService) IsArchiveCategory(ctx context.Context, guildID, categoryID int64) (bool, error) {
	bucket, err := s.store.Archives.Get(ctx, guildID, categoryID)
	if err != nil {
		return false, fmt.Errorf("get archive bucket: %w", err)
	}
	return bucket != nil, nil
}

func (s *ArchiveService) createBucket(ctx context.Context, guildID int64) (*model.ArchiveBucket, error) {
	name, err := s.nextName(ctx, guildID)
	if err != nil {
		return nil, err
	}

	// Категория могла остаться от первичной настройки сервера или от
	// прерванного прогона - тогда подхватываем её вместо создания новой
	category, err := s.gateway.FindCategoryByName(ctx, guildID, name)
	if errors.Is(err, platform.ErrNotFound) {
		category, err = s.gateway.CreateCategory(ctx, guildID, name, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("create archive category %q: %w", name, err)
	}

	bucket := &model.ArchiveBucket{GuildID: guildID, ID: category.ID, Name: name}
	if err := s.store.Archives.Upsert(ctx, bucket); err != nil {
		return nil, fmt.Errorf("save archive bucket %q: %w", name, err)
	}

	s.logger.Info("archive bucket created",
		zap.Int64("guild_id", guildID),
		zap.Int64("category_id", bucket.ID),
		zap.String("name", name))
	return bucket, nil
}

// nextName перебирает пары значок+имя, добавляя числовой суффикс,
// пока не встретит ещё не занятое имя
func (s *ArchiveService) nextName(ctx context.Context, guildID int64) (string, error) {
	buckets, err := s.store.Archives.All(ctx, guildID)
	if err != nil {
		return "", fmt.Errorf("list archive buckets: %w", err)
	}

	taken := make(map[string]struct{}, len(buckets))
	for _, bucket := range buckets {
		taken[bucket.Name] = struct{}{}
	}

	for _, pair := range s.pairs {
		for count := 1; count <= maxBucketSuffix; count++ {
			name := pair.Icon + " " + pair.BaseName
			if count > 1 {
				name = fmt.Sprintf("%s %d", name, count)
			}
			if _, exists := taken[name]; !exists {
				return name, nil
			}
		}
	}

	return "", apperrors.Codef("archive names exhausted: %d pairs with %d suffixes each", len(s.pairs), maxBucketSuffix)
}
