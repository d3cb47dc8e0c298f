package app

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/skillbot/internal/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// GuildLister перечисляет гильдии для обхода; его реализует шлюз платформы
type GuildLister interface {
	ListGuilds(ctx context.Context) ([]int64, error)
}

// Schedules cron-выражения задач обслуживания (6 полей, с секундами)
type Schedules struct {
	Audit string
	Sort  string
	Clear string
}

// MaintenanceScheduler гоняет плановые задачи: аудит целостности,
// сортировку каналов и очистку командных каналов
type MaintenanceScheduler struct {
	cron   *cron.Cron
	guilds GuildLister

	audit *service.AuditService
	sort  *service.SortService
	clear *service.ClearService

	logger *zap.Logger
}

func NewMaintenanceScheduler(guilds GuildLister, audit *service.AuditService, sortSvc *service.SortService, clear *service.ClearService, logger *zap.Logger) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		cron:   cron.New(cron.WithSeconds()),
		guilds: guilds,
		audit:  audit,
		sort:   sortSvc,
		clear:  clear,
		logger: logger,
	}
}

// Start регистрирует задачи по расписаниям и запускает планировщик
func (s *MaintenanceScheduler) Start(ctx context.Context, schedules Schedules) error {
	if _, err := s.cron.AddFunc(schedules.Audit, func() {
		s.runJob(ctx, "integrity_audit", s.audit.RunAll)
	}); err != nil {
		return fmt.Errorf("register audit job: %w", err)
	}

	if _, err := s.cron.AddFunc(schedules.Sort, func() {
		s.runJob(ctx, "channel_sort", s.forEachGuild(s.sort.SortGuild))
	}); err != nil {
		return fmt.Errorf("register sort job: %w", err)
	}

	if _, err := s.cron.AddFunc(schedules.Clear, func() {
		s.runJob(ctx, "cmd_clear", s.forEachGuild(s.clear.PurgeCommandChannels))
	}); err != nil {
		return fmt.Errorf("register clear job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("maintenance scheduler started",
		zap.String("audit_cron", schedules.Audit),
		zap.String("sort_cron", schedules.Sort),
		zap.String("clear_cron", schedules.Clear))
	return nil
}

// Stop останавливает планировщик и дожидается завершения текущих задач
func (s *MaintenanceScheduler) Stop() {
	s.logger.Info("stopping maintenance scheduler")
	<-s.cron.Stop().Done()
	s.logger.Info("maintenance scheduler stopped")
}

func (s *MaintenanceScheduler) runJob(ctx context.Context, name string, job func(context.Context) error) {
	s.logger.Info("maintenance job started", zap.String("job", name))
	if err := job(ctx); err != nil {
		s.logger.Error("maintenance job failed",
			zap.String("job", name),
			zap.Error(err))
		return
	}
	s.logger.Info("maintenance job completed", zap.String("job", name))
}

// forEachGuild превращает задачу по одной гильдии в задачу по всем;
// сбой одной гильдии не прерывает остальные
func (s *MaintenanceScheduler) forEachGuild(job func(ctx context.Context, guildID int64) error) func(context.Context) error {
	return func(ctx context.Context) error {
		guilds, err := s.guilds.ListGuilds(ctx)
		if err != nil {
			return fmt.Errorf("list guilds: %w", err)
		}

		var failed int
		for _, guildID := range guilds {
			if err := job(ctx, guildID); err != nil {
				failed++
				s.logger.Error("guild maintenance failed",
					zap.Int64("guild_id", guildID),
					zap.Error(err))
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d guilds failed", failed)
		}
		return nil
	}
}
