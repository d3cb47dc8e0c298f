package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/skillbot/internal/app"
	"github.com/Freeeeeet/skillbot/internal/config"
	"github.com/Freeeeeet/skillbot/internal/notify"
	"github.com/Freeeeeet/skillbot/internal/platform"
	"github.com/Freeeeeet/skillbot/internal/platform/memory"
	"github.com/Freeeeeet/skillbot/internal/repository"
	"github.com/Freeeeeet/skillbot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("starting skillbot",
		zap.String("environment", cfg.Environment),
		zap.String("platform", cfg.Platform))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("create connection pool failed", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("create migrator failed", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("apply migrations failed", zap.Error(err))
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("close migrator failed", zap.Error(err))
	}

	st := repository.NewStore(pool)

	var gateway platform.Gateway
	switch cfg.Platform {
	case "memory":
		gateway = memory.New()
	default:
		logger.Fatal("unknown platform gateway", zap.String("platform", cfg.Platform))
	}

	tun := cfg.Tunables
	names := service.Names{
		TeacherRole: tun.Roles.Teacher,
		StudentRole: tun.Roles.Student,
		AdminRole:   tun.Roles.Admin,
		DevRole:     tun.Roles.Dev,

		CmdChannel:       tun.Channels.Cmd,
		LogsChannel:      tun.Channels.Logs,
		AlertsChannel:    tun.Channels.Alerts,
		ClassroomChannel: tun.Channels.Classroom,

		ArchiveCategory: tun.ArchivePairs[0].Icon + " " + tun.ArchivePairs[0].BaseName,
	}

	var notifier notify.Notifier = notify.NewGuildNotifier(
		st, gateway, names.LogsChannel, names.AlertsChannel, names.CmdChannel, logger)
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		api, err := bot.New(cfg.TelegramToken)
		if err != nil {
			logger.Fatal("create telegram client failed", zap.Error(err))
		}
		notifier = notify.NewTelegramNotifier(notifier, api, cfg.TelegramChatID, logger)
		logger.Info("telegram operator alerts enabled", zap.Int64("chat_id", cfg.TelegramChatID))
	}

	auditService := service.NewAuditService(
		st, gateway, notifier, tun.AuditLookupDelay.Std(), tun.StaleVoiceSessionAge.Std(), logger)
	sortService := service.NewSortService(st, gateway, names, logger)
	clearService := service.NewClearService(st, gateway, names, logger)

	scheduler := app.NewMaintenanceScheduler(gateway, auditService, sortService, clearService, logger)
	if err := scheduler.Start(ctx, app.Schedules{
		Audit: tun.AuditCron,
		Sort:  tun.SortCron,
		Clear: tun.ClearCron,
	}); err != nil {
		logger.Fatal("start scheduler failed", zap.Error(err))
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")
	scheduler.Stop()
}
