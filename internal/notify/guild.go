package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/skillbot/internal/model"
	"github.com/Freeeeeet/skillbot/internal/platform"
	"github.com/Freeeeeet/skillbot/internal/store"
	"go.uber.org/zap"
)

// Подписи тревог целостности
const (
	integrityIssueType = "Database Integrity Issues"
	integrityComponent = "DatabaseIntegrity"

	// длиннее в сообщение канала не помещается
	maxDetailsLen = 1000
)

// GuildNotifier доставляет уведомления в каналы самой гильдии.
// Сбой любой отправки логируется и не прерывает остальные
type GuildNotifier struct {
	store   *store.Store
	gateway platform.Gateway

	logsChannel   string
	alertsChannel string
	cmdChannel    string

	logger *zap.Logger
}

func NewGuildNotifier(st *store.Store, gateway platform.Gateway, logsChannel, alertsChannel, cmdChannel string, logger *zap.Logger) *GuildNotifier {
	return &GuildNotifier{
		store:         st,
		gateway:       gateway,
		logsChannel:   logsChannel,
		alertsChannel: alertsChannel,
		cmdChannel:    cmdChannel,
		logger:        logger,
	}
}

// Alert разворачивает отчёт тремя волнами: подробности в logs, сводка
// в alerts, пинги активным разработчикам и инициатору в каналы cmd
func (n *GuildNotifier) Alert(ctx context.Context, report *model.Report, contextUserID int64) {
	count := len(report.Issues)

	details := renderReport(report)
	if len(details) > maxDetailsLen {
		details = details[:maxDetailsLen] + "..."
	}

	logText := fmt.Sprintf(
		"🚨 **Database Integrity Issue Detected**\n"+
			"**Issue Type:** %s\n"+
			"**Component:** %s\n"+
			"**Total Issues:** %d\n"+
			"**Details:**\n```\n%s\n```\n"+
			"*Action required: Manual review and cleanup needed*",
		integrityIssueType, integrityComponent, count, details)
	n.sendToNamed(ctx, report.GuildID, n.logsChannel, logText)

	alertText := fmt.Sprintf(
		"🚨 **System Alert**\n"+
			"**Issue Type:** %s\n"+
			"**Component:** %s\n"+
			"**Issues Found:** %d\n"+
			"*Check logs channel for detailed information*",
		integrityIssueType, integrityComponent, count)
	n.sendToNamed(ctx, report.GuildID, n.alertsChannel, alertText)

	n.notifyCommandChannels(ctx, report.GuildID, integrityIssueType, integrityComponent, count, contextUserID)
}

// SystemError сообщает о сбое компонента: запись в logs, сводка в alerts
// и пинги в каналы cmd
func (n *GuildNotifier) SystemError(ctx context.Context, guildID int64, component, message, details string, contextUserID int64) {
	if len(details) > maxDetailsLen {
		details = details[:maxDetailsLen] + "..."
	}

	logText := fmt.Sprintf(
		"❌ **[ERROR] %s: %s**\n"+
			"**Details:** %s\n"+
			"**Component:** %s",
		component, message, details, component)
	n.sendToNamed(ctx, guildID, n.logsChannel, logText)

	alertText := fmt.Sprintf(
		"🚨 **System Alert**\n"+
			"**Issue Type:** System Error\n"+
			"**Component:** %s\n"+
			"**Issues Found:** 1\n"+
			"*Check logs channel for detailed information*",
		component)
	n.sendToNamed(ctx, guildID, n.alertsChannel, alertText)

	n.notifyCommandChannels(ctx, guildID, "System Error", component, 1, contextUserID)
}

// Success отмечает успешное завершение только в канале логов
func (n *GuildNotifier) Success(ctx context.Context, guildID int64, component, message string) {
	text := fmt.Sprintf("✅ **[SUCCESS] %s: %s**", component, message)
	n.sendToNamed(ctx, guildID, n.logsChannel, text)
}

// notifyCommandChannels пингует активных разработчиков в их каналах cmd;
// инициатор без режима разработчика получает отдельное уведомление
func (n *GuildNotifier) notifyCommandChannels(ctx context.Context, guildID int64, issueType, component string, count int, contextUserID int64) {
	devUsers, err := n.store.DevMode.ActiveUsers(ctx, guildID)
	if err != nil {
		n.logger.Warn("list active dev users failed",
			zap.Int64("guild_id", guildID),
			zap.Error(err))
		devUsers = nil
	}

	contextIsDev := false
	for _, userID := range devUsers {
		if userID == contextUserID {
			contextIsDev = true
		}
		text := fmt.Sprintf(
			"🚨 **Developer Alert** %s\n"+
				"**Issue:** %s detected by %s\n"+
				"**Count:** %d issues found\n"+
				"**Action:** Check alerts and logs channels for details",
			platform.Mention(userID), issueType, component, count)
		n.sendToCmd(ctx, guildID, userID, text)
	}

	if contextUserID == 0 || contextIsDev {
		return
	}

	// инициатору пишем только в его собственный канал cmd, то есть учителю
	teacher, err := n.store.Teachers.Get(ctx, guildID, contextUserID)
	if err != nil {
		n.logger.Warn("get teacher failed",
			zap.Int64("guild_id", guildID),
			zap.Int64("user_id", contextUserID),
			zap.Error(err))
		return
	}
	if teacher == nil {
		return
	}

	text := fmt.Sprintf(
		"⚠️ **Issue Notification** %s\n"+
			"**Issue:** %s detected by %s\n"+
			"**Count:** %d issues found\n"+
			"**Action:** Check logs channel for details",
		platform.Mention(contextUserID), issueType, component, count)
	if len(devUsers) > 0 {
		text += "\n*The dev team has been informed as well.*"
	}
	n.sendToCmd(ctx, guildID, contextUserID, text)
}

// sendToNamed шлёт сообщение в канал гильдии по имени
func (n *GuildNotifier) sendToNamed(ctx context.Context, guildID int64, name, text string) {
	channel, err := n.gateway.FindChannelByName(ctx, guildID, name)
	if err != nil {
		n.logger.Warn("notification channel not found",
			zap.Int64("guild_id", guildID),
			zap.String("channel", name),
			zap.Error(err))
		return
	}
	if err := n.gateway.SendMessage(ctx, guildID, channel.ID, text); err != nil {
		n.logger.Warn("send notification failed",
			zap.Int64("guild_id", guildID),
			zap.String("channel", name),
			zap.Error(err))
	}
}

// sendToCmd шлёт сообщение в канал cmd учителя
func (n *GuildNotifier) sendToCmd(ctx context.Context, guildID, userID int64, text string) {
	teacher, err := n.store.Teachers.Get(ctx, guildID, userID)
	if err != nil || teacher == nil || teacher.TeachingCategory == nil {
		if err != nil {
			n.logger.Warn("get teacher failed",
				zap.Int64("guild_id", guildID),
				zap.Int64("user_id", userID),
				zap.Error(err))
		}
		return
	}

	channels, err := n.gateway.ChannelsOfCategory(ctx, guildID, *teacher.TeachingCategory)
	if err != nil {
		if !errors.Is(err, platform.ErrNotFound) {
			n.logger.Warn("list teacher channels failed",
				zap.Int64("guild_id", guildID),
				zap.Int64("user_id", userID),
				zap.Error(err))
		}
		return
	}

	for _, channel := range channels {
		if channel.Name != n.cmdChannel {
			continue
		}
		if err := n.gateway.SendMessage(ctx, guildID, channel.ID, text); err != nil {
			n.logger.Warn("send cmd notification failed",
				zap.Int64("guild_id", guildID),
				zap.Int64("channel_id", channel.ID),
				zap.Error(err))
		}
		return
	}
}

// renderReport собирает текст отчёта: находки группируются по типу
// в порядке первого появления
func renderReport(report *model.Report) string {
	var order []model.IssueType
	grouped := make(map[model.IssueType][]string)
	for _, issue := range report.Issues {
		if _, seen := grouped[issue.Type]; !seen {
			order = append(order, issue.Type)
		}
		grouped[issue.Type] = append(grouped[issue.Type], issue.Detail)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Guild %d", report.GuildID)
	for _, issueType := range order {
		details := grouped[issueType]
		fmt.Fprintf(&b, "\n\n=== %s (%d issues) ===", issueType, len(details))
		for _, detail := range details {
			fmt.Fprintf(&b, "\n- %s", detail)
		}
	}
	return b.String()
}
