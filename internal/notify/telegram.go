package notify

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/skillbot/internal/model"
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

// TelegramNotifier дублирует тревоги и сбои в Telegram-чат дежурных
// поверх обычной доставки. Успехи остаются только в каналах гильдии
type TelegramNotifier struct {
	next   Notifier
	api    *bot.Bot
	chatID int64
	logger *zap.Logger
}

func NewTelegramNotifier(next Notifier, api *bot.Bot, chatID int64, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		next:   next,
		api:    api,
		chatID: chatID,
		logger: logger,
	}
}

func (n *TelegramNotifier) Alert(ctx context.Context, report *model.Report, contextUserID int64) {
	n.next.Alert(ctx, report, contextUserID)

	counts := report.CountByType()
	types := make([]string, 0, len(counts))
	for issueType := range counts {
		types = append(types, string(issueType))
	}
	sort.Strings(types)

	text := fmt.Sprintf("🚨 Integrity alert: guild %d, run %s, %d issues",
		report.GuildID, report.RunID, len(report.Issues))
	for _, issueType := range types {
		text += fmt.Sprintf("\n- %s: %d", issueType, counts[model.IssueType(issueType)])
	}
	n.send(ctx, text)
}

func (n *TelegramNotifier) SystemError(ctx context.Context, guildID int64, component, message, details string, contextUserID int64) {
	n.next.SystemError(ctx, guildID, component, message, details, contextUserID)

	n.send(ctx, fmt.Sprintf("❌ %s: %s (guild %d)", component, message, guildID))
}

func (n *TelegramNotifier) Success(ctx context.Context, guildID int64, component, message string) {
	n.next.Success(ctx, guildID, component, message)
}

func (n *TelegramNotifier) send(ctx context.Context, text string) {
	_, err := n.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   text,
	})
	if err != nil {
		n.logger.Warn("send telegram notification failed",
			zap.Int64("chat_id", n.chatID),
			zap.Error(err))
	}
}
