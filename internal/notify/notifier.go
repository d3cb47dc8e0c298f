// Package notify доставляет служебные уведомления: подробности в канал
// логов, краткие тревоги в канал alerts, персональные пинги в каналы cmd.
// Доставка не возвращает ошибок - сбой уведомления не должен ронять
// операцию, о которой оно сообщает
package notify

import (
	"context"

	"github.com/Freeeeeet/skillbot/internal/model"
)

// Notifier рассылает результаты проверок и системные события.
// contextUserID - инициатор ручного запуска, 0 для плановых запусков
type Notifier interface {
	// Alert разносит отчёт о найденных проблемах по каналам гильдии
	Alert(ctx context.Context, report *model.Report, contextUserID int64)

	// SystemError сообщает о сбое компонента
	SystemError(ctx context.Context, guildID int64, component, message, details string, contextUserID int64)

	// Success фиксирует успешное завершение проверки в канале логов
	Success(ctx context.Context, guildID int64, component, message string)
}
