package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/skillbot/internal/apperrors"
	"github.com/Freeeeeet/skillbot/internal/platform"
)

// Names имена ролей и служебных каналов гильдии; значения настраиваются конфигом
type Names struct {
	TeacherRole string
	StudentRole string
	AdminRole   string
	DevRole     string

	CmdChannel       string
	LogsChannel      string
	AlertsChannel    string
	ClassroomChannel string

	ArchiveCategory string
}

// DefaultNames возвращает набор имён, принятый на учебных серверах
func DefaultNames() Names {
	return Names{
		TeacherRole: "Lehrer",
		StudentRole: "Schüler",
		AdminRole:   "Admin",
		DevRole:     "Dev",

		CmdChannel:       "cmd",
		LogsChannel:      "logs",
		AlertsChannel:    "alerts",
		ClassroomChannel: "klassenzimmer",

		ArchiveCategory: "📚 Wissensbereich",
	}
}

// requireRole находит роль по имени; её отсутствие - сломанная разметка сервера
func requireRole(ctx context.Context, gw platform.Gateway, guildID int64, name string) (*platform.Role, error) {
	role, err := gw.FindRoleByName(ctx, guildID, name)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return nil, apperrors.WrapCode(err, "role %q not found in guild %d", name, guildID)
		}
		return nil, fmt.Errorf("find role %q: %w", name, err)
	}
	return role, nil
}

// requireMember получает участника; его отсутствие при явном id - внутренняя ошибка
func requireMember(ctx context.Context, gw platform.Gateway, guildID, memberID int64) (*platform.Member, error) {
	member, err := gw.MemberByID(ctx, guildID, memberID)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return nil, apperrors.WrapCode(err, "member %d not found in guild %d", memberID, guildID)
		}
		return nil, fmt.Errorf("get member %d: %w", memberID, err)
	}
	return member, nil
}

// findChannelInCategory ищет канал по имени внутри одной категории
func findChannelInCategory(ctx context.Context, gw platform.Gateway, guildID, categoryID int64, name string) (*platform.Channel, error) {
	channels, err := gw.ChannelsOfCategory(ctx, guildID, categoryID)
	if err != nil {
		return nil, err
	}
	for _, channel := range channels {
		if channel.Name == name {
			return channel, nil
		}
	}
	return nil, fmt.Errorf("channel %q in category %d: %w", name, categoryID, platform.ErrNotFound)
}
