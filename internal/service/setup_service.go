package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/skillbot/internal/platform"
	"go.uber.org/zap"
)

// Имена категорий и каналов стартовой разметки сервера
const (
	categoryInformation = "Informationen"
	categoryText        = "Textkanäle"
	categoryVoice       = "Sprachkanäle"

	channelNewMembers  = "neue-mitglieder"
	channelGeneral     = "allgemein"
	channelTeacherChat = "lehrer-chat"
	channelLounge      = "lounge"
)

// SetupService размечает сервер: роли с правами, категории, служебные
// каналы и правила доступа. Повторный запуск ничего не дублирует
type SetupService struct {
	gateway platform.Gateway
	names   Names
	logger  *zap.Logger
}

func NewSetupService(gateway platform.Gateway, names Names, logger *zap.Logger) *SetupService {
	return &SetupService{
		gateway: gateway,
		names:   names,
		logger:  logger,
	}
}

func studentPermissions() platform.Permissions {
	return platform.Permissions{
		ReadMessages: true,
		SendMessages: true,
		Connect:      true,
		Speak:        true,
		Stream:       true,
	}
}

func teacherPermissions() platform.Permissions {
	perms := studentPermissions()
	perms.ManageMessages = true
	perms.MentionEveryone = true
	perms.MoveMembers = true
	perms.MuteMembers = true
	return perms
}

func adminPermissions() platform.Permissions {
	return platform.Permissions{Administrator: true}
}

// Provision создаёт недостающие роли, категории и каналы и приводит права
// к эталону. Права переустанавливаются и для уже существующих ролей
func (s *SetupService) Provision(ctx context.Context, guildID int64) error {
	studentRole, err := s.ensureRole(ctx, guildID, s.names.StudentRole, studentPermissions())
	if err != nil {
		return err
	}
	teacherRole, err := s.ensureRole(ctx, guildID, s.names.TeacherRole, teacherPermissions())
	if err != nil {
		return err
	}
	adminRole, err := s.ensureRole(ctx, guildID, s.names.AdminRole, adminPermissions())
	if err != nil {
		return err
	}

	information, err := s.ensureCategory(ctx, guildID, categoryInformation)
	if err != nil {
		return err
	}
	text, err := s.ensureCategory(ctx, guildID, categoryText)
	if err != nil {
		return err
	}
	voice, err := s.ensureCategory(ctx, guildID, categoryVoice)
	if err != nil {
		return err
	}
	// первую архивную категорию заводим заранее, дальше их создаёт аллокатор
	if _, err := s.ensureCategory(ctx, guildID, s.names.ArchiveCategory); err != nil {
		return err
	}

	newMembers, err := s.ensureTextChannel(ctx, guildID, channelNewMembers, information.ID)
	if err != nil {
		return err
	}
	logs, err := s.ensureTextChannel(ctx, guildID, s.names.LogsChannel, information.ID)
	if err != nil {
		return err
	}
	alerts, err := s.ensureTextChannel(ctx, guildID, s.names.AlertsChannel, information.ID)
	if err != nil {
		return err
	}
	general, err := s.ensureTextChannel(ctx, guildID, channelGeneral, text.ID)
	if err != nil {
		return err
	}
	teacherChat, err := s.ensureTextChannel(ctx, guildID, channelTeacherChat, text.ID)
	if err != nil {
		return err
	}
	lounge, err := s.ensureVoiceChannel(ctx, guildID, channelLounge, voice.ID)
	if err != nil {
		return err
	}
	classroom, err := s.ensureVoiceChannel(ctx, guildID, s.names.ClassroomChannel, voice.ID)
	if err != nil {
		return err
	}

	// neue-mitglieder видят только новички без ролей
	if err := s.applyOverwrites(ctx, guildID, newMembers.ID, []platform.Overwrite{
		{PrincipalID: guildID, Read: true},
		{PrincipalID: studentRole.ID},
		{PrincipalID: teacherRole.ID},
	}); err != nil {
		return err
	}

	// общий канал открыт всем, ученики только читают
	if err := s.applyOverwrites(ctx, guildID, general.ID, []platform.Overwrite{
		{PrincipalID: guildID, Read: true, Write: true},
		{PrincipalID: studentRole.ID, Read: true},
	}); err != nil {
		return err
	}

	if err := s.applyOverwrites(ctx, guildID, teacherChat.ID, []platform.Overwrite{
		{PrincipalID: studentRole.ID},
		{PrincipalID: teacherRole.ID, Read: true, Write: true},
		{PrincipalID: adminRole.ID},
	}); err != nil {
		return err
	}

	auditTrail := []platform.Overwrite{
		{PrincipalID: guildID},
		{PrincipalID: studentRole.ID},
		{PrincipalID: teacherRole.ID},
		{PrincipalID: adminRole.ID, Read: true},
	}
	if err := s.applyOverwrites(ctx, guildID, logs.ID, auditTrail); err != nil {
		return err
	}
	if err := s.applyOverwrites(ctx, guildID, alerts.ID, auditTrail); err != nil {
		return err
	}

	// в lounge ученики слушают, в класс их заводит учитель
	if err := s.applyOverwrites(ctx, guildID, lounge.ID, []platform.Overwrite{
		{PrincipalID: studentRole.ID, Read: true},
	}); err != nil {
		return err
	}
	if err := s.applyOverwrites(ctx, guildID, classroom.ID, []platform.Overwrite{
		{PrincipalID: studentRole.ID},
	}); err != nil {
		return err
	}

	s.logger.Info("guild provisioned", zap.Int64("guild_id", guildID))
	return nil
}

func (s *SetupService) ensureRole(ctx context.Context, guildID int64, name string, perms platform.Permissions) (*platform.Role, error) {
	role, err := s.gateway.FindRoleByName(ctx, guildID, name)
	if errors.Is(err, platform.ErrNotFound) {
		role, err = s.gateway.CreateRole(ctx, guildID, name, perms)
		if err != nil {
			return nil, fmt.Errorf("create role %q: %w", name, err)
		}
		s.logger.Info("role created",
			zap.Int64("guild_id", guildID),
			zap.String("role", name))
		return role, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find role %q: %w", name, err)
	}

	if err := s.gateway.EditRolePermissions(ctx, guildID, role.ID, perms); err != nil {
		return nil, fmt.Errorf("edit role %q permissions: %w", name, err)
	}
	return role, nil
}

func (s *SetupService) ensureCategory(ctx context.Context, guildID int64, name string) (*platform.Category, error) {
	category, err := s.gateway.FindCategoryByName(ctx, guildID, name)
	if errors.Is(err, platform.ErrNotFound) {
		category, err = s.gateway.CreateCategory(ctx, guildID, name, nil)
		if err != nil {
			return nil, fmt.Errorf("create category %q: %w", name, err)
		}
		s.logger.Info("category created",
			zap.Int64("guild_id", guildID),
			zap.String("category", name))
		return category, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category %q: %w", name, err)
	}
	return category, nil
}

func (s *SetupService) ensureTextChannel(ctx context.Context, guildID int64, name string, categoryID int64) (*platform.Channel, error) {
	channel, err := s.gateway.FindChannelByName(ctx, guildID, name)
	if errors.Is(err, platform.ErrNotFound) {
		channel, err = s.gateway.CreateChannel(ctx, guildID, name, categoryID, nil)
		if err != nil {
			return nil, fmt.Errorf("create channel %q: %w", name, err)
		}
		s.logger.Info("channel created",
			zap.Int64("guild_id", guildID),
			zap.String("channel", name))
		return channel, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find channel %q: %w", name, err)
	}
	return channel, nil
}

func (s *SetupService) ensureVoiceChannel(ctx context.Context, guildID int64, name string, categoryID int64) (*platform.Channel, error) {
	channel, err := s.gateway.FindChannelByName(ctx, guildID, name)
	if errors.Is(err, platform.ErrNotFound) {
		channel, err = s.gateway.CreateVoiceChannel(ctx, guildID, name, categoryID)
		if err != nil {
			return nil, fmt.Errorf("create voice channel %q: %w", name, err)
		}
		s.logger.Info("voice channel created",
			zap.Int64("guild_id", guildID),
			zap.String("channel", name))
		return channel, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find voice channel %q: %w", name, err)
	}
	return channel, nil
}

func (s *SetupService) applyOverwrites(ctx context.Context, guildID, channelID int64, overwrites []platform.Overwrite) error {
	for _, overwrite := range overwrites {
		if err := s.gateway.SetOverwrite(ctx, guildID, channelID, overwrite); err != nil {
			return fmt.Errorf("set overwrite on channel %d: %w", channelID, err)
		}
	}
	return nil
}
