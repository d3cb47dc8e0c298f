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

// TeacherService управляет жизненным циклом учителей: категория с каналом cmd,
// роль, ник и записи хранилища
type TeacherService struct {
	store   *store.Store
	gateway platform.Gateway
	names   Names
	logger  *zap.Logger
}

func NewTeacherService(st *store.Store, gateway platform.Gateway, names Names, logger *zap.Logger) *TeacherService {
	return &TeacherService{
		store:   st,
		gateway: gateway,
		names:   names,
		logger:  logger,
	}
}

// AssignTeacher назначает участника учителем: создаёт его категорию с каналом
// cmd, сохраняет записи, выдаёт роль и ник, приветствует в cmd.
// Повторный запуск после сбоя находит уже созданные категорию и канал по имени.
func (s *TeacherService) AssignTeacher(ctx context.Context, guildID, memberID int64, realName string) (*model.Teacher, error) {
	member, err := requireMember(ctx, s.gateway, guildID, memberID)
	if err != nil {
		return nil, err
	}

	teacherRole, err := requireRole(ctx, s.gateway, guildID, s.names.TeacherRole)
	if err != nil {
		return nil, err
	}

	if member.HasRole(teacherRole.ID) {
		return nil, apperrors.Usagef("%s ist bereits ein Lehrer", platform.Mention(memberID))
	}

	nick := model.DisplayName(model.KindTeacher, realName)
	overwrites := []platform.Overwrite{
		{PrincipalID: guildID}, // @everyone: канал скрыт
		{PrincipalID: memberID, Read: true, Write: true},
	}

	category, err := s.gateway.FindCategoryByName(ctx, guildID, nick)
	if errors.Is(err, platform.ErrNotFound) {
		category, err = s.gateway.CreateCategory(ctx, guildID, nick, overwrites)
	}
	if err != nil {
		return nil, fmt.Errorf("create teacher category %q: %w", nick, err)
	}

	cmd, err := findChannelInCategory(ctx, s.gateway, guildID, category.ID, s.names.CmdChannel)
	if errors.Is(err, platform.ErrNotFound) {
		cmd, err = s.gateway.CreateChannel(ctx, guildID, s.names.CmdChannel, category.ID, overwrites)
	}
	if err != nil {
		return nil, fmt.Errorf("create cmd channel for %q: %w", nick, err)
	}

	if err := s.store.Users.Upsert(ctx, &model.User{GuildID: guildID, ID: memberID, RealName: realName}); err != nil {
		return nil, fmt.Errorf("save user %d: %w", memberID, err)
	}

	teacher := &model.Teacher{GuildID: guildID, UserID: memberID, TeachingCategory: &category.ID}
	if err := s.store.Teachers.Upsert(ctx, teacher); err != nil {
		return nil, fmt.Errorf("save teacher %d: %w", memberID, err)
	}

	if err := s.gateway.AddRole(ctx, guildID, memberID, teacherRole.ID); err != nil {
		return nil, fmt.Errorf("grant teacher role: %w", err)
	}
	if err := s.gateway.EditNickname(ctx, guildID, memberID, nick); err != nil {
		return nil, fmt.Errorf("set teacher nickname: %w", err)
	}

	welcome := fmt.Sprintf("👋 Willkommen, %s! Hier kannst du ungestört Befehle ausführen.", platform.Mention(memberID))
	if err := s.gateway.SendMessage(ctx, guildID, cmd.ID, welcome); err != nil {
		return nil, fmt.Errorf("send teacher welcome: %w", err)
	}

	s.logger.Info("teacher assigned",
		zap.Int64("guild_id", guildID),
		zap.Int64("teacher_id", memberID),
		zap.Int64("category_id", category.ID))
	return teacher, nil
}

// UnassignTeacher снимает учителя: пока в его категории остаются каналы
// кроме cmd, отказывает; иначе удаляет категорию, запись и роль с ником
func (s *TeacherService) UnassignTeacher(ctx context.Context, guildID, memberID int64) error {
	member, err := requireMember(ctx, s.gateway, guildID, memberID)
	if err != nil {
		return err
	}

	teacherRole, err := requireRole(ctx, s.gateway, guildID, s.names.TeacherRole)
	if err != nil {
		return err
	}

	if !member.HasRole(teacherRole.ID) {
		return apperrors.Usagef("%s ist kein Lehrer", platform.Mention(memberID))
	}

	teacher, err := s.store.Teachers.Get(ctx, guildID, memberID)
	if err != nil {
		return fmt.Errorf("get teacher %d: %w", memberID, err)
	}
	if teacher == nil {
		return apperrors.Codef("teacher %d has role but no store record", memberID)
	}
	if teacher.TeachingCategory == nil {
		return apperrors.Codef("teacher %d has no teaching category on record", memberID)
	}
	categoryID := *teacher.TeachingCategory

	channels, err := s.gateway.ChannelsOfCategory(ctx, guildID, categoryID)
	if err != nil {
		if !errors.Is(err, platform.ErrNotFound) {
			return fmt.Errorf("list channels of category %d: %w", categoryID, err)
		}
		// категории уже нет - пропускаем проверку и сразу чистим записи
		s.logger.Warn("teacher category already missing",
			zap.Int64("guild_id", guildID),
			zap.Int64("teacher_id", memberID),
			zap.Int64("category_id", categoryID))
		channels = nil
	}

	for _, channel := range channels {
		if channel.Name != s.names.CmdChannel {
			return apperrors.Usagef("%s hat noch registrierte Schüler", platform.Mention(memberID))
		}
	}

	// Сначала удалённая сторона, затем записи: потерянную строку
	// восстановить проще, чем найти осиротевшую категорию
	for _, channel := range channels {
		if err := s.gateway.DeleteChannel(ctx, guildID, channel.ID); err != nil {
			if !errors.Is(err, platform.ErrNotFound) {
				return fmt.Errorf("delete channel %d: %w", channel.ID, err)
			}
			s.logger.Warn("channel already deleted",
				zap.Int64("guild_id", guildID),
				zap.Int64("channel_id", channel.ID))
		}
	}
	if err := s.gateway.DeleteCategory(ctx, guildID, categoryID); err != nil {
		if !errors.Is(err, platform.ErrNotFound) {
			return fmt.Errorf("delete category %d: %w", categoryID, err)
		}
	}

	if err := s.store.Teachers.Delete(ctx, guildID, memberID); err != nil {
		return fmt.Errorf("delete teacher %d: %w", memberID, err)
	}

	if err := s.gateway.RemoveRole(ctx, guildID, memberID, teacherRole.ID); err != nil && !errors.Is(err, platform.ErrNotFound) {
		return fmt.Errorf("remove teacher role: %w", err)
	}
	if err := s.gateway.EditNickname(ctx, guildID, memberID, ""); err != nil && !errors.Is(err, platform.ErrNotFound) {
		return fmt.Errorf("clear teacher nickname: %w", err)
	}

	s.logger.Info("teacher unassigned",
		zap.Int64("guild_id", guildID),
		zap.Int64("teacher_id", memberID))
	return nil
}

// RenameTeacher меняет настоящее имя учителя, пересобирает ник и
// переименовывает категорию; возвращает прежнее имя
func (s *TeacherService) RenameTeacher(ctx context.Context, guildID, memberID int64, newName string) (string, error) {
	teacher, err := s.store.Teachers.Get(ctx, guildID, memberID)
	if err != nil {
		return "", fmt.Errorf("get teacher %d: %w", memberID, err)
	}
	if teacher == nil {
		return "", apperrors.Usagef("%s ist kein Lehrer", platform.Mention(memberID))
	}
	if teacher.TeachingCategory == nil {
		return "", apperrors.Codef("teacher %d has no teaching category on record", memberID)
	}

	user, err := s.store.Users.Get(ctx, guildID, memberID)
	if err != nil {
		return "", fmt.Errorf("get user %d: %w", memberID, err)
	}
	if user == nil {
		return "", apperrors.Codef("teacher %d has no user record", memberID)
	}
	oldName := user.RealName

	if err := s.store.Users.Upsert(ctx, &model.User{GuildID: guildID, ID: memberID, RealName: newName}); err != nil {
		return "", fmt.Errorf("save user %d: %w", memberID, err)
	}

	nick := model.DisplayName(model.KindTeacher, newName)
	if err := s.gateway.EditNickname(ctx, guildID, memberID, nick); err != nil {
		if !errors.Is(err, platform.ErrNotFound) {
			return "", fmt.Errorf("set teacher nickname: %w", err)
		}
		s.logger.Warn("member missing during rename",
			zap.Int64("guild_id", guildID),
			zap.Int64("teacher_id", memberID))
	}

	if err := s.gateway.RenameCategory(ctx, guildID, *teacher.TeachingCategory, nick); err != nil {
		if !errors.Is(err, platform.ErrNotFound) {
			return "", fmt.Errorf("rename teacher category: %w", err)
		}
		s.logger.Warn("teacher category missing during rename",
			zap.Int64("guild_id", guildID),
			zap.Int64("teacher_id", memberID),
			zap.Int64("category_id", *teacher.TeachingCategory))
	}

	s.logger.Info("teacher renamed",
		zap.Int64("guild_id", guildID),
		zap.Int64("teacher_id", memberID),
		zap.String("old_name", oldName),
		zap.String("new_name", newName))
	return oldName, nil
}

// EditTeacherInfo обновляет анкету учителя; nil оставляет поле без изменений
func (s *TeacherService) EditTeacherInfo(ctx context.Context, guildID, memberID int64, subjects, phonenumber, availability *string) (*model.Teacher, error) {
	teacher, err := s.store.Teachers.Get(ctx, guildID, memberID)
	if err != nil {
		return nil, fmt.Errorf("get teacher %d: %w", memberID, err)
	}
	if teacher == nil {
		return nil, apperrors.Usagef("%s ist kein Lehrer", platform.Mention(memberID))
	}

	if subjects != nil {
		teacher.Subjects = subjects
	}
	if phonenumber != nil {
		teacher.Phonenumber = phonenumber
	}
	if availability != nil {
		teacher.Availability = availability
	}

	if err := s.store.Teachers.Upsert(ctx, teacher); err != nil {
		return nil, fmt.Errorf("save teacher %d: %w", memberID, err)
	}

	s.logger.Info("teacher info updated",
		zap.Int64("guild_id", guildID),
		zap.Int64("teacher_id", memberID))
	return teacher, nil
}

// Info возвращает запись учителя вместе с базовой записью участника
func (s *TeacherService) Info(ctx context.Context, guildID, memberID int64) (*model.Teacher, *model.User, error) {
	teacher, err := s.store.Teachers.Get(ctx, guildID, memberID)
	if err != nil {
		return nil, nil, fmt.Errorf("get teacher %d: %w", memberID, err)
	}
	if teacher == nil {
		return nil, nil, apperrors.Usagef("%s ist kein Lehrer", platform.Mention(memberID))
	}

	user, err := s.store.Users.Get(ctx, guildID, memberID)
	if err != nil {
		return nil, nil, fmt.Errorf("get user %d: %w", memberID, err)
	}
	return teacher, user, nil
}
