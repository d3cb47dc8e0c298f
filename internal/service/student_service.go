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

// StudentService управляет жизненным циклом учеников: канал в категории
// учителя, связи, архив и подключённые аккаунты
type StudentService struct {
	store   *store.Store
	gateway platform.Gateway
	archive *ArchiveService
	names   Names
	logger  *zap.Logger
}

func NewStudentService(st *store.Store, gateway platform.Gateway, archive *ArchiveService, names Names, logger *zap.Logger) *StudentService {
	return &StudentService{
		store:   st,
		gateway: gateway,
		archive: archive,
		names:   names,
		logger:  logger,
	}
}

// AssignStudent регистрирует ученика у учителя: канал в категории учителя,
// записи, роль, ник и приветствие. Повторный запуск после сбоя находит уже
// созданный канал по имени. silent подавляет приветствие.
func (s *StudentService) AssignStudent(ctx context.Context, guildID, teacherID, studentID int64, realName, customerID string, major *string, silent bool) (*model.Connection, error) {
	teacherMember, err := requireMember(ctx, s.gateway, guildID, teacherID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.gateway, guildID, studentID); err != nil {
		return nil, err
	}

	teacherRole, err := requireRole(ctx, s.gateway, guildID, s.names.TeacherRole)
	if err != nil {
		return nil, err
	}
	if !teacherMember.HasRole(teacherRole.ID) {
		return nil, apperrors.Usagef("%s ist kein Lehrer", platform.Mention(teacherID))
	}

	existing, err := s.store.Students.Get(ctx, guildID, studentID)
	if err != nil {
		return nil, fmt.Errorf("get student %d: %w", studentID, err)
	}
	if existing != nil {
		return nil, apperrors.Usagef("%s ist bereits ein registrierter Schüler", platform.Mention(studentID))
	}

	teacher, err := s.store.Teachers.Get(ctx, guildID, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher %d: %w", teacherID, err)
	}
	if teacher == nil {
		return nil, apperrors.Codef("teacher %d has role but no store record", teacherID)
	}
	if teacher.TeachingCategory == nil {
		return nil, apperrors.Codef("teacher %d has no teaching category on record", teacherID)
	}
	categoryID := *teacher.TeachingCategory

	studentRole, err := requireRole(ctx, s.gateway, guildID, s.names.StudentRole)
	if err != nil {
		return nil, err
	}

	slug := model.ChannelSlug(realName)
	overwrites := []platform.Overwrite{
		{PrincipalID: guildID}, // @everyone: канал скрыт
		{PrincipalID: studentID, Read: true, Write: true},
		{PrincipalID: teacherID, Read: true, Write: true},
	}

	channel, err := findChannelInCategory(ctx, s.gateway, guildID, categoryID, slug)
	if errors.Is(err, platform.ErrNotFound) {
		channel, err = s.gateway.CreateChannel(ctx, guildID, slug, categoryID, overwrites)
	}
	if err != nil {
		return nil, fmt.Errorf("create student channel %q: %w", slug, err)
	}

	if err := s.store.Users.Upsert(ctx, &model.User{GuildID: guildID, ID: studentID, RealName: realName}); err != nil {
		return nil, fmt.Errorf("save user %d: %w", studentID, err)
	}

	student := &model.Student{GuildID: guildID, UserID: studentID, Major: major}
	if customerID != "" {
		student.CustomerID = &customerID
	}
	if err := s.store.Students.Upsert(ctx, student); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperrors.Usagef("Kundennummer %s ist bereits vergeben", customerID)
		}
		return nil, fmt.Errorf("save student %d: %w", studentID, err)
	}

	conn := &model.Connection{GuildID: guildID, TeacherID: teacherID, StudentID: studentID, ChannelID: channel.ID}
	if err := s.store.Connections.Upsert(ctx, conn); err != nil {
		return nil, fmt.Errorf("save connection %d/%d: %w", teacherID, studentID, err)
	}

	if err := s.gateway.AddRole(ctx, guildID, studentID, studentRole.ID); err != nil {
		return nil, fmt.Errorf("grant student role: %w", err)
	}
	if err := s.gateway.EditNickname(ctx, guildID, studentID, model.DisplayName(model.KindStudent, realName)); err != nil {
		return nil, fmt.Errorf("set student nickname: %w", err)
	}

	if !silent {
		welcome := fmt.Sprintf("👋 Willkommen, %s! Hier kannst du mit deinem Lehrer %s kommunizieren",
			platform.Mention(studentID), platform.Mention(teacherID))
		if err := s.gateway.SendMessage(ctx, guildID, channel.ID, welcome); err != nil {
			return nil, fmt.Errorf("send student welcome: %w", err)
		}
	}

	s.logger.Info("student assigned",
		zap.Int64("guild_id", guildID),
		zap.Int64("teacher_id", teacherID),
		zap.Int64("student_id", studentID),
		zap.Int64("channel_id", channel.ID))
	return conn, nil
}

// UnassignStudent отменяет регистрацию: удаляет канал, записи, роль и ник.
// Подключённые аккаунты отключаются заранее, чтобы не оставить сирот
func (s *StudentService) UnassignStudent(ctx context.Context, guildID, teacherID, studentID int64) error {
	student, err := s.store.Students.Get(ctx, guildID, studentID)
	if err != nil {
		return fmt.Errorf("get student %d: %w", studentID, err)
	}
	if student == nil {
		return apperrors.Usagef("%s ist kein registrierter Schüler", platform.Mention(studentID))
	}

	conn, err := s.store.Connections.Get(ctx, guildID, teacherID, studentID)
	if err != nil {
		return fmt.Errorf("get connection %d/%d: %w", teacherID, studentID, err)
	}
	if conn == nil {
		return apperrors.Usagef("Du kannst nur deine eigenen Schüler abmelden")
	}

	subusers, err := s.store.Subusers.ByPrimary(ctx, guildID, studentID)
	if err != nil {
		return fmt.Errorf("list subusers of %d: %w", studentID, err)
	}
	for _, link := range subusers {
		if err := s.DisconnectStudent(ctx, guildID, teacherID, studentID, link.SubuserID); err != nil {
			return fmt.Errorf("disconnect subuser %d: %w", link.SubuserID, err)
		}
	}

	if err := s.gateway.DeleteChannel(ctx, guildID, conn.ChannelID); err != nil {
		if !errors.Is(err, platform.ErrNotFound) {
			return fmt.Errorf("delete channel %d: %w", conn.ChannelID, err)
		}
		s.logger.Warn("student channel already deleted",
			zap.Int64("guild_id", guildID),
			zap.Int64("channel_id", conn.ChannelID))
	}

	if err := s.store.Connections.Delete(ctx, guildID, teacherID, studentID); err != nil {
		return fmt.Errorf("delete connection %d/%d: %w", teacherID, studentID, err)
	}
	if err := s.store.Students.Delete(ctx, guildID, studentID); err != nil {
		return fmt.Errorf("delete student %d: %w", studentID, err)
	}

	studentRole, err := requireRole(ctx, s.gateway, guildID, s.names.StudentRole)
	if err != nil {
		return err
	}
	if err := s.gateway.RemoveRole(ctx, guildID, studentID, studentRole.ID); err != nil && !errors.Is(err, platform.ErrNotFound) {
		return fmt.Errorf("remove student role: %w", err)
	}
	if err := s.gateway.EditNickname(ctx, guildID, studentID, ""); err != nil && !errors.Is(err, platform.ErrNotFound) {
		return fmt.Errorf("clear student nickname: %w", err)
	}

	s.logger.Info("student unassigned",
		zap.Int64("guild_id", guildID),
		zap.Int64("teacher_id", teacherID),
		zap.Int64("student_id", studentID))
	return nil
}

// RenameStudent меняет настоящее имя ученика, пересобирает ник и
// переименовывает канал; возвращает прежнее имя. Разрешено только
// учителю, у которого этот ученик зарегистрирован
func (s *StudentService) RenameStudent(ctx context.Context, guildID, teacherID, studentID int64, newName string) (string, error) {
	student, err := s.store.Students.Get(ctx, guildID, studentID)
	if err != nil {
		return "", fmt.Errorf("get student %d: %w", studentID, err)
	}
	if student == nil {
		return "", apperrors.Usagef("Du darfst diesen Nutzer nicht umbenennen")
	}

	conn, err := s.store.Connections.Get(ctx, guildID, teacherID, studentID)
	if err != nil {
		return "", fmt.Errorf("get connection %d/%d: %w", teacherID, studentID, err)
	}
	if conn == nil {
		return "", apperrors.Usagef("Du kannst nur deine eigenen Schüler umbenennen")
	}

	user, err := s.store.Users.Get(ctx, guildID, studentID)
	if err != nil {
		return "", fmt.Errorf("get user %d: %w", studentID, err)
	}
	if user == nil {
		return "", apperrors.Codef("student %d has no user record", studentID)
	}
	oldName := user.RealName

	if err := s.store.Users.Upsert(ctx, &model.User{GuildID: guildID, ID: studentID, RealName: newName}); err != nil {
		return "", fmt.Errorf("save user %d: %w", studentID, err)
	}

	nick := model.DisplayName(model.KindStudent, newName)
	if err := s.gateway.EditNickname(ctx, guildID, studentID, nick); err != nil {
		if !errors.Is(err, platform.ErrNotFound) {
			return "", fmt.Errorf("set student nickname: %w", err)
		}
		s.logger.Warn("member missing during rename",
			zap.Int64("guild_id", guildID),
			zap.Int64("student_id", studentID))
	}

	// ник зеркалится и на подключённые аккаунты
	subusers, err := s.store.Subusers.ByPrimary(ctx, guildID, studentID)
	if err != nil {
		return "", fmt.Errorf("list subusers of %d: %w", studentID, err)
	}
	for _, link := range subusers {
		if err := s.gateway.EditNickname(ctx, guildID, link.SubuserID, nick); err != nil && !errors.Is(err, platform.ErrNotFound) {
			return "", fmt.Errorf("set subuser nickname: %w", err)
		}
	}

	if err := s.gateway.RenameChannel(ctx, guildID, conn.ChannelID, model.ChannelSlug(newName)); err != nil {
		if !errors.Is(err, platform.ErrNotFound) {
			return "", fmt.Errorf("rename student channel: %w", err)
		}
		s.logger.Warn("student channel missing during rename",
			zap.Int64("guild_id", guildID),
			zap.Int64("student_id", studentID),
			zap.Int64("channel_id", conn.ChannelID))
	}

	s.logger.Info("student renamed",
		zap.Int64("guild_id", guildID),
		zap.Int64("student_id", studentID),
		zap.String("old_name", oldName),
		zap.String("new_name", newName))
	return oldName, nil
}

// StashStudent убирает канал ученика в активную архивную категорию
func (s *StudentService) StashStudent(ctx context.Context, guildID, teacherID, studentID int64) (*model.ArchiveBucket, error) {
	conn, err := s.store.Connections.Get(ctx, guildID, teacherID, studentID)
	if err != nil {
		return nil, fmt.Errorf("get connection %d/%d: %w", teacherID, studentID, err)
	}
	if conn == nil {
		return nil, apperrors.Usagef("%s ist kein registrierter Schüler", platform.Mention(studentID))
	}

	channel, err := s.gateway.ChannelByID(ctx, guildID, conn.ChannelID)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return nil, apperrors.WrapCode(err, "student channel %d missing", conn.ChannelID)
		}
		return nil, fmt.Errorf("get channel %d: %w", conn.ChannelID, err)
	}

	archived, err := s.archive.IsArchiveCategory(ctx, guildID, channel.CategoryID)
	if err != nil {
		return nil, err
	}
	if archived {
		return nil, apperrors.Usagef("%s ist bereits archiviert", platform.Mention(studentID))
	}

	bucket, err := s.archive.AddChannel(ctx, guildID, conn.ChannelID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("student stashed",
		zap.Int64("guild_id", guildID),
		zap.Int64("student_id", studentID),
		zap.Int64("bucket_id", bucket.ID))
	return bucket, nil
}

// PopStudent возвращает канал ученика из архива обратно в категорию учителя
func (s *StudentService) PopStudent(ctx context.Context, guildID, teacherID, studentID int64) error {
	conn, err := s.store.Connections.Get(ctx, guildID, teacherID, studentID)
	if err != nil {
		return fmt.Errorf("get connection %d/%d: %w", teacherID, studentID, err)
	}
	if conn == nil {
		return apperrors.Usagef("%s ist kein registrierter Schüler", platform.Mention(studentID))
	}

	channel, err := s.gateway.ChannelByID(ctx, guildID, conn.ChannelID)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return apperrors.WrapCode(err, "student channel %d missing", conn.ChannelID)
		}
		return fmt.Errorf("get channel %d: %w", conn.ChannelID, err)
	}

	archived, err := s.archive.IsArchiveCategory(ctx, guildID, channel.CategoryID)
	if err != nil {
		return err
	}
	if !archived {
		return apperrors.Usagef("%s ist nicht archiviert", platform.Mention(studentID))
	}

	teacher, err := s.store.Teachers.Get(ctx, guildID, teacherID)
	if err != nil {
		return fmt.Errorf("get teacher %d: %w", teacherID, err)
	}
	if teacher == nil || teacher.TeachingCategory == nil {
		return apperrors.Codef("teacher %d has no teaching category on record", teacherID)
	}

	if err := s.gateway.MoveChannel(ctx, guildID, conn.ChannelID, *teacher.TeachingCategory); err != nil {
		return fmt.Errorf("move channel %d: %w", conn.ChannelID, err)
	}

	s.logger.Info("student popped",
		zap.Int64("guild_id", guildID),
		zap.Int64("student_id", studentID),
		zap.Int64("category_id", *teacher.TeachingCategory))
	return nil
}

// ConnectStudent подключает второй аккаунт к ученику: доступ в канал,
// роль и зеркальный ник
func (s *StudentService) ConnectStudent(ctx context.Context, guildID, teacherID, studentID, otherID int64) error {
	if otherID == studentID {
		return apperrors.Usagef("Ein Konto kann nicht mit sich selbst verbunden werden")
	}

	if _, err := requireMember(ctx, s.gateway, guildID, otherID); err != nil {
		return err
	}

	otherStudent, err := s.store.Students.Get(ctx, guildID, otherID)
	if err != nil {
		return fmt.Errorf("get student %d: %w", otherID, err)
	}
	if otherStudent != nil {
		return apperrors.Usagef("%s ist bereits ein registrierter Schüler", platform.Mention(otherID))
	}

	link, err := s.store.Subusers.Get(ctx, guildID, studentID, otherID)
	if err != nil {
		return fmt.Errorf("get subuser %d/%d: %w", studentID, otherID, err)
	}
	if link != nil {
		return apperrors.Usagef("%s ist bereits verbunden", platform.Mention(otherID))
	}

	conn, err := s.store.Connections.Get(ctx, guildID, teacherID, studentID)
	if err != nil {
		return fmt.Errorf("get connection %d/%d: %w", teacherID, studentID, err)
	}
	if conn == nil {
		return apperrors.Usagef("%s ist kein registrierter Schüler", platform.Mention(studentID))
	}

	user, err := s.store.Users.Get(ctx, guildID, studentID)
	if err != nil {
		return fmt.Errorf("get user %d: %w", studentID, err)
	}
	if user == nil {
		return apperrors.Codef("student %d has no user record", studentID)
	}

	if err := s.gateway.SetOverwrite(ctx, guildID, conn.ChannelID, platform.Overwrite{
		PrincipalID: otherID, Read: true, Write: true,
	}); err != nil {
		return fmt.Errorf("grant channel access: %w", err)
	}

	if err := s.store.Users.Upsert(ctx, &model.User{GuildID: guildID, ID: otherID, RealName: user.RealName}); err != nil {
		return fmt.Errorf("save user %d: %w", otherID, err)
	}
	if err := s.store.Subusers.Upsert(ctx, &model.Subuser{GuildID: guildID, UserID: studentID, SubuserID: otherID}); err != nil {
		return fmt.Errorf("save subuser %d/%d: %w", studentID, otherID, err)
	}

	studentRole, err := requireRole(ctx, s.gateway, guildID, s.names.StudentRole)
	if err != nil {
		return err
	}
	if err := s.gateway.AddRole(ctx, guildID, otherID, studentRole.ID); err != nil {
		return fmt.Errorf("grant student role: %w", err)
	}
	if err := s.gateway.EditNickname(ctx, guildID, otherID, model.DisplayName(model.KindStudent, user.RealName)); err != nil {
		return fmt.Errorf("set subuser nickname: %w", err)
	}

	s.logger.Info("subuser connected",
		zap.Int64("guild_id", guildID),
		zap.Int64("student_id", studentID),
		zap.Int64("subuser_id", otherID))
	return nil
}

// DisconnectStudent отключает второй аккаунт: доступ, роль и ник снимаются,
// связь удаляется. Отсутствие отдельных артефактов не прерывает разбор
func (s *StudentService) DisconnectStudent(ctx context.Context, guildID, teacherID, studentID, otherID int64) error {
	link, err := s.store.Subusers.Get(ctx, guildID, studentID, otherID)
	if err != nil {
		return fmt.Errorf("get subuser %d/%d: %w", studentID, otherID, err)
	}
	if link == nil {
		return apperrors.Usagef("%s ist nicht mit %s verbunden", platform.Mention(otherID), platform.Mention(studentID))
	}

	conn, err := s.store.Connections.Get(ctx, guildID, teacherID, studentID)
	if err != nil {
		return fmt.Errorf("get connection %d/%d: %w", teacherID, studentID, err)
	}
	if conn != nil {
		if err := s.gateway.RemoveOverwrite(ctx, guildID, conn.ChannelID, otherID); err != nil && !errors.Is(err, platform.ErrNotFound) {
			return fmt.Errorf("revoke channel access: %w", err)
		}
	}

	studentRole, err := requireRole(ctx, s.gateway, guildID, s.names.StudentRole)
	if err != nil {
		return err
	}
	if err := s.gateway.RemoveRole(ctx, guildID, otherID, studentRole.ID); err != nil && !errors.Is(err, platform.ErrNotFound) {
		return fmt.Errorf("remove student role: %w", err)
	}
	if err := s.gateway.EditNickname(ctx, guildID, otherID, ""); err != nil && !errors.Is(err, platform.ErrNotFound) {
		return fmt.Errorf("clear subuser nickname: %w", err)
	}

	if err := s.store.Subusers.Delete(ctx, guildID, studentID, otherID); err != nil {
		return fmt.Errorf("delete subuser %d/%d: %w", studentID, otherID, err)
	}

	s.logger.Info("subuser disconnected",
		zap.Int64("guild_id", guildID),
		zap.Int64("student_id", studentID),
		zap.Int64("subuser_id", otherID))
	return nil
}
