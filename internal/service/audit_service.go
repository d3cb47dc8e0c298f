package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Freeeeeet/skillbot/internal/model"
	"github.com/Freeeeeet/skillbot/internal/notify"
	"github.com/Freeeeeet/skillbot/internal/platform"
	"github.com/Freeeeeet/skillbot/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditComponent имя компонента в уведомлениях
const AuditComponent = "DatabaseIntegrity"

// AuditService сверяет хранилище с живым графом платформы и между собой.
// Проверки выполняются по очереди и изолированно: сбой одной превращается
// в находку, остальные продолжаются
type AuditService struct {
	store    *store.Store
	gateway  platform.Gateway
	notifier notify.Notifier

	// пауза между запросами к платформе, чтобы не упереться в лимиты
	lookupDelay time.Duration
	// возраст голосовой сессии, после которого она считается брошенной
	staleSessionAge time.Duration

	logger *zap.Logger
}

func NewAuditService(st *store.Store, gateway platform.Gateway, notifier notify.Notifier, lookupDelay, staleSessionAge time.Duration, logger *zap.Logger) *AuditService {
	return &AuditService{
		store:           st,
		gateway:         gateway,
		notifier:        notifier,
		lookupDelay:     lookupDelay,
		staleSessionAge: staleSessionAge,
		logger:          logger,
	}
}

// auditCheck одна проверка целостности с именем для отчёта о сбое
type auditCheck struct {
	name string
	run  func(ctx context.Context, guildID int64) ([]model.Issue, error)
}

func (s *AuditService) checks() []auditCheck {
	return []auditCheck{
		{"orphaned_subusers", s.checkOrphanedSubusers},
		{"orphaned_teachers", s.checkOrphanedTeachers},
		{"orphaned_students", s.checkOrphanedStudents},
		{"orphaned_connections", s.checkOrphanedConnections},
		{"students_without_connection", s.checkStudentsWithoutConnection},
		{"duplicate_channels", s.checkDuplicateChannels},
		{"subuser_graph", s.checkSubuserGraph},
		{"invalid_data", s.checkInvalidData},
		{"stale_voice_sessions", s.checkStaleVoiceSessions},
		{"missing_members", s.checkMissingMembers},
		{"missing_channels", s.checkMissingChannels},
	}
}

// RunAll прогоняет аудит по всем гильдиям платформы.
// Сбой одной гильдии не прерывает остальные
func (s *AuditService) RunAll(ctx context.Context) error {
	guilds, err := s.gateway.ListGuilds(ctx)
	if err != nil {
		return fmt.Errorf("list guilds: %w", err)
	}

	var failed int
	for _, guildID := range guilds {
		if _, err := s.RunGuild(ctx, guildID, 0); err != nil {
			failed++
			s.logger.Error("guild audit failed",
				zap.Int64("guild_id", guildID),
				zap.Error(err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("audit: %d guilds failed", failed)
	}
	return nil
}

// RunGuild выполняет все проверки одной гильдии и рассылает итог:
// тревогу при находках, отметку об успехе при чистом прогоне.
// contextUserID - инициатор ручного запуска, 0 для планового
func (s *AuditService) RunGuild(ctx context.Context, guildID, contextUserID int64) (*model.Report, error) {
	report := &model.Report{
		RunID:   uuid.NewString(),
		GuildID: guildID,
	}

	for _, check := range s.checks() {
		issues, err := check.run(ctx, guildID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Error("integrity check failed",
				zap.Int64("guild_id", guildID),
				zap.String("check", check.name),
				zap.Error(err))
			report.Issues = append(report.Issues, model.Issue{
				Type:   model.IssueCheckFailed,
				Detail: fmt.Sprintf("check %s failed: %v", check.name, err),
			})
			continue
		}
		report.Issues = append(report.Issues, issues...)
	}

	if len(report.Issues) > 0 {
		s.logger.Warn("integrity issues found",
			zap.Int64("guild_id", guildID),
			zap.String("run_id", report.RunID),
			zap.Int("issues", len(report.Issues)))
		s.notifier.Alert(ctx, report, contextUserID)
	} else {
		s.logger.Info("integrity audit clean",
			zap.Int64("guild_id", guildID),
			zap.String("run_id", report.RunID))
		s.notifier.Success(ctx, guildID, AuditComponent, "All integrity checks passed")
	}
	return report, nil
}

func (s *AuditService) checkOrphanedSubusers(ctx context.Context, guildID int64) ([]model.Issue, error) {
	links, err := s.store.Subusers.All(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list subusers: %w", err)
	}

	var issues []model.Issue
	for _, link := range links {
		primary, err := s.store.Users.Get(ctx, guildID, link.UserID)
		if err != nil {
			return nil, fmt.Errorf("get user %d: %w", link.UserID, err)
		}
		if primary == nil {
			issues = append(issues, model.Issue{
				Type:   model.IssueOrphanSubuser,
				Detail: fmt.Sprintf("subuser link %d -> %d references missing primary user %d", link.UserID, link.SubuserID, link.UserID),
			})
		}

		secondary, err := s.store.Users.Get(ctx, guildID, link.SubuserID)
		if err != nil {
			return nil, fmt.Errorf("get user %d: %w", link.SubuserID, err)
		}
		if secondary == nil {
			issues = append(issues, model.Issue{
				Type:   model.IssueOrphanSubuser,
				Detail: fmt.Sprintf("subuser link %d -> %d references missing subuser %d", link.UserID, link.SubuserID, link.SubuserID),
			})
		}
	}
	return issues, nil
}

func (s *AuditService) checkOrphanedTeachers(ctx context.Context, guildID int64) ([]model.Issue, error) {
	teachers, err := s.store.Teachers.All(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}

	var issues []model.Issue
	for _, teacher := range teachers {
		user, err := s.store.Users.Get(ctx, guildID, teacher.UserID)
		if err != nil {
			return nil, fmt.Errorf("get user %d: %w", teacher.UserID, err)
		}
		if user == nil {
			issues = append(issues, model.Issue{
				Type:   model.IssueOrphanTeacher,
				Detail: fmt.Sprintf("teacher %d has no user record", teacher.UserID),
			})
		}
	}
	return issues, nil
}

func (s *AuditService) checkOrphanedStudents(ctx context.Context, guildID int64) ([]model.Issue, error) {
	students, err := s.store.Students.All(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	var issues []model.Issue
	for _, student := range students {
		user, err := s.store.Users.Get(ctx, guildID, student.UserID)
		if err != nil {
			return nil, fmt.Errorf("get user %d: %w", student.UserID, err)
		}
		if user == nil {
			issues = append(issues, model.Issue{
				Type:   model.IssueOrphanStudent,
				Detail: fmt.Sprintf("student %d has no user record", student.UserID),
			})
		}
	}
	return issues, nil
}

func (s *AuditService) checkOrphanedConnections(ctx context.Context, guildID int64) ([]model.Issue, error) {
	conns, err := s.store.Connections.All(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	var issues []model.Issue
	for _, conn := range conns {
		teacher, err := s.store.Teachers.Get(ctx, guildID, conn.TeacherID)
		if err != nil {
			return nil, fmt.Errorf("get teacher %d: %w", conn.TeacherID, err)
		}
		if teacher == nil {
			issues = append(issues, model.Issue{
				Type:   model.IssueOrphanConnection,
				Detail: fmt.Sprintf("connection %d/%d references missing teacher %d", conn.TeacherID, conn.StudentID, conn.TeacherID),
			})
		}

		student, err := s.store.Students.Get(ctx, guildID, conn.StudentID)
		if err != nil {
			return nil, fmt.Errorf("get student %d: %w", conn.StudentID, err)
		}
		if student == nil {
			issues = append(issues, model.Issue{
				Type:   model.IssueOrphanConnection,
				Detail: fmt.Sprintf("connection %d/%d references missing student %d", conn.TeacherID, conn.StudentID, conn.StudentID),
			})
		}
	}
	return issues, nil
}

// checkStudentsWithoutConnection: ученик существует только вместе со связью
func (s *AuditService) checkStudentsWithoutConnection(ctx context.Context, guildID int64) ([]model.Issue, error) {
	students, err := s.store.Students.All(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	var issues []model.Issue
	for _, student := range students {
		conn, err := s.store.Connections.ByStudent(ctx, guildID, student.UserID)
		if err != nil {
			return nil, fmt.Errorf("find connection of student %d: %w", student.UserID, err)
		}
		if conn == nil {
			issues = append(issues, model.Issue{
				Type:   model.IssueStudentNoChannel,
				Detail: fmt.Sprintf("student %d has no teacher connection", student.UserID),
			})
		}
	}
	return issues, nil
}

func (s *AuditService) checkDuplicateChannels(ctx context.Context, guildID int64) ([]model.Issue, error) {
	conns, err := s.store.Connections.All(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	byChannel := make(map[int64][]*model.Connection)
	for _, conn := range conns {
		byChannel[conn.ChannelID] = append(byChannel[conn.ChannelID], conn)
	}

	channelIDs := make([]int64, 0, len(byChannel))
	for channelID := range byChannel {
		channelIDs = append(channelIDs, channelID)
	}
	sort.Slice(channelIDs, func(i, j int) bool { return channelIDs[i] < channelIDs[j] })

	var issues []model.Issue
	for _, channelID := range channelIDs {
		owners := byChannel[channelID]
		if len(owners) < 2 {
			continue
		}
		pairs := make([]string, 0, len(owners))
		for _, conn := range owners {
			pairs = append(pairs, fmt.Sprintf("%d/%d", conn.TeacherID, conn.StudentID))
		}
		issues = append(issues, model.Issue{
			Type:   model.IssueDuplicateChannel,
			Detail: fmt.Sprintf("channel %d is shared by connections %s", channelID, strings.Join(pairs, ", ")),
		})
	}
	return issues, nil
}

// checkSubuserGraph ищет петли и циклы в графе связанных аккаунтов
func (s *AuditService) checkSubuserGraph(ctx context.Context, guildID int64) ([]model.Issue, error) {
	links, err := s.store.Subusers.All(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list subusers: %w", err)
	}

	var issues []model.Issue
	adjacency := make(map[int64][]int64)
	var nodes []int64
	seen := make(map[int64]bool)
	for _, link := range links {
		if link.UserID == link.SubuserID {
			issues = append(issues, model.Issue{
				Type:   model.IssueSelfSubuser,
				Detail: fmt.Sprintf("user %d is linked to itself", link.UserID),
			})
			continue
		}
		adjacency[link.UserID] = append(adjacency[link.UserID], link.SubuserID)
		for _, id := range []int64{link.UserID, link.SubuserID} {
			if !seen[id] {
				seen[id] = true
				nodes = append(nodes, id)
			}
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	for _, neighbors := range adjacency {
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })
	}

	for _, cycle := range findCycles(nodes, adjacency) {
		parts := make([]string, 0, len(cycle)+1)
		for _, id := range cycle {
			parts = append(parts, fmt.Sprintf("%d", id))
		}
		parts = append(parts, fmt.Sprintf("%d", cycle[0]))
		issues = append(issues, model.Issue{
			Type:   model.IssueSubuserCycle,
			Detail: fmt.Sprintf("circular subuser reference: %s", strings.Join(parts, " -> ")),
		})
	}
	return issues, nil
}

// findCycles обходит граф итеративным DFS и возвращает по одному циклу
// на компоненту; стек рекурсии явный, глубина ограничена числом рёбер
func findCycles(nodes []int64, adjacency map[int64][]int64) [][]int64 {
	const (
		white = 0 // не посещён
		gray  = 1 // в текущем пути
		black = 2 // разобран
	)
	color := make(map[int64]int, len(nodes))
	var cycles [][]int64

	type frame struct {
		node int64
		next int
	}

	for _, root := range nodes {
		if color[root] != white {
			continue
		}

		stack := []frame{{node: root}}
		color[root] = gray
		cycleFound := false

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			neighbors := adjacency[top.node]

			if top.next >= len(neighbors) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}

			next := neighbors[top.next]
			top.next++

			switch color[next] {
			case white:
				color[next] = gray
				stack = append(stack, frame{node: next})
			case gray:
				if cycleFound {
					continue
				}
				cycleFound = true
				var cycle []int64
				start := 0
				for i, f := range stack {
					if f.node == next {
						start = i
						break
					}
				}
				for _, f := range stack[start:] {
					cycle = append(cycle, f.node)
				}
				cycles = append(cycles, cycle)
			}
		}
	}
	return cycles
}

func (s *AuditService) checkInvalidData(ctx context.Context, guildID int64) ([]model.Issue, error) {
	var issues []model.Issue

	users, err := s.store.Users.All(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for _, user := range users {
		if user.ID <= 0 {
			issues = append(issues, model.Issue{
				Type:   model.IssueInvalidData,
				Detail: fmt.Sprintf("user has non-positive id %d", user.ID),
			})
		}
		if user.HoursInClass < 0 {
			issues = append(issues, model.Issue{
				Type:   model.IssueInvalidData,
				Detail: fmt.Sprintf("user %d has negative hours_in_class %.2f", user.ID, user.HoursInClass),
			})
		}
	}

	conns, err := s.store.Connections.All(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	for _, conn := range conns {
		if conn.ChannelID <= 0 {
			issues = append(issues, model.Issue{
				Type:   model.IssueInvalidData,
				Detail: fmt.Sprintf("connection %d/%d has non-positive channel id %d", conn.TeacherID, conn.StudentID, conn.ChannelID),
			})
		}
		if conn.TeacherID == conn.StudentID {
			issues = append(issues, model.Issue{
				Type:   model.IssueInvalidData,
				Detail: fmt.Sprintf("connection %d/%d links a teacher to itself", conn.TeacherID, conn.StudentID),
			})
		}
	}
	return issues, nil
}

func (s *AuditService) checkStaleVoiceSessions(ctx context.Context, guildID int64) ([]model.Issue, error) {
	sessions, err := s.store.VoiceSessions.All(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list voice sessions: %w", err)
	}

	cutoff := time.Now().Add(-s.staleSessionAge)
	var issues []model.Issue
	for _, session := range sessions {
		if session.JoinTime.Before(cutoff) {
			issues = append(issues, model.Issue{
				Type: model.IssueStaleVoiceSession,
				Detail: fmt.Sprintf("voice session of user %d is open since %s, leave event probably missed",
					session.UserID, session.JoinTime.UTC().Format(time.RFC3339)),
			})
		}
	}
	return issues, nil
}

// checkMissingMembers сверяет каждый сохранённый id пользователя с живым
// составом гильдии; запросы разнесены паузой
func (s *AuditService) checkMissingMembers(ctx context.Context, guildID int64) ([]model.Issue, error) {
	referenced := make(map[int64][]string)
	addRef := func(userID int64, source string) {
		referenced[userID] = append(referenced[userID], source)
	}

	users, err := s.store.Users.All(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for _, user := range users {
		addRef(user.ID, "users")
	}

	conns, err := s.store.Connections.All(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	for _, conn := range conns {
		addRef(conn.TeacherID, "teacher_student")
		addRef(conn.StudentID, "teacher_student")
	}

	links, err := s.store.Subusers.All(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list subusers: %w", err)
	}
	for _, link := range links {
		addRef(link.UserID, "subusers")
		addRef(link.SubuserID, "subusers")
	}

	ids := make([]int64, 0, len(referenced))
	for id := range referenced {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var issues []model.Issue
	for _, id := range ids {
		if err := s.pause(ctx); err != nil {
			return nil, err
		}
		_, err := s.gateway.MemberByID(ctx, guildID, id)
		if errors.Is(err, platform.ErrNotFound) {
			sources := dedupe(referenced[id])
			issues = append(issues, model.Issue{
				Type:   model.IssueMissingMember,
				Detail: fmt.Sprintf("user %d (referenced by %s) is not a guild member", id, strings.Join(sources, ", ")),
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get member %d: %w", id, err)
		}
	}
	return issues, nil
}

// checkMissingChannels сверяет сохранённые id каналов и категорий
// с живым графом платформы
func (s *AuditService) checkMissingChannels(ctx context.Context, guildID int64) ([]model.Issue, error) {
	var issues []model.Issue

	conns, err := s.store.Connections.All(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	for _, conn := range conns {
		if err := s.pause(ctx); err != nil {
			return nil, err
		}
		_, err := s.gateway.ChannelByID(ctx, guildID, conn.ChannelID)
		if errors.Is(err, platform.ErrNotFound) {
			issues = append(issues, model.Issue{
				Type:   model.IssueMissingChannel,
				Detail: fmt.Sprintf("channel %d of connection %d/%d does not exist", conn.ChannelID, conn.TeacherID, conn.StudentID),
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get channel %d: %w", conn.ChannelID, err)
		}
	}

	teachers, err := s.store.Teachers.All(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	for _, teacher := range teachers {
		if teacher.TeachingCategory == nil {
			continue
		}
		if err := s.pause(ctx); err != nil {
			return nil, err
		}
		_, err := s.gateway.CategoryByID(ctx, guildID, *teacher.TeachingCategory)
		if errors.Is(err, platform.ErrNotFound) {
			issues = append(issues, model.Issue{
				Type:   model.IssueMissingChannel,
				Detail: fmt.Sprintf("teaching category %d of teacher %d does not exist", *teacher.TeachingCategory, teacher.UserID),
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get category %d: %w", *teacher.TeachingCategory, err)
		}
	}

	buckets, err := s.store.Archives.All(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list archive buckets: %w", err)
	}
	for _, bucket := range buckets {
		if err := s.pause(ctx); err != nil {
			return nil, err
		}
		_, err := s.gateway.CategoryByID(ctx, guildID, bucket.ID)
		if errors.Is(err, platform.ErrNotFound) {
			issues = append(issues, model.Issue{
				Type:   model.IssueMissingChannel,
				Detail: fmt.Sprintf("archive category %d (%s) does not exist", bucket.ID, bucket.Name),
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get category %d: %w", bucket.ID, err)
		}
	}
	return issues, nil
}

// pause выдерживает паузу между запросами к платформе
func (s *AuditService) pause(ctx context.Context) error {
	if s.lookupDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.lookupDelay):
		return nil
	}
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var result []string
	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
