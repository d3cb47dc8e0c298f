package service

import (
	"context"
	"testing"

	"github.com/Freeeeeet/skillbot/internal/apperrors"
	"github.com/Freeeeeet/skillbot/internal/model"
	"github.com/Freeeeeet/skillbot/internal/platform"
	"github.com/Freeeeeet/skillbot/internal/platform/memory"
	"github.com/Freeeeeet/skillbot/internal/store"
	"github.com/Freeeeeet/skillbot/internal/store/memstore"
	"go.uber.org/zap"
)

const testGuild int64 = 1

// testEnv общий стенд сервисных тестов: шлюз и хранилище в памяти,
// роли сервера уже созданы
type testEnv struct {
	gateway *memory.Gateway
	store   *store.Store
	names   Names

	teachers *TeacherService
	students *StudentService
	archive  *ArchiveService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gw := memory.New()
	gw.EnsureGuild(testGuild)

	st := memstore.New()
	names := DefaultNames()
	logger := zap.NewNop()

	ctx := context.Background()
	for _, role := range []string{names.TeacherRole, names.StudentRole, names.AdminRole} {
		if _, err := gw.CreateRole(ctx, testGuild, role, platform.Permissions{}); err != nil {
			t.Fatalf("CreateRole %q: %v", role, err)
		}
	}

	archive := NewArchiveService(st, gw, DefaultArchivePairs(), 50, logger)
	return &testEnv{
		gateway:  gw,
		store:    st,
		names:    names,
		teachers: NewTeacherService(st, gw, names, logger),
		students: NewStudentService(st, gw, archive, names, logger),
		archive:  archive,
	}
}

// seedTeacher создаёт участника и проводит его через назначение учителем
func (e *testEnv) seedTeacher(t *testing.T, memberID int64, realName string) *model.Teacher {
	t.Helper()

	e.gateway.SeedMember(testGuild, memberID, realName, false)
	teacher, err := e.teachers.AssignTeacher(context.Background(), testGuild, memberID, realName)
	if err != nil {
		t.Fatalf("AssignTeacher %q: %v", realName, err)
	}
	return teacher
}

// seedStudent создаёт участника и регистрирует его учеником учителя
func (e *testEnv) seedStudent(t *testing.T, teacherID, studentID int64, realName string) *model.Connection {
	t.Helper()

	e.gateway.SeedMember(testGuild, studentID, realName, false)
	conn, err := e.students.AssignStudent(context.Background(), testGuild, teacherID, studentID, realName, "", nil, true)
	if err != nil {
		t.Fatalf("AssignStudent %q: %v", realName, err)
	}
	return conn
}

// wantUsageError проверяет, что ошибка именно пользовательская
func wantUsageError(t *testing.T, err error) {
	t.Helper()

	if err == nil {
		t.Fatal("expected a usage error, got nil")
	}
	if !apperrors.IsUsage(err) {
		t.Fatalf("expected a usage error, got %v", err)
	}
}

// wantCodeError проверяет, что ошибка сигналит о сломанном инварианте
func wantCodeError(t *testing.T, err error) {
	t.Helper()

	if err == nil {
		t.Fatal("expected a code error, got nil")
	}
	if !apperrors.IsCode(err) {
		t.Fatalf("expected a code error, got %v", err)
	}
}

func (e *testEnv) member(t *testing.T, memberID int64) *platform.Member {
	t.Helper()

	member, err := e.gateway.MemberByID(context.Background(), testGuild, memberID)
	if err != nil {
		t.Fatalf("MemberByID %d: %v", memberID, err)
	}
	return member
}

func (e *testEnv) channel(t *testing.T, channelID int64) *platform.Channel {
	t.Helper()

	channel, err := e.gateway.ChannelByID(context.Background(), testGuild, channelID)
	if err != nil {
		t.Fatalf("ChannelByID %d: %v", channelID, err)
	}
	return channel
}

func (e *testEnv) roleID(t *testing.T, name string) int64 {
	t.Helper()

	role, err := e.gateway.FindRoleByName(context.Background(), testGuild, name)
	if err != nil {
		t.Fatalf("FindRoleByName %q: %v", name, err)
	}
	return role.ID
}
