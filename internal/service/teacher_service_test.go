package service

import (
	"context"
	"testing"
)

func TestAssignTeacherCreatesCategoryWithCmd(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	teacher := env.seedTeacher(t, 100, "Ada")
	if teacher.TeachingCategory == nil {
		t.Fatal("expected a teaching category on the teacher record")
	}

	category, err := env.gateway.CategoryByID(ctx, testGuild, *teacher.TeachingCategory)
	if err != nil {
		t.Fatalf("CategoryByID: %v", err)
	}
	if category.Name != "🎓 Ada" {
		t.Errorf("expected category name %q, got %q", "🎓 Ada", category.Name)
	}

	channels, err := env.gateway.ChannelsOfCategory(ctx, testGuild, category.ID)
	if err != nil {
		t.Fatalf("ChannelsOfCategory: %v", err)
	}
	if len(channels) != 1 || channels[0].Name != env.names.CmdChannel {
		t.Fatalf("expected a single cmd channel, got %+v", channels)
	}

	member := env.member(t, 100)
	if member.Nick != "🎓 Ada" {
		t.Errorf("expected nickname %q, got %q", "🎓 Ada", member.Nick)
	}
	if !member.HasRole(env.roleID(t, env.names.TeacherRole)) {
		t.Error("expected the teacher role to be granted")
	}

	if msgs := env.gateway.Messages(testGuild, channels[0].ID); len(msgs) != 1 {
		t.Errorf("expected one welcome message in cmd, got %d", len(msgs))
	}
}

func TestAssignTeacherTwiceFails(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedTeacher(t, 100, "Ada")

	_, err := env.teachers.AssignTeacher(context.Background(), testGuild, 100, "Ada")
	wantUsageError(t, err)
}

func TestAssignTeacherReusesExistingCategory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	// категория и cmd остались от прерванного прогона
	category, err := env.gateway.CreateCategory(ctx, testGuild, "🎓 Ada", nil)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if _, err := env.gateway.CreateChannel(ctx, testGuild, env.names.CmdChannel, category.ID, nil); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}

	teacher := env.seedTeacher(t, 100, "Ada")
	if teacher.TeachingCategory == nil || *teacher.TeachingCategory != category.ID {
		t.Errorf("expected the existing category %d to be adopted, got %v", category.ID, teacher.TeachingCategory)
	}

	channels, err := env.gateway.ChannelsOfCategory(ctx, testGuild, category.ID)
	if err != nil {
		t.Fatalf("ChannelsOfCategory: %v", err)
	}
	if len(channels) != 1 {
		t.Errorf("expected cmd to be reused, got %d channels", len(channels))
	}
}

func TestUnassignTeacherBlockedWhileStudentsRemain(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	env.seedTeacher(t, 100, "Ada")
	env.seedStudent(t, 100, 200, "Ben")

	wantUsageError(t, env.teachers.UnassignTeacher(ctx, testGuild, 100))

	// после отчисления ученика снятие проходит
	if err := env.students.UnassignStudent(ctx, testGuild, 100, 200); err != nil {
		t.Fatalf("UnassignStudent: %v", err)
	}
	if err := env.teachers.UnassignTeacher(ctx, testGuild, 100); err != nil {
		t.Fatalf("UnassignTeacher: %v", err)
	}
}

func TestUnassignTeacherRemovesEverything(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	teacher := env.seedTeacher(t, 100, "Ada")
	categoryID := *teacher.TeachingCategory

	if err := env.teachers.UnassignTeacher(ctx, testGuild, 100); err != nil {
		t.Fatalf("UnassignTeacher: %v", err)
	}

	if _, err := env.gateway.CategoryByID(ctx, testGuild, categoryID); err == nil {
		t.Error("expected the teaching category to be deleted")
	}

	row, err := env.store.Teachers.Get(ctx, testGuild, 100)
	if err != nil {
		t.Fatalf("Teachers.Get: %v", err)
	}
	if row != nil {
		t.Error("expected the teacher record to be deleted")
	}

	member := env.member(t, 100)
	if member.Nick != "" {
		t.Errorf("expected nickname to be cleared, got %q", member.Nick)
	}
	if member.HasRole(env.roleID(t, env.names.TeacherRole)) {
		t.Error("expected the teacher role to be removed")
	}
}

func TestUnassignNonTeacherFails(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.gateway.SeedMember(testGuild, 100, "Ada", false)

	wantUsageError(t, env.teachers.UnassignTeacher(context.Background(), testGuild, 100))
}

func TestRenameTeacher(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	teacher := env.seedTeacher(t, 100, "Ada")

	oldName, err := env.teachers.RenameTeacher(ctx, testGuild, 100, "Ada Lovelace")
	if err != nil {
		t.Fatalf("RenameTeacher: %v", err)
	}
	if oldName != "Ada" {
		t.Errorf("expected old name %q, got %q", "Ada", oldName)
	}

	user, err := env.store.Users.Get(ctx, testGuild, 100)
	if err != nil {
		t.Fatalf("Users.Get: %v", err)
	}
	if user.RealName != "Ada Lovelace" {
		t.Errorf("expected real name %q, got %q", "Ada Lovelace", user.RealName)
	}

	if nick := env.member(t, 100).Nick; nick != "🎓 Ada Lovelace" {
		t.Errorf("expected nickname %q, got %q", "🎓 Ada Lovelace", nick)
	}

	category, err := env.gateway.CategoryByID(ctx, testGuild, *teacher.TeachingCategory)
	if err != nil {
		t.Fatalf("CategoryByID: %v", err)
	}
	if category.Name != "🎓 Ada Lovelace" {
		t.Errorf("expected category name %q, got %q", "🎓 Ada Lovelace", category.Name)
	}
}

func TestEditTeacherInfoKeepsUnsetFields(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	env.seedTeacher(t, 100, "Ada")

	subjects := "Mathematik"
	if _, err := env.teachers.EditTeacherInfo(ctx, testGuild, 100, &subjects, nil, nil); err != nil {
		t.Fatalf("EditTeacherInfo: %v", err)
	}

	phone := "+49 123"
	updated, err := env.teachers.EditTeacherInfo(ctx, testGuild, 100, nil, &phone, nil)
	if err != nil {
		t.Fatalf("EditTeacherInfo: %v", err)
	}
	if updated.Subjects == nil || *updated.Subjects != "Mathematik" {
		t.Errorf("expected subjects to survive the second edit, got %v", updated.Subjects)
	}
	if updated.Phonenumber == nil || *updated.Phonenumber != "+49 123" {
		t.Errorf("expected phonenumber %q, got %v", "+49 123", updated.Phonenumber)
	}
}
