package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

// Полный путь ученика: зачисление, архив, возврат, отчисление,
// затем снятие учителя. После каждого шага прогоняем аудит -
// жизненный цикл не должен оставлять мусора
func TestStudentLifecycleLeavesNoTraces(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	notifier := &recordingNotifier{}
	audit := NewAuditService(env.store, env.gateway, notifier, 0, 24*time.Hour, zap.NewNop())

	assertClean := func(step string) {
		t.Helper()
		report, err := audit.RunGuild(ctx, testGuild, 0)
		if err != nil {
			t.Fatalf("%s: RunGuild: %v", step, err)
		}
		if len(report.Issues) != 0 {
			t.Fatalf("%s: expected a clean audit, got %+v", step, report.Issues)
		}
	}

	teacher := env.seedTeacher(t, 100, "Ada")
	assertClean("after teacher assign")

	conn := env.seedStudent(t, 100, 200, "Ben")
	assertClean("after student assign")

	bucket, err := env.students.StashStudent(ctx, testGuild, 100, 200)
	if err != nil {
		t.Fatalf("StashStudent: %v", err)
	}
	channel := env.channel(t, conn.ChannelID)
	if channel.CategoryID != bucket.ID {
		t.Errorf("expected the channel in archive %d, got category %d", bucket.ID, channel.CategoryID)
	}
	assertClean("after stash")

	if err := env.students.PopStudent(ctx, testGuild, 100, 200); err != nil {
		t.Fatalf("PopStudent: %v", err)
	}
	channel = env.channel(t, conn.ChannelID)
	if channel.CategoryID != *teacher.TeachingCategory {
		t.Errorf("expected the channel back in category %d, got %d", *teacher.TeachingCategory, channel.CategoryID)
	}
	assertClean("after pop")

	if err := env.students.UnassignStudent(ctx, testGuild, 100, 200); err != nil {
		t.Fatalf("UnassignStudent: %v", err)
	}
	assertClean("after student unassign")

	if err := env.teachers.UnassignTeacher(ctx, testGuild, 100); err != nil {
		t.Fatalf("UnassignTeacher: %v", err)
	}
	assertClean("after teacher unassign")

	// от всего цикла не осталось ни строк, ни каналов
	teachers, err := env.store.Teachers.All(ctx, testGuild)
	if err != nil {
		t.Fatalf("Teachers.All: %v", err)
	}
	students, err := env.store.Students.All(ctx, testGuild)
	if err != nil {
		t.Fatalf("Students.All: %v", err)
	}
	conns, err := env.store.Connections.All(ctx, testGuild)
	if err != nil {
		t.Fatalf("Connections.All: %v", err)
	}
	if len(teachers)+len(students)+len(conns) != 0 {
		t.Errorf("expected empty tables, got %d teachers, %d students, %d connections",
			len(teachers), len(students), len(conns))
	}
}
