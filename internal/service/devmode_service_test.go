package service

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestDevModeOnlyForTeachers(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	env.seedTeacher(t, 100, "Ada")
	env.gateway.SeedMember(testGuild, 200, "Ben", false)

	devmode := NewDevModeService(env.store, zap.NewNop())

	if err := devmode.Enable(ctx, testGuild, 100); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	wantUsageError(t, devmode.Enable(ctx, testGuild, 200))

	active, err := devmode.Status(ctx, testGuild, 100)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !active {
		t.Error("expected dev mode to be active for the teacher")
	}
}

func TestDevModeDisableIsIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	env.seedTeacher(t, 100, "Ada")
	devmode := NewDevModeService(env.store, zap.NewNop())

	// выключение без включения не ошибка
	if err := devmode.Disable(ctx, testGuild, 100); err != nil {
		t.Fatalf("Disable: %v", err)
	}

	if err := devmode.Enable(ctx, testGuild, 100); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := devmode.Disable(ctx, testGuild, 100); err != nil {
		t.Fatalf("Disable: %v", err)
	}

	active, err := devmode.Status(ctx, testGuild, 100)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if active {
		t.Error("expected dev mode to be off after disable")
	}
}

func TestDevModeActiveUsers(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	env.seedTeacher(t, 100, "Ada")
	env.seedTeacher(t, 101, "Grace")
	devmode := NewDevModeService(env.store, zap.NewNop())

	if err := devmode.Enable(ctx, testGuild, 100); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := devmode.Enable(ctx, testGuild, 101); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := devmode.Disable(ctx, testGuild, 101); err != nil {
		t.Fatalf("Disable: %v", err)
	}

	users, err := devmode.ActiveUsers(ctx, testGuild)
	if err != nil {
		t.Fatalf("ActiveUsers: %v", err)
	}
	if len(users) != 1 || users[0] != 100 {
		t.Errorf("expected only user 100 to stay active, got %v", users)
	}
}
