package service

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestRegisterMemberKeepsKnownName(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	users := NewUserService(env.store, zap.NewNop())

	if err := users.RegisterMember(ctx, testGuild, 200, "Ben Carter"); err != nil {
		t.Fatalf("RegisterMember: %v", err)
	}
	// повторный вход под другим ником не перетирает настоящее имя
	if err := users.RegisterMember(ctx, testGuild, 200, "xXBen2009Xx"); err != nil {
		t.Fatalf("RegisterMember: %v", err)
	}

	user, err := env.store.Users.Get(ctx, testGuild, 200)
	if err != nil {
		t.Fatalf("Users.Get: %v", err)
	}
	if user.RealName != "Ben Carter" {
		t.Errorf("expected real name %q, got %q", "Ben Carter", user.RealName)
	}
}

func TestRemoveMemberIsIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	users := NewUserService(env.store, zap.NewNop())

	if err := users.RegisterMember(ctx, testGuild, 200, "Ben"); err != nil {
		t.Fatalf("RegisterMember: %v", err)
	}
	if err := users.RemoveMember(ctx, testGuild, 200); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if err := users.RemoveMember(ctx, testGuild, 200); err != nil {
		t.Fatalf("second RemoveMember: %v", err)
	}

	user, err := env.store.Users.Get(ctx, testGuild, 200)
	if err != nil {
		t.Fatalf("Users.Get: %v", err)
	}
	if user != nil {
		t.Errorf("expected the record to be gone, got %+v", user)
	}
}

func TestHoursInClassWithoutRecordIsZero(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	users := NewUserService(env.store, zap.NewNop())
	hours, err := users.HoursInClass(context.Background(), testGuild, 999)
	if err != nil {
		t.Fatalf("HoursInClass: %v", err)
	}
	if hours != 0 {
		t.Errorf("expected zero hours for an unknown member, got %v", hours)
	}
}
