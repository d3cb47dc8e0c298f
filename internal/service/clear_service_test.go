package service

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestPurgeCommandChannels(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	teacher := env.seedTeacher(t, 100, "Ada")
	conn := env.seedStudent(t, 100, 200, "Ben")

	channels, err := env.gateway.ChannelsOfCategory(ctx, testGuild, *teacher.TeachingCategory)
	if err != nil {
		t.Fatalf("ChannelsOfCategory: %v", err)
	}
	var cmdID int64
	for _, channel := range channels {
		if channel.Name == env.names.CmdChannel {
			cmdID = channel.ID
		}
	}
	if cmdID == 0 {
		t.Fatal("cmd channel not found")
	}
	for _, text := range []string{"!schüler liste", "!umbenennen Ben"} {
		if err := env.gateway.SendMessage(ctx, testGuild, cmdID, text); err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
	}
	if err := env.gateway.SendMessage(ctx, testGuild, conn.ChannelID, "Hausaufgabe bis Freitag"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	clear := NewClearService(env.store, env.gateway, env.names, zap.NewNop())
	if err := clear.PurgeCommandChannels(ctx, testGuild); err != nil {
		t.Fatalf("PurgeCommandChannels: %v", err)
	}

	if msgs := env.gateway.Messages(testGuild, cmdID); len(msgs) != 0 {
		t.Errorf("expected cmd to be empty, got %d messages", len(msgs))
	}
	// ученический канал не трогаем
	if msgs := env.gateway.Messages(testGuild, conn.ChannelID); len(msgs) == 0 {
		t.Error("expected the student channel to keep its messages")
	}
}

// Категория, удалённая руками, не должна срывать обход остальных
func TestPurgeSurvivesMissingCategory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	broken := env.seedTeacher(t, 100, "Ada")
	intact := env.seedTeacher(t, 101, "Grace")

	if err := env.gateway.DeleteCategory(ctx, testGuild, *broken.TeachingCategory); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}

	channels, err := env.gateway.ChannelsOfCategory(ctx, testGuild, *intact.TeachingCategory)
	if err != nil {
		t.Fatalf("ChannelsOfCategory: %v", err)
	}
	if err := env.gateway.SendMessage(ctx, testGuild, channels[0].ID, "!hilfe"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	clear := NewClearService(env.store, env.gateway, env.names, zap.NewNop())
	if err := clear.PurgeCommandChannels(ctx, testGuild); err != nil {
		t.Fatalf("PurgeCommandChannels: %v", err)
	}
	if msgs := env.gateway.Messages(testGuild, channels[0].ID); len(msgs) != 0 {
		t.Errorf("expected the intact cmd to be purged, got %d messages", len(msgs))
	}
}
