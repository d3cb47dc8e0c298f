package service

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestSortCategoryPinsCmdFirst(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	teacher := env.seedTeacher(t, 100, "Ada")
	categoryID := *teacher.TeachingCategory

	for _, name := range []string{"zoe", "ben", "anna"} {
		if _, err := env.gateway.CreateChannel(ctx, testGuild, name, categoryID, nil); err != nil {
			t.Fatalf("CreateChannel %q: %v", name, err)
		}
	}

	// перемешиваем позиции: cmd в конец
	channels, err := env.gateway.ChannelsOfCategory(ctx, testGuild, categoryID)
	if err != nil {
		t.Fatalf("ChannelsOfCategory: %v", err)
	}
	for i, channel := range channels {
		if err := env.gateway.RepositionChannel(ctx, testGuild, channel.ID, len(channels)-1-i); err != nil {
			t.Fatalf("RepositionChannel: %v", err)
		}
	}

	sorter := NewSortService(env.store, env.gateway, env.names, zap.NewNop())
	if err := sorter.SortCategory(ctx, testGuild, categoryID); err != nil {
		t.Fatalf("SortCategory: %v", err)
	}

	sorted, err := env.gateway.ChannelsOfCategory(ctx, testGuild, categoryID)
	if err != nil {
		t.Fatalf("ChannelsOfCategory: %v", err)
	}
	want := []string{"cmd", "anna", "ben", "zoe"}
	if len(sorted) != len(want) {
		t.Fatalf("expected %d channels, got %d", len(want), len(sorted))
	}
	for i, name := range want {
		if sorted[i].Name != name {
			t.Errorf("position %d: expected %q, got %q", i, name, sorted[i].Name)
		}
	}
}

func TestSortIgnoresForeignCategories(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	foreign, err := env.gateway.CreateCategory(ctx, testGuild, "Textkanäle", nil)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	for _, name := range []string{"zuletzt", "allgemein"} {
		if _, err := env.gateway.CreateChannel(ctx, testGuild, name, foreign.ID, nil); err != nil {
			t.Fatalf("CreateChannel %q: %v", name, err)
		}
	}

	sorter := NewSortService(env.store, env.gateway, env.names, zap.NewNop())
	if err := sorter.SortCategory(ctx, testGuild, foreign.ID); err != nil {
		t.Fatalf("SortCategory: %v", err)
	}

	channels, err := env.gateway.ChannelsOfCategory(ctx, testGuild, foreign.ID)
	if err != nil {
		t.Fatalf("ChannelsOfCategory: %v", err)
	}
	// категория не учительская и не архивная - порядок нетронут
	if channels[0].Name != "zuletzt" || channels[1].Name != "allgemein" {
		t.Errorf("expected foreign category to stay untouched, got %q, %q", channels[0].Name, channels[1].Name)
	}
}

func TestSortGuildCoversArchives(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	bucket, err := env.archive.ActiveBucket(ctx, testGuild)
	if err != nil {
		t.Fatalf("ActiveBucket: %v", err)
	}
	for _, name := range []string{"zoe", "anna"} {
		if _, err := env.gateway.CreateChannel(ctx, testGuild, name, bucket.ID, nil); err != nil {
			t.Fatalf("CreateChannel %q: %v", name, err)
		}
	}

	sorter := NewSortService(env.store, env.gateway, env.names, zap.NewNop())
	if err := sorter.SortGuild(ctx, testGuild); err != nil {
		t.Fatalf("SortGuild: %v", err)
	}

	channels, err := env.gateway.ChannelsOfCategory(ctx, testGuild, bucket.ID)
	if err != nil {
		t.Fatalf("ChannelsOfCategory: %v", err)
	}
	if channels[0].Name != "anna" || channels[1].Name != "zoe" {
		t.Errorf("expected archive sorted alphabetically, got %q, %q", channels[0].Name, channels[1].Name)
	}
}
