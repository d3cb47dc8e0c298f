package service

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"
)

// newArchiveEnv стенд с маленькой ёмкостью, чтобы ротация наступала быстро
func newArchiveEnv(t *testing.T, capacity int) (*testEnv, *ArchiveService) {
	t.Helper()

	env := newTestEnv(t)
	archive := NewArchiveService(env.store, env.gateway, DefaultArchivePairs(), capacity, zap.NewNop())
	return env, archive
}

func TestActiveBucketCreatesFirstArchive(t *testing.T) {
	t.Parallel()

	env, archive := newArchiveEnv(t, 50)
	ctx := context.Background()

	bucket, err := archive.ActiveBucket(ctx, testGuild)
	if err != nil {
		t.Fatalf("ActiveBucket: %v", err)
	}
	if bucket.Name != "📚 Wissensbereich" {
		t.Errorf("expected first archive name %q, got %q", "📚 Wissensbereich", bucket.Name)
	}

	category, err := env.gateway.CategoryByID(ctx, testGuild, bucket.ID)
	if err != nil {
		t.Fatalf("CategoryByID: %v", err)
	}
	if category.Name != bucket.Name {
		t.Errorf("expected category name %q, got %q", bucket.Name, category.Name)
	}

	// повторный вызов возвращает тот же архив, пока есть место
	again, err := archive.ActiveBucket(ctx, testGuild)
	if err != nil {
		t.Fatalf("ActiveBucket: %v", err)
	}
	if again.ID != bucket.ID {
		t.Errorf("expected the same bucket %d, got %d", bucket.ID, again.ID)
	}
}

func TestAddChannelNeverOverfillsBucket(t *testing.T) {
	t.Parallel()

	env, archive := newArchiveEnv(t, 2)
	ctx := context.Background()

	// каналы живут вне категорий, пока аллокатор их не заберёт
	staging, err := env.gateway.CreateCategory(ctx, testGuild, "staging", nil)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	var buckets []int64
	for i := 0; i < 5; i++ {
		channel, err := env.gateway.CreateChannel(ctx, testGuild, fmt.Sprintf("schüler-%d", i), staging.ID, nil)
		if err != nil {
			t.Fatalf("CreateChannel: %v", err)
		}
		bucket, err := archive.AddChannel(ctx, testGuild, channel.ID)
		if err != nil {
			t.Fatalf("AddChannel: %v", err)
		}
		buckets = append(buckets, bucket.ID)
	}

	// 5 каналов при ёмкости 2 дают три архива
	stored, err := env.store.Archives.All(ctx, testGuild)
	if err != nil {
		t.Fatalf("Archives.All: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 archive buckets, got %d", len(stored))
	}

	for _, bucket := range stored {
		channels, err := env.gateway.ChannelsOfCategory(ctx, testGuild, bucket.ID)
		if err != nil {
			t.Fatalf("ChannelsOfCategory: %v", err)
		}
		if len(channels) > 2 {
			t.Errorf("bucket %q holds %d channels, capacity is 2", bucket.Name, len(channels))
		}
	}

	// первые два канала попали в первый архив, третий открыл новый
	if buckets[0] != buckets[1] || buckets[1] == buckets[2] {
		t.Errorf("unexpected bucket rotation: %v", buckets)
	}
}

func TestArchiveNamesStayUnique(t *testing.T) {
	t.Parallel()

	env, archive := newArchiveEnv(t, 1)
	ctx := context.Background()

	staging, err := env.gateway.CreateCategory(ctx, testGuild, "staging", nil)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	for i := 0; i < 4; i++ {
		channel, err := env.gateway.CreateChannel(ctx, testGuild, fmt.Sprintf("schüler-%d", i), staging.ID, nil)
		if err != nil {
			t.Fatalf("CreateChannel: %v", err)
		}
		if _, err := archive.AddChannel(ctx, testGuild, channel.ID); err != nil {
			t.Fatalf("AddChannel: %v", err)
		}
	}

	stored, err := env.store.Archives.All(ctx, testGuild)
	if err != nil {
		t.Fatalf("Archives.All: %v", err)
	}

	seen := make(map[string]bool)
	for _, bucket := range stored {
		if seen[bucket.Name] {
			t.Errorf("duplicate archive name %q", bucket.Name)
		}
		seen[bucket.Name] = true
	}
}

// Категория с нужным именем могла остаться от стартовой разметки сервера
func TestActiveBucketAdoptsExistingCategory(t *testing.T) {
	t.Parallel()

	env, archive := newArchiveEnv(t, 50)
	ctx := context.Background()

	existing, err := env.gateway.CreateCategory(ctx, testGuild, "📚 Wissensbereich", nil)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	bucket, err := archive.ActiveBucket(ctx, testGuild)
	if err != nil {
		t.Fatalf("ActiveBucket: %v", err)
	}
	if bucket.ID != existing.ID {
		t.Errorf("expected the existing category %d to be adopted, got %d", existing.ID, bucket.ID)
	}
}

// Строка об удалённой руками категории не должна ломать выбор архива
func TestActiveBucketSkipsMissingCategory(t *testing.T) {
	t.Parallel()

	env, archive := newArchiveEnv(t, 50)
	ctx := context.Background()

	first, err := archive.ActiveBucket(ctx, testGuild)
	if err != nil {
		t.Fatalf("ActiveBucket: %v", err)
	}
	if err := env.gateway.DeleteCategory(ctx, testGuild, first.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}

	second, err := archive.ActiveBucket(ctx, testGuild)
	if err != nil {
		t.Fatalf("ActiveBucket: %v", err)
	}
	if second.ID == first.ID {
		t.Error("expected a fresh bucket instead of the deleted one")
	}
}
