package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultTunablesAreValid(t *testing.T) {
	t.Parallel()

	tun := DefaultTunables()
	if err := tun.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if tun.ArchiveCapacity != 50 {
		t.Errorf("expected default capacity 50, got %d", tun.ArchiveCapacity)
	}
	if len(tun.ArchivePairs) != 4 {
		t.Errorf("expected 4 archive pairs, got %d", len(tun.ArchivePairs))
	}
}

// Файл тюнинга перекрывает только названные поля, остальные остаются
// дефолтными
func TestTunablesFileOverlay(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bot.yaml")
	raw := []byte("archive_capacity: 10\naudit_lookup_delay: \"1s\"\nroles:\n  teacher: \"Tutor\"\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tun := DefaultTunables()
	if err := tun.loadFile(path); err != nil {
		t.Fatalf("loadFile: %v", err)
	}

	if tun.ArchiveCapacity != 10 {
		t.Errorf("expected capacity 10, got %d", tun.ArchiveCapacity)
	}
	if tun.AuditLookupDelay.Std() != time.Second {
		t.Errorf("expected lookup delay 1s, got %v", tun.AuditLookupDelay.Std())
	}
	if tun.Roles.Teacher != "Tutor" {
		t.Errorf("expected teacher role %q, got %q", "Tutor", tun.Roles.Teacher)
	}

	// не перечисленное в файле осталось как было
	if tun.Roles.Student != "Schüler" {
		t.Errorf("expected the student role to keep its default, got %q", tun.Roles.Student)
	}
	if tun.AuditCron != "0 0 22 * * 6" {
		t.Errorf("expected the audit cron to keep its default, got %q", tun.AuditCron)
	}
}

func TestTunablesRejectBadDuration(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bot.yaml")
	if err := os.WriteFile(path, []byte("audit_lookup_delay: \"soon\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tun := DefaultTunables()
	if err := tun.loadFile(path); err == nil {
		t.Fatal("expected an error for a malformed duration")
	}
}

func TestTunablesValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Tunables)
	}{
		{"zero capacity", func(tun *Tunables) { tun.ArchiveCapacity = 0 }},
		{"no archive pairs", func(tun *Tunables) { tun.ArchivePairs = nil }},
		{"negative lookup delay", func(tun *Tunables) { tun.AuditLookupDelay = Duration(-time.Second) }},
		{"zero stale age", func(tun *Tunables) { tun.StaleVoiceSessionAge = 0 }},
		{"empty role name", func(tun *Tunables) { tun.Roles.Teacher = "" }},
		{"empty cmd channel", func(tun *Tunables) { tun.Channels.Cmd = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tun := DefaultTunables()
			tc.mutate(&tun)
			if err := tun.validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/skillbot_test")
	t.Setenv("ENV", "production")
	t.Setenv("PLATFORM", "")
	t.Setenv("MIGRATIONS_PATH", "")
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200")
	t.Setenv("BOT_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != "production" {
		t.Errorf("expected environment %q, got %q", "production", cfg.Environment)
	}
	if cfg.Platform != "memory" {
		t.Errorf("expected the platform to default to memory, got %q", cfg.Platform)
	}
	if cfg.MigrationsPath != "migrations" {
		t.Errorf("expected the migrations path default, got %q", cfg.MigrationsPath)
	}
	if cfg.TelegramChatID != -100200 {
		t.Errorf("expected chat id -100200, got %d", cfg.TelegramChatID)
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error when DB_DSN is missing")
	}
}
