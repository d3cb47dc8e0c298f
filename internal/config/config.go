package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config настройки процесса из окружения плюс тюнинг из YAML-файла
type Config struct {
	DBDSN          string
	Environment    string
	Platform       string // шлюз платформы: пока поддерживается только memory
	MigrationsPath string

	// Telegram-чат дежурных; пустой токен отключает дублирование тревог
	TelegramToken  string
	TelegramChatID int64

	Tunables Tunables
}

// Tunables рабочие константы, вынесенные из кода: ёмкость архива, ротация
// имён, имена ролей и каналов, расписания обслуживания
type Tunables struct {
	ArchiveCapacity int           `yaml:"archive_capacity"`
	ArchivePairs    []ArchivePair `yaml:"archive_pairs"`

	Roles    RoleNames    `yaml:"roles"`
	Channels ChannelNames `yaml:"channels"`

	// 6-польные cron-выражения (с секундами)
	AuditCron string `yaml:"audit_cron"`
	SortCron  string `yaml:"sort_cron"`
	ClearCron string `yaml:"clear_cron"`

	AuditLookupDelay     Duration `yaml:"audit_lookup_delay"`
	StaleVoiceSessionAge Duration `yaml:"stale_voice_session_age"`
}

// Duration длительность, разбираемая из YAML в записи вида "250ms" или "24h"
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std возвращает стандартную длительность
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ArchivePair значок и базовое имя для генерации имён архивных категорий
type ArchivePair struct {
	Icon     string `yaml:"icon"`
	BaseName string `yaml:"base_name"`
}

type RoleNames struct {
	Teacher string `yaml:"teacher"`
	Student string `yaml:"student"`
	Admin   string `yaml:"admin"`
	Dev     string `yaml:"dev"`
}

type ChannelNames struct {
	Cmd       string `yaml:"cmd"`
	Logs      string `yaml:"logs"`
	Alerts    string `yaml:"alerts"`
	Classroom string `yaml:"classroom"`
}

// DefaultTunables возвращает значения, принятые на учебных серверах
func DefaultTunables() Tunables {
	return Tunables{
		ArchiveCapacity: 50, // лимит платформы на каналы в категории
		ArchivePairs: []ArchivePair{
			{Icon: "📚", BaseName: "Wissensbereich"},
			{Icon: "🗃️", BaseName: "Wissenskammer"},
			{Icon: "🗄️", BaseName: "Wissensspeicher"},
			{Icon: "📦", BaseName: "Lehrarchiv"},
		},
		Roles: RoleNames{
			Teacher: "Lehrer",
			Student: "Schüler",
			Admin:   "Admin",
			Dev:     "Dev",
		},
		Channels: ChannelNames{
			Cmd:       "cmd",
			Logs:      "logs",
			Alerts:    "alerts",
			Classroom: "klassenzimmer",
		},
		AuditCron:            "0 0 22 * * 6", // суббота 22:00 UTC
		SortCron:             "0 0 * * * *",  // ежечасно
		ClearCron:            "0 0 22 * * *", // ежедневно 22:00 UTC
		AuditLookupDelay:     Duration(250 * time.Millisecond),
		StaleVoiceSessionAge: Duration(24 * time.Hour),
	}
}

// Load читает .env, переменные окружения и необязательный файл тюнинга
// из BOT_CONFIG
func Load() (*Config, error) {
	// .env не обязателен, без него работаем от чистого окружения
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		Environment:    os.Getenv("ENV"),
		Platform:       os.Getenv("PLATFORM"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		Tunables:       DefaultTunables(),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Platform == "" {
		cfg.Platform = "memory"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = chatID
	}

	if path := os.Getenv("BOT_CONFIG"); path != "" {
		if err := cfg.Tunables.loadFile(path); err != nil {
			return nil, err
		}
		log.Printf("✅ Loaded tunables from %s\n", path)
	}

	if err := cfg.Tunables.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile накладывает значения из YAML поверх дефолтов;
// отсутствующие в файле поля остаются дефолтными
func (t *Tunables) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tunables file: %w", err)
	}
	if err := yaml.Unmarshal(raw, t); err != nil {
		return fmt.Errorf("parse tunables file: %w", err)
	}
	return nil
}

func (t *Tunables) validate() error {
	if t.ArchiveCapacity <= 0 {
		return fmt.Errorf("archive_capacity must be positive, got %d", t.ArchiveCapacity)
	}
	if len(t.ArchivePairs) == 0 {
		return fmt.Errorf("archive_pairs must not be empty")
	}
	if t.AuditLookupDelay < 0 {
		return fmt.Errorf("audit_lookup_delay must not be negative")
	}
	if t.StaleVoiceSessionAge <= 0 {
		return fmt.Errorf("stale_voice_session_age must be positive")
	}
	for _, name := range []string{t.Roles.Teacher, t.Roles.Student, t.Roles.Admin} {
		if name == "" {
			return fmt.Errorf("role names must not be empty")
		}
	}
	if t.Channels.Cmd == "" {
		return fmt.Errorf("cmd channel name must not be empty")
	}
	return nil
}
