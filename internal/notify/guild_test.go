package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/Freeeeeet/skillbot/internal/model"
	"github.com/Freeeeeet/skillbot/internal/platform/memory"
	"github.com/Freeeeeet/skillbot/internal/store"
	"github.com/Freeeeeet/skillbot/internal/store/memstore"
	"go.uber.org/zap"
)

const testGuild int64 = 1

// notifyEnv гильдия со служебными каналами и одним учителем
type notifyEnv struct {
	gateway *memory.Gateway
	store   *store.Store

	logsID   int64
	alertsID int64
	cmdID    int64
}

func newNotifyEnv(t *testing.T) *notifyEnv {
	t.Helper()

	gw := memory.New()
	gw.EnsureGuild(testGuild)
	st := memstore.New()
	ctx := context.Background()

	information, err := gw.CreateCategory(ctx, testGuild, "Informationen", nil)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	logs, err := gw.CreateChannel(ctx, testGuild, "logs", information.ID, nil)
	if err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	alerts, err := gw.CreateChannel(ctx, testGuild, "alerts", information.ID, nil)
	if err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}

	teaching, err := gw.CreateCategory(ctx, testGuild, "🎓 Ada", nil)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	cmd, err := gw.CreateChannel(ctx, testGuild, "cmd", teaching.ID, nil)
	if err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}

	categoryID := teaching.ID
	if err := st.Teachers.Upsert(ctx, &model.Teacher{GuildID: testGuild, UserID: 100, TeachingCategory: &categoryID}); err != nil {
		t.Fatalf("Teachers.Upsert: %v", err)
	}

	return &notifyEnv{
		gateway:  gw,
		store:    st,
		logsID:   logs.ID,
		alertsID: alerts.ID,
		cmdID:    cmd.ID,
	}
}

func (e *notifyEnv) notifier() *GuildNotifier {
	return NewGuildNotifier(e.store, e.gateway, "logs", "alerts", "cmd", zap.NewNop())
}

func TestAlertFansOutToLogsAndAlerts(t *testing.T) {
	t.Parallel()

	env := newNotifyEnv(t)
	report := &model.Report{
		RunID:   "run-1",
		GuildID: testGuild,
		Issues: []model.Issue{
			{Type: model.IssueOrphanStudent, Detail: "student 200 has no user record"},
			{Type: model.IssueMissingChannel, Detail: "channel 7777 does not exist"},
		},
	}

	env.notifier().Alert(context.Background(), report, 0)

	logs := env.gateway.Messages(testGuild, env.logsID)
	if len(logs) != 1 {
		t.Fatalf("expected one logs message, got %d", len(logs))
	}
	if !strings.Contains(logs[0], "student 200 has no user record") {
		t.Errorf("expected issue details in the logs message, got %q", logs[0])
	}

	alerts := env.gateway.Messages(testGuild, env.alertsID)
	if len(alerts) != 1 {
		t.Fatalf("expected one alerts message, got %d", len(alerts))
	}
	if !strings.Contains(alerts[0], "2") {
		t.Errorf("expected the issue count in the summary, got %q", alerts[0])
	}

	// без активных разработчиков каналы cmd молчат
	if msgs := env.gateway.Messages(testGuild, env.cmdID); len(msgs) != 0 {
		t.Errorf("expected no cmd pings, got %d", len(msgs))
	}
}

func TestAlertPingsDevModeTeachers(t *testing.T) {
	t.Parallel()

	env := newNotifyEnv(t)
	ctx := context.Background()

	if err := env.store.DevMode.Set(ctx, testGuild, 100, true); err != nil {
		t.Fatalf("DevMode.Set: %v", err)
	}

	report := &model.Report{
		RunID:   "run-2",
		GuildID: testGuild,
		Issues:  []model.Issue{{Type: model.IssueInvalidData, Detail: "user has non-positive id 0"}},
	}
	env.notifier().Alert(ctx, report, 0)

	msgs := env.gateway.Messages(testGuild, env.cmdID)
	if len(msgs) != 1 {
		t.Fatalf("expected one dev ping in cmd, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0], "<@100>") {
		t.Errorf("expected the teacher to be mentioned, got %q", msgs[0])
	}
}

// Инициатор ручного запуска без режима разработчика получает
// отдельное уведомление в свой канал cmd
func TestAlertNotifiesContextTeacher(t *testing.T) {
	t.Parallel()

	env := newNotifyEnv(t)
	report := &model.Report{
		RunID:   "run-3",
		GuildID: testGuild,
		Issues:  []model.Issue{{Type: model.IssueSelfSubuser, Detail: "user 5 is linked to itself"}},
	}
	env.notifier().Alert(context.Background(), report, 100)

	msgs := env.gateway.Messages(testGuild, env.cmdID)
	if len(msgs) != 1 {
		t.Fatalf("expected one initiator notification, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0], "Issue Notification") {
		t.Errorf("expected the initiator wording, got %q", msgs[0])
	}
}

func TestSuccessGoesOnlyToLogs(t *testing.T) {
	t.Parallel()

	env := newNotifyEnv(t)
	env.notifier().Success(context.Background(), testGuild, "DatabaseIntegrity", "All integrity checks passed")

	if msgs := env.gateway.Messages(testGuild, env.logsID); len(msgs) != 1 {
		t.Errorf("expected one logs message, got %d", len(msgs))
	}
	if msgs := env.gateway.Messages(testGuild, env.alertsID); len(msgs) != 0 {
		t.Errorf("expected alerts to stay silent on success, got %d messages", len(msgs))
	}
}

// Гильдия без служебных каналов: уведомления теряются молча, без паники
func TestNotifierSurvivesMissingChannels(t *testing.T) {
	t.Parallel()

	gw := memory.New()
	gw.EnsureGuild(testGuild)
	st := memstore.New()

	notifier := NewGuildNotifier(st, gw, "logs", "alerts", "cmd", zap.NewNop())
	notifier.SystemError(context.Background(), testGuild, "Scheduler", "sort failed", "category 5 vanished", 0)
	notifier.Success(context.Background(), testGuild, "Scheduler", "sort finished")
}
