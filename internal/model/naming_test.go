package model

import "testing"

func TestDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		kind     EntityKind
		realName string
		want     string
	}{
		{"teacher", KindTeacher, "Ada Lovelace", "🎓 Ada Lovelace"},
		{"student", KindStudent, "Ben", "🎒 Ben"},
		{"subuser", KindSubuser, "Carol", "👋 Carol"},
		{"unknown kind falls back to subuser icon", EntityKind("other"), "Dan", "👋 Dan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := DisplayName(tt.kind, tt.realName); got != tt.want {
				t.Errorf("DisplayName(%q, %q) = %q, want %q", tt.kind, tt.realName, got, tt.want)
			}
		})
	}
}

func TestRealNameFromNick(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		nick string
		want string
	}{
		{"teacher nick", "🎓 Ada Lovelace", "Ada Lovelace"},
		{"student nick", "🎒 Ben", "Ben"},
		{"subuser nick", "👋 Carol", "Carol"},
		{"plain nick unchanged", "Dan", "Dan"},
		{"icon without space unchanged", "🎒Ben", "🎒Ben"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := RealNameFromNick(tt.nick); got != tt.want {
				t.Errorf("RealNameFromNick(%q) = %q, want %q", tt.nick, got, tt.want)
			}
		})
	}
}

// Ник и обратное преобразование должны быть согласованы для всех видов
func TestDisplayNameRoundTrip(t *testing.T) {
	t.Parallel()

	for _, kind := range []EntityKind{KindTeacher, KindStudent, KindSubuser} {
		if got := RealNameFromNick(DisplayName(kind, "Erin Weiss")); got != "Erin Weiss" {
			t.Errorf("round trip for %q: got %q, want %q", kind, got, "Erin Weiss")
		}
	}
}

func TestChannelSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		realName string
		want     string
	}{
		{"single word", "Ben", "ben"},
		{"two words", "Ada Lovelace", "ada-lovelace"},
		{"already lowercase", "ben", "ben"},
		{"multiple spaces", "Jan Peter Maria", "jan-peter-maria"},
		{"umlauts preserved", "Jürgen Müller", "jürgen-müller"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ChannelSlug(tt.realName)
			if got != tt.want {
				t.Errorf("ChannelSlug(%q) = %q, want %q", tt.realName, got, tt.want)
			}

			// Повторное применение не меняет результат
			if again := ChannelSlug(got); again != got {
				t.Errorf("ChannelSlug is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestReportCountByType(t *testing.T) {
	t.Parallel()

	report := &Report{
		GuildID: 1,
		Issues: []Issue{
			{Type: IssueOrphanSubuser, Detail: "a"},
			{Type: IssueOrphanSubuser, Detail: "b"},
			{Type: IssueSubuserCycle, Detail: "c"},
		},
	}

	counts := report.CountByType()
	if counts[IssueOrphanSubuser] != 2 {
		t.Errorf("expected 2 orphan_subuser issues, got %d", counts[IssueOrphanSubuser])
	}
	if counts[IssueSubuserCycle] != 1 {
		t.Errorf("expected 1 subuser_cycle issue, got %d", counts[IssueSubuserCycle])
	}
	if len(counts) != 2 {
		t.Errorf("expected 2 issue types, got %d", len(counts))
	}
}
