package model

// IssueType классифицирует находку проверки целостности
type IssueType string

const (
	IssueOrphanSubuser     IssueType = "orphan_subuser"
	IssueOrphanTeacher     IssueType = "orphan_teacher"
	IssueOrphanStudent     IssueType = "orphan_student"
	IssueOrphanConnection  IssueType = "orphan_connection"
	IssueStudentNoChannel  IssueType = "student_without_channel"
	IssueDuplicateChannel  IssueType = "duplicate_channel"
	IssueSelfSubuser       IssueType = "self_subuser"
	IssueSubuserCycle      IssueType = "subuser_cycle"
	IssueInvalidData       IssueType = "invalid_data"
	IssueStaleVoiceSession IssueType = "stale_voice_session"
	IssueMissingMember     IssueType = "missing_member"
	IssueMissingChannel    IssueType = "missing_channel"
	IssueCheckFailed       IssueType = "check_failed"
)

// Issue описывает одну находку аудита
type Issue struct {
	Type   IssueType `json:"type"`
	Detail string    `json:"detail"`
}

// Report агрегирует находки одного прогона аудита по гильдии
type Report struct {
	RunID   string  `json:"run_id"`
	GuildID int64   `json:"guild_id"`
	Issues  []Issue `json:"issues"`
}

// CountByType группирует находки по типу
func (r *Report) CountByType() map[IssueType]int {
	counts := make(map[IssueType]int)
	for _, issue := range r.Issues {
		counts[issue.Type]++
	}
	return counts
}
