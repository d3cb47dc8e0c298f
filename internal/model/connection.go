package model

// Connection связывает учителя и ученика с их общим каналом
type Connection struct {
	GuildID   int64 `json:"guild_id"`
	TeacherID int64 `json:"teacher_id"`
	StudentID int64 `json:"student_id"`
	ChannelID int64 `json:"channel_id"`
}
