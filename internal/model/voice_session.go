package model

import "time"

// VoiceSession фиксирует вход пользователя в отслеживаемый голосовой канал
type VoiceSession struct {
	GuildID        int64     `json:"guild_id"`
	UserID         int64     `json:"user_id"`
	VoiceChannelID int64     `json:"voice_channel_id"`
	JoinTime       time.Time `json:"join_time"`
}

// Elapsed возвращает длительность сессии к моменту now в часах
func (s *VoiceSession) Elapsed(now time.Time) float64 {
	return now.Sub(s.JoinTime).Hours()
}
