package model

// Subuser представляет второй аккаунт с доступом к каналу основного ученика
type Subuser struct {
	GuildID   int64 `json:"guild_id"`
	UserID    int64 `json:"user_id"`
	SubuserID int64 `json:"subuser_id"`
}
