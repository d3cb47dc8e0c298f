package model

// DevModeFlag включает для пользователя рассылку служебных уведомлений
type DevModeFlag struct {
	GuildID int64 `json:"guild_id"`
	UserID  int64 `json:"user_id"`
	Active  bool  `json:"active"`
}
