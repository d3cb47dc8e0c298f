package model

type User struct {
	GuildID      int64   `json:"guild_id"`
	ID           int64   `json:"id"`
	RealName     string  `json:"real_name"`
	HoursInClass float64 `json:"hours_in_class"` // накопленные часы в классе
}
