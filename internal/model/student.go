package model

type Student struct {
	GuildID    int64   `json:"guild_id"`
	UserID     int64   `json:"user_id"`
	Major      *string `json:"major"`
	CustomerID *string `json:"customer_id"` // nil = номер клиента не присвоен
}
