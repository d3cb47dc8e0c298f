package model

import "time"

// ArchiveBucket представляет категорию-архив для каналов неактивных учеников
type ArchiveBucket struct {
	GuildID   int64     `json:"guild_id"`
	ID        int64     `json:"id"` // id категории на платформе
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
