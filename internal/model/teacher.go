package model

type Teacher struct {
	GuildID          int64   `json:"guild_id"`
	UserID           int64   `json:"user_id"`
	Subjects         *string `json:"subjects"`
	Phonenumber      *string `json:"phonenumber"`
	Availability     *string `json:"availability"`
	TeachingCategory *int64  `json:"teaching_category"` // указатель - категория ещё может не существовать
}
