package platform

import (
	"context"
	"errors"
	"fmt"
)

// Ошибки удалённой стороны
var (
	ErrNotFound         = errors.New("remote object not found")
	ErrPermissionDenied = errors.New("remote permission denied")
	ErrUnavailable      = errors.New("remote temporarily unavailable")
)

// Permissions базовый набор прав роли
type Permissions struct {
	Administrator   bool `json:"administrator"`
	ManageGuild     bool `json:"manage_guild"`
	ManageMessages  bool `json:"manage_messages"`
	MentionEveryone bool `json:"mention_everyone"`
	ReadMessages    bool `json:"read_messages"`
	SendMessages    bool `json:"send_messages"`
	Connect         bool `json:"connect"`
	Speak           bool `json:"speak"`
	Stream          bool `json:"stream"`
	MoveMembers     bool `json:"move_members"`
	MuteMembers     bool `json:"mute_members"`
}

// Overwrite персональное правило доступа к каналу для участника или роли
type Overwrite struct {
	PrincipalID int64 `json:"principal_id"`
	Read        bool  `json:"read"`
	Write       bool  `json:"write"`
}

type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Channel struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CategoryID int64  `json:"category_id"` // 0 = вне категорий
	Position   int    `json:"position"`
	Voice      bool   `json:"voice"`
}

type Member struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Nick    string  `json:"nick"` // пустая строка = ник не задан
	RoleIDs []int64 `json:"role_ids"`
	Bot     bool    `json:"bot"`
}

// Mention возвращает упоминание участника в разметке платформы
func Mention(memberID int64) string {
	return fmt.Sprintf("<@%d>", memberID)
}

// DisplayName возвращает ник, если он задан, иначе имя аккаунта
func (m *Member) DisplayName() string {
	if m.Nick != "" {
		return m.Nick
	}
	return m.Name
}

// HasRole проверяет, есть ли у участника роль
func (m *Member) HasRole(roleID int64) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// Gateway узкий набор удалённых операций платформы.
// Реализация отвечает за таймауты и повторы при ErrUnavailable;
// операции по известному id идемпотентны.
type Gateway interface {
	// Роли
	CreateRole(ctx context.Context, guildID int64, name string, perms Permissions) (*Role, error)
	FindRoleByName(ctx context.Context, guildID int64, name string) (*Role, error)
	EditRolePermissions(ctx context.Context, guildID, roleID int64, perms Permissions) error
	AddRole(ctx context.Context, guildID, memberID, roleID int64) error
	RemoveRole(ctx context.Context, guildID, memberID, roleID int64) error

	// Участники
	MemberByID(ctx context.Context, guildID, memberID int64) (*Member, error)
	ListMembers(ctx context.Context, guildID int64) ([]*Member, error)
	EditNickname(ctx context.Context, guildID, memberID int64, nick string) error

	// Категории
	CreateCategory(ctx context.Context, guildID int64, name string, overwrites []Overwrite) (*Category, error)
	CategoryByID(ctx context.Context, guildID, categoryID int64) (*Category, error)
	FindCategoryByName(ctx context.Context, guildID int64, name string) (*Category, error)
	RenameCategory(ctx context.Context, guildID, categoryID int64, name string) error
	DeleteCategory(ctx context.Context, guildID, categoryID int64) error
	ChannelsOfCategory(ctx context.Context, guildID, categoryID int64) ([]*Channel, error)

	// Каналы
	CreateChannel(ctx context.Context, guildID int64, name string, categoryID int64, overwrites []Overwrite) (*Channel, error)
	CreateVoiceChannel(ctx context.Context, guildID int64, name string, categoryID int64) (*Channel, error)
	ChannelByID(ctx context.Context, guildID, channelID int64) (*Channel, error)
	FindChannelByName(ctx context.Context, guildID int64, name string) (*Channel, error)
	RenameChannel(ctx context.Context, guildID, channelID int64, name string) error
	DeleteChannel(ctx context.Context, guildID, channelID int64) error
	MoveChannel(ctx context.Context, guildID, channelID, categoryID int64) error
	RepositionChannel(ctx context.Context, guildID, channelID int64, position int) error
	SetOverwrite(ctx context.Context, guildID, channelID int64, overwrite Overwrite) error
	RemoveOverwrite(ctx context.Context, guildID, channelID, principalID int64) error

	// Сообщения
	SendMessage(ctx context.Context, guildID, channelID int64, text string) error
	PurgeChannel(ctx context.Context, guildID, channelID int64) error

	// Гильдии
	ListGuilds(ctx context.Context) ([]int64, error)
}
