package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Freeeeeet/skillbot/internal/platform"
)

// Gateway хранит граф гильдий в памяти; заменяет живую платформу
// в тестах и в режиме разработки
type Gateway struct {
	mu     sync.RWMutex
	nextID int64
	guilds map[int64]*guildState
}

type guildState struct {
	roles      map[int64]*platform.Role
	rolePerms  map[int64]platform.Permissions
	categories map[int64]*platform.Category
	channels   map[int64]*platform.Channel
	members    map[int64]*platform.Member
	overwrites map[int64]map[int64]platform.Overwrite // channelID -> principalID -> правило
	messages   map[int64][]string                     // channelID -> отправленные тексты
}

// New создаёт пустой шлюз
func New() *Gateway {
	return &Gateway{
		nextID: 1000,
		guilds: make(map[int64]*guildState),
	}
}

// EnsureGuild регистрирует гильдию, если её ещё нет
func (g *Gateway) EnsureGuild(guildID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.guilds[guildID]; !exists {
		g.guilds[guildID] = &guildState{
			roles:      make(map[int64]*platform.Role),
			rolePerms:  make(map[int64]platform.Permissions),
			categories: make(map[int64]*platform.Category),
			channels:   make(map[int64]*platform.Channel),
			members:    make(map[int64]*platform.Member),
			overwrites: make(map[int64]map[int64]platform.Overwrite),
			messages:   make(map[int64][]string),
		}
	}
}

// SeedMember добавляет участника гильдии
func (g *Gateway) SeedMember(guildID, memberID int64, name string, bot bool) {
	g.EnsureGuild(guildID)

	g.mu.Lock()
	defer g.mu.Unlock()

	g.guilds[guildID].members[memberID] = &platform.Member{
		ID:   memberID,
		Name: name,
		Bot:  bot,
	}
}

// Messages возвращает копию отправленных в канал сообщений
func (g *Gateway) Messages(guildID, channelID int64) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	gs, exists := g.guilds[guildID]
	if !exists {
		return nil
	}
	msgs := make([]string, len(gs.messages[channelID]))
	copy(msgs, gs.messages[channelID])
	return msgs
}

// Overwrites возвращает копию правил доступа канала
func (g *Gateway) Overwrites(guildID, channelID int64) map[int64]platform.Overwrite {
	g.mu.RLock()
	defer g.mu.RUnlock()

	gs, exists := g.guilds[guildID]
	if !exists {
		return nil
	}
	result := make(map[int64]platform.Overwrite, len(gs.overwrites[channelID]))
	for principalID, ow := range gs.overwrites[channelID] {
		result[principalID] = ow
	}
	return result
}

func (g *Gateway) guild(guildID int64) (*guildState, error) {
	gs, exists := g.guilds[guildID]
	if !exists {
		return nil, fmt.Errorf("guild %d: %w", guildID, platform.ErrNotFound)
	}
	return gs, nil
}

func (g *Gateway) allocateID() int64 {
	g.nextID++
	return g.nextID
}

// CreateRole создаёт роль гильдии
func (g *Gateway) CreateRole(ctx context.Context, guildID int64, name string, perms platform.Permissions) (*platform.Role, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return nil, err
	}

	role := &platform.Role{ID: g.allocateID(), Name: name}
	gs.roles[role.ID] = role
	gs.rolePerms[role.ID] = perms
	copied := *role
	return &copied, nil
}

// FindRoleByName ищет роль по точному имени
func (g *Gateway) FindRoleByName(ctx context.Context, guildID int64, name string) (*platform.Role, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return nil, err
	}

	for _, role := range gs.roles {
		if role.Name == name {
			copied := *role
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("role %q: %w", name, platform.ErrNotFound)
}

// EditRolePermissions заменяет базовый набор прав роли
func (g *Gateway) EditRolePermissions(ctx context.Context, guildID, roleID int64, perms platform.Permissions) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return err
	}

	if _, exists := gs.roles[roleID]; !exists {
		return fmt.Errorf("role %d: %w", roleID, platform.ErrNotFound)
	}
	gs.rolePerms[roleID] = perms
	return nil
}

// RolePermissions возвращает текущие права роли
func (g *Gateway) RolePermissions(guildID, roleID int64) platform.Permissions {
	g.mu.RLock()
	defer g.mu.RUnlock()

	gs, exists := g.guilds[guildID]
	if !exists {
		return platform.Permissions{}
	}
	return gs.rolePerms[roleID]
}

// AddRole выдаёт участнику роль
func (g *Gateway) AddRole(ctx context.Context, guildID, memberID, roleID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return err
	}

	member, exists := gs.members[memberID]
	if !exists {
		return fmt.Errorf("member %d: %w", memberID, platform.ErrNotFound)
	}
	if _, exists := gs.roles[roleID]; !exists {
		return fmt.Errorf("role %d: %w", roleID, platform.ErrNotFound)
	}

	for _, id := range member.RoleIDs {
		if id == roleID {
			return nil // уже выдана
		}
	}
	member.RoleIDs = append(member.RoleIDs, roleID)
	return nil
}

// RemoveRole снимает роль с участника
func (g *Gateway) RemoveRole(ctx context.Context, guildID, memberID, roleID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return err
	}

	member, exists := gs.members[memberID]
	if !exists {
		return fmt.Errorf("member %d: %w", memberID, platform.ErrNotFound)
	}

	for i, id := range member.RoleIDs {
		if id == roleID {
			member.RoleIDs = append(member.RoleIDs[:i], member.RoleIDs[i+1:]...)
			return nil
		}
	}
	return nil
}

// MemberByID получает участника по id
func (g *Gateway) MemberByID(ctx context.Context, guildID, memberID int64) (*platform.Member, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return nil, err
	}

	member, exists := gs.members[memberID]
	if !exists {
		return nil, fmt.Errorf("member %d: %w", memberID, platform.ErrNotFound)
	}
	return copyMember(member), nil
}

// ListMembers возвращает всех участников гильдии
func (g *Gateway) ListMembers(ctx context.Context, guildID int64) ([]*platform.Member, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return nil, err
	}

	members := make([]*platform.Member, 0, len(gs.members))
	for _, member := range gs.members {
		members = append(members, copyMember(member))
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

// EditNickname меняет ник участника; пустая строка сбрасывает ник
func (g *Gateway) EditNickname(ctx context.Context, guildID, memberID int64, nick string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return err
	}

	member, exists := gs.members[memberID]
	if !exists {
		return fmt.Errorf("member %d: %w", memberID, platform.ErrNotFound)
	}
	member.Nick = nick
	return nil
}

// CreateCategory создаёт категорию с правилами доступа
func (g *Gateway) CreateCategory(ctx context.Context, guildID int64, name string, overwrites []platform.Overwrite) (*platform.Category, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return nil, err
	}

	category := &platform.Category{ID: g.allocateID(), Name: name}
	gs.categories[category.ID] = category
	if len(overwrites) > 0 {
		rules := make(map[int64]platform.Overwrite, len(overwrites))
		for _, ow := range overwrites {
			rules[ow.PrincipalID] = ow
		}
		gs.overwrites[category.ID] = rules
	}
	copied := *category
	return &copied, nil
}

// CategoryByID получает категорию по id
func (g *Gateway) CategoryByID(ctx context.Context, guildID, categoryID int64) (*platform.Category, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return nil, err
	}

	category, exists := gs.categories[categoryID]
	if !exists {
		return nil, fmt.Errorf("category %d: %w", categoryID, platform.ErrNotFound)
	}
	copied := *category
	return &copied, nil
}

// FindCategoryByName ищет категорию по точному имени
func (g *Gateway) FindCategoryByName(ctx context.Context, guildID int64, name string) (*platform.Category, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return nil, err
	}

	for _, category := range gs.categories {
		if category.Name == name {
			copied := *category
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("category %q: %w", name, platform.ErrNotFound)
}

// RenameCategory переименовывает категорию
func (g *Gateway) RenameCategory(ctx context.Context, guildID, categoryID int64, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return err
	}

	category, exists := gs.categories[categoryID]
	if !exists {
		return fmt.Errorf("category %d: %w", categoryID, platform.ErrNotFound)
	}
	category.Name = name
	return nil
}

// DeleteCategory удаляет категорию; её каналы остаются вне категорий
func (g *Gateway) DeleteCategory(ctx context.Context, guildID, categoryID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return err
	}

	if _, exists := gs.categories[categoryID]; !exists {
		return fmt.Errorf("category %d: %w", categoryID, platform.ErrNotFound)
	}
	delete(gs.categories, categoryID)
	delete(gs.overwrites, categoryID)
	for _, channel := range gs.channels {
		if channel.CategoryID == categoryID {
			channel.CategoryID = 0
		}
	}
	return nil
}

// ChannelsOfCategory возвращает каналы категории в порядке позиций
func (g *Gateway) ChannelsOfCategory(ctx context.Context, guildID, categoryID int64) ([]*platform.Channel, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return nil, err
	}

	if _, exists := gs.categories[categoryID]; !exists {
		return nil, fmt.Errorf("category %d: %w", categoryID, platform.ErrNotFound)
	}

	var channels []*platform.Channel
	for _, channel := range gs.channels {
		if channel.CategoryID == categoryID {
			copied := *channel
			channels = append(channels, &copied)
		}
	}
	sort.Slice(channels, func(i, j int) bool {
		if channels[i].Position != channels[j].Position {
			return channels[i].Position < channels[j].Position
		}
		return channels[i].ID < channels[j].ID
	})
	return channels, nil
}

// CreateChannel создаёт текстовый канал в категории
func (g *Gateway) CreateChannel(ctx context.Context, guildID int64, name string, categoryID int64, overwrites []platform.Overwrite) (*platform.Channel, error) {
	return g.createChannel(guildID, name, categoryID, overwrites, false)
}

// CreateVoiceChannel создаёт голосовой канал в категории
func (g *Gateway) CreateVoiceChannel(ctx context.Context, guildID int64, name string, categoryID int64) (*platform.Channel, error) {
	return g.createChannel(guildID, name, categoryID, nil, true)
}

func (g *Gateway) createChannel(guildID int64, name string, categoryID int64, overwrites []platform.Overwrite, voice bool) (*platform.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return nil, err
	}
	if categoryID != 0 {
		if _, exists := gs.categories[categoryID]; !exists {
			return nil, fmt.Errorf("category %d: %w", categoryID, platform.ErrNotFound)
		}
	}

	position := 0
	for _, existing := range gs.channels {
		if existing.CategoryID == categoryID {
			position++
		}
	}

	channel := &platform.Channel{
		ID:         g.allocateID(),
		Name:       name,
		CategoryID: categoryID,
		Position:   position,
		Voice:      voice,
	}
	gs.channels[channel.ID] = channel
	if len(overwrites) > 0 {
		rules := make(map[int64]platform.Overwrite, len(overwrites))
		for _, ow := range overwrites {
			rules[ow.PrincipalID] = ow
		}
		gs.overwrites[channel.ID] = rules
	}
	copied := *channel
	return &copied, nil
}

// ChannelByID получает канал по id
func (g *Gateway) ChannelByID(ctx context.Context, guildID, channelID int64) (*platform.Channel, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return nil, err
	}

	channel, exists := gs.channels[channelID]
	if !exists {
		return nil, fmt.Errorf("channel %d: %w", channelID, platform.ErrNotFound)
	}
	copied := *channel
	return &copied, nil
}

// FindChannelByName ищет канал по точному имени во всей гильдии
func (g *Gateway) FindChannelByName(ctx context.Context, guildID int64, name string) (*platform.Channel, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return nil, err
	}

	var found *platform.Channel
	for _, channel := range gs.channels {
		if channel.Name == name {
			if found == nil || channel.ID < found.ID {
				found = channel
			}
		}
	}
	if found == nil {
		return nil, fmt.Errorf("channel %q: %w", name, platform.ErrNotFound)
	}
	copied := *found
	return &copied, nil
}

// RenameChannel переименовывает канал
func (g *Gateway) RenameChannel(ctx context.Context, guildID, channelID int64, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return err
	}

	channel, exists := gs.channels[channelID]
	if !exists {
		return fmt.Errorf("channel %d: %w", channelID, platform.ErrNotFound)
	}
	channel.Name = name
	return nil
}

// DeleteChannel удаляет канал вместе с правилами и сообщениями
func (g *Gateway) DeleteChannel(ctx context.Context, guildID, channelID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return err
	}

	if _, exists := gs.channels[channelID]; !exists {
		return fmt.Errorf("channel %d: %w", channelID, platform.ErrNotFound)
	}
	delete(gs.channels, channelID)
	delete(gs.overwrites, channelID)
	delete(gs.messages, channelID)
	return nil
}

// MoveChannel переносит канал в другую категорию
func (g *Gateway) MoveChannel(ctx context.Context, guildID, channelID, categoryID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return err
	}

	channel, exists := gs.channels[channelID]
	if !exists {
		return fmt.Errorf("channel %d: %w", channelID, platform.ErrNotFound)
	}
	if _, exists := gs.categories[categoryID]; !exists {
		return fmt.Errorf("category %d: %w", categoryID, platform.ErrNotFound)
	}

	position := 0
	for _, existing := range gs.channels {
		if existing.ID != channelID && existing.CategoryID == categoryID {
			position++
		}
	}
	channel.CategoryID = categoryID
	channel.Position = position
	return nil
}

// RepositionChannel задаёт позицию канала внутри его категории
func (g *Gateway) RepositionChannel(ctx context.Context, guildID, channelID int64, position int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return err
	}

	channel, exists := gs.channels[channelID]
	if !exists {
		return fmt.Errorf("channel %d: %w", channelID, platform.ErrNotFound)
	}
	channel.Position = position
	return nil
}

// SetOverwrite задаёт правило доступа к каналу
func (g *Gateway) SetOverwrite(ctx context.Context, guildID, channelID int64, overwrite platform.Overwrite) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return err
	}

	if _, exists := gs.channels[channelID]; !exists {
		return fmt.Errorf("channel %d: %w", channelID, platform.ErrNotFound)
	}
	if gs.overwrites[channelID] == nil {
		gs.overwrites[channelID] = make(map[int64]platform.Overwrite)
	}
	gs.overwrites[channelID][overwrite.PrincipalID] = overwrite
	return nil
}

// RemoveOverwrite убирает правило доступа участника к каналу
func (g *Gateway) RemoveOverwrite(ctx context.Context, guildID, channelID, principalID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return err
	}

	if _, exists := gs.channels[channelID]; !exists {
		return fmt.Errorf("channel %d: %w", channelID, platform.ErrNotFound)
	}
	delete(gs.overwrites[channelID], principalID)
	return nil
}

// SendMessage отправляет текст в канал
func (g *Gateway) SendMessage(ctx context.Context, guildID, channelID int64, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return err
	}

	if _, exists := gs.channels[channelID]; !exists {
		return fmt.Errorf("channel %d: %w", channelID, platform.ErrNotFound)
	}
	gs.messages[channelID] = append(gs.messages[channelID], text)
	return nil
}

// PurgeChannel удаляет все сообщения канала
func (g *Gateway) PurgeChannel(ctx context.Context, guildID, channelID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gs, err := g.guild(guildID)
	if err != nil {
		return err
	}

	if _, exists := gs.channels[channelID]; !exists {
		return fmt.Errorf("channel %d: %w", channelID, platform.ErrNotFound)
	}
	gs.messages[channelID] = nil
	return nil
}

// ListGuilds возвращает id всех гильдий
func (g *Gateway) ListGuilds(ctx context.Context) ([]int64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]int64, 0, len(g.guilds))
	for id := range g.guilds {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func copyMember(member *platform.Member) *platform.Member {
	copied := *member
	copied.RoleIDs = make([]int64, len(member.RoleIDs))
	copy(copied.RoleIDs, member.RoleIDs)
	return &copied
}
