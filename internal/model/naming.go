package model

import "strings"

// EntityKind определяет вид участника для значка в нике
type EntityKind string

const (
	KindTeacher EntityKind = "teacher"
	KindStudent EntityKind = "student"
	KindSubuser EntityKind = "subuser"
)

const (
	IconTeacher = "🎓"
	IconStudent = "🎒"
	IconSubuser = "👋"
)

// DisplayName собирает серверный ник из значка вида и настоящего имени
func DisplayName(kind EntityKind, realName string) string {
	switch kind {
	case KindTeacher:
		return IconTeacher + " " + realName
	case KindStudent:
		return IconStudent + " " + realName
	default:
		return IconSubuser + " " + realName
	}
}

// RealNameFromNick убирает значок вида из серверного ника
func RealNameFromNick(nick string) string {
	for _, icon := range []string{IconTeacher, IconStudent, IconSubuser} {
		if rest, ok := strings.CutPrefix(nick, icon+" "); ok {
			return rest
		}
	}
	return nick
}

// ChannelSlug возвращает каноничное имя канала для настоящего имени
func ChannelSlug(realName string) string {
	return strings.ToLower(strings.ReplaceAll(realName, " ", "-"))
}
