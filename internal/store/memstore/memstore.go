package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/skillbot/internal/model"
	"github.com/Freeeeeet/skillbot/internal/store"
)

// New собирает хранилище в памяти; повторяет ограничения схемы БД
func New() *store.Store {
	d := &data{
		users:        make(map[recordKey]*model.User),
		teachers:     make(map[recordKey]*model.Teacher),
		students:     make(map[recordKey]*model.Student),
		connections:  make(map[pairKey]*model.Connection),
		subusers:     make(map[pairKey]*model.Subuser),
		archives:     make(map[recordKey]*model.ArchiveBucket),
		archiveOrder: make(map[int64][]int64),
		voice:        make(map[recordKey]*model.VoiceSession),
		devMode:      make(map[recordKey]bool),
	}
	return &store.Store{
		Users:         &users{d},
		Teachers:      &teachers{d},
		Students:      &students{d},
		Connections:   &connections{d},
		Subusers:      &subusers{d},
		Archives:      &archives{d},
		VoiceSessions: &voiceSessions{d},
		DevMode:       &devMode{d},
	}
}

type recordKey struct {
	guildID int64
	id      int64
}

type pairKey struct {
	guildID int64
	a       int64
	b       int64
}

type data struct {
	mu           sync.RWMutex
	users        map[recordKey]*model.User
	teachers     map[recordKey]*model.Teacher
	students     map[recordKey]*model.Student
	connections  map[pairKey]*model.Connection
	subusers     map[pairKey]*model.Subuser
	archives     map[recordKey]*model.ArchiveBucket
	archiveOrder map[int64][]int64 // guildID -> id категорий в порядке создания
	voice        map[recordKey]*model.VoiceSession
	devMode      map[recordKey]bool
}

type users struct{ d *data }

func (r *users) Get(ctx context.Context, guildID, userID int64) (*model.User, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	user, exists := r.d.users[recordKey{guildID, userID}]
	if !exists {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r *users) Upsert(ctx context.Context, user *model.User) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	key := recordKey{user.GuildID, user.ID}
	if existing, exists := r.d.users[key]; exists {
		existing.RealName = user.RealName
		return nil
	}
	copied := *user
	r.d.users[key] = &copied
	return nil
}

func (r *users) Delete(ctx context.Context, guildID, userID int64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	delete(r.d.users, recordKey{guildID, userID})
	return nil
}

func (r *users) All(ctx context.Context, guildID int64) ([]*model.User, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var result []*model.User
	for key, user := range r.d.users {
		if key.guildID == guildID {
			copied := *user
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *users) AddHours(ctx context.Context, guildID, userID int64, hours float64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	user, exists := r.d.users[recordKey{guildID, userID}]
	if !exists {
		return store.ErrNotFound
	}
	user.HoursInClass += hours
	return nil
}

type teachers struct{ d *data }

func (r *teachers) Get(ctx context.Context, guildID, userID int64) (*model.Teacher, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	teacher, exists := r.d.teachers[recordKey{guildID, userID}]
	if !exists {
		return nil, nil
	}
	copied := *teacher
	return &copied, nil
}

func (r *teachers) Upsert(ctx context.Context, teacher *model.Teacher) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	copied := *teacher
	r.d.teachers[recordKey{teacher.GuildID, teacher.UserID}] = &copied
	return nil
}

func (r *teachers) Delete(ctx context.Context, guildID, userID int64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	key := recordKey{guildID, userID}
	if _, exists := r.d.teachers[key]; !exists {
		return store.ErrNotFound
	}
	delete(r.d.teachers, key)
	return nil
}

func (r *teachers) All(ctx context.Context, guildID int64) ([]*model.Teacher, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var result []*model.Teacher
	for key, teacher := range r.d.teachers {
		if key.guildID == guildID {
			copied := *teacher
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (r *teachers) TeachingCategories(ctx context.Context, guildID int64) ([]int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var result []int64
	for key, teacher := range r.d.teachers {
		if key.guildID == guildID && teacher.TeachingCategory != nil {
			result = append(result, *teacher.TeachingCategory)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

type students struct{ d *data }

func (r *students) Get(ctx context.Context, guildID, userID int64) (*model.Student, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	student, exists := r.d.students[recordKey{guildID, userID}]
	if !exists {
		return nil, nil
	}
	copied := *student
	return &copied, nil
}

func (r *students) Upsert(ctx context.Context, student *model.Student) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	copied := *student
	r.d.students[recordKey{student.GuildID, student.UserID}] = &copied
	return nil
}

func (r *students) Delete(ctx context.Context, guildID, userID int64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	key := recordKey{guildID, userID}
	if _, exists := r.d.students[key]; !exists {
		return store.ErrNotFound
	}
	delete(r.d.students, key)
	return nil
}

func (r *students) All(ctx context.Context, guildID int64) ([]*model.Student, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var result []*model.Student
	for key, student := range r.d.students {
		if key.guildID == guildID {
			copied := *student
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

type connections struct{ d *data }

func (r *connections) Get(ctx context.Context, guildID, teacherID, studentID int64) (*model.Connection, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	conn, exists := r.d.connections[pairKey{guildID, teacherID, studentID}]
	if !exists {
		return nil, nil
	}
	copied := *conn
	return &copied, nil
}

func (r *connections) ByStudent(ctx context.Context, guildID, studentID int64) (*model.Connection, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	for key, conn := range r.d.connections {
		if key.guildID == guildID && key.b == studentID {
			copied := *conn
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *connections) ByTeacher(ctx context.Context, guildID, teacherID int64) ([]*model.Connection, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var result []*model.Connection
	for key, conn := range r.d.connections {
		if key.guildID == guildID && key.a == teacherID {
			copied := *conn
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentID < result[j].StudentID })
	return result, nil
}

func (r *connections) Upsert(ctx context.Context, conn *model.Connection) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if conn.ChannelID <= 0 || conn.TeacherID == conn.StudentID {
		return store.ErrInvalid
	}
	for key, existing := range r.d.connections {
		if key.guildID == conn.GuildID && existing.ChannelID == conn.ChannelID &&
			(key.a != conn.TeacherID || key.b != conn.StudentID) {
			return store.ErrDuplicate
		}
	}
	copied := *conn
	r.d.connections[pairKey{conn.GuildID, conn.TeacherID, conn.StudentID}] = &copied
	return nil
}

func (r *connections) Delete(ctx context.Context, guildID, teacherID, studentID int64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	key := pairKey{guildID, teacherID, studentID}
	if _, exists := r.d.connections[key]; !exists {
		return store.ErrNotFound
	}
	delete(r.d.connections, key)
	return nil
}

func (r *connections) All(ctx context.Context, guildID int64) ([]*model.Connection, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var result []*model.Connection
	for key, conn := range r.d.connections {
		if key.guildID == guildID {
			copied := *conn
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TeacherID != result[j].TeacherID {
			return result[i].TeacherID < result[j].TeacherID
		}
		return result[i].StudentID < result[j].StudentID
	})
	return result, nil
}

type subusers struct{ d *data }

func (r *subusers) Get(ctx context.Context, guildID, userID, subuserID int64) (*model.Subuser, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	link, exists := r.d.subusers[pairKey{guildID, userID, subuserID}]
	if !exists {
		return nil, nil
	}
	copied := *link
	return &copied, nil
}

func (r *subusers) ByPrimary(ctx context.Context, guildID, userID int64) ([]*model.Subuser, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var result []*model.Subuser
	for key, link := range r.d.subusers {
		if key.guildID == guildID && key.a == userID {
			copied := *link
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SubuserID < result[j].SubuserID })
	return result, nil
}

func (r *subusers) BySubuser(ctx context.Context, guildID, subuserID int64) ([]*model.Subuser, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var result []*model.Subuser
	for key, link := range r.d.subusers {
		if key.guildID == guildID && key.b == subuserID {
			copied := *link
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (r *subusers) Upsert(ctx context.Context, link *model.Subuser) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if link.UserID == link.SubuserID {
		return store.ErrInvalid
	}
	copied := *link
	r.d.subusers[pairKey{link.GuildID, link.UserID, link.SubuserID}] = &copied
	return nil
}

func (r *subusers) Delete(ctx context.Context, guildID, userID, subuserID int64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	key := pairKey{guildID, userID, subuserID}
	if _, exists := r.d.subusers[key]; !exists {
		return store.ErrNotFound
	}
	delete(r.d.subusers, key)
	return nil
}

func (r *subusers) All(ctx context.Context, guildID int64) ([]*model.Subuser, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var result []*model.Subuser
	for key, link := range r.d.subusers {
		if key.guildID == guildID {
			copied := *link
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].UserID != result[j].UserID {
			return result[i].UserID < result[j].UserID
		}
		return result[i].SubuserID < result[j].SubuserID
	})
	return result, nil
}

type archives struct{ d *data }

func (r *archives) Get(ctx context.Context, guildID, categoryID int64) (*model.ArchiveBucket, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	bucket, exists := r.d.archives[recordKey{guildID, categoryID}]
	if !exists {
		return nil, nil
	}
	copied := *bucket
	return &copied, nil
}

func (r *archives) ByName(ctx context.Context, guildID int64, name string) (*model.ArchiveBucket, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	for key, bucket := range r.d.archives {
		if key.guildID == guildID && bucket.Name == name {
			copied := *bucket
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *archives) All(ctx context.Context, guildID int64) ([]*model.ArchiveBucket, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	order := r.d.archiveOrder[guildID]
	result := make([]*model.ArchiveBucket, 0, len(order))
	for _, id := range order {
		if bucket, exists := r.d.archives[recordKey{guildID, id}]; exists {
			copied := *bucket
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *archives) Upsert(ctx context.Context, bucket *model.ArchiveBucket) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	key := recordKey{bucket.GuildID, bucket.ID}
	for otherKey, other := range r.d.archives {
		if otherKey.guildID == bucket.GuildID && other.Name == bucket.Name && otherKey.id != bucket.ID {
			return store.ErrDuplicate
		}
	}

	copied := *bucket
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	if _, exists := r.d.archives[key]; !exists {
		r.d.archiveOrder[bucket.GuildID] = append(r.d.archiveOrder[bucket.GuildID], bucket.ID)
	}
	r.d.archives[key] = &copied
	return nil
}

func (r *archives) Delete(ctx context.Context, guildID, categoryID int64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	key := recordKey{guildID, categoryID}
	if _, exists := r.d.archives[key]; !exists {
		return store.ErrNotFound
	}
	delete(r.d.archives, key)

	order := r.d.archiveOrder[guildID]
	for i, id := range order {
		if id == categoryID {
			r.d.archiveOrder[guildID] = append(order[:i], order[i+1:]...)
			break
		}
	}
	return nil
}

type voiceSessions struct{ d *data }

func (r *voiceSessions) Get(ctx context.Context, guildID, userID int64) (*model.VoiceSession, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	session, exists := r.d.voice[recordKey{guildID, userID}]
	if !exists {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (r *voiceSessions) Upsert(ctx context.Context, session *model.VoiceSession) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	copied := *session
	r.d.voice[recordKey{session.GuildID, session.UserID}] = &copied
	return nil
}

func (r *voiceSessions) Delete(ctx context.Context, guildID, userID int64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	key := recordKey{guildID, userID}
	if _, exists := r.d.voice[key]; !exists {
		return store.ErrNotFound
	}
	delete(r.d.voice, key)
	return nil
}

func (r *voiceSessions) All(ctx context.Context, guildID int64) ([]*model.VoiceSession, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var result []*model.VoiceSession
	for key, session := range r.d.voice {
		if key.guildID == guildID {
			copied := *session
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

type devMode struct{ d *data }

func (r *devMode) IsActive(ctx context.Context, guildID, userID int64) (bool, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	return r.d.devMode[recordKey{guildID, userID}], nil
}

func (r *devMode) Set(ctx context.Context, guildID, userID int64, active bool) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	key := recordKey{guildID, userID}
	if !active {
		delete(r.d.devMode, key)
		return nil
	}
	r.d.devMode[key] = true
	return nil
}

func (r *devMode) ActiveUsers(ctx context.Context, guildID int64) ([]int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var result []int64
	for key, active := range r.d.devMode {
		if key.guildID == guildID && active {
			result = append(result, key.id)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}
