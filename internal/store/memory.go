package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/onra/voice/internal/domain"
)

// Mem is a threadsafe in-memory Store. State is lost on restart; clients
// re-authenticate and rejoin rooms on reconnect.
type Mem struct {
	mu         sync.RWMutex
	users      map[domain.UserID]*domain.User
	rooms      map[domain.RoomID]*domain.Room
	recordings map[string]*domain.Recording
	nextUserID domain.UserID
	nextRoomID domain.RoomID
}

func NewMem() *Mem {
	return &Mem{
		users:      make(map[domain.UserID]*domain.User),
		rooms:      make(map[domain.RoomID]*domain.Room),
		recordings: make(map[string]*domain.Recording),
		nextUserID: 1,
		nextRoomID: 1,
	}
}

// Seed creates the admin account if no user with that name exists yet.
func (m *Mem) Seed(ctx context.Context, username, password string) error {
	if _, err := m.GetUserByUsername(ctx, username); err == nil {
		return nil
	}
	admin, err := domain.NewUser(username, password, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if _, err := m.CreateUser(ctx, admin); err != nil {
		return err
	}
	log.Info().Str("module", "store").Str("username", username).Msg("seeded admin user")
	return nil
}

func (m *Mem) CreateUser(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return nil, ErrUsernameTaken
		}
	}
	cp := *u
	cp.ID = m.nextUserID
	m.nextUserID++
	m.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *Mem) GetUser(_ context.Context, id domain.UserID) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Mem) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Mem) GetAllUsers(_ context.Context) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Mem) UpdateUser(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return nil, ErrNotFound
	}
	cp := *u
	m.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *Mem) DeleteUser(_ context.Context, id domain.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *Mem) CreateRoom(_ context.Context, r *domain.Room) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rooms {
		if existing.Name == r.Name {
			return nil, ErrRoomNameTaken
		}
	}
	cp := *r
	cp.ID = m.nextRoomID
	m.nextRoomID++
	m.rooms[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *Mem) GetRoom(_ context.Context, id domain.RoomID) (*domain.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *Mem) GetAllRooms(_ context.Context) ([]*domain.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Mem) UpdateRoom(_ context.Context, r *domain.Room) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[r.ID]; !ok {
		return nil, ErrNotFound
	}
	cp := *r
	m.rooms[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *Mem) DeleteRoom(_ context.Context, id domain.RoomID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return ErrNotFound
	}
	delete(m.rooms, id)
	// Users assigned to a deleted room fall back to "no room".
	for _, u := range m.users {
		if u.RoomID == id {
			u.RoomID = 0
		}
	}
	return nil
}

func (m *Mem) CreateRecording(_ context.Context, r *domain.Recording) (*domain.Recording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	cp.ID = uuid.NewString()
	m.recordings[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *Mem) GetRecording(_ context.Context, id string) (*domain.Recording, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.recordings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// GetRecordings lists recordings, newest first. userID 0 means all users.
func (m *Mem) GetRecordings(_ context.Context, userID domain.UserID) ([]*domain.Recording, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Recording, 0, len(m.recordings))
	for _, r := range m.recordings {
		if userID != 0 && r.UserID != userID {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Mem) DeleteRecording(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recordings[id]; !ok {
		return ErrNotFound
	}
	delete(m.recordings, id)
	return nil
}
