package relay

import (
	"sort"
	"sync"

	"github.com/onra/voice/internal/domain"
)

// Membership tracks which users are signaling together per room. This is
// ephemeral peer-connection state, not the persisted room assignment on
// the user record.
type Membership struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[domain.UserID]struct{}
}

func NewMembership() *Membership {
	return &Membership{rooms: make(map[domain.RoomID]map[domain.UserID]struct{})}
}

func (m *Membership) Join(room domain.RoomID, uid domain.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.rooms[room]
	if !ok {
		set = make(map[domain.UserID]struct{})
		m.rooms[room] = set
	}
	set[uid] = struct{}{}
}

// Leave removes uid from room and deletes the room entry when it empties.
func (m *Membership) Leave(room domain.RoomID, uid domain.UserID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.rooms[room]
	if !ok {
		return false
	}
	if _, ok := set[uid]; !ok {
		return false
	}
	delete(set, uid)
	if len(set) == 0 {
		delete(m.rooms, room)
	}
	return true
}

// Participants returns the members of room, sorted. Empty for unknown rooms.
func (m *Membership) Participants(room domain.RoomID) []domain.UserID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.rooms[room]
	out := make([]domain.UserID, 0, len(set))
	for uid := range set {
		out = append(out, uid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RemoveEverywhere drops uid from every room set and returns the rooms it
// was a member of. Emptied rooms are deleted.
func (m *Membership) RemoveEverywhere(uid domain.UserID) []domain.RoomID {
	m.mu.Lock()
	defer m.mu.Unlock()
	var affected []domain.RoomID
	for room, set := range m.rooms {
		if _, ok := set[uid]; !ok {
			continue
		}
		delete(set, uid)
		if len(set) == 0 {
			delete(m.rooms, room)
		}
		affected = append(affected, room)
	}
	return affected
}

func (m *Membership) Rooms() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
