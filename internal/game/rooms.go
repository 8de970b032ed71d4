package game

import "sync"

// Rooms tracks which identities joined each lobby. Rooms live for the whole
// process and players cannot leave.
type Rooms struct {
	rooms sync.Map // lobby id -> *room
}

type room struct {
	mu      sync.RWMutex
	members []string
	index   map[string]struct{}
}

// NewRooms creates an empty registry.
func NewRooms() *Rooms {
	return &Rooms{}
}

// CreateRoom registers the room; creating an existing room is a no-op.
func (r *Rooms) CreateRoom(id string) {
	r.rooms.LoadOrStore(id, &room{index: make(map[string]struct{})})
}

// Exists reports whether the room was created.
func (r *Rooms) Exists(id string) bool {
	_, ok := r.rooms.Load(id)
	return ok
}

// AddPlayer joins identity to the room. It returns false when the room does
// not exist or the identity is already a member.
func (r *Rooms) AddPlayer(id, identity string) bool {
	v, ok := r.rooms.Load(id)
	if !ok {
		return false
	}
	rm := v.(*room)
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if _, dup := rm.index[identity]; dup {
		return false
	}
	rm.index[identity] = struct{}{}
	rm.members = append(rm.members, identity)
	return true
}

// Players returns a snapshot of the members in join order. Unknown rooms
// have no players.
func (r *Rooms) Players(id string) []string {
	v, ok := r.rooms.Load(id)
	if !ok {
		return []string{}
	}
	rm := v.(*room)
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return append([]string{}, rm.members...)
}

// HasAll reports whether identities covers every member of the room.
func (r *Rooms) HasAll(id string, identities map[string]int) bool {
	for _, p := range r.Players(id) {
		if _, ok := identities[p]; !ok {
			return false
		}
	}
	return true
}

// IsMember reports whether identity joined the room.
func (r *Rooms) IsMember(id, identity string) bool {
	v, ok := r.rooms.Load(id)
	if !ok {
		return false
	}
	rm := v.(*room)
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	_, ok = rm.index[identity]
	return ok
}
