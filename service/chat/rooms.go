package chat

import "sync"

// RoomIndex tracks which identities currently observe each room over an
// open connection. Purely in-memory; rebuilt from nothing after a restart.
// Subscription is not membership — callers verify durable membership before
// subscribing.
type RoomIndex struct {
	mu    sync.RWMutex
	rooms map[int64]map[int64]struct{}
}

func NewRoomIndex() *RoomIndex {
	return &RoomIndex{rooms: make(map[int64]map[int64]struct{})}
}

func (ri *RoomIndex) Subscribe(roomID, userID int64) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	set := ri.rooms[roomID]
	if set == nil {
		set = make(map[int64]struct{})
		ri.rooms[roomID] = set
	}
	set[userID] = struct{}{}
}

func (ri *RoomIndex) Unsubscribe(roomID, userID int64) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	set := ri.rooms[roomID]
	if set == nil {
		return
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(ri.rooms, roomID)
	}
}

// Purge removes the identity from every room. Called when its last session
// closes.
func (ri *RoomIndex) Purge(userID int64) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	for roomID, set := range ri.rooms {
		delete(set, userID)
		if len(set) == 0 {
			delete(ri.rooms, roomID)
		}
	}
}

// Subscribers returns a snapshot of the room's subscriber set; safe to
// iterate while others mutate the index.
func (ri *RoomIndex) Subscribers(roomID int64) []int64 {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	set := ri.rooms[roomID]
	if len(set) == 0 {
		return nil
	}
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// RoomCount is used by tests and debug surfaces.
func (ri *RoomIndex) RoomCount() int {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	return len(ri.rooms)
}
