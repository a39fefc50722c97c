package chat

// Dispatcher fans one event out to every current subscriber of a room.
// Best effort, at most once per call: the subscriber set is snapshotted
// first, so an identity leaving mid-broadcast may or may not receive the
// event. If stronger guarantees are ever needed, a durable per-room event
// log would slot in here.
type Dispatcher struct {
	registry *Registry
	rooms    *RoomIndex
}

func NewDispatcher(registry *Registry, rooms *RoomIndex) *Dispatcher {
	return &Dispatcher{registry: registry, rooms: rooms}
}

// Broadcast delivers the event to all subscribers of roomID except
// excludeUserID (0 excludes nobody). Delivery failures are absorbed by the
// registry; a gone session simply misses the event and catches up via sync.
func (d *Dispatcher) Broadcast(roomID int64, event any, excludeUserID int64) {
	for _, userID := range d.rooms.Subscribers(roomID) {
		if excludeUserID != 0 && userID == excludeUserID {
			continue
		}
		d.registry.Deliver(userID, event)
	}
}
