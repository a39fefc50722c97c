package chat

import (
	"context"
	"time"

	"WebChat/logger"
	"WebChat/service/storage"
)

// Notifier pushes online/offline transitions to the user's accepted
// friends and records them in the presence store. Invoked off the
// connect/disconnect path; it must never block the protocol handler.
type Notifier struct {
	registry *Registry
	store    storage.ChatStore
	presence storage.PresenceStore
	timeout  time.Duration
}

func NewNotifier(registry *Registry, store storage.ChatStore, presence storage.PresenceStore) *Notifier {
	return &Notifier{
		registry: registry,
		store:    store,
		presence: presence,
		timeout:  10 * time.Second,
	}
}

// NotifyAsync runs Notify on its own goroutine; the spawning path does not
// wait for it.
func (n *Notifier) NotifyAsync(userID int64, status string) {
	go n.Notify(userID, status)
}

// Notify fans a user_status event out to every accepted friend of userID
// and updates the presence store. Errors are logged, never propagated: a
// missed presence update must not affect the connection that triggered it.
func (n *Notifier) Notify(userID int64, status string) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	now := time.Now().UTC()
	if n.presence != nil {
		if err := n.presence.SetPresence(ctx, userID, status == StatusOnline, now); err != nil {
			logger.Errorf("presence: set user=%d status=%s: %v", userID, status, err)
		}
	}
	if err := n.store.TouchLastSeen(ctx, userID, now); err != nil {
		logger.Errorf("presence: touch last_seen user=%d: %v", userID, err)
	}

	friends, err := n.store.ListAcceptedFriendIDs(ctx, userID)
	if err != nil {
		logger.Errorf("presence: list friends of user=%d: %v", userID, err)
		return
	}
	if len(friends) == 0 {
		return
	}
	event := BuildUserStatus(userID, status, now)
	for _, friendID := range friends {
		n.registry.Deliver(friendID, event)
	}
	logger.Debugf("presence: user=%d %s, notified %d friends", userID, status, len(friends))
}
