package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyOnlineReachesFriends(t *testing.T) {
	store := newFakeStore()
	store.friends[1] = []int64{2, 3}
	registry := NewRegistry()
	presence := newFakePresence()
	n := NewNotifier(registry, store, presence)

	friend := newTestSession(2)
	registry.Register(friend)
	// friend 3 is offline, nothing to deliver there

	n.Notify(1, StatusOnline)

	ev := takeEvent(t, friend)
	require.Equal(t, "user_status", ev["type"])
	assert.Equal(t, float64(1), ev["user_id"])
	assert.Equal(t, StatusOnline, ev["status"])
	requireNoEvent(t, friend)

	online, err := presence.IsOnline(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, online)
	assert.False(t, store.lastSeen[1].IsZero())
}

func TestNotifyOfflineClearsPresence(t *testing.T) {
	store := newFakeStore()
	store.friends[1] = []int64{2}
	registry := NewRegistry()
	presence := newFakePresence()
	n := NewNotifier(registry, store, presence)

	friend := newTestSession(2)
	registry.Register(friend)

	n.Notify(1, StatusOnline)
	takeEvent(t, friend)
	n.Notify(1, StatusOffline)

	ev := takeEvent(t, friend)
	assert.Equal(t, StatusOffline, ev["status"])

	online, err := presence.IsOnline(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, online)
}

func TestNotifyWithoutFriendsStillRecordsPresence(t *testing.T) {
	store := newFakeStore()
	registry := NewRegistry()
	presence := newFakePresence()
	n := NewNotifier(registry, store, presence)

	n.Notify(5, StatusOnline)

	_, ok, err := presence.LastSeen(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNotifyTimestampIsRecent(t *testing.T) {
	store := newFakeStore()
	registry := NewRegistry()
	n := NewNotifier(registry, store, newFakePresence())

	before := time.Now().UTC().Add(-time.Second)
	n.Notify(8, StatusOnline)

	assert.True(t, store.lastSeen[8].After(before))
}
