package chat

import (
	"context"
	"testing"
	"time"

	"WebChat/service/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncPersistsBatchInOrder(t *testing.T) {
	store := newFakeStore()
	r := NewSyncReconciler(store)

	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	resp, err := r.Sync(context.Background(), 1, SyncRequest{
		Messages: []SyncItem{
			{Content: "first", RoomID: 5, ClientTimestamp: t1, TempID: "a"},
			{Content: "second", RoomID: 5, MessageType: "image", ClientTimestamp: t2, TempID: "b"},
		},
	})
	require.NoError(t, err)

	require.Len(t, resp.SyncedMessages, 2)
	assert.Equal(t, "first", resp.SyncedMessages[0].Content)
	assert.Equal(t, "second", resp.SyncedMessages[1].Content)
	assert.Equal(t, t1, resp.SyncedMessages[0].CreatedAt)
	assert.Equal(t, t2, resp.SyncedMessages[1].CreatedAt)
	assert.Equal(t, "text", resp.SyncedMessages[0].MessageType)
	assert.Equal(t, "image", resp.SyncedMessages[1].MessageType)
	assert.Less(t, resp.SyncedMessages[0].ID, resp.SyncedMessages[1].ID)
}

func TestSyncMidBatchFailurePersistsNothing(t *testing.T) {
	store := newFakeStore()
	store.failBatchAt = 2
	r := NewSyncReconciler(store)

	_, err := r.Sync(context.Background(), 1, SyncRequest{
		Messages: []SyncItem{
			{Content: "a", RoomID: 5, ClientTimestamp: time.Now()},
			{Content: "b", RoomID: 5, ClientTimestamp: time.Now()},
			{Content: "c", RoomID: 5, ClientTimestamp: time.Now()},
		},
	})
	require.Error(t, err)

	// a resubmitted batch must not find half of itself already durable
	assert.Empty(t, store.messages)
}

func TestSyncWithoutLastSyncTimeSkipsCatchUp(t *testing.T) {
	store := newFakeStore()
	r := NewSyncReconciler(store)

	resp, err := r.Sync(context.Background(), 1, SyncRequest{
		Messages: []SyncItem{{Content: "x", RoomID: 5, ClientTimestamp: time.Now()}},
	})
	require.NoError(t, err)
	assert.NotNil(t, resp.NewMessages)
	assert.Empty(t, resp.NewMessages)
}

func TestSyncCatchUpCoversRoomsSentInto(t *testing.T) {
	store := newFakeStore()
	r := NewSyncReconciler(store)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	// user 1 once posted into room 5; room 6 is a room they merely belong to
	_, err := store.CreateMessage(ctx, storage.CreateMessageParams{
		Content: "old", SenderID: 1, RoomID: 5, CreatedAt: base,
	})
	require.NoError(t, err)
	_, err = store.CreateMessage(ctx, storage.CreateMessageParams{
		Content: "from peer", SenderID: 2, RoomID: 5, CreatedAt: base.Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = store.CreateMessage(ctx, storage.CreateMessageParams{
		Content: "unseen room", SenderID: 2, RoomID: 6, CreatedAt: base.Add(time.Hour),
	})
	require.NoError(t, err)

	since := base.Add(time.Minute)
	resp, err := r.Sync(ctx, 1, SyncRequest{LastSyncTime: &since})
	require.NoError(t, err)

	require.Len(t, resp.NewMessages, 1)
	assert.Equal(t, "from peer", resp.NewMessages[0].Content)
	assert.Equal(t, int64(5), resp.NewMessages[0].RoomID)
}

func TestSyncCatchUpExcludesOwnMessages(t *testing.T) {
	store := newFakeStore()
	r := NewSyncReconciler(store)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	since := base

	resp, err := r.Sync(ctx, 1, SyncRequest{
		Messages: []SyncItem{
			{Content: "mine", RoomID: 5, ClientTimestamp: base.Add(time.Minute)},
		},
		LastSyncTime: &since,
	})
	require.NoError(t, err)

	// the freshly synced message is newer than since but sent by the caller
	require.Len(t, resp.SyncedMessages, 1)
	assert.Empty(t, resp.NewMessages)
}

func TestSyncEmptyRequest(t *testing.T) {
	store := newFakeStore()
	r := NewSyncReconciler(store)

	resp, err := r.Sync(context.Background(), 1, SyncRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.SyncedMessages)
	assert.Empty(t, resp.NewMessages)
}
