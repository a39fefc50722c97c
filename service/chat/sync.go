package chat

import (
	"context"
	"time"

	"WebChat/metrics"
	"WebChat/service/storage"
)

// SyncItem is one client-buffered message produced while offline.
type SyncItem struct {
	Content         string    `json:"content"`
	RoomID          int64     `json:"room_id"`
	MessageType     string    `json:"message_type"`
	ClientTimestamp time.Time `json:"client_timestamp"`
	TempID          string    `json:"temp_id"`
}

type SyncRequest struct {
	Messages     []SyncItem `json:"messages"`
	LastSyncTime *time.Time `json:"last_sync_time"`
}

type SyncResponse struct {
	SyncedMessages []storage.Message           `json:"synced_messages"`
	NewMessages    []storage.MessageWithSender `json:"new_messages"`
}

// SyncReconciler converts a client's offline buffer into durable messages
// and returns what the client missed. Stateless; not bound to any
// connection.
type SyncReconciler struct {
	store storage.ChatStore
}

func NewSyncReconciler(store storage.ChatStore) *SyncReconciler {
	return &SyncReconciler{store: store}
}

// Sync persists the batch in submission order, stamping each message with
// its client timestamp, then (when lastSyncTime is given) collects catch-up
// messages oldest first.
//
// Catch-up scope is rooms the identity has SENT INTO, not its full durable
// membership — a member who never posted gets no catch-up here. Kept
// deliberately: existing clients depend on current behavior and product
// has not signed off on widening it.
func (r *SyncReconciler) Sync(ctx context.Context, userID int64, req SyncRequest) (*SyncResponse, error) {
	resp := &SyncResponse{
		SyncedMessages: []storage.Message{},
		NewMessages:    []storage.MessageWithSender{},
	}

	// one transaction for the whole batch: clients resubmit on failure,
	// so a partial flush would duplicate the rows that did land
	if len(req.Messages) > 0 {
		batch := make([]storage.CreateMessageParams, 0, len(req.Messages))
		for _, item := range req.Messages {
			mt := item.MessageType
			if mt == "" {
				mt = "text"
			}
			batch = append(batch, storage.CreateMessageParams{
				Content:     item.Content,
				SenderID:    userID,
				RoomID:      item.RoomID,
				MessageType: mt,
				CreatedAt:   item.ClientTimestamp,
			})
		}
		persisted, err := r.store.CreateMessages(ctx, batch)
		if err != nil {
			return nil, err
		}
		metrics.MessagesPersisted.Add(float64(len(persisted)))
		resp.SyncedMessages = persisted
	}

	if req.LastSyncTime != nil {
		roomIDs, err := r.store.RoomsSentInto(ctx, userID)
		if err != nil {
			return nil, err
		}
		if len(roomIDs) > 0 {
			missed, err := r.store.ListMessagesSince(ctx, roomIDs, *req.LastSyncTime, userID)
			if err != nil {
				return nil, err
			}
			if missed != nil {
				resp.NewMessages = missed
			}
		}
	}
	return resp, nil
}
