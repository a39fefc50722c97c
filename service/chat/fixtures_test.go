package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"WebChat/service/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory storage.ChatStore for exercising the realtime
// path without a database.
type fakeStore struct {
	mu        sync.Mutex
	members   map[[2]int64]bool // (roomID, userID) -> member
	nextID    int64
	messages  []storage.Message
	friends   map[int64][]int64
	summaries map[int64]*storage.UserSummary
	users     map[string]*storage.User
	lastSeen  map[int64]time.Time
	memberErr error
	createErr error
	// fail the batch when it reaches this 1-based index; 0 disables
	failBatchAt int
}

var _ storage.ChatStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:   make(map[[2]int64]bool),
		friends:   make(map[int64][]int64),
		summaries: make(map[int64]*storage.UserSummary),
		users:     make(map[string]*storage.User),
		lastSeen:  make(map[int64]time.Time),
	}
}

func (f *fakeStore) addMember(roomID, userID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[[2]int64{roomID, userID}] = true
}

func (f *fakeStore) VerifyMembership(_ context.Context, roomID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.memberErr != nil {
		return false, f.memberErr
	}
	return f.members[[2]int64{roomID, userID}], nil
}

func (f *fakeStore) CreateMessage(_ context.Context, p storage.CreateMessageParams) (*storage.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	mt := p.MessageType
	if mt == "" {
		mt = "text"
	}
	msg := storage.Message{
		ID:          f.nextID,
		Content:     p.Content,
		SenderID:    p.SenderID,
		RoomID:      p.RoomID,
		MessageType: mt,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	f.messages = append(f.messages, msg)
	return &msg, nil
}

// CreateMessages mirrors the store's all-or-nothing batch: rows are staged
// and only appended once every insert succeeded.
func (f *fakeStore) CreateMessages(_ context.Context, batch []storage.CreateMessageParams) ([]storage.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	staged := make([]storage.Message, 0, len(batch))
	id := f.nextID
	for i, p := range batch {
		if f.failBatchAt > 0 && i+1 == f.failBatchAt {
			return nil, assert.AnError
		}
		id++
		createdAt := p.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		mt := p.MessageType
		if mt == "" {
			mt = "text"
		}
		staged = append(staged, storage.Message{
			ID:          id,
			Content:     p.Content,
			SenderID:    p.SenderID,
			RoomID:      p.RoomID,
			MessageType: mt,
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		})
	}
	f.nextID = id
	f.messages = append(f.messages, staged...)
	return staged, nil
}

func (f *fakeStore) ListMessagesSince(_ context.Context, roomIDs []int64, after time.Time, excludeSender int64) ([]storage.MessageWithSender, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	in := make(map[int64]bool, len(roomIDs))
	for _, id := range roomIDs {
		in[id] = true
	}
	var out []storage.MessageWithSender
	for _, m := range f.messages {
		if !in[m.RoomID] || m.SenderID == excludeSender || !m.CreatedAt.After(after) {
			continue
		}
		out = append(out, storage.MessageWithSender{Message: m, Sender: f.summaries[m.SenderID]})
	}
	return out, nil
}

func (f *fakeStore) RoomsSentInto(_ context.Context, userID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[int64]bool)
	var out []int64
	for _, m := range f.messages {
		if m.SenderID == userID && !seen[m.RoomID] {
			seen[m.RoomID] = true
			out = append(out, m.RoomID)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAcceptedFriendIDs(_ context.Context, userID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.friends[userID], nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[username], nil
}

func (f *fakeStore) TouchLastSeen(_ context.Context, userID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSeen[userID] = at
	return nil
}

// fakePresence records presence writes.
type fakePresence struct {
	mu     sync.Mutex
	online map[int64]bool
	seen   map[int64]time.Time
}

var _ storage.PresenceStore = (*fakePresence)(nil)

func newFakePresence() *fakePresence {
	return &fakePresence{online: make(map[int64]bool), seen: make(map[int64]time.Time)}
}

func (f *fakePresence) SetPresence(_ context.Context, userID int64, active bool, lastSeen time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[userID] = active
	f.seen[userID] = lastSeen
	return nil
}

func (f *fakePresence) LastSeen(_ context.Context, userID int64) (time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.seen[userID]
	return t, ok, nil
}

func (f *fakePresence) IsOnline(_ context.Context, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[userID], nil
}

// newTestSession builds a session with no socket; tests read queued events
// straight off the send channel, the writer goroutine is never started.
func newTestSession(userID int64) *Session {
	return NewSession(userID, nil, Options{})
}

// takeEvent pops the next queued event and decodes it.
func takeEvent(t *testing.T, s *Session) map[string]any {
	t.Helper()
	select {
	case data := <-s.send:
		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	default:
		t.Fatal("expected a queued event, got none")
		return nil
	}
}

func requireNoEvent(t *testing.T, s *Session) {
	t.Helper()
	select {
	case data := <-s.send:
		t.Fatalf("expected no event, got %s", data)
	default:
	}
}
