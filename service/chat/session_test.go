package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionEnqueueAfterCloseDrops(t *testing.T) {
	s := newTestSession(1)
	s.Close()
	assert.False(t, s.Enqueue([]byte(`{}`)))
}

func TestSessionCloseIdempotent(t *testing.T) {
	s := newTestSession(1)
	s.Close()
	s.Close()
}

func TestSessionFullQueueDropsInsteadOfBlocking(t *testing.T) {
	s := NewSession(1, nil, Options{SendBuffer: 2})
	assert.True(t, s.Enqueue([]byte(`1`)))
	assert.True(t, s.Enqueue([]byte(`2`)))
	assert.False(t, s.Enqueue([]byte(`3`)))
}

func TestSessionIDsAreUnique(t *testing.T) {
	a := newTestSession(1)
	b := newTestSession(1)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSendEventEncodesJSON(t *testing.T) {
	s := newTestSession(1)
	s.SendEvent(BuildError("boom"))
	ev := takeEvent(t, s)
	assert.Equal(t, "error", ev["type"])
	assert.Equal(t, "boom", ev["message"])
}
