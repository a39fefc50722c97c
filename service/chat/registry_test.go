package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryPresentOnlyWithOpenSessions(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.SessionCount(1))

	s1 := newTestSession(1)
	s2 := newTestSession(1)
	r.Register(s1)
	r.Register(s2)
	assert.Equal(t, 2, r.SessionCount(1))

	r.Unregister(s1)
	assert.Equal(t, 1, r.SessionCount(1))
	r.Unregister(s2)
	assert.Equal(t, 0, r.SessionCount(1))
	assert.Nil(t, r.snapshot(1))
}

func TestRegistryUnregisterReportsRemaining(t *testing.T) {
	r := NewRegistry()
	s1 := newTestSession(1)
	s2 := newTestSession(1)
	r.Register(s1)
	r.Register(s2)

	// the count comes back from the same critical section as the removal,
	// so exactly one of two racing teardowns observes zero
	assert.Equal(t, 1, r.Unregister(s1))
	assert.Equal(t, 0, r.Unregister(s2))
	assert.Equal(t, 0, r.Unregister(s2))
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	s := newTestSession(7)
	r.Register(s)
	r.Unregister(s)
	r.Unregister(s)
	assert.Equal(t, 0, r.SessionCount(7))
}

func TestRegistryDeliverReachesEverySession(t *testing.T) {
	r := NewRegistry()
	s1 := newTestSession(3)
	s2 := newTestSession(3)
	other := newTestSession(4)
	r.Register(s1)
	r.Register(s2)
	r.Register(other)

	r.Deliver(3, BuildPong())

	for _, s := range []*Session{s1, s2} {
		ev := takeEvent(t, s)
		require.Equal(t, "pong", ev["type"])
	}
	requireNoEvent(t, other)
}

func TestRegistryDeliverExceptSkipsActingSession(t *testing.T) {
	r := NewRegistry()
	acting := newTestSession(3)
	idle := newTestSession(3)
	r.Register(acting)
	r.Register(idle)

	r.DeliverExcept(3, BuildCallHandled(9, ReasonAnsweredElsewhere), acting.ID)

	requireNoEvent(t, acting)
	ev := takeEvent(t, idle)
	assert.Equal(t, "call_handled", ev["type"])
	assert.Equal(t, ReasonAnsweredElsewhere, ev["reason"])
}

func TestRegistryDeliverToAbsentUserIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Deliver(99, BuildPong())
}
