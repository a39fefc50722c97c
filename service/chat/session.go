package chat

import (
	"encoding/json"
	"sync"
	"time"

	"WebChat/logger"
	"WebChat/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Options bound the per-session transport behavior.
type Options struct {
	ReadLimit    int64
	SendBuffer   int
	WriteTimeout time.Duration
	PongTimeout  time.Duration
	PingInterval time.Duration
}

func (o *Options) norm() {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 1 << 20
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.PingInterval <= 0 || o.PingInterval >= o.PongTimeout {
		o.PingInterval = o.PongTimeout * 9 / 10
	}
}

// Session is one open connection of one identity. It owns an outbound
// queue drained by a dedicated writer goroutine; enqueueing never blocks
// the caller.
type Session struct {
	ID        string
	UserID    int64
	CreatedAt time.Time

	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	opts      Options
}

func NewSession(userID int64, conn *websocket.Conn, opts Options) *Session {
	opts.norm()
	if conn != nil {
		conn.SetReadLimit(opts.ReadLimit)
	}
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now(),
		conn:      conn,
		send:      make(chan []byte, opts.SendBuffer),
		done:      make(chan struct{}),
		opts:      opts,
	}
}

// Enqueue hands an encoded event to the writer. A full queue or an already
// closed session drops the event; the caller never sees an error.
func (s *Session) Enqueue(data []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- data:
		metrics.EventsDelivered.Inc()
		return true
	default:
		metrics.EventsDropped.Inc()
		logger.Warnf("session %s user=%d send queue full, dropping event", s.ID, s.UserID)
		return false
	}
}

// SendEvent marshals and enqueues an event for this session only. Used for
// direct responses (pong, acks, errors).
func (s *Session) SendEvent(event any) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Errorf("session %s marshal event: %v", s.ID, err)
		return
	}
	s.Enqueue(data)
}

// Close is idempotent; the writer goroutine notices and finishes.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
}

// writePump drains the send queue onto the socket and keeps the connection
// alive with pings. One per session; exits when the session closes or a
// write fails.
func (s *Session) writePump() {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case <-s.done:
			_ = s.write(websocket.CloseMessage, []byte{})
			return
		case data := <-s.send:
			if err := s.write(websocket.TextMessage, data); err != nil {
				logger.Infof("session %s write: %v", s.ID, err)
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				logger.Infof("session %s ping: %v", s.ID, err)
				return
			}
		}
	}
}

func (s *Session) write(messageType int, data []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, data)
}
