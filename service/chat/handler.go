package chat

import (
	"context"
	"net"
	"net/http"
	"time"

	"WebChat/logger"
	"WebChat/metrics"
	"WebChat/service/auth"
	"WebChat/service/storage"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// frameTimeout bounds one frame's storage work. There is no mid-flight
// cancellation: the unit of work completes (or fails) even if the
// connection closes underneath it.
const frameTimeout = 10 * time.Second

// Handler drives one connection through
// CONNECTING -> AUTHENTICATING -> ACTIVE -> CLOSED. Frames for a single
// connection are processed strictly in arrival order on its own goroutine;
// connections never share state except through the registry, room index
// and dispatcher.
type Handler struct {
	opts     Options
	authMgr  *auth.Manager
	store    storage.ChatStore
	registry *Registry
	rooms    *RoomIndex
	disp     *Dispatcher
	notifier *Notifier
}

func NewHandler(opts Options, authMgr *auth.Manager, store storage.ChatStore,
	registry *Registry, rooms *RoomIndex, disp *Dispatcher, notifier *Notifier) *Handler {
	opts.norm()
	return &Handler{
		opts:     opts,
		authMgr:  authMgr,
		store:    store,
		registry: registry,
		rooms:    rooms,
		disp:     disp,
		notifier: notifier,
	}
}

// HandleWS upgrades the request and runs the connection to completion.
func (h *Handler) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade: %v", err)
		return
	}

	user, ok := h.authenticate(ws, c.Query("token"))
	if !ok {
		// policy violation close already sent
		_ = ws.Close()
		return
	}

	session := NewSession(user.ID, ws, h.opts)
	h.registry.Register(session)
	metrics.ActiveSessions.Inc()
	metrics.TotalSessions.Inc()
	go session.writePump()

	h.notifier.NotifyAsync(user.ID, StatusOnline)
	session.SendEvent(BuildConnected(user))
	logger.Infof("[ws] user=%d session=%s connected", user.ID, session.ID)

	h.readLoop(session, user)
	h.teardown(session, user)
}

// authenticate consumes the credential passed at connect time. Failure is
// fatal to the connection: close code 1008, no retry on this socket.
func (h *Handler) authenticate(ws *websocket.Conn, token string) (*storage.User, bool) {
	failClose := func(reason string) {
		metrics.AuthFailures.WithLabelValues(reason).Inc()
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication failed")
		_ = ws.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
		_ = ws.WriteMessage(websocket.CloseMessage, msg)
	}

	if token == "" {
		failClose("missing_token")
		return nil, false
	}
	username, err := h.authMgr.VerifyToken(token)
	if err != nil {
		logger.Infof("[ws] token rejected: %v", err)
		failClose("bad_token")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()
	user, err := h.store.GetUserByUsername(ctx, username)
	if err != nil {
		logger.Errorf("[ws] lookup user %q: %v", username, err)
		failClose("lookup_failed")
		return nil, false
	}
	if user == nil || !user.IsActive {
		failClose("unknown_user")
		return nil, false
	}
	return user, true
}

// readLoop is the ACTIVE state. Per-frame failures are logged and the loop
// keeps going; only transport errors end it.
func (h *Handler) readLoop(session *Session, user *storage.User) {
	ws := session.conn
	_ = ws.SetReadDeadline(time.Now().Add(h.opts.PongTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(h.opts.PongTimeout))
	})

	for {
		mt, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] user=%d session=%s peer closed: %v", user.ID, session.ID, err)
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] user=%d session=%s read timeout: %v", user.ID, session.ID, err)
			} else {
				logger.Infof("[ws] user=%d session=%s read: %v", user.ID, session.ID, err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		// reading counts as liveness alongside pongs
		_ = ws.SetReadDeadline(time.Now().Add(h.opts.PongTimeout))

		frame, perr := ParseFrame(raw)
		if perr != nil {
			// malformed input never kills the session
			logger.Debugf("[ws] user=%d malformed frame: %v", user.ID, perr)
			continue
		}
		metrics.FramesReceived.WithLabelValues(frame.frameKind()).Inc()
		h.handleFrame(session, user, frame)
	}
}

func (h *Handler) handleFrame(session *Session, user *storage.User, frame Frame) {
	switch f := frame.(type) {
	case PingFrame:
		session.SendEvent(BuildPong())
	case JoinRoomFrame:
		h.handleJoinRoom(session, user, f)
	case LeaveRoomFrame:
		h.rooms.Unsubscribe(f.RoomID, user.ID)
	case MessageFrame:
		h.handleMessage(session, user, f)
	case SignalFrame:
		h.handleSignal(session, user, f)
	case UnknownFrame:
		logger.Debugf("[ws] user=%d unrecognized frame kind %q", user.ID, f.Kind)
	}
}

// handleJoinRoom re-validates durable membership on every request; group
// membership can change between frames and a lookup is cheap.
func (h *Handler) handleJoinRoom(session *Session, user *storage.User, f JoinRoomFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	member, err := h.store.VerifyMembership(ctx, f.RoomID, user.ID)
	if err != nil {
		logger.Errorf("[ws] user=%d join room=%d membership check: %v", user.ID, f.RoomID, err)
		return
	}
	if !member {
		session.SendEvent(BuildError("Access denied to room"))
		return
	}
	h.rooms.Subscribe(f.RoomID, user.ID)
	session.SendEvent(BuildJoinedRoom(f.RoomID))
}

func (h *Handler) handleMessage(session *Session, user *storage.User, f MessageFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	member, err := h.store.VerifyMembership(ctx, f.RoomID, user.ID)
	if err != nil {
		logger.Errorf("[ws] user=%d message room=%d membership check: %v", user.ID, f.RoomID, err)
		return
	}
	if !member {
		return
	}

	msg, err := h.store.CreateMessage(ctx, storage.CreateMessageParams{
		Content:     f.Content,
		SenderID:    user.ID,
		RoomID:      f.RoomID,
		MessageType: f.MessageType,
	})
	if err != nil {
		// frame abandoned: nothing persisted, nothing broadcast
		logger.Errorf("[ws] user=%d persist message room=%d: %v", user.ID, f.RoomID, err)
		return
	}
	metrics.MessagesPersisted.Inc()

	// ack the sending session before the fan-out
	if f.CorrelationID != "" {
		session.SendEvent(BuildMessageAck(f.CorrelationID, msg))
	}
	h.disp.Broadcast(f.RoomID, BuildNewMessage(msg, user.Summary()), 0)
}

// handleSignal relays call payloads verbatim to all sessions of the target.
// Answer/reject additionally tell the actor's other devices to stop
// ringing.
func (h *Handler) handleSignal(session *Session, user *storage.User, f SignalFrame) {
	switch f.Kind {
	case KindCallOffer:
		h.registry.Deliver(f.TargetUserID, BuildCallSignal("call_offer", user.ID, f))
	case KindICECandidate:
		h.registry.Deliver(f.TargetUserID, BuildCallSignal("ice_candidate", user.ID, f))
	case KindCallAnswer:
		h.registry.Deliver(f.TargetUserID, BuildCallSignal("call_answer", user.ID, f))
		h.registry.DeliverExcept(user.ID,
			BuildCallHandled(f.TargetUserID, ReasonAnsweredElsewhere), session.ID)
	case KindCallReject:
		h.registry.Deliver(f.TargetUserID, BuildCallSignal("call_rejected", user.ID, f))
		h.registry.DeliverExcept(user.ID,
			BuildCallHandled(f.TargetUserID, ReasonRejectedElsewhere), session.ID)
	}
}

// teardown is the CLOSED state: unregister this session, and only when the
// identity has no sessions left, purge its subscriptions and announce the
// offline transition.
func (h *Handler) teardown(session *Session, user *storage.User) {
	session.Close()
	remaining := h.registry.Unregister(session)
	metrics.ActiveSessions.Dec()

	if remaining == 0 {
		h.rooms.Purge(user.ID)
		h.notifier.NotifyAsync(user.ID, StatusOffline)
	}
	logger.Infof("[ws] user=%d session=%s closed", user.ID, session.ID)
}
