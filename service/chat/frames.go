package chat

import (
	"encoding/json"
	"strconv"
	"time"

	"WebChat/service/storage"

	"github.com/pkg/errors"
)

// Inbound frame kinds recognized while a connection is active.
const (
	KindPing         = "ping"
	KindJoinRoom     = "join_room"
	KindLeaveRoom    = "leave_room"
	KindMessage      = "message"
	KindCallOffer    = "call_offer"
	KindCallAnswer   = "call_answer"
	KindCallReject   = "call_reject"
	KindICECandidate = "ice_candidate"
)

// flexID accepts a JSON number or a numeric string. Existing clients send
// room ids both ways.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty id")
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*f = flexID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n)
	return nil
}

type inboundEnvelope struct {
	Type          string          `json:"type"`
	RoomID        *flexID         `json:"room_id"`
	Content       string          `json:"content"`
	MessageType   string          `json:"message_type"`
	TargetUserID  *flexID         `json:"target_user_id"`
	SDP           json.RawMessage `json:"sdp"`
	Candidate     json.RawMessage `json:"candidate"`
	CorrelationID string          `json:"correlation_id"`
}

// Frame is the closed set of inbound variants. Anything that does not
// parse into one of these lands on UnknownFrame.
type Frame interface{ frameKind() string }

type PingFrame struct{}

type JoinRoomFrame struct{ RoomID int64 }

type LeaveRoomFrame struct{ RoomID int64 }

type MessageFrame struct {
	RoomID        int64
	Content       string
	MessageType   string
	CorrelationID string
}

// SignalFrame carries a call-signaling payload relayed verbatim.
type SignalFrame struct {
	Kind         string
	TargetUserID int64
	SDP          json.RawMessage
	Candidate    json.RawMessage
}

type UnknownFrame struct{ Kind string }

func (PingFrame) frameKind() string      { return KindPing }
func (JoinRoomFrame) frameKind() string  { return KindJoinRoom }
func (LeaveRoomFrame) frameKind() string { return KindLeaveRoom }
func (MessageFrame) frameKind() string   { return KindMessage }
func (f SignalFrame) frameKind() string  { return f.Kind }
func (f UnknownFrame) frameKind() string { return f.Kind }

// ParseFrame decodes one inbound frame. A non-nil error means the frame is
// malformed and must be swallowed, never answered.
func ParseFrame(raw []byte) (Frame, error) {
	var env inboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(err, "unmarshal frame")
	}
	switch env.Type {
	case KindPing:
		return PingFrame{}, nil
	case KindJoinRoom:
		if env.RoomID == nil {
			return nil, errors.New("join_room: missing room_id")
		}
		return JoinRoomFrame{RoomID: int64(*env.RoomID)}, nil
	case KindLeaveRoom:
		if env.RoomID == nil {
			return nil, errors.New("leave_room: missing room_id")
		}
		return LeaveRoomFrame{RoomID: int64(*env.RoomID)}, nil
	case KindMessage:
		if env.RoomID == nil {
			return nil, errors.New("message: missing room_id")
		}
		mt := env.MessageType
		if mt == "" {
			mt = "text"
		}
		return MessageFrame{
			RoomID:        int64(*env.RoomID),
			Content:       env.Content,
			MessageType:   mt,
			CorrelationID: env.CorrelationID,
		}, nil
	case KindCallOffer, KindCallAnswer, KindCallReject, KindICECandidate:
		if env.TargetUserID == nil {
			return nil, errors.New(env.Type + ": missing target_user_id")
		}
		return SignalFrame{
			Kind:         env.Type,
			TargetUserID: int64(*env.TargetUserID),
			SDP:          env.SDP,
			Candidate:    env.Candidate,
		}, nil
	default:
		return UnknownFrame{Kind: env.Type}, nil
	}
}

// ---- outbound events ----

type ConnectedEvent struct {
	Type     string `json:"type"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type JoinedRoomEvent struct {
	Type   string `json:"type"`
	RoomID int64  `json:"room_id"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type PongEvent struct {
	Type string `json:"type"`
}

type NewMessageEvent struct {
	Type    string                     `json:"type"`
	Message *storage.MessageWithSender `json:"message"`
}

type MessageAckEvent struct {
	Type          string `json:"type"`
	CorrelationID string `json:"correlation_id"`
	MessageID     int64  `json:"message_id"`
	RoomID        int64  `json:"room_id"`
}

type MessageUpdatedEvent struct {
	Type    string             `json:"type"`
	Message *MessageUpdateInfo `json:"message"`
}

type MessageUpdateInfo struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	RoomID    int64     `json:"room_id"`
	IsEdited  bool      `json:"is_edited"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserStatusEvent struct {
	Type     string    `json:"type"`
	UserID   int64     `json:"user_id"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"last_seen"`
}

// CallSignalEvent mirrors an inbound signaling frame to the target identity.
type CallSignalEvent struct {
	Type      string          `json:"type"`
	SenderID  int64           `json:"sender_id"`
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	Reason    string          `json:"reason,omitempty"`
}

// CallHandledEvent tells a user's other devices to stop ringing.
type CallHandledEvent struct {
	Type   string `json:"type"`
	PeerID int64  `json:"peer_id"`
	Reason string `json:"reason"`
}

const (
	StatusOnline  = "online"
	StatusOffline = "offline"

	ReasonRejected          = "rejected"
	ReasonAnsweredElsewhere = "answered_elsewhere"
	ReasonRejectedElsewhere = "rejected_elsewhere"
)

func BuildConnected(u *storage.User) ConnectedEvent {
	return ConnectedEvent{Type: "connected", UserID: u.ID, Username: u.Username}
}

func BuildJoinedRoom(roomID int64) JoinedRoomEvent {
	return JoinedRoomEvent{Type: "joined_room", RoomID: roomID}
}

func BuildError(msg string) ErrorEvent {
	return ErrorEvent{Type: "error", Message: msg}
}

func BuildPong() PongEvent {
	return PongEvent{Type: "pong"}
}

func BuildNewMessage(m *storage.Message, sender *storage.UserSummary) NewMessageEvent {
	return NewMessageEvent{
		Type:    "new_message",
		Message: &storage.MessageWithSender{Message: *m, Sender: sender},
	}
}

func BuildMessageAck(correlationID string, m *storage.Message) MessageAckEvent {
	return MessageAckEvent{
		Type:          "message_ack",
		CorrelationID: correlationID,
		MessageID:     m.ID,
		RoomID:        m.RoomID,
	}
}

func BuildMessageUpdated(m *storage.Message) MessageUpdatedEvent {
	return MessageUpdatedEvent{
		Type: "message_updated",
		Message: &MessageUpdateInfo{
			ID:        m.ID,
			Content:   m.Content,
			RoomID:    m.RoomID,
			IsEdited:  m.IsEdited,
			UpdatedAt: m.UpdatedAt,
		},
	}
}

func BuildUserStatus(userID int64, status string, lastSeen time.Time) UserStatusEvent {
	return UserStatusEvent{Type: "user_status", UserID: userID, Status: status, LastSeen: lastSeen}
}

func BuildCallSignal(kind string, senderID int64, f SignalFrame) CallSignalEvent {
	ev := CallSignalEvent{Type: kind, SenderID: senderID, SDP: f.SDP, Candidate: f.Candidate}
	if kind == "call_rejected" {
		ev.Reason = ReasonRejected
	}
	return ev
}

func BuildCallHandled(peerID int64, reason string) CallHandledEvent {
	return CallHandledEvent{Type: "call_handled", PeerID: peerID, Reason: reason}
}
