package storage

import "time"

// Room types. DMs have no name; groups do.
const (
	RoomTypeDirect = "direct"
	RoomTypeGroup  = "group"
)

// Friend request states.
const (
	FriendStatusPending  = "pending"
	FriendStatusAccepted = "accepted"
	FriendStatusRejected = "rejected"
)

// Room member roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type User struct {
	ID              int64     `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	HashedPassword  string    `json:"-"`
	DisplayName     string    `json:"display_name"`
	AvatarURL       string    `json:"avatar_url"`
	Bio             string    `json:"bio"`
	ThemePreference string    `json:"theme_preference"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	LastSeen        time.Time `json:"last_seen"`
}

// UserSummary is the sender shape embedded in realtime events.
type UserSummary struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

type Room struct {
	ID        int64        `json:"id"`
	Name      *string      `json:"name"`
	Type      string       `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	CreatedBy *int64       `json:"created_by"`
	Members   []RoomMember `json:"members"`
}

type RoomMember struct {
	RoomID     int64     `json:"room_id"`
	UserID     int64     `json:"user_id"`
	Role       string    `json:"role"`
	JoinedAt   time.Time `json:"joined_at"`
	LastReadAt time.Time `json:"last_read_at"`
	User       *User     `json:"user,omitempty"`
}

type Message struct {
	ID          int64     `json:"id"`
	Content     string    `json:"content"`
	SenderID    int64     `json:"sender_id"`
	RoomID      int64     `json:"room_id"`
	MessageType string    `json:"message_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	IsDeleted   bool      `json:"is_deleted"`
	IsEdited    bool      `json:"is_edited"`
}

type MessageWithSender struct {
	Message
	Sender *UserSummary `json:"sender"`
}

type FriendRequest struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Sender     *User     `json:"sender,omitempty"`
	Receiver   *User     `json:"receiver,omitempty"`
}

type ReadReceipt struct {
	ID        int64     `json:"id"`
	MessageID int64     `json:"message_id"`
	UserID    int64     `json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}

type CreateMessageParams struct {
	Content     string
	SenderID    int64
	RoomID      int64
	MessageType string
	// Zero means "now". Sync supplies the client timestamp instead.
	CreatedAt time.Time
}

// FriendshipStatus values returned by directory search.
const (
	FriendshipNone            = "none"
	FriendshipFriend          = "friend"
	FriendshipPendingSent     = "pending_sent"
	FriendshipPendingReceived = "pending_received"
)
