package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Like is a directed edge: one user expressed interest in another.
// At most one row exists per ordered (user, liked user) pair.
type Like struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	LikedUserID string    `json:"liked_user_id" db:"liked_user_id"`
	IsMatched   bool      `json:"is_matched" db:"is_matched"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Match records a mutual like between an unordered pair of users. The pair
// is stored canonically (UserIDLow < UserIDHigh) so at most one row exists
// per pair. Read flags are kept per canonical side.
type Match struct {
	ID         string    `json:"id" db:"id"`
	UserIDLow  string    `json:"user_id_low" db:"user_id_low"`
	UserIDHigh string    `json:"user_id_high" db:"user_id_high"`
	IsReadLow  bool      `json:"is_read_low" db:"is_read_low"`
	IsReadHigh bool      `json:"is_read_high" db:"is_read_high"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Involves reports whether userID is one of the two matched users.
func (m *Match) Involves(userID string) bool {
	return m.UserIDLow == userID || m.UserIDHigh == userID
}

// OtherUser returns the match partner of userID.
func (m *Match) OtherUser(userID string) string {
	if m.UserIDLow == userID {
		return m.UserIDHigh
	}
	return m.UserIDLow
}

// IsReadBy returns the read flag belonging to userID's side.
func (m *Match) IsReadBy(userID string) bool {
	if m.UserIDLow == userID {
		return m.IsReadLow
	}
	return m.IsReadHigh
}

// ChatRoom is the single communication channel for a canonical user pair.
type ChatRoom struct {
	ID           string    `json:"id" db:"id"`
	UserIDLow    string    `json:"user_id_low" db:"user_id_low"`
	UserIDHigh   string    `json:"user_id_high" db:"user_id_high"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	LastActivity time.Time `json:"last_activity" db:"last_activity"`
	Metadata     Metadata  `json:"metadata" db:"metadata"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// HasMember reports whether userID belongs to the room.
func (r *ChatRoom) HasMember(userID string) bool {
	return r.UserIDLow == userID || r.UserIDHigh == userID
}

// OtherMember returns the room member that is not userID. ok is false when
// userID is not a member at all.
func (r *ChatRoom) OtherMember(userID string) (string, bool) {
	switch userID {
	case r.UserIDLow:
		return r.UserIDHigh, true
	case r.UserIDHigh:
		return r.UserIDLow, true
	default:
		return "", false
	}
}

// Metadata is an opaque JSON map stored on the chat room row.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into Metadata", value)
	}
}

// MessageStatus is the delivery state of a message. Transitions only move
// forward: SENT -> DELIVERED -> READ.
type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "SENT"
	MessageStatusDelivered MessageStatus = "DELIVERED"
	MessageStatusRead      MessageStatus = "READ"
)

// rank orders statuses for the forward-only transition check.
func (s MessageStatus) rank() int {
	switch s {
	case MessageStatusSent:
		return 0
	case MessageStatusDelivered:
		return 1
	case MessageStatusRead:
		return 2
	default:
		return -1
	}
}

// Valid reports whether s is a known status.
func (s MessageStatus) Valid() bool {
	return s.rank() >= 0
}

// CanTransitionTo reports whether moving from s to next is a forward
// transition. Staying on the same status is allowed.
func (s MessageStatus) CanTransitionTo(next MessageStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next.rank() >= s.rank()
}

// Message belongs to exactly one chat room. Deleted messages are retained
// with is_deleted set and excluded from normal read paths.
type Message struct {
	ID          string        `json:"id" db:"id"`
	ChatRoomID  string        `json:"chat_room_id" db:"chat_room_id"`
	SenderID    string        `json:"sender_id" db:"sender_id"`
	RecipientID string        `json:"recipient_id" db:"recipient_id"`
	Content     string        `json:"content" db:"content"`
	Status      MessageStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	ReadAt      *time.Time    `json:"read_at,omitempty" db:"read_at"`
	IsDeleted   bool          `json:"is_deleted" db:"is_deleted"`
	DeletedAt   *time.Time    `json:"deleted_at,omitempty" db:"deleted_at"`
}

// UserSummary is the flattened view of a user owned by the external user
// directory. The engine never stores these, only looks them up by ID.
type UserSummary struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	MainPhotoURL *string    `json:"main_photo_url" db:"main_photo_url"`
	DateOfBirth  *time.Time `json:"date_of_birth" db:"date_of_birth"`
	Gender       string     `json:"gender" db:"gender"`
}

// NormalizePair orders two user IDs canonically (low before high) so rooms
// and matches have a single identity regardless of argument order.
func NormalizePair(a, b string) (low, high string) {
	if a < b {
		return a, b
	}
	return b, a
}
