package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sparkmatch/sparkmatch/internal/database"
	apperrors "github.com/sparkmatch/sparkmatch/internal/errors"
	"github.com/sparkmatch/sparkmatch/internal/telemetry"
)

// RoomSummary is one entry of a user's chat room list: the room plus the
// other member's summary, the latest visible message, and the caller's
// unread count.
type RoomSummary struct {
	Room        *database.ChatRoom    `json:"room"`
	OtherUser   *database.UserSummary `json:"other_user"`
	LastMessage *database.Message     `json:"last_message,omitempty"`
	UnreadCount int                   `json:"unread_count"`
}

// ChatRoomService owns canonical room identity and lifecycle.
type ChatRoomService struct {
	rooms    RoomStore
	messages MessageStore
	users    UserDirectory
	now      func() time.Time
}

func NewChatRoomService(rooms RoomStore, messages MessageStore, users UserDirectory) *ChatRoomService {
	return &ChatRoomService{
		rooms:    rooms,
		messages: messages,
		users:    users,
		now:      time.Now,
	}
}

// GetOrCreate returns the single room for the unordered pair, creating it or
// reactivating an inactive one. Order of the two IDs does not matter.
func (s *ChatRoomService) GetOrCreate(ctx context.Context, userA, userB string) (*database.ChatRoom, error) {
	if err := validateUserID(userA); err != nil {
		return nil, err
	}
	if err := validateUserID(userB); err != nil {
		return nil, err
	}
	if userA == userB {
		return nil, apperrors.NewValidationError("room requires two distinct users")
	}

	low, high := database.NormalizePair(userA, userB)

	room, err := s.rooms.Upsert(ctx, low, high, s.now())
	if err != nil {
		return nil, apperrors.NewDatabaseError("upsert chat room", err)
	}

	telemetry.LogFromContext(ctx).WithFields(logrus.Fields{
		"chat_room_id": room.ID,
		"operation":    "get_or_create_room",
	}).Debug("Chat room resolved")

	return room, nil
}

// FindActive returns the active room for the pair, or a not-found error.
func (s *ChatRoomService) FindActive(ctx context.Context, userA, userB string) (*database.ChatRoom, error) {
	if err := validateUserID(userA); err != nil {
		return nil, err
	}
	if err := validateUserID(userB); err != nil {
		return nil, err
	}

	low, high := database.NormalizePair(userA, userB)

	room, err := s.rooms.GetByPair(ctx, low, high, true)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("chat room")
		}
		return nil, apperrors.NewDatabaseError("get chat room", err)
	}

	return room, nil
}

// FindByID returns an active room by identifier. Inactive rooms count as
// absent.
func (s *ChatRoomService) FindByID(ctx context.Context, roomID string) (*database.ChatRoom, error) {
	if err := uuid.Validate(roomID); err != nil {
		return nil, apperrors.NewValidationError("invalid chat room id")
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("chat room")
		}
		return nil, apperrors.NewDatabaseError("get chat room", err)
	}

	if !room.IsActive {
		return nil, apperrors.NewNotFoundError("chat room")
	}

	return room, nil
}

// Deactivate marks the pair's room inactive, keeping its message history.
// A missing or already-inactive room is a silent no-op.
func (s *ChatRoomService) Deactivate(ctx context.Context, userA, userB string) error {
	if err := validateUserID(userA); err != nil {
		return err
	}
	if err := validateUserID(userB); err != nil {
		return err
	}

	low, high := database.NormalizePair(userA, userB)

	if err := s.rooms.Deactivate(ctx, low, high, s.now()); err != nil {
		return apperrors.NewDatabaseError("deactivate chat room", err)
	}

	return nil
}

// TouchActivity bumps the room's last_activity stamp.
func (s *ChatRoomService) TouchActivity(ctx context.Context, roomID string) error {
	if err := s.rooms.Touch(ctx, roomID, s.now()); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperrors.NewNotFoundError("chat room")
		}
		return apperrors.NewDatabaseError("touch chat room", err)
	}
	return nil
}

// ListUserRooms returns actor's active rooms ordered by recent activity,
// each with the other member's summary, the latest non-deleted message, and
// actor's unread count.
func (s *ChatRoomService) ListUserRooms(ctx context.Context, actorID string) ([]*RoomSummary, error) {
	if err := validateUserID(actorID); err != nil {
		return nil, err
	}

	rooms, err := s.rooms.ListActiveForUser(ctx, actorID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list chat rooms", err)
	}

	others := make([]string, 0, len(rooms))
	for _, room := range rooms {
		if other, ok := room.OtherMember(actorID); ok {
			others = append(others, other)
		}
	}

	summaries, err := s.users.GetSummaries(ctx, others)
	if err != nil {
		return nil, apperrors.NewDatabaseError("lookup users", err)
	}

	result := make([]*RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		entry := &RoomSummary{Room: room}

		if other, ok := room.OtherMember(actorID); ok {
			entry.OtherUser = summaries[other]
		}

		last, err := s.messages.Latest(ctx, room.ID)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			return nil, apperrors.NewDatabaseError("get latest message", err)
		}
		entry.LastMessage = last

		unread, err := s.messages.CountUnread(ctx, room.ID, actorID)
		if err != nil {
			return nil, apperrors.NewDatabaseError("count unread messages", err)
		}
		entry.UnreadCount = unread

		result = append(result, entry)
	}

	return result, nil
}
