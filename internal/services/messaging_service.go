package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sparkmatch/sparkmatch/internal/database"
	apperrors "github.com/sparkmatch/sparkmatch/internal/errors"
	"github.com/sparkmatch/sparkmatch/internal/telemetry"
)

// DefaultPageLimit is the number of messages returned when the caller does
// not request a limit.
const DefaultPageLimit = 20

// MessagingService owns the per-room message ledger: append, pagination,
// read tracking, soft delete.
type MessagingService struct {
	rooms    RoomStore
	messages MessageStore
	now      func() time.Time
}

func NewMessagingService(rooms RoomStore, messages MessageStore) *MessagingService {
	return &MessagingService{
		rooms:    rooms,
		messages: messages,
		now:      time.Now,
	}
}

// Append posts a message from actor into a room. The recipient is always the
// room's other member; a caller-supplied recipient that disagrees is
// rejected as a stale room reference.
func (s *MessagingService) Append(ctx context.Context, actorID, roomID, recipientID, content string) (*database.Message, error) {
	if err := validateUserID(actorID); err != nil {
		return nil, err
	}
	if err := uuid.Validate(roomID); err != nil {
		return nil, apperrors.NewValidationError("invalid chat room id")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("message content is empty")
	}

	room, err := s.activeRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	other, ok := room.OtherMember(actorID)
	if !ok {
		return nil, apperrors.NewAuthorizationError("not a member of this chat room")
	}
	if recipientID != "" && recipientID != other {
		return nil, apperrors.NewValidationError("recipient is not a member of this chat room")
	}

	msg := &database.Message{
		ID:          uuid.New().String(),
		ChatRoomID:  roomID,
		SenderID:    actorID,
		RecipientID: other,
		Content:     content,
		Status:      database.MessageStatusSent,
		CreatedAt:   s.now(),
	}

	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, apperrors.NewDatabaseError("insert message", err)
	}

	if err := s.rooms.Touch(ctx, roomID, msg.CreatedAt); err != nil && !errors.Is(err, database.ErrNotFound) {
		telemetry.LogFromContext(ctx).WithError(err).WithFields(logrus.Fields{
			"chat_room_id": roomID,
		}).Warn("Failed to touch chat room activity")
	}

	telemetry.RecordMessageSent(ctx)

	return msg, nil
}

// Page returns up to limit non-deleted messages from the room in
// chronological order. A before cursor names an existing message; only
// messages strictly older than it are returned. An unknown cursor falls back
// to the newest page. Fetching acknowledges receipt: every returned-or-not
// message addressed to actor that is not yet read is atomically marked READ.
func (s *MessagingService) Page(ctx context.Context, actorID, roomID string, limit int, before string) ([]*database.Message, error) {
	if err := validateUserID(actorID); err != nil {
		return nil, err
	}
	if err := uuid.Validate(roomID); err != nil {
		return nil, apperrors.NewValidationError("invalid chat room id")
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	room, err := s.activeRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasMember(actorID) {
		return nil, apperrors.NewAuthorizationError("not a member of this chat room")
	}

	cursor := s.resolveCursor(ctx, roomID, before)

	page, err := s.messages.ListPage(ctx, roomID, cursor, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list messages", err)
	}

	readAt := s.now()
	if _, err := s.messages.MarkRead(ctx, roomID, actorID, readAt); err != nil {
		return nil, apperrors.NewDatabaseError("mark messages read", err)
	}

	// Store order is newest first; callers read chronologically. The page
	// reflects the acknowledgment it just triggered.
	reverse(page)
	for _, msg := range page {
		if msg.RecipientID == actorID && msg.Status != database.MessageStatusRead {
			msg.Status = database.MessageStatusRead
			msg.ReadAt = &readAt
		}
	}

	return page, nil
}

// resolveCursor maps a before message ID to its creation time. A malformed
// ID, an unknown message, or a message from another room all degrade to no
// cursor, which yields the newest page.
func (s *MessagingService) resolveCursor(ctx context.Context, roomID, before string) *time.Time {
	if before == "" {
		return nil
	}
	if err := uuid.Validate(before); err != nil {
		return nil
	}

	msg, err := s.messages.GetByID(ctx, before)
	if err != nil || msg.ChatRoomID != roomID {
		return nil
	}

	return &msg.CreatedAt
}

// MarkDelivered records that actor's device received a message. Delivery
// never moves a message backwards: one already delivered, or read, is left
// alone.
func (s *MessagingService) MarkDelivered(ctx context.Context, actorID, messageID string) error {
	if err := validateUserID(actorID); err != nil {
		return err
	}
	if err := uuid.Validate(messageID); err != nil {
		return apperrors.NewValidationError("invalid message id")
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperrors.NewNotFoundError("message")
		}
		return apperrors.NewDatabaseError("get message", err)
	}
	if msg.IsDeleted {
		return apperrors.NewNotFoundError("message")
	}
	if msg.RecipientID != actorID {
		return apperrors.NewAuthorizationError("only the recipient may acknowledge delivery")
	}

	if msg.Status == database.MessageStatusDelivered || !msg.Status.CanTransitionTo(database.MessageStatusDelivered) {
		return nil
	}

	err = s.messages.SetStatus(ctx, messageID, msg.Status, database.MessageStatusDelivered, nil)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return apperrors.NewDatabaseError("mark message delivered", err)
	}
	// A lost swap means a concurrent reader already advanced the message.
	return nil
}

// MarkRead acknowledges every unread message addressed to actor in the room
// without fetching a page.
func (s *MessagingService) MarkRead(ctx context.Context, actorID, roomID string) error {
	if err := validateUserID(actorID); err != nil {
		return err
	}
	if err := uuid.Validate(roomID); err != nil {
		return apperrors.NewValidationError("invalid chat room id")
	}

	room, err := s.activeRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.HasMember(actorID) {
		return apperrors.NewAuthorizationError("not a member of this chat room")
	}

	if _, err := s.messages.MarkRead(ctx, roomID, actorID, s.now()); err != nil {
		return apperrors.NewDatabaseError("mark messages read", err)
	}

	return nil
}

// SoftDelete hides a message from read paths while retaining the row. Only
// the original sender may delete.
func (s *MessagingService) SoftDelete(ctx context.Context, actorID, messageID string) error {
	if err := validateUserID(actorID); err != nil {
		return err
	}
	if err := uuid.Validate(messageID); err != nil {
		return apperrors.NewValidationError("invalid message id")
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperrors.NewNotFoundError("message")
		}
		return apperrors.NewDatabaseError("get message", err)
	}
	if msg.IsDeleted {
		return apperrors.NewNotFoundError("message")
	}
	if msg.SenderID != actorID {
		return apperrors.NewAuthorizationError("only the sender may delete a message")
	}

	if err := s.messages.SoftDelete(ctx, messageID, s.now()); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperrors.NewNotFoundError("message")
		}
		return apperrors.NewDatabaseError("delete message", err)
	}

	return nil
}

func (s *MessagingService) activeRoom(ctx context.Context, roomID string) (*database.ChatRoom, error) {
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

func reverse(msgs []*database.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
