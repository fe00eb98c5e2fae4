package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MessageStore persists the per-room message ledger.
type MessageStore struct {
	db *DB
}

func NewMessageStore(db *DB) *MessageStore {
	return &MessageStore{db: db}
}

const messageColumns = `id, chat_room_id, sender_id, recipient_id, content, status, created_at, read_at, is_deleted, deleted_at`

func (s *MessageStore) Insert(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO messages (id, chat_room_id, sender_id, recipient_id, content, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID, msg.ChatRoomID, msg.SenderID, msg.RecipientID,
		msg.Content, msg.Status, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	return nil
}

// GetByID fetches a message regardless of deletion state. Callers that must
// hide deleted messages check IsDeleted themselves.
func (s *MessageStore) GetByID(ctx context.Context, id string) (*Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE id = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

// ListPage returns up to limit non-deleted messages from a room, newest
// first. When before is non-nil only messages created strictly earlier are
// returned, which lets callers walk backwards through history.
func (s *MessageStore) ListPage(ctx context.Context, roomID string, before *time.Time, limit int) ([]*Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE chat_room_id = $1 AND is_deleted = false
	`
	args := []interface{}{roomID}

	if before != nil {
		query += ` AND created_at < $2`
		args = append(args, *before)
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg := &Message{}
		if err := s.scanRow(rows, msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// MarkRead flips every non-deleted message addressed to recipientID in a
// room to READ, stamping read_at. Returns the number of rows changed.
// Messages already READ are left untouched so read_at never moves backwards.
func (s *MessageStore) MarkRead(ctx context.Context, roomID, recipientID string, at time.Time) (int64, error) {
	query := `
		UPDATE messages
		SET status = $1, read_at = $2
		WHERE chat_room_id = $3 AND recipient_id = $4 AND status <> $1 AND is_deleted = false
	`

	result, err := s.db.ExecContext(ctx, query, MessageStatusRead, at, roomID, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected, nil
}

// SetStatus advances the delivery status of one message with a
// compare-and-swap on the current status, so a concurrent advance is never
// rolled back. Backward transitions are rejected outright; a swap that finds
// the message missing, deleted, or no longer in from returns ErrNotFound.
func (s *MessageStore) SetStatus(ctx context.Context, id string, from, to MessageStatus, readAt *time.Time) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("invalid message status transition %s -> %s", from, to)
	}

	query := `
		UPDATE messages
		SET status = $1, read_at = COALESCE($2, read_at)
		WHERE id = $3 AND status = $4 AND is_deleted = false
	`

	result, err := s.db.ExecContext(ctx, query, to, readAt, id, from)
	if err != nil {
		return fmt.Errorf("failed to update message status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// SoftDelete marks a message deleted while retaining the row. Returns
// ErrNotFound when the message does not exist or is already deleted.
func (s *MessageStore) SoftDelete(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE messages
		SET is_deleted = true, deleted_at = $1
		WHERE id = $2 AND is_deleted = false
	`

	result, err := s.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Latest returns the newest non-deleted message in a room, or ErrNotFound
// for an empty room.
func (s *MessageStore) Latest(ctx context.Context, roomID string) (*Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE chat_room_id = $1 AND is_deleted = false
		ORDER BY created_at DESC
		LIMIT 1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, roomID))
}

// CountUnread counts non-deleted messages addressed to recipientID in a
// room that have not reached READ.
func (s *MessageStore) CountUnread(ctx context.Context, roomID, recipientID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages
		WHERE chat_room_id = $1 AND recipient_id = $2 AND status <> $3 AND is_deleted = false
	`

	var count int
	err := s.db.QueryRowContext(ctx, query, roomID, recipientID, MessageStatusRead).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}

	return count, nil
}

func (s *MessageStore) scanOne(row *sql.Row) (*Message, error) {
	msg := &Message{}
	err := row.Scan(
		&msg.ID, &msg.ChatRoomID, &msg.SenderID, &msg.RecipientID,
		&msg.Content, &msg.Status, &msg.CreatedAt, &msg.ReadAt,
		&msg.IsDeleted, &msg.DeletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

func (s *MessageStore) scanRow(rows *sql.Rows, msg *Message) error {
	if err := rows.Scan(
		&msg.ID, &msg.ChatRoomID, &msg.SenderID, &msg.RecipientID,
		&msg.Content, &msg.Status, &msg.CreatedAt, &msg.ReadAt,
		&msg.IsDeleted, &msg.DeletedAt,
	); err != nil {
		return fmt.Errorf("failed to scan message: %w", err)
	}
	return nil
}
