package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RoomStore persists chat rooms keyed by canonical pair.
type RoomStore struct {
	db *DB
}

func NewRoomStore(db *DB) *RoomStore {
	return &RoomStore{db: db}
}

const roomColumns = `id, user_id_low, user_id_high, is_active, last_activity, metadata, created_at, updated_at`

// Upsert inserts a room for the canonical pair or, when one already exists,
// reactivates it and refreshes last_activity. Concurrent calls for the same
// pair converge on the single existing row via the (low, high) unique
// constraint.
func (s *RoomStore) Upsert(ctx context.Context, lowID, highID string, now time.Time) (*ChatRoom, error) {
	query := `
		INSERT INTO chat_rooms (id, user_id_low, user_id_high, is_active, last_activity, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, true, $4, '{}', $4, $4)
		ON CONFLICT (user_id_low, user_id_high) DO UPDATE
		SET is_active = true, last_activity = $4, updated_at = $4
		RETURNING ` + roomColumns

	row := s.db.QueryRowContext(ctx, query, uuid.New().String(), lowID, highID, now)
	return s.scanOne(row)
}

// GetByPair fetches the room for a canonical pair. With activeOnly set,
// inactive rooms count as absent.
func (s *RoomStore) GetByPair(ctx context.Context, lowID, highID string, activeOnly bool) (*ChatRoom, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM chat_rooms
		WHERE user_id_low = $1 AND user_id_high = $2
	`
	if activeOnly {
		query += ` AND is_active = true`
	}

	return s.scanOne(s.db.QueryRowContext(ctx, query, lowID, highID))
}

func (s *RoomStore) GetByID(ctx context.Context, id string) (*ChatRoom, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM chat_rooms
		WHERE id = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

// Deactivate flips the room for a canonical pair to inactive. A missing or
// already-inactive room is a no-op.
func (s *RoomStore) Deactivate(ctx context.Context, lowID, highID string, now time.Time) error {
	query := `
		UPDATE chat_rooms
		SET is_active = false, updated_at = $3
		WHERE user_id_low = $1 AND user_id_high = $2 AND is_active = true
	`

	if _, err := s.db.ExecContext(ctx, query, lowID, highID, now); err != nil {
		return fmt.Errorf("failed to deactivate chat room: %w", err)
	}

	return nil
}

// Touch bumps last_activity on a room.
func (s *RoomStore) Touch(ctx context.Context, roomID string, at time.Time) error {
	query := `UPDATE chat_rooms SET last_activity = $1, updated_at = $1 WHERE id = $2`

	result, err := s.db.ExecContext(ctx, query, at, roomID)
	if err != nil {
		return fmt.Errorf("failed to touch chat room: %w", err)
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

// ListActiveForUser returns the active rooms userID belongs to, most
// recently active first.
func (s *RoomStore) ListActiveForUser(ctx context.Context, userID string) ([]*ChatRoom, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM chat_rooms
		WHERE (user_id_low = $1 OR user_id_high = $1) AND is_active = true
		ORDER BY last_activity DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*ChatRoom
	for rows.Next() {
		room := &ChatRoom{}
		if err := rows.Scan(
			&room.ID, &room.UserIDLow, &room.UserIDHigh, &room.IsActive,
			&room.LastActivity, &room.Metadata, &room.CreatedAt, &room.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chat room: %w", err)
		}
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat rooms: %w", err)
	}

	return rooms, nil
}

func (s *RoomStore) scanOne(row *sql.Row) (*ChatRoom, error) {
	room := &ChatRoom{}
	err := row.Scan(
		&room.ID, &room.UserIDLow, &room.UserIDHigh, &room.IsActive,
		&room.LastActivity, &room.Metadata, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get chat room: %w", err)
	}
	return room, nil
}
