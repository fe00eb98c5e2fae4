package database

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the engine's tables and indexes when they do not
// already exist. The whole bootstrap runs in one transaction, so a partially
// created schema never survives a failed startup. Safe to call every time.
func (db *DB) EnsureSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS likes (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		liked_user_id UUID NOT NULL,
		is_matched BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, liked_user_id)
	);

	CREATE TABLE IF NOT EXISTS matches (
		id UUID PRIMARY KEY,
		user_id_low UUID NOT NULL,
		user_id_high UUID NOT NULL,
		is_read_low BOOLEAN NOT NULL DEFAULT false,
		is_read_high BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id_low, user_id_high)
	);

	CREATE TABLE IF NOT EXISTS chat_rooms (
		id UUID PRIMARY KEY,
		user_id_low UUID NOT NULL,
		user_id_high UUID NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT true,
		last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		metadata JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id_low, user_id_high)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY,
		chat_room_id UUID NOT NULL REFERENCES chat_rooms(id) ON DELETE CASCADE,
		sender_id UUID NOT NULL,
		recipient_id UUID NOT NULL,
		content TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'SENT',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		read_at TIMESTAMPTZ,
		is_deleted BOOLEAN NOT NULL DEFAULT false,
		deleted_at TIMESTAMPTZ
	);

	CREATE INDEX IF NOT EXISTS idx_likes_liked_user ON likes(liked_user_id);
	CREATE INDEX IF NOT EXISTS idx_matches_user_low ON matches(user_id_low);
	CREATE INDEX IF NOT EXISTS idx_matches_user_high ON matches(user_id_high);
	CREATE INDEX IF NOT EXISTS idx_chat_rooms_user_low ON chat_rooms(user_id_low);
	CREATE INDEX IF NOT EXISTS idx_chat_rooms_user_high ON chat_rooms(user_id_high);
	CREATE INDEX IF NOT EXISTS idx_messages_room_created ON messages(chat_room_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_messages_recipient_status ON messages(recipient_id, status);
	`

	err := db.WithTransaction(func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, query)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	return nil
}
