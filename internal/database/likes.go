package database

import (
	"context"
	"database/sql"
	"fmt"
)

// LikeStore persists directed like edges.
type LikeStore struct {
	db *DB
}

func NewLikeStore(db *DB) *LikeStore {
	return &LikeStore{db: db}
}

// Insert creates a directed like edge. Returns ErrDuplicate when the same
// ordered pair already has an edge.
func (s *LikeStore) Insert(ctx context.Context, like *Like) error {
	query := `
		INSERT INTO likes (id, user_id, liked_user_id, is_matched, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query,
		like.ID, like.UserID, like.LikedUserID, like.IsMatched, like.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert like: %w", err)
	}

	return nil
}

// Get fetches the edge for an ordered pair. Returns ErrNotFound when absent.
func (s *LikeStore) Get(ctx context.Context, userID, likedUserID string) (*Like, error) {
	like := &Like{}
	query := `
		SELECT id, user_id, liked_user_id, is_matched, created_at
		FROM likes
		WHERE user_id = $1 AND liked_user_id = $2
	`

	err := s.db.QueryRowContext(ctx, query, userID, likedUserID).Scan(
		&like.ID, &like.UserID, &like.LikedUserID, &like.IsMatched, &like.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get like: %w", err)
	}

	return like, nil
}

// Delete removes the edge for an ordered pair. Returns ErrNotFound when the
// edge does not exist.
func (s *LikeStore) Delete(ctx context.Context, userID, likedUserID string) error {
	query := `DELETE FROM likes WHERE user_id = $1 AND liked_user_id = $2`

	result, err := s.db.ExecContext(ctx, query, userID, likedUserID)
	if err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
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

// SetMatched flips the matched flag on a directed edge.
func (s *LikeStore) SetMatched(ctx context.Context, userID, likedUserID string, matched bool) error {
	query := `UPDATE likes SET is_matched = $1 WHERE user_id = $2 AND liked_user_id = $3`

	result, err := s.db.ExecContext(ctx, query, matched, userID, likedUserID)
	if err != nil {
		return fmt.Errorf("failed to update like: %w", err)
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

// ListSentBy returns the edges originating from userID, newest first.
func (s *LikeStore) ListSentBy(ctx context.Context, userID string) ([]*Like, error) {
	query := `
		SELECT id, user_id, liked_user_id, is_matched, created_at
		FROM likes
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	return s.queryLikes(ctx, query, userID)
}

// ListReceivedBy returns the edges pointing at userID, newest first.
// With onlyUnmatched set, edges already resolved into a match are excluded.
func (s *LikeStore) ListReceivedBy(ctx context.Context, userID string, onlyUnmatched bool) ([]*Like, error) {
	query := `
		SELECT id, user_id, liked_user_id, is_matched, created_at
		FROM likes
		WHERE liked_user_id = $1
	`
	if onlyUnmatched {
		query += ` AND is_matched = false`
	}
	query += ` ORDER BY created_at DESC`

	return s.queryLikes(ctx, query, userID)
}

func (s *LikeStore) queryLikes(ctx context.Context, query string, args ...interface{}) ([]*Like, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query likes: %w", err)
	}
	defer rows.Close()

	var likes []*Like
	for rows.Next() {
		like := &Like{}
		if err := rows.Scan(
			&like.ID, &like.UserID, &like.LikedUserID, &like.IsMatched, &like.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan like: %w", err)
		}
		likes = append(likes, like)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating likes: %w", err)
	}

	return likes, nil
}
