package database

import (
	"context"
	"database/sql"
	"fmt"
)

// MatchStore persists mutual-match records keyed by canonical pair.
type MatchStore struct {
	db *DB
}

func NewMatchStore(db *DB) *MatchStore {
	return &MatchStore{db: db}
}

// Insert creates a match for a canonical pair. The unique constraint on
// (user_id_low, user_id_high) makes the racing loser of a concurrent mutual
// like observe ErrDuplicate instead of creating a second match.
func (s *MatchStore) Insert(ctx context.Context, match *Match) error {
	query := `
		INSERT INTO matches (id, user_id_low, user_id_high, is_read_low, is_read_high, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		match.ID, match.UserIDLow, match.UserIDHigh,
		match.IsReadLow, match.IsReadHigh, match.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert match: %w", err)
	}

	return nil
}

func (s *MatchStore) GetByID(ctx context.Context, id string) (*Match, error) {
	query := `
		SELECT id, user_id_low, user_id_high, is_read_low, is_read_high, created_at
		FROM matches
		WHERE id = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

func (s *MatchStore) GetByPair(ctx context.Context, lowID, highID string) (*Match, error) {
	query := `
		SELECT id, user_id_low, user_id_high, is_read_low, is_read_high, created_at
		FROM matches
		WHERE user_id_low = $1 AND user_id_high = $2
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, lowID, highID))
}

// DeleteByPair removes the match for a canonical pair. Returns ErrNotFound
// when no match exists.
func (s *MatchStore) DeleteByPair(ctx context.Context, lowID, highID string) error {
	query := `DELETE FROM matches WHERE user_id_low = $1 AND user_id_high = $2`

	result, err := s.db.ExecContext(ctx, query, lowID, highID)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
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

// ListForUser returns all matches involving userID, newest first.
func (s *MatchStore) ListForUser(ctx context.Context, userID string) ([]*Match, error) {
	query := `
		SELECT id, user_id_low, user_id_high, is_read_low, is_read_high, created_at
		FROM matches
		WHERE user_id_low = $1 OR user_id_high = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []*Match
	for rows.Next() {
		match := &Match{}
		if err := rows.Scan(
			&match.ID, &match.UserIDLow, &match.UserIDHigh,
			&match.IsReadLow, &match.IsReadHigh, &match.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}

	return matches, nil
}

// MarkRead sets the read flag for one canonical side of a match.
func (s *MatchStore) MarkRead(ctx context.Context, matchID string, lowSide bool) error {
	column := "is_read_high"
	if lowSide {
		column = "is_read_low"
	}

	query := fmt.Sprintf(`UPDATE matches SET %s = true WHERE id = $1`, column)

	result, err := s.db.ExecContext(ctx, query, matchID)
	if err != nil {
		return fmt.Errorf("failed to mark match read: %w", err)
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

func (s *MatchStore) scanOne(row *sql.Row) (*Match, error) {
	match := &Match{}
	err := row.Scan(
		&match.ID, &match.UserIDLow, &match.UserIDHigh,
		&match.IsReadLow, &match.IsReadHigh, &match.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}
