package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// UserStore reads profile summaries from the user directory table. The
// engine never writes users, it only hydrates IDs into display data.
type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetSummary(ctx context.Context, userID string) (*UserSummary, error) {
	query := `
		SELECT id, name, main_photo_url, date_of_birth, gender
		FROM users
		WHERE id = $1
	`

	user := &UserSummary{}
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.Name, &user.MainPhotoURL, &user.DateOfBirth, &user.Gender,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetSummaries fetches summaries for a set of IDs in one round trip. IDs
// with no matching row are simply absent from the result.
func (s *UserStore) GetSummaries(ctx context.Context, userIDs []string) (map[string]*UserSummary, error) {
	if len(userIDs) == 0 {
		return map[string]*UserSummary{}, nil
	}

	query := `
		SELECT id, name, main_photo_url, date_of_birth, gender
		FROM users
		WHERE id = ANY($1)
	`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make(map[string]*UserSummary, len(userIDs))
	for rows.Next() {
		user := &UserSummary{}
		if err := rows.Scan(
			&user.ID, &user.Name, &user.MainPhotoURL, &user.DateOfBirth, &user.Gender,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[user.ID] = user
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}
