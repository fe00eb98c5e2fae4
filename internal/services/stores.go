package services

import (
	"context"
	"time"

	"github.com/sparkmatch/sparkmatch/internal/database"
)

// Store interfaces consumed by the services. The Postgres implementations
// live in internal/database; tests substitute in-memory fakes.

type LikeStore interface {
	Insert(ctx context.Context, like *database.Like) error
	Get(ctx context.Context, userID, likedUserID string) (*database.Like, error)
	Delete(ctx context.Context, userID, likedUserID string) error
	SetMatched(ctx context.Context, userID, likedUserID string, matched bool) error
	ListSentBy(ctx context.Context, userID string) ([]*database.Like, error)
	ListReceivedBy(ctx context.Context, userID string, onlyUnmatched bool) ([]*database.Like, error)
}

type MatchStore interface {
	Insert(ctx context.Context, match *database.Match) error
	GetByID(ctx context.Context, id string) (*database.Match, error)
	GetByPair(ctx context.Context, lowID, highID string) (*database.Match, error)
	DeleteByPair(ctx context.Context, lowID, highID string) error
	ListForUser(ctx context.Context, userID string) ([]*database.Match, error)
	MarkRead(ctx context.Context, matchID string, lowSide bool) error
}

type RoomStore interface {
	Upsert(ctx context.Context, lowID, highID string, now time.Time) (*database.ChatRoom, error)
	GetByPair(ctx context.Context, lowID, highID string, activeOnly bool) (*database.ChatRoom, error)
	GetByID(ctx context.Context, id string) (*database.ChatRoom, error)
	Deactivate(ctx context.Context, lowID, highID string, now time.Time) error
	Touch(ctx context.Context, roomID string, at time.Time) error
	ListActiveForUser(ctx context.Context, userID string) ([]*database.ChatRoom, error)
}

type MessageStore interface {
	Insert(ctx context.Context, msg *database.Message) error
	GetByID(ctx context.Context, id string) (*database.Message, error)
	ListPage(ctx context.Context, roomID string, before *time.Time, limit int) ([]*database.Message, error)
	MarkRead(ctx context.Context, roomID, recipientID string, at time.Time) (int64, error)
	SetStatus(ctx context.Context, id string, from, to database.MessageStatus, readAt *time.Time) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	Latest(ctx context.Context, roomID string) (*database.Message, error)
	CountUnread(ctx context.Context, roomID, recipientID string) (int, error)
}

// UserDirectory hydrates user IDs into display summaries. User data is owned
// by an external collaborator; the engine only reads it.
type UserDirectory interface {
	GetSummary(ctx context.Context, userID string) (*database.UserSummary, error)
	GetSummaries(ctx context.Context, userIDs []string) (map[string]*database.UserSummary, error)
}
