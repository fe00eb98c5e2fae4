package interfaces

import (
	"context"

	"github.com/sparkmatch/sparkmatch/internal/database"
	"github.com/sparkmatch/sparkmatch/internal/services"
)

// MatchingServiceInterface defines the interface for like and match operations
type MatchingServiceInterface interface {
	Like(ctx context.Context, actorID, targetID string) (*services.LikeResult, error)
	Unlike(ctx context.Context, actorID, targetID string) error
	ListSentLikes(ctx context.Context, actorID string) ([]*services.LikeView, error)
	ListReceivedLikes(ctx context.Context, actorID string, onlyUnmatched bool) ([]*services.LikeView, error)
	ListMatches(ctx context.Context, actorID string) ([]*services.MatchView, error)
	MarkMatchRead(ctx context.Context, actorID, matchID string) error
}

// ChatRoomServiceInterface defines the interface for chat room operations
type ChatRoomServiceInterface interface {
	GetOrCreate(ctx context.Context, userA, userB string) (*database.ChatRoom, error)
	FindActive(ctx context.Context, userA, userB string) (*database.ChatRoom, error)
	FindByID(ctx context.Context, roomID string) (*database.ChatRoom, error)
	Deactivate(ctx context.Context, userA, userB string) error
	ListUserRooms(ctx context.Context, actorID string) ([]*services.RoomSummary, error)
}

// MessagingServiceInterface defines the interface for message ledger operations
type MessagingServiceInterface interface {
	Append(ctx context.Context, actorID, roomID, recipientID, content string) (*database.Message, error)
	Page(ctx context.Context, actorID, roomID string, limit int, before string) ([]*database.Message, error)
	MarkDelivered(ctx context.Context, actorID, messageID string) error
	MarkRead(ctx context.Context, actorID, roomID string) error
	SoftDelete(ctx context.Context, actorID, messageID string) error
}
