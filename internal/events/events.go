package events

import (
	"context"
	"time"
)

// MatchCreated is emitted once per match, after the match and its chat room
// are durably committed. Consumers deduplicate by MatchID, so at-least-once
// delivery is acceptable.
type MatchCreated struct {
	MatchID    string    `json:"match_id"`
	UserA      string    `json:"user_a"`
	UserB      string    `json:"user_b"`
	ChatRoomID string    `json:"chat_room_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Publisher delivers match events to the external notification collaborator.
type Publisher interface {
	PublishMatchCreated(ctx context.Context, event MatchCreated) error
	Close() error
}

// NopPublisher discards every event. Used when no queue is configured.
type NopPublisher struct{}

func (NopPublisher) PublishMatchCreated(ctx context.Context, event MatchCreated) error {
	return nil
}

func (NopPublisher) Close() error {
	return nil
}
