package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sparkmatch/sparkmatch/internal/database"
	"github.com/sparkmatch/sparkmatch/internal/events"
)

// In-memory store fakes. They hold the same contracts as the Postgres
// implementations (sentinel errors, canonical pair uniqueness, conditional
// updates) and are safe for concurrent use so races can be exercised
// directly in tests.

type memLikeStore struct {
	mu    sync.Mutex
	likes map[[2]string]*database.Like
}

func newMemLikeStore() *memLikeStore {
	return &memLikeStore{likes: make(map[[2]string]*database.Like)}
}

func (s *memLikeStore) Insert(ctx context.Context, like *database.Like) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]string{like.UserID, like.LikedUserID}
	if _, ok := s.likes[key]; ok {
		return database.ErrDuplicate
	}

	clone := *like
	s.likes[key] = &clone
	return nil
}

func (s *memLikeStore) Get(ctx context.Context, userID, likedUserID string) (*database.Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	like, ok := s.likes[[2]string{userID, likedUserID}]
	if !ok {
		return nil, database.ErrNotFound
	}

	clone := *like
	return &clone, nil
}

func (s *memLikeStore) Delete(ctx context.Context, userID, likedUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]string{userID, likedUserID}
	if _, ok := s.likes[key]; !ok {
		return database.ErrNotFound
	}

	delete(s.likes, key)
	return nil
}

func (s *memLikeStore) SetMatched(ctx context.Context, userID, likedUserID string, matched bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	like, ok := s.likes[[2]string{userID, likedUserID}]
	if !ok {
		return database.ErrNotFound
	}

	like.IsMatched = matched
	return nil
}

func (s *memLikeStore) ListSentBy(ctx context.Context, userID string) ([]*database.Like, error) {
	return s.list(func(like *database.Like) bool { return like.UserID == userID })
}

func (s *memLikeStore) ListReceivedBy(ctx context.Context, userID string, onlyUnmatched bool) ([]*database.Like, error) {
	return s.list(func(like *database.Like) bool {
		if like.LikedUserID != userID {
			return false
		}
		return !onlyUnmatched || !like.IsMatched
	})
}

func (s *memLikeStore) list(keep func(*database.Like) bool) ([]*database.Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*database.Like
	for _, like := range s.likes {
		if keep(like) {
			clone := *like
			result = append(result, &clone)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

type memMatchStore struct {
	mu      sync.Mutex
	matches map[string]*database.Match
}

func newMemMatchStore() *memMatchStore {
	return &memMatchStore{matches: make(map[string]*database.Match)}
}

func (s *memMatchStore) Insert(ctx context.Context, match *database.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.matches {
		if existing.UserIDLow == match.UserIDLow && existing.UserIDHigh == match.UserIDHigh {
			return database.ErrDuplicate
		}
	}

	clone := *match
	s.matches[match.ID] = &clone
	return nil
}

func (s *memMatchStore) GetByID(ctx context.Context, id string) (*database.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	match, ok := s.matches[id]
	if !ok {
		return nil, database.ErrNotFound
	}

	clone := *match
	return &clone, nil
}

func (s *memMatchStore) GetByPair(ctx context.Context, lowID, highID string) (*database.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, match := range s.matches {
		if match.UserIDLow == lowID && match.UserIDHigh == highID {
			clone := *match
			return &clone, nil
		}
	}

	return nil, database.ErrNotFound
}

func (s *memMatchStore) DeleteByPair(ctx context.Context, lowID, highID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, match := range s.matches {
		if match.UserIDLow == lowID && match.UserIDHigh == highID {
			delete(s.matches, id)
			return nil
		}
	}

	return database.ErrNotFound
}

func (s *memMatchStore) ListForUser(ctx context.Context, userID string) ([]*database.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*database.Match
	for _, match := range s.matches {
		if match.Involves(userID) {
			clone := *match
			result = append(result, &clone)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *memMatchStore) MarkRead(ctx context.Context, matchID string, lowSide bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	match, ok := s.matches[matchID]
	if !ok {
		return database.ErrNotFound
	}

	if lowSide {
		match.IsReadLow = true
	} else {
		match.IsReadHigh = true
	}
	return nil
}

func (s *memMatchStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}

type memRoomStore struct {
	mu    sync.Mutex
	rooms map[string]*database.ChatRoom
}

func newMemRoomStore() *memRoomStore {
	return &memRoomStore{rooms: make(map[string]*database.ChatRoom)}
}

func (s *memRoomStore) Upsert(ctx context.Context, lowID, highID string, now time.Time) (*database.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, room := range s.rooms {
		if room.UserIDLow == lowID && room.UserIDHigh == highID {
			room.IsActive = true
			room.LastActivity = now
			room.UpdatedAt = now
			clone := *room
			return &clone, nil
		}
	}

	room := &database.ChatRoom{
		ID:           uuid.New().String(),
		UserIDLow:    lowID,
		UserIDHigh:   highID,
		IsActive:     true,
		LastActivity: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.rooms[room.ID] = room

	clone := *room
	return &clone, nil
}

func (s *memRoomStore) GetByPair(ctx context.Context, lowID, highID string, activeOnly bool) (*database.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, room := range s.rooms {
		if room.UserIDLow == lowID && room.UserIDHigh == highID {
			if activeOnly && !room.IsActive {
				return nil, database.ErrNotFound
			}
			clone := *room
			return &clone, nil
		}
	}

	return nil, database.ErrNotFound
}

func (s *memRoomStore) GetByID(ctx context.Context, id string) (*database.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return nil, database.ErrNotFound
	}

	clone := *room
	return &clone, nil
}

func (s *memRoomStore) Deactivate(ctx context.Context, lowID, highID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, room := range s.rooms {
		if room.UserIDLow == lowID && room.UserIDHigh == highID {
			room.IsActive = false
			room.UpdatedAt = now
		}
	}
	return nil
}

func (s *memRoomStore) Touch(ctx context.Context, roomID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return database.ErrNotFound
	}

	room.LastActivity = at
	room.UpdatedAt = at
	return nil
}

func (s *memRoomStore) ListActiveForUser(ctx context.Context, userID string) ([]*database.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*database.ChatRoom
	for _, room := range s.rooms {
		if room.IsActive && room.HasMember(userID) {
			clone := *room
			result = append(result, &clone)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].LastActivity.After(result[j].LastActivity)
	})
	return result, nil
}

func (s *memRoomStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

type memMessageStore struct {
	mu       sync.Mutex
	messages map[string]*database.Message
}

func newMemMessageStore() *memMessageStore {
	return &memMessageStore{messages: make(map[string]*database.Message)}
}

func (s *memMessageStore) Insert(ctx context.Context, msg *database.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *msg
	s.messages[msg.ID] = &clone
	return nil
}

func (s *memMessageStore) GetByID(ctx context.Context, id string) (*database.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, database.ErrNotFound
	}

	clone := *msg
	return &clone, nil
}

func (s *memMessageStore) ListPage(ctx context.Context, roomID string, before *time.Time, limit int) ([]*database.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*database.Message
	for _, msg := range s.messages {
		if msg.ChatRoomID != roomID || msg.IsDeleted {
			continue
		}
		if before != nil && !msg.CreatedAt.Before(*before) {
			continue
		}
		clone := *msg
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *memMessageStore) MarkRead(ctx context.Context, roomID, recipientID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var affected int64
	for _, msg := range s.messages {
		if msg.ChatRoomID != roomID || msg.RecipientID != recipientID || msg.IsDeleted {
			continue
		}
		if msg.Status == database.MessageStatusRead {
			continue
		}
		msg.Status = database.MessageStatusRead
		stamp := at
		msg.ReadAt = &stamp
		affected++
	}
	return affected, nil
}

func (s *memMessageStore) SetStatus(ctx context.Context, id string, from, to database.MessageStatus, readAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !from.CanTransitionTo(to) {
		return fmt.Errorf("invalid message status transition %s -> %s", from, to)
	}

	msg, ok := s.messages[id]
	if !ok || msg.IsDeleted || msg.Status != from {
		return database.ErrNotFound
	}

	msg.Status = to
	if readAt != nil {
		stamp := *readAt
		msg.ReadAt = &stamp
	}
	return nil
}

func (s *memMessageStore) SoftDelete(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok || msg.IsDeleted {
		return database.ErrNotFound
	}

	msg.IsDeleted = true
	stamp := at
	msg.DeletedAt = &stamp
	return nil
}

func (s *memMessageStore) Latest(ctx context.Context, roomID string) (*database.Message, error) {
	page, err := s.ListPage(ctx, roomID, nil, 1)
	if err != nil {
		return nil, err
	}
	if len(page) == 0 {
		return nil, database.ErrNotFound
	}
	return page[0], nil
}

func (s *memMessageStore) CountUnread(ctx context.Context, roomID, recipientID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, msg := range s.messages {
		if msg.ChatRoomID == roomID && msg.RecipientID == recipientID &&
			msg.Status != database.MessageStatusRead && !msg.IsDeleted {
			count++
		}
	}
	return count, nil
}

type memUserDirectory struct {
	mu    sync.Mutex
	users map[string]*database.UserSummary
}

func newMemUserDirectory(ids ...string) *memUserDirectory {
	dir := &memUserDirectory{users: make(map[string]*database.UserSummary)}
	for _, id := range ids {
		dir.users[id] = &database.UserSummary{ID: id, Name: "user " + id[:8], Gender: "other"}
	}
	return dir
}

func (d *memUserDirectory) GetSummary(ctx context.Context, userID string) (*database.UserSummary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.users[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return user, nil
}

func (d *memUserDirectory) GetSummaries(ctx context.Context, userIDs []string) (map[string]*database.UserSummary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	result := make(map[string]*database.UserSummary)
	for _, id := range userIDs {
		if user, ok := d.users[id]; ok {
			result[id] = user
		}
	}
	return result, nil
}

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []events.MatchCreated
}

func (p *capturePublisher) PublishMatchCreated(ctx context.Context, event events.MatchCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) published() []events.MatchCreated {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.MatchCreated(nil), p.events...)
}
