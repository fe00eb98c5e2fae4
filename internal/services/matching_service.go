package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sparkmatch/sparkmatch/internal/database"
	apperrors "github.com/sparkmatch/sparkmatch/internal/errors"
	"github.com/sparkmatch/sparkmatch/internal/events"
	"github.com/sparkmatch/sparkmatch/internal/telemetry"
)

// LikeResult is the outcome of recording a like. When the like completed a
// mutual pair, Match and ChatRoom carry the records created (or found) for
// the pair.
type LikeResult struct {
	Matched  bool               `json:"matched"`
	Like     *database.Like     `json:"like"`
	Match    *database.Match    `json:"match,omitempty"`
	ChatRoom *database.ChatRoom `json:"chat_room,omitempty"`
}

// LikeView is a like edge hydrated with the other user's summary.
type LikeView struct {
	LikeID    string                `json:"like_id"`
	OtherUser *database.UserSummary `json:"other_user"`
	IsMatched bool                  `json:"is_matched"`
	CreatedAt time.Time             `json:"created_at"`
}

// MatchView is a match hydrated with the other user's summary and the
// calling user's read flag.
type MatchView struct {
	MatchID   string                `json:"match_id"`
	OtherUser *database.UserSummary `json:"other_user"`
	IsRead    bool                  `json:"is_read"`
	CreatedAt time.Time             `json:"created_at"`
}

// MatchingService owns the like graph and the like -> match -> room
// orchestration.
type MatchingService struct {
	likes     LikeStore
	matches   MatchStore
	rooms     RoomStore
	users     UserDirectory
	publisher events.Publisher
	pairs     *pairLock
	now       func() time.Time
}

func NewMatchingService(likes LikeStore, matches MatchStore, rooms RoomStore, users UserDirectory, publisher events.Publisher) *MatchingService {
	return &MatchingService{
		likes:     likes,
		matches:   matches,
		rooms:     rooms,
		users:     users,
		publisher: publisher,
		pairs:     newPairLock(),
		now:       time.Now,
	}
}

// Like records a directed like from actor to target and, when the reverse
// edge already exists, resolves the pair into a match with its chat room.
// Duplicate likes are a caller error (conflict), not an idempotent success.
func (s *MatchingService) Like(ctx context.Context, actorID, targetID string) (*LikeResult, error) {
	logger := telemetry.LogFromContext(ctx).WithFields(logrus.Fields{
		"actor_id":  actorID,
		"target_id": targetID,
		"operation": "like",
	})

	if err := validateUserID(actorID); err != nil {
		return nil, err
	}
	if err := validateUserID(targetID); err != nil {
		return nil, err
	}
	if actorID == targetID {
		return nil, apperrors.NewValidationError("cannot like yourself")
	}

	if _, err := s.users.GetSummary(ctx, targetID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("user")
		}
		return nil, apperrors.NewDatabaseError("lookup user", err)
	}

	// Serialize mutual detection per unordered pair so two racing likes
	// resolve into exactly one match.
	unlock := s.pairs.Lock(actorID, targetID)
	defer unlock()

	like := &database.Like{
		ID:          uuid.New().String(),
		UserID:      actorID,
		LikedUserID: targetID,
		CreatedAt:   s.now(),
	}

	if err := s.likes.Insert(ctx, like); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperrors.NewConflictError("like already exists")
		}
		return nil, apperrors.NewDatabaseError("insert like", err)
	}

	reciprocal, err := s.likes.Get(ctx, targetID, actorID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			logger.Info("Like recorded, no reciprocal like yet")
			return &LikeResult{Matched: false, Like: like}, nil
		}
		return nil, apperrors.NewDatabaseError("check reciprocal like", err)
	}

	match, room, err := s.resolveMutualLike(ctx, like, reciprocal)
	if err != nil {
		return nil, err
	}

	like.IsMatched = true
	logger.WithFields(logrus.Fields{
		"match_id":     match.ID,
		"chat_room_id": room.ID,
	}).Info("Mutual like resolved into match")

	return &LikeResult{Matched: true, Like: like, Match: match, ChatRoom: room}, nil
}

// resolveMutualLike runs the critical section: flip both edges, create the
// match and room, emit the event. Callers hold the pair lock. A concurrent
// writer from another process that wins the match insert is detected via the
// pair uniqueness constraint and resolved as the already-matched path.
func (s *MatchingService) resolveMutualLike(ctx context.Context, like, reciprocal *database.Like) (*database.Match, *database.ChatRoom, error) {
	now := s.now()
	low, high := database.NormalizePair(like.UserID, like.LikedUserID)

	if err := s.likes.SetMatched(ctx, reciprocal.UserID, reciprocal.LikedUserID, true); err != nil {
		return nil, nil, apperrors.NewDatabaseError("flag reciprocal like", err)
	}
	if err := s.likes.SetMatched(ctx, like.UserID, like.LikedUserID, true); err != nil {
		return nil, nil, apperrors.NewDatabaseError("flag like", err)
	}

	match := &database.Match{
		ID:         uuid.New().String(),
		UserIDLow:  low,
		UserIDHigh: high,
		CreatedAt:  now,
	}

	created := true
	if err := s.matches.Insert(ctx, match); err != nil {
		if !errors.Is(err, database.ErrDuplicate) {
			return nil, nil, apperrors.NewDatabaseError("insert match", err)
		}

		existing, getErr := s.matches.GetByPair(ctx, low, high)
		if getErr != nil {
			return nil, nil, apperrors.NewDatabaseError("get existing match", getErr)
		}
		match = existing
		created = false
	}

	room, err := s.rooms.Upsert(ctx, low, high, now)
	if err != nil {
		return nil, nil, apperrors.NewDatabaseError("create chat room", err)
	}

	if created {
		s.publishMatchCreated(ctx, match, room)
		telemetry.RecordMatchCreated(ctx)
	}

	return match, room, nil
}

// publishMatchCreated emits the event after the match and room are durable.
// Publish failures are logged and never surfaced to the liker; the queue
// dedupes by match ID so a later replay is safe.
func (s *MatchingService) publishMatchCreated(ctx context.Context, match *database.Match, room *database.ChatRoom) {
	event := events.MatchCreated{
		MatchID:    match.ID,
		UserA:      match.UserIDLow,
		UserB:      match.UserIDHigh,
		ChatRoomID: room.ID,
		CreatedAt:  match.CreatedAt,
	}

	if err := s.publisher.PublishMatchCreated(ctx, event); err != nil {
		telemetry.LogFromContext(ctx).WithError(err).WithFields(logrus.Fields{
			"match_id": match.ID,
		}).Error("Failed to publish match created event")
		return
	}

	telemetry.RecordEventPublished(ctx)
}

// Unlike removes the directed edge from actor to target. When the edge was
// part of a match, the match is deleted, the chat room deactivated with its
// history intact, and the reciprocal edge reset to unmatched.
func (s *MatchingService) Unlike(ctx context.Context, actorID, targetID string) error {
	logger := telemetry.LogFromContext(ctx).WithFields(logrus.Fields{
		"actor_id":  actorID,
		"target_id": targetID,
		"operation": "unlike",
	})

	if err := validateUserID(actorID); err != nil {
		return err
	}
	if err := validateUserID(targetID); err != nil {
		return err
	}

	unlock := s.pairs.Lock(actorID, targetID)
	defer unlock()

	like, err := s.likes.Get(ctx, actorID, targetID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperrors.NewNotFoundError("like")
		}
		return apperrors.NewDatabaseError("get like", err)
	}

	if err := s.likes.Delete(ctx, actorID, targetID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperrors.NewNotFoundError("like")
		}
		return apperrors.NewDatabaseError("delete like", err)
	}

	if !like.IsMatched {
		return nil
	}

	low, high := database.NormalizePair(actorID, targetID)

	if err := s.matches.DeleteByPair(ctx, low, high); err != nil && !errors.Is(err, database.ErrNotFound) {
		return apperrors.NewDatabaseError("delete match", err)
	}

	if err := s.rooms.Deactivate(ctx, low, high, s.now()); err != nil {
		return apperrors.NewDatabaseError("deactivate chat room", err)
	}

	if err := s.likes.SetMatched(ctx, targetID, actorID, false); err != nil && !errors.Is(err, database.ErrNotFound) {
		return apperrors.NewDatabaseError("reset reciprocal like", err)
	}

	logger.Info("Match dissolved by unlike")
	return nil
}

// ListSentLikes returns the likes actor has sent, newest first, hydrated
// with the liked user's summary.
func (s *MatchingService) ListSentLikes(ctx context.Context, actorID string) ([]*LikeView, error) {
	likes, err := s.likes.ListSentBy(ctx, actorID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list sent likes", err)
	}

	return s.hydrateLikes(ctx, likes, func(like *database.Like) string {
		return like.LikedUserID
	})
}

// ListReceivedLikes returns the likes pointing at actor, newest first. With
// onlyUnmatched set, likes already resolved into a match are excluded so a
// "who likes me" view never re-surfaces matched users.
func (s *MatchingService) ListReceivedLikes(ctx context.Context, actorID string, onlyUnmatched bool) ([]*LikeView, error) {
	likes, err := s.likes.ListReceivedBy(ctx, actorID, onlyUnmatched)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list received likes", err)
	}

	return s.hydrateLikes(ctx, likes, func(like *database.Like) string {
		return like.UserID
	})
}

func (s *MatchingService) hydrateLikes(ctx context.Context, likes []*database.Like, otherUser func(*database.Like) string) ([]*LikeView, error) {
	ids := make([]string, 0, len(likes))
	for _, like := range likes {
		ids = append(ids, otherUser(like))
	}

	summaries, err := s.users.GetSummaries(ctx, ids)
	if err != nil {
		return nil, apperrors.NewDatabaseError("lookup users", err)
	}

	views := make([]*LikeView, 0, len(likes))
	for _, like := range likes {
		views = append(views, &LikeView{
			LikeID:    like.ID,
			OtherUser: summaries[otherUser(like)],
			IsMatched: like.IsMatched,
			CreatedAt: like.CreatedAt,
		})
	}

	return views, nil
}

// ListMatches returns actor's matches, newest first, each hydrated with the
// partner's summary and actor's own read flag.
func (s *MatchingService) ListMatches(ctx context.Context, actorID string) ([]*MatchView, error) {
	matches, err := s.matches.ListForUser(ctx, actorID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list matches", err)
	}

	ids := make([]string, 0, len(matches))
	for _, match := range matches {
		ids = append(ids, match.OtherUser(actorID))
	}

	summaries, err := s.users.GetSummaries(ctx, ids)
	if err != nil {
		return nil, apperrors.NewDatabaseError("lookup users", err)
	}

	views := make([]*MatchView, 0, len(matches))
	for _, match := range matches {
		views = append(views, &MatchView{
			MatchID:   match.ID,
			OtherUser: summaries[match.OtherUser(actorID)],
			IsRead:    match.IsReadBy(actorID),
			CreatedAt: match.CreatedAt,
		})
	}

	return views, nil
}

// MarkMatchRead flips actor's read flag on a match.
func (s *MatchingService) MarkMatchRead(ctx context.Context, actorID, matchID string) error {
	if err := uuid.Validate(matchID); err != nil {
		return apperrors.NewValidationError("invalid match id")
	}

	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperrors.NewNotFoundError("match")
		}
		return apperrors.NewDatabaseError("get match", err)
	}

	if !match.Involves(actorID) {
		return apperrors.NewAuthorizationError("not a party to this match")
	}

	if err := s.matches.MarkRead(ctx, matchID, match.UserIDLow == actorID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperrors.NewNotFoundError("match")
		}
		return apperrors.NewDatabaseError("mark match read", err)
	}

	return nil
}

func validateUserID(id string) error {
	if err := uuid.Validate(id); err != nil {
		return apperrors.NewValidationError("invalid user id")
	}
	return nil
}
