package services

import (
	"context"
	"errors"
	"time"

	"github.com/sparkmatch/sparkmatch/internal/cache"
	"github.com/sparkmatch/sparkmatch/internal/database"
	"github.com/sparkmatch/sparkmatch/internal/telemetry"
)

const (
	userCacheKeyPrefix = "users:summary:"
	userCacheTTL       = 5 * time.Minute
)

// UserService fronts the external user directory with a Redis cache.
// Summaries change rarely and are read on every hydrated list, so a short
// TTL keeps them warm without an invalidation protocol. With a nil cache it
// degrades to pass-through lookups.
type UserService struct {
	directory UserDirectory
	cache     *cache.RedisCache
}

func NewUserService(directory UserDirectory, redisCache *cache.RedisCache) *UserService {
	return &UserService{
		directory: directory,
		cache:     redisCache,
	}
}

func (s *UserService) GetSummary(ctx context.Context, userID string) (*database.UserSummary, error) {
	if s.cache != nil {
		summary := &database.UserSummary{}
		err := s.cache.GetJSON(ctx, userCacheKeyPrefix+userID, summary)
		if err == nil {
			return summary, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			telemetry.LogFromContext(ctx).WithError(err).Warn("User cache read failed")
		}
	}

	summary, err := s.directory.GetSummary(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.cacheSummary(ctx, summary)
	return summary, nil
}

func (s *UserService) GetSummaries(ctx context.Context, userIDs []string) (map[string]*database.UserSummary, error) {
	result := make(map[string]*database.UserSummary, len(userIDs))

	var misses []string
	if s.cache == nil {
		misses = userIDs
	} else {
		for _, id := range userIDs {
			summary := &database.UserSummary{}
			if err := s.cache.GetJSON(ctx, userCacheKeyPrefix+id, summary); err == nil {
				result[id] = summary
			} else {
				misses = append(misses, id)
			}
		}
	}

	if len(misses) > 0 {
		fetched, err := s.directory.GetSummaries(ctx, misses)
		if err != nil {
			return nil, err
		}
		for id, summary := range fetched {
			result[id] = summary
			s.cacheSummary(ctx, summary)
		}
	}

	return result, nil
}

func (s *UserService) cacheSummary(ctx context.Context, summary *database.UserSummary) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, userCacheKeyPrefix+summary.ID, summary, userCacheTTL); err != nil {
		telemetry.LogFromContext(ctx).WithError(err).Warn("User cache write failed")
	}
}
