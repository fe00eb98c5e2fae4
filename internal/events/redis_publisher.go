package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key patterns for the match event queue.
const (
	keyMatchQueue  = "matches:events:pending"
	keyDedupPrefix = "matches:events:seen:"

	dedupTTL = 24 * time.Hour
)

// RedisPublisher pushes MatchCreated events onto a Redis sorted set consumed
// by the notification service. A SET NX marker per match drops replays of the
// same match before they reach the queue.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a publisher from a connection URL.
// URL format: redis://[:password@]host:port[/db]
func NewRedisPublisher(redisURL string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisPublisher{client: client}, nil
}

// NewRedisPublisherFromClient creates a publisher from an existing client.
func NewRedisPublisherFromClient(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// PublishMatchCreated enqueues one event. FIFO ordering comes from scoring by
// creation time. Publishing the same match twice is a silent no-op.
func (p *RedisPublisher) PublishMatchCreated(ctx context.Context, event MatchCreated) error {
	fresh, err := p.client.SetNX(ctx, keyDedupPrefix+event.MatchID, 1, dedupTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to check event dedup marker: %w", err)
	}
	if !fresh {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal match event: %w", err)
	}

	err = p.client.ZAdd(ctx, keyMatchQueue, redis.Z{
		Score:  float64(event.CreatedAt.UnixNano()),
		Member: payload,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue match event: %w", err)
	}

	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
