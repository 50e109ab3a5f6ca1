package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage persists metric points to Redis sorted sets, scored by epoch
// so series can be range-queried and replayed in order.
type RedisStorage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStorage connects to Redis and verifies the connection.
func NewRedisStorage(url string) (*RedisStorage, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisStorage{
		client: client,
		prefix: "rankforge:metrics:",
		ttl:    7 * 24 * time.Hour,
	}, nil
}

func (rs *RedisStorage) key(runID, metric string) string {
	return rs.prefix + runID + ":" + metric
}

// SavePoint stores one point and refreshes the key TTL.
func (rs *RedisStorage) SavePoint(ctx context.Context, runID, metric string, p Point) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling point: %w", err)
	}
	key := rs.key(runID, metric)

	pipe := rs.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(p.Epoch), Member: string(data)})
	pipe.Expire(ctx, key, rs.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving point: %w", err)
	}
	return nil
}

// LoadSeries loads a full series ordered by epoch.
func (rs *RedisStorage) LoadSeries(ctx context.Context, runID, metric string) ([]Point, error) {
	results, err := rs.client.ZRangeByScore(ctx, rs.key(runID, metric), &redis.ZRangeBy{
		Min: "-inf",
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("loading series: %w", err)
	}

	points := make([]Point, 0, len(results))
	for _, member := range results {
		var p Point
		if err := json.Unmarshal([]byte(member), &p); err != nil {
			// Skip invalid entries
			continue
		}
		points = append(points, p)
	}
	return points, nil
}

// Close releases the Redis client.
func (rs *RedisStorage) Close() error {
	return rs.client.Close()
}
