package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// WindowStore keeps per-user sliding rate windows in Redis sorted sets.
// Scores are request timestamps in milliseconds; expired members are purged
// on every admission check.
type WindowStore struct {
	client *redis.Client
	window time.Duration
}

// admitScript performs the check-and-record in one round trip so a user's
// own concurrent requests cannot race between the count and the insert.
// Returns {allowed, remaining, retry_after_ms}.
var admitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window)
	return {1, limit - count - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] == nil then
	return {0, 0, window}
end
return {0, 0, oldest[2] + window - now}
`)

// NewWindowStore creates a window store over an existing Redis client
func NewWindowStore(client *redis.Client, window time.Duration) *WindowStore {
	return &WindowStore{client: client, window: window}
}

// NewClient connects a Redis client and verifies the connection
func NewClient(host string, port int, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// Admit records a request for the user if fewer than limit requests fall
// inside the trailing window. When denied, retryAfter is the exact time until
// the oldest in-window request expires.
func (s *WindowStore) Admit(ctx context.Context, userID int64, limit int) (bool, int, time.Duration, error) {
	key := fmt.Sprintf("ratewindow:%d", userID)
	now := time.Now().UnixMilli()

	res, err := admitScript.Run(ctx, s.client,
		[]string{key}, now, s.window.Milliseconds(), limit, uuid.New().String()).Slice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("failed to run admission script: %w", err)
	}
	if len(res) != 3 {
		return false, 0, 0, fmt.Errorf("unexpected admission script result: %v", res)
	}

	allowed := toInt64(res[0]) == 1
	remaining := int(toInt64(res[1]))
	retryAfter := time.Duration(toInt64(res[2])) * time.Millisecond

	return allowed, remaining, retryAfter, nil
}

// Window returns the configured window duration
func (s *WindowStore) Window() time.Duration {
	return s.window
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
