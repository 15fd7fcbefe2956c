package runlock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker is a Redis-backed run lock, one key per protocol. It keeps two
// overlapping cycles from writing the same protocol's sample stream; the TTL
// frees the lock if a cycle dies mid-flight.
type Locker struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a Locker backed by Redis.
func New(redisURL, password string, ttl time.Duration) (*Locker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Locker{rdb: rdb, ttl: ttl}, nil
}

// Close shuts down the Redis connection.
func (l *Locker) Close() error {
	return l.rdb.Close()
}

// Acquire takes the run lock for a protocol. Returns false when another
// holder has it.
func (l *Locker) Acquire(ctx context.Context, name string) (bool, error) {
	return l.rdb.SetNX(ctx, lockKey(name), "1", l.ttl).Result()
}

// Release frees the run lock for a protocol.
func (l *Locker) Release(ctx context.Context, name string) error {
	return l.rdb.Del(ctx, lockKey(name)).Err()
}

func lockKey(name string) string {
	return "runlock:protocol:" + name
}
