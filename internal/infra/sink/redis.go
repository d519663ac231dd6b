package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the redis journal connection settings.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Key      string `yaml:"key"`
	MaxLen   int64  `yaml:"max_len"`
}

// RedisJournal appends journal lines to a capped Redis list, for
// deployments where operations tooling tails a shared store instead of
// local files.
type RedisJournal struct {
	rdb    *redis.Client
	key    string
	maxLen int64
}

// NewRedisJournal connects and verifies the Redis backend.
func NewRedisJournal(cfg RedisConfig) (*RedisJournal, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = "remedy:journal"
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = 100_000
	}
	return &RedisJournal{rdb: rdb, key: key, maxLen: maxLen}, nil
}

// Append pushes the batch in one pipeline and trims the list to the
// configured cap, oldest entries first.
func (j *RedisJournal) Append(lines [][]byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	values := make([]interface{}, len(lines))
	for i, line := range lines {
		values[i] = line
	}

	pipe := j.rdb.Pipeline()
	pipe.RPush(ctx, j.key, values...)
	pipe.LTrim(ctx, j.key, -j.maxLen, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis journal append failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (j *RedisJournal) Close() error {
	return j.rdb.Close()
}
