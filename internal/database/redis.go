package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisDialCheck = 3 * time.Second

// ConnectRedis opens the client shared by the funnel cache and the redis event
// channel. The URL may select a database (redis://host:6379/2); the connection is
// verified before returning.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url must not be empty")
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if opts.ClientName == "" {
		opts.ClientName = "talent-pipeline"
	}

	client := redis.NewClient(opts)
	checkCtx, cancel := context.WithTimeout(ctx, redisDialCheck)
	defer cancel()

	if err := client.Ping(checkCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
