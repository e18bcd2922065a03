// Package redis builds the optional go-redis client backing the health id
// existence cache.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const connectTimeout = 5 * time.Second

// Client wraps the go-redis client with health checking.
type Client struct {
	*redis.Client
}

// New connects to url. It returns nil, nil when url is empty so callers can
// treat the cache as disabled.
func New(ctx context.Context, url string) (*Client, error) {
	if url == "" {
		return nil, nil
	}

	opts, err := ParseOptions(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// ParseOptions parses a redis:// or rediss:// URL and applies the timeouts
// used by the cache. Reads are kept short so a slow cache never eats the
// existence-check budget.
func ParseOptions(url string) (*redis.Options, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.DialTimeout = connectTimeout
	opts.ReadTimeout = 200 * time.Millisecond
	opts.WriteTimeout = 200 * time.Millisecond
	return opts, nil
}

// Health reports whether the server answers PING.
func (c *Client) Health(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}
