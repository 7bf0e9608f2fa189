package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

const defaultConnectTimeout = 10 * time.Second

// Option tunes NewClient.
type Option func(*clientOptions)

type clientOptions struct {
	connectTimeout time.Duration
}

// WithConnectTimeout bounds how long NewClient keeps retrying the initial ping.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.connectTimeout = d }
}

// NewClient parses redisURL and waits until the server answers PING, retrying
// with exponential backoff so the API and worker tolerate redis starting late.
func NewClient(ctx context.Context, redisURL string, opts ...Option) (*redis.Client, error) {
	cfg := clientOptions{connectTimeout: defaultConnectTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(parsed)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxElapsedTime = cfg.connectTimeout

	ping := func() error { return client.Ping(ctx).Err() }
	if err := backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
