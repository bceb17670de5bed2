// Package redis provides a Redis-backed durable slot for the cart snapshot.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Client is the subset of the go-redis client used by Slots.
type Client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
	Ping(ctx context.Context) *goredis.StatusCmd
}

// Options configures a connection.
type Options struct {
	URL     string        // redis://... URL; wins over Addr when set
	Addr    string        // host:port
	Timeout time.Duration // bound for every command
}

// Slots stores each slot as a plain Redis string.
type Slots struct {
	client  Client
	timeout time.Duration
	closer  func() error
}

// Open connects to Redis and verifies the connection with PING.
func Open(opts Options) (*Slots, error) {
	var ropts *goredis.Options
	if opts.URL != "" {
		parsed, err := goredis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		ropts = parsed
	} else {
		if strings.TrimSpace(opts.Addr) == "" {
			return nil, fmt.Errorf("redis address is required")
		}
		ropts = &goredis.Options{Addr: opts.Addr}
	}

	client := goredis.NewClient(ropts)
	s := New(client, opts.Timeout)
	s.closer = client.Close

	ctx, cancel := s.context()
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return s, nil
}

// New wraps an existing client. A non-positive timeout means 2s.
func New(client Client, timeout time.Duration) *Slots {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Slots{client: client, timeout: timeout}
}

func (s *Slots) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Get reads a slot. A missing key is found == false with no error.
func (s *Slots) Get(key string) ([]byte, bool, error) {
	ctx, cancel := s.context()
	defer cancel()

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

// Set writes a slot with no expiration.
func (s *Slots) Set(key string, data []byte) error {
	ctx, cancel := s.context()
	defer cancel()

	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes a slot.
func (s *Slots) Delete(key string) error {
	ctx, cancel := s.context()
	defer cancel()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Close closes the connection if Slots opened it.
func (s *Slots) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
