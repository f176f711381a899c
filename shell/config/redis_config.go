package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrEmptyRedisURL is returned when RedisOptions gets an empty URL.
var ErrEmptyRedisURL = errors.New("redis url must not be empty")

// RedisOptions parses url and applies the pool tuning used for lock traffic.
func RedisOptions(url string) (*redis.Options, error) {
	const defaultPoolSize = 10
	const defaultMinIdleConns = 2
	const defaultDialTimeout = time.Second * 5
	const defaultReadTimeout = time.Second * 3
	const defaultWriteTimeout = time.Second * 3

	if url == "" {
		return nil, ErrEmptyRedisURL
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = defaultPoolSize
	opts.MinIdleConns = defaultMinIdleConns
	opts.DialTimeout = defaultDialTimeout
	opts.ReadTimeout = defaultReadTimeout
	opts.WriteTimeout = defaultWriteTimeout

	return opts, nil
}
