package redis

import (
	"context"
	"fmt"

	"condo-automation/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// options maps RedisConfig onto client options. Zero values keep go-redis defaults.
func options(cfg config.RedisConfig) *goredis.Options {
	return &goredis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	}
}

// NewClient creates the dispatch claim client and pings it once. A failed ping
// is returned so the caller can decide whether claims are required.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(options(cfg))

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr(), err)
	}

	log.Info().
		Str("addr", cfg.Addr()).
		Int("db", cfg.DB).
		Int("pool_size", client.Options().PoolSize).
		Dur("dial_timeout", client.Options().DialTimeout).
		Msg("Redis claim store connected")

	return client, nil
}
