package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "bfa:session:"

// RedisConfig holds the connection settings of the shared slot store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// Redis keeps slots in Redis so every replica sees the same sessions.
type Redis struct {
	rdb    *redis.Client
	sealer *Sealer
	logger *zap.Logger
}

// NewRedis connects to Redis and verifies the connection with a PING.
func NewRedis(ctx context.Context, cfg RedisConfig, sealer *Sealer, logger *zap.Logger) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("session store connected to Redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return &Redis{rdb: rdb, sealer: sealer, logger: logger}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	sealed, err := r.rdb.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get session: %w", err)
	}

	token, err := r.sealer.Open(key, sealed)
	if err != nil {
		r.logger.Warn("dropping unreadable session slot", zap.String("slot", key))
		_ = r.rdb.Del(ctx, keyPrefix+key).Err()
		return "", false, err
	}
	return token, true, nil
}

func (r *Redis) Set(ctx context.Context, key, token string, ttl time.Duration) error {
	sealed, err := r.sealer.Seal(key, token)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, keyPrefix+key, sealed, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
