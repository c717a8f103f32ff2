package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// KeySession is the Redis key of a session: portal:session:{token}.
const KeySession = "portal:session:%s"

// RedisStore keeps sessions in Redis as JSON. With a positive ttl every read
// and save pushes the expiry ttl into the future.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("session: failed to connect to redis at %s: %w", addr, err)
	}

	log.Info().Str("addr", addr).Msg("session: connected to redis")
	return rdb, nil
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	key := fmt.Sprintf(KeySession, id)

	var cmd *redis.StringCmd
	if r.ttl > 0 {
		cmd = r.rdb.GetEx(ctx, key, r.ttl)
	} else {
		cmd = r.rdb.Get(ctx, key)
	}

	data, err := cmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: failed to load %s: %w", id, err)
	}
	return decode(data)
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}

	if err := r.rdb.Set(ctx, fmt.Sprintf(KeySession, s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("session: failed to save %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, fmt.Sprintf(KeySession, id)).Err(); err != nil {
		return fmt.Errorf("session: failed to delete %s: %w", id, err)
	}
	return nil
}
