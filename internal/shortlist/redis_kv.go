package shortlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisKV stores values as plain Redis strings. Update uses WATCH/MULTI so that
// writers in other processes cannot interleave between read and write.
type RedisKV struct {
	client     redis.UniversalClient
	maxRetries int
}

func NewRedisKV(client redis.UniversalClient, maxRetries int) *RedisKV {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &RedisKV{client: client, maxRetries: maxRetries}
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	return v, nil
}

func (r *RedisKV) Update(ctx context.Context, key string, fn UpdateFunc) error {
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		var (
			fnErr  error
			readOK bool
		)
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.Get(ctx, key).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
				current = nil
			case err != nil:
				return err
			}
			readOK = true

			next, err := fn(current)
			if err != nil {
				fnErr = err
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, next, 0)
				return nil
			})
			return err
		}, key)

		switch {
		case fnErr != nil:
			return fnErr
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case !readOK:
			return fmt.Errorf("%w: %v", ErrReadFailed, err)
		default:
			return fmt.Errorf("%w: %v", ErrWriteFailed, err)
		}
	}
	return fmt.Errorf("%w: key %q changed during %d attempts", ErrConflict, key, r.maxRetries)
}

func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
