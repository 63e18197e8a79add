package chain

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const heightKey = "chain:height"

// RedisHeight keeps the block height in redis so every instance sees the same chain.
type RedisHeight struct {
	client *redis.Client
}

func NewRedisHeight(client *redis.Client) *RedisHeight {
	return &RedisHeight{client: client}
}

// Init - sets the height to start unless a height is already stored.
func (that *RedisHeight) Init(ctx context.Context, start uint64) error {
	if err := that.client.SetNX(ctx, heightKey, start, 0).Err(); err != nil {
		return fmt.Errorf("failed to init height: %w", err)
	}

	return nil
}

func (that *RedisHeight) CurrentHeight(ctx context.Context) (uint64, error) {
	response, err := that.client.Get(ctx, heightKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("failed to get height: %w", err)
	}

	height, err := strconv.ParseUint(response, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse height %q: %w", response, err)
	}

	return height, nil
}

func (that *RedisHeight) Advance(ctx context.Context, n uint64) (uint64, error) {
	height, err := that.client.IncrBy(ctx, heightKey, int64(n)).Result() //nolint: gosec // n is a small block count
	if err != nil {
		return 0, fmt.Errorf("failed to advance height: %w", err)
	}

	return uint64(height), nil //nolint: gosec // height never goes negative
}
