package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

const gameSeqKey = "game:seq"

type GameRepository interface {
	NextID(ctx context.Context) (uint64, error)
	Save(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id uint64) (*entity.Game, error)
}

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

// NextID - allocates the next game id, the first one is 0.
func (that *dbGame) NextID(ctx context.Context) (uint64, error) {
	seq, err := that.client.Incr(ctx, gameSeqKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate game id: %w", err)
	}

	return uint64(seq - 1), nil //nolint: gosec // INCR starts at 1
}

func (that *dbGame) Save(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	if err = that.client.Set(ctx, gameKey(game.ID), gameJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id uint64) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: id %d", apperror.ErrGameNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game %d: %w", id, err)
	}

	var existingGame entity.Game
	if err = json.Unmarshal([]byte(response), &existingGame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

func gameKey(id uint64) string {
	return "game:" + strconv.FormatUint(id, 10)
}
