package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

type memGame struct {
	mu    sync.RWMutex
	seq   uint64
	games map[uint64]*entity.Game
}

// NewMemoryGameRepository - keeps games in process memory. Stored games are copies.
func NewMemoryGameRepository() GameRepository {
	return &memGame{
		games: make(map[uint64]*entity.Game),
	}
}

func (that *memGame) NextID(_ context.Context) (uint64, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	id := that.seq
	that.seq++

	return id, nil
}

func (that *memGame) Save(_ context.Context, game *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.games[game.ID] = game.Clone()

	return nil
}

func (that *memGame) GetByID(_ context.Context, id uint64) (*entity.Game, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	game, ok := that.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", apperror.ErrGameNotFound, id)
	}

	return game.Clone(), nil
}
