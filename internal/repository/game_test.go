package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
	"github.com/rocketscienceinc/tictactoe-escrow/testing/suite"
)

func newSampleGame(id uint64) *entity.Game {
	bob := "bob"
	game := &entity.Game{
		ID:              id,
		PlayerOne:       "alice",
		PlayerTwo:       &bob,
		PlayerOneMark:   entity.PlayerX,
		PlayerTwoMark:   entity.PlayerO,
		BetAmount:       100,
		IsPlayerOneTurn: true,
		LastMoveAt:      12,
	}
	game.Board[0] = entity.PlayerX
	game.Board[1] = entity.PlayerO

	return game
}

// testGameRepository runs the same contract against every implementation.
func testGameRepository(ctx context.Context, t *testing.T, gameRepo GameRepository) {
	t.Run("NextID starts at zero and increments", func(t *testing.T) {
		// When: three ids are allocated
		ids := make([]uint64, 0, 3)
		for range 3 {
			id, err := gameRepo.NextID(ctx)
			require.NoError(t, err)
			ids = append(ids, id)
		}

		// Then: they are sequential from zero
		assert.Equal(t, []uint64{0, 1, 2}, ids)
	})

	t.Run("GetByID_Success", func(t *testing.T) {
		// Given: a stored game
		game := newSampleGame(1)
		require.NoError(t, gameRepo.Save(ctx, game))

		// When: GetByID is called with existing ID
		retrievedGame, err := gameRepo.GetByID(ctx, game.ID)

		// Then: the retrieved game should match the saved game
		require.NoError(t, err)
		assert.Equal(t, game, retrievedGame)
	})

	t.Run("Save overwrites the previous state", func(t *testing.T) {
		// Given: a stored game
		game := newSampleGame(2)
		require.NoError(t, gameRepo.Save(ctx, game))

		// When: it finishes and is saved again
		game.Finished = true
		game.Winner = &game.PlayerOne
		require.NoError(t, gameRepo.Save(ctx, game))

		// Then: the latest state is returned
		retrievedGame, err := gameRepo.GetByID(ctx, 2)
		require.NoError(t, err)
		assert.True(t, retrievedGame.IsFinished())
		assert.Equal(t, "alice", *retrievedGame.Winner)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		// When: GetByID is called with non-existent ID
		retrievedGame, err := gameRepo.GetByID(ctx, 9999999)

		// Then: an ErrGameNotFound error should be returned
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
		assert.Nil(t, retrievedGame)
	})
}

func TestGameRepository_Redis(t *testing.T) {
	ctx, st := suite.New(t)

	testGameRepository(ctx, t, NewGameRepository(st.Storage))
}

func TestGameRepository_Memory(t *testing.T) {
	testGameRepository(context.Background(), t, NewMemoryGameRepository())
}

func TestGameRepository_MemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	gameRepo := NewMemoryGameRepository()

	// Given: a stored game
	game := newSampleGame(0)
	require.NoError(t, gameRepo.Save(ctx, game))

	// When: the caller mutates both the saved and the loaded value
	game.Board[4] = entity.PlayerX
	loaded, err := gameRepo.GetByID(ctx, 0)
	require.NoError(t, err)
	*loaded.PlayerTwo = "mallory"

	// Then: the stored game is unaffected
	again, err := gameRepo.GetByID(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, entity.EmptyCell, again.Board[4])
	assert.Equal(t, "bob", *again.PlayerTwo)
}
