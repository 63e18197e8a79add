package chain

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-escrow/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualClock(t *testing.T) {
	ctx := context.Background()

	// Given: a clock at height 10
	clock := NewManualClock(10)

	// When: 144 blocks are mined
	height, err := clock.Advance(ctx, 144)
	require.NoError(t, err)

	// Then: the height moved forward
	assert.Equal(t, uint64(154), height)

	current, err := clock.CurrentHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(154), current)
}

func TestMiner_Run(t *testing.T) {
	// Given: a miner producing a block every millisecond
	clock := NewManualClock(0)
	miner := NewMiner(slog.New(slog.NewTextHandler(io.Discard, nil)), clock, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	// When: it runs for a while
	go func() {
		miner.Run(ctx)
		close(done)
	}()

	// Then: the height grows and the miner stops with the context
	assert.Eventually(t, func() bool {
		height, _ := clock.CurrentHeight(context.Background())
		return height >= 3
	}, time.Second, time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("miner did not stop")
	}
}

func TestRedisHeight(t *testing.T) {
	ctx, st := suite.New(t)

	chain := NewRedisHeight(st.Storage)

	t.Run("Missing height reads as zero", func(t *testing.T) {
		height, err := chain.CurrentHeight(ctx)

		require.NoError(t, err)
		assert.Zero(t, height)
	})

	t.Run("Init keeps an existing height", func(t *testing.T) {
		require.NoError(t, chain.Init(ctx, 100))
		require.NoError(t, chain.Init(ctx, 5))

		height, err := chain.CurrentHeight(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), height)
	})

	t.Run("Advance mines blocks", func(t *testing.T) {
		height, err := chain.Advance(ctx, 44)
		require.NoError(t, err)
		assert.Equal(t, uint64(144), height)

		current, err := chain.CurrentHeight(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(144), current)
	})
}
