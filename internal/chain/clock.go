package chain

import (
	"context"
	"sync"
)

// ManualClock is a block height advanced by hand.
type ManualClock struct {
	mu     sync.Mutex
	height uint64
}

func NewManualClock(start uint64) *ManualClock {
	return &ManualClock{height: start}
}

func (that *ManualClock) CurrentHeight(_ context.Context) (uint64, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.height, nil
}

// Advance - mines n blocks and returns the new height.
func (that *ManualClock) Advance(_ context.Context, n uint64) (uint64, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.height += n

	return that.height, nil
}
