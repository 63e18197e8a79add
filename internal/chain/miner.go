package chain

import (
	"context"
	"log/slog"
	"time"
)

type advancer interface {
	Advance(ctx context.Context, n uint64) (uint64, error)
}

// Miner produces one block per interval.
type Miner struct {
	logger   *slog.Logger
	chain    advancer
	interval time.Duration
}

func NewMiner(logger *slog.Logger, chain advancer, interval time.Duration) *Miner {
	return &Miner{
		logger:   logger.With("component", "miner"),
		chain:    chain,
		interval: interval,
	}
}

// Run - blocks until ctx is done.
func (that *Miner) Run(ctx context.Context) {
	ticker := time.NewTicker(that.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			height, err := that.chain.Advance(ctx, 1)
			if err != nil {
				if ctx.Err() == nil {
					that.logger.Error("failed to mine block", "error", err)
				}
				continue
			}

			that.logger.Debug("block mined", "height", height)
		}
	}
}
