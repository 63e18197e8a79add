package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
)

var ErrEscrowDepleted = errors.New("escrow holds less than the requested amount")

// Memory keeps balances and the escrow pot in process memory.
type Memory struct {
	mu       sync.Mutex
	balances map[string]uint64
	escrow   uint64
}

func NewMemory() *Memory {
	return &Memory{
		balances: make(map[string]uint64),
	}
}

func (that *Memory) Deposit(_ context.Context, principal string, amount uint64) (uint64, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.balances[principal] += amount

	return that.balances[principal], nil
}

func (that *Memory) Balance(_ context.Context, principal string) (uint64, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.balances[principal], nil
}

// Debit - moves amount from the principal into escrow.
func (that *Memory) Debit(_ context.Context, principal string, amount uint64) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.balances[principal] < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", apperror.ErrInsufficientFunds, principal, that.balances[principal], amount)
	}

	that.balances[principal] -= amount
	that.escrow += amount

	return nil
}

// Credit - releases amount from escrow to the principal.
func (that *Memory) Credit(_ context.Context, principal string, amount uint64) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.escrow < amount {
		return fmt.Errorf("%w: holds %d, requested %d", ErrEscrowDepleted, that.escrow, amount)
	}

	that.escrow -= amount
	that.balances[principal] += amount

	return nil
}

func (that *Memory) Escrow(_ context.Context) (uint64, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.escrow, nil
}
