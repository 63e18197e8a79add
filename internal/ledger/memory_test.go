package ledger

import (
	"context"
	"testing"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("Debit moves funds into escrow", func(t *testing.T) {
		// Given: alice deposits 300
		ledger := NewMemory()
		balance, err := ledger.Deposit(ctx, "alice", 300)
		require.NoError(t, err)
		require.Equal(t, uint64(300), balance)

		// When: 100 is debited
		err = ledger.Debit(ctx, "alice", 100)
		require.NoError(t, err)

		// Then: the balance drops and escrow holds the stake
		balance, err = ledger.Balance(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, uint64(200), balance)

		held, err := ledger.Escrow(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), held)
	})

	t.Run("Debit beyond the balance fails without change", func(t *testing.T) {
		// Given: bob has 50
		ledger := NewMemory()
		_, err := ledger.Deposit(ctx, "bob", 50)
		require.NoError(t, err)

		// When: 100 is debited
		err = ledger.Debit(ctx, "bob", 100)

		// Then: ErrInsufficientFunds is returned and nothing moved
		require.ErrorIs(t, err, apperror.ErrInsufficientFunds)

		balance, _ := ledger.Balance(ctx, "bob")
		held, _ := ledger.Escrow(ctx)
		assert.Equal(t, uint64(50), balance)
		assert.Zero(t, held)
	})

	t.Run("Credit releases escrow to the recipient", func(t *testing.T) {
		// Given: two stakes in escrow
		ledger := NewMemory()
		_, _ = ledger.Deposit(ctx, "alice", 100)
		_, _ = ledger.Deposit(ctx, "bob", 100)
		require.NoError(t, ledger.Debit(ctx, "alice", 100))
		require.NoError(t, ledger.Debit(ctx, "bob", 100))

		// When: the pot is credited to alice
		err := ledger.Credit(ctx, "alice", 200)
		require.NoError(t, err)

		// Then: alice holds everything
		balance, _ := ledger.Balance(ctx, "alice")
		held, _ := ledger.Escrow(ctx)
		assert.Equal(t, uint64(200), balance)
		assert.Zero(t, held)
	})

	t.Run("Credit beyond escrow fails", func(t *testing.T) {
		ledger := NewMemory()

		err := ledger.Credit(ctx, "alice", 1)

		require.ErrorIs(t, err, ErrEscrowDepleted)
	})
}
