package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
)

var ErrAmountTooLarge = errors.New("amount does not fit into a ledger entry")

const schema = `
CREATE TABLE IF NOT EXISTS wallets (
	principal TEXT PRIMARY KEY,
	balance   BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
	version   BIGINT NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS escrow (
	id      SMALLINT PRIMARY KEY,
	balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0)
);

INSERT INTO escrow(id, balance) VALUES (1, 0) ON CONFLICT (id) DO NOTHING;

CREATE TABLE IF NOT EXISTS wallet_ledger (
	id         UUID PRIMARY KEY,
	principal  TEXT NOT NULL,
	operation  TEXT NOT NULL,
	amount     BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const (
	operationDeposit = "DEPOSIT"
	operationDebit   = "DEBIT"
	operationCredit  = "CREDIT"
)

// Postgres keeps wallets and the escrow pot in PostgreSQL. Every change is journaled in wallet_ledger.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate - creates the ledger tables when they are missing.
func (that *Postgres) Migrate(ctx context.Context) error {
	if _, err := that.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate ledger schema: %w", err)
	}

	return nil
}

func (that *Postgres) Deposit(ctx context.Context, principal string, amount uint64) (uint64, error) {
	value, err := toCents(amount)
	if err != nil {
		return 0, err
	}

	var balance uint64

	err = that.inTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO wallets(principal, balance) VALUES($1, $2)
			ON CONFLICT (principal) DO UPDATE
			SET balance = wallets.balance + EXCLUDED.balance, version = wallets.version + 1
			RETURNING balance`, principal, value).Scan(&balance); err != nil {
			return fmt.Errorf("failed to update wallet: %w", err)
		}

		return journal(ctx, tx, principal, operationDeposit, value)
	})
	if err != nil {
		return 0, err
	}

	return balance, nil
}

func (that *Postgres) Balance(ctx context.Context, principal string) (uint64, error) {
	var balance uint64

	err := that.db.QueryRowContext(ctx, `SELECT balance FROM wallets WHERE principal=$1`, principal).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	return balance, nil
}

// Debit - moves amount from the principal wallet into escrow.
func (that *Postgres) Debit(ctx context.Context, principal string, amount uint64) error {
	value, err := toCents(amount)
	if err != nil {
		return err
	}

	return that.inTx(ctx, func(tx *sql.Tx) error {
		var balance int64

		err := tx.QueryRowContext(ctx, `SELECT balance FROM wallets WHERE principal=$1 FOR UPDATE`, principal).Scan(&balance)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to lock wallet: %w", err)
		}

		if balance < value {
			return fmt.Errorf("%w: %s has %d, needs %d", apperror.ErrInsufficientFunds, principal, balance, value)
		}

		if _, err = tx.ExecContext(ctx, `UPDATE wallets SET balance = balance - $1, version = version + 1 WHERE principal=$2`, value, principal); err != nil {
			return fmt.Errorf("failed to debit wallet: %w", err)
		}

		if _, err = tx.ExecContext(ctx, `UPDATE escrow SET balance = balance + $1 WHERE id=1`, value); err != nil {
			return fmt.Errorf("failed to fund escrow: %w", err)
		}

		return journal(ctx, tx, principal, operationDebit, value)
	})
}

// Credit - releases amount from escrow to the principal wallet.
func (that *Postgres) Credit(ctx context.Context, principal string, amount uint64) error {
	value, err := toCents(amount)
	if err != nil {
		return err
	}

	return that.inTx(ctx, func(tx *sql.Tx) error {
		var held int64
		if err := tx.QueryRowContext(ctx, `SELECT balance FROM escrow WHERE id=1 FOR UPDATE`).Scan(&held); err != nil {
			return fmt.Errorf("failed to lock escrow: %w", err)
		}

		if held < value {
			return fmt.Errorf("%w: holds %d, requested %d", ErrEscrowDepleted, held, value)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE escrow SET balance = balance - $1 WHERE id=1`, value); err != nil {
			return fmt.Errorf("failed to release escrow: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO wallets(principal, balance) VALUES($1, $2)
			ON CONFLICT (principal) DO UPDATE
			SET balance = wallets.balance + EXCLUDED.balance, version = wallets.version + 1`, principal, value); err != nil {
			return fmt.Errorf("failed to credit wallet: %w", err)
		}

		return journal(ctx, tx, principal, operationCredit, value)
	})
}

func (that *Postgres) Escrow(ctx context.Context) (uint64, error) {
	var held uint64
	if err := that.db.QueryRowContext(ctx, `SELECT balance FROM escrow WHERE id=1`).Scan(&held); err != nil {
		return 0, fmt.Errorf("failed to get escrow balance: %w", err)
	}

	return held, nil
}

func (that *Postgres) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := that.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint: errcheck // no-op after commit

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func journal(ctx context.Context, tx *sql.Tx, principal, operation string, amount int64) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallet_ledger(id, principal, operation, amount) VALUES($1, $2, $3, $4)`,
		uuid.NewString(), principal, operation, amount); err != nil {
		return fmt.Errorf("failed to journal %s: %w", operation, err)
	}

	return nil
}

func toCents(amount uint64) (int64, error) {
	if amount > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d", ErrAmountTooLarge, amount)
	}

	return int64(amount), nil
}
