// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"slot-machine/internal/model"
)

// Common errors for repository operations.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Amounts travel as text so NUMERIC keeps its exact value on both sides.
const accountColumns = `id, player, balance::text, created_at, updated_at`

// WalletRepository handles wallet account persistence.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository instance.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var (
		acc     model.Account
		balance string
	)
	if err := row.Scan(&acc.ID, &acc.Player, &balance, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
		return nil, err
	}
	b, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance %q: %w", balance, err)
	}
	acc.Balance = b
	return &acc, nil
}

// GetByPlayer retrieves an account by player name.
// Returns ErrAccountNotFound if the account does not exist.
func (r *WalletRepository) GetByPlayer(ctx context.Context, player string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM wallet_accounts WHERE player = $1`

	acc, err := scanAccount(r.pool.QueryRow(ctx, query, player))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

// GetOrCreate retrieves the account of player, creating it with opening
// funds if it doesn't exist. The boolean reports whether it was created.
func (r *WalletRepository) GetOrCreate(ctx context.Context, player string, opening decimal.Decimal) (*model.Account, bool, error) {
	acc, err := r.GetByPlayer(ctx, player)
	if err == nil {
		return acc, false, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, false, err
	}

	var created *model.Account
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO wallet_accounts (player, balance, created_at, updated_at)
			VALUES ($1, $2::numeric, NOW(), NOW())
			ON CONFLICT (player) DO NOTHING
			RETURNING ` + accountColumns

		acc, err := scanAccount(tx.QueryRow(ctx, query, player, opening.String()))
		if err != nil {
			return err
		}
		if err := insertEntry(ctx, tx, acc.ID, opening, model.EntryTypeOpening); err != nil {
			return err
		}
		created = acc
		return nil
	})
	if err != nil {
		// Another process created the account first.
		if errors.Is(err, pgx.ErrNoRows) {
			acc, err := r.GetByPlayer(ctx, player)
			return acc, false, err
		}
		return nil, false, fmt.Errorf("failed to create account: %w", err)
	}

	return created, true, nil
}

// Apply adds amount (which may be negative) to the account balance and
// records an entry of entryType, atomically. A change that would make the
// balance negative returns ErrInsufficientFunds and changes nothing.
func (r *WalletRepository) Apply(ctx context.Context, accountID int64, amount decimal.Decimal, entryType string) (*model.Account, error) {
	var updated *model.Account
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			UPDATE wallet_accounts
			SET balance = balance + $2::numeric, updated_at = NOW()
			WHERE id = $1 AND balance + $2::numeric >= 0
			RETURNING ` + accountColumns

		acc, err := scanAccount(tx.QueryRow(ctx, query, accountID, amount.String()))
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM wallet_accounts WHERE id = $1)`, accountID).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return ErrInsufficientFunds
			}
			return ErrAccountNotFound
		}

		if err := insertEntry(ctx, tx, accountID, amount, entryType); err != nil {
			return err
		}
		updated = acc
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to apply %s: %w", entryType, err)
	}

	return updated, nil
}

func insertEntry(ctx context.Context, tx pgx.Tx, accountID int64, amount decimal.Decimal, entryType string) error {
	const query = `
		INSERT INTO wallet_entries (account_id, amount, type, created_at)
		VALUES ($1, $2::numeric, $3, NOW())
	`
	if _, err := tx.Exec(ctx, query, accountID, amount.String(), entryType); err != nil {
		return fmt.Errorf("failed to record %s entry: %w", entryType, err)
	}
	return nil
}

// Entries retrieves the most recent entries of an account, newest first.
func (r *WalletRepository) Entries(ctx context.Context, accountID int64, limit int) ([]*model.Entry, error) {
	const query = `
		SELECT id, account_id, amount::text, type, created_at
		FROM wallet_entries
		WHERE account_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.Entry
	for rows.Next() {
		var (
			e      model.Entry
			amount string
		)
		if err := rows.Scan(&e.ID, &e.AccountID, &amount, &e.Type, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("failed to parse entry amount %q: %w", amount, err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}

	return entries, nil
}
