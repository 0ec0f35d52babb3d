package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var migrations = []struct {
	name string
	sql  string
}{
	{"wallet_accounts table", `
		CREATE TABLE IF NOT EXISTS wallet_accounts (
			id BIGSERIAL PRIMARY KEY,
			player VARCHAR(255) NOT NULL UNIQUE,
			balance NUMERIC NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`},
	{"wallet_entries table", `
		CREATE TABLE IF NOT EXISTS wallet_entries (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL REFERENCES wallet_accounts(id) ON DELETE CASCADE,
			amount NUMERIC NOT NULL,
			type VARCHAR(50) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_wallet_entries_account ON wallet_entries(account_id, id DESC);
	`},
	// Session balances carry every digit of stake x coefficient; a fixed
	// scale would round them on cash-out.
	{"unscaled amounts", `
		ALTER TABLE wallet_accounts ALTER COLUMN balance TYPE NUMERIC;
		ALTER TABLE wallet_entries ALTER COLUMN amount TYPE NUMERIC;
	`},
}

// Migrate creates the wallet schema. It is safe to run repeatedly.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %d (%s): %w", i+1, m.name, err)
		}
		log.Info().Int("migration", i+1).Str("name", m.name).Msg("Migration applied")
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
