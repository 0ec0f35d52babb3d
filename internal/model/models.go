// Package model defines the data models for the slot machine wallet.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a player's bankroll kept between sessions.
type Account struct {
	ID        int64           `db:"id"`
	Player    string          `db:"player"`
	Balance   decimal.Decimal `db:"balance"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Entry is a single movement of funds in or out of an account.
// Rounds are settled inside the session and never produce entries.
type Entry struct {
	ID        int64           `db:"id"`
	AccountID int64           `db:"account_id"`
	Amount    decimal.Decimal `db:"amount"`
	Type      string          `db:"type"`
	CreatedAt time.Time       `db:"created_at"`
}

// Entry types for categorizing balance changes.
const (
	EntryTypeOpening = "opening"  // Opening balance on account creation
	EntryTypeBuyIn   = "buy_in"   // Session deposit taken from the wallet
	EntryTypeCashOut = "cash_out" // Session balance returned to the wallet
	EntryTypeTopUp   = "top_up"   // Funds added outside a session
)
