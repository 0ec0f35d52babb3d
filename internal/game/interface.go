// Package game defines the collaborators the session engine talks to:
// where stakes come from, where grids and results go, and which audio cues
// fire at the end of a round.
package game

import (
	"context"

	"github.com/shopspring/decimal"

	"slot-machine/internal/game/slot"
)

// Input supplies amounts typed by the player.
type Input interface {
	// GetStake blocks until the player enters an amount in [min, max].
	// Implementations reject malformed or non-positive text themselves and
	// keep prompting. An error means no amount will ever arrive (closed
	// input, cancelled context) and ends the session.
	GetStake(ctx context.Context, min, max decimal.Decimal) (decimal.Decimal, error)
}

// Display renders engine output. Calls are fire-and-forget.
type Display interface {
	// ShowGrid draws a grid. It is called for every spin frame and for the
	// settled grid of a round.
	ShowGrid(grid slot.Grid)

	// ShowRoundResult reports the payout of a round and the new balance.
	ShowRoundResult(payout, balance decimal.Decimal)

	// ShowMessage shows free-form text such as validation errors.
	ShowMessage(text string)
}

// Audio receives outcome cues. It never influences the engine.
type Audio interface {
	OnRoundWin()
	OnRoundLose()
	OnGameOver()
}

// NopAudio is an Audio that does nothing.
type NopAudio struct{}

func (NopAudio) OnRoundWin()  {}
func (NopAudio) OnRoundLose() {}
func (NopAudio) OnGameOver()  {}

// RoundResult represents the outcome of one settled round.
type RoundResult struct {
	Round   int             // 1-based round number within the session
	Stake   decimal.Decimal // Amount wagered
	Grid    slot.Grid       // Settled grid
	Wins    []slot.LineWin  // Winning rows
	Payout  decimal.Decimal // Sum of winning line payouts
	Balance decimal.Decimal // Balance after settlement
}

// Won reports whether the round paid anything.
func (r RoundResult) Won() bool {
	return r.Payout.IsPositive()
}
