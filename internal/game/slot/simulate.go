package slot

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// SimulationReport summarizes a batch of headless rounds.
type SimulationReport struct {
	Rounds      int
	Staked      decimal.Decimal
	Paid        decimal.Decimal
	WinRounds   int
	WinLines    int
	SymbolCount []int // draws per symbol, indexed by Symbol
}

// RTP returns the return-to-player ratio, paid / staked.
func (r SimulationReport) RTP() float64 {
	if r.Staked.IsZero() {
		return 0
	}
	return r.Paid.Div(r.Staked).InexactFloat64()
}

// HitFrequency returns the share of rounds with at least one winning line.
func (r SimulationReport) HitFrequency() float64 {
	if r.Rounds == 0 {
		return 0
	}
	return float64(r.WinRounds) / float64(r.Rounds)
}

// Simulate plays rounds spins of a rows x columns grid at a fixed stake
// without a balance. It stops early if ctx is cancelled.
func Simulate(ctx context.Context, gen *Generator, rows, columns, rounds int, stake decimal.Decimal) (SimulationReport, error) {
	if rounds <= 0 {
		return SimulationReport{}, fmt.Errorf("rounds must be positive, got %d", rounds)
	}
	if !stake.IsPositive() {
		return SimulationReport{}, fmt.Errorf("stake must be positive, got %s", stake)
	}

	t := gen.Table()
	rep := SimulationReport{
		Staked:      decimal.Zero,
		Paid:        decimal.Zero,
		SymbolCount: make([]int, t.Len()),
	}

	for i := 0; i < rounds; i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
		}

		grid, err := Build(gen, rows, columns)
		if err != nil {
			return rep, err
		}
		for _, s := range grid.cells {
			rep.SymbolCount[s]++
		}

		ev := Evaluate(t, grid, stake)
		rep.Rounds++
		rep.Staked = rep.Staked.Add(stake)
		rep.Paid = rep.Paid.Add(ev.Payout)
		if ev.Won() {
			rep.WinRounds++
			rep.WinLines += len(ev.Wins)
		}
	}

	return rep, nil
}
