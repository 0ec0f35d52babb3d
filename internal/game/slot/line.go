package slot

import "github.com/shopspring/decimal"

// IsWinningLine reports whether all non-wild positions of line hold the same
// symbol. Wild positions are ignored. A line with no non-wild symbol, such as
// an all-wild line, does not win.
func IsWinningLine(t *SymbolTable, line Line) bool {
	var (
		first Symbol
		found bool
	)
	for _, s := range line {
		if t.IsWild(s) {
			continue
		}
		if !found {
			first, found = s, true
			continue
		}
		if s != first {
			return false
		}
	}
	return found
}

// CalculateWin returns stake multiplied by the sum of the coefficients of
// every position in line. It does not check whether the line wins and does
// not round.
func CalculateWin(t *SymbolTable, line Line, stake decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range line {
		sum = sum.Add(t.Coefficient(s))
	}
	return stake.Mul(sum)
}

// LineWin describes one winning row.
type LineWin struct {
	Row    int
	Line   Line
	Payout decimal.Decimal
}

// Evaluation is the outcome of evaluating every row of a grid.
type Evaluation struct {
	Wins   []LineWin
	Payout decimal.Decimal
}

// Won reports whether at least one line won.
func (e Evaluation) Won() bool {
	return len(e.Wins) > 0
}

// Evaluate checks every row of grid and sums the payouts of winning rows.
func Evaluate(t *SymbolTable, grid Grid, stake decimal.Decimal) Evaluation {
	ev := Evaluation{Payout: decimal.Zero}
	for r, line := range grid.Lines() {
		if !IsWinningLine(t, line) {
			continue
		}
		win := CalculateWin(t, line, stake)
		ev.Wins = append(ev.Wins, LineWin{Row: r, Line: line, Payout: win})
		ev.Payout = ev.Payout.Add(win)
	}
	return ev
}
