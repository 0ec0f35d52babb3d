package slot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mustLine(t testing.TB, table *SymbolTable, labels string) Line {
	t.Helper()
	line, err := table.ParseLine(labels)
	require.NoError(t, err)
	return line
}

func TestIsWinningLine(t *testing.T) {
	table := DefaultSymbolTable()

	tests := []struct {
		line string
		want bool
	}{
		{"AAA", true},
		{"BBB", true},
		{"PPP", true},
		{"A*A", true},
		{"*A*", true},
		{"**P", true},
		{"AB*", false},
		{"ABP", false},
		{"AAB", false},
		{"***", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := IsWinningLine(table, mustLine(t, table, tt.line))
			if got != tt.want {
				t.Errorf("IsWinningLine(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestIsWinningLine_NoWildTable(t *testing.T) {
	table, err := NewSymbolTable(
		SymbolSpec{Label: 'X', Coefficient: decimal.NewFromInt(1), Probability: 0.5},
		SymbolSpec{Label: 'Y', Coefficient: decimal.NewFromInt(2), Probability: 0.5},
	)
	require.NoError(t, err)

	assert.True(t, IsWinningLine(table, mustLine(t, table, "XXX")))
	assert.False(t, IsWinningLine(table, mustLine(t, table, "XYX")))
}

func TestCalculateWin(t *testing.T) {
	table := DefaultSymbolTable()

	tests := []struct {
		line  string
		stake string
		want  string
	}{
		{"AAA", "1", "1.2"},
		{"AB*", "1", "1.0"},
		{"BBB", "1", "1.8"},
		{"PPP", "10", "24"},
		{"A*A", "10", "8"},
		{"***", "10", "0"},
		{"AAA", "10", "12"},
		{"AAA", "2.5", "3"},
	}

	for _, tt := range tests {
		t.Run(tt.line+"x"+tt.stake, func(t *testing.T) {
			got := CalculateWin(table, mustLine(t, table, tt.line), decimal.RequireFromString(tt.stake))
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("CalculateWin(%q, %s) = %s, want %s", tt.line, tt.stake, got, want)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	table := DefaultSymbolTable()
	grid, err := GridFromLines(
		mustLine(t, table, "AAA"),
		mustLine(t, table, "AB*"),
		mustLine(t, table, "P*P"),
		mustLine(t, table, "***"),
	)
	require.NoError(t, err)

	ev := Evaluate(table, grid, decimal.NewFromInt(10))

	require.True(t, ev.Won())
	require.Len(t, ev.Wins, 2)
	assert.Equal(t, 0, ev.Wins[0].Row)
	assert.Equal(t, 2, ev.Wins[1].Row)
	assert.True(t, ev.Wins[0].Payout.Equal(decimal.NewFromInt(12)))
	assert.True(t, ev.Wins[1].Payout.Equal(decimal.NewFromInt(16)))
	assert.True(t, ev.Payout.Equal(decimal.NewFromInt(28)), "payout = %s", ev.Payout)
}

func TestEvaluate_LastRowCounts(t *testing.T) {
	table := DefaultSymbolTable()
	grid, err := GridFromLines(
		mustLine(t, table, "AB*"),
		mustLine(t, table, "AB*"),
		mustLine(t, table, "AB*"),
		mustLine(t, table, "BBB"),
	)
	require.NoError(t, err)

	ev := Evaluate(table, grid, decimal.NewFromInt(1))
	require.Len(t, ev.Wins, 1)
	assert.Equal(t, 3, ev.Wins[0].Row)
}

func drawLine(t *rapid.T, table *SymbolTable, label string) Line {
	n := rapid.IntRange(0, 6).Draw(t, label+"_len")
	line := make(Line, n)
	for i := range line {
		line[i] = Symbol(rapid.IntRange(0, table.Len()-1).Draw(t, label))
	}
	return line
}

// TestWinningLineProperty tests Property 1: Winning Line.
// *For any* line over the default table:
// - the line wins iff its non-wild symbols form a set of exactly one element
// - an all-wild line never wins
func TestWinningLineProperty(t *testing.T) {
	table := DefaultSymbolTable()

	rapid.Check(t, func(t *rapid.T) {
		line := drawLine(t, table, "symbol")

		distinct := map[Symbol]bool{}
		for _, s := range line {
			if !table.IsWild(s) {
				distinct[s] = true
			}
		}
		want := len(distinct) == 1

		if got := IsWinningLine(table, line); got != want {
			t.Fatalf("IsWinningLine(%q) = %v, want %v", line.String(table), got, want)
		}
		// Pure: a second call agrees.
		if IsWinningLine(table, line) != want {
			t.Fatalf("IsWinningLine(%q) not stable", line.String(table))
		}
	})
}

// TestCalculateWinProperty tests Property 2: Line Payout.
// *For any* line and positive stake:
// - payout = stake * sum of the coefficients at every position
// - no rounding is applied
func TestCalculateWinProperty(t *testing.T) {
	table := DefaultSymbolTable()

	rapid.Check(t, func(t *rapid.T) {
		line := drawLine(t, table, "symbol")
		cents := rapid.Int64Range(1, 1_000_000).Draw(t, "stake_cents")
		stake := decimal.New(cents, -2)

		want := decimal.Zero
		for _, s := range line {
			want = want.Add(stake.Mul(table.Coefficient(s)))
		}

		got := CalculateWin(table, line, stake)
		if !got.Equal(want) {
			t.Fatalf("CalculateWin(%q, %s) = %s, want %s", line.String(table), stake, got, want)
		}
		if again := CalculateWin(table, line, stake); !again.Equal(got) {
			t.Fatalf("CalculateWin(%q, %s) not stable: %s then %s", line.String(table), stake, got, again)
		}
		if got.IsNegative() {
			t.Fatalf("CalculateWin(%q, %s) negative: %s", line.String(table), stake, got)
		}
	})
}
