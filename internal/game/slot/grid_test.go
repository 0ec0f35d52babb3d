package slot

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	table := DefaultSymbolTable()
	// Row-major: A A A / B B B / P P P / * * *
	src := &fixedSource{values: []float64{
		0.1, 0.1, 0.1,
		0.5, 0.5, 0.5,
		0.9, 0.9, 0.9,
		0.99, 0.99, 0.99,
	}}

	grid, err := Build(NewGenerator(table, src), DefaultRows, DefaultColumns)
	require.NoError(t, err)

	assert.Equal(t, 4, grid.Rows())
	assert.Equal(t, 3, grid.Columns())
	assert.Equal(t, "AAA\nBBB\nPPP\n***", grid.String(table))
	assert.Equal(t, 'P', table.Label(grid.At(2, 1)))
	assert.Len(t, grid.Lines(), 4)
	assert.Equal(t, 12, src.next, "one draw per cell")
}

func TestBuild_InvalidDimension(t *testing.T) {
	gen := NewGenerator(DefaultSymbolTable(), NewRandomSource(1))

	tests := []struct {
		name          string
		rows, columns int
	}{
		{"zero rows", 0, 3},
		{"zero columns", 4, 0},
		{"negative rows", -1, 3},
		{"negative columns", 4, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(gen, tt.rows, tt.columns)
			assert.ErrorIs(t, err, ErrInvalidDimension)
		})
	}
}

func TestGrid_RowIsCopy(t *testing.T) {
	table := DefaultSymbolTable()
	grid, err := GridFromLines(mustLine(t, table, "AAA"), mustLine(t, table, "BBB"))
	require.NoError(t, err)

	row := grid.Row(0)
	row[0] = 2
	assert.Equal(t, "AAA", grid.Row(0).String(table))
}

func TestGridFromLines_Ragged(t *testing.T) {
	table := DefaultSymbolTable()
	_, err := GridFromLines(mustLine(t, table, "AAA"), mustLine(t, table, "BB"))
	assert.ErrorIs(t, err, ErrInvalidDimension)

	_, err = GridFromLines()
	assert.ErrorIs(t, err, ErrInvalidDimension)
}

func TestGrid_AtOutOfRangePanics(t *testing.T) {
	table := DefaultSymbolTable()
	grid, err := GridFromLines(mustLine(t, table, "AAA"))
	require.NoError(t, err)

	assert.Panics(t, func() { grid.At(1, 0) })
	assert.Panics(t, func() { grid.Row(-1) })
}

func TestSimulate(t *testing.T) {
	table := DefaultSymbolTable()
	// Every cell is 'A': each of the 4 rows pays 1.2 * stake.
	gen := NewGenerator(table, &fixedSource{values: []float64{0.1}})

	rep, err := Simulate(context.Background(), gen, 4, 3, 10, decimal.NewFromInt(1))
	require.NoError(t, err)

	assert.Equal(t, 10, rep.Rounds)
	assert.Equal(t, 10, rep.WinRounds)
	assert.Equal(t, 40, rep.WinLines)
	assert.True(t, rep.Staked.Equal(decimal.NewFromInt(10)))
	assert.True(t, rep.Paid.Equal(decimal.NewFromInt(48)))
	assert.InDelta(t, 4.8, rep.RTP(), 1e-12)
	assert.InDelta(t, 1.0, rep.HitFrequency(), 1e-12)
	assert.Equal(t, 120, rep.SymbolCount[0])
}

func TestSimulate_InvalidArgs(t *testing.T) {
	gen := NewGenerator(DefaultSymbolTable(), NewRandomSource(1))

	_, err := Simulate(context.Background(), gen, 4, 3, 0, decimal.NewFromInt(1))
	assert.Error(t, err)

	_, err = Simulate(context.Background(), gen, 4, 3, 10, decimal.Zero)
	assert.Error(t, err)

	_, err = Simulate(context.Background(), gen, 0, 3, 10, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrInvalidDimension)
}

func TestSimulate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := NewGenerator(DefaultSymbolTable(), NewRandomSource(1))
	_, err := Simulate(ctx, gen, 4, 3, 10, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, context.Canceled)
}
