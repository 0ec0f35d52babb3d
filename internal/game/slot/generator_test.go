package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// fixedSource replays values in order, wrapping around.
type fixedSource struct {
	values []float64
	next   int
}

func (f *fixedSource) Float64() float64 {
	v := f.values[f.next%len(f.values)]
	f.next++
	return v
}

func TestDraw_Boundaries(t *testing.T) {
	table := DefaultSymbolTable()

	// Cumulative segments in declared order: A ≤0.45, B ≤0.80, P ≤0.95, * ≤1.
	tests := []struct {
		r    float64
		want rune
	}{
		{0, 'A'},
		{0.2, 'A'},
		{0.45, 'A'},
		{0.4500001, 'B'},
		{0.79, 'B'},
		{0.81, 'P'},
		{0.94, 'P'},
		{0.96, '*'},
		{0.9999999, '*'},
	}

	for _, tt := range tests {
		gen := NewGenerator(table, &fixedSource{values: []float64{tt.r}})
		got := table.Label(gen.Draw())
		if got != tt.want {
			t.Errorf("Draw() with r=%v = %q, want %q", tt.r, got, tt.want)
		}
	}
}

func TestDraw_SkipsZeroProbability(t *testing.T) {
	table, err := NewSymbolTable(
		SymbolSpec{Label: 'Z', Probability: 0},
		SymbolSpec{Label: 'A', Probability: 0.5},
		SymbolSpec{Label: 'B', Probability: 0.5},
		SymbolSpec{Label: 'N', Probability: 0},
	)
	assert.NoError(t, err)

	gen := NewGenerator(table, &fixedSource{values: []float64{0, 0.99999999999}})
	assert.Equal(t, 'A', table.Label(gen.Draw()))
	assert.Equal(t, 'B', table.Label(gen.Draw()))
}

// TestDraw_Distribution compares empirical frequencies with the declared
// probabilities using a chi-squared goodness-of-fit test.
func TestDraw_Distribution(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping distribution test in short mode")
	}

	const n = 200_000
	// Chi-squared critical value for 3 degrees of freedom at p = 0.001.
	const critical = 16.266

	table := DefaultSymbolTable()
	gen := NewGenerator(table, NewRandomSource(20240611))

	counts := make([]int, table.Len())
	for i := 0; i < n; i++ {
		counts[gen.Draw()]++
	}

	var chi2 float64
	for _, s := range table.Symbols() {
		expected := float64(n) * table.Probability(s)
		diff := float64(counts[s]) - expected
		chi2 += diff * diff / expected
	}

	t.Logf("counts=%v chi2=%.3f", counts, chi2)
	assert.Less(t, chi2, critical)
}

func TestNewRandomSource_Reproducible(t *testing.T) {
	a := NewRandomSource(7)
	b := NewRandomSource(7)
	for i := 0; i < 16; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

// TestDrawInRangeProperty tests Property 3: Draw Range.
// *For any* uniform value r in [0,1):
// - Draw returns a declared symbol
// - the symbol has non-zero probability
func TestDrawInRangeProperty(t *testing.T) {
	table := DefaultSymbolTable()

	rapid.Check(t, func(t *rapid.T) {
		r := rapid.Float64Range(0, 0.9999999999).Draw(t, "r")
		s := NewGenerator(table, &fixedSource{values: []float64{r}}).Draw()
		if int(s) >= table.Len() {
			t.Fatalf("Draw() with r=%v returned undeclared symbol %d", r, s)
		}
		if table.Probability(s) == 0 {
			t.Fatalf("Draw() with r=%v returned zero-probability symbol %q", r, table.Label(s))
		}
	})
}
