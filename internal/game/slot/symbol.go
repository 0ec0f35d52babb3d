// Package slot implements the slot machine engine: the symbol table, weighted
// symbol generation, grid construction and line evaluation.
package slot

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ProbabilityTolerance is the allowed deviation of the probability sum from 1.
const ProbabilityTolerance = 1e-9

// Errors for the slot engine
var (
	ErrConfiguration    = errors.New("invalid symbol table configuration")
	ErrInvalidDimension = errors.New("grid dimensions must be positive")
	ErrUnknownSymbol    = errors.New("unknown symbol")
)

// Symbol identifies one declared symbol of a SymbolTable.
// Its value is the declaration index.
type Symbol uint8

// SymbolSpec holds the attributes of a single symbol.
type SymbolSpec struct {
	Label       rune            // Single-character identity (e.g. 'A', '*')
	Name        string          // Human-readable name
	Display     string          // Glyph shown on the console
	Color       string          // ANSI color name used by the console display
	Coefficient decimal.Decimal // Payout multiplier, summed across a line
	Probability float64         // Draw probability
	Wild        bool            // Wild symbols never win alone
}

// SymbolTable maps every declared symbol to its spec.
// It is immutable once constructed.
type SymbolTable struct {
	specs   []SymbolSpec
	wild    Symbol
	hasWild bool
	tail    Symbol // last symbol with non-zero probability
}

// NewSymbolTable validates specs and builds a table that preserves their order.
// Declaration order is the order used by Generator.Draw.
func NewSymbolTable(specs ...SymbolSpec) (*SymbolTable, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no symbols declared", ErrConfiguration)
	}
	if len(specs) > math.MaxUint8+1 {
		return nil, fmt.Errorf("%w: too many symbols (%d)", ErrConfiguration, len(specs))
	}

	t := &SymbolTable{specs: make([]SymbolSpec, len(specs))}
	seen := make(map[rune]bool, len(specs))
	var sum float64

	for i, s := range specs {
		if seen[s.Label] {
			return nil, fmt.Errorf("%w: duplicate symbol %q", ErrConfiguration, s.Label)
		}
		seen[s.Label] = true

		if s.Coefficient.IsNegative() {
			return nil, fmt.Errorf("%w: symbol %q has negative coefficient %s", ErrConfiguration, s.Label, s.Coefficient)
		}
		if math.IsNaN(s.Probability) || s.Probability < 0 || s.Probability > 1 {
			return nil, fmt.Errorf("%w: symbol %q has probability %v outside [0,1]", ErrConfiguration, s.Label, s.Probability)
		}
		if s.Wild {
			if t.hasWild {
				return nil, fmt.Errorf("%w: more than one wild symbol", ErrConfiguration)
			}
			t.wild = Symbol(i)
			t.hasWild = true
		}

		if s.Probability > 0 {
			t.tail = Symbol(i)
		}
		sum += s.Probability
		t.specs[i] = s
	}

	if math.Abs(sum-1) > ProbabilityTolerance {
		return nil, fmt.Errorf("%w: probabilities sum to %v, want 1", ErrConfiguration, sum)
	}

	return t, nil
}

// DefaultSymbolTable returns the classic four-symbol table.
func DefaultSymbolTable() *SymbolTable {
	t, err := NewSymbolTable(DefaultSymbols()...)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultSymbols returns the specs of the classic table in declaration order.
func DefaultSymbols() []SymbolSpec {
	return []SymbolSpec{
		{Label: 'A', Name: "Apple", Display: "🍎", Color: "red", Coefficient: decimal.RequireFromString("0.4"), Probability: 0.45},
		{Label: 'B', Name: "Banana", Display: "🍌", Color: "yellow", Coefficient: decimal.RequireFromString("0.6"), Probability: 0.35},
		{Label: 'P', Name: "Pineapple", Display: "🍍", Color: "green", Coefficient: decimal.RequireFromString("0.8"), Probability: 0.15},
		{Label: '*', Name: "Star", Display: "⭐", Color: "white", Coefficient: decimal.Zero, Probability: 0.05, Wild: true},
	}
}

// Len returns the number of declared symbols.
func (t *SymbolTable) Len() int {
	return len(t.specs)
}

// Symbols returns every symbol in declaration order.
func (t *SymbolTable) Symbols() []Symbol {
	out := make([]Symbol, len(t.specs))
	for i := range t.specs {
		out[i] = Symbol(i)
	}
	return out
}

// Spec returns the spec of s. It panics if s was not declared by t.
func (t *SymbolTable) Spec(s Symbol) SymbolSpec {
	return t.specs[s]
}

// Coefficient returns the payout coefficient of s.
func (t *SymbolTable) Coefficient(s Symbol) decimal.Decimal {
	return t.specs[s].Coefficient
}

// Probability returns the draw probability of s.
func (t *SymbolTable) Probability(s Symbol) float64 {
	return t.specs[s].Probability
}

// Label returns the single-character identity of s.
func (t *SymbolTable) Label(s Symbol) rune {
	return t.specs[s].Label
}

// Wild returns the wild symbol, if the table declares one.
func (t *SymbolTable) Wild() (Symbol, bool) {
	return t.wild, t.hasWild
}

// IsWild reports whether s is the table's wild symbol.
func (t *SymbolTable) IsWild(s Symbol) bool {
	return t.hasWild && s == t.wild
}

// Lookup finds a symbol by its label.
func (t *SymbolTable) Lookup(label rune) (Symbol, bool) {
	for i, s := range t.specs {
		if s.Label == label {
			return Symbol(i), true
		}
	}
	return 0, false
}

// ParseLine converts a label string such as "AB*" into a Line.
func (t *SymbolTable) ParseLine(labels string) (Line, error) {
	line := make(Line, 0, len(labels))
	for _, r := range labels {
		s, ok := t.Lookup(r)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSymbol, r)
		}
		line = append(line, s)
	}
	return line, nil
}
