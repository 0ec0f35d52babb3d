package slot

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// RandomSource produces uniform values in [0,1).
// *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	Float64() float64
}

// NewRandomSource returns a PCG-backed source.
// A zero seed draws the seed from the operating system.
func NewRandomSource(seed uint64) *rand.Rand {
	if seed == 0 {
		var b [8]byte
		if _, err := crand.Read(b[:]); err == nil {
			seed = binary.LittleEndian.Uint64(b[:])
		} else {
			seed = rand.Uint64()
		}
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generator draws symbols according to a table's probability distribution.
// It is not safe for concurrent use.
type Generator struct {
	table *SymbolTable
	src   RandomSource
}

// NewGenerator creates a Generator over table using src.
func NewGenerator(table *SymbolTable, src RandomSource) *Generator {
	return &Generator{table: table, src: src}
}

// Table returns the generator's symbol table.
func (g *Generator) Table() *SymbolTable {
	return g.table
}

// Draw returns one symbol using inverse-CDF sampling.
//
// The unit interval is partitioned into segments whose lengths are the
// symbol probabilities, laid out in declaration order. The first symbol whose
// cumulative probability reaches the drawn value wins. Symbols with zero
// probability are never drawn. Slack left by floating-point rounding below 1
// goes to the last symbol with non-zero probability.
func (g *Generator) Draw() Symbol {
	r := g.src.Float64()
	var c float64
	for i, s := range g.table.specs {
		if s.Probability == 0 {
			continue
		}
		c += s.Probability
		if r <= c {
			return Symbol(i)
		}
	}
	return g.table.tail
}
