package console

import (
	"io"
	"strings"
)

// Bell plays outcome cues with the terminal bell.
type Bell struct {
	out io.Writer
}

// NewBell creates a Bell that rings on out.
func NewBell(out io.Writer) *Bell {
	return &Bell{out: out}
}

func (b *Bell) ring(n int) {
	_, _ = io.WriteString(b.out, strings.Repeat("\a", n))
}

// OnRoundWin rings twice.
func (b *Bell) OnRoundWin() { b.ring(2) }

// OnRoundLose rings once.
func (b *Bell) OnRoundLose() { b.ring(1) }

// OnGameOver rings three times.
func (b *Bell) OnGameOver() { b.ring(3) }
