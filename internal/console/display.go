package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"slot-machine/internal/game/slot"
)

const (
	ansiReset = "\033[0m"
	ansiClear = "\033[H\033[2J"
)

var ansiColors = map[string]string{
	"black":   "\033[30m",
	"red":     "\033[31m",
	"green":   "\033[32m",
	"yellow":  "\033[33m",
	"blue":    "\033[34m",
	"magenta": "\033[35m",
	"cyan":    "\033[36m",
	"white":   "\033[37m",
}

// DisplayOptions controls how the console display renders.
type DisplayOptions struct {
	Emoji bool // Draw symbol glyphs instead of labels
	Color bool // Wrap symbols in ANSI colors
	Clear bool // Clear the screen before each grid
}

// Display renders grids and results as text.
type Display struct {
	out   io.Writer
	table *slot.SymbolTable
	opts  DisplayOptions
}

// NewDisplay creates a Display that writes to out.
func NewDisplay(out io.Writer, table *slot.SymbolTable, opts DisplayOptions) *Display {
	return &Display{out: out, table: table, opts: opts}
}

// ShowWelcome prints the banner shown when the program starts.
func (d *Display) ShowWelcome() {
	fmt.Fprintln(d.out, d.colorize("yellow", "Welcome to the Slot Machine Game!"))
	fmt.Fprintln(d.out)
}

// ShowGrid draws grid inside a box, one row per line.
func (d *Display) ShowGrid(grid slot.Grid) {
	if d.opts.Clear {
		fmt.Fprint(d.out, ansiClear)
	}

	cellWidth := 1
	if d.opts.Emoji {
		cellWidth = 2
	}
	border := strings.Repeat("─", grid.Columns()*(cellWidth+3)-1)

	var b strings.Builder
	b.WriteString("┌" + border + "┐\n")
	for r := 0; r < grid.Rows(); r++ {
		b.WriteString("│")
		for c := 0; c < grid.Columns(); c++ {
			b.WriteString(" " + d.cell(grid.At(r, c)) + " │")
		}
		b.WriteString("\n")
		if r < grid.Rows()-1 {
			b.WriteString("├" + border + "┤\n")
		}
	}
	b.WriteString("└" + border + "┘\n")

	fmt.Fprint(d.out, b.String())
}

// ShowRoundResult prints the round payout and the new balance.
func (d *Display) ShowRoundResult(payout, balance decimal.Decimal) {
	fmt.Fprintf(d.out, "\nYou have won: %s\n", payout.StringFixed(2))
	fmt.Fprintf(d.out, "Current balance is: %s\n\n", balance.StringFixed(2))
}

// ShowMessage prints text on its own line.
func (d *Display) ShowMessage(text string) {
	fmt.Fprintln(d.out, text)
}

func (d *Display) cell(s slot.Symbol) string {
	spec := d.table.Spec(s)
	text := string(spec.Label)
	if d.opts.Emoji && spec.Display != "" {
		text = spec.Display
	}
	return d.colorize(spec.Color, text)
}

func (d *Display) colorize(color, text string) string {
	code, ok := ansiColors[color]
	if !d.opts.Color || !ok {
		return text
	}
	return code + text + ansiReset
}
