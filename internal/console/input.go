// Package console provides terminal implementations of the game collaborators.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// MaxDecimalPlaces is the finest amount a player can type, in cents.
const MaxDecimalPlaces = 2

// Input errors
var (
	ErrInputFormat = errors.New("invalid input")
	ErrInputClosed = errors.New("input closed")
)

type lineResult struct {
	text string
	err  error
}

// LineReader reads lines from r on a background goroutine so reads can be
// abandoned when a context is cancelled. It is shared by every Input that
// reads from the same stream.
type LineReader struct {
	r     io.Reader
	once  sync.Once
	lines chan lineResult
}

// NewLineReader creates a LineReader over r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: r, lines: make(chan lineResult)}
}

func (lr *LineReader) start() {
	go func() {
		sc := bufio.NewScanner(lr.r)
		for sc.Scan() {
			lr.lines <- lineResult{text: sc.Text()}
		}
		err := sc.Err()
		if err == nil {
			err = io.EOF
		}
		// Deliver the terminal error to every later reader.
		for {
			lr.lines <- lineResult{err: err}
		}
	}()
}

// ReadLine returns the next line without its terminator.
func (lr *LineReader) ReadLine(ctx context.Context) (string, error) {
	lr.once.Do(lr.start)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-lr.lines:
		return res.text, res.err
	}
}

// Input prompts for amounts on a terminal and re-prompts until the entry is
// valid.
type Input struct {
	lines  *LineReader
	out    io.Writer
	prompt string
}

// NewInput creates an Input that writes prompt to out before every read.
func NewInput(lines *LineReader, out io.Writer, prompt string) *Input {
	return &Input{lines: lines, out: out, prompt: prompt}
}

// GetStake reads an amount in [min, max]. Only a closed stream or a
// cancelled context makes it return an error.
func (in *Input) GetStake(ctx context.Context, min, max decimal.Decimal) (decimal.Decimal, error) {
	for {
		fmt.Fprintf(in.out, "%s (%s - %s): ", in.prompt, min.StringFixed(2), max.StringFixed(2))

		text, err := in.lines.ReadLine(ctx)
		if err != nil {
			fmt.Fprintln(in.out)
			if errors.Is(err, io.EOF) {
				return decimal.Zero, ErrInputClosed
			}
			return decimal.Zero, err
		}

		amount, err := ParseAmount(text, min, max)
		if err != nil {
			fmt.Fprintf(in.out, "Error: %s. Please try again.\n", strings.TrimPrefix(err.Error(), ErrInputFormat.Error()+": "))
			continue
		}
		return amount, nil
	}
}

// ParseAmount validates text as a positive, finite amount in [min, max] with
// at most MaxDecimalPlaces decimals. Every rejection wraps ErrInputFormat.
func ParseAmount(text string, min, max decimal.Decimal) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, fmt.Errorf("%w: input cannot be empty", ErrInputFormat)
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		var numErr *strconv.NumError
		if !errors.As(err, &numErr) || !errors.Is(numErr.Err, strconv.ErrRange) {
			return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInputFormat, text)
		}
	}
	if math.IsNaN(f) {
		return decimal.Zero, fmt.Errorf("%w: input must be a valid number", ErrInputFormat)
	}
	if math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: input cannot be infinity", ErrInputFormat)
	}

	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInputFormat, text)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: input must be a positive number", ErrInputFormat)
	}
	if !amount.Equal(amount.Truncate(MaxDecimalPlaces)) {
		return decimal.Zero, fmt.Errorf("%w: input can have at most %d decimal places", ErrInputFormat, MaxDecimalPlaces)
	}
	if amount.LessThan(min) || amount.GreaterThan(max) {
		return decimal.Zero, fmt.Errorf("%w: input must be between %s and %s", ErrInputFormat, min.StringFixed(2), max.StringFixed(2))
	}

	return amount, nil
}
