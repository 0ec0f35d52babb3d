// Package session runs a slot machine session: it takes stakes, spins the
// grid, evaluates every row and settles the balance until the player can no
// longer afford the minimum stake.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"slot-machine/internal/game"
	"slot-machine/internal/game/slot"
)

const (
	// DefaultSpinFrames is the number of cosmetic frames shown before a grid settles
	DefaultSpinFrames = 10

	// DefaultFrameDelay is the pause between spin frames
	DefaultFrameDelay = 200 * time.Millisecond
)

// DefaultMinStake is the smallest stake accepted by default.
var DefaultMinStake = decimal.NewFromInt(10)

// Errors for the session engine
var (
	ErrInvalidStake   = errors.New("invalid stake")
	ErrInvalidDeposit = errors.New("deposit must be positive")
	ErrGameOver       = errors.New("game over")
	ErrAlreadyStarted = errors.New("session already started")
	ErrNotStarted     = errors.New("session not started")
)

// State is a step of the session state machine.
type State int

// Session states. A round walks AwaitingStake → Spinning → Evaluating →
// RoundComplete and returns to AwaitingStake, or ends in GameOver.
const (
	AwaitingStake State = iota
	Spinning
	Evaluating
	RoundComplete
	GameOver
)

func (s State) String() string {
	switch s {
	case AwaitingStake:
		return "awaiting_stake"
	case Spinning:
		return "spinning"
	case Evaluating:
		return "evaluating"
	case RoundComplete:
		return "round_complete"
	case GameOver:
		return "game_over"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds the fixed parameters of a session.
type Config struct {
	MinStake   decimal.Decimal
	Rows       int
	Columns    int
	SpinFrames int
	FrameDelay time.Duration
}

// DefaultConfig returns the classic 4x3 machine with a minimum stake of 10.
func DefaultConfig() Config {
	return Config{
		MinStake:   DefaultMinStake,
		Rows:       slot.DefaultRows,
		Columns:    slot.DefaultColumns,
		SpinFrames: DefaultSpinFrames,
		FrameDelay: DefaultFrameDelay,
	}
}

// Summary describes a session so far.
type Summary struct {
	Deposit     decimal.Decimal
	Balance     decimal.Decimal
	Rounds      int
	Wins        int
	TotalStaked decimal.Decimal
	TotalPaid   decimal.Decimal
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSymbolTable replaces the default symbol table.
func WithSymbolTable(t *slot.SymbolTable) Option {
	return func(e *Engine) { e.table = t }
}

// WithRandomSource sets the source that decides settled grids.
func WithRandomSource(src slot.RandomSource) Option {
	return func(e *Engine) { e.src = src }
}

// WithFrameSource sets the source used for cosmetic spin frames.
func WithFrameSource(src slot.RandomSource) Option {
	return func(e *Engine) { e.frameSrc = src }
}

// Engine drives a single session. It is not safe for concurrent use.
type Engine struct {
	cfg     Config
	table   *slot.SymbolTable
	gen     *slot.Generator
	frames  *slot.Generator
	input   game.Input
	display game.Display
	audio   game.Audio
	logger  zerolog.Logger

	src      slot.RandomSource
	frameSrc slot.RandomSource

	state   State
	started bool
	balance decimal.Decimal
	summary Summary
}

// New creates an Engine. A nil audio is replaced by game.NopAudio.
func New(cfg Config, input game.Input, display game.Display, audio game.Audio, opts ...Option) (*Engine, error) {
	if input == nil || display == nil {
		return nil, errors.New("session: input and display are required")
	}
	if cfg.Rows <= 0 || cfg.Columns <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", slot.ErrInvalidDimension, cfg.Rows, cfg.Columns)
	}
	if !cfg.MinStake.IsPositive() {
		return nil, fmt.Errorf("session: minimum stake must be positive, got %s", cfg.MinStake)
	}
	if cfg.SpinFrames < 0 {
		cfg.SpinFrames = 0
	}
	if audio == nil {
		audio = game.NopAudio{}
	}

	e := &Engine{
		cfg:     cfg,
		input:   input,
		display: display,
		audio:   audio,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.table == nil {
		e.table = slot.DefaultSymbolTable()
	}
	if e.src == nil {
		e.src = slot.NewRandomSource(0)
	}
	if e.frameSrc == nil {
		e.frameSrc = slot.NewRandomSource(0)
	}
	e.gen = slot.NewGenerator(e.table, e.src)
	e.frames = slot.NewGenerator(e.table, e.frameSrc)

	return e, nil
}

// Table returns the engine's symbol table.
func (e *Engine) Table() *slot.SymbolTable {
	return e.table
}

// State returns the current state.
func (e *Engine) State() State {
	return e.state
}

// Balance returns the current balance.
func (e *Engine) Balance() decimal.Decimal {
	return e.balance
}

// Summary returns totals for the session so far.
func (e *Engine) Summary() Summary {
	s := e.summary
	s.Balance = e.balance
	return s
}

// Start seeds the session balance with deposit. If the deposit cannot cover
// the minimum stake the session goes straight to GameOver.
func (e *Engine) Start(deposit decimal.Decimal) error {
	if e.started {
		return ErrAlreadyStarted
	}
	if !deposit.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidDeposit, deposit)
	}

	e.started = true
	e.balance = deposit
	e.summary = Summary{
		Deposit:     deposit,
		TotalStaked: decimal.Zero,
		TotalPaid:   decimal.Zero,
	}
	e.state = AwaitingStake

	e.logger.Info().
		Str("deposit", deposit.String()).
		Str("min_stake", e.cfg.MinStake.String()).
		Msg("Session started")

	e.checkGameOver()
	return nil
}

// Run starts the session with deposit and plays rounds until GameOver.
//
// Invalid stakes are reported through the display and prompted again without
// touching the balance. An input error ends the session early; it is
// returned together with the summary at that point.
func (e *Engine) Run(ctx context.Context, deposit decimal.Decimal) (Summary, error) {
	if err := e.Start(deposit); err != nil {
		return e.Summary(), err
	}

	for e.state != GameOver {
		stake, err := e.input.GetStake(ctx, e.cfg.MinStake, e.balance)
		if err != nil {
			e.logger.Warn().Err(err).Msg("Stake input ended the session")
			return e.Summary(), fmt.Errorf("read stake: %w", err)
		}

		if _, err := e.PlayRound(ctx, stake); err != nil {
			if errors.Is(err, ErrInvalidStake) {
				e.display.ShowMessage(fmt.Sprintf("Invalid stake amount %s. Please try again.", stake.StringFixed(2)))
				continue
			}
			return e.Summary(), err
		}
	}

	return e.Summary(), nil
}

// ValidateStake checks that stake lies in [MinStake, balance].
func (e *Engine) ValidateStake(stake decimal.Decimal) error {
	if stake.LessThan(e.cfg.MinStake) {
		return fmt.Errorf("%w: %s is below the minimum of %s", ErrInvalidStake, stake, e.cfg.MinStake)
	}
	if stake.GreaterThan(e.balance) {
		return fmt.Errorf("%w: %s exceeds the balance of %s", ErrInvalidStake, stake, e.balance)
	}
	return nil
}

// PlayRound plays one round at stake and settles it:
// balance = balance - stake + payout.
//
// An invalid stake returns ErrInvalidStake and changes nothing. If ctx is
// cancelled during the spin animation the round is abandoned unsettled.
func (e *Engine) PlayRound(ctx context.Context, stake decimal.Decimal) (game.RoundResult, error) {
	if !e.started {
		return game.RoundResult{}, ErrNotStarted
	}
	if e.state == GameOver {
		return game.RoundResult{}, ErrGameOver
	}
	if err := e.ValidateStake(stake); err != nil {
		return game.RoundResult{}, err
	}

	e.state = Spinning
	if err := e.animate(ctx); err != nil {
		e.state = AwaitingStake
		return game.RoundResult{}, err
	}
	grid, err := slot.Build(e.gen, e.cfg.Rows, e.cfg.Columns)
	if err != nil {
		// Dimensions were validated in New.
		panic(err)
	}
	e.display.ShowGrid(grid)

	e.state = Evaluating
	ev := slot.Evaluate(e.table, grid, stake)

	e.state = RoundComplete
	e.balance = e.balance.Sub(stake).Add(ev.Payout)
	e.summary.Rounds++
	e.summary.TotalStaked = e.summary.TotalStaked.Add(stake)
	e.summary.TotalPaid = e.summary.TotalPaid.Add(ev.Payout)

	result := game.RoundResult{
		Round:   e.summary.Rounds,
		Stake:   stake,
		Grid:    grid,
		Wins:    ev.Wins,
		Payout:  ev.Payout,
		Balance: e.balance,
	}
	if result.Won() {
		e.summary.Wins++
	}

	e.logger.Debug().
		Int("round", result.Round).
		Str("stake", stake.String()).
		Int("winning_lines", len(ev.Wins)).
		Str("payout", ev.Payout.String()).
		Str("balance", e.balance.String()).
		Msg("Round settled")

	e.display.ShowRoundResult(ev.Payout, e.balance)
	if result.Won() {
		e.audio.OnRoundWin()
	} else {
		e.audio.OnRoundLose()
	}

	e.state = AwaitingStake
	e.checkGameOver()
	return result, nil
}

// checkGameOver moves to GameOver once the balance cannot cover MinStake.
func (e *Engine) checkGameOver() {
	if e.state == GameOver || !e.balance.LessThan(e.cfg.MinStake) {
		return
	}

	e.state = GameOver
	e.logger.Info().
		Int("rounds", e.summary.Rounds).
		Str("balance", e.balance.String()).
		Msg("Session over")

	e.audio.OnGameOver()
	e.display.ShowMessage(fmt.Sprintf("Game Over!! Final balance: %s", e.balance.StringFixed(2)))
}

// animate shows cosmetic frames drawn from the frame generator. The settled
// grid never depends on how many frames were shown.
func (e *Engine) animate(ctx context.Context) error {
	if e.cfg.SpinFrames == 0 {
		return nil
	}

	var tick *time.Ticker
	if e.cfg.FrameDelay > 0 {
		tick = time.NewTicker(e.cfg.FrameDelay)
		defer tick.Stop()
	}

	for i := 0; i < e.cfg.SpinFrames; i++ {
		frame, err := slot.Build(e.frames, e.cfg.Rows, e.cfg.Columns)
		if err != nil {
			panic(err)
		}
		e.display.ShowGrid(frame)

		if tick == nil {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
	return nil
}
