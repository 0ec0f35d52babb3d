// Package main is the entry point for the console slot machine.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"slot-machine/internal/config"
	"slot-machine/internal/console"
	"slot-machine/internal/game"
	"slot-machine/internal/game/session"
	"slot-machine/internal/game/slot"
	"slot-machine/internal/model"
	"slot-machine/internal/pkg/db"
	"slot-machine/internal/pkg/lock"
	"slot-machine/internal/repository"
	"slot-machine/internal/service"
)

const (
	depositPrompt = "Please enter the amount of money you would like to play with"
	stakePrompt   = "Enter the amount you want to stake"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("Failed to parse flags")
	}
	configPath, _ := flags.GetString("config")

	// Load configuration
	cfg, err := config.Load(configPath, flags)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatal().Err(err).Str("level", cfg.Log.Level).Msg("Invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	table, err := cfg.SymbolTable()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid symbol configuration")
	}

	log.Info().Int("symbols", table.Len()).Msg("Configuration loaded successfully")

	// Cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Simulate.Rounds > 0 {
		if err := simulate(ctx, cfg, table); err != nil {
			log.Fatal().Err(err).Msg("Simulation failed")
		}
		return
	}

	var wallet *service.WalletService
	if cfg.Wallet.Enabled {
		pool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to wallet database")
		}
		defer pool.Close()

		if err := repository.Migrate(ctx, pool.Pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}

		wallet = service.NewWalletService(
			repository.NewWalletRepository(pool.Pool),
			lock.New[string](),
			decimal.NewFromFloat(cfg.Wallet.OpeningBalance),
			cfg.Wallet.LockTimeout,
			log.Logger,
		)
	}

	if err := play(ctx, cfg, table, os.Stdin, os.Stdout, wallet); err != nil {
		log.Fatal().Err(err).Msg("Session failed")
	}
}

// simulate plays headless rounds and prints the observed return to player.
func simulate(ctx context.Context, cfg *config.Config, table *slot.SymbolTable) error {
	gen := slot.NewGenerator(table, slot.NewRandomSource(cfg.Game.Seed))
	stake := decimal.NewFromFloat(cfg.Simulate.Stake)

	start := time.Now()
	report, err := slot.Simulate(ctx, gen, cfg.Game.Rows, cfg.Game.Columns, cfg.Simulate.Rounds, stake)
	if err != nil {
		return err
	}

	log.Info().
		Int("rounds", report.Rounds).
		Dur("elapsed", time.Since(start)).
		Msg("Simulation finished")

	fmt.Printf("Rounds:        %d\n", report.Rounds)
	fmt.Printf("Staked:        %s\n", report.Staked.StringFixed(2))
	fmt.Printf("Paid:          %s\n", report.Paid.StringFixed(2))
	fmt.Printf("RTP:           %.4f\n", report.RTP())
	fmt.Printf("Hit frequency: %.4f\n", report.HitFrequency())
	fmt.Printf("Winning lines: %d\n", report.WinLines)
	for _, s := range table.Symbols() {
		fmt.Printf("  %c %-10s %d\n", table.Label(s), table.Spec(s).Name, report.SymbolCount[s])
	}
	return nil
}

// play runs one interactive session reading from in and drawing to out.
// With a wallet the deposit is bought in from it and the final balance
// cashed back out, even when the session ends early.
func play(ctx context.Context, cfg *config.Config, table *slot.SymbolTable, in io.Reader, out io.Writer, wallet *service.WalletService) error {
	lines := console.NewLineReader(in)
	display := console.NewDisplay(out, table, console.DisplayOptions{
		Emoji: cfg.Display.Emoji,
		Color: cfg.Display.Color,
		Clear: cfg.Display.Clear,
	})

	var audio game.Audio = game.NopAudio{}
	if cfg.Audio.Enabled {
		audio = console.NewBell(out)
	}

	// Built before any money leaves the wallet.
	engine, err := session.New(
		cfg.Session(),
		console.NewInput(lines, out, stakePrompt),
		display,
		audio,
		session.WithLogger(log.Logger),
		session.WithSymbolTable(table),
		session.WithRandomSource(slot.NewRandomSource(cfg.Game.Seed)),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	display.ShowWelcome()

	maxDeposit := decimal.NewFromFloat(cfg.Game.MaxDeposit)
	if wallet != nil {
		acc, err := openWallet(ctx, cfg, wallet, display)
		if err != nil {
			return err
		}
		if !acc.Balance.IsPositive() {
			display.ShowMessage("Your wallet is empty.")
			return nil
		}
		maxDeposit = decimal.Min(maxDeposit, acc.Balance)
	}

	deposit, err := console.NewInput(lines, out, depositPrompt).GetStake(ctx, decimal.Zero, maxDeposit)
	if err != nil {
		if isQuit(err) {
			return nil
		}
		return fmt.Errorf("read deposit: %w", err)
	}

	var summary session.Summary
	run := func(ctx context.Context) (decimal.Decimal, error) {
		var err error
		summary, err = engine.Run(ctx, deposit)
		return summary.Balance, err
	}

	var runErr error
	if wallet != nil {
		acc, err := wallet.Fund(ctx, cfg.Wallet.Player, deposit, run)
		if acc != nil {
			display.ShowMessage(fmt.Sprintf("Wallet of %s: %s", acc.Player, acc.Balance.StringFixed(2)))
		}
		runErr = err
	} else {
		_, runErr = run(ctx)
	}

	log.Info().
		Str("deposit", summary.Deposit.String()).
		Str("balance", summary.Balance.String()).
		Int("rounds", summary.Rounds).
		Int("wins", summary.Wins).
		Str("staked", summary.TotalStaked.String()).
		Str("paid", summary.TotalPaid.String()).
		Msg("Session ended")

	if runErr != nil && !isQuit(runErr) {
		return runErr
	}
	return nil
}

// openWallet opens the player's wallet, applies a configured top-up and
// shows the most recent entries.
func openWallet(ctx context.Context, cfg *config.Config, wallet *service.WalletService, display game.Display) (*model.Account, error) {
	acc, err := wallet.Open(ctx, cfg.Wallet.Player)
	if err != nil {
		return nil, err
	}

	if cfg.Wallet.TopUp > 0 {
		acc, err = wallet.TopUp(ctx, cfg.Wallet.Player, decimal.NewFromFloat(cfg.Wallet.TopUp))
		if err != nil {
			return nil, fmt.Errorf("top up: %w", err)
		}
	}

	entries, err := wallet.History(ctx, cfg.Wallet.Player, cfg.Wallet.History)
	if err != nil {
		return nil, fmt.Errorf("wallet history: %w", err)
	}
	for _, e := range entries {
		display.ShowMessage(fmt.Sprintf("  %-8s %10s  %s", e.Type, e.Amount.StringFixed(2), e.CreatedAt.Format(time.DateTime)))
	}

	display.ShowMessage(fmt.Sprintf("Wallet of %s: %s", acc.Player, acc.Balance.StringFixed(2)))
	return acc, nil
}

// isQuit reports whether err means the player left: stdin closed or the
// process was interrupted.
func isQuit(err error) bool {
	return errors.Is(err, console.ErrInputClosed) || errors.Is(err, context.Canceled)
}
