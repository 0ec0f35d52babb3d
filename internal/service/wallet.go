// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"slot-machine/internal/model"
	"slot-machine/internal/pkg/lock"
	"slot-machine/internal/repository"
)

// Wallet-related errors.
var (
	ErrInsufficientFunds = repository.ErrInsufficientFunds
	ErrInvalidAmount     = errors.New("invalid amount: must be positive")
	ErrInvalidPlayer     = errors.New("player name cannot be empty")
)

// AccountStore persists wallet accounts. *repository.WalletRepository
// implements it.
type AccountStore interface {
	GetByPlayer(ctx context.Context, player string) (*model.Account, error)
	GetOrCreate(ctx context.Context, player string, opening decimal.Decimal) (*model.Account, bool, error)
	Apply(ctx context.Context, accountID int64, amount decimal.Decimal, entryType string) (*model.Account, error)
	Entries(ctx context.Context, accountID int64, limit int) ([]*model.Entry, error)
}

// CashOutTimeout bounds the cash-out that ends a funded session. It runs
// even after the session context is cancelled.
const CashOutTimeout = 10 * time.Second

// WalletService moves funds between a player's wallet and a game session.
// Operations on the same player are serialized.
type WalletService struct {
	store       AccountStore
	locks       *lock.KeyedLock[string]
	opening     decimal.Decimal
	lockTimeout time.Duration
	logger      zerolog.Logger
}

// NewWalletService creates a new WalletService. New accounts start with
// opening funds.
func NewWalletService(store AccountStore, locks *lock.KeyedLock[string], opening decimal.Decimal, lockTimeout time.Duration, logger zerolog.Logger) *WalletService {
	if locks == nil {
		locks = lock.New[string]()
	}
	return &WalletService{
		store:       store,
		locks:       locks,
		opening:     opening,
		lockTimeout: lockTimeout,
		logger:      logger,
	}
}

func normalizePlayer(player string) (string, error) {
	player = strings.TrimSpace(player)
	if player == "" {
		return "", ErrInvalidPlayer
	}
	return player, nil
}

// Open returns the player's account, creating it with the opening balance
// on first use.
func (s *WalletService) Open(ctx context.Context, player string) (*model.Account, error) {
	player, err := normalizePlayer(player)
	if err != nil {
		return nil, err
	}

	var acc *model.Account
	err = s.locks.WithLockContext(ctx, player, s.lockTimeout, func() error {
		var created bool
		acc, created, err = s.store.GetOrCreate(ctx, player, s.opening)
		if err != nil {
			return fmt.Errorf("failed to open wallet: %w", err)
		}
		if created {
			s.logger.Info().
				Str("player", player).
				Str("opening_balance", s.opening.String()).
				Msg("Wallet created")
		}
		return nil
	})
	return acc, err
}

// BuyIn takes amount out of the player's wallet to fund a session.
func (s *WalletService) BuyIn(ctx context.Context, player string, amount decimal.Decimal) (*model.Account, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return s.apply(ctx, player, amount.Neg(), model.EntryTypeBuyIn)
}

// CashOut returns amount, the balance left at the end of a session, to the
// player's wallet. A zero amount records nothing.
func (s *WalletService) CashOut(ctx context.Context, player string, amount decimal.Decimal) (*model.Account, error) {
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if amount.IsZero() {
		player, err := normalizePlayer(player)
		if err != nil {
			return nil, err
		}
		return s.store.GetByPlayer(ctx, player)
	}
	return s.apply(ctx, player, amount, model.EntryTypeCashOut)
}

// TopUp adds funds to the player's wallet outside a session.
func (s *WalletService) TopUp(ctx context.Context, player string, amount decimal.Decimal) (*model.Account, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return s.apply(ctx, player, amount, model.EntryTypeTopUp)
}

// Fund buys deposit in from the player's wallet, runs play and cashes out
// the balance play reports, whether or not play failed. play is never called
// if the buy-in fails. The returned account reflects the cash-out; the error
// is play's error joined with any cash-out failure.
func (s *WalletService) Fund(ctx context.Context, player string, deposit decimal.Decimal, play func(context.Context) (decimal.Decimal, error)) (*model.Account, error) {
	if _, err := s.BuyIn(ctx, player, deposit); err != nil {
		return nil, fmt.Errorf("buy in: %w", err)
	}

	balance, playErr := play(ctx)
	if balance.IsNegative() {
		balance = decimal.Zero
	}

	cashCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), CashOutTimeout)
	defer cancel()

	acc, err := s.CashOut(cashCtx, player, balance)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("player", player).
			Str("balance", balance.String()).
			Msg("Cash-out failed")
		return nil, errors.Join(playErr, fmt.Errorf("cash out %s: %w", balance, err))
	}
	return acc, playErr
}

// History returns up to limit of the player's most recent wallet entries,
// newest first.
func (s *WalletService) History(ctx context.Context, player string, limit int) ([]*model.Entry, error) {
	player, err := normalizePlayer(player)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	acc, err := s.store.GetByPlayer(ctx, player)
	if err != nil {
		return nil, err
	}
	return s.store.Entries(ctx, acc.ID, limit)
}

func (s *WalletService) apply(ctx context.Context, player string, amount decimal.Decimal, entryType string) (*model.Account, error) {
	player, err := normalizePlayer(player)
	if err != nil {
		return nil, err
	}

	var acc *model.Account
	err = s.locks.WithLockContext(ctx, player, s.lockTimeout, func() error {
		current, err := s.store.GetByPlayer(ctx, player)
		if err != nil {
			return err
		}
		if current.Balance.Add(amount).IsNegative() {
			return ErrInsufficientFunds
		}

		acc, err = s.store.Apply(ctx, current.ID, amount, entryType)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("player", player).
		Str("type", entryType).
		Str("amount", amount.String()).
		Str("balance", acc.Balance.String()).
		Msg("Wallet updated")

	return acc, nil
}
