package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slot-machine/internal/config"
	"slot-machine/internal/game/slot"
	"slot-machine/internal/model"
	"slot-machine/internal/repository"
	"slot-machine/internal/service"
)

// memoryStore is an in-memory service.AccountStore.
type memoryStore struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	entries  []model.Entry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{accounts: map[string]*model.Account{}}
}

func (m *memoryStore) GetByPlayer(_ context.Context, player string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[player]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	cp := *acc
	return &cp, nil
}

func (m *memoryStore) GetOrCreate(_ context.Context, player string, opening decimal.Decimal) (*model.Account, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[player]; ok {
		cp := *acc
		return &cp, false, nil
	}
	acc := &model.Account{ID: int64(len(m.accounts) + 1), Player: player, Balance: opening}
	m.accounts[player] = acc
	m.entries = append(m.entries, model.Entry{AccountID: acc.ID, Amount: opening, Type: model.EntryTypeOpening})
	cp := *acc
	return &cp, true, nil
}

func (m *memoryStore) Apply(_ context.Context, accountID int64, amount decimal.Decimal, entryType string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts {
		if acc.ID != accountID {
			continue
		}
		if acc.Balance.Add(amount).IsNegative() {
			return nil, repository.ErrInsufficientFunds
		}
		acc.Balance = acc.Balance.Add(amount)
		m.entries = append(m.entries, model.Entry{AccountID: accountID, Amount: amount, Type: entryType})
		cp := *acc
		return &cp, nil
	}
	return nil, repository.ErrAccountNotFound
}

func (m *memoryStore) Entries(_ context.Context, accountID int64, limit int) ([]*model.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Entry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.entries[i].AccountID == accountID {
			e := m.entries[i]
			out = append(out, &e)
		}
	}
	return out, nil
}

func (m *memoryStore) entryTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := []string{}
	for _, e := range m.entries {
		types = append(types, e.Type)
	}
	return types
}

func testConfig() *config.Config {
	return &config.Config{
		Game: config.GameConfig{
			MinStake:   10,
			MaxDeposit: 1000,
			Rows:       slot.DefaultRows,
			Columns:    slot.DefaultColumns,
			Seed:       7,
		},
		Wallet: config.WalletConfig{
			Enabled:     true,
			Player:      "tester",
			LockTimeout: time.Second,
			History:     5,
		},
	}
}

func newWallet(store service.AccountStore) *service.WalletService {
	return service.NewWalletService(store, nil, decimal.NewFromInt(1000), time.Second, zerolog.Nop())
}

func walletBalance(t *testing.T, store *memoryStore) decimal.Decimal {
	t.Helper()
	acc, err := store.GetByPlayer(context.Background(), "tester")
	require.NoError(t, err)
	return acc.Balance
}

func TestPlay_InvalidSessionConfigMovesNoMoney(t *testing.T) {
	tests := []struct {
		name  string
		patch func(*config.Config)
	}{
		{"zero min stake", func(c *config.Config) { c.Game.MinStake = 0 }},
		{"zero rows", func(c *config.Config) { c.Game.Rows = 0 }},
		{"negative columns", func(c *config.Config) { c.Game.Columns = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.patch(cfg)
			store := newMemoryStore()

			var out bytes.Buffer
			err := play(context.Background(), cfg, slot.DefaultSymbolTable(), strings.NewReader("100\n"), &out, newWallet(store))
			require.Error(t, err)

			assert.Empty(t, store.entryTypes(), "no wallet entry may be written")
			assert.NotContains(t, out.String(), "Please enter the amount")
		})
	}
}

func TestPlay_InputClosedCashesOutDeposit(t *testing.T) {
	store := newMemoryStore()

	var out bytes.Buffer
	err := play(context.Background(), testConfig(), slot.DefaultSymbolTable(), strings.NewReader("100\n"), &out, newWallet(store))
	require.NoError(t, err)

	assert.True(t, walletBalance(t, store).Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, []string{model.EntryTypeOpening, model.EntryTypeBuyIn, model.EntryTypeCashOut}, store.entryTypes())
	assert.Contains(t, out.String(), "Wallet of tester: 1000.00")
}

func TestPlay_WalletReceivesFinalBalance(t *testing.T) {
	store := newMemoryStore()

	// Stake the whole deposit once, then stdin closes.
	var out bytes.Buffer
	err := play(context.Background(), testConfig(), slot.DefaultSymbolTable(), strings.NewReader("100\n100\n"), &out, newWallet(store))
	require.NoError(t, err)

	text := out.String()
	idx := strings.LastIndex(text, "Current balance is: ")
	require.NotEqual(t, -1, idx, "a round must have been played")
	rest := text[idx+len("Current balance is: "):]
	final, err := decimal.NewFromString(strings.TrimSpace(strings.SplitN(rest, "\n", 2)[0]))
	require.NoError(t, err)

	assert.True(t, walletBalance(t, store).Equal(decimal.NewFromInt(900).Add(final)),
		"wallet %s, final session balance %s", walletBalance(t, store), final)
}

func TestPlay_TopUpAndHistory(t *testing.T) {
	store := newMemoryStore()
	cfg := testConfig()
	cfg.Wallet.TopUp = 250

	var out bytes.Buffer
	err := play(context.Background(), cfg, slot.DefaultSymbolTable(), strings.NewReader(""), &out, newWallet(store))
	require.NoError(t, err)

	assert.True(t, walletBalance(t, store).Equal(decimal.NewFromInt(1250)))
	assert.Contains(t, out.String(), model.EntryTypeTopUp)
	assert.Contains(t, out.String(), model.EntryTypeOpening)
	assert.Contains(t, out.String(), "Wallet of tester: 1250.00")
}

func TestPlay_WithoutWallet(t *testing.T) {
	cfg := testConfig()
	cfg.Wallet.Enabled = false

	var out bytes.Buffer
	err := play(context.Background(), cfg, slot.DefaultSymbolTable(), strings.NewReader("50\n"), &out, nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Welcome to the Slot Machine Game!")
	assert.NotContains(t, out.String(), "Wallet of")
}
