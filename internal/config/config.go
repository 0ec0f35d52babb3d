// Package config provides configuration management using viper.
// It supports loading from YAML files, environment variable overrides and
// command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"slot-machine/internal/game/session"
	"slot-machine/internal/game/slot"
)

// EnvPrefix is prepended to every environment override, e.g. SLOTS_GAME_MIN_STAKE.
const EnvPrefix = "SLOTS"

// Config holds all application configuration.
type Config struct {
	Game     GameConfig     `mapstructure:"game"`
	Display  DisplayConfig  `mapstructure:"display"`
	Audio    AudioConfig    `mapstructure:"audio"`
	Log      LogConfig      `mapstructure:"log"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Database DatabaseConfig `mapstructure:"database"`
	Simulate SimulateConfig `mapstructure:"simulate"`
}

// GameConfig holds the machine parameters.
type GameConfig struct {
	MinStake   float64        `mapstructure:"min_stake"`
	MaxDeposit float64        `mapstructure:"max_deposit"`
	Rows       int            `mapstructure:"rows"`
	Columns    int            `mapstructure:"columns"`
	SpinFrames int            `mapstructure:"spin_frames"`
	FrameDelay time.Duration  `mapstructure:"frame_delay"`
	Seed       uint64         `mapstructure:"seed"`
	Symbols    []SymbolConfig `mapstructure:"symbols"`
}

// SymbolConfig declares one symbol. Order in the list is draw order.
type SymbolConfig struct {
	Label       string  `mapstructure:"label"`
	Name        string  `mapstructure:"name"`
	Display     string  `mapstructure:"display"`
	Color       string  `mapstructure:"color"`
	Coefficient string  `mapstructure:"coefficient"`
	Probability float64 `mapstructure:"probability"`
	Wild        bool    `mapstructure:"wild"`
}

// DisplayConfig holds console rendering options.
type DisplayConfig struct {
	Emoji bool `mapstructure:"emoji"`
	Color bool `mapstructure:"color"`
	Clear bool `mapstructure:"clear"`
}

// AudioConfig toggles the terminal bell.
type AudioConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// WalletConfig holds the persistent bankroll configuration.
type WalletConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Player         string        `mapstructure:"player"`
	OpeningBalance float64       `mapstructure:"opening_balance"`
	LockTimeout    time.Duration `mapstructure:"lock_timeout"`
	TopUp          float64       `mapstructure:"top_up"`  // added to the wallet before the session
	History        int           `mapstructure:"history"` // recent entries shown when the wallet opens
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// SimulateConfig holds the headless simulation mode settings.
type SimulateConfig struct {
	Rounds int     `mapstructure:"rounds"`
	Stake  float64 `mapstructure:"stake"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Flags returns the command-line flags understood by Load.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("slots", pflag.ContinueOnError)
	fs.String("config", "", "directory containing config.yaml")
	fs.Float64("min-stake", 0, "minimum stake per round")
	fs.Uint64("seed", 0, "random seed (0 = random)")
	fs.Int("spin-frames", 0, "number of spin animation frames")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.Bool("wallet", false, "keep the bankroll in PostgreSQL between sessions")
	fs.String("player", "", "wallet player name")
	fs.Float64("top-up", 0, "add funds to the wallet before playing")
	fs.Int("simulate", 0, "play N headless rounds and print the return to player")
	fs.Float64("stake", 0, "stake used by --simulate")
	return fs
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"min-stake":   "game.min_stake",
	"seed":        "game.seed",
	"spin-frames": "game.spin_frames",
	"log-level":   "log.level",
	"wallet":      "wallet.enabled",
	"player":      "wallet.player",
	"top-up":      "wallet.top_up",
	"simulate":    "simulate.rounds",
	"stake":       "simulate.stake",
}

// Load reads configuration from file, environment variables and flags.
// It looks for config.yaml in configPath, the working directory and ./config.
// Only flags that were set on the command line override other sources.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// e.g., SLOTS_GAME_MIN_STAKE, SLOTS_DATABASE_HOST
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	// Read config file (optional - defaults describe the classic machine)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Game defaults
	v.SetDefault("game.min_stake", 10)
	v.SetDefault("game.max_deposit", 1_000_000)
	v.SetDefault("game.rows", slot.DefaultRows)
	v.SetDefault("game.columns", slot.DefaultColumns)
	v.SetDefault("game.spin_frames", session.DefaultSpinFrames)
	v.SetDefault("game.frame_delay", session.DefaultFrameDelay.String())
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.symbols", defaultSymbols())

	// Console defaults
	v.SetDefault("display.emoji", true)
	v.SetDefault("display.color", true)
	v.SetDefault("display.clear", true)
	v.SetDefault("audio.enabled", true)
	v.SetDefault("log.level", "warn")

	// Wallet defaults
	v.SetDefault("wallet.enabled", false)
	v.SetDefault("wallet.player", "player")
	v.SetDefault("wallet.opening_balance", 1000)
	v.SetDefault("wallet.lock_timeout", "5s")
	v.SetDefault("wallet.top_up", 0)
	v.SetDefault("wallet.history", 5)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "slots")
	v.SetDefault("database.name", "slots")
	v.SetDefault("database.pool_size", 4)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Simulation defaults
	v.SetDefault("simulate.rounds", 0)
	v.SetDefault("simulate.stake", 10)
}

func defaultSymbols() []map[string]any {
	specs := slot.DefaultSymbols()
	out := make([]map[string]any, len(specs))
	for i, s := range specs {
		out[i] = map[string]any{
			"label":       string(s.Label),
			"name":        s.Name,
			"display":     s.Display,
			"color":       s.Color,
			"coefficient": s.Coefficient.String(),
			"probability": s.Probability,
			"wild":        s.Wild,
		}
	}
	return out
}

// SymbolTable builds and validates the configured symbol table.
// Errors wrap slot.ErrConfiguration.
func (c *Config) SymbolTable() (*slot.SymbolTable, error) {
	specs := make([]slot.SymbolSpec, 0, len(c.Game.Symbols))
	for i, s := range c.Game.Symbols {
		label := []rune(s.Label)
		if len(label) != 1 {
			return nil, fmt.Errorf("%w: symbol %d label %q must be a single character", slot.ErrConfiguration, i, s.Label)
		}

		coef := decimal.Zero
		if s.Coefficient != "" {
			var err error
			coef, err = decimal.NewFromString(s.Coefficient)
			if err != nil {
				return nil, fmt.Errorf("%w: symbol %q coefficient %q: %v", slot.ErrConfiguration, s.Label, s.Coefficient, err)
			}
		}

		specs = append(specs, slot.SymbolSpec{
			Label:       label[0],
			Name:        s.Name,
			Display:     s.Display,
			Color:       s.Color,
			Coefficient: coef,
			Probability: s.Probability,
			Wild:        s.Wild,
		})
	}
	return slot.NewSymbolTable(specs...)
}

// Session returns the session engine configuration.
func (c *Config) Session() session.Config {
	return session.Config{
		MinStake:   decimal.NewFromFloat(c.Game.MinStake),
		Rows:       c.Game.Rows,
		Columns:    c.Game.Columns,
		SpinFrames: c.Game.SpinFrames,
		FrameDelay: c.Game.FrameDelay,
	}
}
