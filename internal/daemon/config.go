// Package daemon owns configuration and process wiring for the splitflow
// settlement daemon.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/splitflow/splitflow/internal/domain"
)

// Config is the full daemon configuration, loaded from
// ~/.splitflow/config.toml (overridable via SPLITFLOW_CONFIG).
type Config struct {
	API        APIConfig        `toml:"api"`
	Allocation AllocationConfig `toml:"allocation"`
	Channels   ChannelsConfig   `toml:"channels"`
	Payout     PayoutConfig     `toml:"payout"`
	Store      StoreConfig      `toml:"store"`
	Redis      RedisConfig      `toml:"redis"`
	LogSink    LogSinkConfig    `toml:"logsink"`
}

// APIConfig controls the HTTP listener.
type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
}

// AllocationConfig holds the per-channel split in percent. The values need
// not sum to 100; unusable values fall back to the 50/30/20 default at
// allocation time.
type AllocationConfig struct {
	ReservePercent float64 `toml:"reserve_percent"`
	OnchainPercent float64 `toml:"onchain_percent"`
	ProfitPercent  float64 `toml:"profit_percent"`
}

// Weights converts the configured percents into allocation weights.
func (a AllocationConfig) Weights() domain.AllocationWeights {
	return domain.AllocationWeights{
		Reserve: a.ReservePercent,
		OnChain: a.OnchainPercent,
		Profit:  a.ProfitPercent,
	}
}

// ChannelsConfig gates and targets the onchain and fiat legs.
type ChannelsConfig struct {
	EnableOnchain    bool   `toml:"enable_onchain"`
	EnableFiatPayout bool   `toml:"enable_fiat_payout"`
	OnchainAddress   string `toml:"onchain_address"`

	// Fiat payout destination identifiers; precedence decides which wins
	// when several are set.
	AddressBookID         string   `toml:"address_book_id"`
	WalletID              string   `toml:"wallet_id"`
	Address               string   `toml:"address"`
	Chain                 string   `toml:"chain"`
	DestinationPrecedence []string `toml:"destination_precedence"`
}

// PayoutConfig points at the external rails and tunes polling.
type PayoutConfig struct {
	RailURL        string `toml:"rail_url"`
	OnchainRailURL string `toml:"onchain_rail_url"`
	APIKeyEnv      string `toml:"api_key_env"` // env var holding the rail secret
	PollIntervalMs int    `toml:"poll_interval_ms"`
	PollTimeoutMs  int    `toml:"poll_timeout_ms"`
}

// PollInterval returns the poll interval as a duration.
func (p PayoutConfig) PollInterval() time.Duration {
	return time.Duration(p.PollIntervalMs) * time.Millisecond
}

// PollTimeout returns the poll timeout as a duration.
func (p PayoutConfig) PollTimeout() time.Duration {
	return time.Duration(p.PollTimeoutMs) * time.Millisecond
}

// APIKey reads the rail secret from the configured env var.
func (p PayoutConfig) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

// StoreConfig locates the sqlite database.
type StoreConfig struct {
	Path string `toml:"path"`
}

// RedisConfig enables the shared idempotency guard. An empty Addr keeps the
// daemon on its local guard; set it whenever more than one instance runs.
type RedisConfig struct {
	Addr string `toml:"addr"`
	DB   int    `toml:"db"`
}

// LogSinkConfig points the fire-and-forget stage telemetry somewhere.
type LogSinkConfig struct {
	URL string `toml:"url"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    8470,
			Metrics: true,
		},
		Allocation: AllocationConfig{
			ReservePercent: 50,
			OnchainPercent: 30,
			ProfitPercent:  20,
		},
		Payout: PayoutConfig{
			APIKeyEnv:      "SPLITFLOW_RAIL_KEY",
			PollIntervalMs: 3000,
			PollTimeoutMs:  90000,
		},
		Store: StoreConfig{
			Path: filepath.Join(home(), ".splitflow", "splitflow.db"),
		},
	}
}

// ConfigPath returns the config file location.
func ConfigPath() string {
	if p := os.Getenv("SPLITFLOW_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(home(), ".splitflow", "config.toml")
}

// Load reads the config file, overlaying it on defaults. A missing file is
// not an error — the defaults run as-is.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func home() string {
	h, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return h
}
