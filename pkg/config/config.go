// Package config provides configuration structures and loading logic
// for the KeeperCoin daemon.
package config

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the daemon configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
	Token   TokenConfig   `yaml:"token"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// StoreConfig selects the proposal store backend.
type StoreConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// LoggingConfig holds configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// TokenConfig seeds the genesis ledger and governance state.
type TokenConfig struct {
	Developer string `yaml:"developer"`
	Reserve   string `yaml:"reserve"`

	TreasuryAllocation  Amount `yaml:"treasury_allocation"`
	TreasuryQuorum      Amount `yaml:"treasury_quorum"`
	DeveloperAllocation Amount `yaml:"developer_allocation"`

	// Genesis balances credited outside the reserve.
	Genesis []GenesisBalance `yaml:"genesis"`
}

// GenesisBalance is one seeded account.
type GenesisBalance struct {
	Address string `yaml:"address"`
	Balance Amount `yaml:"balance"`
}

// Amount is a base-unit token amount, written in YAML as a decimal
// string.
type Amount struct {
	*big.Int
}

// UnmarshalYAML parses a decimal amount.
func (a *Amount) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, ok := new(big.Int).SetString(raw, 10)
	if !ok || parsed.Sign() < 0 {
		return fmt.Errorf("invalid token amount %q", raw)
	}
	a.Int = parsed
	return nil
}

// Load reads configuration from a file, applying defaults for missing
// sections. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Address: ":8547",
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Token: TokenConfig{
			Developer: "developer",
			Reserve:   "reserve",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Token.Developer == "" || c.Token.Reserve == "" {
		return fmt.Errorf("token.developer and token.reserve are required")
	}
	return nil
}

// amountOrZero returns the parsed amount, or zero when the field was
// absent from the file.
func amountOrZero(a Amount) *big.Int {
	if a.Int == nil {
		return big.NewInt(0)
	}
	return a.Int
}

// TreasuryAllocationOrZero returns the configured treasury allocation.
func (c *TokenConfig) TreasuryAllocationOrZero() *big.Int { return amountOrZero(c.TreasuryAllocation) }

// TreasuryQuorumOrZero returns the configured treasury quorum.
func (c *TokenConfig) TreasuryQuorumOrZero() *big.Int { return amountOrZero(c.TreasuryQuorum) }

// DeveloperAllocationOrZero returns the configured developer allocation.
func (c *TokenConfig) DeveloperAllocationOrZero() *big.Int { return amountOrZero(c.DeveloperAllocation) }

// ShutdownTimeout bounds graceful HTTP shutdown.
const ShutdownTimeout = 10 * time.Second
