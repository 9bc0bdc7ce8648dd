package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the on-disk configuration for the relay/swap demo binary:
// connection parameters plus overrides for the tunables in this package.
// Grounded on the teacher's node.Config/LoadConfig/Save shape.
type AppConfig struct {
	// Storage is where the swap-record SQLite database lives.
	Storage AppStorageConfig `yaml:"storage"`

	// Chain holds the EVM RPC endpoint and deployed contract addresses.
	Chain AppChainConfig `yaml:"chain"`

	// Offerer is the address this client signs/submits transactions as.
	Offerer string `yaml:"offerer"`

	// Oracle points at the price index HTTPPriceSource polls.
	Oracle AppOracleConfig `yaml:"oracle"`

	// Logging controls pkg/logging's level and output.
	Logging AppLoggingConfig `yaml:"logging"`

	// Grace/Relay/Escrow/Engine start from DefaultXConfig(); a field the
	// YAML file sets replaces its default, and an explicit zero is kept
	// as zero.
	Grace  GracePeriods    `yaml:"grace"`
	Relay  RelayConfig     `yaml:"relay"`
	Escrow EscrowGasConfig `yaml:"escrow"`
	Engine EngineConfig    `yaml:"engine"`
}

// AppStorageConfig mirrors storage.Config, kept separate so the config
// package doesn't import internal/storage.
type AppStorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// AppChainConfig names the RPC endpoint and chain this client targets.
// SwapEscrow/BTCRelay override the contractRegistry entry for ChainID
// when non-empty, for pointing at a locally deployed pair during
// development.
type AppChainConfig struct {
	ChainID    uint64 `yaml:"chain_id"`
	RPCURL     string `yaml:"rpc_url"`
	SwapEscrow string `yaml:"swap_escrow,omitempty"`
	BTCRelay   string `yaml:"btc_relay,omitempty"`
}

// AppOracleConfig names the price index and cache TTL.
type AppOracleConfig struct {
	IndexURL string        `yaml:"index_url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// AppLoggingConfig controls pkg/logging.
type AppLoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultAppConfig returns an AppConfig with every tunable at its
// package default and placeholder connection settings.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Storage: AppStorageConfig{DataDir: "~/.btcrelay-swap"},
		Chain: AppChainConfig{
			ChainID: 11155111,
			RPCURL:  "https://rpc.sepolia.org",
		},
		Oracle: AppOracleConfig{
			IndexURL: "https://www.okx.com",
			CacheTTL: DefaultOracleConfig().CacheTTL,
		},
		Logging: AppLoggingConfig{Level: "info"},
		Grace:   DefaultGracePeriods(),
		Relay:   DefaultRelayConfig(),
		Escrow:  DefaultEscrowGasConfig(),
		Engine:  DefaultEngineConfig(),
	}
}

// LoadAppConfig loads path, creating it with defaults first if it
// doesn't exist yet.
func LoadAppConfig(path string) (*AppConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultAppConfig()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("config: write default: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := DefaultAppConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes c to path as YAML, creating its parent directory if
// needed.
func (c *AppConfig) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("config: mkdir %s: %w", dir, err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	header := []byte("# btcrelay-swap demo configuration\n# generated automatically on first run\n\n")
	if err := os.WriteFile(path, append(header, data...), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
