package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

// GenesisAlloc seeds a token balance at first boot so contributors can fund
// campaigns without an external deposit path.
type GenesisAlloc struct {
	Address string `toml:"Address"`
	Balance string `toml:"Balance"`
}

type Config struct {
	RPCAddress   string         `toml:"RPCAddress"`
	DataDir      string         `toml:"DataDir"`
	NetworkName  string         `toml:"NetworkName"`
	VaultAddress string         `toml:"VaultAddress"`
	RPCAuthToken string         `toml:"RPCAuthToken"`
	GenesisAlloc []GenesisAlloc `toml:"GenesisAlloc"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = defaultRPCAddress
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = defaultDataDir(path)
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = defaultNetworkName
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const (
	defaultRPCAddress  = "127.0.0.1:8645"
	defaultNetworkName = "fund-local"
	// defaultVault is the custodial account outstanding contributions sit in.
	defaultVault = "0x0000000000000000000000000000000000000f0d"
)

func defaultDataDir(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "data")
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:   defaultRPCAddress,
		DataDir:      defaultDataDir(path),
		NetworkName:  defaultNetworkName,
		VaultAddress: defaultVault,
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.Vault(); err != nil {
		return err
	}
	for _, alloc := range c.GenesisAlloc {
		if !common.IsHexAddress(alloc.Address) {
			return fmt.Errorf("config: invalid genesis address %q", alloc.Address)
		}
		if _, ok := new(big.Int).SetString(strings.TrimSpace(alloc.Balance), 10); !ok {
			return fmt.Errorf("config: invalid genesis balance %q for %s", alloc.Balance, alloc.Address)
		}
	}
	return nil
}

// Vault returns the configured custodial address.
func (c *Config) Vault() ([20]byte, error) {
	trimmed := strings.TrimSpace(c.VaultAddress)
	if !common.IsHexAddress(trimmed) {
		return [20]byte{}, fmt.Errorf("config: invalid vault address %q", c.VaultAddress)
	}
	return common.HexToAddress(trimmed), nil
}

// Allocations returns the parsed genesis balances keyed by address.
func (c *Config) Allocations() (map[[20]byte]*big.Int, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	out := make(map[[20]byte]*big.Int, len(c.GenesisAlloc))
	for _, alloc := range c.GenesisAlloc {
		addr := common.HexToAddress(strings.TrimSpace(alloc.Address))
		balance, _ := new(big.Int).SetString(strings.TrimSpace(alloc.Balance), 10)
		if existing, ok := out[addr]; ok {
			balance = new(big.Int).Add(existing, balance)
		}
		out[addr] = balance
	}
	return out, nil
}
