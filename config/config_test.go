package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fundchain.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, defaultRPCAddress, cfg.RPCAddress)
	require.Equal(t, defaultNetworkName, cfg.NetworkName)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config file should be written")

	vault, err := cfg.Vault()
	require.NoError(t, err)
	require.NotEqual(t, [20]byte{}, vault)
}

func TestLoadParsesAllocations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fundchain.toml")
	raw := `
RPCAddress = "127.0.0.1:9999"
VaultAddress = "0x00000000000000000000000000000000000000aa"

[[GenesisAlloc]]
Address = "0x0000000000000000000000000000000000000001"
Balance = "1000"

[[GenesisAlloc]]
Address = "0x0000000000000000000000000000000000000001"
Balance = "500"
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9999", cfg.RPCAddress)

	allocs, err := cfg.Allocations()
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	var funder [20]byte
	funder[19] = 0x01
	require.Zero(t, allocs[funder].Cmp(big.NewInt(1500)))
}

func TestLoadRejectsBadVault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fundchain.toml")
	require.NoError(t, os.WriteFile(path, []byte(`VaultAddress = "not-an-address"`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
