package chains

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/x402-agent/types"
)

func TestResolveCanonical(t *testing.T) {
	config, err := Resolve("eip155:8453")
	require.NoError(t, err)
	assert.Equal(t, int64(8453), config.ChainID)
	assert.Equal(t, "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", config.USDCAddress)
	assert.Equal(t, "USD Coin", config.Name)
	assert.Equal(t, "2", config.Version)
}

func TestResolveAliasMatchesCanonical(t *testing.T) {
	aliases := map[string]string{
		"base-mainnet":     "eip155:8453",
		"base-sepolia":     "eip155:84532",
		"ethereum-mainnet": "eip155:1",
		"ethereum-sepolia": "eip155:11155111",
		"arc-testnet":      "eip155:5042002",
	}

	for alias, canonical := range aliases {
		viaAlias, err := Resolve(alias)
		require.NoError(t, err, alias)

		viaCanonical, err := Resolve(canonical)
		require.NoError(t, err, canonical)

		// Aliases must never drift from the canonical entry.
		assert.Equal(t, viaCanonical, viaAlias, alias)
	}
}

func TestResolveUnknownNetwork(t *testing.T) {
	_, err := Resolve("invalid-network")
	require.Error(t, err)
	assert.Equal(t, types.ErrUnknownNetwork, types.ErrorCode(err))
	assert.Contains(t, err.Error(), "invalid-network")
}

func TestResolveIsCaseSensitive(t *testing.T) {
	_, err := Resolve("EIP155:8453")
	require.Error(t, err)
	assert.Equal(t, types.ErrUnknownNetwork, types.ErrorCode(err))
}

func TestSupportedListsAliasesAndCanonical(t *testing.T) {
	supported := Supported()
	assert.Contains(t, supported, "eip155:8453")
	assert.Contains(t, supported, "base-mainnet")
	assert.Len(t, supported, 10)
}
