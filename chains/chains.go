// Package chains is the static registry of networks the agent wallet can
// pay on. Each entry carries the chain parameters needed to build an
// EIP-712 domain for the network's USDC contract.
package chains

import (
	"fmt"
	"sort"

	"github.com/vitwit/x402-agent/types"
)

// NetworkConfig holds the immutable chain parameters for one network.
type NetworkConfig struct {
	// Network is the canonical CAIP-2 identifier (namespace:reference).
	Network string

	// ChainID is the EIP-155 chain ID.
	ChainID int64

	// USDCAddress is the EIP-3009 compliant USDC contract address.
	USDCAddress string

	// Name is the EIP-712 domain parameter "name" of the asset.
	Name string

	// Version is the EIP-712 domain parameter "version" of the asset.
	Version string
}

// Decimals is the number of decimal places per whole USDC unit.
const Decimals = 6

// CAIP-2 network identifiers (canonical).
const (
	NetworkBase        = "eip155:8453"
	NetworkBaseSepolia = "eip155:84532"
	NetworkEthereum    = "eip155:1"
	NetworkSepolia     = "eip155:11155111"
	NetworkArcTestnet  = "eip155:5042002"
)

// configByNetwork is the single source of truth, keyed by canonical
// CAIP-2 identifier. Legacy names are aliases into this table and must
// never carry their own entries.
var configByNetwork = map[string]NetworkConfig{
	NetworkBase: {
		Network:     NetworkBase,
		ChainID:     8453,
		USDCAddress: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		Name:        "USD Coin",
		Version:     "2",
	},
	NetworkBaseSepolia: {
		Network:     NetworkBaseSepolia,
		ChainID:     84532,
		USDCAddress: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		Name:        "USD Coin",
		Version:     "2",
	},
	NetworkEthereum: {
		Network:     NetworkEthereum,
		ChainID:     1,
		USDCAddress: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		Name:        "USD Coin",
		Version:     "2",
	},
	NetworkSepolia: {
		Network:     NetworkSepolia,
		ChainID:     11155111,
		USDCAddress: "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238",
		Name:        "USD Coin",
		Version:     "2",
	},
	NetworkArcTestnet: {
		Network:     NetworkArcTestnet,
		ChainID:     5042002,
		USDCAddress: "0x3600000000000000000000000000000000000000",
		Name:        "USD Coin",
		Version:     "2",
	},
}

// aliasByName maps legacy bare network names onto canonical identifiers.
var aliasByName = map[string]string{
	"base-mainnet":     NetworkBase,
	"base-sepolia":     NetworkBaseSepolia,
	"ethereum-mainnet": NetworkEthereum,
	"ethereum-sepolia": NetworkSepolia,
	"arc-testnet":      NetworkArcTestnet,
}

// Resolve looks up the chain parameters for a network identifier,
// accepting both canonical CAIP-2 identifiers and legacy aliases.
// Identifiers are case-sensitive. Lookup is pure.
func Resolve(network string) (NetworkConfig, error) {
	if canonical, ok := aliasByName[network]; ok {
		network = canonical
	}
	config, ok := configByNetwork[network]
	if !ok {
		return NetworkConfig{}, types.NewError(
			types.ErrUnknownNetwork,
			fmt.Sprintf("unknown network: %s (supported: %v)", network, Supported()),
		)
	}
	return config, nil
}

// Supported returns every accepted identifier, canonical and alias,
// sorted for stable diagnostics.
func Supported() []string {
	names := make([]string, 0, len(configByNetwork)+len(aliasByName))
	for name := range configByNetwork {
		names = append(names, name)
	}
	for name := range aliasByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
