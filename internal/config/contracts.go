// ALL EVM contract addresses MUST be defined here. Do not scatter contract
// addresses throughout the codebase.
package config

import "github.com/ethereum/go-ethereum/common"

// ChainContracts holds the two contracts this client talks to on a given
// EVM chain: the swap escrow (Component E) and the BTC relay (Component
// B). Both must be deployed on the same chain for a swap route to exist.
type ChainContracts struct {
	SwapEscrow common.Address
	BTCRelay   common.Address
}

// contractRegistry maps chainID -> deployed contract addresses.
var contractRegistry = map[uint64]*ChainContracts{
	// ==========================================================================
	// Testnets
	// ==========================================================================

	// Ethereum Sepolia (chainID 11155111)
	11155111: {
		SwapEscrow: common.HexToAddress("0x628c677e7b8889e64564d3f381565a9e6656aade"),
		BTCRelay:   common.HexToAddress("0x9a8f92a830a5cb89a3816e3d267cb7791c16b04d"),
	},

	// BSC Testnet (chainID 97)
	97: {
		SwapEscrow: common.HexToAddress("0xC8515f07b08b586a2Fd6A389585D9a182D03adFB"),
		BTCRelay:   common.Address{}, // TODO: deploy
	},

	// Polygon Amoy (chainID 80002)
	80002: {
		SwapEscrow: common.Address{}, // TODO: deploy
		BTCRelay:   common.Address{}, // TODO: deploy
	},

	// ==========================================================================
	// Mainnets (DO NOT DEPLOY UNTIL AUDIT COMPLETE)
	// ==========================================================================

	// Ethereum Mainnet (chainID 1)
	1: {
		SwapEscrow: common.Address{}, // TODO: deploy after audit
		BTCRelay:   common.Address{}, // TODO: deploy after audit
	},

	// BSC Mainnet (chainID 56)
	56: {
		SwapEscrow: common.Address{},
		BTCRelay:   common.Address{},
	},
}

// GetChainContracts returns the registered contracts for a chain ID, or
// nil if the chain is unregistered.
func GetChainContracts(chainID uint64) *ChainContracts {
	return contractRegistry[chainID]
}

// GetSwapEscrow returns the swap escrow address for a chain, or the zero
// address if unregistered/undeployed.
func GetSwapEscrow(chainID uint64) common.Address {
	if c := contractRegistry[chainID]; c != nil {
		return c.SwapEscrow
	}
	return common.Address{}
}

// GetBTCRelay returns the BTC relay address for a chain, or the zero
// address if unregistered/undeployed.
func GetBTCRelay(chainID uint64) common.Address {
	if c := contractRegistry[chainID]; c != nil {
		return c.BTCRelay
	}
	return common.Address{}
}

// IsDeployed reports whether both contracts are deployed on a chain.
func IsDeployed(chainID uint64) bool {
	c := contractRegistry[chainID]
	return c != nil && c.SwapEscrow != (common.Address{}) && c.BTCRelay != (common.Address{})
}

// ListDeployedChains returns every chain ID with both contracts live.
func ListDeployedChains() []uint64 {
	var chains []uint64
	for chainID, c := range contractRegistry {
		if c.SwapEscrow != (common.Address{}) && c.BTCRelay != (common.Address{}) {
			chains = append(chains, chainID)
		}
	}
	return chains
}

// RegisterChainContracts registers or updates a chain's contract
// addresses at runtime, e.g. after loading a config file.
func RegisterChainContracts(chainID uint64, contracts *ChainContracts) {
	contractRegistry[chainID] = contracts
}
