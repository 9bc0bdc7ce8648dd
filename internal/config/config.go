// Package config centralizes every timing constant, gas budget, and
// registered address this client uses. ALL swap parameters MUST be
// defined here; no hardcoded values should exist elsewhere in the
// codebase.
package config

import "time"

// =============================================================================
// Grace periods (spec §4.D)
// =============================================================================

// GracePeriods bounds how close to a deadline an authorization or
// transaction may be submitted before it is rejected locally.
type GracePeriods struct {
	// Auth is the slack window an authorization's timeout must clear
	// `now` by before it is accepted.
	Auth time.Duration

	// Claim is added to Auth when validating an init authorization's
	// swap.expiry, to guarantee the claimer still has room to act after
	// the auth itself expires.
	Claim time.Duration

	// Refund is the slack window before swap.expiry past which a
	// refund-eligible commit is treated as EXPIRED for the offerer.
	Refund time.Duration
}

// DefaultGracePeriods returns the spec defaults: 5 / 10 / 10 minutes.
func DefaultGracePeriods() GracePeriods {
	return GracePeriods{
		Auth:   300 * time.Second,
		Claim:  600 * time.Second,
		Refund: 600 * time.Second,
	}
}

// =============================================================================
// BTC Relay Client tuning (spec §4.B)
// =============================================================================

// RelayConfig tunes the relay client's log-scanning and gas estimation.
type RelayConfig struct {
	// LogBlocksLimit is the window size, in L1 blocks, of each
	// getLogs page during a backward scan.
	LogBlocksLimit uint64

	// LogScanSleep is the pause between consecutive empty windows.
	LogScanSleep time.Duration

	// Gas budgets, reproduced bit-for-bit from the intermediary
	// reference implementation so fee estimates agree with it.
	GasInitialHeader        uint64
	GasMainHeaderBase       uint64
	GasMainHeaderPerHeader  uint64
	GasNewForkBase          uint64
	GasNewForkPerHeader     uint64
	GasForkBase             uint64
	GasForkPerHeader        uint64
	GasSynchronizePerHeader uint64
}

// DefaultRelayConfig returns the spec's default relay tuning.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		LogBlocksLimit:          2500,
		LogScanSleep:            500 * time.Millisecond,
		GasInitialHeader:        150_000,
		GasMainHeaderBase:       40_000,
		GasMainHeaderPerHeader:  40_000,
		GasNewForkBase:          200_000,
		GasNewForkPerHeader:     100_000,
		GasForkBase:             200_000,
		GasForkPerHeader:        100_000,
		GasSynchronizePerHeader: 35_000,
	}
}

// =============================================================================
// Swap Contract Client tuning (spec §4.E)
// =============================================================================

// EscrowGasConfig carries the magic gas budgets for every unsigned-tx
// builder the swap contract client exposes.
type EscrowGasConfig struct {
	Init                 uint64
	InitPayIn            uint64
	InitPayInApproval    uint64
	ClaimWithSecret       uint64
	ClaimWithTxDataBase   uint64
	ClaimWithTxDataPerByte uint64
	Refund               uint64
	RefundWithAuth       uint64
	Deposit              uint64
	Withdraw             uint64
	Approve              uint64
}

// DefaultEscrowGasConfig returns the spec's default gas budgets.
func DefaultEscrowGasConfig() EscrowGasConfig {
	return EscrowGasConfig{
		Init:                   100_000,
		InitPayIn:              150_000,
		InitPayInApproval:      80_000,
		ClaimWithSecret:        150_000,
		ClaimWithTxDataBase:    200_000,
		ClaimWithTxDataPerByte: 100,
		Refund:                 100_000,
		RefundWithAuth:         120_000,
		Deposit:                80_000,
		Withdraw:               100_000,
		Approve:                21_000,
	}
}

// =============================================================================
// Swap Engine tuning (spec §4.G, §5)
// =============================================================================

// EngineConfig tunes the swap engine's concurrency and polling.
type EngineConfig struct {
	// MaxConcurrentRequests bounds the startup reconciliation fan-out.
	MaxConcurrentRequests int

	// WaitForPaymentPollInterval is the default poll cadence for
	// Engine.WaitForPayment when the caller doesn't override it.
	WaitForPaymentPollInterval time.Duration
}

// DefaultEngineConfig returns sensible defaults within the spec's 8-32
// fan-out range.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxConcurrentRequests:      8,
		WaitForPaymentPollInterval: 5 * time.Second,
	}
}

// =============================================================================
// Price Oracle Adapter tuning (spec §4.H)
// =============================================================================

// OracleConfig tunes the price oracle adapter's caching.
type OracleConfig struct {
	CacheTTL time.Duration
}

// DefaultOracleConfig returns the spec default: 10s price cache.
func DefaultOracleConfig() OracleConfig {
	return OracleConfig{CacheTTL: 10 * time.Second}
}

// =============================================================================
// Top-level client config
// =============================================================================

// ClientConfig aggregates every tunable the library needs. A caller
// builds one (directly, or from DefaultClientConfig) and passes
// components built from it into the engine. The demo binary does not
// use it: it reads an AppConfig via LoadAppConfig.
type ClientConfig struct {
	Grace  GracePeriods
	Relay  RelayConfig
	Escrow EscrowGasConfig
	Engine EngineConfig
	Oracle OracleConfig
}

// DefaultClientConfig aggregates every Default*Config above.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Grace:  DefaultGracePeriods(),
		Relay:  DefaultRelayConfig(),
		Escrow: DefaultEscrowGasConfig(),
		Engine: DefaultEngineConfig(),
		Oracle: DefaultOracleConfig(),
	}
}
