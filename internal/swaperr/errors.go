// Package swaperr defines the error taxonomy shared by every component of
// the relay and swap clients, plus a bounded retry helper for the
// transient/retryable half of that taxonomy.
package swaperr

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel kinds. Components wrap these with fmt.Errorf("%w: ...") so
// callers can errors.Is/errors.As against the kind while still getting a
// specific message.
var (
	// ErrSignatureVerification covers any failed precondition in the
	// authorization verification chain (§4.D).
	ErrSignatureVerification = errors.New("signature verification failed")

	// ErrSwapDataVerification covers a failed local preflight check, e.g.
	// not-refundable or a pay-status mismatch.
	ErrSwapDataVerification = errors.New("swap data verification failed")

	// ErrCannotInitializeAta is raised when an allowance/prepare step
	// cannot be constructed ahead of a pay-in transaction.
	ErrCannotInitializeAta = errors.New("cannot initialize allowance")

	// ErrPaymentAuth is raised when an intermediary rejects or times out a
	// payment authorization request.
	ErrPaymentAuth = errors.New("payment authorization failed")

	// ErrNotSynchronized is raised when the relay hasn't reached the
	// height required for an SPV claim.
	ErrNotSynchronized = errors.New("relay not synchronized to required height")

	// ErrHTTPResponse is raised on a non-2xx response from an intermediary
	// or oracle.
	ErrHTTPResponse = errors.New("non-2xx http response")

	// ErrCancelled is raised when a cooperative cancellation token fires.
	ErrCancelled = errors.New("operation cancelled")

	// ErrInvalidArgument is raised on a local-contract violation (wrong
	// slice length, nil pointer where one is required, etc).
	ErrInvalidArgument = errors.New("invalid argument")
)

// TxReverted reports an observed on-chain revert. It carries the
// transaction hash so callers can look up receipts/logs.
type TxReverted struct {
	TxHash common.Hash
}

func (e *TxReverted) Error() string {
	return fmt.Sprintf("transaction reverted: %s", e.TxHash.Hex())
}

// NewTxReverted wraps a transaction hash as a TxReverted error.
func NewTxReverted(hash common.Hash) error {
	return &TxReverted{TxHash: hash}
}

// Retryable reports whether err belongs to the retryable half of the
// taxonomy: transient HTTP/RPC failures, as opposed to the kinds that
// represent a terminal local decision (signature/data verification,
// cancellation, invalid argument).
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrSignatureVerification),
		errors.Is(err, ErrSwapDataVerification),
		errors.Is(err, ErrCancelled),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrPaymentAuth):
		return false
	}
	var reverted *TxReverted
	if errors.As(err, &reverted) {
		return false
	}
	return true
}
