package swap

import (
	"context"
	"fmt"
	"time"

	"github.com/klingon-exchange/btcrelay-swap/internal/storage"
	"github.com/klingon-exchange/btcrelay-swap/internal/swaperr"
)

// PaymentUpdate is reported on every wait-for-payment poll (spec §4.G).
type PaymentUpdate struct {
	TxID               string
	Confirmations      uint32
	TargetConfirmations uint32
}

// ConfirmationReader reports a transaction's current confirmation count.
// The engine only needs this narrow capability from whatever Bitcoin/EVM
// RPC layer the caller wires in.
type ConfirmationReader interface {
	Confirmations(ctx context.Context, txID string) (uint32, error)
}

// WaitForPayment polls at interval (or the engine's configured default
// if interval is zero) until the payment's confirmations reach target,
// reporting each update through onUpdate. It returns a
// swaperr.ErrSwapDataVerification error if the swap is in a terminal
// state at a poll, and swaperr.ErrCancelled if ctx is cancelled first.
func (e *Engine) WaitForPayment(ctx context.Context, paymentHash PaymentHash, confirmations ConfirmationReader, target uint32, interval time.Duration, onUpdate func(PaymentUpdate)) error {
	if interval <= 0 {
		interval = e.cfg.WaitForPaymentPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s, ok := e.lookupSlot(paymentHash)
		if !ok {
			return fmt.Errorf("%w: unknown swap %x", swaperr.ErrInvalidArgument, paymentHash)
		}

		s.mu.Lock()
		state := s.record.State
		txID := s.record.CommitTxID
		s.mu.Unlock()

		if isTerminal(state) {
			return fmt.Errorf("%w: swap entered terminal state %s while waiting for payment", swaperr.ErrSwapDataVerification, state)
		}

		if txID != "" {
			confs, err := confirmations.Confirmations(ctx, txID)
			if err != nil {
				return err
			}
			if onUpdate != nil {
				onUpdate(PaymentUpdate{TxID: txID, Confirmations: confs, TargetConfirmations: target})
			}
			if confs >= target {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", swaperr.ErrCancelled, ctx.Err())
		case <-ticker.C:
		}
	}
}

func isTerminal(s storage.EngineState) bool {
	switch s {
	case storage.StateClaimClaimed, storage.StateExpired, storage.StateFailed:
		return true
	default:
		return false
	}
}
