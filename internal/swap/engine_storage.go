package swap

import (
	"context"
	"fmt"

	"github.com/klingon-exchange/btcrelay-swap/internal/storage"
	"github.com/klingon-exchange/btcrelay-swap/internal/swaperr"
)

// CreateSwap registers a new PR_CREATED swap, persists it, and tracks it
// in memory. Ownership begins here (spec §3, "Ownership/lifecycle").
func (e *Engine) CreateSwap(ctx context.Context, rec *storage.SwapRecord) error {
	if rec.State == "" {
		rec.State = storage.StatePRCreated
	}

	e.mu.Lock()
	if _, exists := e.swaps[rec.PaymentHash]; exists {
		e.mu.Unlock()
		return fmt.Errorf("%w: swap %x already exists", swaperr.ErrInvalidArgument, rec.PaymentHash)
	}
	s := &slot{record: rec}
	e.swaps[rec.PaymentHash] = s
	e.mu.Unlock()

	if err := e.store.SaveSwap(rec); err != nil {
		return err
	}

	e.emitEvent(ctx, EngineEvent{
		PaymentHash: rec.PaymentHash,
		NewState:    rec.State,
		Record:      rec,
	})
	return nil
}

// GetSwap returns the current in-memory snapshot of a tracked swap.
func (e *Engine) GetSwap(paymentHash PaymentHash) (*storage.SwapRecord, bool) {
	s, ok := e.lookupSlot(paymentHash)
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.record
	return &cp, true
}

// PurgeTerminal removes every tracked swap that has reached a terminal
// state (CLAIM_CLAIMED, EXPIRED, FAILED) from both memory and storage.
// Swap records are otherwise retained indefinitely per spec §3
// ("removed only when EXPIRED-before-commit or explicitly purged after
// a terminal state").
func (e *Engine) PurgeTerminal(ctx context.Context) (int, error) {
	e.mu.Lock()
	var toPurge []PaymentHash
	for hash, s := range e.swaps {
		s.mu.Lock()
		terminal := isTerminal(s.record.State)
		s.mu.Unlock()
		if terminal {
			toPurge = append(toPurge, hash)
		}
	}
	e.mu.Unlock()

	for _, hash := range toPurge {
		if err := e.store.RemoveSwap(hash); err != nil {
			return 0, fmt.Errorf("swap: purge %x: %w", hash, err)
		}
		e.mu.Lock()
		delete(e.swaps, hash)
		e.mu.Unlock()
	}
	return len(toPurge), nil
}
