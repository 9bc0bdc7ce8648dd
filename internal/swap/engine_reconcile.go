package swap

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/klingon-exchange/btcrelay-swap/internal/auth"
	"github.com/klingon-exchange/btcrelay-swap/internal/commitment"
	"github.com/klingon-exchange/btcrelay-swap/internal/contracts/swapescrow"
	"github.com/klingon-exchange/btcrelay-swap/internal/events"
	"github.com/klingon-exchange/btcrelay-swap/internal/storage"
	"github.com/klingon-exchange/btcrelay-swap/internal/swaperr"
)

// Sync loads every persisted swap, reconciles each against chain/
// intermediary state with a bounded worker fan-out, then begins live
// event dispatch. Events arriving during the fan-out are buffered (the
// "initial-queue" trick, spec §4.G) and replayed in arrival order before
// live dispatch starts.
func (e *Engine) Sync(ctx context.Context) error {
	records, err := e.store.LoadAllSwaps()
	if err != nil {
		return fmt.Errorf("swap: load all swaps: %w", err)
	}

	e.mu.Lock()
	for _, rec := range records {
		e.swaps[rec.PaymentHash] = &slot{record: rec}
	}
	e.mu.Unlock()

	e.queueMu.Lock()
	e.queueing = true
	e.queueMu.Unlock()

	if e.eventSource != nil {
		e.unsubscribe = e.eventSource.Subscribe(func(ctx context.Context, ev events.Event) {
			e.queueMu.Lock()
			if e.queueing {
				e.queue = append(e.queue, ev)
				e.queueMu.Unlock()
				return
			}
			e.queueMu.Unlock()
			e.HandleEvent(ctx, ev)
		})
	}

	limit := e.cfg.MaxConcurrentRequests
	if limit <= 0 {
		limit = 8
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	e.mu.RLock()
	slots := make([]*slot, 0, len(e.swaps))
	for _, s := range e.swaps {
		slots = append(slots, s)
	}
	e.mu.RUnlock()

	for _, s := range slots {
		s := s
		g.Go(func() error {
			if err := e.reconcileSwap(gctx, s); err != nil {
				e.log.Warn("reconcile failed", "payment_hash", s.record.PaymentHash, "err", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	e.queueMu.Lock()
	queued := e.queue
	e.queue = nil
	e.queueing = false
	e.queueMu.Unlock()

	for _, ev := range queued {
		e.HandleEvent(ctx, ev)
	}

	return nil
}

// reconcileSwap applies the spec §4.G transition rules for a swap's
// current state, locking the slot for the duration of the transition
// (per-swap serialization, spec §5).
func (e *Engine) reconcileSwap(ctx context.Context, s *slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	switch s.record.State {
	case storage.StatePRCreated:
		return e.reconcilePRCreated(ctx, s, now)
	case storage.StatePRPaid:
		return e.reconcilePRPaid(ctx, s, now)
	case storage.StateClaimCommitted:
		return e.reconcileClaimCommitted(ctx, s, now)
	default:
		return nil
	}
}

func (e *Engine) reconcilePRCreated(ctx context.Context, s *slot, now time.Time) error {
	rec := s.record
	if rec.Timeout != 0 && uint64(now.Unix()) > rec.Timeout {
		return e.setState(ctx, s, storage.StateExpired)
	}

	result, err := e.intermediary.GetPaymentAuthorization(ctx, PaymentAuthRequest{
		URL:         rec.URL,
		Token:       rec.Token,
		Offerer:     e.offerer,
		BaseFeeSats: 0,
		FeePpm:      0,
	})
	if err != nil {
		if errors.Is(err, swaperr.ErrPaymentAuth) {
			return e.setState(ctx, s, storage.StateExpired)
		}
		return err
	}
	if !result.IsPaid {
		return nil
	}

	rec.Prefix = result.Authorization.Prefix
	rec.Timeout = result.Authorization.Timeout
	rec.Signature = &result.Authorization.Signature
	rec.Expiry = result.Expiry
	if result.Record != nil {
		rec.Amount = result.Record.Amount
		rec.Data = result.Record.Data
		rec.SecurityDeposit = result.Record.SecurityDeposit
		rec.ClaimerBounty = result.Record.ClaimerBounty
	}
	return e.setState(ctx, s, storage.StatePRPaid)
}

func (e *Engine) reconcilePRPaid(ctx context.Context, s *slot, now time.Time) error {
	rec := s.record
	status, onChainIndex, err := e.chain.GetCommitStatus(ctx, rec.ToRecord(), rec.Expiry, e.offerer, now, e.grace.Refund)
	if err != nil {
		return err
	}

	switch status {
	case swapescrow.StatusPaid:
		return e.setState(ctx, s, storage.StateClaimClaimed)
	case swapescrow.StatusExpired:
		return e.setState(ctx, s, storage.StateExpired)
	case swapescrow.StatusCommitted:
		return e.setState(ctx, s, storage.StateClaimCommitted)
	}

	if rec.Signature == nil {
		return nil
	}
	var swapDataIndex uint8
	if !zeroBig(rec.Data) {
		swapDataIndex = commitment.Unpack(rec.Data).Index
	}
	verifyErr := auth.Verify(&auth.Authorization{
		Prefix:     rec.Prefix,
		CommitHash: rec.PaymentHash,
		Timeout:    rec.Timeout,
		Signature:  *rec.Signature,
	}, auth.VerifyRequest{
		ExpectedPrefix: auth.PrefixInitialize,
		Now:            now,
		Grace:          e.grace,
		SwapExpiry:     rec.Expiry,
		ExpectedSigner: rec.Offerer,
		CheckIndex:     true,
		OnChainIndex:   onChainIndex,
		SwapDataIndex:  swapDataIndex,
	})
	if verifyErr != nil {
		return e.setState(ctx, s, storage.StateExpired)
	}
	return nil
}

func (e *Engine) reconcileClaimCommitted(ctx context.Context, s *slot, now time.Time) error {
	rec := s.record
	status, _, err := e.chain.GetCommitStatus(ctx, rec.ToRecord(), rec.Expiry, e.offerer, now, e.grace.Refund)
	if err != nil {
		return err
	}
	switch status {
	case swapescrow.StatusPaid:
		return e.setState(ctx, s, storage.StateClaimClaimed)
	case swapescrow.StatusNotCommitted, swapescrow.StatusExpired:
		return e.setState(ctx, s, storage.StateFailed)
	}
	return nil
}

// HandleEvent applies the event-reconciliation rules of spec §4.G for a
// single on-chain log.
func (e *Engine) HandleEvent(ctx context.Context, ev events.Event) {
	s, ok := e.lookupSlot(ev.PaymentHash)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Kind {
	case events.KindInitialize:
		e.handleInitialize(ctx, s, ev)
	case events.KindClaim:
		e.handleClaim(ctx, s, ev)
	case events.KindRefund:
		e.handleRefund(ctx, s, ev)
	}
}

func (e *Engine) handleInitialize(ctx context.Context, s *slot, ev events.Event) {
	if s.record.State != storage.StatePRPaid {
		return
	}
	if e.decodeSwapData == nil {
		e.log.Warn("no swap data decoder configured, dropping Initialize event", "payment_hash", ev.PaymentHash)
		return
	}

	decoded, err := e.decodeSwapData(ev.Initialize.SwapDataFetcher)
	if err != nil {
		e.log.Warn("failed to decode swap data fetcher", "payment_hash", ev.PaymentHash, "err", err)
		return
	}

	if !zeroBig(s.record.Data) {
		existing := s.record.ToRecord()
		if !reflect.DeepEqual(existing, decoded) {
			e.log.Warn("Initialize event swap data mismatch, dropping (possible reorg)", "payment_hash", ev.PaymentHash)
			return
		}
	}

	s.record.Amount = decoded.Amount
	s.record.Data = decoded.Data
	s.record.SecurityDeposit = decoded.SecurityDeposit
	s.record.ClaimerBounty = decoded.ClaimerBounty
	s.record.TxoHash = ev.Initialize.TxoHash

	if err := e.setState(ctx, s, storage.StateClaimCommitted); err != nil {
		e.log.Warn("failed to persist Initialize transition", "payment_hash", ev.PaymentHash, "err", err)
	}
}

func (e *Engine) handleClaim(ctx context.Context, s *slot, ev events.Event) {
	if s.record.State != storage.StatePRPaid && s.record.State != storage.StateClaimCommitted {
		return
	}
	s.record.ClaimTxID = ev.Raw.TxHash.Hex()
	if err := e.setState(ctx, s, storage.StateClaimClaimed); err != nil {
		e.log.Warn("failed to persist Claim transition", "payment_hash", ev.PaymentHash, "err", err)
	}
}

func (e *Engine) handleRefund(ctx context.Context, s *slot, ev events.Event) {
	if s.record.State != storage.StatePRPaid && s.record.State != storage.StateClaimCommitted {
		return
	}
	if err := e.setState(ctx, s, storage.StateFailed); err != nil {
		e.log.Warn("failed to persist Refund transition", "payment_hash", ev.PaymentHash, "err", err)
	}
}
