// Package swap implements the per-swap lifecycle state machine described
// in spec §4.G: creation, persistence, startup reconciliation against
// on-chain commitment state, live event-driven transitions, and the
// user-facing wait-for-payment operation.
//
// Shaped after the teacher's Coordinator: one exported type holding
// active swaps in a map guarded by a mutex, an emitEvent-style listener
// dispatch, and a concern-per-file split (engine_types.go,
// engine_reconcile.go, engine_wait.go, engine_storage.go).
package swap

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/klingon-exchange/btcrelay-swap/internal/auth"
	"github.com/klingon-exchange/btcrelay-swap/internal/commitment"
	"github.com/klingon-exchange/btcrelay-swap/internal/config"
	"github.com/klingon-exchange/btcrelay-swap/internal/contracts/swapescrow"
	"github.com/klingon-exchange/btcrelay-swap/internal/events"
	"github.com/klingon-exchange/btcrelay-swap/internal/storage"
	"github.com/klingon-exchange/btcrelay-swap/pkg/logging"
)

// PaymentHash is the key every swap is tracked by, both in memory and in
// storage.
type PaymentHash = [32]byte

// CommitStatusReader reads on-chain commitment status for a swap record.
// Satisfied by *swapescrow.Client; narrowed here so the engine can be
// tested against a fake. The returned index is the raw on-chain
// commitment value when still in the pre-claim low range — see
// swapescrow.Client.GetCommitStatus.
type CommitStatusReader interface {
	GetCommitStatus(ctx context.Context, r *commitment.Record, expiry uint64, caller common.Address, now time.Time, refundGrace time.Duration) (swapescrow.CommitStatus, uint8, error)
}

// PaymentAuthRequest is what the engine asks an intermediary for when a
// swap is waiting on Lightning/BTC payment.
type PaymentAuthRequest struct {
	PaymentRequest string
	URL            string
	Token          common.Address
	Offerer        common.Address
	BaseFeeSats    uint64
	FeePpm         uint64
}

// PaymentAuthResult is the intermediary's answer: either the payment
// isn't in yet, or it is and here is the swap record plus a signed
// authorization to act on it.
type PaymentAuthResult struct {
	IsPaid        bool
	Record        *commitment.Record
	Authorization *auth.Authorization
	Expiry        uint64
}

// Intermediary is the out-of-scope HTTP collaborator (spec §6,
// "Intermediary HTTP (consumed)"). The engine only depends on this
// narrow interface; the HTTP transport itself lives outside this
// package's scope.
type Intermediary interface {
	GetPaymentAuthorization(ctx context.Context, req PaymentAuthRequest) (*PaymentAuthResult, error)
}

// SwapDataDecoder decodes the raw calldata an Initialize event carries
// in its SwapDataFetcher field into the canonical commitment.Record it
// describes. The encoding is specific to the on-chain contract's
// accessor function and is supplied by the caller rather than guessed
// at here.
type SwapDataDecoder func(raw []byte) (*commitment.Record, error)

// EngineEvent is what Engine listeners observe: a state transition for
// one swap.
type EngineEvent struct {
	PaymentHash PaymentHash
	OldState    storage.EngineState
	NewState    storage.EngineState
	Record      *storage.SwapRecord
}

// EngineListener receives dispatched engine events.
type EngineListener func(ctx context.Context, ev EngineEvent)

// Deps bundles every collaborator the engine consumes.
type Deps struct {
	Store        *storage.Storage
	Chain        CommitStatusReader
	Intermediary Intermediary
	Events       *events.Source
	DecodeSwapData SwapDataDecoder
	Offerer      common.Address
	Config       config.EngineConfig
	Grace        config.GracePeriods
	Log          *logging.Logger
}

// slot is one swap's in-memory state plus the lock serializing every
// transition applied to it, per spec §5 ("per-key serialization").
type slot struct {
	mu     sync.Mutex
	record *storage.SwapRecord
}

// Engine is the swap engine (spec §4.G): per-swap state machine,
// reconciliation against chain state, and event-driven transitions.
type Engine struct {
	mu    sync.RWMutex
	swaps map[PaymentHash]*slot

	store          *storage.Storage
	chain          CommitStatusReader
	intermediary   Intermediary
	eventSource    *events.Source
	decodeSwapData SwapDataDecoder
	offerer        common.Address
	cfg            config.EngineConfig
	grace          config.GracePeriods
	log            *logging.Logger

	listenersMu sync.Mutex
	listeners   []EngineListener

	// queueMu/queue/queueing implement the "initial-queue" trick (spec
	// §4.G): events arriving before startup reconciliation completes are
	// buffered here and drained in arrival order before live dispatch
	// begins.
	queueMu   sync.Mutex
	queue     []events.Event
	queueing  bool

	unsubscribe func()

	ctx    context.Context
	cancel context.CancelFunc
}

// NewEngine builds an Engine around its dependencies. Call Sync to load
// persisted swaps, run startup reconciliation, and begin live dispatch.
func NewEngine(deps Deps) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	log := deps.Log
	if log == nil {
		log = logging.Default()
	}
	return &Engine{
		swaps:          make(map[PaymentHash]*slot),
		store:          deps.Store,
		chain:          deps.Chain,
		intermediary:   deps.Intermediary,
		eventSource:    deps.Events,
		decodeSwapData: deps.DecodeSwapData,
		offerer:        deps.Offerer,
		cfg:            deps.Config,
		grace:          deps.Grace,
		log:            log.Component("swap-engine"),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// OnEvent registers a listener for engine transitions. The returned
// function unregisters it.
func (e *Engine) OnEvent(l EngineListener) (unsubscribe func()) {
	e.listenersMu.Lock()
	e.listeners = append(e.listeners, l)
	idx := len(e.listeners) - 1
	e.listenersMu.Unlock()

	return func() {
		e.listenersMu.Lock()
		defer e.listenersMu.Unlock()
		if idx < len(e.listeners) {
			e.listeners[idx] = nil
		}
	}
}

// emitEvent dispatches a transition to every registered listener,
// awaiting each in turn (spec §4.F: "delivery is awaited sequentially").
func (e *Engine) emitEvent(ctx context.Context, ev EngineEvent) {
	e.listenersMu.Lock()
	listeners := make([]EngineListener, len(e.listeners))
	copy(listeners, e.listeners)
	e.listenersMu.Unlock()

	for _, l := range listeners {
		if l == nil {
			continue
		}
		l(ctx, ev)
	}
}

// Close stops the engine's background subscription.
func (e *Engine) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
	e.cancel()
}

// getOrCreateSlot returns the in-memory slot for paymentHash, creating
// one from rec if it doesn't exist yet.
func (e *Engine) getOrCreateSlot(paymentHash PaymentHash, rec *storage.SwapRecord) *slot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.swaps[paymentHash]
	if !ok {
		s = &slot{record: rec}
		e.swaps[paymentHash] = s
	}
	return s
}

func (e *Engine) lookupSlot(paymentHash PaymentHash) (*slot, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.swaps[paymentHash]
	return s, ok
}

// setState persists a swap's new state, the persistence-before-emission
// rule spec §5 requires ("state writes are persisted before any
// observable event is emitted"), then dispatches an EngineEvent.
func (e *Engine) setState(ctx context.Context, s *slot, newState storage.EngineState) error {
	old := s.record.State
	if old == newState {
		return nil
	}
	s.record.State = newState
	if e.store != nil {
		if err := e.store.SaveSwap(s.record); err != nil {
			return err
		}
	}
	e.emitEvent(ctx, EngineEvent{
		PaymentHash: s.record.PaymentHash,
		OldState:    old,
		NewState:    newState,
		Record:      s.record,
	})
	return nil
}

// zeroBig reports whether v is nil or zero, used to decide whether a
// swap record already has on-chain data assigned.
func zeroBig(v *big.Int) bool {
	return v == nil || v.Sign() == 0
}
