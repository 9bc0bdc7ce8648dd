// Package events consumes the SwapEscrow log stream and parses raw logs
// into a tagged Initialize/Claim/Refund variant keyed by payment hash,
// then dispatches them to registered listeners.
//
// Source systems this was modeled on use runtime type tests
// (instanceof) to branch on event kind; here the variant is a single
// struct carrying an explicit Kind tag plus one populated payload,
// exhaustively switched on — never type-asserted.
package events

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/klingon-exchange/btcrelay-swap/internal/contracts/swapescrow"
	"github.com/klingon-exchange/btcrelay-swap/pkg/logging"
)

// Kind tags which payload an Event carries.
type Kind uint8

const (
	KindInitialize Kind = iota
	KindClaim
	KindRefund
)

func (k Kind) String() string {
	switch k {
	case KindInitialize:
		return "Initialize"
	case KindClaim:
		return "Claim"
	case KindRefund:
		return "Refund"
	default:
		return "unknown"
	}
}

// InitializeData is the payload of a KindInitialize event: the contract
// has recorded a commitment at PaymentHash and exposes a Fetcher the
// listener uses to look up the swap's full off-chain record.
type InitializeData struct {
	Sequence        *big.Int
	TxoHash         [32]byte
	Index           uint8
	SwapDataFetcher []byte
}

// ClaimData is the payload of a KindClaim event.
type ClaimData struct {
	Sequence *big.Int
	Secret   [32]byte
}

// RefundData is the payload of a KindRefund event.
type RefundData struct {
	Sequence *big.Int
}

// Event is the tagged variant every consumer switches on by Kind. Only
// the field matching Kind is populated; the others are the zero value.
type Event struct {
	Kind        Kind
	PaymentHash [32]byte
	Raw         types.Log
	Initialize  InitializeData
	Claim       ClaimData
	Refund      RefundData
}

// Listener receives dispatched events. Registration/unregistration is
// synchronous and delivery within a batch is awaited sequentially, so a
// listener that mutates shared state never races a sibling listener.
type Listener func(ctx context.Context, ev Event)

// Source subscribes to a SwapEscrow contract's event logs and fans them
// out to registered listeners as a single ordered Event stream.
type Source struct {
	contract *swapescrow.SwapEscrow
	log      *logging.Logger

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// NewSource builds an event source bound to an already-connected
// SwapEscrow contract instance.
func NewSource(contract *swapescrow.SwapEscrow, log *logging.Logger) *Source {
	return &Source{
		contract:  contract,
		log:       log,
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers a listener and returns an unsubscribe function.
// Both operations are synchronous: once Subscribe returns, the listener
// is guaranteed to see every subsequent dispatch; once unsubscribe
// returns, it's guaranteed to see no further ones.
func (s *Source) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// dispatch awaits every registered listener in turn before returning,
// guaranteeing at most one event batch is ever in flight per listener.
func (s *Source) dispatch(ctx context.Context, ev Event) {
	s.mu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(ctx, ev)
	}
}

// Run subscribes to the underlying contract's three log types and
// dispatches decoded events until ctx is cancelled.
func (s *Source) Run(ctx context.Context) error {
	initCh := make(chan *swapescrow.SwapEscrowInitialize, 32)
	claimCh := make(chan *swapescrow.SwapEscrowClaim, 32)
	refundCh := make(chan *swapescrow.SwapEscrowRefund, 32)

	initSub, err := s.contract.WatchInitialize(&bind.WatchOpts{Context: ctx}, initCh, nil)
	if err != nil {
		return fmt.Errorf("events: watch initialize: %w", err)
	}
	defer initSub.Unsubscribe()

	claimSub, err := s.contract.WatchClaim(&bind.WatchOpts{Context: ctx}, claimCh, nil)
	if err != nil {
		return fmt.Errorf("events: watch claim: %w", err)
	}
	defer claimSub.Unsubscribe()

	refundSub, err := s.contract.WatchRefund(&bind.WatchOpts{Context: ctx}, refundCh, nil)
	if err != nil {
		return fmt.Errorf("events: watch refund: %w", err)
	}
	defer refundSub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw := <-initCh:
			s.dispatch(ctx, Event{
				Kind:        KindInitialize,
				PaymentHash: raw.PaymentHash,
				Raw:         raw.Raw,
				Initialize: InitializeData{
					Sequence:        raw.Sequence,
					TxoHash:         raw.TxoHash,
					Index:           raw.Index,
					SwapDataFetcher: raw.SwapDataFetcher,
				},
			})

		case raw := <-claimCh:
			s.dispatch(ctx, Event{
				Kind:        KindClaim,
				PaymentHash: raw.PaymentHash,
				Raw:         raw.Raw,
				Claim: ClaimData{
					Sequence: raw.Sequence,
					Secret:   raw.Secret,
				},
			})

		case raw := <-refundCh:
			s.dispatch(ctx, Event{
				Kind:        KindRefund,
				PaymentHash: raw.PaymentHash,
				Raw:         raw.Raw,
				Refund: RefundData{
					Sequence: raw.Sequence,
				},
			})

		case err := <-initSub.Err():
			return fmt.Errorf("events: initialize subscription: %w", err)
		case err := <-claimSub.Err():
			return fmt.Errorf("events: claim subscription: %w", err)
		case err := <-refundSub.Err():
			return fmt.Errorf("events: refund subscription: %w", err)
		}
	}
}

// FetchHistory replays every Initialize/Claim/Refund log in
// [fromBlock, toBlock] in log order, for a caller that needs history
// the live subscription missed. The relay client and Engine.Sync do
// not call it: the relay scans its own logs through relay.LogSource,
// and Sync replays only events queued during reconciliation.
func (s *Source) FetchHistory(ctx context.Context, fromBlock, toBlock uint64) ([]Event, error) {
	opts := &bind.FilterOpts{Start: fromBlock, End: &toBlock, Context: ctx}

	var out []Event

	initIter, err := s.contract.FilterInitialize(opts, nil)
	if err != nil {
		return nil, fmt.Errorf("events: filter initialize: %w", err)
	}
	for initIter.Next() {
		ev := initIter.Event
		out = append(out, Event{
			Kind:        KindInitialize,
			PaymentHash: ev.PaymentHash,
			Raw:         ev.Raw,
			Initialize: InitializeData{
				Sequence:        ev.Sequence,
				TxoHash:         ev.TxoHash,
				Index:           ev.Index,
				SwapDataFetcher: ev.SwapDataFetcher,
			},
		})
	}
	if err := initIter.Error(); err != nil {
		return nil, fmt.Errorf("events: iterate initialize: %w", err)
	}
	initIter.Close()

	claimIter, err := s.contract.FilterClaim(opts, nil)
	if err != nil {
		return nil, fmt.Errorf("events: filter claim: %w", err)
	}
	for claimIter.Next() {
		ev := claimIter.Event
		out = append(out, Event{
			Kind:        KindClaim,
			PaymentHash: ev.PaymentHash,
			Raw:         ev.Raw,
			Claim:       ClaimData{Sequence: ev.Sequence, Secret: ev.Secret},
		})
	}
	if err := claimIter.Error(); err != nil {
		return nil, fmt.Errorf("events: iterate claim: %w", err)
	}
	claimIter.Close()

	refundIter, err := s.contract.FilterRefund(opts, nil)
	if err != nil {
		return nil, fmt.Errorf("events: filter refund: %w", err)
	}
	for refundIter.Next() {
		ev := refundIter.Event
		out = append(out, Event{
			Kind:        KindRefund,
			PaymentHash: ev.PaymentHash,
			Raw:         ev.Raw,
			Refund:      RefundData{Sequence: ev.Sequence},
		})
	}
	if err := refundIter.Error(); err != nil {
		return nil, fmt.Errorf("events: iterate refund: %w", err)
	}
	refundIter.Close()

	sortEventsByLogOrder(out)
	return out, nil
}

func sortEventsByLogOrder(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Raw.BlockNumber != events[j].Raw.BlockNumber {
			return events[i].Raw.BlockNumber < events[j].Raw.BlockNumber
		}
		return events[i].Raw.Index < events[j].Raw.Index
	})
}

// DecodeLog converts a single historical log entry into an Event,
// dispatching on its signature rather than on the log stream — used
// when a caller already has one log (e.g. from a transaction receipt)
// and doesn't need a ranged FetchHistory scan.
func (s *Source) DecodeLog(log types.Log) (Event, error) {
	if init, err := s.contract.ParseInitialize(log); err == nil {
		return Event{
			Kind:        KindInitialize,
			PaymentHash: init.PaymentHash,
			Raw:         init.Raw,
			Initialize: InitializeData{
				Sequence:        init.Sequence,
				TxoHash:         init.TxoHash,
				Index:           init.Index,
				SwapDataFetcher: init.SwapDataFetcher,
			},
		}, nil
	}
	if claim, err := s.contract.ParseClaim(log); err == nil {
		return Event{
			Kind:        KindClaim,
			PaymentHash: claim.PaymentHash,
			Raw:         claim.Raw,
			Claim:       ClaimData{Sequence: claim.Sequence, Secret: claim.Secret},
		}, nil
	}
	if refund, err := s.contract.ParseRefund(log); err == nil {
		return Event{
			Kind:        KindRefund,
			PaymentHash: refund.PaymentHash,
			Raw:         refund.Raw,
			Refund:      RefundData{Sequence: refund.Sequence},
		}, nil
	}
	return Event{}, fmt.Errorf("events: log does not match Initialize/Claim/Refund signature")
}
