package swap

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/klingon-exchange/btcrelay-swap/internal/auth"
	"github.com/klingon-exchange/btcrelay-swap/internal/commitment"
	"github.com/klingon-exchange/btcrelay-swap/internal/config"
	"github.com/klingon-exchange/btcrelay-swap/internal/contracts/swapescrow"
	"github.com/klingon-exchange/btcrelay-swap/internal/events"
	"github.com/klingon-exchange/btcrelay-swap/internal/storage"
	"github.com/klingon-exchange/btcrelay-swap/internal/swaperr"
	"github.com/klingon-exchange/btcrelay-swap/pkg/logging"
)

// fakeChain is a CommitStatusReader returning a fixed status and
// on-chain index, or an error if set.
type fakeChain struct {
	status swapescrow.CommitStatus
	index  uint8
	err    error
}

func (f *fakeChain) GetCommitStatus(ctx context.Context, r *commitment.Record, expiry uint64, caller common.Address, now time.Time, refundGrace time.Duration) (swapescrow.CommitStatus, uint8, error) {
	return f.status, f.index, f.err
}

// fakeIntermediary is an Intermediary returning a fixed result, or an
// error if set.
type fakeIntermediary struct {
	result *PaymentAuthResult
	err    error
}

func (f *fakeIntermediary) GetPaymentAuthorization(ctx context.Context, req PaymentAuthRequest) (*PaymentAuthResult, error) {
	return f.result, f.err
}

func newTestStore(t *testing.T) *storage.Storage {
	t.Helper()
	dir, err := os.MkdirTemp("", "btcrelay-swap-engine-test-*")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	store, err := storage.New(&storage.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func newTestRecord(paymentHashByte byte, offerer common.Address) *storage.SwapRecord {
	var ph [32]byte
	ph[0] = paymentHashByte
	return &storage.SwapRecord{
		Type:        "HTLC",
		Offerer:     offerer,
		Claimer:     common.HexToAddress("0x00000000000000000000000000000000000002"),
		Token:       common.Address{},
		Amount:      big.NewInt(1000),
		PaymentHash: ph,
		State:       storage.StatePRCreated,
	}
}

func newEngine(t *testing.T, chain CommitStatusReader, intermediary Intermediary) (*Engine, *storage.Storage) {
	t.Helper()
	store := newTestStore(t)
	e := NewEngine(Deps{
		Store:          store,
		Chain:          chain,
		Intermediary:   intermediary,
		DecodeSwapData: commitment.DecodeTuple,
		Config:         config.DefaultEngineConfig(),
		Grace:          config.DefaultGracePeriods(),
		Log:            logging.New(&logging.Config{Level: "error"}),
	})
	t.Cleanup(e.Close)
	return e, store
}

func TestCreateSwapPersistsAndEmits(t *testing.T) {
	e, store := newEngine(t, &fakeChain{}, &fakeIntermediary{})
	rec := newTestRecord(1, common.Address{})

	var gotEvents []EngineEvent
	e.OnEvent(func(ctx context.Context, ev EngineEvent) {
		gotEvents = append(gotEvents, ev)
	})

	if err := e.CreateSwap(context.Background(), rec); err != nil {
		t.Fatalf("CreateSwap: %v", err)
	}

	if len(gotEvents) != 1 || gotEvents[0].NewState != storage.StatePRCreated {
		t.Fatalf("expected one PR_CREATED event, got %+v", gotEvents)
	}

	loaded, err := store.LoadSwap(rec.PaymentHash)
	if err != nil {
		t.Fatalf("LoadSwap: %v", err)
	}
	if loaded.State != storage.StatePRCreated {
		t.Fatalf("persisted state = %s, want PR_CREATED", loaded.State)
	}

	if err := e.CreateSwap(context.Background(), newTestRecord(1, common.Address{})); err == nil {
		t.Fatal("expected duplicate CreateSwap to fail")
	}
}

func TestReconcilePRCreatedExpiresOnTimeout(t *testing.T) {
	e, _ := newEngine(t, &fakeChain{}, &fakeIntermediary{})
	rec := newTestRecord(2, common.Address{})
	rec.Timeout = uint64(time.Now().Add(-time.Hour).Unix())

	if err := e.CreateSwap(context.Background(), rec); err != nil {
		t.Fatalf("CreateSwap: %v", err)
	}
	if err := e.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	got, ok := e.GetSwap(rec.PaymentHash)
	if !ok {
		t.Fatal("swap not found after sync")
	}
	if got.State != storage.StateExpired {
		t.Fatalf("state = %s, want EXPIRED", got.State)
	}
}

func TestReconcilePRCreatedTransitionsToPRPaid(t *testing.T) {
	key := testKey(t)
	signer := crypto.PubkeyToAddress(key.PublicKey)
	offerer := signer

	rec := newTestRecord(3, offerer)
	rec.Timeout = uint64(time.Now().Add(time.Hour).Unix())

	authz, err := auth.Sign(key, auth.PrefixInitialize, rec.PaymentHash, uint64(time.Now().Add(time.Hour).Unix()))
	if err != nil {
		t.Fatalf("auth.Sign: %v", err)
	}

	intermediary := &fakeIntermediary{result: &PaymentAuthResult{
		IsPaid:        true,
		Authorization: authz,
		Expiry:        uint64(time.Now().Add(2 * time.Hour).Unix()),
		Record: &commitment.Record{
			Amount:          big.NewInt(2000),
			Data:            big.NewInt(0),
			SecurityDeposit: big.NewInt(0),
			ClaimerBounty:   big.NewInt(0),
		},
	}}

	e, _ := newEngine(t, &fakeChain{status: swapescrow.StatusNotCommitted}, intermediary)
	if err := e.CreateSwap(context.Background(), rec); err != nil {
		t.Fatalf("CreateSwap: %v", err)
	}
	if err := e.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	got, _ := e.GetSwap(rec.PaymentHash)
	if got.State != storage.StatePRPaid {
		t.Fatalf("state = %s, want PR_PAID", got.State)
	}
	if got.Signature == nil || got.Signature.V != authz.Signature.V {
		t.Fatalf("signature not persisted: %+v", got.Signature)
	}
	if signer != offerer {
		t.Fatalf("test setup: signer %s does not match offerer %s", signer, offerer)
	}
}

func TestReconcilePRCreatedExpiresOnPaymentAuthError(t *testing.T) {
	rec := newTestRecord(4, common.Address{})
	rec.Timeout = uint64(time.Now().Add(time.Hour).Unix())

	e, _ := newEngine(t, &fakeChain{}, &fakeIntermediary{err: swaperr.ErrPaymentAuth})
	if err := e.CreateSwap(context.Background(), rec); err != nil {
		t.Fatalf("CreateSwap: %v", err)
	}
	if err := e.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	got, _ := e.GetSwap(rec.PaymentHash)
	if got.State != storage.StateExpired {
		t.Fatalf("state = %s, want EXPIRED", got.State)
	}
}

func TestReconcilePRPaidFollowsCommitStatus(t *testing.T) {
	cases := []struct {
		name   string
		status swapescrow.CommitStatus
		want   storage.EngineState
	}{
		{"paid", swapescrow.StatusPaid, storage.StateClaimClaimed},
		{"expired", swapescrow.StatusExpired, storage.StateExpired},
		{"committed", swapescrow.StatusCommitted, storage.StateClaimCommitted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := newTestRecord(5, common.Address{})
			rec.State = storage.StatePRPaid
			rec.Expiry = uint64(time.Now().Add(time.Hour).Unix())

			e, _ := newEngine(t, &fakeChain{status: tc.status}, &fakeIntermediary{})
			if err := e.CreateSwap(context.Background(), rec); err != nil {
				t.Fatalf("CreateSwap: %v", err)
			}
			if err := e.Sync(context.Background()); err != nil {
				t.Fatalf("Sync: %v", err)
			}

			got, _ := e.GetSwap(rec.PaymentHash)
			if got.State != tc.want {
				t.Fatalf("state = %s, want %s", got.State, tc.want)
			}
		})
	}
}

func TestReconcilePRPaidExpiresOnBadSignature(t *testing.T) {
	rec := newTestRecord(6, common.Address{})
	rec.State = storage.StatePRPaid
	rec.Expiry = uint64(time.Now().Add(time.Hour).Unix())
	rec.Prefix = auth.PrefixInitialize
	rec.Timeout = uint64(time.Now().Add(time.Hour).Unix())
	rec.Signature = &auth.Signature{V: 27} // garbage, won't recover a valid signer

	e, _ := newEngine(t, &fakeChain{status: swapescrow.StatusNotCommitted}, &fakeIntermediary{})
	if err := e.CreateSwap(context.Background(), rec); err != nil {
		t.Fatalf("CreateSwap: %v", err)
	}
	if err := e.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	got, _ := e.GetSwap(rec.PaymentHash)
	if got.State != storage.StateExpired {
		t.Fatalf("state = %s, want EXPIRED", got.State)
	}
}

func TestReconcilePRPaidRejectsNonceMismatch(t *testing.T) {
	key := testKey(t)
	signer := crypto.PubkeyToAddress(key.PublicKey)
	offerer := signer
	if signer != offerer {
		t.Fatalf("test setup: signer %s does not match offerer %s", signer, offerer)
	}

	rec := newTestRecord(8, offerer)
	rec.State = storage.StatePRPaid
	rec.Expiry = uint64(time.Now().Add(time.Hour).Unix())
	rec.Timeout = uint64(time.Now().Add(time.Hour).Unix())
	rec.Data = commitment.Pack(commitment.DataFields{Index: 5})

	authz, err := auth.Sign(key, auth.PrefixInitialize, rec.PaymentHash, rec.Timeout)
	if err != nil {
		t.Fatalf("auth.Sign: %v", err)
	}
	rec.Prefix = authz.Prefix
	rec.Signature = &authz.Signature

	// The contract's current commitment nonce (9) has moved past the
	// index (5) the authorization was signed against.
	e, _ := newEngine(t, &fakeChain{status: swapescrow.StatusNotCommitted, index: 9}, &fakeIntermediary{})
	if err := e.CreateSwap(context.Background(), rec); err != nil {
		t.Fatalf("CreateSwap: %v", err)
	}
	if err := e.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	got, _ := e.GetSwap(rec.PaymentHash)
	if got.State != storage.StateExpired {
		t.Fatalf("state = %s, want EXPIRED", got.State)
	}
}

func TestReconcilePRPaidAcceptsMatchingNonce(t *testing.T) {
	key := testKey(t)
	signer := crypto.PubkeyToAddress(key.PublicKey)
	offerer := signer
	if signer != offerer {
		t.Fatalf("test setup: signer %s does not match offerer %s", signer, offerer)
	}

	rec := newTestRecord(9, offerer)
	rec.State = storage.StatePRPaid
	rec.Expiry = uint64(time.Now().Add(time.Hour).Unix())
	rec.Timeout = uint64(time.Now().Add(time.Hour).Unix())
	rec.Data = commitment.Pack(commitment.DataFields{Index: 5})

	authz, err := auth.Sign(key, auth.PrefixInitialize, rec.PaymentHash, rec.Timeout)
	if err != nil {
		t.Fatalf("auth.Sign: %v", err)
	}
	rec.Prefix = authz.Prefix
	rec.Signature = &authz.Signature

	e, _ := newEngine(t, &fakeChain{status: swapescrow.StatusNotCommitted, index: 5}, &fakeIntermediary{})
	if err := e.CreateSwap(context.Background(), rec); err != nil {
		t.Fatalf("CreateSwap: %v", err)
	}
	if err := e.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	got, _ := e.GetSwap(rec.PaymentHash)
	if got.State != storage.StatePRPaid {
		t.Fatalf("state = %s, want PR_PAID (nonce matched, should not expire)", got.State)
	}
}

func TestReconcileClaimCommittedFollowsCommitStatus(t *testing.T) {
	cases := []struct {
		name   string
		status swapescrow.CommitStatus
		want   storage.EngineState
	}{
		{"paid", swapescrow.StatusPaid, storage.StateClaimClaimed},
		{"not_committed", swapescrow.StatusNotCommitted, storage.StateFailed},
		{"expired", swapescrow.StatusExpired, storage.StateFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := newTestRecord(7, common.Address{})
			rec.State = storage.StateClaimCommitted

			e, _ := newEngine(t, &fakeChain{status: tc.status}, &fakeIntermediary{})
			if err := e.CreateSwap(context.Background(), rec); err != nil {
				t.Fatalf("CreateSwap: %v", err)
			}
			if err := e.Sync(context.Background()); err != nil {
				t.Fatalf("Sync: %v", err)
			}

			got, _ := e.GetSwap(rec.PaymentHash)
			if got.State != tc.want {
				t.Fatalf("state = %s, want %s", got.State, tc.want)
			}
		})
	}
}

func TestHandleInitializeTransitionsAndStoresData(t *testing.T) {
	rec := newTestRecord(8, common.Address{})
	rec.State = storage.StatePRPaid

	e, _ := newEngine(t, &fakeChain{}, &fakeIntermediary{})
	if err := e.CreateSwap(context.Background(), rec); err != nil {
		t.Fatalf("CreateSwap: %v", err)
	}

	decoded := &commitment.Record{
		Offerer:         rec.Offerer,
		Claimer:         rec.Claimer,
		Token:           rec.Token,
		Amount:          big.NewInt(500),
		PaymentHash:     rec.PaymentHash,
		Data:            commitment.Pack(commitment.DataFields{Expiry: 12345}),
		SecurityDeposit: big.NewInt(0),
		ClaimerBounty:   big.NewInt(0),
	}
	packed, err := commitment.EncodeTuple(decoded)
	if err != nil {
		t.Fatalf("pack tuple: %v", err)
	}

	e.HandleEvent(context.Background(), events.Event{
		Kind:        events.KindInitialize,
		PaymentHash: rec.PaymentHash,
		Raw:         types.Log{TxHash: common.HexToHash("0xaa")},
		Initialize: events.InitializeData{
			SwapDataFetcher: packed,
		},
	})

	got, _ := e.GetSwap(rec.PaymentHash)
	if got.State != storage.StateClaimCommitted {
		t.Fatalf("state = %s, want CLAIM_COMMITTED", got.State)
	}
	if got.Amount.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("amount = %s, want 500", got.Amount)
	}
}

func TestHandleInitializeDropsOnMismatch(t *testing.T) {
	rec := newTestRecord(9, common.Address{})
	rec.State = storage.StatePRPaid
	rec.Amount = big.NewInt(999) // pre-existing non-zero data
	rec.Data = big.NewInt(1)

	e, _ := newEngine(t, &fakeChain{}, &fakeIntermediary{})
	if err := e.CreateSwap(context.Background(), rec); err != nil {
		t.Fatalf("CreateSwap: %v", err)
	}

	decoded := &commitment.Record{
		Offerer:         rec.Offerer,
		Claimer:         rec.Claimer,
		Token:           rec.Token,
		Amount:          big.NewInt(500), // mismatches persisted Amount
		PaymentHash:     rec.PaymentHash,
		Data:            big.NewInt(2),
		SecurityDeposit: big.NewInt(0),
		ClaimerBounty:   big.NewInt(0),
	}
	packed, err := commitment.EncodeTuple(decoded)
	if err != nil {
		t.Fatalf("pack tuple: %v", err)
	}

	e.HandleEvent(context.Background(), events.Event{
		Kind:        events.KindInitialize,
		PaymentHash: rec.PaymentHash,
		Initialize:  events.InitializeData{SwapDataFetcher: packed},
	})

	got, _ := e.GetSwap(rec.PaymentHash)
	if got.State != storage.StatePRPaid {
		t.Fatalf("state = %s, want unchanged PR_PAID on mismatch", got.State)
	}
}

func TestHandleClaimTransitionsToClaimClaimed(t *testing.T) {
	rec := newTestRecord(10, common.Address{})
	rec.State = storage.StateClaimCommitted

	e, _ := newEngine(t, &fakeChain{}, &fakeIntermediary{})
	if err := e.CreateSwap(context.Background(), rec); err != nil {
		t.Fatalf("CreateSwap: %v", err)
	}

	e.HandleEvent(context.Background(), events.Event{
		Kind:        events.KindClaim,
		PaymentHash: rec.PaymentHash,
		Raw:         types.Log{TxHash: common.HexToHash("0xbb")},
	})

	got, _ := e.GetSwap(rec.PaymentHash)
	if got.State != storage.StateClaimClaimed {
		t.Fatalf("state = %s, want CLAIM_CLAIMED", got.State)
	}
	if got.ClaimTxID == "" {
		t.Fatal("expected ClaimTxID to be recorded")
	}
}

func TestHandleRefundTransitionsToFailed(t *testing.T) {
	rec := newTestRecord(11, common.Address{})
	rec.State = storage.StatePRPaid

	e, _ := newEngine(t, &fakeChain{}, &fakeIntermediary{})
	if err := e.CreateSwap(context.Background(), rec); err != nil {
		t.Fatalf("CreateSwap: %v", err)
	}

	e.HandleEvent(context.Background(), events.Event{
		Kind:        events.KindRefund,
		PaymentHash: rec.PaymentHash,
	})

	got, _ := e.GetSwap(rec.PaymentHash)
	if got.State != storage.StateFailed {
		t.Fatalf("state = %s, want FAILED", got.State)
	}
}

func TestSyncBuffersEventsUntilReconciliationCompletes(t *testing.T) {
	rec := newTestRecord(12, common.Address{})
	rec.State = storage.StatePRPaid

	e, _ := newEngine(t, &fakeChain{status: swapescrow.StatusNotCommitted}, &fakeIntermediary{})
	if err := e.CreateSwap(context.Background(), rec); err != nil {
		t.Fatalf("CreateSwap: %v", err)
	}

	// Queue an event manually, simulating one arriving mid-reconciliation,
	// then run Sync so its drain path replays the queued Claim once
	// reconciliation completes.
	e.queueMu.Lock()
	e.queueing = true
	e.queue = append(e.queue, events.Event{Kind: events.KindClaim, PaymentHash: rec.PaymentHash})
	e.queueMu.Unlock()

	if err := e.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	got, _ := e.GetSwap(rec.PaymentHash)
	if got.State != storage.StateClaimClaimed {
		t.Fatalf("state = %s, want CLAIM_CLAIMED (queued Claim should have been replayed)", got.State)
	}
}

func TestWaitForPaymentResolvesOnTargetConfirmations(t *testing.T) {
	rec := newTestRecord(13, common.Address{})
	rec.State = storage.StatePRPaid
	rec.CommitTxID = "0xcc"

	e, _ := newEngine(t, &fakeChain{}, &fakeIntermediary{})
	if err := e.CreateSwap(context.Background(), rec); err != nil {
		t.Fatalf("CreateSwap: %v", err)
	}

	var updates []PaymentUpdate
	confs := &stepConfirmations{steps: []uint32{0, 1, 3}}
	err := e.WaitForPayment(context.Background(), rec.PaymentHash, confs, 3, 10*time.Millisecond, func(u PaymentUpdate) {
		updates = append(updates, u)
	})
	if err != nil {
		t.Fatalf("WaitForPayment: %v", err)
	}
	if len(updates) == 0 || updates[len(updates)-1].Confirmations != 3 {
		t.Fatalf("expected final update with 3 confirmations, got %+v", updates)
	}
}

func TestWaitForPaymentCancels(t *testing.T) {
	rec := newTestRecord(14, common.Address{})
	rec.State = storage.StatePRPaid
	rec.CommitTxID = "0xdd"

	e, _ := newEngine(t, &fakeChain{}, &fakeIntermediary{})
	if err := e.CreateSwap(context.Background(), rec); err != nil {
		t.Fatalf("CreateSwap: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	confs := &stepConfirmations{steps: []uint32{0}}
	err := e.WaitForPayment(ctx, rec.PaymentHash, confs, 3, 10*time.Millisecond, nil)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestPurgeTerminalRemovesOnlyTerminalSwaps(t *testing.T) {
	active := newTestRecord(15, common.Address{})
	active.State = storage.StatePRPaid
	done := newTestRecord(16, common.Address{})
	done.State = storage.StateClaimClaimed

	e, store := newEngine(t, &fakeChain{}, &fakeIntermediary{})
	if err := e.CreateSwap(context.Background(), active); err != nil {
		t.Fatalf("CreateSwap: %v", err)
	}
	if err := e.CreateSwap(context.Background(), done); err != nil {
		t.Fatalf("CreateSwap: %v", err)
	}

	n, err := e.PurgeTerminal(context.Background())
	if err != nil {
		t.Fatalf("PurgeTerminal: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged = %d, want 1", n)
	}

	if _, ok := e.GetSwap(done.PaymentHash); ok {
		t.Fatal("terminal swap should be gone from memory")
	}
	if _, err := store.LoadSwap(done.PaymentHash); err == nil {
		t.Fatal("terminal swap should be gone from storage")
	}
	if _, ok := e.GetSwap(active.PaymentHash); !ok {
		t.Fatal("active swap should still be tracked")
	}
}

// stepConfirmations reports an increasing confirmation count on each
// call, simulating a transaction accumulating confirmations over polls.
type stepConfirmations struct {
	steps []uint32
	i     int
}

func (s *stepConfirmations) Confirmations(ctx context.Context, txID string) (uint32, error) {
	if s.i >= len(s.steps) {
		s.i = len(s.steps) - 1
	}
	v := s.steps[s.i]
	s.i++
	return v, nil
}
