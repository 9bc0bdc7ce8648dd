// Package relay implements the BTC Relay client described in spec §4.B:
// reading the contract's tip, submitting precomputed stored-header
// chains for the main chain and for forks, paginated backward log
// search for a specific commitment, and synchronization fee estimates.
//
// Header bookkeeping (chain work, epoch boundaries, prev_timestamps) is
// precomputed off-chain with internal/header.ComputeNext so a caller can
// inspect the resulting Stored chain before ever sending a transaction;
// only the raw headers cross the wire, exactly as the contract expects.
package relay

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"

	"github.com/klingon-exchange/btcrelay-swap/internal/config"
	"github.com/klingon-exchange/btcrelay-swap/internal/contracts/btcrelay"
	"github.com/klingon-exchange/btcrelay-swap/internal/header"
	"github.com/klingon-exchange/btcrelay-swap/internal/swaperr"
)

// Tip is the decoded result of the contract's getTip() read.
type Tip struct {
	CommitHash [32]byte
	ChainWork  *uint256.Int
	Height     uint32
}

// LogKind tags which event a RelayLog was decoded from — a store onto
// the main chain or a store onto a fork. A single tagged struct is used
// throughout this package instead of two parallel slice types, so
// callers switch on Kind rather than type-asserting.
type LogKind uint8

const (
	LogKindMain LogKind = iota
	LogKindFork
)

func (k LogKind) String() string {
	switch k {
	case LogKindMain:
		return "main"
	case LogKindFork:
		return "fork"
	default:
		return "unknown"
	}
}

// RelayLog is a decoded StoreHeader or StoreFork event, normalized to a
// single shape. ForkId is the zero value for LogKindMain.
type RelayLog struct {
	Kind        LogKind
	BlockHash   [32]byte
	Height      uint32
	CommitHash  [32]byte
	ForkId      *big.Int
	BlockNumber uint64
	TxHash      common.Hash
}

// LogSource abstracts the EVM-RPC calls the paginated log scan needs
// (current block height, windowed log filters, and the contract's
// per-height commitment read used to confirm a log survived) so the
// scan logic can be exercised against a fake in tests without a live
// RPC endpoint or a deployed contract.
type LogSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterStoreHeader(ctx context.Context, fromBlock, toBlock uint64) ([]RelayLog, error)
	FilterStoreFork(ctx context.Context, fromBlock, toBlock uint64) ([]RelayLog, error)
	CommitmentAt(ctx context.Context, height uint32) ([32]byte, error)
}

// BitcoinRPC abstracts the Bitcoin-side reads RetrieveLatestKnownBlockLog
// needs to independently confirm a logged block is still on Bitcoin's
// main chain. No concrete adapter ships in this module — a real Bitcoin
// node belongs to whoever drives header submission, which is out of
// scope here — so callers that need RetrieveLatestKnownBlockLog supply
// their own implementation via SetBitcoinRPC.
type BitcoinRPC interface {
	GetBlockHeader(ctx context.Context, hash [32]byte) (*BitcoinBlockHeader, error)
	IsInMainChain(ctx context.Context, hash [32]byte) (bool, error)
	GetMerkleProof(ctx context.Context, txid, blockHash [32]byte) (*MerkleProof, error)
}

// BitcoinBlockHeader is the subset of Bitcoin's getblockheader result
// the relay client needs.
type BitcoinBlockHeader struct {
	Hash   [32]byte
	Height uint32
}

// MerkleProof is get_merkle_proof's result: a transaction's position
// within its block plus the sibling hashes needed to recompute the
// merkle root, for SPV claim construction (component E).
type MerkleProof struct {
	BlockHeight uint32
	Pos         uint32
	Merkle      [][32]byte
}

// contractLogSource is the production LogSource, backed by the
// generated BTCRelay filterer.
type contractLogSource struct {
	backend  *ethclient.Client
	contract *btcrelay.BTCRelay
}

func (s *contractLogSource) CommitmentAt(ctx context.Context, height uint32) ([32]byte, error) {
	return s.contract.CommitmentAt(&bind.CallOpts{Context: ctx}, height)
}

func (s *contractLogSource) BlockNumber(ctx context.Context) (uint64, error) {
	return s.backend.BlockNumber(ctx)
}

func (s *contractLogSource) FilterStoreHeader(ctx context.Context, fromBlock, toBlock uint64) ([]RelayLog, error) {
	it, err := s.contract.FilterStoreHeader(&bind.FilterOpts{Start: fromBlock, End: &toBlock, Context: ctx}, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []RelayLog
	for it.Next() {
		ev := it.Event
		out = append(out, RelayLog{
			Kind:        LogKindMain,
			BlockHash:   ev.BlockHash,
			Height:      ev.Height,
			CommitHash:  ev.CommitHash,
			BlockNumber: ev.Raw.BlockNumber,
			TxHash:      ev.Raw.TxHash,
		})
	}
	return out, it.Error()
}

func (s *contractLogSource) FilterStoreFork(ctx context.Context, fromBlock, toBlock uint64) ([]RelayLog, error) {
	it, err := s.contract.FilterStoreFork(&bind.FilterOpts{Start: fromBlock, End: &toBlock, Context: ctx}, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []RelayLog
	for it.Next() {
		ev := it.Event
		out = append(out, RelayLog{
			Kind:        LogKindFork,
			BlockHash:   ev.BlockHash,
			Height:      ev.Height,
			CommitHash:  ev.CommitHash,
			ForkId:      ev.ForkId,
			BlockNumber: ev.Raw.BlockNumber,
			TxHash:      ev.Raw.TxHash,
		})
	}
	return out, it.Error()
}

// Client wraps the BTCRelay contract with the off-chain bookkeeping
// spec §4.B needs: tip reads, unsigned submission builders, paginated
// log search, and fee estimation.
type Client struct {
	backend  *ethclient.Client
	contract *btcrelay.BTCRelay
	address  common.Address
	logs     LogSource
	btc      BitcoinRPC
	tip      TipReader
	cfg      config.RelayConfig
}

// TipReader abstracts the contract's getTip() read that the retrieve_*
// operations use to bound their search and short-circuit, so they can
// be exercised against a fake tip in tests independently of LogSource.
type TipReader interface {
	GetTip(ctx context.Context) (*Tip, error)
}

// SetBitcoinRPC wires a BitcoinRPC implementation for
// RetrieveLatestKnownBlockLog's main-chain check. Optional: a Client
// with no BitcoinRPC configured can still serve every other operation.
func (c *Client) SetBitcoinRPC(btc BitcoinRPC) { c.btc = btc }

// NewClient dials rpcURL and binds to the BTCRelay contract at address.
func NewClient(ctx context.Context, rpcURL string, address common.Address, cfg config.RelayConfig) (*Client, error) {
	backend, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("relay: dial: %w", err)
	}
	contract, err := btcrelay.NewBTCRelay(address, backend)
	if err != nil {
		return nil, fmt.Errorf("relay: bind: %w", err)
	}
	c := &Client{
		backend:  backend,
		contract: contract,
		address:  address,
		logs:     &contractLogSource{backend: backend, contract: contract},
		cfg:      cfg,
	}
	c.tip = c
	return c, nil
}

// Close closes the underlying RPC connection.
func (c *Client) Close() { c.backend.Close() }

// =============================================================================
// get_tip
// =============================================================================

// GetTip reads the contract's current tip slot.
func (c *Client) GetTip(ctx context.Context) (*Tip, error) {
	res, err := c.contract.GetTip(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, fmt.Errorf("relay: get tip: %w", err)
	}
	return &Tip{
		CommitHash: res.CommitHash,
		ChainWork:  new(uint256.Int).SetBytes(res.ChainWork.Bytes()),
		Height:     res.Height,
	}, nil
}

// =============================================================================
// Unsigned transaction construction
// =============================================================================

// unsignedTxOpts mirrors internal/contracts/swapescrow's construction:
// the resulting *types.Transaction carries calldata, gas, nonce and fee
// fields but no valid signature, since the relay submitter signs out of
// band.
func (c *Client) unsignedTxOpts(ctx context.Context, from common.Address, gasLimit uint64) (*bind.TransactOpts, error) {
	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("relay: nonce: %w", err)
	}
	tipCap, err := c.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("relay: gas tip cap: %w", err)
	}
	head, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("relay: head header: %w", err)
	}
	feeCap := new(big.Int).Add(tipCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	return &bind.TransactOpts{
		From:      from,
		Nonce:     new(big.Int).SetUint64(nonce),
		GasLimit:  gasLimit,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Context:   ctx,
		NoSend:    true,
		Signer: func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
			return tx, nil
		},
	}, nil
}

// SaveInitialHeader constructs the unsigned genesis-of-relay
// transaction. prevTimestamps must carry exactly 10 entries — the
// contract's median-time-past window — or this returns
// swaperr.ErrInvalidArgument without touching the network.
func (c *Client) SaveInitialHeader(ctx context.Context, from common.Address, raw *header.Raw, height uint32, chainWork *uint256.Int, epochStart uint32, prevTimestamps []uint32) (*types.Transaction, error) {
	if len(prevTimestamps) != 10 {
		return nil, fmt.Errorf("%w: prev_timestamps must have exactly 10 entries, got %d", swaperr.ErrInvalidArgument, len(prevTimestamps))
	}
	var arr [10]uint32
	copy(arr[:], prevTimestamps)

	opts, err := c.unsignedTxOpts(ctx, from, c.cfg.GasInitialHeader)
	if err != nil {
		return nil, err
	}
	return c.contract.SaveInitialHeader(opts, raw.Serialize(), height, chainWork.ToBig(), epochStart, arr)
}

// SaveMainHeaders precomputes the Stored chain that must follow prev for
// each raw header in order, then constructs the unsigned
// saveMainHeaders transaction carrying just the raw headers. The
// precomputed chain is returned so the caller can persist it (or verify
// it against a later tip read) without re-deriving it.
func (c *Client) SaveMainHeaders(ctx context.Context, from common.Address, prev *header.Stored, raws []*header.Raw) (*types.Transaction, []*header.Stored, error) {
	computed, err := precomputeChain(prev, raws)
	if err != nil {
		return nil, nil, err
	}

	gas := c.cfg.GasMainHeaderBase + c.cfg.GasMainHeaderPerHeader*uint64(len(raws))
	opts, err := c.unsignedTxOpts(ctx, from, gas)
	if err != nil {
		return nil, nil, err
	}

	tx, err := c.contract.SaveMainHeaders(opts, serializeRaws(raws))
	if err != nil {
		return nil, nil, err
	}
	return tx, computed, nil
}

// SaveNewForkHeaders precomputes the Stored chain for a brand-new fork
// rooted at forkBase, then constructs the unsigned saveNewForkHeaders
// transaction. The contract assigns the fork its id; the returned forkID
// is the client's best-effort local prediction (nextForkId()), except
// that per the spec's open-question resolution it is reported as 0
// whenever the precomputed tail work already exceeds the current tip
// work — in that case the contract is expected to promote the fork to
// the main chain atomically, and the client does not second-guess it.
func (c *Client) SaveNewForkHeaders(ctx context.Context, from common.Address, forkBase *header.Stored, raws []*header.Raw) (*types.Transaction, []*header.Stored, *big.Int, error) {
	computed, err := precomputeChain(forkBase, raws)
	if err != nil {
		return nil, nil, nil, err
	}

	tip, err := c.GetTip(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	forkID, err := c.contract.NextForkId(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("relay: next fork id: %w", err)
	}

	tailWork := computed[len(computed)-1].ChainWork
	if tailWork.Cmp(tip.ChainWork) > 0 {
		forkID = big.NewInt(0)
	}

	gas := c.cfg.GasNewForkBase + c.cfg.GasNewForkPerHeader*uint64(len(raws))
	opts, err := c.unsignedTxOpts(ctx, from, gas)
	if err != nil {
		return nil, nil, nil, err
	}

	tx, err := c.contract.SaveNewForkHeaders(opts, serializeRaws(raws), tip.ChainWork.ToBig())
	if err != nil {
		return nil, nil, nil, err
	}
	return tx, computed, forkID, nil
}

// SaveForkHeaders precomputes the Stored chain appended to an existing
// fork and constructs the unsigned saveForkHeaders transaction. forkID
// identifies the fork being extended; like SaveNewForkHeaders, the
// returned fork id is reported as 0 when the precomputed tail now
// outweighs the tip, signalling an expected atomic promotion.
func (c *Client) SaveForkHeaders(ctx context.Context, from common.Address, forkBase *header.Stored, raws []*header.Raw, forkID *big.Int) (*types.Transaction, []*header.Stored, *big.Int, error) {
	computed, err := precomputeChain(forkBase, raws)
	if err != nil {
		return nil, nil, nil, err
	}

	tip, err := c.GetTip(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	resolvedForkID := forkID
	tailWork := computed[len(computed)-1].ChainWork
	if tailWork.Cmp(tip.ChainWork) > 0 {
		resolvedForkID = big.NewInt(0)
	}

	gas := c.cfg.GasForkBase + c.cfg.GasForkPerHeader*uint64(len(raws))
	opts, err := c.unsignedTxOpts(ctx, from, gas)
	if err != nil {
		return nil, nil, nil, err
	}

	tx, err := c.contract.SaveForkHeaders(opts, serializeRaws(raws), forkID, tip.ChainWork.ToBig())
	if err != nil {
		return nil, nil, nil, err
	}
	return tx, computed, resolvedForkID, nil
}

func precomputeChain(prev *header.Stored, raws []*header.Raw) ([]*header.Stored, error) {
	if len(raws) == 0 {
		return nil, fmt.Errorf("%w: no headers to submit", swaperr.ErrInvalidArgument)
	}
	computed := make([]*header.Stored, 0, len(raws))
	cur := prev
	for _, raw := range raws {
		next, err := header.ComputeNext(cur, raw)
		if err != nil {
			return nil, fmt.Errorf("relay: precompute chain: %w", err)
		}
		computed = append(computed, next)
		cur = next
	}
	return computed, nil
}

func serializeRaws(raws []*header.Raw) [][]byte {
	out := make([][]byte, len(raws))
	for i, r := range raws {
		out[i] = r.Serialize()
	}
	return out
}

// =============================================================================
// Paginated backward log search (scenarios S2, S3)
// =============================================================================

// reverse32 reverses the byte order of a 32-byte hash. Block-hash fields
// are stored little-endian on chain (per the event encoding); this
// converts between that on-chain form and Bitcoin's canonical
// big-endian display/comparison form. The operation is its own inverse.
func reverse32(h [32]byte) [32]byte {
	for i, j := 0, 31; i < j; i, j = i+1, j-1 {
		h[i], h[j] = h[j], h[i]
	}
	return h
}

// scanBackward walks blocks [0, tip] in descending windows of
// cfg.LogBlocksLimit, returning the most recent log matching predicate
// for which verify also reports true. When a matching log fails verify
// (it was logged but has since been superseded by a reorg onto a
// different chain), the scan falls through to the next most recent
// match in the same window before paging further back. verify may be
// nil to accept the first predicate match outright. Consecutive empty
// windows are separated by cfg.LogScanSleep so a slow producer doesn't
// get hammered with RPC calls; ctx cancellation is checked at the top of
// every window.
func (c *Client) scanBackward(ctx context.Context, predicate func(RelayLog) bool, verify func(context.Context, RelayLog) (bool, error)) (*RelayLog, error) {
	tipHeight, err := c.logs.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("relay: block number: %w", err)
	}

	limit := c.cfg.LogBlocksLimit
	if limit == 0 {
		limit = 2500
	}

	end := tipHeight
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", swaperr.ErrCancelled, err)
		}

		var start uint64
		if end+1 > limit {
			start = end + 1 - limit
		}

		mainLogs, err := c.logs.FilterStoreHeader(ctx, start, end)
		if err != nil {
			return nil, fmt.Errorf("relay: filter store header: %w", err)
		}
		forkLogs, err := c.logs.FilterStoreFork(ctx, start, end)
		if err != nil {
			return nil, fmt.Errorf("relay: filter store fork: %w", err)
		}

		window := append(mainLogs, forkLogs...)
		for {
			match := latestMatch(window, predicate)
			if match == nil {
				break
			}
			if verify == nil {
				return match, nil
			}
			ok, err := verify(ctx, *match)
			if err != nil {
				return nil, err
			}
			if ok {
				return match, nil
			}
			window = removeLog(window, *match)
		}

		if start == 0 {
			return nil, nil
		}

		if len(mainLogs) == 0 && len(forkLogs) == 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", swaperr.ErrCancelled, ctx.Err())
			case <-time.After(c.cfg.LogScanSleep):
			}
		}

		end = start - 1
	}
}

func latestMatch(logs []RelayLog, predicate func(RelayLog) bool) *RelayLog {
	var best *RelayLog
	for i := range logs {
		l := logs[i]
		if !predicate(l) {
			continue
		}
		if best == nil || l.BlockNumber > best.BlockNumber {
			found := l
			best = &found
		}
	}
	return best
}

// removeLog drops the first occurrence of target from logs, so a
// rejected candidate isn't matched again in the same window.
func removeLog(logs []RelayLog, target RelayLog) []RelayLog {
	out := logs[:0]
	removed := false
	for _, l := range logs {
		if !removed && l == target {
			removed = true
			continue
		}
		out = append(out, l)
	}
	return out
}

// verifyMainChain confirms a logged commitment still matches the
// contract's current commitment at that height — i.e. the log wasn't
// since superseded by a fork promoted over it.
func (c *Client) verifyMainChain(ctx context.Context, l RelayLog) (bool, error) {
	commit, err := c.logs.CommitmentAt(ctx, l.Height)
	if err != nil {
		return false, fmt.Errorf("relay: commitment at height %d: %w", l.Height, err)
	}
	return commit == l.CommitHash, nil
}

// RetrieveLogAndBlockheight searches backward for the most recent
// StoreHeader/StoreFork log whose Bitcoin block hash matches blockHash.
// The on-chain BlockHash field is little-endian; each candidate is
// reversed to canonical form before comparison. A match is accepted only
// once verifyMainChain confirms the contract's commitment at that height
// still agrees with the log, ruling out a log overwritten by a later
// reorg. Returns (nil, 0, nil) if the relay's tip hasn't reached height
// (or requiredHeight, when given and higher).
func (c *Client) RetrieveLogAndBlockheight(ctx context.Context, blockHash [32]byte, height uint32, requiredHeight *uint32) (*RelayLog, uint64, error) {
	need := height
	if requiredHeight != nil && *requiredHeight > need {
		need = *requiredHeight
	}

	tip, err := c.tip.GetTip(ctx)
	if err != nil {
		return nil, 0, err
	}
	if tip.Height < need {
		return nil, 0, nil
	}

	match, err := c.scanBackward(ctx,
		func(l RelayLog) bool { return reverse32(l.BlockHash) == blockHash },
		c.verifyMainChain,
	)
	if err != nil || match == nil {
		return match, 0, err
	}
	return match, uint64(tip.Height), nil
}

// RetrieveLogByCommitHash is the commit-hash-keyed symmetric lookup:
// it first checks whether the relay's tip commitment already equals
// commitHash — the common case right after a caller's own submission —
// and short-circuits without scanning. Otherwise it falls back to the
// same backward scan, keyed on commitHash and cross-checked against
// blockHash (reversed from its on-chain little-endian form), mirroring
// RetrieveLogAndBlockheight's main-chain check from the other direction.
func (c *Client) RetrieveLogByCommitHash(ctx context.Context, commitHash, blockHash [32]byte, height uint32) (*RelayLog, uint64, error) {
	tip, err := c.tip.GetTip(ctx)
	if err != nil {
		return nil, 0, err
	}
	if tip.CommitHash == commitHash {
		return &RelayLog{
			Kind:       LogKindMain,
			BlockHash:  reverse32(blockHash),
			Height:     height,
			CommitHash: commitHash,
		}, uint64(tip.Height), nil
	}
	if tip.Height < height {
		return nil, 0, nil
	}

	match, err := c.scanBackward(ctx,
		func(l RelayLog) bool { return l.CommitHash == commitHash },
		func(_ context.Context, l RelayLog) (bool, error) {
			return reverse32(l.BlockHash) == blockHash, nil
		},
	)
	if err != nil || match == nil {
		return match, 0, err
	}
	return match, uint64(tip.Height), nil
}

// RetrieveLatestKnownBlockLog scans backward for the most recent log
// whose Bitcoin block is, per btc, still on Bitcoin's main chain AND
// whose commitment still matches the contract's stored commitment at
// that height — i.e. a log that hasn't since been superseded by a
// reorg on either side. Used to bootstrap a caller that doesn't yet know
// the relay's last-good block. Requires a BitcoinRPC to have been wired
// via SetBitcoinRPC; without one, the Bitcoin-side half of the check
// can't be performed.
func (c *Client) RetrieveLatestKnownBlockLog(ctx context.Context) (*RelayLog, error) {
	if c.btc == nil {
		return nil, fmt.Errorf("%w: no BitcoinRPC configured", swaperr.ErrInvalidArgument)
	}
	return c.scanBackward(ctx,
		func(RelayLog) bool { return true },
		func(ctx context.Context, l RelayLog) (bool, error) {
			onMain, err := c.btc.IsInMainChain(ctx, reverse32(l.BlockHash))
			if err != nil {
				return false, fmt.Errorf("relay: is in main chain: %w", err)
			}
			if !onMain {
				return false, nil
			}
			return c.verifyMainChain(ctx, l)
		},
	)
}

// =============================================================================
// estimate_synchronize_fee
// =============================================================================

// EstimateSynchronizeFee estimates the L1 gas cost of submitting headers
// from the contract's current tip up to targetHeight. It prefers
// EIP-1559 fee data (base fee plus a suggested priority tip) and falls
// back to a legacy gas price when the connected node doesn't expose
// base fee data. Returns zero if the relay has already reached
// targetHeight.
func (c *Client) EstimateSynchronizeFee(ctx context.Context, targetHeight uint64) (*big.Int, error) {
	tip, err := c.GetTip(ctx)
	if err != nil {
		return nil, err
	}
	if uint64(tip.Height) >= targetHeight {
		return big.NewInt(0), nil
	}
	headerCount := targetHeight - uint64(tip.Height)

	gasPrice, err := c.feePerGas(ctx)
	if err != nil {
		return nil, err
	}

	cost := new(big.Int).SetUint64(c.cfg.GasSynchronizePerHeader)
	cost.Mul(cost, new(big.Int).SetUint64(headerCount))
	cost.Mul(cost, gasPrice)
	return cost, nil
}

func (c *Client) feePerGas(ctx context.Context) (*big.Int, error) {
	head, err := c.backend.HeaderByNumber(ctx, nil)
	if err == nil && head.BaseFee != nil {
		tipCap, err := c.backend.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, fmt.Errorf("relay: gas tip cap: %w", err)
		}
		return new(big.Int).Add(head.BaseFee, tipCap), nil
	}

	price, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("relay: gas price: %w", err)
	}
	return price, nil
}
