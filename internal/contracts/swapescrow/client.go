// Package swapescrow wraps the auto-generated SwapEscrow bindings with
// the swap-contract client described in spec §4.E: commitment-status
// reads, unsigned-tx builders for every swap transition, a batch
// executor, and ERC-20 allowance helpers with max-allowance caching.
package swapescrow

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/klingon-exchange/btcrelay-swap/internal/auth"
	"github.com/klingon-exchange/btcrelay-swap/internal/commitment"
	"github.com/klingon-exchange/btcrelay-swap/internal/config"
	"github.com/klingon-exchange/btcrelay-swap/internal/swaperr"
)

// CommitStatus is the result of reading on-chain commitment state at a
// given payment_hash and resolving it against a locally-held swap
// record (spec §4.E).
type CommitStatus uint8

const (
	StatusPaid CommitStatus = iota
	StatusCommitted
	StatusRefundable
	StatusExpired
	StatusNotCommitted
)

func (s CommitStatus) String() string {
	switch s {
	case StatusPaid:
		return "PAID"
	case StatusCommitted:
		return "COMMITTED"
	case StatusRefundable:
		return "REFUNDABLE"
	case StatusExpired:
		return "EXPIRED"
	case StatusNotCommitted:
		return "NOT_COMMITTED"
	default:
		return "UNKNOWN"
	}
}

// paidSentinel is the on-chain commitment value that marks a slot PAID.
var paidSentinel = big.NewInt(0x100)

// Client is a wrapper around the SwapEscrow contract, plus the raw
// ethclient needed for ERC-20 interactions, nonce/gas lookups, and
// transaction confirmation.
type Client struct {
	backend  *ethclient.Client
	contract *SwapEscrow
	address  common.Address
	chainID  *big.Int
	gas      config.EscrowGasConfig

	allowanceMu    sync.Mutex
	allowanceKnown map[string]bool // "owner:token:spender" -> allowance >= current max-approval request
}

// NewClient dials rpcURL and binds to the SwapEscrow contract deployed
// at address.
func NewClient(ctx context.Context, rpcURL string, address common.Address, gas config.EscrowGasConfig) (*Client, error) {
	backend, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("swapescrow: dial: %w", err)
	}

	contract, err := NewSwapEscrow(address, backend)
	if err != nil {
		return nil, fmt.Errorf("swapescrow: bind: %w", err)
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("swapescrow: chain id: %w", err)
	}

	return &Client{
		backend:        backend,
		contract:       contract,
		address:        address,
		chainID:        chainID,
		gas:            gas,
		allowanceKnown: make(map[string]bool),
	}, nil
}

// Close closes the underlying RPC connection.
func (c *Client) Close() { c.backend.Close() }

// ChainID returns the chain this client is bound to.
func (c *Client) ChainID() *big.Int { return c.chainID }

// =============================================================================
// Commitment status (spec §4.E)
// =============================================================================

// GetCommitStatus implements the decision tree from spec §4.E. caller is
// the address asking (used for the offerer-only EXPIRED/REFUNDABLE
// branches); refundGrace mirrors config.GracePeriods.Refund.
//
// The returned index is the raw on-chain commitment value when it falls
// in the low range below paidSentinel (i.e. it has not yet been
// overwritten with a claim/refund commitment hash) — this is
// swap.data.index's on-chain counterpart, used by callers to enforce
// auth.VerifyRequest's replay/nonce check. It is 0 for every other
// status and must not be relied on there.
func (c *Client) GetCommitStatus(ctx context.Context, r *commitment.Record, expiry uint64, caller common.Address, now time.Time, refundGrace time.Duration) (CommitStatus, uint8, error) {
	onChain, err := c.contract.Commitment(&bind.CallOpts{Context: ctx}, r.PaymentHash)
	if err != nil {
		return 0, 0, fmt.Errorf("swapescrow: read commitment: %w", err)
	}

	isOfferer := caller == r.Offerer
	boundary := int64(expiry) - int64(refundGrace.Seconds())
	expired := now.Unix() > boundary

	if onChain.Cmp(paidSentinel) == 0 {
		return StatusPaid, 0, nil
	}

	const lowRangeCeiling = 0x100
	if onChain.Cmp(big.NewInt(lowRangeCeiling)) < 0 {
		index := uint8(onChain.Uint64())
		if expired && isOfferer {
			return StatusExpired, index, nil
		}
		return StatusNotCommitted, index, nil
	}

	commitHash, err := commitment.Hash(r)
	if err != nil {
		return 0, 0, fmt.Errorf("swapescrow: commit hash: %w", err)
	}
	if onChain.Cmp(new(big.Int).SetBytes(commitHash[:])) == 0 {
		if isOfferer && expired {
			return StatusRefundable, 0, nil
		}
		return StatusCommitted, 0, nil
	}

	if isOfferer && expired {
		return StatusExpired, 0, nil
	}
	return StatusNotCommitted, 0, nil
}

// =============================================================================
// Unsigned transaction construction
// =============================================================================

// unsignedTxOpts builds bind.TransactOpts that pack calldata and assign
// gas/nonce/fee fields without ever signing — the resulting
// *types.Transaction carries no valid signature and is handed back to
// the caller (or an external intermediary) to sign out of band.
func (c *Client) unsignedTxOpts(ctx context.Context, from common.Address, gasLimit uint64, value *big.Int) (*bind.TransactOpts, error) {
	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("swapescrow: nonce: %w", err)
	}

	tipCap, err := c.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("swapescrow: gas tip cap: %w", err)
	}
	head, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("swapescrow: head header: %w", err)
	}
	feeCap := new(big.Int).Add(tipCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	if value == nil {
		value = big.NewInt(0)
	}

	return &bind.TransactOpts{
		From:      from,
		Nonce:     new(big.Int).SetUint64(nonce),
		Value:     value,
		GasLimit:  gasLimit,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Context:   ctx,
		NoSend:    true,
		Signer: func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
			// No-op signer: unsignedTxOpts exists precisely so the
			// client never holds the offerer/claimer's key — signing
			// happens out of band, so the transactor must pass the
			// transaction through unchanged.
			return tx, nil
		},
	}, nil
}

// BuildInit constructs the unsigned `init` transaction: signature-gated
// creation with no native/ERC-20 payment attached (pay-out side).
func (c *Client) BuildInit(ctx context.Context, from common.Address, r *commitment.Record, a *auth.Authorization, txoHash [32]byte) (*types.Transaction, error) {
	opts, err := c.unsignedTxOpts(ctx, from, c.gas.Init, nil)
	if err != nil {
		return nil, err
	}
	return c.contract.Init(opts, r.Offerer, r.Claimer, r.Token, r.Amount, r.PaymentHash, r.Data, r.SecurityDeposit, r.ClaimerBounty, toSwapEscrowSignature(a.Signature), a.PackedTimeoutV(), txoHash)
}

// BuildInitPayIn constructs the unsigned `initPayIn` transaction. If
// r.Token is the zero address, the swap amount is attached as native
// value; otherwise the caller must have already approved at least
// r.Amount (see EnsureApproval).
func (c *Client) BuildInitPayIn(ctx context.Context, from common.Address, r *commitment.Record, txoHash [32]byte) (*types.Transaction, error) {
	var value *big.Int
	if r.Token == (common.Address{}) {
		value = r.Amount
	}
	opts, err := c.unsignedTxOpts(ctx, from, c.gas.InitPayIn, value)
	if err != nil {
		return nil, err
	}
	return c.contract.InitPayIn(opts, r.Offerer, r.Claimer, r.Token, r.Amount, r.PaymentHash, r.Data, r.SecurityDeposit, r.ClaimerBounty, txoHash)
}

// BuildClaimWithSecret constructs the unsigned HTLC-path claim.
func (c *Client) BuildClaimWithSecret(ctx context.Context, from common.Address, r *commitment.Record, secret [32]byte) (*types.Transaction, error) {
	opts, err := c.unsignedTxOpts(ctx, from, c.gas.ClaimWithSecret, nil)
	if err != nil {
		return nil, err
	}
	return c.contract.ClaimWithSecret(opts, r.Offerer, r.Claimer, r.Token, r.Amount, r.PaymentHash, r.Data, r.SecurityDeposit, r.ClaimerBounty, secret)
}

// ClaimWithTxDataParams carries the SPV proof material the CHAIN*
// settlement kinds need to claim against a confirmed Bitcoin
// transaction.
type ClaimWithTxDataParams struct {
	RawTx           []byte
	Vout            uint64
	MerkleProof     []byte
	CommittedHeader []byte
}

// BuildClaimWithTxData constructs the unsigned claim transaction for the
// CHAIN/CHAIN_NONCED/CHAIN_TXID settlement kinds. Gas scales with the
// raw transaction's byte length, per spec §4.E.
func (c *Client) BuildClaimWithTxData(ctx context.Context, from common.Address, r *commitment.Record, p ClaimWithTxDataParams) (*types.Transaction, error) {
	gasLimit := c.gas.ClaimWithTxDataBase + c.gas.ClaimWithTxDataPerByte*uint64(len(p.RawTx))
	opts, err := c.unsignedTxOpts(ctx, from, gasLimit, nil)
	if err != nil {
		return nil, err
	}
	return c.contract.ClaimWithTxData(opts, r.Offerer, r.Claimer, r.Token, r.Amount, r.PaymentHash, r.Data, r.SecurityDeposit, r.ClaimerBounty, p.RawTx, new(big.Int).SetUint64(p.Vout), p.MerkleProof, p.CommittedHeader)
}

// BuildRefund constructs the unsigned plain refund transaction; the
// caller is expected to have already confirmed REFUNDABLE via
// GetCommitStatus.
func (c *Client) BuildRefund(ctx context.Context, from common.Address, r *commitment.Record) (*types.Transaction, error) {
	opts, err := c.unsignedTxOpts(ctx, from, c.gas.Refund, nil)
	if err != nil {
		return nil, err
	}
	return c.contract.Refund(opts, r.Offerer, r.Claimer, r.Token, r.Amount, r.PaymentHash, r.Data, r.SecurityDeposit, r.ClaimerBounty)
}

// BuildRefundWithAuth constructs the unsigned cooperative-refund
// transaction, authorized by the claimer's off-chain signature.
func (c *Client) BuildRefundWithAuth(ctx context.Context, from common.Address, r *commitment.Record, a *auth.Authorization) (*types.Transaction, error) {
	opts, err := c.unsignedTxOpts(ctx, from, c.gas.RefundWithAuth, nil)
	if err != nil {
		return nil, err
	}
	return c.contract.RefundWithAuth(opts, r.Offerer, r.Claimer, r.Token, r.Amount, r.PaymentHash, r.Data, r.SecurityDeposit, r.ClaimerBounty, toSwapEscrowSignature(a.Signature), a.PackedTimeoutV())
}

func toSwapEscrowSignature(s auth.Signature) SwapEscrowSignature {
	return SwapEscrowSignature{R: s.R, S: s.S, V: s.V}
}

// =============================================================================
// ERC-20 style helpers (spec §4.E) — raw selector calldata, grounded on
// the teacher's hand-rolled ApproveERC20.
// =============================================================================

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

func erc20Selector(name string) []byte {
	switch name {
	case "approve":
		return []byte{0x09, 0x5e, 0xa7, 0xb3}
	case "transfer":
		return []byte{0xa9, 0x05, 0x9c, 0xbb}
	case "allowance":
		return []byte{0xdd, 0x62, 0xed, 0x3e}
	case "deposit":
		return []byte{0xd0, 0xe3, 0x0d, 0xb0}
	case "withdraw":
		return []byte{0x2e, 0x1a, 0x7d, 0x4d}
	default:
		panic("swapescrow: unknown erc20 selector " + name)
	}
}

func packAddressUint256(selector []byte, addr common.Address, amount *big.Int) []byte {
	data := make([]byte, 0, 4+32+32)
	data = append(data, selector...)
	data = append(data, common.LeftPadBytes(addr.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return data
}

// Allowance reads the ERC-20 allowance(owner, spender) for token via a
// raw eth_call, without a full token binding.
func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	data := make([]byte, 0, 4+64)
	data = append(data, erc20Selector("allowance")...)
	data = append(data, common.LeftPadBytes(owner.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(spender.Bytes(), 32)...)

	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("swapescrow: allowance call: %w", err)
	}
	if len(out) < 32 {
		return nil, fmt.Errorf("%w: short allowance response", swaperr.ErrInvalidArgument)
	}
	return new(big.Int).SetBytes(out[:32]), nil
}

// EnsureApproval returns an unsigned max-allowance `approve` transaction
// if the cached allowance state doesn't already guarantee
// allowance(owner, spender) >= amount, or nil if no approval tx is
// needed. A successful approval is assumed to raise the allowance to
// maxUint256 and is cached so repeat pay-ins for the same
// (owner, token, spender) skip the allowance read entirely.
func (c *Client) EnsureApproval(ctx context.Context, from common.Address, token, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	if token == (common.Address{}) {
		return nil, nil // native currency, no ERC-20 approval involved
	}

	key := from.Hex() + ":" + token.Hex() + ":" + spender.Hex()

	c.allowanceMu.Lock()
	known := c.allowanceKnown[key]
	c.allowanceMu.Unlock()
	if known {
		return nil, nil
	}

	current, err := c.Allowance(ctx, token, from, spender)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", swaperr.ErrCannotInitializeAta, err)
	}
	if current.Cmp(amount) >= 0 {
		c.allowanceMu.Lock()
		c.allowanceKnown[key] = true
		c.allowanceMu.Unlock()
		return nil, nil
	}

	tx, err := c.BuildApprove(ctx, from, token, spender, maxUint256)
	if err != nil {
		return nil, err
	}

	c.allowanceMu.Lock()
	c.allowanceKnown[key] = true
	c.allowanceMu.Unlock()
	return tx, nil
}

// BuildApprove constructs an unsigned ERC-20 `approve` transaction.
func (c *Client) BuildApprove(ctx context.Context, from, token, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	return c.buildRawERC20Tx(ctx, from, token, packAddressUint256(erc20Selector("approve"), spender, amount), nil, c.gas.Approve)
}

// BuildTransfer constructs an unsigned ERC-20 `transfer` transaction.
func (c *Client) BuildTransfer(ctx context.Context, from, token, to common.Address, amount *big.Int) (*types.Transaction, error) {
	return c.buildRawERC20Tx(ctx, from, token, packAddressUint256(erc20Selector("transfer"), to, amount), nil, c.gas.Approve)
}

// BuildDeposit constructs an unsigned WETH-style wrap transaction:
// payable deposit() with the wrap amount as native value.
func (c *Client) BuildDeposit(ctx context.Context, from, token common.Address, amount *big.Int) (*types.Transaction, error) {
	return c.buildRawERC20Tx(ctx, from, token, erc20Selector("deposit"), amount, c.gas.Deposit)
}

// BuildWithdraw constructs an unsigned WETH-style unwrap transaction:
// withdraw(uint256 amount).
func (c *Client) BuildWithdraw(ctx context.Context, from, token common.Address, amount *big.Int) (*types.Transaction, error) {
	data := make([]byte, 0, 4+32)
	data = append(data, erc20Selector("withdraw")...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return c.buildRawERC20Tx(ctx, from, token, data, nil, c.gas.Withdraw)
}

func (c *Client) buildRawERC20Tx(ctx context.Context, from, to common.Address, data []byte, value *big.Int, gasLimit uint64) (*types.Transaction, error) {
	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("swapescrow: nonce: %w", err)
	}
	tipCap, err := c.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("swapescrow: gas tip cap: %w", err)
	}
	head, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("swapescrow: head header: %w", err)
	}
	feeCap := new(big.Int).Add(tipCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	if value == nil {
		value = big.NewInt(0)
	}

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   c.chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &to,
		Value:     value,
		Data:      data,
	}), nil
}

// =============================================================================
// Batch execution (send_and_confirm, spec §4.E)
// =============================================================================

// SignedTx holds a transaction after an external signer (wallet,
// intermediary, HSM) has signed an unsigned tx builder's output; the
// signature travels inside Tx, not in a separate field.
type SignedTx struct {
	Tx *types.Transaction
}

// SendAndConfirm publishes every tx in txs and waits for receipts. When
// parallel is false, each transaction is sent and confirmed before the
// next is sent (required when transactions share a nonce sequence and
// must land in order). When parallel is true, all transactions are sent
// immediately and confirmations are awaited concurrently — only safe
// when the caller has pre-assigned distinct, already-valid nonces.
// A reverted receipt surfaces as *swaperr.TxReverted; cancelling ctx
// surfaces as swaperr.ErrCancelled.
func (c *Client) SendAndConfirm(ctx context.Context, txs []*types.Transaction, parallel bool) ([]*types.Receipt, error) {
	if !parallel {
		receipts := make([]*types.Receipt, 0, len(txs))
		for _, tx := range txs {
			receipt, err := c.sendOne(ctx, tx)
			if err != nil {
				return receipts, err
			}
			receipts = append(receipts, receipt)
		}
		return receipts, nil
	}

	type result struct {
		idx     int
		receipt *types.Receipt
		err     error
	}
	results := make(chan result, len(txs))
	for i, tx := range txs {
		go func(i int, tx *types.Transaction) {
			receipt, err := c.sendOne(ctx, tx)
			results <- result{idx: i, receipt: receipt, err: err}
		}(i, tx)
	}

	receipts := make([]*types.Receipt, len(txs))
	var firstErr error
	for range txs {
		r := <-results
		if r.err != nil && firstErr == nil {
			firstErr = r.err
		}
		receipts[r.idx] = r.receipt
	}
	return receipts, firstErr
}

func (c *Client) sendOne(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", swaperr.ErrCancelled, err)
	}

	if err := c.backend.SendTransaction(ctx, tx); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", swaperr.ErrCancelled, err)
		}
		return nil, fmt.Errorf("swapescrow: send transaction: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", swaperr.ErrCancelled, err)
		}
		return nil, fmt.Errorf("swapescrow: wait mined: %w", err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return receipt, swaperr.NewTxReverted(receipt.TxHash)
	}
	return receipt, nil
}
