// Package storage - swap record persistence (spec §6 load_all_swaps /
// save / save_many / remove), keyed by payment_hash. This is the state
// the swap engine (internal/swap) recovers on restart: everything
// needed to reconstruct a commitment.Record plus the off-chain wrapper
// fields an intermediary/offerer handshake produces.
package storage

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/klingon-exchange/btcrelay-swap/internal/auth"
	"github.com/klingon-exchange/btcrelay-swap/internal/commitment"
)

// Swap persistence errors.
var (
	ErrSwapNotFound = errors.New("swap not found")
)

// EngineState is the swap engine's state machine position (spec §4.G).
type EngineState string

const (
	StatePRCreated      EngineState = "PR_CREATED"
	StatePRPaid         EngineState = "PR_PAID"
	StateClaimCommitted EngineState = "CLAIM_COMMITTED"
	StateClaimClaimed   EngineState = "CLAIM_CLAIMED"
	StateExpired        EngineState = "EXPIRED"
	StateFailed         EngineState = "FAILED"
)

// SwapRecord is the persisted record for one swap: the on-chain
// commitment.Record tuple plus the off-chain wrapper fields the
// intermediary/lightning handshake produces, plus engine bookkeeping.
type SwapRecord struct {
	// commitment.Record fields
	Type            string
	Offerer         common.Address
	Claimer         common.Address
	Token           common.Address
	Amount          *big.Int
	PaymentHash     [32]byte
	Data            *big.Int
	SecurityDeposit *big.Int
	ClaimerBounty   *big.Int
	TxoHash         [32]byte

	// off-chain wrapper fields
	URL         string
	SwapFee     *big.Int
	Prefix      auth.Prefix
	Timeout     uint64
	Signature   *auth.Signature
	FeeRate     *big.Int
	CommitTxID  string
	ClaimTxID   string
	Expiry      uint64

	State EngineState

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ToRecord projects the on-chain tuple out of a SwapRecord, for
// everything that only needs commitment.Hash/verification material.
func (r *SwapRecord) ToRecord() *commitment.Record {
	return &commitment.Record{
		Offerer:         r.Offerer,
		Claimer:         r.Claimer,
		Token:           r.Token,
		Amount:          r.Amount,
		PaymentHash:     r.PaymentHash,
		Data:            r.Data,
		SecurityDeposit: r.SecurityDeposit,
		ClaimerBounty:   r.ClaimerBounty,
	}
}

func bigToString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func stringToBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

// SaveSwap inserts or updates a single swap record (UPSERT on
// payment_hash).
func (s *Storage) SaveSwap(r *SwapRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveSwapLocked(s.db, r)
}

// SaveSwaps inserts or updates a batch of swap records inside a single
// transaction, so a crash mid-batch never leaves a partial write
// observable to a concurrent reader.
func (s *Storage) SaveSwaps(records []*SwapRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin save_many: %w", err)
	}
	for _, r := range records {
		if err := s.saveSwapLocked(tx, r); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func (s *Storage) saveSwapLocked(ex execer, r *SwapRecord) error {
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	var sigHex string
	if r.Signature != nil {
		sigHex = hex.EncodeToString(r.Signature.R[:]) + hex.EncodeToString(r.Signature.S[:]) + fmt.Sprintf("%02x", r.Signature.V)
	}

	query := `
		INSERT INTO swap_records (
			payment_hash, record_type, offerer, claimer, token, amount,
			data, security_deposit, claimer_bounty, txo_hash,
			url, swap_fee, prefix, timeout, signature, fee_rate,
			commit_tx_id, claim_tx_id, expiry, state, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(payment_hash) DO UPDATE SET
			offerer = excluded.offerer,
			claimer = excluded.claimer,
			token = excluded.token,
			amount = excluded.amount,
			data = excluded.data,
			security_deposit = excluded.security_deposit,
			claimer_bounty = excluded.claimer_bounty,
			txo_hash = excluded.txo_hash,
			url = excluded.url,
			swap_fee = excluded.swap_fee,
			prefix = excluded.prefix,
			timeout = excluded.timeout,
			signature = excluded.signature,
			fee_rate = excluded.fee_rate,
			commit_tx_id = excluded.commit_tx_id,
			claim_tx_id = excluded.claim_tx_id,
			expiry = excluded.expiry,
			state = excluded.state,
			updated_at = excluded.updated_at
	`

	recordType := r.Type
	if recordType == "" {
		recordType = "evm"
	}

	_, err := ex.Exec(query,
		hex.EncodeToString(r.PaymentHash[:]),
		recordType,
		r.Offerer.Hex(),
		r.Claimer.Hex(),
		r.Token.Hex(),
		bigToString(r.Amount),
		bigToString(r.Data),
		bigToString(r.SecurityDeposit),
		bigToString(r.ClaimerBounty),
		hex.EncodeToString(r.TxoHash[:]),
		r.URL,
		bigToString(r.SwapFee),
		string(r.Prefix),
		r.Timeout,
		sigHex,
		bigToString(r.FeeRate),
		r.CommitTxID,
		r.ClaimTxID,
		r.Expiry,
		string(r.State),
		r.CreatedAt.Unix(),
		r.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("storage: save swap: %w", err)
	}
	return nil
}

// RemoveSwap deletes the swap record for paymentHash, if any.
func (s *Storage) RemoveSwap(paymentHash [32]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM swap_records WHERE payment_hash = ?`, hex.EncodeToString(paymentHash[:]))
	if err != nil {
		return fmt.Errorf("storage: remove swap: %w", err)
	}
	return nil
}

// LoadSwap loads a single swap record by payment hash.
func (s *Storage) LoadSwap(paymentHash [32]byte) (*SwapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT payment_hash, record_type, offerer, claimer, token, amount,
			data, security_deposit, claimer_bounty, txo_hash,
			url, swap_fee, prefix, timeout, signature, fee_rate,
			commit_tx_id, claim_tx_id, expiry, state, created_at, updated_at
		FROM swap_records WHERE payment_hash = ?`, hex.EncodeToString(paymentHash[:]))

	r, err := scanSwapRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrSwapNotFound
	}
	return r, err
}

// LoadAllSwaps loads every persisted swap record, for the engine's
// startup reconciliation pass.
func (s *Storage) LoadAllSwaps() ([]*SwapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT payment_hash, record_type, offerer, claimer, token, amount,
			data, security_deposit, claimer_bounty, txo_hash,
			url, swap_fee, prefix, timeout, signature, fee_rate,
			commit_tx_id, claim_tx_id, expiry, state, created_at, updated_at
		FROM swap_records`)
	if err != nil {
		return nil, fmt.Errorf("storage: load all swaps: %w", err)
	}
	defer rows.Close()

	var out []*SwapRecord
	for rows.Next() {
		r, err := scanSwapRow(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan swap row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSwapRow(row rowScanner) (*SwapRecord, error) {
	var (
		paymentHashHex, recordType, offererHex, claimerHex, tokenHex string
		amountStr, dataStr, securityDepositStr, claimerBountyStr     string
		txoHashHex, url, swapFeeStr, prefix, signatureHex, feeRateStr string
		commitTxID, claimTxID, state                                 string
		timeout, expiry                                              uint64
		createdAtUnix, updatedAtUnix                                  int64
	)

	if err := row.Scan(
		&paymentHashHex, &recordType, &offererHex, &claimerHex, &tokenHex, &amountStr,
		&dataStr, &securityDepositStr, &claimerBountyStr, &txoHashHex,
		&url, &swapFeeStr, &prefix, &timeout, &signatureHex, &feeRateStr,
		&commitTxID, &claimTxID, &expiry, &state, &createdAtUnix, &updatedAtUnix,
	); err != nil {
		return nil, err
	}

	r := &SwapRecord{
		Type:            recordType,
		Offerer:         common.HexToAddress(offererHex),
		Claimer:         common.HexToAddress(claimerHex),
		Token:           common.HexToAddress(tokenHex),
		Amount:          stringToBig(amountStr),
		Data:            stringToBig(dataStr),
		SecurityDeposit: stringToBig(securityDepositStr),
		ClaimerBounty:   stringToBig(claimerBountyStr),
		URL:             url,
		SwapFee:         stringToBig(swapFeeStr),
		Prefix:          auth.Prefix(prefix),
		Timeout:         timeout,
		FeeRate:         stringToBig(feeRateStr),
		CommitTxID:      commitTxID,
		ClaimTxID:       claimTxID,
		Expiry:          expiry,
		State:           EngineState(state),
		CreatedAt:       time.Unix(createdAtUnix, 0),
		UpdatedAt:       time.Unix(updatedAtUnix, 0),
	}

	if paymentHash, err := hex.DecodeString(paymentHashHex); err == nil && len(paymentHash) == 32 {
		copy(r.PaymentHash[:], paymentHash)
	}
	if txoHash, err := hex.DecodeString(txoHashHex); err == nil && len(txoHash) == 32 {
		copy(r.TxoHash[:], txoHash)
	}
	if signatureHex != "" {
		if sigBytes, err := hex.DecodeString(signatureHex); err == nil && len(sigBytes) == 65 {
			sig := &auth.Signature{V: sigBytes[64]}
			copy(sig.R[:], sigBytes[0:32])
			copy(sig.S[:], sigBytes[32:64])
			r.Signature = sig
		}
	}

	return r, nil
}
