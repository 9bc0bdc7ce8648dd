// Package auth builds and verifies the timed authorization signatures
// that gate the four swap transitions (init, claim-init, refund, raw
// data). An authorization is a signature over a commit hash and a
// deadline, carried off-chain between the client and an intermediary and
// checked locally before it's ever submitted on-chain.
package auth

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/klingon-exchange/btcrelay-swap/internal/config"
	"github.com/klingon-exchange/btcrelay-swap/internal/swaperr"
)

// Prefix identifies which of the four swap transitions an authorization
// is scoped to. The prefix is baked into the signed message so a
// signature for one transition can never be replayed against another.
type Prefix string

const (
	PrefixInitialize      Prefix = "initialize"
	PrefixClaimInitialize Prefix = "claim_initialize"
	PrefixRefund          Prefix = "refund"
	PrefixRawData         Prefix = "data"
)

// Signature is the (r, s, v) ECDSA signature over an authorization
// message.
type Signature struct {
	R [32]byte
	S [32]byte
	V uint8
}

// Authorization is a signed, timed claim that some signer authorizes a
// specific swap transition no later than Timeout.
type Authorization struct {
	Prefix      Prefix
	CommitHash  [32]byte
	Timeout     uint64 // unix seconds
	Signature   Signature
}

// message builds the pre-hash payload: prefix bytes, the 32-byte commit
// hash, and the 8-byte big-endian timeout, concatenated without padding
// (mirrors Solidity's abi.encodePacked for the same field types).
func message(prefix Prefix, commitHash [32]byte, timeout uint64) []byte {
	buf := make([]byte, 0, len(prefix)+32+8)
	buf = append(buf, []byte(prefix)...)
	buf = append(buf, commitHash[:]...)

	var t [8]byte
	binary.BigEndian.PutUint64(t[:], timeout)
	buf = append(buf, t[:]...)
	return buf
}

// digest is the keccak256 of message(), the value actually signed via
// the personal-message envelope.
func digest(prefix Prefix, commitHash [32]byte, timeout uint64) []byte {
	return crypto.Keccak256(message(prefix, commitHash, timeout))
}

// Sign produces an Authorization for the given prefix/commit hash/
// timeout, signed by key using the standard Ethereum personal-message
// envelope (accounts.TextHash wraps and re-hashes the digest, matching
// what a wallet's personal_sign endpoint does).
func Sign(key *ecdsa.PrivateKey, prefix Prefix, commitHash [32]byte, timeout uint64) (*Authorization, error) {
	msgDigest := digest(prefix, commitHash, timeout)
	signHash := accounts.TextHash(msgDigest)

	sig, err := crypto.Sign(signHash, key)
	if err != nil {
		return nil, fmt.Errorf("auth: sign: %w", err)
	}

	auth := &Authorization{
		Prefix:     prefix,
		CommitHash: commitHash,
		Timeout:    timeout,
	}
	copy(auth.Signature.R[:], sig[0:32])
	copy(auth.Signature.S[:], sig[32:64])
	auth.Signature.V = sig[64]
	return auth, nil
}

// PackedTimeoutV returns the on-chain submission encoding: timeout
// shifted left 8 bits with v packed into the low byte.
func (a *Authorization) PackedTimeoutV() *big.Int {
	packed := new(big.Int).Lsh(new(big.Int).SetUint64(a.Timeout), 8)
	return packed.Or(packed, big.NewInt(int64(a.Signature.V)))
}

// recoveredAddress recovers the signer address from the authorization's
// signature.
func recoveredAddress(a *Authorization) (common.Address, error) {
	msgDigest := digest(a.Prefix, a.CommitHash, a.Timeout)
	signHash := accounts.TextHash(msgDigest)

	sig := make([]byte, 65)
	copy(sig[0:32], a.Signature.R[:])
	copy(sig[32:64], a.Signature.S[:])
	sig[64] = a.Signature.V

	pub, err := crypto.SigToPub(signHash, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("auth: recover: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifyRequest carries everything Verify needs beyond the Authorization
// itself to check it against a specific swap and clock.
type VerifyRequest struct {
	// ExpectedPrefix is the literal prefix this call site requires.
	ExpectedPrefix Prefix

	// Now is the verifier's local clock, injectable for tests.
	Now time.Time

	// Grace is the set of grace periods from config.
	Grace config.GracePeriods

	// SwapExpiry is the swap's own expiry (unix seconds); only consulted
	// for PrefixInitialize.
	SwapExpiry uint64

	// OnChainIndex is the contract's current commitment value at
	// payment_hash; only consulted for PrefixInitialize and
	// PrefixClaimInitialize (replay/nonce protection).
	OnChainIndex uint8

	// SwapDataIndex is swap.data.index as packed in the commitment.
	SwapDataIndex uint8

	// CheckIndex gates rule 4 — callers that aren't verifying an
	// init/claim_init authorization should leave this false.
	CheckIndex bool

	// ExpectedSigner is the address the recovered signer must match:
	// swap.offerer for init/refund, swap.claimer for claim_init.
	ExpectedSigner common.Address
}

// Verify runs the ordered rule chain from spec §4.D. The first violated
// rule is returned wrapped in swaperr.ErrSignatureVerification.
func Verify(a *Authorization, req VerifyRequest) error {
	if a.Prefix != req.ExpectedPrefix {
		return fmt.Errorf("%w: prefix mismatch: got %q, want %q", swaperr.ErrSignatureVerification, a.Prefix, req.ExpectedPrefix)
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	nowUnix := uint64(now.Unix())

	if a.Timeout < nowUnix || a.Timeout-nowUnix < uint64(req.Grace.Auth.Seconds()) {
		return fmt.Errorf("%w: authorization expired", swaperr.ErrSignatureVerification)
	}

	if req.ExpectedPrefix == PrefixInitialize {
		required := uint64(req.Grace.Auth.Seconds() + req.Grace.Claim.Seconds())
		if req.SwapExpiry < nowUnix || req.SwapExpiry-nowUnix < required {
			return fmt.Errorf("%w: swap expiry too close", swaperr.ErrSignatureVerification)
		}
	}

	if req.CheckIndex && (req.ExpectedPrefix == PrefixInitialize || req.ExpectedPrefix == PrefixClaimInitialize) {
		if req.OnChainIndex != req.SwapDataIndex {
			return fmt.Errorf("%w: invalid nonce", swaperr.ErrSignatureVerification)
		}
	}

	signer, err := recoveredAddress(a)
	if err != nil {
		return fmt.Errorf("%w: %v", swaperr.ErrSignatureVerification, err)
	}
	if signer != req.ExpectedSigner {
		return fmt.Errorf("%w: signer mismatch", swaperr.ErrSignatureVerification)
	}

	return nil
}

// IsExpired reports whether an authorization is "expired" for a client's
// own bookkeeping: now (in ms) past (timeout + auth_grace_period)*1000.
func IsExpired(timeout uint64, authGrace time.Duration, nowMs int64) bool {
	boundaryMs := int64(timeout+uint64(authGrace.Seconds())) * 1000
	return nowMs > boundaryMs
}

// IsSoftExpired reports the earlier, UI-facing "soft expiry" boundary:
// now (in ms) past (timeout - auth_grace_period)*1000.
func IsSoftExpired(timeout uint64, authGrace time.Duration, nowMs int64) bool {
	grace := int64(authGrace.Seconds())
	var boundarySeconds int64
	if int64(timeout) > grace {
		boundarySeconds = int64(timeout) - grace
	}
	return nowMs > boundarySeconds*1000
}
