// Package commitment implements the canonical ABI encoding and keccak256
// commitment hashing for swap records, plus the packed 256-bit `data`
// field layout the on-chain contract reads directly.
package commitment

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Kind enumerates the swap settlement path, packed into Data bits
// 144..151.
type Kind uint8

const (
	KindHTLC        Kind = 0
	KindChain        Kind = 1
	KindChainNonced  Kind = 2
	KindChainTxid    Kind = 3
)

// Record is the canonical tuple the relay commits to:
// (offerer, claimer, token, amount, payment_hash, data, security_deposit,
// claimer_bounty).
type Record struct {
	Offerer         common.Address
	Claimer         common.Address
	Token           common.Address // zero address == native currency
	Amount          *big.Int
	PaymentHash     [32]byte
	Data            *big.Int // packed per DataFields, see Pack/Unpack
	SecurityDeposit *big.Int
	ClaimerBounty   *big.Int
}

// DataFields is the unpacked view of Record.Data. Bit layout (lowest bit
// first), per the on-chain contract:
//
//	0..63    expiry (unix seconds)
//	64..127  escrow nonce
//	128..143 required confirmations
//	144..151 kind
//	152..159 pay_in flag
//	160..167 pay_out flag
//	168..175 index (equals the previous on-chain commitment nonce)
type DataFields struct {
	Expiry          uint64
	EscrowNonce     uint64
	Confirmations   uint16
	Kind            Kind
	PayIn           bool
	PayOut          bool
	Index           uint8
}

func boolToByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Pack encodes DataFields into the packed u256 the contract reads. The
// layout is part of the on-chain contract and must not be reordered.
func Pack(f DataFields) *big.Int {
	data := new(big.Int)

	data.Or(data, new(big.Int).SetUint64(f.Expiry))
	data.Or(data, new(big.Int).Lsh(new(big.Int).SetUint64(f.EscrowNonce), 64))
	data.Or(data, new(big.Int).Lsh(big.NewInt(int64(f.Confirmations)), 128))
	data.Or(data, new(big.Int).Lsh(big.NewInt(int64(f.Kind)), 144))
	data.Or(data, new(big.Int).Lsh(big.NewInt(int64(boolToByte(f.PayIn))), 152))
	data.Or(data, new(big.Int).Lsh(big.NewInt(int64(boolToByte(f.PayOut))), 160))
	data.Or(data, new(big.Int).Lsh(big.NewInt(int64(f.Index)), 168))

	return data
}

// maskLow extracts the low `bits`-wide field of v starting at bit
// `shift`.
func maskLow(v *big.Int, shift, bits uint) *big.Int {
	shifted := new(big.Int).Rsh(v, shift)
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))
	return shifted.And(shifted, mask)
}

// Unpack decodes a packed u256 `data` field back into DataFields.
func Unpack(data *big.Int) DataFields {
	return DataFields{
		Expiry:        maskLow(data, 0, 64).Uint64(),
		EscrowNonce:   maskLow(data, 64, 64).Uint64(),
		Confirmations: uint16(maskLow(data, 128, 16).Uint64()),
		Kind:          Kind(maskLow(data, 144, 8).Uint64()),
		PayIn:         maskLow(data, 152, 8).Uint64() != 0,
		PayOut:        maskLow(data, 160, 8).Uint64() != 0,
		Index:         uint8(maskLow(data, 168, 8).Uint64()),
	}
}

var tupleArgs = abi.Arguments{
	{Type: mustType("address")},
	{Type: mustType("address")},
	{Type: mustType("address")},
	{Type: mustType("uint256")},
	{Type: mustType("bytes32")},
	{Type: mustType("uint256")},
	{Type: mustType("uint256")},
	{Type: mustType("uint256")},
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("commitment: invalid abi type %q: %v", t, err))
	}
	return typ
}

// Hash computes the commit hash of a swap record: the keccak256 of its
// canonical ABI-encoded tuple. A swap is COMMITTED on-chain iff the
// contract's stored commitment at PaymentHash equals this value.
func Hash(r *Record) ([32]byte, error) {
	packed, err := tupleArgs.Pack(
		r.Offerer,
		r.Claimer,
		r.Token,
		r.Amount,
		r.PaymentHash,
		r.Data,
		r.SecurityDeposit,
		r.ClaimerBounty,
	)
	if err != nil {
		return [32]byte{}, fmt.Errorf("commitment: abi pack: %w", err)
	}
	return [32]byte(crypto.Keccak256(packed)), nil
}

// EncodeTuple ABI-encodes r as the same 8-field tuple Hash packs,
// without hashing it. This is the inverse of DecodeTuple, and is what a
// contract's swap-data accessor returns as calldata.
func EncodeTuple(r *Record) ([]byte, error) {
	packed, err := tupleArgs.Pack(
		r.Offerer,
		r.Claimer,
		r.Token,
		r.Amount,
		r.PaymentHash,
		r.Data,
		r.SecurityDeposit,
		r.ClaimerBounty,
	)
	if err != nil {
		return nil, fmt.Errorf("commitment: abi pack: %w", err)
	}
	return packed, nil
}

// DecodeTuple unpacks raw ABI-encoded tuple bytes (the same 8-field
// layout Hash packs) back into a Record. This is what a SwapDataDecoder
// uses to turn an Initialize event's SwapDataFetcher payload into the
// canonical record it describes.
func DecodeTuple(raw []byte) (*Record, error) {
	values, err := tupleArgs.Unpack(raw)
	if err != nil {
		return nil, fmt.Errorf("commitment: abi unpack: %w", err)
	}
	if len(values) != 8 {
		return nil, fmt.Errorf("commitment: abi unpack: expected 8 values, got %d", len(values))
	}

	paymentHash, ok := values[4].([32]byte)
	if !ok {
		return nil, fmt.Errorf("commitment: abi unpack: unexpected payment_hash type %T", values[4])
	}

	return &Record{
		Offerer:         values[0].(common.Address),
		Claimer:         values[1].(common.Address),
		Token:           values[2].(common.Address),
		Amount:          values[3].(*big.Int),
		PaymentHash:     paymentHash,
		Data:            values[5].(*big.Int),
		SecurityDeposit: values[6].(*big.Int),
		ClaimerBounty:   values[7].(*big.Int),
	}, nil
}

// HashForOnchain computes the commitment used by CHAIN/CHAIN_NONCED/
// CHAIN_TXID swaps to bind a claim to a specific Bitcoin output:
//
//  1. txoHash = keccak256(amount_sats as 8-byte little-endian || output_script)
//  2. result  = keccak256(nonce_sats as 8-byte big-endian || txoHash)
//
// Widths and endianness are part of the wire contract and must not
// change independently of the on-chain contract.
func HashForOnchain(outputScript []byte, amountSats uint64, nonceSats uint64) [32]byte {
	var amountLE [8]byte
	binary.LittleEndian.PutUint64(amountLE[:], amountSats)

	txoInput := make([]byte, 0, 8+len(outputScript))
	txoInput = append(txoInput, amountLE[:]...)
	txoInput = append(txoInput, outputScript...)
	txoHash := crypto.Keccak256(txoInput)

	var nonceBE [8]byte
	binary.BigEndian.PutUint64(nonceBE[:], nonceSats)

	final := make([]byte, 0, 8+len(txoHash))
	final = append(final, nonceBE[:]...)
	final = append(final, txoHash...)

	return [32]byte(crypto.Keccak256(final))
}
