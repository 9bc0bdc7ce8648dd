// Package header implements the Bitcoin block header codec and the
// "stored header" format the BTC Relay contract commits to on the EVM
// side. Every serialization here must be bit-exact with the on-chain
// contract: a single byte of drift makes the commitment hash disagree
// and desynchronizes the relay.
package header

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// RawSize is the canonical Bitcoin block header size in bytes.
const RawSize = 80

// StoredSize is the size of a serialized StoredHeader: RawSize + the
// epoch u32 + 10 timestamp u32s + the height u32 + a 32-byte big-endian
// chain_work.
const StoredSize = RawSize + 4 + 4*10 + 4 + 32

// ErrInvalidHeader is returned whenever a serialized buffer has the
// wrong length, or a field combination the codec cannot represent.
var ErrInvalidHeader = fmt.Errorf("invalid header")

// Raw is a canonical 80-byte Bitcoin block header.
type Raw struct {
	Version    uint32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
}

// Serialize writes the 80-byte little-endian Bitcoin wire encoding.
func (r *Raw) Serialize() []byte {
	buf := make([]byte, RawSize)
	binary.LittleEndian.PutUint32(buf[0:4], r.Version)
	copy(buf[4:36], r.PrevBlock[:])
	copy(buf[36:68], r.MerkleRoot[:])
	binary.LittleEndian.PutUint32(buf[68:72], r.Timestamp)
	binary.LittleEndian.PutUint32(buf[72:76], r.Bits)
	binary.LittleEndian.PutUint32(buf[76:80], r.Nonce)
	return buf
}

// DeserializeRaw parses an 80-byte buffer into a Raw header.
func DeserializeRaw(buf []byte) (*Raw, error) {
	if len(buf) != RawSize {
		return nil, fmt.Errorf("%w: raw header must be %d bytes, got %d", ErrInvalidHeader, RawSize, len(buf))
	}
	r := &Raw{
		Version:   binary.LittleEndian.Uint32(buf[0:4]),
		Timestamp: binary.LittleEndian.Uint32(buf[68:72]),
		Bits:      binary.LittleEndian.Uint32(buf[72:76]),
		Nonce:     binary.LittleEndian.Uint32(buf[76:80]),
	}
	copy(r.PrevBlock[:], buf[4:36])
	copy(r.MerkleRoot[:], buf[36:68])
	return r, nil
}

// Hash returns the double-SHA256 block hash, in the same little-endian
// internal byte order the rest of this package and the relay contract
// use. Callers that need the conventional big-endian display order
// should reverse the bytes (see BlockHashDisplay).
func (r *Raw) Hash() chainhash.Hash {
	return chainhash.DoubleHashH(r.Serialize())
}

// BlockHashDisplay reverses a little-endian-stored hash into the
// conventional big-endian display order block explorers use.
func BlockHashDisplay(h chainhash.Hash) chainhash.Hash {
	var out chainhash.Hash
	for i, b := range h {
		out[len(h)-1-i] = b
	}
	return out
}

// Stored extends Raw with the fields the relay contract commits to at
// each height.
type Stored struct {
	Raw                      Raw
	LastDiffAdjustmentEpoch  uint32
	PrevBlockTimestamps      [10]uint32
	BlockHeight              uint32
	ChainWork                *uint256.Int
}

// Serialize writes the on-chain struct layout:
// {raw_header, last_diff_adjustment_epoch, prev_block_timestamps[10],
// block_height, chain_work (32B big-endian)}.
func (s *Stored) Serialize() []byte {
	buf := make([]byte, 0, StoredSize)
	buf = append(buf, s.Raw.Serialize()...)

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], s.LastDiffAdjustmentEpoch)
	buf = append(buf, u32[:]...)

	for _, ts := range s.PrevBlockTimestamps {
		binary.LittleEndian.PutUint32(u32[:], ts)
		buf = append(buf, u32[:]...)
	}

	binary.LittleEndian.PutUint32(u32[:], s.BlockHeight)
	buf = append(buf, u32[:]...)

	work := s.ChainWork
	if work == nil {
		work = uint256.NewInt(0)
	}
	workBE := work.Bytes32()
	buf = append(buf, workBE[:]...)

	return buf
}

// DeserializeStored parses a StoredSize-byte buffer back into a Stored
// header.
func DeserializeStored(buf []byte) (*Stored, error) {
	if len(buf) != StoredSize {
		return nil, fmt.Errorf("%w: stored header must be %d bytes, got %d", ErrInvalidHeader, StoredSize, len(buf))
	}
	raw, err := DeserializeRaw(buf[0:RawSize])
	if err != nil {
		return nil, err
	}

	s := &Stored{Raw: *raw}
	offset := RawSize
	s.LastDiffAdjustmentEpoch = binary.LittleEndian.Uint32(buf[offset : offset+4])
	offset += 4

	for i := range s.PrevBlockTimestamps {
		s.PrevBlockTimestamps[i] = binary.LittleEndian.Uint32(buf[offset : offset+4])
		offset += 4
	}

	s.BlockHeight = binary.LittleEndian.Uint32(buf[offset : offset+4])
	offset += 4

	s.ChainWork = new(uint256.Int).SetBytes(buf[offset : offset+32])

	return s, nil
}

// CommitHash is the keccak256 digest the relay contract stores at a
// given height. It must bit-exactly match the contract's own hash of
// the same serialized struct.
func (s *Stored) CommitHash() [32]byte {
	return [32]byte(crypto.Keccak256(s.Serialize()))
}

// targetFromBits decodes Bitcoin's compact "nBits" difficulty encoding
// into a full target.
func targetFromBits(bits uint32) *uint256.Int {
	exponent := bits >> 24
	mantissa := bits & 0x007fffff

	target := uint256.NewInt(uint64(mantissa))
	if exponent <= 3 {
		return new(uint256.Int).Rsh(target, uint(8*(3-exponent)))
	}
	return new(uint256.Int).Lsh(target, uint(8*(exponent-3)))
}

// workFromBits returns the proof-of-work contribution of a block with
// the given nBits: 2^256 / (target + 1).
func workFromBits(bits uint32) *uint256.Int {
	target := targetFromBits(bits)
	denom := new(uint256.Int).AddUint64(target, 1)
	if denom.IsZero() {
		// target == 2^256-1 overflowed to 0 on +1; no real Bitcoin
		// target reaches this, but guard against div-by-zero.
		return uint256.NewInt(0)
	}

	// 2^256 doesn't fit in a uint256, so compute via 2^256 / denom as
	// ((2^256 - 1) / denom) + adjustment using the identity
	// floor(2^256 / denom) == floor((maxUint256 - denom + 1)/denom) + 1
	// for denom > 0, which is simpler expressed as widening arithmetic:
	maxU256 := new(uint256.Int).Not(uint256.NewInt(0)) // 2^256 - 1
	quotient := new(uint256.Int).Div(maxU256, denom)
	remainder := new(uint256.Int).Mod(maxU256, denom)
	// (maxU256 + 1) / denom == quotient + ((remainder + 1) / denom)
	if new(uint256.Int).AddUint64(remainder, 1).Cmp(denom) >= 0 {
		quotient = new(uint256.Int).AddUint64(quotient, 1)
	}
	return quotient
}

// ComputeNext derives the stored header that must follow prev, given the
// next raw header. It does not validate proof-of-work against the target
// (a pure light client trusts the relay contract for that); it only
// reproduces the deterministic bookkeeping the contract performs.
func ComputeNext(prev *Stored, newRaw *Raw) (*Stored, error) {
	if prev == nil || newRaw == nil {
		return nil, fmt.Errorf("%w: nil prev or new raw header", ErrInvalidHeader)
	}

	height := prev.BlockHeight + 1
	work := workFromBits(newRaw.Bits)
	chainWork := new(uint256.Int).Add(prev.ChainWork, work)

	prevTimestamps := prev.PrevBlockTimestamps
	prevTimestamps[height%10] = newRaw.Timestamp

	epoch := prev.LastDiffAdjustmentEpoch
	if height%2016 == 0 {
		epoch = newRaw.Timestamp
	}

	return &Stored{
		Raw:                     *newRaw,
		LastDiffAdjustmentEpoch: epoch,
		PrevBlockTimestamps:     prevTimestamps,
		BlockHeight:             height,
		ChainWork:               chainWork,
	}, nil
}
