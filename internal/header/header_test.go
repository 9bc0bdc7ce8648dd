package header

import (
	"testing"

	"github.com/holiman/uint256"
)

func genesisLikeRaw() *Raw {
	return &Raw{
		Version:   0x20000000,
		Timestamp: 1700000000,
		Bits:      0x17053894,
		Nonce:     1,
	}
}

func TestRawRoundTrip(t *testing.T) {
	r := genesisLikeRaw()
	r.PrevBlock[0] = 0xAB
	r.MerkleRoot[31] = 0xCD

	buf := r.Serialize()
	if len(buf) != RawSize {
		t.Fatalf("serialized length = %d, want %d", len(buf), RawSize)
	}

	got, err := DeserializeRaw(buf)
	if err != nil {
		t.Fatalf("DeserializeRaw: %v", err)
	}
	if *got != *r {
		t.Errorf("round-trip mismatch: got %+v, want %+v", got, r)
	}
}

func TestDeserializeRawWrongLength(t *testing.T) {
	if _, err := DeserializeRaw(make([]byte, 79)); err == nil {
		t.Error("expected error for short buffer")
	}
}

func TestStoredRoundTrip(t *testing.T) {
	s := &Stored{
		Raw:                     *genesisLikeRaw(),
		LastDiffAdjustmentEpoch: 1699000000,
		BlockHeight:             123456,
		ChainWork:               uint256.NewInt(123456789),
	}
	for i := range s.PrevBlockTimestamps {
		s.PrevBlockTimestamps[i] = uint32(1700000000 - i*600)
	}

	buf := s.Serialize()
	if len(buf) != StoredSize {
		t.Fatalf("serialized length = %d, want %d", len(buf), StoredSize)
	}

	got, err := DeserializeStored(buf)
	if err != nil {
		t.Fatalf("DeserializeStored: %v", err)
	}
	if got.Raw != s.Raw {
		t.Errorf("raw mismatch: got %+v, want %+v", got.Raw, s.Raw)
	}
	if got.LastDiffAdjustmentEpoch != s.LastDiffAdjustmentEpoch {
		t.Errorf("epoch mismatch: got %d, want %d", got.LastDiffAdjustmentEpoch, s.LastDiffAdjustmentEpoch)
	}
	if got.PrevBlockTimestamps != s.PrevBlockTimestamps {
		t.Errorf("prev timestamps mismatch")
	}
	if got.BlockHeight != s.BlockHeight {
		t.Errorf("height mismatch: got %d, want %d", got.BlockHeight, s.BlockHeight)
	}
	if got.ChainWork.Cmp(s.ChainWork) != 0 {
		t.Errorf("chain work mismatch: got %s, want %s", got.ChainWork, s.ChainWork)
	}
}

// TestCommitHashDeterministic exercises scenario S1: re-serializing and
// re-hashing a stored header computed off-chain must produce the same
// digest as the one carried forward through a precomputed chain.
func TestCommitHashDeterministic(t *testing.T) {
	genesis := &Stored{
		Raw:       *genesisLikeRaw(),
		ChainWork: uint256.NewInt(1),
	}

	chain := []*Stored{genesis}
	raw := genesisLikeRaw()
	for i := 0; i < 3; i++ {
		raw = &Raw{Version: raw.Version, Timestamp: raw.Timestamp + 600, Bits: raw.Bits, Nonce: raw.Nonce + 1}
		next, err := ComputeNext(chain[len(chain)-1], raw)
		if err != nil {
			t.Fatalf("ComputeNext: %v", err)
		}
		chain = append(chain, next)
	}

	last := chain[len(chain)-1]
	reserialized, err := DeserializeStored(last.Serialize())
	if err != nil {
		t.Fatalf("DeserializeStored: %v", err)
	}

	if last.CommitHash() != reserialized.CommitHash() {
		t.Error("commit hash must be stable across a serialize/deserialize round trip")
	}
}

// TestComputeNextEpochBoundary covers the 2016-height epoch reset: the
// 2016th header (height a multiple of 2016) must reset
// LastDiffAdjustmentEpoch to its own timestamp.
func TestComputeNextEpochBoundary(t *testing.T) {
	prev := &Stored{
		Raw:                     Raw{Bits: 0x17053894},
		BlockHeight:             2015,
		LastDiffAdjustmentEpoch: 1000,
		ChainWork:               uint256.NewInt(1000),
	}
	newRaw := &Raw{Bits: 0x17053894, Timestamp: 99999}

	next, err := ComputeNext(prev, newRaw)
	if err != nil {
		t.Fatalf("ComputeNext: %v", err)
	}
	if next.BlockHeight != 2016 {
		t.Fatalf("height = %d, want 2016", next.BlockHeight)
	}
	if next.LastDiffAdjustmentEpoch != newRaw.Timestamp {
		t.Errorf("epoch = %d, want %d (reset at 2016 boundary)", next.LastDiffAdjustmentEpoch, newRaw.Timestamp)
	}
}

func TestComputeNextNonBoundaryKeepsEpoch(t *testing.T) {
	prev := &Stored{
		Raw:                     Raw{Bits: 0x17053894},
		BlockHeight:             10,
		LastDiffAdjustmentEpoch: 1000,
		ChainWork:               uint256.NewInt(1000),
	}
	newRaw := &Raw{Bits: 0x17053894, Timestamp: 99999}

	next, err := ComputeNext(prev, newRaw)
	if err != nil {
		t.Fatalf("ComputeNext: %v", err)
	}
	if next.LastDiffAdjustmentEpoch != 1000 {
		t.Errorf("epoch should not reset away from a 2016 boundary, got %d", next.LastDiffAdjustmentEpoch)
	}
}

func TestComputeNextChainWorkMonotonic(t *testing.T) {
	prev := &Stored{
		Raw:         Raw{Bits: 0x17053894},
		BlockHeight: 5,
		ChainWork:   uint256.NewInt(42),
	}
	newRaw := &Raw{Bits: 0x17053894, Timestamp: 1700000000}

	next, err := ComputeNext(prev, newRaw)
	if err != nil {
		t.Fatalf("ComputeNext: %v", err)
	}
	if next.ChainWork.Cmp(prev.ChainWork) <= 0 {
		t.Error("chain work must strictly increase")
	}

	expectedWork := new(uint256.Int).Add(prev.ChainWork, workFromBits(newRaw.Bits))
	if next.ChainWork.Cmp(expectedWork) != 0 {
		t.Errorf("chain work = %s, want %s", next.ChainWork, expectedWork)
	}
}

func TestComputeNextPrevTimestampsShift(t *testing.T) {
	prev := &Stored{
		Raw:         Raw{Bits: 0x17053894},
		BlockHeight: 13, // next height 14, slot 14%10 == 4
		ChainWork:   uint256.NewInt(1),
	}
	newRaw := &Raw{Bits: 0x17053894, Timestamp: 555}

	next, err := ComputeNext(prev, newRaw)
	if err != nil {
		t.Fatalf("ComputeNext: %v", err)
	}
	if next.PrevBlockTimestamps[4] != 555 {
		t.Errorf("PrevBlockTimestamps[4] = %d, want 555", next.PrevBlockTimestamps[4])
	}
}

func TestComputeNextNilInputs(t *testing.T) {
	if _, err := ComputeNext(nil, genesisLikeRaw()); err == nil {
		t.Error("expected error for nil prev")
	}
	if _, err := ComputeNext(&Stored{ChainWork: uint256.NewInt(0)}, nil); err == nil {
		t.Error("expected error for nil new raw header")
	}
}
