package commitment

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	cases := []DataFields{
		{},
		{Expiry: 1, EscrowNonce: 1, Confirmations: 1, Kind: KindHTLC, PayIn: true, PayOut: false, Index: 1},
		{Expiry: ^uint64(0), EscrowNonce: ^uint64(0), Confirmations: 0xffff, Kind: KindChainTxid, PayIn: true, PayOut: true, Index: 0xff},
		{Expiry: 1700000000, EscrowNonce: 42, Confirmations: 6, Kind: KindChainNonced, PayIn: false, PayOut: true, Index: 7},
	}

	for i, f := range cases {
		packed := Pack(f)
		got := Unpack(packed)
		if got != f {
			t.Errorf("case %d: round trip mismatch: got %+v, want %+v", i, got, f)
		}
	}
}

func TestPackFieldsDoNotOverlap(t *testing.T) {
	expiryOnly := Pack(DataFields{Expiry: ^uint64(0)})
	nonceOnly := Pack(DataFields{EscrowNonce: ^uint64(0)})

	combined := new(big.Int).Or(expiryOnly, nonceOnly)
	want := Pack(DataFields{Expiry: ^uint64(0), EscrowNonce: ^uint64(0)})
	if combined.Cmp(want) != 0 {
		t.Error("expiry and nonce bit ranges must not overlap")
	}
}

func TestHashDeterministic(t *testing.T) {
	r := &Record{
		Offerer:         common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Claimer:         common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Token:           common.Address{},
		Amount:          big.NewInt(1_000_000),
		PaymentHash:     [32]byte{1, 2, 3},
		Data:            Pack(DataFields{Expiry: 1700000000, EscrowNonce: 1, Confirmations: 3, Kind: KindHTLC}),
		SecurityDeposit: big.NewInt(1000),
		ClaimerBounty:   big.NewInt(2000),
	}

	h1, err := Hash(r)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := Hash(r)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 != h2 {
		t.Error("Hash must be deterministic for identical input")
	}

	r2 := *r
	r2.Amount = big.NewInt(1_000_001)
	h3, err := Hash(&r2)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 == h3 {
		t.Error("Hash must change when amount changes")
	}
}

func TestHashForOnchainDeterministic(t *testing.T) {
	script := []byte{0x00, 0x14, 1, 2, 3, 4}
	h1 := HashForOnchain(script, 50000, 7)
	h2 := HashForOnchain(script, 50000, 7)
	if h1 != h2 {
		t.Error("HashForOnchain must be deterministic")
	}

	h3 := HashForOnchain(script, 50001, 7)
	if h1 == h3 {
		t.Error("HashForOnchain must change when amount changes")
	}

	h4 := HashForOnchain(script, 50000, 8)
	if h1 == h4 {
		t.Error("HashForOnchain must change when nonce changes")
	}
}
