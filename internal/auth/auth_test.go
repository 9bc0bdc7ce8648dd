package auth

import (
	"crypto/ecdsa"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/klingon-exchange/btcrelay-swap/internal/config"
)

func mustKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return key
}

func TestSignRecoverRoundTrip(t *testing.T) {
	key := mustKey(t)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	var commitHash [32]byte
	commitHash[0] = 0xAB

	a, err := Sign(key, PrefixRefund, commitHash, 9999999999)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	got, err := recoveredAddress(a)
	if err != nil {
		t.Fatalf("recoveredAddress: %v", err)
	}
	if got != addr {
		t.Errorf("recovered %s, want %s", got.Hex(), addr.Hex())
	}
}

func TestVerifySuccess(t *testing.T) {
	key := mustKey(t)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	var commitHash [32]byte
	now := time.Unix(1_700_000_000, 0)

	a, err := Sign(key, PrefixRefund, commitHash, uint64(now.Unix())+1000)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	err = Verify(a, VerifyRequest{
		ExpectedPrefix: PrefixRefund,
		Now:            now,
		Grace:          config.DefaultGracePeriods(),
		ExpectedSigner: addr,
	})
	if err != nil {
		t.Errorf("Verify: unexpected error: %v", err)
	}
}

// TestVerifyAuthorizationExpired covers scenario S4: timeout = now+200,
// auth_grace_period = 300 -> rejected because 200 < 300.
func TestVerifyAuthorizationExpired(t *testing.T) {
	key := mustKey(t)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	now := time.Unix(1_700_000_000, 0)
	timeout := uint64(now.Unix()) + 200

	a, err := Sign(key, PrefixRefund, [32]byte{}, timeout)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	err = Verify(a, VerifyRequest{
		ExpectedPrefix: PrefixRefund,
		Now:            now,
		Grace:          config.GracePeriods{Auth: 300 * time.Second},
		ExpectedSigner: addr,
	})
	if err == nil {
		t.Fatal("expected authorization-expired error")
	}
}

// TestVerifyReplayProtection covers scenario S5: on-chain commitment
// index is 7 but swap.data.index is 6 -> rejected as invalid nonce.
func TestVerifyReplayProtection(t *testing.T) {
	key := mustKey(t)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	now := time.Unix(1_700_000_000, 0)
	timeout := uint64(now.Unix()) + 100_000

	a, err := Sign(key, PrefixInitialize, [32]byte{}, timeout)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	err = Verify(a, VerifyRequest{
		ExpectedPrefix: PrefixInitialize,
		Now:            now,
		Grace:          config.DefaultGracePeriods(),
		SwapExpiry:     uint64(now.Unix()) + 100_000,
		CheckIndex:     true,
		OnChainIndex:   7,
		SwapDataIndex:  6,
		ExpectedSigner: addr,
	})
	if err == nil {
		t.Fatal("expected invalid-nonce error")
	}
}

func TestVerifyPrefixMismatch(t *testing.T) {
	key := mustKey(t)
	addr := crypto.PubkeyToAddress(key.PublicKey)
	now := time.Unix(1_700_000_000, 0)

	a, err := Sign(key, PrefixRefund, [32]byte{}, uint64(now.Unix())+100_000)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	err = Verify(a, VerifyRequest{
		ExpectedPrefix: PrefixClaimInitialize,
		Now:            now,
		Grace:          config.DefaultGracePeriods(),
		ExpectedSigner: addr,
	})
	if err == nil {
		t.Fatal("expected prefix-mismatch error")
	}
}

func TestVerifySignerMismatch(t *testing.T) {
	key := mustKey(t)
	wrongAddr := crypto.PubkeyToAddress(mustKey(t).PublicKey)
	now := time.Unix(1_700_000_000, 0)

	a, err := Sign(key, PrefixRefund, [32]byte{}, uint64(now.Unix())+100_000)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	err = Verify(a, VerifyRequest{
		ExpectedPrefix: PrefixRefund,
		Now:            now,
		Grace:          config.DefaultGracePeriods(),
		ExpectedSigner: wrongAddr,
	})
	if err == nil {
		t.Fatal("expected signer-mismatch error")
	}
}

func TestVerifyInitExpiryTooClose(t *testing.T) {
	key := mustKey(t)
	addr := crypto.PubkeyToAddress(key.PublicKey)
	now := time.Unix(1_700_000_000, 0)

	a, err := Sign(key, PrefixInitialize, [32]byte{}, uint64(now.Unix())+100_000)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	err = Verify(a, VerifyRequest{
		ExpectedPrefix: PrefixInitialize,
		Now:            now,
		Grace:          config.DefaultGracePeriods(),
		SwapExpiry:     uint64(now.Unix()) + 100, // far less than auth+claim grace
		ExpectedSigner: addr,
	})
	if err == nil {
		t.Fatal("expected swap-expiry-too-close error")
	}
}

func TestIsExpiredAndSoftExpired(t *testing.T) {
	grace := 300 * time.Second
	timeout := uint64(1_700_000_000)

	if IsExpired(timeout, grace, (int64(timeout)+299)*1000) {
		t.Error("should not be expired just before the boundary")
	}
	if !IsExpired(timeout, grace, (int64(timeout)+301)*1000) {
		t.Error("should be expired just after the boundary")
	}

	if !IsSoftExpired(timeout, grace, (int64(timeout)-299)*1000) {
		t.Error("should be soft-expired just after the soft boundary")
	}
	if IsSoftExpired(timeout, grace, (int64(timeout)-301)*1000) {
		t.Error("should not be soft-expired before the soft boundary")
	}
}

func TestPackedTimeoutV(t *testing.T) {
	a := &Authorization{Timeout: 42}
	a.Signature.V = 27
	packed := a.PackedTimeoutV()

	want := (uint64(42) << 8) | 27
	if packed.Uint64() != want {
		t.Errorf("PackedTimeoutV = %d, want %d", packed.Uint64(), want)
	}
}
