package crypto_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	"RollupLedger/internal/crypto"
)

// ============================================================================
// Test: known FIPS 180-4 vectors
// ============================================================================

func TestSum_EmptyString(t *testing.T) {
	got := crypto.Sum(nil)
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if hex.EncodeToString(got[:]) != want {
		t.Errorf("Sum(\"\") = %x, want %s", got, want)
	}
}

func TestSum_ABC(t *testing.T) {
	got := crypto.Sum([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if hex.EncodeToString(got[:]) != want {
		t.Errorf("Sum(\"abc\") = %x, want %s", got, want)
	}
}

func TestSum_TwoBlocks(t *testing.T) {
	// 56-byte message forces the length encoding into a second block.
	msg := []byte("abcdbcdecdefdefgefghfghighijhijkijkljklmklmnlmnomnopnopq")
	got := crypto.Sum(msg)
	want := "248d6a61d20638b8e5c026930c3e6039a33ce45964ff2167f6ecedd419db06c1"
	if hex.EncodeToString(got[:]) != want {
		t.Errorf("Sum(two-block) = %x, want %s", got, want)
	}
}

func TestSum_MillionA(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping long vector in -short mode")
	}
	msg := bytes.Repeat([]byte("a"), 1_000_000)
	got := crypto.Sum(msg)
	want := "cdc76e5c9914fb9281a1c7e284d73e67f1809a48a497200e046d39ccc7112cd0"
	if hex.EncodeToString(got[:]) != want {
		t.Errorf("Sum(1M 'a') = %x, want %s", got, want)
	}
}

// ============================================================================
// Test: determinism and incrementality
// ============================================================================

func TestSum_Deterministic(t *testing.T) {
	data := []byte("the same input twice")
	if crypto.Sum(data) != crypto.Sum(data) {
		t.Error("two hashes of the same input differ")
	}
}

func TestEngine_ChunkingIndependence(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdef"), 37) // 592 bytes, not block aligned
	want := crypto.Sum(data)

	for _, chunk := range []int{1, 3, 63, 64, 65, 128, 200} {
		e := crypto.New()
		for i := 0; i < len(data); i += chunk {
			end := i + chunk
			if end > len(data) {
				end = len(data)
			}
			e.Update(data[i:end])
		}
		if got := e.Finalize(); got != want {
			t.Errorf("chunk size %d: got %x, want %x", chunk, got, want)
		}
	}
}

func TestEngine_EmptyUpdates(t *testing.T) {
	e := crypto.New()
	e.Update(nil)
	e.Update([]byte{})
	e.Update([]byte("abc"))
	e.Update(nil)
	if got, want := e.Finalize(), crypto.Sum([]byte("abc")); got != want {
		t.Errorf("empty updates changed the digest: got %x, want %x", got, want)
	}
}

func TestEngine_BlockBoundaryLengths(t *testing.T) {
	// Padding behaves differently around the 56-byte cutoff and block edges.
	for _, n := range []int{0, 1, 55, 56, 57, 63, 64, 65, 119, 120, 127, 128} {
		data := bytes.Repeat([]byte{0x5a}, n)

		e := crypto.New()
		e.Update(data)
		if got, want := e.Finalize(), crypto.Sum(data); got != want {
			t.Errorf("length %d: incremental %x != one-shot %x", n, got, want)
		}
	}
}

// ============================================================================
// Test: one-shot Finalize
// ============================================================================

func TestEngine_FinalizeConsumesEngine(t *testing.T) {
	e := crypto.New()
	e.Update([]byte("abc"))
	e.Finalize()

	defer func() {
		if recover() == nil {
			t.Error("expected panic on Update after Finalize")
		}
	}()
	e.Update([]byte("more"))
}

func TestEngine_DoubleFinalizePanics(t *testing.T) {
	e := crypto.New()
	e.Finalize()

	defer func() {
		if recover() == nil {
			t.Error("expected panic on second Finalize")
		}
	}()
	e.Finalize()
}
