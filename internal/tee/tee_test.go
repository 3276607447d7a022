package tee_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"RollupLedger/internal/crypto"
	"RollupLedger/internal/tee"
)

func launch(t *testing.T, cfg tee.EnclaveConfig) (*tee.Platform, *tee.Enclave) {
	t.Helper()
	platform := tee.NewPlatform(crypto.NewSoftwareSuite(), false)
	enc, err := platform.LaunchEnclave(cfg)
	if err != nil {
		t.Fatalf("LaunchEnclave: %v", err)
	}
	return platform, enc
}

func TestLaunchAssignsSequentialIDs(t *testing.T) {
	platform := tee.NewPlatform(crypto.NewSoftwareSuite(), false)

	for want := uint32(0); want < 3; want++ {
		enc, err := platform.LaunchEnclave(tee.EnclaveConfig{Name: "seq", Version: "1"})
		if err != nil {
			t.Fatalf("launch %d: %v", want, err)
		}
		if enc.ID != want {
			t.Fatalf("enclave id = %d, want %d", enc.ID, want)
		}
	}
	if platform.EnclaveCount() != 3 {
		t.Fatalf("count = %d, want 3", platform.EnclaveCount())
	}

	if _, err := platform.GetEnclave(1); err != nil {
		t.Fatalf("GetEnclave(1): %v", err)
	}
	if _, err := platform.GetEnclave(9); !errors.Is(err, tee.ErrEnclaveNotFound) {
		t.Fatalf("GetEnclave(9): got %v, want ErrEnclaveNotFound", err)
	}
}

func TestDebugEnclaveRejected(t *testing.T) {
	platform := tee.NewPlatform(crypto.NewSoftwareSuite(), false)
	_, err := platform.LaunchEnclave(tee.EnclaveConfig{Name: "dbg", Version: "1", Debug: true})
	if !errors.Is(err, tee.ErrDebugForbidden) {
		t.Fatalf("got %v, want ErrDebugForbidden", err)
	}

	permissive := tee.NewPlatform(crypto.NewSoftwareSuite(), true)
	if _, err := permissive.LaunchEnclave(tee.EnclaveConfig{Name: "dbg", Version: "1", Debug: true}); err != nil {
		t.Fatalf("permissive platform rejected debug enclave: %v", err)
	}
}

func TestMeasurementTracksConfig(t *testing.T) {
	_, a := launch(t, tee.EnclaveConfig{Name: "sequencer", Version: "1.0"})
	_, b := launch(t, tee.EnclaveConfig{Name: "sequencer", Version: "1.0"})
	_, c := launch(t, tee.EnclaveConfig{Name: "sequencer", Version: "1.1"})

	if a.Measurement != b.Measurement {
		t.Fatal("identical configs measured differently")
	}
	if a.Measurement == c.Measurement {
		t.Fatal("different versions measured identically")
	}
}

func TestSealUnsealRoundtrip(t *testing.T) {
	_, enc := launch(t, tee.EnclaveConfig{Name: "seal", Version: "1"})

	secret := []byte("signing key material")
	blob, err := enc.SealData(secret)
	if err != nil {
		t.Fatalf("SealData: %v", err)
	}
	if bytes.Contains(blob.Ciphertext, secret) {
		t.Fatal("sealed blob contains plaintext")
	}

	opened, err := enc.UnsealData(blob)
	if err != nil {
		t.Fatalf("UnsealData: %v", err)
	}
	if !bytes.Equal(opened, secret) {
		t.Fatal("unsealed data differs")
	}
}

func TestSealedBlobBoundToEnclave(t *testing.T) {
	_, a := launch(t, tee.EnclaveConfig{Name: "a", Version: "1"})
	_, b := launch(t, tee.EnclaveConfig{Name: "a", Version: "1"})

	blob, err := a.SealData([]byte("secret"))
	if err != nil {
		t.Fatalf("SealData: %v", err)
	}
	// Same measurement, different instance key: must not open.
	if _, err := b.UnsealData(blob); err == nil {
		t.Fatal("foreign enclave opened sealed blob")
	}
}

func TestAttestationVerifies(t *testing.T) {
	suite := crypto.NewSoftwareSuite()
	_, enc := launch(t, tee.EnclaveConfig{Name: "attest", Version: "1"})

	issuedAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	evidence, err := enc.Attest([]byte("verification key"), issuedAt)
	if err != nil {
		t.Fatalf("Attest: %v", err)
	}

	if !tee.VerifyEvidence(suite, evidence) {
		t.Fatal("fresh evidence does not verify")
	}
	if evidence.Report.EnclaveID != enc.ID {
		t.Fatal("report names wrong enclave")
	}
	if evidence.Report.Measurement != enc.Measurement {
		t.Fatal("report carries wrong measurement")
	}
	if evidence.Report.UserData != crypto.DoubleSum([]byte("verification key")) {
		t.Fatal("user data digest mismatch")
	}
	if !bytes.Equal(evidence.SigningKey, enc.SigningKey()) {
		t.Fatal("evidence signing key differs from enclave key")
	}
}

func TestTamperedEvidenceRejected(t *testing.T) {
	suite := crypto.NewSoftwareSuite()
	_, enc := launch(t, tee.EnclaveConfig{Name: "attest", Version: "1"})
	evidence, _ := enc.Attest([]byte("data"), time.Now())

	tampered := *evidence
	tampered.Report.EnclaveID = 99
	if tee.VerifyEvidence(suite, &tampered) {
		t.Fatal("tampered report accepted")
	}

	tampered = *evidence
	tampered.Signature = append([]byte(nil), evidence.Signature...)
	tampered.Signature[0] ^= 0x01
	if tee.VerifyEvidence(suite, &tampered) {
		t.Fatal("tampered signature accepted")
	}

	if tee.VerifyEvidence(suite, nil) {
		t.Fatal("nil evidence accepted")
	}
}

func TestSecureStorage(t *testing.T) {
	_, enc := launch(t, tee.EnclaveConfig{Name: "store", Version: "1"})
	store := tee.NewSecureStorage(enc)

	if err := store.Put("signing-key", []byte("material")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := store.Get("signing-key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte("material")) {
		t.Fatal("stored value differs")
	}

	if _, err := store.Get("missing"); !errors.Is(err, tee.ErrKeyNotFound) {
		t.Fatalf("missing key: got %v, want ErrKeyNotFound", err)
	}

	if err := store.Put("signing-key", []byte("rotated")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = store.Get("signing-key")
	if !bytes.Equal(got, []byte("rotated")) {
		t.Fatal("overwrite not visible")
	}

	store.Delete("signing-key")
	if store.Len() != 0 {
		t.Fatalf("len after delete = %d, want 0", store.Len())
	}
}
