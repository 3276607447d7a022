package ledger_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"RollupLedger/internal/crypto"
	"RollupLedger/internal/ledger"
)

func TestTransferMessageLayout(t *testing.T) {
	tx := &ledger.TransferTx{
		From:   1,
		To:     2,
		Amount: 0x0102030405060708,
		Nonce:  7,
	}
	msg := tx.Message()

	if len(msg) != ledger.TransferMessageSize {
		t.Fatalf("message length = %d, want %d", len(msg), ledger.TransferMessageSize)
	}
	if got := binary.LittleEndian.Uint32(msg[0:4]); got != 1 {
		t.Fatalf("from field = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(msg[4:8]); got != 2 {
		t.Fatalf("to field = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint64(msg[8:16]); got != 0x0102030405060708 {
		t.Fatalf("amount field = %#x", got)
	}
	if got := binary.LittleEndian.Uint32(msg[16:20]); got != 7 {
		t.Fatalf("nonce field = %d, want 7", got)
	}

	// Fixed bytes, spelled out, so an encoding change cannot slip by.
	want := []byte{
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
		0x07, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(msg[:], want) {
		t.Fatalf("message = %x, want %x", msg[:], want)
	}
}

func TestSignWithProducesVerifiableSignature(t *testing.T) {
	suite := crypto.NewSoftwareSuite()
	sec, pub, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	tx := &ledger.TransferTx{From: 0, To: 1, Amount: 50, Nonce: 3}
	if err := tx.SignWith(suite, sec); err != nil {
		t.Fatalf("SignWith: %v", err)
	}

	msg := tx.Message()
	if !suite.Verify(pub, msg[:], tx.Signature) {
		t.Fatal("signature does not verify")
	}
}

func TestTxBuilder(t *testing.T) {
	tx, err := ledger.NewTxBuilder().From(3).To(4).Amount(25).Nonce(9).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tx.From != 3 || tx.To != 4 || tx.Amount != 25 || tx.Nonce != 9 {
		t.Fatalf("built tx = %+v", tx)
	}

	// Nonce is optional and defaults to zero.
	tx, err = ledger.NewTxBuilder().From(0).To(1).Amount(1).Build()
	if err != nil {
		t.Fatalf("Build without nonce: %v", err)
	}
	if tx.Nonce != 0 {
		t.Fatalf("default nonce = %d, want 0", tx.Nonce)
	}
}

func TestTxBuilderMissingFields(t *testing.T) {
	cases := []struct {
		name    string
		builder *ledger.TxBuilder
	}{
		{"missing from", ledger.NewTxBuilder().To(1).Amount(1)},
		{"missing to", ledger.NewTxBuilder().From(0).Amount(1)},
		{"missing amount", ledger.NewTxBuilder().From(0).To(1)},
	}
	for _, tc := range cases {
		if _, err := tc.builder.Build(); err == nil {
			t.Errorf("%s: Build succeeded", tc.name)
		}
	}
}
