package zkproof_test

import (
	"testing"

	"RollupLedger/internal/crypto"
	"RollupLedger/internal/zkproof"
)

func TestProveVerifyRoundtrip(t *testing.T) {
	prover := zkproof.NewCommitmentProver()
	prev := crypto.Sum([]byte("prev"))
	next := crypto.Sum([]byte("next"))

	proof, err := prover.Prove(prev, next, 42)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if !prover.Verify(proof) {
		t.Fatal("fresh proof does not verify")
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	prover := zkproof.NewCommitmentProver()
	prev := crypto.Sum([]byte("prev"))
	next := crypto.Sum([]byte("next"))
	proof, _ := prover.Prove(prev, next, 42)

	bad := *proof
	bad.Sequence = 43
	if prover.Verify(&bad) {
		t.Fatal("sequence tamper accepted")
	}

	bad = *proof
	bad.NewRoot[0] ^= 0x01
	if prover.Verify(&bad) {
		t.Fatal("root tamper accepted")
	}

	if prover.Verify(nil) {
		t.Fatal("nil proof accepted")
	}
}

func TestProofDistinctPerTransition(t *testing.T) {
	prover := zkproof.NewCommitmentProver()
	a := crypto.Sum([]byte("a"))
	b := crypto.Sum([]byte("b"))

	p1, _ := prover.Prove(a, b, 1)
	p2, _ := prover.Prove(a, b, 2)
	p3, _ := prover.Prove(b, a, 1)

	if p1.Commitment == p2.Commitment || p1.Commitment == p3.Commitment {
		t.Fatal("distinct transitions produced identical commitments")
	}
}

func TestEncodeDecode(t *testing.T) {
	prover := zkproof.NewCommitmentProver()
	proof, _ := prover.Prove(crypto.Sum([]byte("x")), crypto.Sum([]byte("y")), 7)

	data, err := zkproof.Encode(proof)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := zkproof.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if *decoded != *proof {
		t.Fatal("decoded proof differs")
	}
	if !prover.Verify(decoded) {
		t.Fatal("decoded proof does not verify")
	}
}
