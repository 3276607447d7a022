// Package zkproof produces succinct commitments over state-root
// transitions. The current prover is a hash commitment, not a real
// zero-knowledge system; the envelope format reserves the field so a
// real prover can slot in behind the same interface.
package zkproof

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"RollupLedger/internal/crypto"
)

// proofDomain keeps transition commitments from colliding with any
// other use of the hash engine.
const proofDomain = "rollup:transition:v1"

// Proof commits to a single state-root transition at a sequence number.
type Proof struct {
	PrevRoot   crypto.Digest `json:"prev_root"`
	NewRoot    crypto.Digest `json:"new_root"`
	Sequence   int64         `json:"sequence"`
	Commitment crypto.Digest `json:"commitment"`
}

// Prover builds transition proofs.
type Prover interface {
	Prove(prevRoot, newRoot crypto.Digest, sequence int64) (*Proof, error)
	Verify(p *Proof) bool
}

// CommitmentProver is the default Prover: a double-hash commitment over
// the transition tuple.
type CommitmentProver struct{}

func NewCommitmentProver() *CommitmentProver {
	return &CommitmentProver{}
}

func commit(prevRoot, newRoot crypto.Digest, sequence int64) crypto.Digest {
	var buf bytes.Buffer
	buf.WriteString(proofDomain)
	buf.Write(prevRoot[:])
	buf.Write(newRoot[:])

	var seq [8]byte
	binary.LittleEndian.PutUint64(seq[:], uint64(sequence))
	buf.Write(seq[:])

	return crypto.DoubleSum(buf.Bytes())
}

// Prove builds the commitment for a root transition.
func (p *CommitmentProver) Prove(prevRoot, newRoot crypto.Digest, sequence int64) (*Proof, error) {
	return &Proof{
		PrevRoot:   prevRoot,
		NewRoot:    newRoot,
		Sequence:   sequence,
		Commitment: commit(prevRoot, newRoot, sequence),
	}, nil
}

// Verify recomputes the commitment and compares.
func (p *CommitmentProver) Verify(proof *Proof) bool {
	if proof == nil {
		return false
	}
	return proof.Commitment == commit(proof.PrevRoot, proof.NewRoot, proof.Sequence)
}

// Encode serializes a proof for the envelope's proof field.
func Encode(p *Proof) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode proof: %w", err)
	}
	return data, nil
}

// Decode parses an encoded proof.
func Decode(data []byte) (*Proof, error) {
	var p Proof
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode proof: %w", err)
	}
	return &p, nil
}
