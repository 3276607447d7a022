package core

import (
	"encoding/binary"

	"RollupLedger/internal/crypto"
)

const GenesisHashSeed = "RollupLedger:genesis:v1"

// StateHasher computes the chained state hash over sequenced roots.
type StateHasher struct {
	prevHash crypto.Digest
}

// NewStateHasher initializes with the genesis hash.
func NewStateHasher() *StateHasher {
	return &StateHasher{
		prevHash: crypto.Sum([]byte(GenesisHashSeed)),
	}
}

// ComputeHash calculates state_hash[N] = H(prev_hash || sequence || state_root)
// and advances the chain tip.
func (h *StateHasher) ComputeHash(sequence int64, stateRoot crypto.Digest) crypto.Digest {
	engine := crypto.New()

	engine.Update(h.prevHash[:])

	var seqBuf [8]byte
	binary.LittleEndian.PutUint64(seqBuf[:], uint64(sequence))
	engine.Update(seqBuf[:])

	engine.Update(stateRoot[:])

	hash := engine.Finalize()
	h.prevHash = hash
	return hash
}

// GetPrevHash returns the current chain tip.
func (h *StateHasher) GetPrevHash() crypto.Digest {
	return h.prevHash
}

// SetPrevHash restores the chain tip (used during snapshot recovery).
func (h *StateHasher) SetPrevHash(hash crypto.Digest) {
	h.prevHash = hash
}
