package ledger

import (
	"encoding/binary"
	"sort"

	"RollupLedger/internal/crypto"
)

// stateRootLeaves is the fixed width of the state commitment tree. Only
// accounts with id < stateRootLeaves contribute; the commitment covers
// the genesis account set, not the full ledger.
const stateRootLeaves = 4

// StateRoot commits the first four accounts into a depth-2 binary tree.
//
// Each contributing account becomes a raw 32-byte leaf: the id as 4
// little-endian bytes, then the low 4 bytes of the eth balance
// little-endian, then zero padding. Leaves are ordered by id and the
// tree is padded to exactly four with all-zero leaves; leaves are not
// pre-hashed.
//
// This deliberately uses single hashing with no domain prefixes: the
// commitment layout is fixed at depth 2, so the second-preimage shaping
// that domain-tagged hashing defends against in variable-height trees
// does not apply, and the on-chain verifier expects this exact layout.
// It is a distinct algorithm from crypto.MerkleRoot and must not be
// folded into it.
func (s *State) StateRoot() crypto.Digest {
	ids := make([]AccountID, 0, stateRootLeaves)
	for id := range s.accounts {
		if id < stateRootLeaves {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var leaves [stateRootLeaves]crypto.Digest
	for i, id := range ids {
		acct := s.accounts[id]
		binary.LittleEndian.PutUint32(leaves[i][0:4], uint32(id))
		binary.LittleEndian.PutUint32(leaves[i][4:8], uint32(acct.Balance.Eth))
	}
	// remaining leaves stay all-zero

	h01 := crypto.Sum(append(leaves[0][:], leaves[1][:]...))
	h23 := crypto.Sum(append(leaves[2][:], leaves[3][:]...))
	return crypto.Sum(append(h01[:], h23[:]...))
}
