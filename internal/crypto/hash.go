package crypto

// Domain-separation prefixes for tree hashing. A leaf digest can never
// collide with a branch digest because the first hashed byte differs.
const (
	leafPrefix   = 0x00
	branchPrefix = 0x01
)

// DoubleSum computes Sum(Sum(data)). Double application defeats
// length-extension style structural attacks on the plain digest.
func DoubleSum(data []byte) Digest {
	first := Sum(data)
	return Sum(first[:])
}

// LeafSum computes the domain-tagged leaf digest DoubleSum(0x00 ‖ data).
func LeafSum(data []byte) Digest {
	buf := make([]byte, 1+len(data))
	buf[0] = leafPrefix
	copy(buf[1:], data)
	return DoubleSum(buf)
}

// BranchSum computes the domain-tagged branch digest
// DoubleSum(0x01 ‖ left ‖ right).
func BranchSum(left, right Digest) Digest {
	var buf [1 + 2*DigestSize]byte
	buf[0] = branchPrefix
	copy(buf[1:], left[:])
	copy(buf[1+DigestSize:], right[:])
	return DoubleSum(buf[:])
}

// MerkleRoot reduces a level of digests pairwise with BranchSum until one
// remains. An odd tail element is carried forward to the next level
// unchanged — it is not paired with a copy of itself. The empty sequence
// yields the all-zero digest; a single leaf is returned as-is.
func MerkleRoot(leaves []Digest) Digest {
	if len(leaves) == 0 {
		return ZeroDigest
	}
	if len(leaves) == 1 {
		return leaves[0]
	}

	level := make([]Digest, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		next := make([]Digest, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			next = append(next, BranchSum(level[i], level[i+1]))
		}
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}
		level = next
	}

	return level[0]
}
