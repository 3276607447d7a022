// Package crypto implements the hash engine and the pluggable crypto
// capability the rollup is built on. The hash engine is written from
// scratch; signatures and sealing are provided behind the Suite interface
// so a hardware-backed implementation can be injected at construction time.
package crypto

// Verifier checks a signature over a message for a given public key. This
// is the only crypto capability the ledger itself depends on; tests inject
// mocks of it.
type Verifier interface {
	Verify(publicKey, message, signature []byte) bool
}

// Signer produces a signature over a message with a secret key.
type Signer interface {
	Sign(secretKey, message []byte) ([]byte, error)
}

// Sealer provides authenticated encryption for enclave data sealing.
type Sealer interface {
	Seal(key [32]byte, plaintext []byte) (SealedBlob, error)
	Open(key [32]byte, blob SealedBlob) ([]byte, error)
}

// Suite is the full capability set a rollup node needs: hashing, transfer
// signatures, and data sealing. One concrete implementation is injected per
// node; SoftwareSuite is the default.
type Suite interface {
	Signer
	Verifier
	Sealer
	Hash(data []byte) Digest
}

// SoftwareSuite implements Suite entirely in software: the in-tree hash
// engine, Ed25519 signatures, and AES-256-GCM sealing.
type SoftwareSuite struct{}

// NewSoftwareSuite returns the default software capability set.
func NewSoftwareSuite() *SoftwareSuite {
	return &SoftwareSuite{}
}

func (*SoftwareSuite) Hash(data []byte) Digest {
	return Sum(data)
}
