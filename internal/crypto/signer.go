package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// Size constants for the Ed25519 keys and signatures carried as opaque
// bytes through the ledger.
const (
	PublicKeySize = ed25519.PublicKeySize
	SecretKeySize = ed25519.SeedSize
	SignatureSize = ed25519.SignatureSize
)

// GenerateKeyPair creates a fresh Ed25519 key pair. The secret key is
// returned in 32-byte seed form.
func GenerateKeyPair() (secretKey, publicKey []byte, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key pair: %w", err)
	}
	return priv.Seed(), pub, nil
}

// Sign signs message with a 32-byte seed secret key.
func (*SoftwareSuite) Sign(secretKey, message []byte) ([]byte, error) {
	if len(secretKey) != SecretKeySize {
		return nil, fmt.Errorf("sign: secret key must be %d bytes, got %d", SecretKeySize, len(secretKey))
	}
	priv := ed25519.NewKeyFromSeed(secretKey)
	return ed25519.Sign(priv, message), nil
}

// Verify reports whether signature is a valid Ed25519 signature over
// message for publicKey. Malformed keys or signatures verify as false,
// never as an error — the ledger treats both the same way.
func (*SoftwareSuite) Verify(publicKey, message, signature []byte) bool {
	if len(publicKey) != PublicKeySize || len(signature) != SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
}
