package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

// NonceSize is the GCM nonce size carried in a SealedBlob.
const NonceSize = 12

// SealedBlob is an authenticated ciphertext produced by Seal. The 16-byte
// GCM tag is kept inline at the end of Ciphertext.
type SealedBlob struct {
	Nonce      [NonceSize]byte `json:"nonce"`
	Ciphertext []byte          `json:"ciphertext"`
}

// Seal encrypts plaintext under key with AES-256-GCM and a random nonce.
func (*SoftwareSuite) Seal(key [32]byte, plaintext []byte) (SealedBlob, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return SealedBlob{}, fmt.Errorf("seal: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return SealedBlob{}, fmt.Errorf("seal: %w", err)
	}

	var blob SealedBlob
	if _, err := rand.Read(blob.Nonce[:]); err != nil {
		return SealedBlob{}, fmt.Errorf("seal: nonce: %w", err)
	}

	blob.Ciphertext = gcm.Seal(nil, blob.Nonce[:], plaintext, nil)
	return blob, nil
}

// Open decrypts a SealedBlob. It fails if the key is wrong or the
// ciphertext was tampered with.
func (*SoftwareSuite) Open(key [32]byte, blob SealedBlob) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	plaintext, err := gcm.Open(nil, blob.Nonce[:], blob.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open: authentication failed: %w", err)
	}
	return plaintext, nil
}
