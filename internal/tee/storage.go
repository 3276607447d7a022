package tee

import (
	"errors"
	"fmt"
	"sync"

	"RollupLedger/internal/crypto"
)

var ErrKeyNotFound = errors.New("sealed key not found")

// SecureStorage is a sealed key-value store backed by one enclave.
// Values are encrypted on Put and decrypted on Get; the stored blobs
// are useless without the enclave's seal key. Safe for concurrent use.
type SecureStorage struct {
	mu      sync.RWMutex
	enclave *Enclave
	blobs   map[string]*crypto.SealedBlob
}

// NewSecureStorage returns an empty store sealed by enc.
func NewSecureStorage(enc *Enclave) *SecureStorage {
	return &SecureStorage{
		enclave: enc,
		blobs:   make(map[string]*crypto.SealedBlob),
	}
}

// Put seals value under key, replacing any previous entry.
func (s *SecureStorage) Put(key string, value []byte) error {
	blob, err := s.enclave.SealData(value)
	if err != nil {
		return fmt.Errorf("secure storage put %q: %w", key, err)
	}

	s.mu.Lock()
	s.blobs[key] = blob
	s.mu.Unlock()
	return nil
}

// Get unseals the value stored under key.
func (s *SecureStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	blob, ok := s.blobs[key]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("secure storage get %q: %w", key, ErrKeyNotFound)
	}
	value, err := s.enclave.UnsealData(blob)
	if err != nil {
		return nil, fmt.Errorf("secure storage get %q: %w", key, err)
	}
	return value, nil
}

// Delete removes an entry. Deleting a missing key is a no-op.
func (s *SecureStorage) Delete(key string) {
	s.mu.Lock()
	delete(s.blobs, key)
	s.mu.Unlock()
}

// Len returns the number of stored entries.
func (s *SecureStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
