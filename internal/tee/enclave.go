// Package tee simulates a trusted execution environment: enclave
// launch with measured identity, data sealing bound to an enclave key,
// and signed attestation evidence. The node uses it to protect the
// sequencer's signing material at rest.
package tee

import (
	"crypto/rand"
	"errors"
	"fmt"

	"RollupLedger/internal/crypto"
)

var (
	ErrEnclaveNotFound = errors.New("enclave not found")
	ErrDebugForbidden  = errors.New("debug enclaves are not allowed on this platform")
)

// EnclaveConfig describes the enclave being launched. Name and Version
// feed the measurement, so the same build always measures the same.
type EnclaveConfig struct {
	Name    string
	Version string
	Debug   bool
}

// Enclave is one launched instance. The seal key and signing secret
// never leave it.
type Enclave struct {
	ID          uint32
	Config      EnclaveConfig
	Measurement crypto.Digest

	suite         crypto.Suite
	sealKey       [32]byte
	signingSecret []byte
	signingPublic []byte
}

// Platform launches and tracks enclaves. Enclave ids are owned by the
// platform and assigned sequentially; there is no global counter.
type Platform struct {
	suite      crypto.Suite
	allowDebug bool
	nextID     uint32
	enclaves   map[uint32]*Enclave
}

// NewPlatform returns a platform backed by the given crypto suite.
func NewPlatform(suite crypto.Suite, allowDebug bool) *Platform {
	return &Platform{
		suite:      suite,
		allowDebug: allowDebug,
		enclaves:   make(map[uint32]*Enclave),
	}
}

// LaunchEnclave measures the config, generates the enclave's seal key
// and signing keypair, and registers it under the next id.
func (p *Platform) LaunchEnclave(cfg EnclaveConfig) (*Enclave, error) {
	if cfg.Debug && !p.allowDebug {
		return nil, ErrDebugForbidden
	}

	enc := &Enclave{
		ID:          p.nextID,
		Config:      cfg,
		Measurement: measure(cfg),
		suite:       p.suite,
	}

	if _, err := rand.Read(enc.sealKey[:]); err != nil {
		return nil, fmt.Errorf("launch enclave: seal key: %w", err)
	}
	secret, public, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("launch enclave: signing key: %w", err)
	}
	enc.signingSecret = secret
	enc.signingPublic = public

	p.nextID++
	p.enclaves[enc.ID] = enc
	return enc, nil
}

// GetEnclave looks up a launched enclave.
func (p *Platform) GetEnclave(id uint32) (*Enclave, error) {
	enc, ok := p.enclaves[id]
	if !ok {
		return nil, fmt.Errorf("enclave %d: %w", id, ErrEnclaveNotFound)
	}
	return enc, nil
}

// EnclaveCount returns the number of launched enclaves.
func (p *Platform) EnclaveCount() int {
	return len(p.enclaves)
}

// measure derives the enclave identity from its config.
func measure(cfg EnclaveConfig) crypto.Digest {
	buf := make([]byte, 0, len(cfg.Name)+len(cfg.Version)+2)
	buf = append(buf, cfg.Name...)
	buf = append(buf, 0x00)
	buf = append(buf, cfg.Version...)
	if cfg.Debug {
		buf = append(buf, 0x01)
	} else {
		buf = append(buf, 0x00)
	}
	return crypto.DoubleSum(buf)
}

// SealData encrypts data under the enclave's seal key. Only the same
// enclave instance can open the result.
func (e *Enclave) SealData(data []byte) (*crypto.SealedBlob, error) {
	blob, err := e.suite.Seal(e.sealKey, data)
	if err != nil {
		return nil, err
	}
	return &blob, nil
}

// UnsealData decrypts a blob previously sealed by this enclave.
func (e *Enclave) UnsealData(blob *crypto.SealedBlob) ([]byte, error) {
	return e.suite.Open(e.sealKey, *blob)
}

// SigningKey returns the enclave's attestation public key.
func (e *Enclave) SigningKey() []byte {
	return append([]byte(nil), e.signingPublic...)
}
