package tee

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"RollupLedger/internal/crypto"
)

// Report is the attested claim set: which enclave, what it measured
// as, and a caller-chosen user-data digest (here: the sequencer's
// transfer-verification key).
type Report struct {
	ReportID    uuid.UUID     `json:"report_id"`
	EnclaveID   uint32        `json:"enclave_id"`
	Measurement crypto.Digest `json:"measurement"`
	UserData    crypto.Digest `json:"user_data"`
	IssuedAt    time.Time     `json:"issued_at"`
}

// Evidence is a report plus the enclave's signature over it and the
// key to verify with.
type Evidence struct {
	Report     Report `json:"report"`
	Signature  []byte `json:"signature"`
	SigningKey []byte `json:"signing_key"`
}

// Attest produces signed evidence binding userData to this enclave's
// measurement. issuedAt is supplied by the caller so evidence stays
// reproducible under replay.
func (e *Enclave) Attest(userData []byte, issuedAt time.Time) (*Evidence, error) {
	report := Report{
		ReportID:    uuid.New(),
		EnclaveID:   e.ID,
		Measurement: e.Measurement,
		UserData:    crypto.DoubleSum(userData),
		IssuedAt:    issuedAt,
	}

	msg, err := reportBytes(&report)
	if err != nil {
		return nil, err
	}
	sig, err := e.suite.Sign(e.signingSecret, msg)
	if err != nil {
		return nil, fmt.Errorf("attest: %w", err)
	}

	return &Evidence{
		Report:     report,
		Signature:  sig,
		SigningKey: e.SigningKey(),
	}, nil
}

// VerifyEvidence checks the signature over the report. The caller is
// responsible for trusting the signing key and comparing the
// measurement against an expected value.
func VerifyEvidence(verifier crypto.Verifier, ev *Evidence) bool {
	if ev == nil {
		return false
	}
	msg, err := reportBytes(&ev.Report)
	if err != nil {
		return false
	}
	return verifier.Verify(ev.SigningKey, msg, ev.Signature)
}

// reportBytes is the canonical signed encoding of a report.
func reportBytes(r *Report) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return data, nil
}
