package query

import (
	"encoding/json"
	"time"
)

// AccountResponse is the read model for one ledger account. Balances
// come from the accounts projection, which is refreshed at snapshot
// time; AsOfSequence says how fresh the row is.
type AccountResponse struct {
	ID           int64             `json:"id"`
	PublicKey    string            `json:"public_key"` // hex
	Nonce        int64             `json:"nonce"`
	EthBalance   uint64            `json:"eth_balance"`
	Tokens       map[string]uint64 `json:"tokens,omitempty"`
	AsOfSequence int64             `json:"as_of_sequence"`
}

// EnvelopeResponse is the read model for one sequenced envelope.
type EnvelopeResponse struct {
	Sequence       int64           `json:"sequence"`
	EventType      string          `json:"event_type"`
	IdempotencyKey string          `json:"idempotency_key"`
	Payload        json.RawMessage `json:"payload"`
	StateRoot      string          `json:"state_root"` // hex
	StateHash      string          `json:"state_hash"` // hex
	PrevHash       string          `json:"prev_hash"`  // hex
	Proof          json.RawMessage `json:"proof,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	SourceSequence int64           `json:"source_sequence"`
}

// ChainStateResponse describes the head of the envelope log.
type ChainStateResponse struct {
	LatestSequence int64     `json:"latest_sequence"`
	StateRoot      string    `json:"state_root"` // hex
	StateHash      string    `json:"state_hash"` // hex
	Timestamp      time.Time `json:"timestamp"`
	Empty          bool      `json:"empty"`
}

// IntegrityReport is the result of an integrity verification pass.
type IntegrityReport struct {
	IsHealthy       bool    `json:"is_healthy"`
	HashChainBreaks []int64 `json:"hash_chain_breaks,omitempty"`
	SequenceGaps    []int64 `json:"sequence_gaps,omitempty"`
}
