package event

import (
	"time"

	"RollupLedger/internal/crypto"
)

// EventType discriminator for event payloads
type EventType int32

const (
	EventTypeUnknown EventType = iota
	EventTypeAccountCreate
	EventTypeDeposit
	EventTypeTransfer
)

// Envelope wraps every sequenced event in the log
type Envelope struct {
	// Global monotonic sequence assigned by the sequencer
	Sequence int64

	// Stable idempotency key from upstream
	IdempotencyKey string

	// Event type discriminator
	EventType EventType

	// Timestamp carried in from the source (NOT wall-clock here)
	Timestamp time.Time

	// Upstream sequence for ordering validation
	SourceSequence int64

	// JSON-encoded event-specific data
	Payload []byte

	// Committed ledger root AFTER applying this event
	StateRoot crypto.Digest

	// Chained hash over (PrevHash, Sequence, StateRoot)
	StateHash crypto.Digest

	// Previous envelope's StateHash (chain integrity)
	PrevHash crypto.Digest

	// Commitment proof over the root transition
	Proof []byte
}

// Event is the interface all event payloads must implement
type Event interface {
	// IdempotencyKey returns the stable dedup key
	IdempotencyKey() string

	// EventType returns the discriminator
	EventType() EventType

	// SourceSequence returns the upstream ordering key
	SourceSequence() int64
}

func (et EventType) String() string {
	switch et {
	case EventTypeAccountCreate:
		return "AccountCreate"
	case EventTypeDeposit:
		return "Deposit"
	case EventTypeTransfer:
		return "Transfer"
	default:
		return "Unknown"
	}
}
