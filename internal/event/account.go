package event

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AccountCreate registers a new public key with the ledger.
type AccountCreate struct {
	RequestID uuid.UUID
	PublicKey []byte
	Sequence  int64
	Timestamp time.Time
}

// MarshalJSON emits the wire format. Envelope payloads are stored in
// this form so replay feeds them through the same parser as live NATS
// messages.
func (a *AccountCreate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		RequestID   string `json:"request_id"`
		PublicKey   string `json:"public_key"`
		Sequence    int64  `json:"sequence"`
		TimestampUs int64  `json:"timestamp_us"`
	}{
		RequestID:   a.RequestID.String(),
		PublicKey:   hex.EncodeToString(a.PublicKey),
		Sequence:    a.Sequence,
		TimestampUs: a.Timestamp.UnixMicro(),
	})
}

func (a *AccountCreate) IdempotencyKey() string {
	return a.RequestID.String()
}

func (a *AccountCreate) EventType() EventType {
	return EventTypeAccountCreate
}

func (a *AccountCreate) SourceSequence() int64 {
	return a.Sequence
}
