package event

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"RollupLedger/internal/ledger"
)

// Transfer carries a signed transfer intent into the sequencer.
type Transfer struct {
	TransferID uuid.UUID
	From       ledger.AccountID
	To         ledger.AccountID
	Amount     uint64
	Nonce      uint32
	Signature  []byte
	Sequence   int64
	Timestamp  time.Time
}

// MarshalJSON emits the wire format, matching the parser's expectations
// for both live and replayed payloads.
func (t *Transfer) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TransferID  string `json:"transfer_id"`
		From        uint32 `json:"from"`
		To          uint32 `json:"to"`
		Amount      uint64 `json:"amount"`
		Nonce       uint32 `json:"nonce"`
		Signature   string `json:"signature"`
		Sequence    int64  `json:"sequence"`
		TimestampUs int64  `json:"timestamp_us"`
	}{
		TransferID:  t.TransferID.String(),
		From:        uint32(t.From),
		To:          uint32(t.To),
		Amount:      t.Amount,
		Nonce:       t.Nonce,
		Signature:   hex.EncodeToString(t.Signature),
		Sequence:    t.Sequence,
		TimestampUs: t.Timestamp.UnixMicro(),
	})
}

func (t *Transfer) IdempotencyKey() string {
	return t.TransferID.String()
}

func (t *Transfer) EventType() EventType {
	return EventTypeTransfer
}

func (t *Transfer) SourceSequence() int64 {
	return t.Sequence
}

// Tx converts the event to the ledger's transaction form.
func (t *Transfer) Tx() *ledger.TransferTx {
	return &ledger.TransferTx{
		From:      t.From,
		To:        t.To,
		Amount:    t.Amount,
		Nonce:     t.Nonce,
		Signature: t.Signature,
	}
}
