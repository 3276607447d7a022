package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"RollupLedger/internal/ledger"
)

// Deposit credits an account from an external bridge. Asset is empty
// for the native eth balance, otherwise a token symbol.
type Deposit struct {
	DepositID uuid.UUID
	Account   ledger.AccountID
	Asset     string
	Amount    uint64
	Sequence  int64
	Timestamp time.Time
}

// MarshalJSON emits the wire format, matching the parser's expectations
// for both live and replayed payloads.
func (d *Deposit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		DepositID   string `json:"deposit_id"`
		Account     uint32 `json:"account"`
		Asset       string `json:"asset"`
		Amount      uint64 `json:"amount"`
		Sequence    int64  `json:"sequence"`
		TimestampUs int64  `json:"timestamp_us"`
	}{
		DepositID:   d.DepositID.String(),
		Account:     uint32(d.Account),
		Asset:       d.Asset,
		Amount:      d.Amount,
		Sequence:    d.Sequence,
		TimestampUs: d.Timestamp.UnixMicro(),
	})
}

func (d *Deposit) IdempotencyKey() string {
	return d.DepositID.String()
}

func (d *Deposit) EventType() EventType {
	return EventTypeDeposit
}

func (d *Deposit) SourceSequence() int64 {
	return d.Sequence
}
