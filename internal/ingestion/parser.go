package ingestion

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"RollupLedger/internal/crypto"
	"RollupLedger/internal/event"
	"RollupLedger/internal/ledger"
)

// ParseRawEvent converts a RawEvent (JSON bytes + event type string)
// into a typed event.Event. The ingestion shell validates, parses, and
// converts raw events before they reach the sequencer.
func ParseRawEvent(raw RawEvent, eventType string) (event.Event, error) {
	switch eventType {
	case "AccountCreate":
		return parseAccountCreate(raw.Data)
	case "Deposit":
		return parseDeposit(raw.Data)
	case "Transfer":
		return parseTransfer(raw.Data)
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
}

// --- JSON wire formats ---
// These structs represent the JSON payloads received from NATS.
// Field names use snake_case to match upstream producers; binary
// fields (keys, signatures) are hex-encoded.

type accountCreateJSON struct {
	RequestID   string `json:"request_id"`
	PublicKey   string `json:"public_key"`
	Sequence    int64  `json:"sequence"`
	TimestampUs int64  `json:"timestamp_us"`
}

func parseAccountCreate(data []byte) (*event.AccountCreate, error) {
	var j accountCreateJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse AccountCreate: %w", err)
	}
	requestID, err := uuid.Parse(j.RequestID)
	if err != nil {
		return nil, fmt.Errorf("parse request_id: %w", err)
	}
	publicKey, err := hex.DecodeString(j.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("parse public_key: %w", err)
	}
	if len(publicKey) != crypto.PublicKeySize {
		return nil, fmt.Errorf("parse public_key: got %d bytes, want %d", len(publicKey), crypto.PublicKeySize)
	}
	return &event.AccountCreate{
		RequestID: requestID,
		PublicKey: publicKey,
		Sequence:  j.Sequence,
		Timestamp: time.UnixMicro(j.TimestampUs),
	}, nil
}

type depositJSON struct {
	DepositID   string `json:"deposit_id"`
	Account     uint32 `json:"account"`
	Asset       string `json:"asset"`
	Amount      uint64 `json:"amount"`
	Sequence    int64  `json:"sequence"`
	TimestampUs int64  `json:"timestamp_us"`
}

func parseDeposit(data []byte) (*event.Deposit, error) {
	var j depositJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse Deposit: %w", err)
	}
	depositID, err := uuid.Parse(j.DepositID)
	if err != nil {
		return nil, fmt.Errorf("parse deposit_id: %w", err)
	}
	return &event.Deposit{
		DepositID: depositID,
		Account:   ledger.AccountID(j.Account),
		Asset:     j.Asset,
		Amount:    j.Amount,
		Sequence:  j.Sequence,
		Timestamp: time.UnixMicro(j.TimestampUs),
	}, nil
}

type transferJSON struct {
	TransferID  string `json:"transfer_id"`
	From        uint32 `json:"from"`
	To          uint32 `json:"to"`
	Amount      uint64 `json:"amount"`
	Nonce       uint32 `json:"nonce"`
	Signature   string `json:"signature"`
	Sequence    int64  `json:"sequence"`
	TimestampUs int64  `json:"timestamp_us"`
}

func parseTransfer(data []byte) (*event.Transfer, error) {
	var j transferJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse Transfer: %w", err)
	}
	transferID, err := uuid.Parse(j.TransferID)
	if err != nil {
		return nil, fmt.Errorf("parse transfer_id: %w", err)
	}
	signature, err := hex.DecodeString(j.Signature)
	if err != nil {
		return nil, fmt.Errorf("parse signature: %w", err)
	}
	if len(signature) != crypto.SignatureSize {
		return nil, fmt.Errorf("parse signature: got %d bytes, want %d", len(signature), crypto.SignatureSize)
	}
	return &event.Transfer{
		TransferID: transferID,
		From:       ledger.AccountID(j.From),
		To:         ledger.AccountID(j.To),
		Amount:     j.Amount,
		Nonce:      j.Nonce,
		Signature:  signature,
		Sequence:   j.Sequence,
		Timestamp:  time.UnixMicro(j.TimestampUs),
	}, nil
}
