package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"

	"RollupLedger/internal/crypto"
)

// TransferMessageSize is the length of the canonical signing message:
// from(4) ‖ to(4) ‖ amount(8) ‖ nonce(4), all little-endian.
const TransferMessageSize = 20

// TransferTx is a signed transfer intent. It is constructed by a caller,
// signed once, and submitted once; the ledger keeps only its effects.
type TransferTx struct {
	From      AccountID
	To        AccountID
	Amount    uint64
	Nonce     uint32
	Signature []byte
}

// Message returns the canonical fixed-width encoding the signature covers.
func (tx *TransferTx) Message() [TransferMessageSize]byte {
	var msg [TransferMessageSize]byte
	binary.LittleEndian.PutUint32(msg[0:], uint32(tx.From))
	binary.LittleEndian.PutUint32(msg[4:], uint32(tx.To))
	binary.LittleEndian.PutUint64(msg[8:], tx.Amount)
	binary.LittleEndian.PutUint32(msg[16:], tx.Nonce)
	return msg
}

// SignWith fills in the signature over the canonical message.
func (tx *TransferTx) SignWith(signer crypto.Signer, secretKey []byte) error {
	msg := tx.Message()
	sig, err := signer.Sign(secretKey, msg[:])
	if err != nil {
		return fmt.Errorf("sign transfer: %w", err)
	}
	tx.Signature = sig
	return nil
}

// TxBuilder assembles a TransferTx field by field. Build fails if a
// required field was never set; nonce defaults to 0.
type TxBuilder struct {
	from, to *AccountID
	amount   *uint64
	nonce    uint32
}

func NewTxBuilder() *TxBuilder { return &TxBuilder{} }

func (b *TxBuilder) From(id AccountID) *TxBuilder {
	b.from = &id
	return b
}

func (b *TxBuilder) To(id AccountID) *TxBuilder {
	b.to = &id
	return b
}

func (b *TxBuilder) Amount(amount uint64) *TxBuilder {
	b.amount = &amount
	return b
}

func (b *TxBuilder) Nonce(nonce uint32) *TxBuilder {
	b.nonce = nonce
	return b
}

func (b *TxBuilder) Build() (*TransferTx, error) {
	if b.from == nil {
		return nil, errors.New("build transfer: missing from account")
	}
	if b.to == nil {
		return nil, errors.New("build transfer: missing to account")
	}
	if b.amount == nil {
		return nil, errors.New("build transfer: missing amount")
	}
	return &TransferTx{
		From:   *b.from,
		To:     *b.to,
		Amount: *b.amount,
		Nonce:  b.nonce,
	}, nil
}
