package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EventLogWriter writes sequenced envelopes to Postgres using batch
// inserts. Multi-row INSERT keeps this portable; switch to pgx CopyFrom
// if write throughput ever becomes the bottleneck.
type EventLogWriter struct {
	db *sql.DB
}

// EnvelopeRow represents a row in rollup.envelopes.
type EnvelopeRow struct {
	Sequence       int64
	EventType      string
	IdempotencyKey string
	Payload        []byte // JSON-encoded event payload
	StateRoot      []byte
	StateHash      []byte
	PrevHash       []byte
	Proof          []byte
	Timestamp      time.Time
	SourceSequence int64
}

// AccountRow represents a row in the rollup.accounts projection.
// EthBalance is the full uint64 wei amount; it is stored as NUMERIC
// because values past 2^63 do not fit a BIGINT.
type AccountRow struct {
	ID         int64
	PublicKey  []byte
	Nonce      int64
	EthBalance uint64
	Tokens     []byte // JSON object symbol -> amount
	UpdatedSeq int64
}

func NewEventLogWriter(db *sql.DB) *EventLogWriter {
	return &EventLogWriter{db: db}
}

// execer lets batch writes run either directly or inside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// WriteEnvelopeBatch writes a batch of envelopes with a multi-row INSERT.
// Writes are idempotent: a replayed sequence is a no-op.
func (w *EventLogWriter) WriteEnvelopeBatch(ctx context.Context, ex execer, envelopes []EnvelopeRow) error {
	if len(envelopes) == 0 {
		return nil
	}

	query := `INSERT INTO rollup.envelopes
		(sequence, event_type, idempotency_key, payload, state_root, state_hash, prev_hash, proof, timestamp, source_sequence)
		VALUES `

	values := make([]string, 0, len(envelopes))
	args := make([]interface{}, 0, len(envelopes)*10)

	for i, e := range envelopes {
		base := i * 10
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10,
		))
		args = append(args,
			e.Sequence, e.EventType, e.IdempotencyKey, e.Payload,
			e.StateRoot, e.StateHash, e.PrevHash, e.Proof,
			e.Timestamp, e.SourceSequence,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (sequence) DO NOTHING"

	_, err := ex.ExecContext(ctx, query, args...)
	return err
}

// UpsertAccounts refreshes the rollup.accounts projection. Called at
// snapshot time; the projection lags the sequencer by design and exists
// for offline queries, not for the hot path.
func (w *EventLogWriter) UpsertAccounts(ctx context.Context, ex execer, accounts []AccountRow) error {
	if len(accounts) == 0 {
		return nil
	}

	query := `INSERT INTO rollup.accounts
		(id, public_key, nonce, eth_balance, tokens, updated_seq)
		VALUES `

	values := make([]string, 0, len(accounts))
	args := make([]interface{}, 0, len(accounts)*6)

	for i, a := range accounts {
		base := i * 6
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
		))
		// database/sql rejects uint64 above 2^63, so the balance goes
		// over the wire as its decimal string.
		args = append(args, a.ID, a.PublicKey, a.Nonce, strconv.FormatUint(a.EthBalance, 10), a.Tokens, a.UpdatedSeq)
	}

	query += strings.Join(values, ", ")
	query += ` ON CONFLICT (id) DO UPDATE SET
		nonce = EXCLUDED.nonce,
		eth_balance = EXCLUDED.eth_balance,
		tokens = EXCLUDED.tokens,
		updated_seq = EXCLUDED.updated_seq`

	_, err := ex.ExecContext(ctx, query, args...)
	return err
}
