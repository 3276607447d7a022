package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SnapshotManager handles creating and loading state snapshots for recovery.
// A snapshot contains the full ledger state, the chained hash tip, the
// per-partition sequence counters, and recent idempotency keys.
type SnapshotManager struct {
	db *sql.DB
}

// SnapshotData contains the full in-memory state at a point in time.
type SnapshotData struct {
	Sequence        int64             `json:"sequence"`
	StateHash       []byte            `json:"state_hash"`
	StateRoot       []byte            `json:"state_root"`
	NextAccountID   uint32            `json:"next_account_id"`
	Accounts        []AccountSnapshot `json:"accounts"`
	SequenceState   map[string]int64  `json:"sequence_state"`   // partition -> next expected seq
	IdempotencyKeys []string          `json:"idempotency_keys"` // Recent keys for LRU warming
	CreatedAt       time.Time         `json:"created_at"`
}

// AccountSnapshot is a serializable account.
type AccountSnapshot struct {
	ID         uint32            `json:"id"`
	PublicKey  []byte            `json:"public_key"`
	Nonce      uint32            `json:"nonce"`
	EthBalance uint64            `json:"eth_balance"`
	Tokens     map[string]uint64 `json:"tokens,omitempty"`
}

func NewSnapshotManager(db *sql.DB) *SnapshotManager {
	return &SnapshotManager{db: db}
}

// SaveSnapshot persists a snapshot to Postgres. Snapshots are taken
// periodically and verified by replaying envelopes from the snapshot
// sequence forward before being trusted for recovery.
func (sm *SnapshotManager) SaveSnapshot(ctx context.Context, snap *SnapshotData) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	snapshotID := uuid.New()
	sizeBytes := len(data)
	formatVersion := int32(1) // v1: JSON-encoded SnapshotData

	_, err = sm.db.ExecContext(ctx, `
		INSERT INTO rollup.snapshots
			(snapshot_id, sequence, data, state_hash, state_root, format_version, size_bytes, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)
		ON CONFLICT (sequence) DO UPDATE SET data = $3, state_hash = $4, state_root = $5, size_bytes = $7
	`, snapshotID, snap.Sequence, data, snap.StateHash, snap.StateRoot, formatVersion, sizeBytes, snap.CreatedAt)

	return err
}

// LoadLatestSnapshot loads the most recent verified snapshot.
// On warm restart, callers replay envelopes from snapshot.Sequence+1.
func (sm *SnapshotManager) LoadLatestSnapshot(ctx context.Context) (*SnapshotData, error) {
	row := sm.db.QueryRowContext(ctx, `
		SELECT data FROM rollup.snapshots
		WHERE verified = TRUE
		ORDER BY sequence DESC
		LIMIT 1
	`)

	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No snapshot — cold start
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snap SnapshotData
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snap, nil
}

// MarkVerified marks a snapshot as verified after integrity check.
func (sm *SnapshotManager) MarkVerified(ctx context.Context, sequence int64) error {
	_, err := sm.db.ExecContext(ctx, `
		UPDATE rollup.snapshots SET verified = TRUE WHERE sequence = $1
	`, sequence)
	return err
}

// LoadEnvelopesFrom loads envelopes from a given sequence for replay.
// Used for warm restart (replay from snapshot) and cold restart (replay all).
func (sm *SnapshotManager) LoadEnvelopesFrom(ctx context.Context, fromSequence int64, limit int) ([]EnvelopeRow, error) {
	rows, err := sm.db.QueryContext(ctx, `
		SELECT sequence, event_type, idempotency_key, payload,
		       state_root, state_hash, prev_hash, proof, timestamp, source_sequence
		FROM rollup.envelopes
		WHERE sequence >= $1
		ORDER BY sequence ASC
		LIMIT $2
	`, fromSequence, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var envelopes []EnvelopeRow
	for rows.Next() {
		var e EnvelopeRow
		if err := rows.Scan(
			&e.Sequence, &e.EventType, &e.IdempotencyKey, &e.Payload,
			&e.StateRoot, &e.StateHash, &e.PrevHash, &e.Proof,
			&e.Timestamp, &e.SourceSequence,
		); err != nil {
			return nil, err
		}
		envelopes = append(envelopes, e)
	}

	return envelopes, rows.Err()
}

// GetLatestSequence returns the highest sequence in the envelope log.
func (sm *SnapshotManager) GetLatestSequence(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := sm.db.QueryRowContext(ctx, `
		SELECT MAX(sequence) FROM rollup.envelopes
	`).Scan(&seq)
	if err != nil {
		return 0, err
	}
	if !seq.Valid {
		return 0, nil // Empty envelope log
	}
	return seq.Int64, nil
}
