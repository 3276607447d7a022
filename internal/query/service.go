package query

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
)

// QueryService provides read-only access to the envelope log and the
// accounts projection. All responses carry as_of_sequence for freshness:
// projections lag the sequencer, and readers that need the live state
// must go through the event stream instead.
type QueryService struct {
	db *sql.DB
}

func NewQueryService(db *sql.DB) *QueryService {
	return &QueryService{db: db}
}

// GetAccount returns the projected account row for an id.
func (qs *QueryService) GetAccount(ctx context.Context, id int64) (*AccountResponse, error) {
	var resp AccountResponse
	var publicKey []byte
	var tokens []byte
	var ethBalance string

	err := qs.db.QueryRowContext(ctx, `
		SELECT id, public_key, nonce, eth_balance, tokens, updated_seq
		FROM rollup.accounts
		WHERE id = $1
	`, id).Scan(&resp.ID, &publicKey, &resp.Nonce, &ethBalance, &tokens, &resp.AsOfSequence)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query account %d: %w", id, err)
	}

	// eth_balance is NUMERIC; it holds the full uint64 range.
	resp.EthBalance, err = strconv.ParseUint(ethBalance, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode balance for account %d: %w", id, err)
	}
	resp.PublicKey = hex.EncodeToString(publicKey)
	if len(tokens) > 0 {
		if err := json.Unmarshal(tokens, &resp.Tokens); err != nil {
			return nil, fmt.Errorf("decode tokens for account %d: %w", id, err)
		}
	}
	return &resp, nil
}

// GetAccountByKey returns the projected account row for a public key.
func (qs *QueryService) GetAccountByKey(ctx context.Context, publicKeyHex string) (*AccountResponse, error) {
	publicKey, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}

	var id int64
	err = qs.db.QueryRowContext(ctx, `
		SELECT id FROM rollup.accounts WHERE public_key = $1
	`, publicKey).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query account by key: %w", err)
	}

	return qs.GetAccount(ctx, id)
}

// ListEnvelopes returns envelopes with cursor-based pagination: entries
// with sequence > after, ascending, capped at limit.
func (qs *QueryService) ListEnvelopes(ctx context.Context, after int64, limit int) ([]EnvelopeResponse, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := qs.db.QueryContext(ctx, `
		SELECT sequence, event_type, idempotency_key, payload,
		       state_root, state_hash, prev_hash, proof, timestamp, source_sequence
		FROM rollup.envelopes
		WHERE sequence > $1
		ORDER BY sequence ASC
		LIMIT $2
	`, after, limit)
	if err != nil {
		return nil, fmt.Errorf("query envelopes: %w", err)
	}
	defer rows.Close()

	var envelopes []EnvelopeResponse
	for rows.Next() {
		var e EnvelopeResponse
		var payload, stateRoot, stateHash, prevHash, proof []byte
		if err := rows.Scan(
			&e.Sequence, &e.EventType, &e.IdempotencyKey, &payload,
			&stateRoot, &stateHash, &prevHash, &proof, &e.Timestamp, &e.SourceSequence,
		); err != nil {
			return nil, err
		}
		e.Payload = json.RawMessage(payload)
		e.StateRoot = hex.EncodeToString(stateRoot)
		e.StateHash = hex.EncodeToString(stateHash)
		e.PrevHash = hex.EncodeToString(prevHash)
		e.Proof = json.RawMessage(proof)
		envelopes = append(envelopes, e)
	}

	return envelopes, rows.Err()
}

// GetChainState returns the head of the envelope log.
func (qs *QueryService) GetChainState(ctx context.Context) (*ChainStateResponse, error) {
	var resp ChainStateResponse
	var stateRoot, stateHash []byte

	err := qs.db.QueryRowContext(ctx, `
		SELECT sequence, state_root, state_hash, timestamp
		FROM rollup.envelopes
		ORDER BY sequence DESC
		LIMIT 1
	`).Scan(&resp.LatestSequence, &stateRoot, &stateHash, &resp.Timestamp)
	if err == sql.ErrNoRows {
		return &ChainStateResponse{Empty: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query chain head: %w", err)
	}

	resp.StateRoot = hex.EncodeToString(stateRoot)
	resp.StateHash = hex.EncodeToString(stateHash)
	return &resp, nil
}

// VerifyIntegrity checks the envelope log for hash chain breaks (an
// envelope whose prev_hash differs from its predecessor's state_hash)
// and sequence gaps. Reports at most 10 of each.
func (qs *QueryService) VerifyIntegrity(ctx context.Context) (*IntegrityReport, error) {
	report := &IntegrityReport{}

	rows, err := qs.db.QueryContext(ctx, `
		SELECT e1.sequence
		FROM rollup.envelopes e1
		JOIN rollup.envelopes e2 ON e2.sequence = e1.sequence - 1
		WHERE e1.prev_hash != e2.state_hash
		ORDER BY e1.sequence
		LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("query chain breaks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var seq int64
		if err := rows.Scan(&seq); err != nil {
			return nil, err
		}
		report.HashChainBreaks = append(report.HashChainBreaks, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	gapRows, err := qs.db.QueryContext(ctx, `
		SELECT e1.sequence + 1
		FROM rollup.envelopes e1
		LEFT JOIN rollup.envelopes e2 ON e2.sequence = e1.sequence + 1
		WHERE e2.sequence IS NULL
		  AND e1.sequence < (SELECT MAX(sequence) FROM rollup.envelopes)
		ORDER BY e1.sequence
		LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("query sequence gaps: %w", err)
	}
	defer gapRows.Close()

	for gapRows.Next() {
		var seq int64
		if err := gapRows.Scan(&seq); err != nil {
			return nil, err
		}
		report.SequenceGaps = append(report.SequenceGaps, seq)
	}
	if err := gapRows.Err(); err != nil {
		return nil, err
	}

	report.IsHealthy = len(report.HashChainBreaks) == 0 && len(report.SequenceGaps) == 0
	return report, nil
}
