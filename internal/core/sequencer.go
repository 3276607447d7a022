package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"RollupLedger/internal/crypto"
	"RollupLedger/internal/event"
	"RollupLedger/internal/ledger"
	"RollupLedger/internal/observability"
	"RollupLedger/internal/zkproof"
)

// Sequencer is the single-threaded event processor. It owns the ledger
// state exclusively: every mutation flows through ProcessEvent, which
// assigns the global sequence, commits the post-event state root, and
// extends the chained state hash.
type Sequencer struct {
	sequence          int64
	hasher            *StateHasher
	state             *ledger.State
	lastRoot          crypto.Digest
	prover            zkproof.Prover
	idempotency       *IdempotencyChecker
	sequenceValidator *SequenceValidator
	metrics           *observability.Metrics

	// replaying switches ProcessEvent into log-replay mode: dedup uses
	// only the in-memory LRU and no outputs are emitted.
	replaying bool

	persistChan chan<- Output
	publishChan chan<- Output
}

// Output is what the sequencer emits per applied event.
type Output struct {
	Envelope *event.Envelope
}

func NewSequencer(
	startSequence int64,
	state *ledger.State,
	prover zkproof.Prover,
	persistChan, publishChan chan<- Output,
	dbChecker DBIdempotencyChecker,
	metrics *observability.Metrics,
) *Sequencer {
	return &Sequencer{
		sequence:          startSequence,
		hasher:            NewStateHasher(),
		state:             state,
		lastRoot:          state.StateRoot(),
		prover:            prover,
		idempotency:       NewIdempotencyChecker(1_000_000, dbChecker),
		sequenceValidator: NewSequenceValidator(),
		metrics:           metrics,
		persistChan:       persistChan,
		publishChan:       publishChan,
	}
}

// ProcessEvent is the main processing pipeline.
func (s *Sequencer) ProcessEvent(evt event.Event) error {
	start := time.Now()
	eventType := evt.EventType().String()
	idempotencyKey := evt.IdempotencyKey()

	// Step 1: Idempotency check. Two-tier in live mode; during replay the
	// Postgres tier is skipped because every replayed event is, by
	// definition, already in the event log.
	var isDuplicate bool
	if s.replaying {
		isDuplicate = s.idempotency.IsDuplicateLocal(eventType, idempotencyKey)
	} else {
		isDuplicate = s.idempotency.IsDuplicate(eventType, idempotencyKey)
	}

	// Step 2: Source sequence validation, partitioned per feed
	if err := s.sequenceValidator.ValidateSequence(eventType, evt.SourceSequence(), isDuplicate); err != nil {
		return fmt.Errorf("sequence validation failed: %w", err)
	}

	// If duplicate, skip processing
	if isDuplicate {
		if s.metrics != nil {
			s.metrics.SequencerEventsRejected.WithLabelValues(eventType, "duplicate").Inc()
		}
		return nil
	}

	// Step 3: Apply the event to the ledger
	if err := s.dispatchEvent(evt); err != nil {
		if s.metrics != nil {
			s.metrics.SequencerEventsRejected.WithLabelValues(eventType, rejectReason(err)).Inc()
		}
		return fmt.Errorf("dispatch failed: %w", err)
	}

	// Step 4: Commit the post-event state root
	rootStart := time.Now()
	stateRoot := s.state.StateRoot()
	if s.metrics != nil {
		s.metrics.StateRootDuration.Observe(time.Since(rootStart).Seconds())
	}

	// Step 5: Extend the chained state hash
	prevHash := s.hasher.GetPrevHash()
	stateHash := s.hasher.ComputeHash(s.sequence, stateRoot)

	// Step 6: Prove the root transition
	proofStart := time.Now()
	proof, err := s.prover.Prove(s.lastRoot, stateRoot, s.sequence)
	if err != nil {
		panic(fmt.Sprintf("FATAL: proof generation failed at seq %d: %v", s.sequence, err))
	}
	encodedProof, err := zkproof.Encode(proof)
	if err != nil {
		panic(fmt.Sprintf("FATAL: proof encoding failed at seq %d: %v", s.sequence, err))
	}
	if s.metrics != nil {
		s.metrics.ProofDuration.Observe(time.Since(proofStart).Seconds())
	}
	s.lastRoot = stateRoot

	// Step 7: Build the envelope
	payload, err := json.Marshal(evt)
	if err != nil {
		panic(fmt.Sprintf("FATAL: payload encoding failed at seq %d: %v", s.sequence, err))
	}
	envelope := &event.Envelope{
		Sequence:       s.sequence,
		IdempotencyKey: idempotencyKey,
		EventType:      evt.EventType(),
		Timestamp:      eventTimestamp(evt),
		SourceSequence: evt.SourceSequence(),
		Payload:        payload,
		StateRoot:      stateRoot,
		StateHash:      stateHash,
		PrevHash:       prevHash,
		Proof:          encodedProof,
	}
	s.sequence++

	// Step 8: Emit outputs. Skipped during replay: the rows being replayed
	// are already in the event log.
	// Persist channel uses a BLOCKING send (backpressure): the sequencer
	// stalls until the persistence worker drains, so no envelope is lost.
	// Publish channel uses a NON-BLOCKING send with drop: downstream
	// consumers can re-read the event log if they fall behind.
	if !s.replaying {
		output := Output{Envelope: envelope}
		select {
		case s.persistChan <- output:
		default:
			if s.metrics != nil {
				s.metrics.PersistBackpressure.Inc()
			}
			s.persistChan <- output
		}

		select {
		case s.publishChan <- output:
		default:
			if s.metrics != nil {
				s.metrics.PublishDrops.Inc()
			}
		}
	}

	// Step 9: Mark as processed (add to LRU)
	s.idempotency.MarkProcessed(eventType, idempotencyKey)

	if s.metrics != nil {
		s.metrics.SequencerEventsApplied.WithLabelValues(eventType).Inc()
		s.metrics.SequencerEventDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
		s.metrics.SequencerSequence.Set(float64(s.sequence))
		s.metrics.LedgerAccounts.Set(float64(s.state.AccountCount()))
	}

	return nil
}

func (s *Sequencer) dispatchEvent(evt event.Event) error {
	switch e := evt.(type) {
	case *event.AccountCreate:
		return s.handleAccountCreate(e)
	case *event.Deposit:
		return s.handleDeposit(e)
	case *event.Transfer:
		return s.handleTransfer(e)
	default:
		return fmt.Errorf("unknown event type: %T", evt)
	}
}

func (s *Sequencer) handleAccountCreate(evt *event.AccountCreate) error {
	_, err := s.state.CreateAccount(ledger.Account{
		PublicKey: evt.PublicKey,
		Balance:   ledger.NewBalance(),
	})
	return err
}

func (s *Sequencer) handleDeposit(evt *event.Deposit) error {
	if evt.Asset == "" {
		return s.state.CreditBalance(evt.Account, evt.Amount)
	}
	return s.state.CreditToken(evt.Account, evt.Asset, evt.Amount)
}

// handleTransfer applies a signed transfer. The ledger's documented
// contract leaves partial effects behind when the recipient is missing;
// a rejected event must not change the committed root, so the sequencer
// snapshots first and rolls back on any failure.
func (s *Sequencer) handleTransfer(evt *event.Transfer) error {
	snap := s.state.Snapshot()
	if err := s.state.ApplyTransfer(evt.Tx()); err != nil {
		s.state.Restore(snap)
		if s.metrics != nil {
			s.metrics.TransfersApplied.WithLabelValues(rejectReason(err)).Inc()
		}
		return err
	}
	if s.metrics != nil {
		s.metrics.TransfersApplied.WithLabelValues("applied").Inc()
	}
	return nil
}

// rejectReason maps a dispatch error to a stable metric label.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrDuplicateAccount):
		return "duplicate_account"
	case errors.Is(err, ledger.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ledger.ErrInvalidNonce):
		return "invalid_nonce"
	case errors.Is(err, ledger.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return "insufficient_balance"
	default:
		return "error"
	}
}

// eventTimestamp extracts the versioned timestamp from the event. The
// sequencer never calls time.Now() for envelope timestamps; determinism
// requires all timestamps to be inputs.
func eventTimestamp(evt event.Event) time.Time {
	switch e := evt.(type) {
	case *event.AccountCreate:
		return e.Timestamp
	case *event.Deposit:
		return e.Timestamp
	case *event.Transfer:
		return e.Timestamp
	default:
		panic(fmt.Sprintf("FATAL: eventTimestamp called with unhandled event type %T", evt))
	}
}

// --- Snapshot restore & startup ---

// SnapshotState holds the serializable in-memory state for restore.
// This mirrors persistence.SnapshotData but uses typed fields.
type SnapshotState struct {
	Sequence        int64
	StateHash       crypto.Digest
	StateRoot       crypto.Digest
	Ledger          *ledger.Snapshot
	SequenceState   map[string]int64
	IdempotencyKeys []string
}

// RestoreFromSnapshot restores the sequencer's in-memory state. On warm
// restart, load the latest snapshot then replay newer events.
func (s *Sequencer) RestoreFromSnapshot(snap *SnapshotState) {
	s.sequence = snap.Sequence + 1 // Next sequence to assign
	s.hasher.SetPrevHash(snap.StateHash)
	s.lastRoot = snap.StateRoot

	s.state.Restore(snap.Ledger)

	for partition, nextSeq := range snap.SequenceState {
		s.sequenceValidator.RestorePartition(partition, nextSeq)
	}
}

// BeginReplay switches the sequencer into log-replay mode: events are
// applied to state but not re-emitted, and dedup skips the Postgres tier.
func (s *Sequencer) BeginReplay() {
	s.replaying = true
}

// EndReplay returns the sequencer to live processing.
func (s *Sequencer) EndReplay() {
	s.replaying = false
}

// WarmLRU loads recent idempotency keys into the LRU cache, avoiding
// cold-path DB lookups for recently processed events.
func (s *Sequencer) WarmLRU(keys []string) {
	s.idempotency.lru.WarmFromKeys(keys)
}

// GetSequence returns the next global sequence number to assign.
func (s *Sequencer) GetSequence() int64 {
	return s.sequence
}

// GetStateHash returns the current chain tip.
func (s *Sequencer) GetStateHash() crypto.Digest {
	return s.hasher.GetPrevHash()
}

// GetStateRoot returns the last committed state root.
func (s *Sequencer) GetStateRoot() crypto.Digest {
	return s.lastRoot
}

// CreateSnapshotState captures the current in-memory state for persistence.
func (s *Sequencer) CreateSnapshotState() *SnapshotState {
	return &SnapshotState{
		Sequence:        s.sequence - 1, // Last processed sequence
		StateHash:       s.hasher.GetPrevHash(),
		StateRoot:       s.lastRoot,
		Ledger:          s.state.Snapshot(),
		SequenceState:   s.sequenceValidator.GetAllPartitions(),
		IdempotencyKeys: s.idempotency.lru.GetAllKeys(),
	}
}
