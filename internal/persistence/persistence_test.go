package persistence_test

import (
	"bytes"
	"context"
	"math"
	"strconv"
	"testing"
	"time"

	"RollupLedger/internal/persistence"
	"RollupLedger/internal/testutil"
)

func testRow(seq int64, eventType, key string) persistence.EnvelopeRow {
	return persistence.EnvelopeRow{
		Sequence:       seq,
		EventType:      eventType,
		IdempotencyKey: key,
		Payload:        []byte(`{"n":1}`),
		StateRoot:      bytes.Repeat([]byte{0x01}, 32),
		StateHash:      bytes.Repeat([]byte{0x02}, 32),
		PrevHash:       bytes.Repeat([]byte{0x03}, 32),
		Proof:          []byte(`{"sequence":0}`),
		Timestamp:      time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		SourceSequence: seq,
	}
}

func TestWriteEnvelopeBatchIsIdempotent(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := persistence.NewMigrator(db, "../../migrations").Up(ctx); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	writer := persistence.NewEventLogWriter(db)
	rows := []persistence.EnvelopeRow{
		testRow(0, "Deposit", "dep-1"),
		testRow(1, "Transfer", "tr-1"),
	}

	if err := writer.WriteEnvelopeBatch(ctx, db, rows); err != nil {
		t.Fatalf("first batch write: %v", err)
	}
	// Replayed batch: conflict on sequence, silently skipped
	if err := writer.WriteEnvelopeBatch(ctx, db, rows); err != nil {
		t.Fatalf("replayed batch write: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM rollup.envelopes`).Scan(&count); err != nil {
		t.Fatalf("count envelopes: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 envelopes after replay, got %d", count)
	}
}

func TestPostgresIdempotencyChecker(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := persistence.NewMigrator(db, "../../migrations").Up(ctx); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	writer := persistence.NewEventLogWriter(db)
	if err := writer.WriteEnvelopeBatch(ctx, db, []persistence.EnvelopeRow{
		testRow(0, "Deposit", "dep-1"),
	}); err != nil {
		t.Fatalf("write envelope: %v", err)
	}

	checker := persistence.NewPostgresIdempotencyChecker(db)

	dup, err := checker.IsDuplicate("Deposit", "dep-1")
	if err != nil {
		t.Fatalf("IsDuplicate: %v", err)
	}
	if !dup {
		t.Error("expected stored envelope to be a duplicate")
	}

	dup, err = checker.IsDuplicate("Deposit", "dep-2")
	if err != nil {
		t.Fatalf("IsDuplicate unknown key: %v", err)
	}
	if dup {
		t.Error("unknown key should not be a duplicate")
	}

	// Same key under a different event type is a different event
	dup, err = checker.IsDuplicate("Transfer", "dep-1")
	if err != nil {
		t.Fatalf("IsDuplicate other type: %v", err)
	}
	if dup {
		t.Error("key should be scoped by event type")
	}
}

func TestLoadRecentKeysOrdersOldestFirst(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := persistence.NewMigrator(db, "../../migrations").Up(ctx); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	writer := persistence.NewEventLogWriter(db)
	if err := writer.WriteEnvelopeBatch(ctx, db, []persistence.EnvelopeRow{
		testRow(0, "Deposit", "dep-0"),
		testRow(1, "Deposit", "dep-1"),
		testRow(2, "Transfer", "tr-0"),
	}); err != nil {
		t.Fatalf("write envelopes: %v", err)
	}

	checker := persistence.NewPostgresIdempotencyChecker(db)
	keys, err := checker.LoadRecentKeys(ctx, 2)
	if err != nil {
		t.Fatalf("LoadRecentKeys: %v", err)
	}

	want := []string{"Deposit:dep-1", "Transfer:tr-0"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d: %v", len(want), len(keys), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestSnapshotRoundtrip(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := persistence.NewMigrator(db, "../../migrations").Up(ctx); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	snapMgr := persistence.NewSnapshotManager(db)

	snap := &persistence.SnapshotData{
		Sequence:      41,
		StateHash:     bytes.Repeat([]byte{0xaa}, 32),
		StateRoot:     bytes.Repeat([]byte{0xbb}, 32),
		NextAccountID: 2,
		Accounts: []persistence.AccountSnapshot{
			{ID: 0, PublicKey: bytes.Repeat([]byte{0x01}, 32), Nonce: 3, EthBalance: 900},
			{ID: 1, PublicKey: bytes.Repeat([]byte{0x02}, 32), Nonce: 0, EthBalance: 100,
				Tokens: map[string]uint64{"USDC": 50}},
		},
		SequenceState:   map[string]int64{"Deposit": 10, "Transfer": 4},
		IdempotencyKeys: []string{"Deposit:dep-9", "Transfer:tr-3"},
		CreatedAt:       time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}

	if err := snapMgr.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	// Unverified snapshots are not eligible for recovery
	loaded, err := snapMgr.LoadLatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("load before verify: %v", err)
	}
	if loaded != nil {
		t.Fatal("unverified snapshot should not load")
	}

	if err := snapMgr.MarkVerified(ctx, snap.Sequence); err != nil {
		t.Fatalf("mark verified: %v", err)
	}

	loaded, err = snapMgr.LoadLatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("load after verify: %v", err)
	}
	if loaded == nil {
		t.Fatal("verified snapshot should load")
	}
	if loaded.Sequence != snap.Sequence {
		t.Errorf("sequence = %d, want %d", loaded.Sequence, snap.Sequence)
	}
	if loaded.NextAccountID != 2 {
		t.Errorf("next account id = %d, want 2", loaded.NextAccountID)
	}
	if len(loaded.Accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(loaded.Accounts))
	}
	if loaded.Accounts[1].Tokens["USDC"] != 50 {
		t.Errorf("token balance = %d, want 50", loaded.Accounts[1].Tokens["USDC"])
	}
	if loaded.SequenceState["Deposit"] != 10 {
		t.Errorf("sequence state = %d, want 10", loaded.SequenceState["Deposit"])
	}
	if !bytes.Equal(loaded.StateHash, snap.StateHash) {
		t.Error("state hash mismatch after roundtrip")
	}
}

func TestLoadEnvelopesFromAndLatestSequence(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := persistence.NewMigrator(db, "../../migrations").Up(ctx); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	snapMgr := persistence.NewSnapshotManager(db)

	latest, err := snapMgr.GetLatestSequence(ctx)
	if err != nil {
		t.Fatalf("latest sequence on empty log: %v", err)
	}
	if latest != 0 {
		t.Errorf("empty log latest = %d, want 0", latest)
	}

	writer := persistence.NewEventLogWriter(db)
	rows := []persistence.EnvelopeRow{
		testRow(0, "Deposit", "dep-0"),
		testRow(1, "Deposit", "dep-1"),
		testRow(2, "Transfer", "tr-0"),
	}
	if err := writer.WriteEnvelopeBatch(ctx, db, rows); err != nil {
		t.Fatalf("write envelopes: %v", err)
	}

	loaded, err := snapMgr.LoadEnvelopesFrom(ctx, 1, 100)
	if err != nil {
		t.Fatalf("load envelopes: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 envelopes from seq 1, got %d", len(loaded))
	}
	if loaded[0].Sequence != 1 || loaded[1].Sequence != 2 {
		t.Errorf("envelopes out of order: %d, %d", loaded[0].Sequence, loaded[1].Sequence)
	}
	if loaded[1].EventType != "Transfer" {
		t.Errorf("event type = %q, want Transfer", loaded[1].EventType)
	}

	latest, err = snapMgr.GetLatestSequence(ctx)
	if err != nil {
		t.Fatalf("latest sequence: %v", err)
	}
	if latest != 2 {
		t.Errorf("latest = %d, want 2", latest)
	}
}

func TestAccountProjectionHoldsFullBalanceRange(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := persistence.NewMigrator(db, "../../migrations").Up(ctx); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	// Above 2^63: a BIGINT column would flip this negative.
	const bigBalance = uint64(math.MaxUint64 - 1)

	writer := persistence.NewEventLogWriter(db)
	rows := []persistence.AccountRow{{
		ID:         0,
		PublicKey:  bytes.Repeat([]byte{0xaa}, 32),
		Nonce:      3,
		EthBalance: bigBalance,
		Tokens:     []byte(`{}`),
		UpdatedSeq: 9,
	}}
	if err := writer.UpsertAccounts(ctx, db, rows); err != nil {
		t.Fatalf("upsert accounts: %v", err)
	}

	var stored string
	if err := db.QueryRow(`SELECT eth_balance FROM rollup.accounts WHERE id = 0`).Scan(&stored); err != nil {
		t.Fatalf("read balance: %v", err)
	}
	got, err := strconv.ParseUint(stored, 10, 64)
	if err != nil {
		t.Fatalf("parse stored balance %q: %v", stored, err)
	}
	if got != bigBalance {
		t.Errorf("stored balance = %d, want %d", got, bigBalance)
	}
}
