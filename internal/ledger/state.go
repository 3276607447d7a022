// Package ledger implements the rollup account state machine: account
// creation with dense sequential ids, balance credits, signed transfer
// application, and the committed state-root digest.
package ledger

import (
	"fmt"

	"RollupLedger/internal/crypto"
)

// State owns the account map and the public-key index. The two stay
// mutually consistent: every indexed key resolves to an account carrying
// that key, and ids are dense, sequential from 0, and never reused.
//
// State is not safe for concurrent mutation. The sequencer runs it
// single-threaded; any other caller must serialize writers.
type State struct {
	accounts map[AccountID]*Account
	byKey    map[string]AccountID
	nextID   AccountID
	verifier crypto.Verifier
}

// NewState returns an empty ledger. Transfer signatures are checked
// through verifier, which tests may mock.
func NewState(verifier crypto.Verifier) *State {
	return &State{
		accounts: make(map[AccountID]*Account),
		byKey:    make(map[string]AccountID),
		verifier: verifier,
	}
}

// CreateAccount registers acct under the next sequential id, which is
// returned. The id and any nonce on the input are overwritten; initial
// balance is taken as given. Fails with ErrDuplicateAccount if the public
// key is already registered — in that case no id is consumed, keeping ids
// dense.
func (s *State) CreateAccount(acct Account) (AccountID, error) {
	key := string(acct.PublicKey)
	if _, exists := s.byKey[key]; exists {
		return 0, fmt.Errorf("create account: %w", ErrDuplicateAccount)
	}

	id := s.nextID
	s.nextID++

	stored := acct.clone()
	stored.ID = id
	stored.Nonce = 0
	if stored.Balance.Tokens == nil {
		stored.Balance.Tokens = make(map[string]uint64)
	}

	s.accounts[id] = &stored
	s.byKey[key] = id
	return id, nil
}

// GetAccount looks up an account by id. The returned pointer is owned by
// the ledger; callers must not mutate through it.
func (s *State) GetAccount(id AccountID) (*Account, bool) {
	acct, ok := s.accounts[id]
	return acct, ok
}

// GetAccountByKey looks up an account by public key.
func (s *State) GetAccountByKey(publicKey []byte) (*Account, bool) {
	id, ok := s.byKey[string(publicKey)]
	if !ok {
		return nil, false
	}
	return s.accounts[id], true
}

// AccountCount returns the number of accounts.
func (s *State) AccountCount() int {
	return len(s.accounts)
}

// CreditBalance adds amount to an account's eth balance. The addition
// wraps on overflow past 2^64 (two's-complement semantics); saturating
// would silently destroy value and a 2^64-wei balance is unreachable in
// practice.
func (s *State) CreditBalance(id AccountID, amount uint64) error {
	acct, ok := s.accounts[id]
	if !ok {
		return fmt.Errorf("credit account %d: %w", id, ErrAccountNotFound)
	}
	acct.Balance.AddEth(amount)
	return nil
}

// CreditToken adds amount of a named token to an account.
func (s *State) CreditToken(id AccountID, symbol string, amount uint64) error {
	acct, ok := s.accounts[id]
	if !ok {
		return fmt.Errorf("credit account %d: %w", id, ErrAccountNotFound)
	}
	acct.Balance.AddToken(symbol, amount)
	return nil
}

// ApplyTransfer applies a signed transfer in a fixed step order:
//
//  1. sender lookup
//  2. strict nonce equality check
//  3. signature verification over the canonical message
//  4. sender debit (balance check even though the signature authorizes it)
//  5. sender nonce bump
//  6. recipient lookup
//  7. recipient credit
//
// A failure leaves whatever the earlier steps already did in place. In
// particular a missing recipient is only detected after the sender has
// been debited and nonce-bumped; this non-atomicity is part of the
// contract, and callers that need all-or-nothing semantics wrap the call
// in Snapshot/Restore.
func (s *State) ApplyTransfer(tx *TransferTx) error {
	from, ok := s.accounts[tx.From]
	if !ok {
		return fmt.Errorf("transfer sender %d: %w", tx.From, ErrAccountNotFound)
	}

	if from.Nonce != tx.Nonce {
		return fmt.Errorf("transfer from %d: expected nonce %d, got %d: %w",
			tx.From, from.Nonce, tx.Nonce, ErrInvalidNonce)
	}

	msg := tx.Message()
	if !s.verifier.Verify(from.PublicKey, msg[:], tx.Signature) {
		return fmt.Errorf("transfer from %d: %w", tx.From, ErrInvalidSignature)
	}

	if err := from.Balance.SubEth(tx.Amount); err != nil {
		return fmt.Errorf("transfer from %d: %w", tx.From, err)
	}
	from.Nonce++

	to, ok := s.accounts[tx.To]
	if !ok {
		return fmt.Errorf("transfer recipient %d: %w", tx.To, ErrAccountNotFound)
	}
	to.Balance.AddEth(tx.Amount)

	return nil
}

// Snapshot deep-copies the full ledger state. Used for caller-side
// transfer atomicity and for persistence.
type Snapshot struct {
	NextID   AccountID
	Accounts []Account
}

// Snapshot captures the current state.
func (s *State) Snapshot() *Snapshot {
	snap := &Snapshot{
		NextID:   s.nextID,
		Accounts: make([]Account, 0, len(s.accounts)),
	}
	for _, acct := range s.accounts {
		snap.Accounts = append(snap.Accounts, acct.clone())
	}
	return snap
}

// Restore replaces the ledger's contents with a snapshot.
func (s *State) Restore(snap *Snapshot) {
	s.accounts = make(map[AccountID]*Account, len(snap.Accounts))
	s.byKey = make(map[string]AccountID, len(snap.Accounts))
	s.nextID = snap.NextID

	for i := range snap.Accounts {
		acct := snap.Accounts[i].clone()
		s.accounts[acct.ID] = &acct
		s.byKey[string(acct.PublicKey)] = acct.ID
	}
}
