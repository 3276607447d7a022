package ledger

import "fmt"

// AccountID is the dense, sequentially assigned account identifier.
type AccountID uint32

// Balance holds an account's funds: the native eth amount plus an
// open-ended set of named token balances.
type Balance struct {
	Eth    uint64
	Tokens map[string]uint64
}

// NewBalance returns an empty balance.
func NewBalance() Balance {
	return Balance{Tokens: make(map[string]uint64)}
}

// AddEth credits amount. Addition wraps on overflow past 2^64; see the
// CreditBalance doc for why saturation is not used.
func (b *Balance) AddEth(amount uint64) {
	b.Eth += amount
}

// SubEth debits amount, failing if the balance is too small.
func (b *Balance) SubEth(amount uint64) error {
	if b.Eth < amount {
		return fmt.Errorf("debit %d from %d: %w", amount, b.Eth, ErrInsufficientBalance)
	}
	b.Eth -= amount
	return nil
}

// AddToken credits amount of a named token.
func (b *Balance) AddToken(symbol string, amount uint64) {
	if b.Tokens == nil {
		b.Tokens = make(map[string]uint64)
	}
	b.Tokens[symbol] += amount
}

// Token returns the balance for a named token, zero if never credited.
func (b *Balance) Token(symbol string) uint64 {
	return b.Tokens[symbol]
}

// clone deep-copies the balance, including the token map.
func (b *Balance) clone() Balance {
	c := Balance{Eth: b.Eth, Tokens: make(map[string]uint64, len(b.Tokens))}
	for sym, amt := range b.Tokens {
		c.Tokens[sym] = amt
	}
	return c
}

// Account is one ledger entry: an opaque signer identity, a strictly
// increasing transaction counter, and funds. Accounts are created once and
// never deleted; nonce and balance change only through ledger operations.
type Account struct {
	ID        AccountID
	PublicKey []byte
	Nonce     uint32
	Balance   Balance
}

// clone deep-copies the account.
func (a *Account) clone() Account {
	c := *a
	c.PublicKey = append([]byte(nil), a.PublicKey...)
	c.Balance = a.Balance.clone()
	return c
}
