package ledger

import "errors"

// Error kinds surfaced by ledger operations. Callers match them with
// errors.Is; every failure path wraps exactly one of these.
var (
	ErrDuplicateAccount    = errors.New("account already exists for public key")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidNonce        = errors.New("invalid nonce")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrInsufficientBalance = errors.New("insufficient balance")
)
