package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationFailed means the supplied account password did not
	// match. Nothing was mutated; retrying with the right password is safe.
	ErrAuthenticationFailed = errors.New("account password mismatch")

	// ErrInvalidAmount means the transfer amount was zero or negative.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientBalance means a withdrawal asked for more than the
	// account holds. No journal row was written.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAccountNotFound means the group account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountClosed means the account has been closed; closed accounts
	// accept no further mutations regardless of balance.
	ErrAccountClosed = errors.New("account is closed")

	// ErrMirrorNotFound means no mirror account exists for the given
	// external account number.
	ErrMirrorNotFound = errors.New("mirror account not found")

	// ErrNotAMember means the acting user does not belong to the account.
	ErrNotAMember = errors.New("user is not a member of this account")
)

// StorageError wraps a journal or cache write failure. The transfer it
// interrupted committed nothing: the journal append and the cache update are
// one unit, so no partial state survives.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PropagationWarning records a best-effort mirror, linked-mirror or event
// update that failed after the transfer had already committed. Warnings are
// logged and carried on the TransferResult; they never fail the transfer and
// never roll it back.
type PropagationWarning struct {
	Target        string // "mirror", "linked-mirror" or "event"
	AccountNumber string
	Err           error
}

func (w PropagationWarning) String() string {
	return fmt.Sprintf("propagation to %s %q failed: %v", w.Target, w.AccountNumber, w.Err)
}
