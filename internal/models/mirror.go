package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MirrorAccount is the externally-owned bank account a transfer counterparts
// against. Its balance is stored and moved independently of the group
// account; the ledger only nudges it after a transfer has already committed.
type MirrorAccount struct {
	AccountNumber string          `json:"account_number"`
	BankName      string          `json:"bank_name"`
	Balance       decimal.Decimal `json:"balance"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// LinkedMirror is a user-facing copy of a mirror account, present only when
// a member has linked that external account into their own view. It may lag
// the mirror or be absent entirely.
type LinkedMirror struct {
	AccountNumber  string          `json:"account_number"`
	LinkedByUserID string          `json:"linked_by_user_id"`
	Balance        decimal.Decimal `json:"balance"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
