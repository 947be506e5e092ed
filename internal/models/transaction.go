package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction tells which way money moved relative to the group account.
type Direction string

const (
	DirectionDeposit    Direction = "DEPOSIT"
	DirectionWithdrawal Direction = "WITHDRAWAL"
)

// Transaction is one journal row for a group account. Rows are append-only:
// once written they are never edited or deleted, and the signed sum of all
// rows for an account is that account's authoritative balance.
type Transaction struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	UserID    string          `json:"user_id"` // acting family member
	Direction Direction       `json:"direction"`
	Amount    decimal.Decimal `json:"amount"` // always positive; Direction carries the sign

	// BalanceAfter is the account balance immediately after this row was
	// applied. Each row's BalanceAfter equals the previous row's plus this
	// row's signed amount (0 before the first row).
	BalanceAfter decimal.Decimal `json:"balance_after"`

	// ExternalAccountNumber/ExternalBankName identify the mirror account this
	// transfer counterparts against: the source of a deposit, the target of a
	// withdrawal.
	ExternalAccountNumber string `json:"external_account_number"`
	ExternalBankName      string `json:"external_bank_name"`

	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// SignedAmount folds Direction into Amount: positive for deposits, negative
// for withdrawals.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Direction == DirectionWithdrawal {
		return t.Amount.Neg()
	}
	return t.Amount
}
