package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of a group account.
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusClosed AccountStatus = "CLOSED"
)

// GroupAccount is a shared account that several family members pay into and
// out of. CachedBalance is a materialized copy of the journal sum; the
// journal stays authoritative and the reconciler corrects drift toward it.
type GroupAccount struct {
	ID             string
	Name           string
	AccountNumber  string // externally visible number
	CreatorID      string // user who opened the account
	PasswordDigest string // sha256 hex of the shared account password
	CachedBalance  decimal.Decimal
	Status         AccountStatus
	Version        int64 // bumped on every balance write
	CreatedAt      time.Time
}

// AccountTotals aggregates a single account's journal.
type AccountTotals struct {
	DepositTotal    decimal.Decimal `json:"deposit_total"`
	WithdrawalTotal decimal.Decimal `json:"withdrawal_total"`
	Balance         decimal.Decimal `json:"balance"`
}
