package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferCompleted is published after a deposit or withdrawal has been
// journaled and the cached balance updated. Publishing is best effort; a
// consumer must not assume it sees every transfer.
type TransferCompleted struct {
	TransactionID         string          `json:"transaction_id"`
	AccountID             string          `json:"account_id"`
	UserID                string          `json:"user_id"`
	Direction             string          `json:"direction"`
	Amount                decimal.Decimal `json:"amount"`
	BalanceAfter          decimal.Decimal `json:"balance_after"`
	ExternalAccountNumber string          `json:"external_account_number"`
	OccurredAt            time.Time       `json:"occurred_at"`
}
