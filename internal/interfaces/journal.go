package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jointly-dev/jointly/internal/models"
)

// TransactionJournal is the append-only record of money movement for group
// accounts. It is the source of truth for balances: SumSignedAmount wins
// over any cached figure whenever the two disagree.
type TransactionJournal interface {
	// Append writes one journal row. It rejects non-positive amounts and
	// nothing else; callers must have validated funds before appending.
	Append(ctx context.Context, txn models.Transaction) error

	// SumSignedAmount folds every row for the account into a balance:
	// +amount for deposits, -amount for withdrawals, 0 with no rows.
	SumSignedAmount(ctx context.Context, accountID string) (decimal.Decimal, error)

	// History lists rows for an account, newest first. The returned token
	// resumes the listing; "" means exhausted.
	History(ctx context.Context, accountID string, page models.Page) ([]models.Transaction, string, error)

	// HistoryForUser is History filtered to one acting member.
	HistoryForUser(ctx context.Context, accountID, userID string, page models.Page) ([]models.Transaction, string, error)

	// Totals aggregates deposits, withdrawals and the journal balance.
	Totals(ctx context.Context, accountID string) (models.AccountTotals, error)
}
