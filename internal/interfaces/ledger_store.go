package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jointly-dev/jointly/internal/models"
)

// LedgerStore is the full storage surface behind the transfer service.
//
// AppendAndCache is the one atomic unit in the system: the journal row and
// the cached-balance update land together or not at all. Implementations
// back it with whatever atomicity they have (a single mutex in memory, a
// database transaction in postgres).
type LedgerStore interface {
	TransactionJournal
	AccountStore

	AppendAndCache(ctx context.Context, txn models.Transaction, newBalance decimal.Decimal) error
}
