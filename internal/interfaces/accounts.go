package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jointly-dev/jointly/internal/models"
)

// AccountStore holds group account identity, credential, cached balance and
// lifecycle status. Accounts are never deleted; CloseAccount is terminal.
type AccountStore interface {
	CreateAccount(ctx context.Context, acct models.GroupAccount) error
	GetAccount(ctx context.Context, accountID string) (models.GroupAccount, error)
	ListAccounts(ctx context.Context) ([]models.GroupAccount, error)

	// Authenticate checks the supplied plain password against the stored
	// digest. It reports false on mismatch without error.
	Authenticate(ctx context.Context, accountID, password string) (bool, error)

	// CurrentBalance returns the cached balance. The cache tracks
	// TransactionJournal.SumSignedAmount after every successful mutation;
	// reconciliation bounds any drift between the two.
	CurrentBalance(ctx context.Context, accountID string) (decimal.Decimal, error)

	UpdateCachedBalance(ctx context.Context, accountID string, balance decimal.Decimal) error
	CloseAccount(ctx context.Context, accountID string) error
}
