// Package memory is the in-memory storage backend. It backs tests and local
// runs; the postgres package is the durable equivalent.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jointly-dev/jointly/internal/interfaces"
	"github.com/jointly-dev/jointly/internal/ledger"
	"github.com/jointly-dev/jointly/internal/models"
)

// Store keeps group accounts and the journal behind a single mutex, which
// also makes AppendAndCache trivially atomic. Reads hand out copies so
// callers can never mutate internal state.
type Store struct {
	mu       sync.Mutex
	accounts map[string]models.GroupAccount
	entries  []models.Transaction // append order, oldest first
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]models.GroupAccount),
	}
}

func (s *Store) CreateAccount(ctx context.Context, acct models.GroupAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[acct.ID]; exists {
		return fmt.Errorf("account %s already exists", acct.ID)
	}
	for _, existing := range s.accounts {
		if existing.AccountNumber == acct.AccountNumber {
			return fmt.Errorf("account number %s already taken", acct.AccountNumber)
		}
	}
	s.accounts[acct.ID] = acct
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID string) (models.GroupAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountID]
	if !ok {
		return models.GroupAccount{}, ledger.ErrAccountNotFound
	}
	return acct, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.GroupAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.GroupAccount, 0, len(s.accounts))
	for _, acct := range s.accounts {
		out = append(out, acct)
	}
	return out, nil
}

func (s *Store) Authenticate(ctx context.Context, accountID, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountID]
	if !ok {
		return false, ledger.ErrAccountNotFound
	}
	return models.VerifyPassword(acct.PasswordDigest, password), nil
}

func (s *Store) CurrentBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountID]
	if !ok {
		return decimal.Zero, ledger.ErrAccountNotFound
	}
	return acct.CachedBalance, nil
}

func (s *Store) UpdateCachedBalance(ctx context.Context, accountID string, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateBalanceLocked(accountID, balance)
}

func (s *Store) updateBalanceLocked(accountID string, balance decimal.Decimal) error {
	acct, ok := s.accounts[accountID]
	if !ok {
		return ledger.ErrAccountNotFound
	}
	acct.CachedBalance = balance
	acct.Version++
	s.accounts[accountID] = acct
	return nil
}

func (s *Store) CloseAccount(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountID]
	if !ok {
		return ledger.ErrAccountNotFound
	}
	acct.Status = models.AccountStatusClosed
	s.accounts[accountID] = acct
	return nil
}

func (s *Store) Append(ctx context.Context, txn models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(txn)
}

func (s *Store) appendLocked(txn models.Transaction) error {
	if txn.Amount.Cmp(decimal.Zero) <= 0 {
		return ledger.ErrInvalidAmount
	}
	s.entries = append(s.entries, txn)
	return nil
}

// AppendAndCache lands the journal row and the cached-balance update under
// one lock acquisition, so no reader ever sees one without the other.
func (s *Store) AppendAndCache(ctx context.Context, txn models.Transaction, newBalance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[txn.AccountID]; !ok {
		return ledger.ErrAccountNotFound
	}
	if err := s.appendLocked(txn); err != nil {
		return err
	}
	return s.updateBalanceLocked(txn.AccountID, newBalance)
}

func (s *Store) SumSignedAmount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := decimal.Zero
	for _, txn := range s.entries {
		if txn.AccountID == accountID {
			sum = sum.Add(txn.SignedAmount())
		}
	}
	return sum, nil
}

func (s *Store) Totals(ctx context.Context, accountID string) (models.AccountTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := models.AccountTotals{
		DepositTotal:    decimal.Zero,
		WithdrawalTotal: decimal.Zero,
		Balance:         decimal.Zero,
	}
	for _, txn := range s.entries {
		if txn.AccountID != accountID {
			continue
		}
		switch txn.Direction {
		case models.DirectionDeposit:
			totals.DepositTotal = totals.DepositTotal.Add(txn.Amount)
		case models.DirectionWithdrawal:
			totals.WithdrawalTotal = totals.WithdrawalTotal.Add(txn.Amount)
		}
	}
	totals.Balance = totals.DepositTotal.Sub(totals.WithdrawalTotal)
	return totals, nil
}

func (s *Store) History(ctx context.Context, accountID string, page models.Page) ([]models.Transaction, string, error) {
	return s.history(accountID, "", page)
}

func (s *Store) HistoryForUser(ctx context.Context, accountID, userID string, page models.Page) ([]models.Transaction, string, error) {
	return s.history(accountID, userID, page)
}

func (s *Store) history(accountID, userID string, page models.Page) ([]models.Transaction, string, error) {
	page = page.Normalize()
	offset, err := parsePageToken(page.Token)
	if err != nil {
		return nil, "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Newest first: walk the append-ordered journal backwards.
	var matched []models.Transaction
	for i := len(s.entries) - 1; i >= 0; i-- {
		txn := s.entries[i]
		if txn.AccountID != accountID {
			continue
		}
		if userID != "" && txn.UserID != userID {
			continue
		}
		matched = append(matched, txn)
	}

	if offset >= len(matched) {
		return nil, "", nil
	}
	end := offset + page.Limit
	if end > len(matched) {
		end = len(matched)
	}

	out := make([]models.Transaction, end-offset)
	copy(out, matched[offset:end])

	next := ""
	if end < len(matched) {
		next = strconv.Itoa(end)
	}
	return out, next, nil
}

func parsePageToken(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("invalid page token %q", token)
	}
	return offset, nil
}

// Compile-time check: Store implements the full storage surface.
var _ interfaces.LedgerStore = (*Store)(nil)
