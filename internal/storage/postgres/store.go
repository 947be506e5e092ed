// Package postgres is the durable storage backend, built on database/sql
// and lib/pq. AppendAndCache relies on a database transaction for its
// atomicity guarantee.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jointly-dev/jointly/internal/interfaces"
	"github.com/jointly-dev/jointly/internal/ledger"
	"github.com/jointly-dev/jointly/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateAccount(ctx context.Context, acct models.GroupAccount) error {
	const query = `INSERT INTO group_accounts
		(id, name, account_number, creator_id, password_digest, cached_balance, status, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.ExecContext(ctx, query,
		acct.ID, acct.Name, acct.AccountNumber, acct.CreatorID,
		acct.PasswordDigest, acct.CachedBalance, acct.Status, acct.Version, acct.CreatedAt)
	return err
}

func (s *Store) GetAccount(ctx context.Context, accountID string) (models.GroupAccount, error) {
	const query = `SELECT id, name, account_number, creator_id, password_digest,
		cached_balance, status, version, created_at
		FROM group_accounts WHERE id = $1`

	var acct models.GroupAccount
	err := s.db.QueryRowContext(ctx, query, accountID).Scan(
		&acct.ID, &acct.Name, &acct.AccountNumber, &acct.CreatorID,
		&acct.PasswordDigest, &acct.CachedBalance, &acct.Status, &acct.Version, &acct.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GroupAccount{}, ledger.ErrAccountNotFound
	}
	if err != nil {
		return models.GroupAccount{}, err
	}
	return acct, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.GroupAccount, error) {
	const query = `SELECT id, name, account_number, creator_id, password_digest,
		cached_balance, status, version, created_at
		FROM group_accounts ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.GroupAccount
	for rows.Next() {
		var acct models.GroupAccount
		if err := rows.Scan(
			&acct.ID, &acct.Name, &acct.AccountNumber, &acct.CreatorID,
			&acct.PasswordDigest, &acct.CachedBalance, &acct.Status, &acct.Version, &acct.CreatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

func (s *Store) Authenticate(ctx context.Context, accountID, password string) (bool, error) {
	const query = `SELECT password_digest FROM group_accounts WHERE id = $1`

	var digest string
	err := s.db.QueryRowContext(ctx, query, accountID).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ledger.ErrAccountNotFound
	}
	if err != nil {
		return false, err
	}
	return models.VerifyPassword(digest, password), nil
}

func (s *Store) CurrentBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	const query = `SELECT cached_balance FROM group_accounts WHERE id = $1`

	var balance decimal.Decimal
	err := s.db.QueryRowContext(ctx, query, accountID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ledger.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (s *Store) UpdateCachedBalance(ctx context.Context, accountID string, balance decimal.Decimal) error {
	const query = `UPDATE group_accounts
		SET cached_balance = $2, version = version + 1
		WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, accountID, balance)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) CloseAccount(ctx context.Context, accountID string) error {
	const query = `UPDATE group_accounts SET status = $2 WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, accountID, models.AccountStatusClosed)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) Append(ctx context.Context, txn models.Transaction) error {
	if txn.Amount.Cmp(decimal.Zero) <= 0 {
		return ledger.ErrInvalidAmount
	}
	return s.insertTransaction(ctx, s.db, txn)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertTransaction(ctx context.Context, ex execer, txn models.Transaction) error {
	const query = `INSERT INTO group_transactions
		(id, account_id, user_id, direction, amount, balance_after,
		 external_account_number, external_bank_name, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := ex.ExecContext(ctx, query,
		txn.ID, txn.AccountID, txn.UserID, txn.Direction, txn.Amount, txn.BalanceAfter,
		txn.ExternalAccountNumber, txn.ExternalBankName, txn.Description, txn.CreatedAt)
	return err
}

// AppendAndCache writes the journal row and the cached balance in one
// database transaction; a failure in either rolls both back.
func (s *Store) AppendAndCache(ctx context.Context, txn models.Transaction, newBalance decimal.Decimal) error {
	if txn.Amount.Cmp(decimal.Zero) <= 0 {
		return ledger.ErrInvalidAmount
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	if err = s.insertTransaction(ctx, dbTx, txn); err != nil {
		return err
	}

	const update = `UPDATE group_accounts
		SET cached_balance = $2, version = version + 1
		WHERE id = $1`
	var res sql.Result
	if res, err = dbTx.ExecContext(ctx, update, txn.AccountID, newBalance); err != nil {
		return err
	}
	if err = requireRow(res); err != nil {
		return err
	}

	return dbTx.Commit()
}

func (s *Store) SumSignedAmount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(
			CASE WHEN direction = 'DEPOSIT' THEN amount ELSE -amount END
		), 0)
		FROM group_transactions WHERE account_id = $1`

	var sum decimal.Decimal
	if err := s.db.QueryRowContext(ctx, query, accountID).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (s *Store) Totals(ctx context.Context, accountID string) (models.AccountTotals, error) {
	const query = `SELECT
			COALESCE(SUM(amount) FILTER (WHERE direction = 'DEPOSIT'), 0),
			COALESCE(SUM(amount) FILTER (WHERE direction = 'WITHDRAWAL'), 0)
		FROM group_transactions WHERE account_id = $1`

	var totals models.AccountTotals
	err := s.db.QueryRowContext(ctx, query, accountID).Scan(&totals.DepositTotal, &totals.WithdrawalTotal)
	if err != nil {
		return models.AccountTotals{}, err
	}
	totals.Balance = totals.DepositTotal.Sub(totals.WithdrawalTotal)
	return totals, nil
}

func (s *Store) History(ctx context.Context, accountID string, page models.Page) ([]models.Transaction, string, error) {
	const query = `SELECT id, account_id, user_id, direction, amount, balance_after,
			external_account_number, external_bank_name, description, created_at
		FROM group_transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	return s.queryHistory(ctx, page, query, accountID, "")
}

func (s *Store) HistoryForUser(ctx context.Context, accountID, userID string, page models.Page) ([]models.Transaction, string, error) {
	const query = `SELECT id, account_id, user_id, direction, amount, balance_after,
			external_account_number, external_bank_name, description, created_at
		FROM group_transactions
		WHERE account_id = $1 AND user_id = $4
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	return s.queryHistory(ctx, page, query, accountID, userID)
}

func (s *Store) queryHistory(ctx context.Context, page models.Page, query, accountID, userID string) ([]models.Transaction, string, error) {
	page = page.Normalize()
	offset, err := parsePageToken(page.Token)
	if err != nil {
		return nil, "", err
	}

	// Fetch one extra row to learn whether another page exists.
	args := []any{accountID, page.Limit + 1, offset}
	if userID != "" {
		args = append(args, userID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var entries []models.Transaction
	for rows.Next() {
		var txn models.Transaction
		if err := rows.Scan(
			&txn.ID, &txn.AccountID, &txn.UserID, &txn.Direction, &txn.Amount, &txn.BalanceAfter,
			&txn.ExternalAccountNumber, &txn.ExternalBankName, &txn.Description, &txn.CreatedAt,
		); err != nil {
			return nil, "", err
		}
		entries = append(entries, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	next := ""
	if len(entries) > page.Limit {
		entries = entries[:page.Limit]
		next = strconv.Itoa(offset + page.Limit)
	}
	return entries, next, nil
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

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

var _ interfaces.LedgerStore = (*Store)(nil)
