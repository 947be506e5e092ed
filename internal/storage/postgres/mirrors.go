package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/jointly-dev/jointly/internal/interfaces"
	"github.com/jointly-dev/jointly/internal/ledger"
	"github.com/jointly-dev/jointly/internal/models"
)

// MirrorStore is the postgres-backed view of the simulated external bank
// accounts. The tables are independently owned; the ledger never writes them
// inside its own transaction boundary.
type MirrorStore struct {
	db *sql.DB
}

func NewMirrorStore(db *sql.DB) *MirrorStore {
	return &MirrorStore{db: db}
}

func (m *MirrorStore) FindByAccountNumber(ctx context.Context, accountNumber string) (models.MirrorAccount, error) {
	const query = `SELECT account_number, bank_name, balance, updated_at
		FROM mirror_accounts WHERE account_number = $1`

	var acct models.MirrorAccount
	err := m.db.QueryRowContext(ctx, query, accountNumber).Scan(
		&acct.AccountNumber, &acct.BankName, &acct.Balance, &acct.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MirrorAccount{}, ledger.ErrMirrorNotFound
	}
	if err != nil {
		return models.MirrorAccount{}, err
	}
	return acct, nil
}

func (m *MirrorStore) ApplyDelta(ctx context.Context, accountNumber string, delta decimal.Decimal) error {
	const query = `UPDATE mirror_accounts
		SET balance = balance + $2, updated_at = now()
		WHERE account_number = $1`

	res, err := m.db.ExecContext(ctx, query, accountNumber, delta)
	if err != nil {
		return err
	}
	return requireMirrorRow(res)
}

// Put seeds or replaces a mirror account. Used by the simulation setup, not
// by the ledger.
func (m *MirrorStore) Put(ctx context.Context, acct models.MirrorAccount) error {
	const query = `INSERT INTO mirror_accounts (account_number, bank_name, balance, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (account_number)
		DO UPDATE SET bank_name = $2, balance = $3, updated_at = now()`

	_, err := m.db.ExecContext(ctx, query, acct.AccountNumber, acct.BankName, acct.Balance)
	return err
}

// LinkedMirrorStore is the postgres-backed store of user-linked mirror
// copies.
type LinkedMirrorStore struct {
	db *sql.DB
}

func NewLinkedMirrorStore(db *sql.DB) *LinkedMirrorStore {
	return &LinkedMirrorStore{db: db}
}

func (l *LinkedMirrorStore) FindByAccountNumber(ctx context.Context, accountNumber string) (models.LinkedMirror, error) {
	const query = `SELECT account_number, linked_by_user_id, balance, updated_at
		FROM linked_mirrors WHERE account_number = $1`

	var mirror models.LinkedMirror
	err := l.db.QueryRowContext(ctx, query, accountNumber).Scan(
		&mirror.AccountNumber, &mirror.LinkedByUserID, &mirror.Balance, &mirror.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LinkedMirror{}, ledger.ErrMirrorNotFound
	}
	if err != nil {
		return models.LinkedMirror{}, err
	}
	return mirror, nil
}

func (l *LinkedMirrorStore) ApplyDelta(ctx context.Context, accountNumber string, delta decimal.Decimal) error {
	const query = `UPDATE linked_mirrors
		SET balance = balance + $2, updated_at = now()
		WHERE account_number = $1`

	res, err := l.db.ExecContext(ctx, query, accountNumber, delta)
	if err != nil {
		return err
	}
	return requireMirrorRow(res)
}

func requireMirrorRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrMirrorNotFound
	}
	return nil
}

var _ interfaces.MirrorGateway = (*MirrorStore)(nil)
var _ interfaces.LinkedMirrorGateway = (*LinkedMirrorStore)(nil)
