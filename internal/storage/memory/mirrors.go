package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jointly-dev/jointly/internal/interfaces"
	"github.com/jointly-dev/jointly/internal/ledger"
	"github.com/jointly-dev/jointly/internal/models"
)

// MirrorStore holds the simulated external bank accounts, keyed by account
// number. It is owned by the banking network simulation, not the ledger; the
// ledger only reaches it through the MirrorGateway port.
type MirrorStore struct {
	mu       sync.Mutex
	accounts map[string]models.MirrorAccount
}

func NewMirrorStore() *MirrorStore {
	return &MirrorStore{accounts: make(map[string]models.MirrorAccount)}
}

// Put seeds or replaces a mirror account.
func (m *MirrorStore) Put(acct models.MirrorAccount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[acct.AccountNumber] = acct
}

func (m *MirrorStore) FindByAccountNumber(ctx context.Context, accountNumber string) (models.MirrorAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[accountNumber]
	if !ok {
		return models.MirrorAccount{}, ledger.ErrMirrorNotFound
	}
	return acct, nil
}

func (m *MirrorStore) ApplyDelta(ctx context.Context, accountNumber string, delta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[accountNumber]
	if !ok {
		return ledger.ErrMirrorNotFound
	}
	acct.Balance = acct.Balance.Add(delta)
	acct.UpdatedAt = time.Now().UTC()
	m.accounts[accountNumber] = acct
	return nil
}

// LinkedMirrorStore holds the user-facing copies of mirror accounts. Most
// account numbers have no entry here; that is the expected state, not an
// error condition.
type LinkedMirrorStore struct {
	mu      sync.Mutex
	mirrors map[string]models.LinkedMirror
}

func NewLinkedMirrorStore() *LinkedMirrorStore {
	return &LinkedMirrorStore{mirrors: make(map[string]models.LinkedMirror)}
}

// Link seeds or replaces a linked mirror.
func (l *LinkedMirrorStore) Link(mirror models.LinkedMirror) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mirrors[mirror.AccountNumber] = mirror
}

func (l *LinkedMirrorStore) FindByAccountNumber(ctx context.Context, accountNumber string) (models.LinkedMirror, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	mirror, ok := l.mirrors[accountNumber]
	if !ok {
		return models.LinkedMirror{}, ledger.ErrMirrorNotFound
	}
	return mirror, nil
}

func (l *LinkedMirrorStore) ApplyDelta(ctx context.Context, accountNumber string, delta decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	mirror, ok := l.mirrors[accountNumber]
	if !ok {
		return ledger.ErrMirrorNotFound
	}
	mirror.Balance = mirror.Balance.Add(delta)
	mirror.UpdatedAt = time.Now().UTC()
	l.mirrors[accountNumber] = mirror
	return nil
}

var _ interfaces.MirrorGateway = (*MirrorStore)(nil)
var _ interfaces.LinkedMirrorGateway = (*LinkedMirrorStore)(nil)
