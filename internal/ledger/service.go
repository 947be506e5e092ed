package ledger

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jointly-dev/jointly/internal/interfaces"
	"github.com/jointly-dev/jointly/internal/models"
	"github.com/jointly-dev/jointly/internal/models/events"
)

// TopicTransferCompleted is where completed transfers are published.
const TopicTransferCompleted = "transfer_completed"

const defaultMirrorTimeout = 3 * time.Second

// TransferService runs deposits and withdrawals against group accounts:
// authenticate, validate, journal, update the cached balance, then propagate
// to the external mirrors on a best-effort basis.
//
// Mutations on the same account are serialized through a per-account mutex.
// The lock covers only the validate/journal/cache section; mirror
// propagation runs after it is released so a slow external account can never
// block other members' transfers.
type TransferService struct {
	store   interfaces.LedgerStore
	mirrors interfaces.MirrorGateway
	linked  interfaces.LinkedMirrorGateway // optional
	events  interfaces.EventPublisher      // optional

	mirrorTimeout time.Duration

	muMap map[string]*sync.Mutex // one lock per account ID
	mapMu sync.Mutex             // protects muMap itself
}

// NewTransferService wires a TransferService. linked and events may be nil;
// mirrorTimeout <= 0 falls back to a 3s default.
func NewTransferService(
	store interfaces.LedgerStore,
	mirrors interfaces.MirrorGateway,
	linked interfaces.LinkedMirrorGateway,
	events interfaces.EventPublisher,
	mirrorTimeout time.Duration,
) *TransferService {
	if mirrorTimeout <= 0 {
		mirrorTimeout = defaultMirrorTimeout
	}
	return &TransferService{
		store:         store,
		mirrors:       mirrors,
		linked:        linked,
		events:        events,
		mirrorTimeout: mirrorTimeout,
		muMap:         make(map[string]*sync.Mutex),
	}
}

func (s *TransferService) accountLock(accountID string) *sync.Mutex {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()

	if _, exists := s.muMap[accountID]; !exists {
		s.muMap[accountID] = &sync.Mutex{}
	}
	return s.muMap[accountID]
}

// TransferParams carries one deposit or withdrawal request.
// ExternalAccountNumber names the mirror account money is pulled from
// (deposit) or paid into (withdrawal).
type TransferParams struct {
	AccountID             string
	UserID                string
	Amount                decimal.Decimal
	Password              string
	ExternalAccountNumber string
	ExternalBankName      string
	Description           string
}

// TransferResult is the outcome of a committed transfer. Warnings lists
// best-effort propagation steps that failed after the commit; their presence
// does not make the transfer any less successful.
type TransferResult struct {
	Transaction models.Transaction
	Warnings    []PropagationWarning
}

// Deposit adds Amount to the group account and, best effort, debits the
// external mirror account it came from.
func (s *TransferService) Deposit(ctx context.Context, p TransferParams) (*TransferResult, error) {
	return s.transfer(ctx, p, models.DirectionDeposit)
}

// Withdraw removes Amount from the group account, failing with
// ErrInsufficientBalance if the balance cannot cover it, and best effort
// credits the external mirror account it is paid into.
func (s *TransferService) Withdraw(ctx context.Context, p TransferParams) (*TransferResult, error) {
	return s.transfer(ctx, p, models.DirectionWithdrawal)
}

func (s *TransferService) transfer(ctx context.Context, p TransferParams, dir models.Direction) (*TransferResult, error) {
	if _, err := s.store.GetAccount(ctx, p.AccountID); err != nil {
		return nil, err
	}

	ok, err := s.store.Authenticate(ctx, p.AccountID, p.Password)
	if err != nil {
		return nil, &StorageError{Op: "authenticate", Err: err}
	}
	if !ok {
		return nil, ErrAuthenticationFailed
	}

	if p.Amount.Cmp(decimal.Zero) <= 0 {
		return nil, ErrInvalidAmount
	}

	// Serialize the read-modify-write; without this, two concurrent
	// withdrawals could both validate against the same stale balance.
	mu := s.accountLock(p.AccountID)
	mu.Lock()
	txn, err := s.commit(ctx, p, dir)
	mu.Unlock()
	if err != nil {
		return nil, err
	}

	return &TransferResult{
		Transaction: txn,
		Warnings:    s.propagate(ctx, txn),
	}, nil
}

// commit runs the VALIDATED -> JOURNALED -> CACHE_UPDATED section. The
// caller holds the account lock.
func (s *TransferService) commit(ctx context.Context, p TransferParams, dir models.Direction) (models.Transaction, error) {
	acct, err := s.store.GetAccount(ctx, p.AccountID)
	if err != nil {
		return models.Transaction{}, err
	}
	// Status can move between the pre-lock checks and here; the closed
	// check only counts under the lock.
	if acct.Status == models.AccountStatusClosed {
		return models.Transaction{}, ErrAccountClosed
	}

	balance := acct.CachedBalance
	if dir == models.DirectionWithdrawal && p.Amount.GreaterThan(balance) {
		return models.Transaction{}, ErrInsufficientBalance
	}

	txn := models.Transaction{
		ID:                    uuid.New().String(),
		AccountID:             p.AccountID,
		UserID:                p.UserID,
		Direction:             dir,
		Amount:                p.Amount,
		ExternalAccountNumber: p.ExternalAccountNumber,
		ExternalBankName:      p.ExternalBankName,
		Description:           p.Description,
		CreatedAt:             time.Now().UTC(),
	}
	txn.BalanceAfter = balance.Add(txn.SignedAmount())

	// Journal row and cache update land as one unit; on failure nothing
	// downstream runs and the account is untouched.
	if err := s.store.AppendAndCache(ctx, txn, txn.BalanceAfter); err != nil {
		return models.Transaction{}, &StorageError{Op: "append transaction", Err: err}
	}
	return txn, nil
}

// propagate pushes the committed transfer out to the mirror account, the
// linked mirror and the event bus. Every failure here is downgraded to a
// logged PropagationWarning: the transfer has already committed and nothing
// in this method may undo it.
func (s *TransferService) propagate(ctx context.Context, txn models.Transaction) []PropagationWarning {
	// The transfer has already committed; its propagation budget is the
	// timeout alone, not the lifetime of the caller's request.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.mirrorTimeout)
	defer cancel()

	var warnings []PropagationWarning
	warn := func(target string, err error) {
		w := PropagationWarning{Target: target, AccountNumber: txn.ExternalAccountNumber, Err: err}
		log.Printf("warn: %s", w)
		warnings = append(warnings, w)
	}

	// A ledger deposit models money leaving the external source account, so
	// the mirror moves opposite to the ledger.
	delta := txn.SignedAmount().Neg()

	if _, err := s.mirrors.FindByAccountNumber(ctx, txn.ExternalAccountNumber); err != nil {
		warn("mirror", err)
	} else if err := s.mirrors.ApplyDelta(ctx, txn.ExternalAccountNumber, delta); err != nil {
		warn("mirror", err)
	}

	if s.linked != nil {
		if _, err := s.linked.FindByAccountNumber(ctx, txn.ExternalAccountNumber); err != nil {
			// No linked mirror is the normal case: nothing to propagate to.
			if !errors.Is(err, ErrMirrorNotFound) {
				warn("linked-mirror", err)
			}
		} else if err := s.linked.ApplyDelta(ctx, txn.ExternalAccountNumber, delta); err != nil {
			warn("linked-mirror", err)
		}
	}

	if s.events != nil {
		evt := events.TransferCompleted{
			TransactionID:         txn.ID,
			AccountID:             txn.AccountID,
			UserID:                txn.UserID,
			Direction:             string(txn.Direction),
			Amount:                txn.Amount,
			BalanceAfter:          txn.BalanceAfter,
			ExternalAccountNumber: txn.ExternalAccountNumber,
			OccurredAt:            txn.CreatedAt,
		}
		if err := s.events.Publish(ctx, TopicTransferCompleted, evt); err != nil {
			warn("event", err)
		}
	}

	return warnings
}

// OpenAccountParams carries a request to open a new group account.
type OpenAccountParams struct {
	Name          string
	AccountNumber string
	CreatorID     string
	Password      string
}

// OpenAccount creates a group account with a zero balance.
func (s *TransferService) OpenAccount(ctx context.Context, p OpenAccountParams) (models.GroupAccount, error) {
	acct := models.GroupAccount{
		ID:             uuid.New().String(),
		Name:           p.Name,
		AccountNumber:  p.AccountNumber,
		CreatorID:      p.CreatorID,
		PasswordDigest: models.HashPassword(p.Password),
		CachedBalance:  decimal.Zero,
		Status:         models.AccountStatusActive,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, acct); err != nil {
		return models.GroupAccount{}, &StorageError{Op: "create account", Err: err}
	}
	return acct, nil
}

// CloseAccount moves an account to its terminal CLOSED state. Closing is a
// mutation, so it authenticates like every other one.
func (s *TransferService) CloseAccount(ctx context.Context, accountID, password string) error {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return err
	}
	ok, err := s.store.Authenticate(ctx, accountID, password)
	if err != nil {
		return &StorageError{Op: "authenticate", Err: err}
	}
	if !ok {
		return ErrAuthenticationFailed
	}

	// Status is shared mutable state like the cached balance: hold the
	// account lock so a close cannot interleave with an in-flight commit.
	mu := s.accountLock(accountID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.store.CloseAccount(ctx, accountID); err != nil {
		return &StorageError{Op: "close account", Err: err}
	}
	return nil
}

// Balance returns the cached balance for an account.
func (s *TransferService) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return s.store.CurrentBalance(ctx, accountID)
}

// Totals aggregates the account's journal.
func (s *TransferService) Totals(ctx context.Context, accountID string) (models.AccountTotals, error) {
	return s.store.Totals(ctx, accountID)
}

// History lists the account's journal, newest first.
func (s *TransferService) History(ctx context.Context, accountID string, page models.Page) ([]models.Transaction, string, error) {
	return s.store.History(ctx, accountID, page)
}

// HistoryForUser lists the rows one member wrote, newest first.
func (s *TransferService) HistoryForUser(ctx context.Context, accountID, userID string, page models.Page) ([]models.Transaction, string, error) {
	return s.store.HistoryForUser(ctx, accountID, userID, page)
}
