package ledger

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jointly-dev/jointly/internal/interfaces"
)

// DriftReport records one cache-vs-journal comparison for an account.
type DriftReport struct {
	AccountID      string          `json:"account_id"`
	CachedBalance  decimal.Decimal `json:"cached_balance"`
	JournalBalance decimal.Decimal `json:"journal_balance"`
	Drift          decimal.Decimal `json:"drift"` // cached minus journal
	Corrected      bool            `json:"corrected"`
	CheckedAt      time.Time       `json:"checked_at"`
}

// Reconciler bounds drift between the cached balance and the journal sum.
// The journal is authoritative: on mismatch the cache is overwritten from
// the journal, never the other way around.
type Reconciler struct {
	store interfaces.LedgerStore
	svc   *TransferService // lends its per-account locks
}

// NewReconciler builds a Reconciler sharing svc's account locks, so a check
// never interleaves with an in-flight transfer on the same account.
func NewReconciler(store interfaces.LedgerStore, svc *TransferService) *Reconciler {
	return &Reconciler{store: store, svc: svc}
}

// ReconcileAccount compares the cached balance to the journal sum and
// overwrites the cache if they disagree.
func (r *Reconciler) ReconcileAccount(ctx context.Context, accountID string) (DriftReport, error) {
	mu := r.svc.accountLock(accountID)
	mu.Lock()
	defer mu.Unlock()

	cached, err := r.store.CurrentBalance(ctx, accountID)
	if err != nil {
		return DriftReport{}, err
	}
	journal, err := r.store.SumSignedAmount(ctx, accountID)
	if err != nil {
		return DriftReport{}, err
	}

	report := DriftReport{
		AccountID:      accountID,
		CachedBalance:  cached,
		JournalBalance: journal,
		Drift:          cached.Sub(journal),
		CheckedAt:      time.Now().UTC(),
	}
	if cached.Equal(journal) {
		return report, nil
	}

	log.Printf("reconcile: account %s cached %s != journal %s, overwriting cache",
		accountID, cached.StringFixed(2), journal.StringFixed(2))
	if err := r.store.UpdateCachedBalance(ctx, accountID, journal); err != nil {
		return report, &StorageError{Op: "overwrite cached balance", Err: err}
	}
	report.Corrected = true
	return report, nil
}

// ReconcileAll sweeps every known account once.
func (r *Reconciler) ReconcileAll(ctx context.Context) ([]DriftReport, error) {
	accounts, err := r.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	reports := make([]DriftReport, 0, len(accounts))
	for _, acct := range accounts {
		report, err := r.ReconcileAccount(ctx, acct.ID)
		if err != nil {
			log.Printf("reconcile: account %s check failed: %v", acct.ID, err)
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Run sweeps all accounts on the given interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.ReconcileAll(ctx); err != nil {
				log.Printf("reconcile: sweep failed: %v", err)
			}
		}
	}
}
