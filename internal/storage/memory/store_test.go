package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jointly-dev/jointly/internal/ledger"
	"github.com/jointly-dev/jointly/internal/models"
)

func testAccount(id string) models.GroupAccount {
	return models.GroupAccount{
		ID:             id,
		Name:           "fund " + id,
		AccountNumber:  "num-" + id,
		CreatorID:      "creator",
		PasswordDigest: models.HashPassword("pw"),
		CachedBalance:  decimal.Zero,
		Status:         models.AccountStatusActive,
		CreatedAt:      time.Now().UTC(),
	}
}

func testTxn(accountID, userID string, dir models.Direction, amount int64) models.Transaction {
	return models.Transaction{
		ID:                    fmt.Sprintf("txn-%s-%d-%s", accountID, amount, dir),
		AccountID:             accountID,
		UserID:                userID,
		Direction:             dir,
		Amount:                decimal.NewFromInt(amount),
		ExternalAccountNumber: "ext-1",
		CreatedAt:             time.Now().UTC(),
	}
}

func TestAppendRejectsNonPositiveAmount(t *testing.T) {
	s := NewStore()

	for _, amount := range []int64{0, -10} {
		txn := testTxn("a1", "u1", models.DirectionDeposit, amount)
		err := s.Append(context.Background(), txn)
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount, "amount=%d", amount)
	}
}

func TestSumSignedAmount(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, testTxn("a1", "u1", models.DirectionDeposit, 100)))
	require.NoError(t, s.Append(ctx, testTxn("a1", "u1", models.DirectionWithdrawal, 30)))
	require.NoError(t, s.Append(ctx, testTxn("a2", "u1", models.DirectionDeposit, 999)))

	sum, err := s.SumSignedAmount(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(70)), "sum=%s", sum)

	sum, err = s.SumSignedAmount(ctx, "empty")
	require.NoError(t, err)
	assert.True(t, sum.IsZero(), "no rows defaults to zero")
}

func TestAppendAndCacheIsAtomic(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, testAccount("a1")))

	txn := testTxn("a1", "u1", models.DirectionDeposit, 100)
	require.NoError(t, s.AppendAndCache(ctx, txn, decimal.NewFromInt(100)))

	bal, err := s.CurrentBalance(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(100)))

	// Unknown account: neither the row nor the cache lands.
	orphan := testTxn("ghost", "u1", models.DirectionDeposit, 50)
	err = s.AppendAndCache(ctx, orphan, decimal.NewFromInt(50))
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	sum, err := s.SumSignedAmount(ctx, "ghost")
	require.NoError(t, err)
	assert.True(t, sum.IsZero(), "failed AppendAndCache must not leave a journal row")

	// Invalid amount: same story.
	bad := testTxn("a1", "u1", models.DirectionDeposit, 0)
	err = s.AppendAndCache(ctx, bad, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	bal, err = s.CurrentBalance(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(100)), "cache untouched after failed append")
}

func TestHistoryNewestFirstWithPaging(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		txn := testTxn("a1", "u1", models.DirectionDeposit, int64(i))
		txn.ID = fmt.Sprintf("txn-%d", i)
		require.NoError(t, s.Append(ctx, txn))
	}

	page1, next, err := s.History(ctx, "a1", models.Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "txn-5", page1[0].ID, "newest row comes first")
	assert.Equal(t, "txn-4", page1[1].ID)
	require.NotEmpty(t, next)

	page2, next, err := s.History(ctx, "a1", models.Page{Token: next, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "txn-3", page2[0].ID)
	require.NotEmpty(t, next)

	page3, next, err := s.History(ctx, "a1", models.Page{Token: next, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "txn-1", page3[0].ID)
	assert.Empty(t, next, "token must be empty once exhausted")
}

func TestHistoryRejectsBadToken(t *testing.T) {
	s := NewStore()
	_, _, err := s.History(context.Background(), "a1", models.Page{Token: "not-a-token"})
	assert.Error(t, err)
}

func TestHistoryForUser(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, testTxn("a1", "mom", models.DirectionDeposit, 10)))
	require.NoError(t, s.Append(ctx, testTxn("a1", "dad", models.DirectionDeposit, 20)))
	require.NoError(t, s.Append(ctx, testTxn("a1", "mom", models.DirectionWithdrawal, 5)))

	entries, next, err := s.HistoryForUser(ctx, "a1", "mom", models.Page{})
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "mom", e.UserID)
	}
}

func TestTotals(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, testTxn("a1", "u1", models.DirectionDeposit, 100)))
	require.NoError(t, s.Append(ctx, testTxn("a1", "u1", models.DirectionDeposit, 50)))
	require.NoError(t, s.Append(ctx, testTxn("a1", "u1", models.DirectionWithdrawal, 30)))

	totals, err := s.Totals(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, totals.DepositTotal.Equal(decimal.NewFromInt(150)))
	assert.True(t, totals.WithdrawalTotal.Equal(decimal.NewFromInt(30)))
	assert.True(t, totals.Balance.Equal(decimal.NewFromInt(120)))
}

func TestAccountLifecycle(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.CreateAccount(ctx, testAccount("a1")))
	assert.Error(t, s.CreateAccount(ctx, testAccount("a1")), "duplicate ID rejected")

	dup := testAccount("a2")
	dup.AccountNumber = "num-a1"
	assert.Error(t, s.CreateAccount(ctx, dup), "duplicate account number rejected")

	ok, err := s.Authenticate(ctx, "a1", "pw")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Authenticate(ctx, "a1", "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.CloseAccount(ctx, "a1"))
	acct, err := s.GetAccount(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusClosed, acct.Status)

	_, err = s.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	assert.ErrorIs(t, s.CloseAccount(ctx, "missing"), ledger.ErrAccountNotFound)
}

func TestUpdateCachedBalanceBumpsVersion(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, testAccount("a1")))

	require.NoError(t, s.UpdateCachedBalance(ctx, "a1", decimal.NewFromInt(77)))
	acct, err := s.GetAccount(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, acct.CachedBalance.Equal(decimal.NewFromInt(77)))
	assert.Equal(t, int64(1), acct.Version)
}

func TestMirrorGatewayDelta(t *testing.T) {
	m := NewMirrorStore()
	ctx := context.Background()

	m.Put(models.MirrorAccount{AccountNumber: "777", BankName: "Kookmin", Balance: decimal.NewFromInt(100)})

	require.NoError(t, m.ApplyDelta(ctx, "777", decimal.NewFromInt(-40)))
	acct, err := m.FindByAccountNumber(ctx, "777")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(decimal.NewFromInt(60)))

	_, err = m.FindByAccountNumber(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrMirrorNotFound)
	assert.ErrorIs(t, m.ApplyDelta(ctx, "missing", decimal.NewFromInt(1)), ledger.ErrMirrorNotFound)
}

func TestLinkedMirrorGatewayDelta(t *testing.T) {
	l := NewLinkedMirrorStore()
	ctx := context.Background()

	l.Link(models.LinkedMirror{AccountNumber: "777", LinkedByUserID: "mom", Balance: decimal.NewFromInt(100)})

	require.NoError(t, l.ApplyDelta(ctx, "777", decimal.NewFromInt(25)))
	mirror, err := l.FindByAccountNumber(ctx, "777")
	require.NoError(t, err)
	assert.True(t, mirror.Balance.Equal(decimal.NewFromInt(125)))

	_, err = l.FindByAccountNumber(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrMirrorNotFound)
}
